package sqlforge

// Engine is the main entry point a host constructs once and reuses across
// a build: it ties a dialect default, the validator memoization cache, and
// a MethodPlanner together. An Engine holds no state beyond the cache
// (§9's "no hidden global state"); every PlanMethod call is otherwise pure.
type Engine struct {
	config  EngineConfig
	planner *MethodPlanner
}

// NewEngine builds an Engine from an EngineConfig.
func NewEngine(cfg EngineConfig) *Engine {
	cache := newValidatorCache(cfg.ValidatorCacheSize, cfg.ValidatorCacheTTL)
	return &Engine{config: cfg, planner: NewMethodPlanner(cache, cfg.Strict)}
}

// NewDefaultEngine builds an Engine with DefaultEngineConfig.
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultEngineConfig())
}

// DefaultDialect resolves the engine's configured default dialect profile.
func (e *Engine) DefaultDialect() DialectProfile {
	return ProfileFor(dialectNameFromString(e.config.DefaultDialect))
}

// Plan plans one method against an entity (nil for scalar-only methods)
// under an explicit dialect. When dialect is nil it uses the method's
// Flags.DialectOverride if set, else the engine's default dialect.
func (e *Engine) Plan(method MethodDescriptor, entity *EntityDescriptor, dialect *DialectProfile) (ExecutionPlan, []Diagnostic, error) {
	d := e.DefaultDialect()
	if method.Flags.DialectOverride != nil {
		d = ProfileFor(*method.Flags.DialectOverride)
	}
	if dialect != nil {
		d = *dialect
	}
	return e.planner.PlanMethod(method, entity, d)
}

// PlanAll plans every method in specs under each spec's own Dialect. A
// zero-valued Dialect is used as is: neither the engine's default dialect
// nor a method's DialectOverride is substituted for it.
func (e *Engine) PlanAll(specs []MethodPlanSpec) ([]MethodPlanResult, error) {
	return e.planner.PlanAll(specs)
}

// NewRuntimeRenderer builds a RuntimeRenderer consistent with this
// engine's configured batch chunk size.
func (e *Engine) NewRuntimeRenderer(dialect DialectProfile) *RuntimeRenderer {
	return NewRuntimeRenderer(dialect, e.config.BatchChunkSize)
}

// NewRuntimeRendererForMethod builds a RuntimeRenderer sized for one
// method's batch operations, honoring a per-method BatchMaxSize override
// over the engine's configured default.
func (e *Engine) NewRuntimeRendererForMethod(method MethodDescriptor, dialect DialectProfile) *RuntimeRenderer {
	return NewRuntimeRenderer(dialect, method.effectiveBatchMaxSize(e.config.BatchChunkSize))
}
