package sqlforge

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

// MethodPlanner consumes a MethodDescriptor, its parsed template AST, an
// EntityDescriptor (nil for scalar-only methods) and a DialectProfile, and
// produces an ExecutionPlan (C7). A MethodPlanner is stateless aside from
// the optional shared validatorCache; every PlanMethod call is pure and
// depends only on its arguments.
type MethodPlanner struct {
	cache  *validatorCache
	strict bool
}

// NewMethodPlanner builds a MethodPlanner. cache may be nil, in which case
// validation is not memoized (every call re-validates). strict mirrors
// EngineConfig.Strict: it promotes DiagUnknownOption from a warning to a
// hard validation error.
func NewMethodPlanner(cache *validatorCache, strict bool) *MethodPlanner {
	return &MethodPlanner{cache: cache, strict: strict}
}

// PlanMethod runs the full C7 algorithm (§4.7) for one method: validate,
// render, deduce result/post/capacity, emit. Diagnostics accumulated while
// rendering (warnings) are returned alongside the plan even on success.
func (mp *MethodPlanner) PlanMethod(method MethodDescriptor, entity *EntityDescriptor, dialect DialectProfile) (ExecutionPlan, []Diagnostic, error) {
	fields := map[string]interface{}{"method": method.Name, "dialect": dialect.Name.String()}
	LogDebug("planning method", fields)

	nodes, err := ParseTemplate(method.SQLTemplate)
	if err != nil {
		LogError("template parse failed", map[string]interface{}{"method": method.Name, "error": err.Error()})
		return ExecutionPlan{}, nil, err
	}

	var validation ValidationResult
	if mp.cache != nil {
		validation = mp.cache.getOrValidate(method.SQLTemplate, dialect.Name, nodes, mp.strict)
	} else {
		validation = ValidateTemplate(method.SQLTemplate, nodes, mp.strict)
	}
	if !validation.IsValid {
		LogError("template validation failed", fields)
		return ExecutionPlan{}, validation.Warnings, combineErrors(validation.Errors)
	}
	for _, w := range validation.Warnings {
		LogWarn(w.Message, map[string]interface{}{"method": method.Name, "diagnostic_id": w.ID})
	}

	ctx := newPlanCtx(dialect, entity, method)

	sql, err := ctx.renderNodes(nodes)
	if err != nil {
		LogError("template rendering failed", map[string]interface{}{"method": method.Name, "error": err.Error()})
		return ExecutionPlan{}, ctx.diagnostics, err
	}

	scanLiteralParamRefs(nodes, dialect, method, ctx)

	result, err := deduceResult(method, entity, ctx)
	if err != nil {
		LogError("result shape deduction failed", map[string]interface{}{"method": method.Name, "error": err.Error()})
		return ExecutionPlan{}, ctx.diagnostics, err
	}

	// §4.7's default row capacity only matters for a collection result; a
	// scalar/entity/unit return never allocates a slice to pre-size.
	if ctx.capacity.Kind == CapacityNone && result.Kind == ReturnCollection {
		ctx.capacity = CapacityHint{Kind: CapacityExplicitLimit, N: DefaultCapacityHint}
	}

	plan := ExecutionPlan{
		SQL:          sql,
		Bindings:     ctx.bindings,
		Result:       result,
		Post:         deducePost(method, dialect),
		CapacityHint: ctx.capacity,
		CondBranches: ctx.condBranches,
	}

	diags := append(validation.Warnings, ctx.diagnostics...)
	for _, d := range ctx.diagnostics {
		LogWarn(d.Message, map[string]interface{}{"method": method.Name, "diagnostic_id": d.ID})
	}
	return plan, diags, nil
}

// combineErrors turns a slice of error-severity Diagnostics into a single
// aggregated error, or nil if there are none.
func combineErrors(errs []Diagnostic) error {
	var out error
	for _, d := range errs {
		out = multierr.Append(out, d)
	}
	return out
}

// renderNodes walks a node sequence, concatenating literal text and
// rendered placeholders, and replacing conditional blocks with a
// RUNTIME_COND marker (deferred conditional fragments, §9) whose branches
// are recorded on ctx.condBranches.
func (c *planCtx) renderNodes(nodes []Node) (string, error) {
	var b strings.Builder
	for _, n := range nodes {
		switch v := n.(type) {
		case LiteralNode:
			b.WriteString(v.Text)
		case PlaceholderNode:
			frag, err := c.renderPlaceholder(v)
			if err != nil {
				return "", err
			}
			b.WriteString(frag)
		case ConditionalNode:
			frag, err := c.renderConditional(v)
			if err != nil {
				return "", err
			}
			b.WriteString(frag)
		}
	}
	return b.String(), nil
}

func (c *planCtx) renderConditional(node ConditionalNode) (string, error) {
	innerSQL, err := c.renderNodes(node.Inner)
	if err != nil {
		return "", err
	}
	var elseSQL string
	if node.Else != nil {
		elseSQL, err = c.renderNodes(node.Else)
		if err != nil {
			return "", err
		}
	}

	id := c.nextCondID()
	marker := fmt.Sprintf("{{RUNTIME_COND_%d}}", id)
	c.condBranches[marker] = CondBranch{
		Kind:        node.Kind,
		TargetParam: node.TargetParam,
		InnerSQL:    innerSQL,
		ElseSQL:     elseSQL,
	}
	return marker, nil
}

// scanLiteralParamRefs implements §4.7 step 3: scan literal text for
// occurrences of dialect.param_prefix + identifier, and add a binding for
// every match naming a known method parameter that isn't already bound.
func scanLiteralParamRefs(nodes []Node, dialect DialectProfile, method MethodDescriptor, ctx *planCtx) {
	pattern := regexp.MustCompile(regexp.QuoteMeta(dialect.ParamPrefix) + `([a-zA-Z_][a-zA-Z0-9_]*)`)
	var scan func(ns []Node)
	scan = func(ns []Node) {
		for _, n := range ns {
			switch v := n.(type) {
			case LiteralNode:
				for _, m := range pattern.FindAllStringSubmatch(v.Text, -1) {
					name := m[1]
					if p, ok := method.ParamByName(name); ok {
						ctx.addBinding(ParameterBinding{
							Name:    name,
							Source:  BindingSource{Kind: SourceMethodParam, Name: name},
							TypeTag: paramDBType(p),
						})
					}
				}
			case ConditionalNode:
				scan(v.Inner)
				scan(v.Else)
			}
		}
	}
	scan(nodes)
}

// deduceResult implements §4.7 step 4. The projection is also populated for
// non-entity-shaped returns (e.g. InsertMany's AffectedRowsCount) whenever
// the template selected an explicit column set via {{columns}}, since
// {{batch_values}} resolution at runtime needs that same column order to
// generate per-tuple parameter tokens.
func deduceResult(method MethodDescriptor, entity *EntityDescriptor, ctx *planCtx) (ResultShape, error) {
	shape := ResultShape{Kind: method.ReturnShape.Kind, TypeTag: method.ReturnShape.TypeTag}

	switch shape.Kind {
	case ReturnEntity, ReturnOptionalEntity, ReturnCollection:
		if entity == nil {
			return ResultShape{}, newSemanticError(DiagInvalidReturnShape,
				"method returns an entity shape but no EntityDescriptor was supplied")
		}
		cols := ctx.selectedColumns
		if cols == nil {
			cols = entity.Columns
		}
		shape.Projection = columnProjection(cols)
	default:
		if ctx.selectedColumns != nil {
			shape.Projection = columnProjection(ctx.selectedColumns)
		}
	}
	return shape, nil
}

func columnProjection(cols []ColumnMeta) []ColumnProjection {
	proj := make([]ColumnProjection, 0, len(cols))
	for i, col := range cols {
		proj = append(proj, ColumnProjection{
			ColumnIndex: i,
			FieldName:   col.FieldName,
			DBType:      col.DBType,
			IsNullable:  col.IsNullable,
		})
	}
	return proj
}

// deducePost implements §4.7 step 5.
func deducePost(method MethodDescriptor, dialect DialectProfile) PostProcessing {
	switch method.ReturnShape.Kind {
	case ReturnGeneratedID:
		return PostProcessing{Kind: PostReturnLastInsertID, DialectIDStrat: dialect.ReturnsInsertedIDVia}
	case ReturnAffectedRowsCount:
		return PostProcessing{Kind: PostReturnAffectedRows}
	default:
		return PostProcessing{Kind: PostNone}
	}
}

// MethodPlanSpec bundles one method's planning inputs for PlanAll.
type MethodPlanSpec struct {
	Method  MethodDescriptor
	Entity  *EntityDescriptor
	Dialect DialectProfile
}

// MethodPlanResult pairs one spec's outcome: a plan and its diagnostics on
// success, or an error. Planning one method's failure never prevents its
// siblings from planning (§7 propagation rule).
type MethodPlanResult struct {
	Method      string
	Plan        ExecutionPlan
	Diagnostics []Diagnostic
	Err         error
}

// PlanAll plans every method independently, aggregating per-method failures
// with multierr while still returning plans for methods that succeeded.
func (mp *MethodPlanner) PlanAll(specs []MethodPlanSpec) ([]MethodPlanResult, error) {
	results := make([]MethodPlanResult, 0, len(specs))
	var aggregate error
	for _, spec := range specs {
		plan, diags, err := mp.PlanMethod(spec.Method, spec.Entity, spec.Dialect)
		results = append(results, MethodPlanResult{
			Method: spec.Method.Name, Plan: plan, Diagnostics: diags, Err: err,
		})
		if err != nil {
			aggregate = multierr.Append(aggregate, fmt.Errorf("%s: %w", spec.Method.Name, err))
		}
	}
	return results, aggregate
}
