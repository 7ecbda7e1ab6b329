package sqlforge

// BindingSourceKind classifies where a ParameterBinding's value comes from
// at call time.
type BindingSourceKind int

const (
	SourceMethodParam BindingSourceKind = iota
	SourceEntityField
	SourceLiteral
	SourceGeneratedID
)

// BindingSource describes the origin of one parameter binding.
type BindingSource struct {
	Kind BindingSourceKind

	Name string // MethodParam: the parameter name

	EntityParam string // EntityField: the entity-typed parameter name
	FieldName   string // EntityField: the field within it

	Literal interface{} // Literal: the literal value itself
}

// ParameterBinding names a parameter slot appearing in ExecutionPlan.SQL and
// pairs it with where its value comes from and what type it carries.
type ParameterBinding struct {
	Name    string
	Source  BindingSource
	TypeTag DBTypeTag
}

// ColumnProjection maps one column of a result row, in reader order, onto
// the entity field it materializes without runtime reflection (§9).
type ColumnProjection struct {
	ColumnIndex int
	FieldName   string
	DBType      DBTypeTag
	IsNullable  bool
}

// ResultShape mirrors a MethodDescriptor's return shape, carrying the
// projection needed to read Entity/Collection results.
type ResultShape struct {
	Kind       ReturnKind
	TypeTag    string
	Projection []ColumnProjection // always set for Entity/OptionalEntity/Collection; for other kinds, set when the template used {{columns}}
}

// PostProcessingKind is the set of post-execution behaviors an emitted
// statement may require.
type PostProcessingKind int

const (
	PostNone PostProcessingKind = iota
	PostReturnAffectedRows
	PostReturnLastInsertID
	PostReturnOutputValue
)

// PostProcessing pairs a PostProcessingKind with the dialect id-return
// strategy, when relevant.
type PostProcessing struct {
	Kind           PostProcessingKind
	DialectIDStrat IDReturnStrategy
}

// CapacityHintKind classifies how an ExecutionPlan suggests pre-sizing a
// result collection.
type CapacityHintKind int

const (
	CapacityNone CapacityHintKind = iota
	CapacityExplicitLimit
	CapacityFromParam
)

// CapacityHint carries a collection pre-sizing hint for the emitter.
type CapacityHint struct {
	Kind  CapacityHintKind
	N     int    // CapacityExplicitLimit
	Param string // CapacityFromParam
}

// CondBranch carries the payload a {{RUNTIME_COND_<id>}} marker needs at
// call time: which kind of nil/empty test to run against TargetParam, and
// the already-rendered inner/else fragments (themselves possibly containing
// further runtime markers) to splice in depending on the outcome. This is
// an implementation extension of the wire format needed to make deferred
// conditional fragments (§9 design note) resolvable without re-parsing.
type CondBranch struct {
	Kind        ConditionalKind
	TargetParam string
	InnerSQL    string
	ElseSQL     string
}

// ExecutionPlan is the immutable, per-method compiled output of the
// MethodPlanner (C7). It may contain deferred runtime markers in SQL; a
// plan with none is "static" (IsStatic reports true).
type ExecutionPlan struct {
	SQL          string
	Bindings     []ParameterBinding
	Result       ResultShape
	Post         PostProcessing
	CapacityHint CapacityHint
	CondBranches map[string]CondBranch
}

// IsStatic reports whether SQL contains no deferred runtime markers.
func (p ExecutionPlan) IsStatic() bool {
	return !runtimeMarkerPattern.MatchString(p.SQL)
}
