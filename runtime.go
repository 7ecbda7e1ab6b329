package sqlforge

import (
	"fmt"
	"regexp"
	"strings"
)

// runtimeMarkerPattern matches any deferred runtime marker token.
var runtimeMarkerPattern = regexp.MustCompile(`\{\{(RUNTIME_[A-Z0-9_]+)\}\}`)

var (
	nullableLimitPattern  = regexp.MustCompile(`^\{\{RUNTIME_NULLABLE_LIMIT_(.+)\}\}$`)
	nullableOffsetPattern = regexp.MustCompile(`^\{\{RUNTIME_NULLABLE_OFFSET_(.+)\}\}$`)
	whereExprPattern      = regexp.MustCompile(`^\{\{RUNTIME_WHERE_EXPR_(.+)\}\}$`)
	batchValuesPattern    = regexp.MustCompile(`^\{\{RUNTIME_BATCH_VALUES_(.+)\}\}$`)
	condPattern           = regexp.MustCompile(`^\{\{RUNTIME_COND_(\d+)\}\}$`)
	anyMarkerPattern      = regexp.MustCompile(`\{\{RUNTIME_[A-Z0-9_]+\}\}`)
)

// ArgValues is the call-time argument bag a RuntimeRenderer resolves a
// plan's markers against: method parameter name -> value. A nil entry (Go
// nil, or an explicit NullArg sentinel) models the host language's
// null/None.
type ArgValues map[string]interface{}

// NullArg is the sentinel ArgValues stores for an explicitly-null argument,
// distinguishing "absent" from "present but null".
var NullArg = struct{ nullArg bool }{true}

func isNull(v interface{}) bool {
	if v == nil {
		return true
	}
	if v == NullArg {
		return true
	}
	return false
}

func isEmptyValue(v interface{}) bool {
	switch s := v.(type) {
	case string:
		return len(s) == 0
	case []interface{}:
		return len(s) == 0
	default:
		return false
	}
}

// RuntimeRenderer resolves the deferred markers of an ExecutionPlan
// against actual call-time argument values (C9, §4.9). It is stateless,
// thread-safe and performs no I/O; each call allocates only the returned
// string and binding list.
type RuntimeRenderer struct {
	Dialect      DialectProfile
	BatchMaxSize int
}

// NewRuntimeRenderer builds a RuntimeRenderer for a dialect. batchMaxSize
// <= 0 falls back to DefaultBatchSize.
func NewRuntimeRenderer(dialect DialectProfile, batchMaxSize int) *RuntimeRenderer {
	if batchMaxSize <= 0 {
		batchMaxSize = DefaultBatchSize
	}
	return &RuntimeRenderer{Dialect: dialect, BatchMaxSize: batchMaxSize}
}

// RenderedStatement is one fully-resolved statement ready to hand to a
// driver, plus the bindings generated while resolving its markers (e.g. the
// per-tuple parameters of a batch insert).
type RenderedStatement struct {
	SQL             string
	GeneratedParams []ParameterBinding
}

// Resolve expands every runtime marker in plan.SQL against args, returning
// the statements to execute: none for an empty batch collection, and more
// than one only when a batch exceeds BatchMaxSize and must be chunked (§4.9).
func (r *RuntimeRenderer) Resolve(plan ExecutionPlan, args ArgValues) ([]RenderedStatement, error) {
	if batchParam, ok := findBatchParam(plan.SQL); ok {
		return r.resolveBatch(plan, batchParam, args)
	}

	sql, generated, err := r.resolveScalarMarkers(plan.SQL, plan, args)
	if err != nil {
		return nil, err
	}
	return []RenderedStatement{{SQL: sql, GeneratedParams: generated}}, nil
}

func findBatchParam(sql string) (string, bool) {
	for _, marker := range anyMarkerPattern.FindAllString(sql, -1) {
		if bm := batchValuesPattern.FindStringSubmatch(marker); bm != nil {
			return bm[1], true
		}
	}
	return "", false
}

// resolveScalarMarkers resolves every non-batch marker (nullable limit,
// nullable offset, where-expr, nested conditionals) in sql.
func (r *RuntimeRenderer) resolveScalarMarkers(sql string, plan ExecutionPlan, args ArgValues) (string, []ParameterBinding, error) {
	var generated []ParameterBinding
	var resolveErr error

	out := anyMarkerPattern.ReplaceAllStringFunc(sql, func(marker string) string {
		if resolveErr != nil {
			return marker
		}
		switch {
		case nullableLimitPattern.MatchString(marker):
			p := nullableLimitPattern.FindStringSubmatch(marker)[1]
			v, present := args[p]
			if !present || isNull(v) {
				return ""
			}
			tok := fmt.Sprintf("%s%s", r.Dialect.ParamPrefix, p)
			generated = append(generated, ParameterBinding{Name: p, Source: BindingSource{Kind: SourceMethodParam, Name: p}})
			return r.Dialect.RenderPagination(tok, "", true)

		case nullableOffsetPattern.MatchString(marker):
			p := nullableOffsetPattern.FindStringSubmatch(marker)[1]
			v, present := args[p]
			if !present || isNull(v) {
				return ""
			}
			tok := fmt.Sprintf("%s%s", r.Dialect.ParamPrefix, p)
			generated = append(generated, ParameterBinding{Name: p, Source: BindingSource{Kind: SourceMethodParam, Name: p}})
			return r.Dialect.RenderPagination("", tok, true)

		case whereExprPattern.MatchString(marker):
			p := whereExprPattern.FindStringSubmatch(marker)[1]
			v, present := args[p]
			if !present || isNull(v) {
				return ""
			}
			expr, ok := v.(PredicateExpr)
			if !ok {
				resolveErr = &RuntimeError{Diagnostic{ID: DiagIllFormedPredicateValue, Severity: SeverityError,
					Message: "predicate DSL value for " + p + " is not a PredicateExpr"}}
				return marker
			}
			translated, err := TranslatePredicate(expr, r.Dialect)
			if err != nil {
				resolveErr = err
				return marker
			}
			generated = append(generated, translated.Bindings...)
			return translated.Fragment

		case condPattern.MatchString(marker):
			resolved, err := r.resolveCond(marker, plan, args, &generated)
			if err != nil {
				resolveErr = err
				return marker
			}
			return resolved

		default:
			return marker
		}
	})

	if resolveErr != nil {
		return "", nil, resolveErr
	}
	return out, generated, nil
}

func (r *RuntimeRenderer) resolveCond(marker string, plan ExecutionPlan, args ArgValues, generated *[]ParameterBinding) (string, error) {
	branch, ok := plan.CondBranches[marker]
	if !ok {
		return "", &RuntimeError{Diagnostic{ID: DiagIllFormedPredicateValue, Severity: SeverityError,
			Message: "no branch recorded for " + marker}}
	}
	v, present := args[branch.TargetParam]

	var takeInner bool
	switch branch.Kind {
	case IfNotNull:
		takeInner = present && !isNull(v)
	case IfNull:
		takeInner = !present || isNull(v)
	case IfNotEmpty:
		takeInner = present && !isNull(v) && !isEmptyValue(v)
	case IfEmpty:
		takeInner = !present || isNull(v) || isEmptyValue(v)
	}

	frag := branch.ElseSQL
	if takeInner {
		frag = branch.InnerSQL
	}

	resolved, gen, err := r.resolveScalarMarkers(frag, plan, args)
	if err != nil {
		return "", err
	}
	*generated = append(*generated, gen...)
	return resolved, nil
}

// resolveBatch implements {{RUNTIME_BATCH_VALUES_P}} expansion (§4.9): N
// tuples of M parameter tokens, chunked at BatchMaxSize. A zero-length
// collection executes nothing and is not an error (the runtime refuses to
// send an empty batch, returning zero statements).
func (r *RuntimeRenderer) resolveBatch(plan ExecutionPlan, param string, args ArgValues) ([]RenderedStatement, error) {
	raw, present := args[param]
	if !present || isNull(raw) {
		return nil, &RuntimeError{Diagnostic{ID: DiagEmptyBatchExecuted, Severity: SeverityError,
			Message: "batch parameter " + param + " is missing or null"}}
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, &RuntimeError{Diagnostic{ID: DiagIllFormedPredicateValue, Severity: SeverityError,
			Message: "batch parameter " + param + " is not a collection"}}
	}
	if len(items) == 0 {
		return nil, nil
	}

	marker := "{{RUNTIME_BATCH_VALUES_" + param + "}}"

	var statements []RenderedStatement
	for start := 0; start < len(items); start += r.BatchMaxSize {
		end := start + r.BatchMaxSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]

		tuples := make([]string, 0, len(chunk))
		var generated []ParameterBinding
		for i, item := range chunk {
			fields, _ := item.(map[string]interface{})
			tokens := make([]string, 0, len(plan.Result.Projection))
			cols := plan.Result.Projection
			if len(cols) == 0 {
				cols = inferColumnsFromFields(fields)
			}
			for j, col := range cols {
				name := fmt.Sprintf("p_%d_%d", i, j)
				tokens = append(tokens, r.Dialect.ParamPrefix+name)
				generated = append(generated, ParameterBinding{
					Name:    name,
					Source:  BindingSource{Kind: SourceEntityField, EntityParam: param, FieldName: col.FieldName},
					TypeTag: col.DBType,
				})
			}
			tuples = append(tuples, "("+strings.Join(tokens, ", ")+")")
		}

		sql := strings.Replace(plan.SQL, marker, strings.Join(tuples, ", "), 1)
		statements = append(statements, RenderedStatement{SQL: sql, GeneratedParams: generated})
	}
	return statements, nil
}

// inferColumnsFromFields derives a batch row's columns from its field map when
// the plan carries no projection. Go map iteration order is not defined, so
// the column order it returns can differ between calls.
func inferColumnsFromFields(fields map[string]interface{}) []ColumnProjection {
	proj := make([]ColumnProjection, 0, len(fields))
	for name := range fields {
		proj = append(proj, ColumnProjection{FieldName: name, DBType: TypeUserDefined})
	}
	return proj
}
