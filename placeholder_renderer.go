package sqlforge

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// planCtx carries the mutable state threaded through rendering a single
// method's template: the immutable inputs (dialect, entity, method) plus
// the accumulators the MethodPlanner (C7) reads back afterwards.
type planCtx struct {
	dialect DialectProfile
	entity  *EntityDescriptor
	method  MethodDescriptor

	bindings        []ParameterBinding
	boundNames      map[string]bool
	diagnostics     []Diagnostic
	hasWhere        bool
	hasOrderBy      bool
	capacity        CapacityHint
	condSeq         int
	selectedColumns []ColumnMeta
	condBranches    map[string]CondBranch
}

func newPlanCtx(dialect DialectProfile, entity *EntityDescriptor, method MethodDescriptor) *planCtx {
	return &planCtx{
		dialect: dialect, entity: entity, method: method,
		boundNames:   map[string]bool{},
		condBranches: map[string]CondBranch{},
		// ORDER BY written as raw literal SQL (not {{orderby}}) is invisible
		// to the node walk, so seed the flag from the raw template text up
		// front; renderOrderBy still sets it for the placeholder form.
		hasOrderBy: orderByPattern.MatchString(method.SQLTemplate),
	}
}

func (c *planCtx) warn(id, msg string) {
	c.diagnostics = append(c.diagnostics, newWarning(id, msg))
}

func (c *planCtx) addBinding(b ParameterBinding) {
	if c.boundNames[b.Name] {
		return
	}
	c.boundNames[b.Name] = true
	c.bindings = append(c.bindings, b)
}

func (c *planCtx) nextCondID() int {
	c.condSeq++
	return c.condSeq
}

// resolveEntityBodyParam returns the method's single EntityBody parameter,
// if any.
func resolveEntityBodyParam(m MethodDescriptor) (MethodParam, bool) {
	ps := m.ParamsByRole(RoleEntityBody)
	if len(ps) == 0 {
		return MethodParam{}, false
	}
	return ps[0], true
}

// resolveEntityCollectionParam returns the method's single EntityCollection
// parameter, if any.
func resolveEntityCollectionParam(m MethodDescriptor) (MethodParam, bool) {
	ps := m.ParamsByRole(RoleEntityCollection)
	if len(ps) == 0 {
		return MethodParam{}, false
	}
	return ps[0], true
}

// resolvePredicateParam implements §4.4's auto-detection for {{where}}: an
// explicit --param wins; otherwise the method's sole PredicateExpression
// parameter; more than one without an explicit --param is a hard error.
func resolvePredicateParam(m MethodDescriptor, opts map[string]OptionValue) (string, error) {
	if v, ok := opts["param"]; ok && v.Single != "" {
		return v.Single, nil
	}
	ps := m.ParamsByRole(RolePredicateExpression)
	if len(ps) == 0 {
		return "", nil
	}
	if len(ps) > 1 {
		return "", &SemanticError{Diagnostic{ID: DiagAmbiguousExpressionParam, Severity: SeverityError,
			Message: "method has more than one PredicateExpression parameter; use --param to disambiguate"}}
	}
	return ps[0].Name, nil
}

// resolveNamedParam implements the auto-detection for {{limit}}, {{offset}}
// and {{batch_values}}: an explicit --param wins, otherwise the method
// parameter whose name matches the placeholder name.
func resolveNamedParam(m MethodDescriptor, opts map[string]OptionValue, placeholderName string) (MethodParam, bool) {
	if v, ok := opts["param"]; ok && v.Single != "" {
		return m.ParamByName(v.Single)
	}
	return m.ParamByName(placeholderName)
}

func optionList(opts map[string]OptionValue, key string) ([]string, bool) {
	v, ok := opts[key]
	if !ok {
		return nil, false
	}
	if len(v.List) > 0 {
		return v.List, true
	}
	if v.Single != "" {
		return []string{v.Single}, true
	}
	return nil, true
}

// filterColumns applies --include/--exclude/--regex in that order, AND'ed
// together, preserving the entity's declaration order (§4.4, §8).
func filterColumns(cols []ColumnMeta, opts map[string]OptionValue) ([]ColumnMeta, error) {
	include, hasInclude := optionList(opts, "include")
	exclude, _ := optionList(opts, "exclude")
	var re *regexp.Regexp
	if v, ok := opts["regex"]; ok && v.Single != "" {
		var err error
		re, err = regexp.Compile(v.Single)
		if err != nil {
			return nil, newSemanticError(DiagUnknownOption, "invalid --regex pattern: "+err.Error())
		}
	}

	includeSet := toSet(include)
	excludeSet := toSet(exclude)

	out := make([]ColumnMeta, 0, len(cols))
	for _, c := range cols {
		if hasInclude && !includeSet[c.FieldName] {
			continue
		}
		if excludeSet[c.FieldName] {
			continue
		}
		if re != nil && !re.MatchString(c.FieldName) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func toSet(ss []string) map[string]bool {
	m := make(map[string]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}

// renderPlaceholder implements the per-placeholder rendering contract of
// §4.4, returning the SQL fragment (possibly a deferred runtime marker) to
// splice at this position in the literal output.
func (c *planCtx) renderPlaceholder(node PlaceholderNode) (string, error) {
	switch node.Name {
	case "table":
		return c.renderTable(node)
	case "columns":
		return c.renderColumns(node)
	case "values":
		return c.renderValues(node)
	case "set":
		return c.renderSet(node)
	case "where":
		return c.renderWhere(node)
	case "orderby":
		return c.renderOrderBy(node)
	case "limit", "top":
		return c.renderLimit(node)
	case "offset":
		return c.renderOffset(node)
	case "arg":
		return c.renderArg(node)
	case "batch_values":
		return c.renderBatchValues(node)
	case "if":
		c.warn(DiagUnknownPlaceholderName, "{{if}} is a deprecated no-op placeholder")
		return "", nil
	case "join":
		return c.renderJoin(node)
	case "groupby":
		return c.renderGroupBy(node)
	case "having":
		return c.renderHaving(node)
	default:
		return "", newStructuralError(DiagUnknownPlaceholderName, "unknown placeholder: "+node.Name)
	}
}

func (c *planCtx) renderTable(node PlaceholderNode) (string, error) {
	if c.entity == nil {
		c.warn(DiagUnbindablePlaceholder, "{{table}} used on a scalar-only method")
		return "", nil
	}
	name := c.entity.TableName
	if v, ok := node.Options["schema"]; ok && v.Single != "" {
		if err := validateIdentifier(v.Single); err != nil {
			return "", newSemanticError(DiagUnsafeIdentifier, err.Error())
		}
		schema, err := c.dialect.WrapColumn(v.Single)
		if err != nil {
			return "", err
		}
		table, err := c.dialect.WrapColumn(name)
		if err != nil {
			return "", err
		}
		name = schema + "." + table
	} else {
		wrapped, err := c.dialect.WrapColumn(name)
		if err != nil {
			return "", err
		}
		name = wrapped
	}
	if v, ok := node.Options["alias"]; ok && v.Single != "" {
		if err := validateIdentifier(v.Single); err != nil {
			return "", newSemanticError(DiagUnsafeIdentifier, err.Error())
		}
		name += " AS " + v.Single
	}
	return name, nil
}

func (c *planCtx) renderColumns(node PlaceholderNode) (string, error) {
	if c.entity == nil {
		c.warn(DiagUnbindablePlaceholder, "{{columns}} used on a scalar-only method")
		return "", nil
	}
	cols, err := filterColumns(c.entity.Columns, node.Options)
	if err != nil {
		return "", err
	}
	var alias string
	if v, ok := node.Options["alias"]; ok && v.Single != "" {
		alias = v.Single + "."
	}
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		wrapped, err := c.dialect.WrapColumn(col.DBName)
		if err != nil {
			return "", err
		}
		parts = append(parts, alias+wrapped)
	}
	c.selectedColumns = cols
	return strings.Join(parts, ", "), nil
}

func (c *planCtx) renderValues(node PlaceholderNode) (string, error) {
	if c.entity == nil {
		c.warn(DiagUnbindablePlaceholder, "{{values}} used on a scalar-only method")
		return "", nil
	}
	entityParam, ok := resolveEntityBodyParam(c.method)
	if !ok {
		c.warn(DiagUnbindablePlaceholder, "{{values}} has no EntityBody parameter to bind from")
		return "", nil
	}
	cols, err := filterColumns(c.entity.Columns, node.Options)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		parts = append(parts, c.dialect.ParamPrefix+col.DBName)
		c.addBinding(ParameterBinding{
			Name:    col.DBName,
			Source:  BindingSource{Kind: SourceEntityField, EntityParam: entityParam.Name, FieldName: col.FieldName},
			TypeTag: col.DBType,
		})
	}
	return strings.Join(parts, ", "), nil
}

func (c *planCtx) renderSet(node PlaceholderNode) (string, error) {
	if c.entity == nil {
		c.warn(DiagUnbindablePlaceholder, "{{set}} used on a scalar-only method")
		return "", nil
	}
	entityParam, ok := resolveEntityBodyParam(c.method)
	if !ok {
		c.warn(DiagUnbindablePlaceholder, "{{set}} has no EntityBody parameter to bind from")
		return "", nil
	}
	nonKey := make([]ColumnMeta, 0, len(c.entity.Columns))
	for _, col := range c.entity.Columns {
		if !col.IsKey {
			nonKey = append(nonKey, col)
		}
	}
	cols, err := filterColumns(nonKey, node.Options)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		wrapped, err := c.dialect.WrapColumn(col.DBName)
		if err != nil {
			return "", err
		}
		parts = append(parts, wrapped+" = "+c.dialect.ParamPrefix+col.DBName)
		c.addBinding(ParameterBinding{
			Name:    col.DBName,
			Source:  BindingSource{Kind: SourceEntityField, EntityParam: entityParam.Name, FieldName: col.FieldName},
			TypeTag: col.DBType,
		})
	}
	return strings.Join(parts, ", "), nil
}

func (c *planCtx) renderWhere(node PlaceholderNode) (string, error) {
	var softCond string
	if _, soft := node.Options["soft"]; soft && c.entity != nil {
		if col, ok := c.entity.SoftDeleteColumn(); ok {
			wrapped, err := c.dialect.WrapColumn(col.DBName)
			if err != nil {
				return "", err
			}
			lit := c.dialect.BoolFalseLiteral
			if col.DBName == "is_active" {
				lit = c.dialect.BoolTrueLiteral
			}
			softCond = wrapped + " = " + lit
		}
	}

	paramName, err := resolvePredicateParam(c.method, node.Options)
	if err != nil {
		return "", err
	}

	if paramName == "" {
		if softCond == "" {
			return "", nil
		}
		c.hasWhere = true
		return "WHERE " + softCond, nil
	}

	marker := "{{RUNTIME_WHERE_EXPR_" + paramName + "}}"
	c.hasWhere = true
	if softCond == "" {
		return "WHERE " + marker, nil
	}
	return "WHERE " + softCond + " AND " + marker, nil
}

func (c *planCtx) renderOrderBy(node PlaceholderNode) (string, error) {
	col := node.ShorthandArg
	if col == "" {
		if v, ok := node.Options["column"]; ok {
			col = v.Single
		}
	}
	if col == "" {
		c.warn(DiagUnbindablePlaceholder, "{{orderby}} missing a column argument")
		return "", nil
	}
	if err := validateIdentifier(col); err != nil {
		return "", newSemanticError(DiagUnsafeIdentifier, err.Error())
	}
	wrapped, err := c.dialect.WrapColumn(col)
	if err != nil {
		return "", err
	}
	c.hasOrderBy = true
	out := "ORDER BY " + wrapped
	if _, desc := node.Options["desc"]; desc {
		out += " DESC"
	}
	return out, nil
}

func (c *planCtx) renderLimit(node PlaceholderNode) (string, error) {
	if c.dialect.PaginationStyle == OffsetFetch && !c.hasOrderBy {
		c.warn(DiagMissingLimitWithOrderBy, "OFFSET/FETCH pagination without ORDER BY is dialect-dependent; SQL is still emitted")
	}
	if node.Mode != "" {
		n, ok := limitModes[strings.ToLower(node.Mode)]
		if !ok {
			lit, err := strconv.Atoi(node.Mode)
			if err != nil {
				return "", newStructuralError(DiagUnknownOption, "unknown limit mode: "+node.Mode)
			}
			if lit <= 0 || lit > MaxPageSize {
				return "", newSemanticError(DiagUnknownOption,
					fmt.Sprintf("{{limit:%d}} exceeds the maximum page size of %d", lit, MaxPageSize))
			}
			n = lit
		}
		c.capacity = CapacityHint{Kind: CapacityExplicitLimit, N: n}
		return c.dialect.RenderPagination(strconv.Itoa(n), "", c.hasOrderBy), nil
	}

	param, ok := resolveNamedParam(c.method, node.Options, "limit")
	if !ok {
		c.warn(DiagUnbindablePlaceholder, "{{limit}} has no matching method parameter")
		return "", nil
	}
	if c.capacity.Kind == CapacityNone {
		c.capacity = CapacityHint{Kind: CapacityFromParam, Param: param.Name}
	}
	if param.IsNullable {
		return "{{RUNTIME_NULLABLE_LIMIT_" + param.Name + "}}", nil
	}
	c.addBinding(ParameterBinding{
		Name:    param.Name,
		Source:  BindingSource{Kind: SourceMethodParam, Name: param.Name},
		TypeTag: TypeInt32,
	})
	tok := c.dialect.ParamPrefix + param.Name
	return c.dialect.RenderPagination(tok, "", c.hasOrderBy), nil
}

func (c *planCtx) renderOffset(node PlaceholderNode) (string, error) {
	param, ok := resolveNamedParam(c.method, node.Options, "offset")
	if !ok {
		c.warn(DiagUnbindablePlaceholder, "{{offset}} has no matching method parameter")
		return "", nil
	}
	if param.IsNullable {
		return "{{RUNTIME_NULLABLE_OFFSET_" + param.Name + "}}", nil
	}
	c.addBinding(ParameterBinding{
		Name:    param.Name,
		Source:  BindingSource{Kind: SourceMethodParam, Name: param.Name},
		TypeTag: TypeInt32,
	})
	tok := c.dialect.ParamPrefix + param.Name
	return c.dialect.RenderPagination("", tok, c.hasOrderBy), nil
}

func (c *planCtx) renderArg(node PlaceholderNode) (string, error) {
	name := node.ShorthandArg
	if name == "" {
		if v, ok := node.Options["param"]; ok {
			name = v.Single
		}
	}
	if name == "" {
		c.warn(DiagUnbindablePlaceholder, "{{arg}} missing a parameter name")
		return "", nil
	}
	binding := ParameterBinding{Name: name, Source: BindingSource{Kind: SourceMethodParam, Name: name}}
	if p, ok := c.method.ParamByName(name); ok {
		binding.TypeTag = paramDBType(p)
	}
	c.addBinding(binding)
	return c.dialect.ParamPrefix + name, nil
}

func (c *planCtx) renderBatchValues(node PlaceholderNode) (string, error) {
	param, ok := resolveNamedParam(c.method, node.Options, "batch_values")
	if !ok {
		param, ok = resolveEntityCollectionParam(c.method)
	}
	if !ok {
		c.warn(DiagUnbindablePlaceholder, "{{batch_values}} has no EntityCollection parameter to bind from")
		return "", nil
	}
	return "{{RUNTIME_BATCH_VALUES_" + param.Name + "}}", nil
}

func (c *planCtx) renderJoin(node PlaceholderNode) (string, error) {
	if len(node.Options) == 0 {
		return "", nil
	}
	table := node.Options["table"].Single
	on := node.Options["on"].Single
	if table == "" {
		return "", nil
	}
	if err := validateIdentifier(table); err != nil {
		return "", newSemanticError(DiagUnsafeIdentifier, err.Error())
	}
	wrapped, err := c.dialect.WrapColumn(table)
	if err != nil {
		return "", err
	}
	out := "JOIN " + wrapped
	if on != "" {
		out += " ON " + on
	}
	return out, nil
}

func (c *planCtx) renderGroupBy(node PlaceholderNode) (string, error) {
	cols, ok := optionList(node.Options, "columns")
	if !ok || len(cols) == 0 {
		if node.ShorthandArg != "" {
			cols = []string{node.ShorthandArg}
		} else {
			return "", nil
		}
	}
	wrapped := make([]string, 0, len(cols))
	for _, col := range cols {
		w, err := c.dialect.WrapColumn(col)
		if err != nil {
			return "", err
		}
		wrapped = append(wrapped, w)
	}
	return "GROUP BY " + strings.Join(wrapped, ", "), nil
}

func (c *planCtx) renderHaving(node PlaceholderNode) (string, error) {
	cond := node.ShorthandArg
	if cond == "" {
		cond = node.Options["cond"].Single
	}
	if cond == "" {
		return "", nil
	}
	return "HAVING " + cond, nil
}
