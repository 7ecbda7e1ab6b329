package sqlforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplateRejectsEmpty(t *testing.T) {
	_, err := ParseTemplate("")
	require.Error(t, err)
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, DiagEmptyTemplate, se.ID)
}

func TestParseTemplateLiteralAndPlaceholder(t *testing.T) {
	nodes, err := ParseTemplate("SELECT {{columns}} FROM {{table}}")
	require.NoError(t, err)
	require.Len(t, nodes, 4)
	assert.Equal(t, LiteralNode{Text: "SELECT "}, nodes[0])
	ph, ok := nodes[1].(PlaceholderNode)
	require.True(t, ok)
	assert.Equal(t, "columns", ph.Name)
	assert.Equal(t, LiteralNode{Text: " FROM "}, nodes[2])
	ph2, ok := nodes[3].(PlaceholderNode)
	require.True(t, ok)
	assert.Equal(t, "table", ph2.Name)
}

func TestParseTemplatePlaceholderWithModeAndOptions(t *testing.T) {
	nodes, err := ParseTemplate("{{limit:page --param pageSize}}")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	ph := nodes[0].(PlaceholderNode)
	assert.Equal(t, "limit", ph.Name)
	assert.Equal(t, "page", ph.Mode)
	assert.Equal(t, "pageSize", ph.Options["param"].Single)
}

func TestParseTemplateOptionListValue(t *testing.T) {
	nodes, err := ParseTemplate("{{columns --exclude id,created_at}}")
	require.NoError(t, err)
	ph := nodes[0].(PlaceholderNode)
	assert.Equal(t, []string{"id", "created_at"}, ph.Options["exclude"].List)
}

func TestParseTemplateShorthandArg(t *testing.T) {
	nodes, err := ParseTemplate("{{orderby created_at --desc}}")
	require.NoError(t, err)
	ph := nodes[0].(PlaceholderNode)
	assert.Equal(t, "created_at", ph.ShorthandArg)
	_, hasDesc := ph.Options["desc"]
	assert.True(t, hasDesc)
}

func TestParseTemplateTripleBraceEscaping(t *testing.T) {
	nodes, err := ParseTemplate("a {{{literal}}} b")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	lit := nodes[0].(LiteralNode)
	assert.Equal(t, "a {{literal}} b", lit.Text)
}

func TestParseTemplateUnterminatedPlaceholder(t *testing.T) {
	_, err := ParseTemplate("SELECT {{columns")
	require.Error(t, err)
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, DiagUnterminatedPlaceholder, se.ID)
}

func TestParseTemplateConditionalBlock(t *testing.T) {
	nodes, err := ParseTemplate("WHERE 1=1 {{*ifnotnull name}} AND name = @name {{/ifnotnull}}")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	cond, ok := nodes[1].(ConditionalNode)
	require.True(t, ok)
	assert.Equal(t, IfNotNull, cond.Kind)
	assert.Equal(t, "name", cond.TargetParam)
	assert.Nil(t, cond.Else)
}

func TestParseTemplateConditionalWithElse(t *testing.T) {
	nodes, err := ParseTemplate("{{*ifnull x}}A{{*else}}B{{/ifnull}}")
	require.NoError(t, err)
	cond := nodes[0].(ConditionalNode)
	require.Len(t, cond.Inner, 1)
	require.Len(t, cond.Else, 1)
	assert.Equal(t, "A", cond.Inner[0].(LiteralNode).Text)
	assert.Equal(t, "B", cond.Else[0].(LiteralNode).Text)
}

func TestParseTemplateUnbalancedConditionalCloser(t *testing.T) {
	_, err := ParseTemplate("{{*ifnotnull x}}A{{/ifnull}}")
	require.Error(t, err)
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, DiagUnbalancedConditional, se.ID)
}

func TestParseTemplateUnknownConditionalKind(t *testing.T) {
	_, err := ParseTemplate("{{*ifbogus x}}A{{/ifbogus}}")
	require.Error(t, err)
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, DiagUnknownConditionalKind, se.ID)
}

func TestParseTemplateUnterminatedConditional(t *testing.T) {
	_, err := ParseTemplate("{{*ifnotnull x}}A")
	require.Error(t, err)
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, DiagUnbalancedConditional, se.ID)
}

func TestParseTemplateStrayCloser(t *testing.T) {
	_, err := ParseTemplate("A {{/ifnotnull}}")
	require.Error(t, err)
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, DiagUnbalancedConditional, se.ID)
}

func TestParseTemplateNestedConditionals(t *testing.T) {
	nodes, err := ParseTemplate("{{*ifnotnull a}}{{*ifnotnull b}}X{{/ifnotnull}}{{/ifnotnull}}")
	require.NoError(t, err)
	outer := nodes[0].(ConditionalNode)
	require.Len(t, outer.Inner, 1)
	inner := outer.Inner[0].(ConditionalNode)
	assert.Equal(t, "b", inner.TargetParam)
}

func TestParseTemplateIsDeterministic(t *testing.T) {
	tmpl := "SELECT {{columns}} FROM {{table}} WHERE {{where}}"
	n1, err := ParseTemplate(tmpl)
	require.NoError(t, err)
	n2, err := ParseTemplate(tmpl)
	require.NoError(t, err)
	assert.Equal(t, n1, n2)
}
