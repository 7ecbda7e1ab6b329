package sqlforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, tmpl string) []Node {
	t.Helper()
	nodes, err := ParseTemplate(tmpl)
	require.NoError(t, err)
	return nodes
}

func TestValidateTemplateRejectsUnknownPlaceholder(t *testing.T) {
	tmpl := "SELECT {{bogus}}"
	result := ValidateTemplate(tmpl, mustParse(t, tmpl), false)
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, DiagUnknownPlaceholderName, result.Errors[0].ID)
}

func TestValidateTemplateFlagsUnknownOptionAsWarning(t *testing.T) {
	tmpl := "{{columns --bogus foo}}"
	result := ValidateTemplate(tmpl, mustParse(t, tmpl), false)
	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, DiagUnknownOption, result.Warnings[0].ID)
}

func TestValidateTemplateSuggestsAgainstSelectStar(t *testing.T) {
	tmpl := "SELECT * FROM {{table}}"
	result := ValidateTemplate(tmpl, mustParse(t, tmpl), false)
	assert.True(t, result.IsValid)
	found := false
	for _, s := range result.Suggestions {
		if s.ID == DiagSelectStar {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateTemplateWarnsOnMutateWithoutWhere(t *testing.T) {
	tmpl := "UPDATE {{table}} SET {{set}}"
	result := ValidateTemplate(tmpl, mustParse(t, tmpl), false)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, DiagMissingWhereOnMutate, result.Warnings[0].ID)
}

func TestValidateTemplateDeleteWithWhereHasNoWarning(t *testing.T) {
	tmpl := "DELETE FROM {{table}} WHERE {{where}}"
	result := ValidateTemplate(tmpl, mustParse(t, tmpl), false)
	for _, w := range result.Warnings {
		assert.NotEqual(t, DiagMissingWhereOnMutate, w.ID)
	}
}

func TestValidateTemplateSuggestsLimitWithOrderBy(t *testing.T) {
	tmpl := "SELECT {{columns}} FROM {{table}} ORDER BY {{orderby name}}"
	result := ValidateTemplate(tmpl, mustParse(t, tmpl), false)
	found := false
	for _, s := range result.Suggestions {
		if s.ID == DiagMissingLimitWithOrderBy {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateTemplateNoOrderByWarningWhenLimitPresent(t *testing.T) {
	tmpl := "SELECT {{columns}} FROM {{table}} ORDER BY {{orderby name}} {{limit:page}}"
	result := ValidateTemplate(tmpl, mustParse(t, tmpl), false)
	for _, s := range result.Suggestions {
		assert.NotEqual(t, DiagMissingLimitWithOrderBy, s.ID)
	}
}

func TestValidateTemplateSuggestsWhereOnJoin(t *testing.T) {
	tmpl := "SELECT {{columns}} FROM {{table}} {{join --table orders}}"
	result := ValidateTemplate(tmpl, mustParse(t, tmpl), false)
	found := false
	for _, s := range result.Suggestions {
		if s.ID == DiagMissingWhereOnJoin {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateTemplateRecursesIntoConditionals(t *testing.T) {
	tmpl := "{{*ifnotnull x}}{{bogus}}{{/ifnotnull}}"
	result := ValidateTemplate(tmpl, mustParse(t, tmpl), false)
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
}

func TestValidateTemplateEmptyIsInvalid(t *testing.T) {
	result := ValidateTemplate("   ", nil, false)
	assert.False(t, result.IsValid)
}

func TestValidateTemplateStrictPromotesUnknownOptionToError(t *testing.T) {
	tmpl := "{{columns --bogus foo}}"
	result := ValidateTemplate(tmpl, mustParse(t, tmpl), true)
	assert.False(t, result.IsValid)
	assert.Empty(t, result.Warnings)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, DiagUnknownOption, result.Errors[0].ID)
	assert.Equal(t, SeverityError, result.Errors[0].Severity)
}

func TestValidateTemplateNonStrictKeepsUnknownOptionAsWarning(t *testing.T) {
	tmpl := "{{columns --bogus foo}}"
	result := ValidateTemplate(tmpl, mustParse(t, tmpl), false)
	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Empty(t, result.Errors)
}

func TestPlanMethodPropagatesStrictUnknownOptionAsError(t *testing.T) {
	mp := NewMethodPlanner(nil, true)
	method := MethodDescriptor{
		Name:        "ListFiltered",
		ReturnShape: ReturnShape{Kind: ReturnCollection, TypeTag: "User"},
		SQLTemplate: "SELECT {{columns --bogus foo}} FROM {{table}}",
	}
	_, _, err := mp.PlanMethod(method, planUserEntity(t), MySQLProfile)
	require.Error(t, err)
}
