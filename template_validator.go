package sqlforge

import (
	"regexp"
	"strings"
)

// ValidationResult is the bundle TemplateValidator produces for a template.
type ValidationResult struct {
	IsValid     bool
	Errors      []Diagnostic
	Warnings    []Diagnostic
	Suggestions []Diagnostic
}

var knownPlaceholderNames = map[string]bool{
	"table": true, "columns": true, "values": true, "set": true, "where": true,
	"orderby": true, "limit": true, "top": true, "offset": true, "arg": true,
	"batch_values": true, "if": true, "join": true, "groupby": true, "having": true,
}

var knownOptionNames = map[string]bool{
	"param": true, "exclude": true, "include": true, "regex": true, "alias": true,
	"desc": true, "quoted": true, "soft": true, "schema": true, "table": true,
	"on": true, "columns": true, "cond": true, "column": true,
}

var (
	selectStarPattern = regexp.MustCompile(`(?i)\bSELECT\s+\*`)
	updatePattern     = regexp.MustCompile(`(?i)^\s*UPDATE\b`)
	deletePattern     = regexp.MustCompile(`(?i)^\s*DELETE\b`)
	wherePattern      = regexp.MustCompile(`(?i)\bWHERE\b`)
	orderByPattern    = regexp.MustCompile(`(?i)\bORDER\s+BY\b`)
	limitWordPattern  = regexp.MustCompile(`(?i)\bLIMIT\b|\{\{(LIMIT|TOP)`)
	joinPattern       = regexp.MustCompile(`(?i)\bJOIN\b`)
	onPattern         = regexp.MustCompile(`(?i)\bON\b`)
)

// ValidateTemplate performs the structural checks and heuristic advisories
// of §4.5 against a raw template string. Structural checks that fail here
// would also surface later, from ParseTemplate (empty template) or from
// placeholder rendering (unknown placeholder name); ValidateTemplate additionally
// collects them alongside the softer warnings/suggestions so a host can
// present one unified report before planning. strict promotes an unknown
// placeholder option (DiagUnknownOption) from a warning to a hard error,
// per EngineConfig.Strict.
func ValidateTemplate(template string, nodes []Node, strict bool) ValidationResult {
	result := ValidationResult{IsValid: true}

	if strings.TrimSpace(template) == "" {
		result.IsValid = false
		result.Errors = append(result.Errors, Diagnostic{ID: DiagEmptyTemplate, Severity: SeverityError, Message: "template is empty"})
		return result
	}

	validatePlaceholderNames(nodes, &result, strict)

	if selectStarPattern.MatchString(template) {
		result.Suggestions = append(result.Suggestions,
			newWarning(DiagSelectStar, "SELECT * — consider listing explicit columns"))
	}
	if (updatePattern.MatchString(template) || deletePattern.MatchString(template)) &&
		!wherePattern.MatchString(template) {
		result.Warnings = append(result.Warnings,
			newWarning(DiagMissingWhereOnMutate, "mutating statement has no WHERE clause"))
	}
	if orderByPattern.MatchString(template) && !limitWordPattern.MatchString(template) {
		result.Suggestions = append(result.Suggestions,
			newWarning(DiagMissingLimitWithOrderBy, "ORDER BY without a LIMIT — consider bounding the result set"))
	}
	if joinPattern.MatchString(template) && !wherePattern.MatchString(template) && !onPattern.MatchString(template) {
		result.Suggestions = append(result.Suggestions,
			newWarning(DiagMissingWhereOnJoin, "JOIN without WHERE or ON — guard against a Cartesian product"))
	}

	if len(result.Errors) > 0 {
		result.IsValid = false
	}
	return result
}

func validatePlaceholderNames(nodes []Node, result *ValidationResult, strict bool) {
	for _, n := range nodes {
		switch v := n.(type) {
		case PlaceholderNode:
			if !knownPlaceholderNames[v.Name] {
				result.Errors = append(result.Errors,
					Diagnostic{ID: DiagUnknownPlaceholderName, Severity: SeverityError, Message: "unknown placeholder: " + v.Name})
			}
			for opt := range v.Options {
				if !knownOptionNames[opt] {
					d := newWarning(DiagUnknownOption, "unknown option: --"+opt)
					if strict {
						d.Severity = SeverityError
						result.Errors = append(result.Errors, d)
					} else {
						result.Warnings = append(result.Warnings, d)
					}
				}
			}
		case ConditionalNode:
			validatePlaceholderNames(v.Inner, result, strict)
			validatePlaceholderNames(v.Else, result, strict)
		}
	}
}
