package sqlforge

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UUIDLiteral parses s as a UUID and wraps it as a literal PredicateValue.
// The parsed uuid.UUID is carried as-is in PredicateValue.Literal; the core
// never formats it into SQL text itself, relying on the driver's
// database/sql.Valuer support for the type at bind time.
func UUIDLiteral(s string) (PredicateValue, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return PredicateValue{}, &RuntimeError{Diagnostic{ID: DiagIllFormedPredicateValue, Severity: SeverityError,
			Message: "invalid UUID literal: " + err.Error()}}
	}
	return LiteralValue(v), nil
}

// DecimalLiteral parses s as a fixed-point decimal and wraps it as a literal
// PredicateValue, for dialects/columns where float64 would lose precision
// (money amounts, exact quantities).
func DecimalLiteral(s string) (PredicateValue, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return PredicateValue{}, &RuntimeError{Diagnostic{ID: DiagIllFormedPredicateValue, Severity: SeverityError,
			Message: "invalid decimal literal: " + err.Error()}}
	}
	return LiteralValue(v), nil
}
