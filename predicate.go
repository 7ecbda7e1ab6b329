package sqlforge

import "fmt"

// CmpOp is the comparison operator set the predicate DSL accepts.
type CmpOp int

const (
	OpEq CmpOp = iota
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
)

func (o CmpOp) sql() string {
	switch o {
	case OpEq:
		return "="
	case OpNeq:
		return "<>"
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	default:
		return "="
	}
}

// PredicateValue is either a literal (materialized as a freshly generated
// bound parameter) or a reference to a method parameter (an existing
// binding is reused rather than duplicated).
type PredicateValue struct {
	IsParamRef bool
	ParamRef   string      // valid when IsParamRef
	Literal    interface{} // valid otherwise; may be a uuid.UUID or decimal.Decimal
}

// LiteralValue builds a PredicateValue carrying a literal.
func LiteralValue(v interface{}) PredicateValue { return PredicateValue{Literal: v} }

// ParamValue builds a PredicateValue referencing an existing method parameter.
func ParamValue(name string) PredicateValue { return PredicateValue{IsParamRef: true, ParamRef: name} }

// PredicateExpr is the sealed predicate DSL tree.
type PredicateExpr interface {
	isPredicateExpr()
}

type AndExpr struct{ Terms []PredicateExpr }
type OrExpr struct{ Terms []PredicateExpr }
type NotExpr struct{ Term PredicateExpr }
type CmpExpr struct {
	Op     CmpOp
	Column string
	Value  PredicateValue
}
type LikeExpr struct {
	Column  string
	Pattern PredicateValue
}
type InExpr struct {
	Column string
	Values []PredicateValue
}
type IsNullExpr struct {
	Column string
	Negate bool // true models IS NOT NULL
}
type BetweenExpr struct {
	Column string
	Low    PredicateValue
	High   PredicateValue
}

func (AndExpr) isPredicateExpr()     {}
func (OrExpr) isPredicateExpr()      {}
func (NotExpr) isPredicateExpr()     {}
func (CmpExpr) isPredicateExpr()     {}
func (LikeExpr) isPredicateExpr()    {}
func (InExpr) isPredicateExpr()      {}
func (IsNullExpr) isPredicateExpr()  {}
func (BetweenExpr) isPredicateExpr() {}

// TranslatedPredicate is the result of translating a PredicateExpr: a SQL
// condition fragment (without the leading WHERE/AND keyword — the caller
// adds that) plus the parameter bindings the fragment introduced.
type TranslatedPredicate struct {
	Fragment string
	Bindings []ParameterBinding
}

// paramSeq generates stable, deterministic names (p0, p1, ...) for literal
// values encountered during translation. One sequence is scoped to a single
// TranslatePredicate call so repeated calls over identical input are byte-identical.
type paramSeq struct{ n int }

func (s *paramSeq) next() string {
	name := fmt.Sprintf("p%d", s.n)
	s.n++
	return name
}

// TranslatePredicate translates a predicate DSL tree into a SQL fragment
// using the dialect's identifier quoting and parameter prefix (§4.6). The
// WHERE keyword is the caller's responsibility.
func TranslatePredicate(expr PredicateExpr, dialect DialectProfile) (TranslatedPredicate, error) {
	seq := &paramSeq{}
	var bindings []ParameterBinding
	frag, err := translateNode(expr, dialect, seq, &bindings)
	if err != nil {
		return TranslatedPredicate{}, err
	}
	return TranslatedPredicate{Fragment: frag, Bindings: bindings}, nil
}

func translateNode(expr PredicateExpr, d DialectProfile, seq *paramSeq, bindings *[]ParameterBinding) (string, error) {
	switch e := expr.(type) {
	case AndExpr:
		return joinBool(e.Terms, "AND", d, seq, bindings)
	case OrExpr:
		return joinBool(e.Terms, "OR", d, seq, bindings)
	case NotExpr:
		inner, err := translateNode(e.Term, d, seq, bindings)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case CmpExpr:
		col, err := d.WrapColumn(e.Column)
		if err != nil {
			return "", err
		}
		tok, err := bindValue(e.Value, d, seq, bindings)
		if err != nil {
			return "", err
		}
		return col + " " + e.Op.sql() + " " + tok, nil
	case LikeExpr:
		col, err := d.WrapColumn(e.Column)
		if err != nil {
			return "", err
		}
		tok, err := bindValue(e.Pattern, d, seq, bindings)
		if err != nil {
			return "", err
		}
		return col + " LIKE " + tok, nil
	case InExpr:
		col, err := d.WrapColumn(e.Column)
		if err != nil {
			return "", err
		}
		if len(e.Values) == 0 {
			return "1=0", nil
		}
		toks := make([]string, 0, len(e.Values))
		for _, v := range e.Values {
			tok, err := bindValue(v, d, seq, bindings)
			if err != nil {
				return "", err
			}
			toks = append(toks, tok)
		}
		frag := col + " IN ("
		for i, t := range toks {
			if i > 0 {
				frag += ", "
			}
			frag += t
		}
		return frag + ")", nil
	case IsNullExpr:
		col, err := d.WrapColumn(e.Column)
		if err != nil {
			return "", err
		}
		if e.Negate {
			return col + " IS NOT NULL", nil
		}
		return col + " IS NULL", nil
	case BetweenExpr:
		col, err := d.WrapColumn(e.Column)
		if err != nil {
			return "", err
		}
		lo, err := bindValue(e.Low, d, seq, bindings)
		if err != nil {
			return "", err
		}
		hi, err := bindValue(e.High, d, seq, bindings)
		if err != nil {
			return "", err
		}
		return col + " BETWEEN " + lo + " AND " + hi, nil
	default:
		return "", &DialectError{Diagnostic{ID: DiagUnsupportedPredicateNode, Severity: SeverityError,
			Message: "unsupported predicate node"}}
	}
}

func joinBool(terms []PredicateExpr, op string, d DialectProfile, seq *paramSeq, bindings *[]ParameterBinding) (string, error) {
	if len(terms) == 0 {
		return "1=1", nil
	}
	frag := ""
	for i, t := range terms {
		inner, err := translateNode(t, d, seq, bindings)
		if err != nil {
			return "", err
		}
		if i > 0 {
			frag += " " + op + " "
		}
		frag += "(" + inner + ")"
	}
	return frag, nil
}

func bindValue(v PredicateValue, d DialectProfile, seq *paramSeq, bindings *[]ParameterBinding) (string, error) {
	if v.IsParamRef {
		for _, b := range *bindings {
			if b.Name == v.ParamRef {
				return d.ParamPrefix + v.ParamRef, nil
			}
		}
		*bindings = append(*bindings, ParameterBinding{
			Name:   v.ParamRef,
			Source: BindingSource{Kind: SourceMethodParam, Name: v.ParamRef},
		})
		return d.ParamPrefix + v.ParamRef, nil
	}
	name := seq.next()
	*bindings = append(*bindings, ParameterBinding{
		Name:   name,
		Source: BindingSource{Kind: SourceLiteral, Literal: v.Literal},
	})
	return d.ParamPrefix + name, nil
}
