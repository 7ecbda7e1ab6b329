package sqlforge

import "strings"

// DialectName identifies a supported SQL dialect.
type DialectName int

const (
	MySQL DialectName = iota
	PostgreSQL
	SQLServer
	SQLite
	Oracle
)

func (n DialectName) String() string {
	switch n {
	case MySQL:
		return "MySQL"
	case PostgreSQL:
		return "PostgreSQL"
	case SQLServer:
		return "SQLServer"
	case SQLite:
		return "SQLite"
	case Oracle:
		return "Oracle"
	default:
		return "Unknown"
	}
}

// PaginationStyle selects how a dialect expresses row-limiting clauses.
type PaginationStyle int

const (
	LimitOffset PaginationStyle = iota
	OffsetFetch
	RowNum
)

// UpsertStyle selects how a dialect expresses an insert-or-update statement.
type UpsertStyle int

const (
	OnDuplicateKey UpsertStyle = iota
	OnConflict
	Merge
	InsertOrReplace
)

// IDReturnStrategy names how a dialect hands back a generated identity value.
type IDReturnStrategy int

const (
	LastInsertID IDReturnStrategy = iota
	LastVal
	OutputInserted
	SqliteLastInsertRowID
	ReturningInto
)

func (s IDReturnStrategy) String() string {
	switch s {
	case LastInsertID:
		return "LAST_INSERT_ID()"
	case LastVal:
		return "LASTVAL()"
	case OutputInserted:
		return "OUTPUT_INSERTED"
	case SqliteLastInsertRowID:
		return "last_insert_rowid()"
	case ReturningInto:
		return "RETURNING_INTO"
	default:
		return "unknown"
	}
}

// DialectProfile is an immutable description of a SQL dialect's lexical and
// syntactic conventions. Every field is fixed at construction time; the
// predefined profiles below (MySQLProfile, PostgreSQLProfile, ...) are the
// only instances most callers need.
type DialectProfile struct {
	Name                 DialectName
	IdentOpen            string
	IdentClose           string
	ParamPrefix          string
	BoolTrueLiteral      string
	BoolFalseLiteral     string
	NowExpr              string
	ConcatStyle          string
	PaginationStyle      PaginationStyle
	UpsertStyle          UpsertStyle
	ReturnsInsertedIDVia IDReturnStrategy
}

// WrapColumn quotes an identifier per the dialect's ident_open/ident_close.
// An empty identifier wraps to an empty string. A name containing the
// dialect's close-quote character is rejected rather than silently
// mis-quoted — the caller must never pass an untrusted identifier through.
func (d DialectProfile) WrapColumn(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	if d.IdentClose != "" && strings.Contains(name, d.IdentClose) {
		return "", &DialectError{
			Diagnostic: Diagnostic{ID: DiagUnsafeIdentifier, Severity: SeverityError,
				Message: "identifier contains the dialect's close-quote character: " + name},
		}
	}
	return d.IdentOpen + name + d.IdentClose, nil
}

// MustWrapColumn panics on an unsafe identifier; reserved for call sites
// that have already validated the identifier (e.g. against validateIdentifier).
func (d DialectProfile) MustWrapColumn(name string) string {
	s, err := d.WrapColumn(name)
	if err != nil {
		panic(err)
	}
	return s
}

// RenderPagination renders a LIMIT/OFFSET-shaped clause. limitTok and
// offsetTok are already-rendered SQL fragments (a literal number or a bound
// parameter token); either may be empty to omit that half of the clause.
// hasOrderBy controls the OFFSET_FETCH warning upstream (the renderer still
// emits valid SQL regardless).
func (d DialectProfile) RenderPagination(limitTok, offsetTok string, hasOrderBy bool) string {
	switch d.PaginationStyle {
	case OffsetFetch:
		var b strings.Builder
		if offsetTok != "" {
			b.WriteString("OFFSET ")
			b.WriteString(offsetTok)
			b.WriteString(" ROWS")
		} else {
			b.WriteString("OFFSET 0 ROWS")
		}
		if limitTok != "" {
			b.WriteString(" FETCH NEXT ")
			b.WriteString(limitTok)
			b.WriteString(" ROWS ONLY")
		}
		return b.String()
	case RowNum:
		switch {
		case limitTok == "" && offsetTok == "":
			return ""
		case offsetTok == "":
			return "ROWNUM <= " + limitTok
		case limitTok == "":
			return "ROWNUM > " + offsetTok
		default:
			return "ROWNUM <= " + limitTok + " AND ROWNUM > " + offsetTok
		}
	default: // LimitOffset
		var parts []string
		if limitTok != "" {
			parts = append(parts, "LIMIT "+limitTok)
		}
		if offsetTok != "" {
			parts = append(parts, "OFFSET "+offsetTok)
		}
		return strings.Join(parts, " ")
	}
}

// FormatDatetime renders a literal datetime expression in dialect syntax.
// The core never formats an actual timestamp value at build time; this
// helper exists for templates that splice a literal "now" marker.
func (d DialectProfile) FormatDatetime() string {
	return d.NowExpr
}

// Concat renders a string-concatenation expression over the given fragments.
func (d DialectProfile) Concat(parts ...string) string {
	switch d.ConcatStyle {
	case "||":
		return strings.Join(parts, " || ")
	case "+":
		return strings.Join(parts, " + ")
	default:
		return "CONCAT(" + strings.Join(parts, ", ") + ")"
	}
}

// CurrentTimestamp is an alias for FormatDatetime matching spec naming.
func (d DialectProfile) CurrentTimestamp() string {
	return d.FormatDatetime()
}

// Predefined dialect profiles. These are the values a host ordinarily wires
// up by name; callers needing a nonstandard variant construct their own
// DialectProfile literal.
var (
	MySQLProfile = DialectProfile{
		Name:                 MySQL,
		IdentOpen:            "`",
		IdentClose:           "`",
		ParamPrefix:          "@",
		BoolTrueLiteral:      "1",
		BoolFalseLiteral:     "0",
		NowExpr:              "NOW()",
		ConcatStyle:          "CONCAT",
		PaginationStyle:      LimitOffset,
		UpsertStyle:          OnDuplicateKey,
		ReturnsInsertedIDVia: LastInsertID,
	}

	PostgreSQLProfile = DialectProfile{
		Name:                 PostgreSQL,
		IdentOpen:            `"`,
		IdentClose:           `"`,
		ParamPrefix:          "$",
		BoolTrueLiteral:      "TRUE",
		BoolFalseLiteral:     "FALSE",
		NowExpr:              "CURRENT_TIMESTAMP",
		ConcatStyle:          "||",
		PaginationStyle:      LimitOffset,
		UpsertStyle:          OnConflict,
		ReturnsInsertedIDVia: LastVal,
	}

	SQLServerProfile = DialectProfile{
		Name:                 SQLServer,
		IdentOpen:            "[",
		IdentClose:           "]",
		ParamPrefix:          "@",
		BoolTrueLiteral:      "1",
		BoolFalseLiteral:     "0",
		NowExpr:              "GETDATE()",
		ConcatStyle:          "+",
		PaginationStyle:      OffsetFetch, // Open Question: uniform OFFSET/FETCH, see SPEC_FULL/DESIGN.md
		UpsertStyle:          Merge,
		ReturnsInsertedIDVia: OutputInserted,
	}

	SQLiteProfile = DialectProfile{
		Name:                 SQLite,
		IdentOpen:            "[",
		IdentClose:           "]",
		ParamPrefix:          "@",
		BoolTrueLiteral:      "1",
		BoolFalseLiteral:     "0",
		NowExpr:              "datetime('now')",
		ConcatStyle:          "||",
		PaginationStyle:      LimitOffset,
		UpsertStyle:          InsertOrReplace,
		ReturnsInsertedIDVia: SqliteLastInsertRowID,
	}

	OracleProfile = DialectProfile{
		Name:                 Oracle,
		IdentOpen:            `"`,
		IdentClose:           `"`,
		ParamPrefix:          ":",
		BoolTrueLiteral:      "1",
		BoolFalseLiteral:     "0",
		NowExpr:              "SYSDATE",
		ConcatStyle:          "||",
		PaginationStyle:      RowNum,
		UpsertStyle:          Merge,
		ReturnsInsertedIDVia: ReturningInto,
	}
)

// ProfileFor returns the predefined profile for a dialect name.
func ProfileFor(name DialectName) DialectProfile {
	switch name {
	case MySQL:
		return MySQLProfile
	case PostgreSQL:
		return PostgreSQLProfile
	case SQLServer:
		return SQLServerProfile
	case SQLite:
		return SQLiteProfile
	case Oracle:
		return OracleProfile
	default:
		return SQLiteProfile
	}
}
