package sqlforge

import (
	"strings"
)

// DBTypeTag is the closed set of database-facing types a Go field can map
// to. UUID and Decimal map to github.com/google/uuid.UUID and
// github.com/shopspring/decimal.Decimal respectively on the Go side; the
// core itself only ever carries the tag, never the concrete value.
type DBTypeTag int

const (
	TypeInt32 DBTypeTag = iota
	TypeInt64
	TypeFloat32
	TypeFloat64
	TypeDecimal
	TypeString
	TypeBool
	TypeDateTime
	TypeDate
	TypeTime
	TypeBytes
	TypeUUID
	TypeUserDefined
)

func (t DBTypeTag) String() string {
	switch t {
	case TypeInt32:
		return "Int32"
	case TypeInt64:
		return "Int64"
	case TypeFloat32:
		return "Float32"
	case TypeFloat64:
		return "Float64"
	case TypeDecimal:
		return "Decimal"
	case TypeString:
		return "String"
	case TypeBool:
		return "Bool"
	case TypeDateTime:
		return "DateTime"
	case TypeDate:
		return "Date"
	case TypeTime:
		return "Time"
	case TypeBytes:
		return "Bytes"
	case TypeUUID:
		return "UUID"
	default:
		return "UserDefined"
	}
}

// goTypeMapping is the closed table EntityBuilder consults to map a Go
// field's kind name to a DBTypeTag (§4.2 step 3). Front-ends resolve their
// own language's type to one of these keys before building a RawField.
var goTypeMapping = map[string]DBTypeTag{
	"int32":          TypeInt32,
	"int":            TypeInt32,
	"int64":          TypeInt64,
	"float32":        TypeFloat32,
	"float64":        TypeFloat64,
	"decimal.Decimal": TypeDecimal,
	"string":         TypeString,
	"bool":           TypeBool,
	"time.Time":      TypeDateTime,
	"date":           TypeDate,
	"time.Duration":  TypeTime,
	"[]byte":         TypeBytes,
	"uuid.UUID":      TypeUUID,
}

// paramDBType resolves a MethodParam's declared type name to a DBTypeTag via
// the same closed mapping EntityBuilder uses for entity fields, so a scalar
// parameter bound straight from literal SQL text (no entity involved) still
// carries an accurate type tag on its ParameterBinding.
func paramDBType(p MethodParam) DBTypeTag {
	if tag, ok := goTypeMapping[p.TypeTag]; ok {
		return tag
	}
	return TypeUserDefined
}

// ColumnMeta describes one mapped column of an EntityDescriptor.
type ColumnMeta struct {
	DBName     string
	FieldName  string
	DBType     DBTypeTag
	IsNullable bool
	IsKey      bool
	Ignored    bool
}

// EntityDescriptor is an immutable record of an entity's columns, produced
// once by EntityBuilder and shared freely across goroutines thereafter.
type EntityDescriptor struct {
	TypeName  string
	TableName string
	Columns   []ColumnMeta
}

// Equal reports whether two descriptors are field-for-field identical.
func (e EntityDescriptor) Equal(other EntityDescriptor) bool {
	if e.TypeName != other.TypeName || e.TableName != other.TableName {
		return false
	}
	if len(e.Columns) != len(other.Columns) {
		return false
	}
	for i := range e.Columns {
		if e.Columns[i] != other.Columns[i] {
			return false
		}
	}
	return true
}

// RawField is what a front-end supplies per declared field before the
// EntityBuilder filters and normalizes it.
type RawField struct {
	FieldName      string
	DBNameOverride string // explicit override; empty means derive
	GoType         string // key into goTypeMapping, or a user-defined type name
	IsNullable     bool
	IsKey          bool
	Ignored        bool
}

// EntityBuilder builds an EntityDescriptor from raw field declarations,
// applying §4.2's four steps in order: filter ignored, resolve db names,
// map to DBTypeTag, stable-sort by declaration order.
type EntityBuilder struct {
	typeName  string
	tableName string
	fields    []RawField
}

// NewEntityBuilder starts a builder for typeName. tableName, if empty, is
// derived from typeName by EntityBuilder.Build (snake_case, pluralized).
func NewEntityBuilder(typeName, tableName string) *EntityBuilder {
	return &EntityBuilder{typeName: typeName, tableName: tableName}
}

// AddField appends a declared field in source order.
func (b *EntityBuilder) AddField(f RawField) *EntityBuilder {
	b.fields = append(b.fields, f)
	return b
}

// Build applies the four-step pipeline and returns the finished descriptor.
// Duplicate field_name or db_name values are a SemanticError.
func (b *EntityBuilder) Build() (EntityDescriptor, error) {
	table := b.tableName
	if table == "" {
		table = pluralizeSnake(toSnakeCase(b.typeName))
	}
	if err := validateIdentifier(table); err != nil {
		return EntityDescriptor{}, newSemanticError(DiagUnsafeIdentifier, err.Error())
	}

	// step 1: filter ignored
	kept := make([]RawField, 0, len(b.fields))
	for _, f := range b.fields {
		if !f.Ignored {
			kept = append(kept, f)
		}
	}

	// step 2+3: resolve db name, map type
	cols := make([]ColumnMeta, 0, len(kept))
	seenField := make(map[string]bool, len(kept))
	seenDB := make(map[string]bool, len(kept))
	for _, f := range kept {
		dbName := f.DBNameOverride
		if dbName == "" {
			dbName = toSnakeCase(f.FieldName)
		}
		if err := validateIdentifier(dbName); err != nil {
			return EntityDescriptor{}, newSemanticError(DiagUnsafeIdentifier, err.Error())
		}

		if seenField[f.FieldName] {
			return EntityDescriptor{}, newSemanticError(DiagDuplicateColumnName,
				"duplicate column for field "+f.FieldName)
		}
		if seenDB[dbName] {
			return EntityDescriptor{}, newSemanticError(DiagDuplicateColumnName,
				"duplicate column for db name "+dbName)
		}
		seenField[f.FieldName] = true
		seenDB[dbName] = true

		tag, ok := goTypeMapping[f.GoType]
		if !ok {
			tag = TypeUserDefined
		}

		nullable := f.IsNullable && !f.IsKey
		cols = append(cols, ColumnMeta{
			DBName:     dbName,
			FieldName:  f.FieldName,
			DBType:     tag,
			IsNullable: nullable,
			IsKey:      f.IsKey,
			Ignored:    false,
		})
	}

	// step 4: columns are already in declaration order — AddField only
	// ever appends, and the filter/map steps above preserve that order.
	return EntityDescriptor{TypeName: b.typeName, TableName: table, Columns: cols}, nil
}

// toSnakeCase converts PascalCase/camelCase to snake_case.
func toSnakeCase(s string) string {
	rs := []rune(s)
	var b strings.Builder
	for i, r := range rs {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				prevUpper := rs[i-1] >= 'A' && rs[i-1] <= 'Z'
				nextLower := i+1 < len(rs) && rs[i+1] >= 'a' && rs[i+1] <= 'z'
				if !prevUpper || nextLower {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// pluralizeSnake applies a minimal English pluralization suitable for table
// name derivation: trailing 'y' preceded by a consonant becomes 'ies',
// trailing s/x/z/ch/sh gets 'es', everything else gets a plain 's'.
func pluralizeSnake(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	switch {
	case strings.HasSuffix(lower, "y") && len(s) > 1 && !isVowel(rune(lower[len(lower)-2])):
		return s[:len(s)-1] + "ies"
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, "x"), strings.HasSuffix(lower, "z"),
		strings.HasSuffix(lower, "ch"), strings.HasSuffix(lower, "sh"):
		return s + "es"
	default:
		return s + "s"
	}
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	default:
		return false
	}
}

// ColumnByField finds a column by its Go field name.
func (e EntityDescriptor) ColumnByField(fieldName string) (ColumnMeta, bool) {
	for _, c := range e.Columns {
		if c.FieldName == fieldName {
			return c, true
		}
	}
	return ColumnMeta{}, false
}

// KeyColumns returns the descriptor's key columns in declaration order.
func (e EntityDescriptor) KeyColumns() []ColumnMeta {
	var out []ColumnMeta
	for _, c := range e.Columns {
		if c.IsKey {
			out = append(out, c)
		}
	}
	return out
}

// SoftDeleteColumn returns the first boolean column named "deleted" or
// "is_active" found on the entity, used by {{where --soft}} (§4.4).
func (e EntityDescriptor) SoftDeleteColumn() (ColumnMeta, bool) {
	for _, c := range e.Columns {
		if c.DBType == TypeBool && (c.DBName == "deleted" || c.DBName == "is_active") {
			return c, true
		}
	}
	return ColumnMeta{}, false
}
