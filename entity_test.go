package sqlforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityBuilderDerivesTableAndColumns(t *testing.T) {
	desc, err := NewEntityBuilder("UserAccount", "").
		AddField(RawField{FieldName: "ID", GoType: "int64", IsKey: true}).
		AddField(RawField{FieldName: "Email", GoType: "string"}).
		AddField(RawField{FieldName: "CreatedAt", GoType: "time.Time"}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "user_accounts", desc.TableName)
	require.Len(t, desc.Columns, 3)
	assert.Equal(t, "id", desc.Columns[0].DBName)
	assert.True(t, desc.Columns[0].IsKey)
	assert.Equal(t, TypeInt64, desc.Columns[0].DBType)
	assert.Equal(t, "email", desc.Columns[1].DBName)
	assert.Equal(t, TypeString, desc.Columns[1].DBType)
	assert.Equal(t, "created_at", desc.Columns[2].DBName)
	assert.Equal(t, TypeDateTime, desc.Columns[2].DBType)
}

func TestEntityBuilderFiltersIgnoredFields(t *testing.T) {
	desc, err := NewEntityBuilder("Thing", "").
		AddField(RawField{FieldName: "ID", GoType: "int64", IsKey: true}).
		AddField(RawField{FieldName: "Scratch", GoType: "string", Ignored: true}).
		Build()
	require.NoError(t, err)
	assert.Len(t, desc.Columns, 1)
	assert.Equal(t, "id", desc.Columns[0].DBName)
}

func TestEntityBuilderKeyColumnNeverNullable(t *testing.T) {
	desc, err := NewEntityBuilder("Thing", "").
		AddField(RawField{FieldName: "ID", GoType: "int64", IsKey: true, IsNullable: true}).
		Build()
	require.NoError(t, err)
	assert.False(t, desc.Columns[0].IsNullable)
}

func TestEntityBuilderRejectsDuplicateDBName(t *testing.T) {
	_, err := NewEntityBuilder("Thing", "").
		AddField(RawField{FieldName: "Name", GoType: "string"}).
		AddField(RawField{FieldName: "name", GoType: "string"}).
		Build()
	require.Error(t, err)
	var se *SemanticError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, DiagDuplicateColumnName, se.ID)
}

func TestEntityBuilderRejectsUnsafeTableName(t *testing.T) {
	_, err := NewEntityBuilder("Thing", `bad"table`).
		AddField(RawField{FieldName: "ID", GoType: "int64", IsKey: true}).
		Build()
	require.Error(t, err)
	var se *SemanticError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, DiagUnsafeIdentifier, se.ID)
}

func TestEntityBuilderUnknownGoTypeIsUserDefined(t *testing.T) {
	desc, err := NewEntityBuilder("Thing", "").
		AddField(RawField{FieldName: "Payload", GoType: "json.RawMessage"}).
		Build()
	require.NoError(t, err)
	assert.Equal(t, TypeUserDefined, desc.Columns[0].DBType)
}

func TestPluralizeSnake(t *testing.T) {
	assert.Equal(t, "categories", pluralizeSnake("category"))
	assert.Equal(t, "boxes", pluralizeSnake("box"))
	assert.Equal(t, "users", pluralizeSnake("user"))
	assert.Equal(t, "matches", pluralizeSnake("match"))
}

func TestSoftDeleteColumnDetection(t *testing.T) {
	desc, err := NewEntityBuilder("Thing", "").
		AddField(RawField{FieldName: "ID", GoType: "int64", IsKey: true}).
		AddField(RawField{FieldName: "Deleted", GoType: "bool"}).
		Build()
	require.NoError(t, err)
	col, ok := desc.SoftDeleteColumn()
	require.True(t, ok)
	assert.Equal(t, "deleted", col.DBName)
}

func TestParamDBTypeFallsBackToUserDefined(t *testing.T) {
	assert.Equal(t, TypeInt64, paramDBType(MethodParam{TypeTag: "int64"}))
	assert.Equal(t, TypeUserDefined, paramDBType(MethodParam{TypeTag: "something.Weird"}))
}
