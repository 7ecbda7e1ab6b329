package sqlforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEngineConfigValues(t *testing.T) {
	cfg := DefaultEngineConfig()
	assert.Equal(t, "SQLite", cfg.DefaultDialect)
	assert.Equal(t, DefaultValidatorCacheSize, cfg.ValidatorCacheSize)
	assert.Equal(t, DefaultBatchSize, cfg.BatchChunkSize)
	assert.False(t, cfg.Strict)
}

func TestDialectNameFromStringFallsBackToSQLite(t *testing.T) {
	assert.Equal(t, MySQL, dialectNameFromString("MySQL"))
	assert.Equal(t, PostgreSQL, dialectNameFromString("PostgreSQL"))
	assert.Equal(t, SQLite, dialectNameFromString("nonsense"))
}

func TestNewDefaultEngineUsesSQLiteDialect(t *testing.T) {
	e := NewDefaultEngine()
	assert.Equal(t, SQLiteProfile, e.DefaultDialect())
}

func TestEnginePlanUsesDialectOverrideArg(t *testing.T) {
	e := NewDefaultEngine()
	method := MethodDescriptor{
		Name:        "GetById",
		Parameters:  []MethodParam{{Name: "id", TypeTag: "int64"}},
		ReturnShape: ReturnShape{Kind: ReturnOptionalEntity, TypeTag: "User"},
		SQLTemplate: "SELECT {{columns}} FROM {{table}} WHERE id = @id",
	}
	entity, err := NewEntityBuilder("User", "users").
		AddField(RawField{FieldName: "ID", GoType: "int64", IsKey: true}).
		Build()
	require.NoError(t, err)

	pg := PostgreSQLProfile
	plan, _, err := e.Plan(method, &entity, &pg)
	require.NoError(t, err)
	assert.Contains(t, plan.SQL, `"users"`)
}

func TestEnginePlanUsesMethodDialectOverrideWhenArgNil(t *testing.T) {
	e := NewDefaultEngine()
	override := PostgreSQL
	method := MethodDescriptor{
		Name:        "GetById",
		ReturnShape: ReturnShape{Kind: ReturnOptionalEntity, TypeTag: "User"},
		SQLTemplate: "SELECT {{columns}} FROM {{table}}",
		Flags:       MethodFlags{DialectOverride: &override},
	}
	entity, err := NewEntityBuilder("User", "users").
		AddField(RawField{FieldName: "ID", GoType: "int64", IsKey: true}).
		Build()
	require.NoError(t, err)

	plan, _, err := e.Plan(method, &entity, nil)
	require.NoError(t, err)
	assert.Contains(t, plan.SQL, `"users"`)
}

func TestEngineRuntimeRendererHonorsMethodBatchOverride(t *testing.T) {
	e := NewEngine(EngineConfig{DefaultDialect: "SQLite", BatchChunkSize: 100})
	method := MethodDescriptor{Flags: MethodFlags{BatchMaxSize: 3}}
	r := e.NewRuntimeRendererForMethod(method, SQLiteProfile)
	assert.Equal(t, 3, r.BatchMaxSize)
}

func TestEngineRuntimeRendererFallsBackToEngineDefault(t *testing.T) {
	e := NewEngine(EngineConfig{DefaultDialect: "SQLite", BatchChunkSize: 42})
	method := MethodDescriptor{}
	r := e.NewRuntimeRendererForMethod(method, SQLiteProfile)
	assert.Equal(t, 42, r.BatchMaxSize)
}

func TestEnginePlanRejectsUnknownOptionWhenStrict(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Strict = true
	e := NewEngine(cfg)
	method := MethodDescriptor{
		Name:        "ListFiltered",
		ReturnShape: ReturnShape{Kind: ReturnCollection, TypeTag: "User"},
		SQLTemplate: "SELECT {{columns --bogus foo}} FROM {{table}}",
	}
	entity, err := NewEntityBuilder("User", "users").
		AddField(RawField{FieldName: "ID", GoType: "int64", IsKey: true}).
		Build()
	require.NoError(t, err)

	_, _, err = e.Plan(method, &entity, nil)
	require.Error(t, err)
}

func TestEnginePlanAllowsUnknownOptionWhenNotStrict(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	method := MethodDescriptor{
		Name:        "ListFiltered",
		ReturnShape: ReturnShape{Kind: ReturnCollection, TypeTag: "User"},
		SQLTemplate: "SELECT {{columns --bogus foo}} FROM {{table}}",
	}
	entity, err := NewEntityBuilder("User", "users").
		AddField(RawField{FieldName: "ID", GoType: "int64", IsKey: true}).
		Build()
	require.NoError(t, err)

	_, diags, err := e.Plan(method, &entity, nil)
	require.NoError(t, err)
	found := false
	for _, d := range diags {
		if d.ID == DiagUnknownOption {
			found = true
		}
	}
	assert.True(t, found)
}
