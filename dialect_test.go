package sqlforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allProfiles() []DialectProfile {
	return []DialectProfile{MySQLProfile, PostgreSQLProfile, SQLServerProfile, SQLiteProfile, OracleProfile}
}

func TestWrapColumnEmptyIsEmpty(t *testing.T) {
	for _, d := range allProfiles() {
		got, err := d.WrapColumn("")
		require.NoError(t, err)
		assert.Equal(t, "", got)
	}
}

func TestWrapColumnRoundTrips(t *testing.T) {
	for _, d := range allProfiles() {
		got, err := d.WrapColumn("user_id")
		require.NoError(t, err)
		assert.True(t, len(got) > len("user_id"))
		assert.Equal(t, d.IdentOpen+"user_id"+d.IdentClose, got)
	}
}

func TestWrapColumnRejectsCloseQuote(t *testing.T) {
	_, err := PostgreSQLProfile.WrapColumn(`evil"name`)
	require.Error(t, err)
	var de *DialectError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, DiagUnsafeIdentifier, de.ID)
}

func TestParamPrefixExtraction(t *testing.T) {
	for _, d := range allProfiles() {
		tok := d.ParamPrefix + "name"
		assert.Equal(t, "name", tok[len(d.ParamPrefix):])
	}
}

func TestRenderPaginationLimitOffset(t *testing.T) {
	assert.Equal(t, "LIMIT @limit", MySQLProfile.RenderPagination("@limit", "", true))
	assert.Equal(t, "LIMIT @limit OFFSET @offset", MySQLProfile.RenderPagination("@limit", "@offset", true))
	assert.Equal(t, "OFFSET @offset", MySQLProfile.RenderPagination("", "@offset", true))
	assert.Equal(t, "", MySQLProfile.RenderPagination("", "", true))
}

func TestRenderPaginationOffsetFetch(t *testing.T) {
	got := SQLServerProfile.RenderPagination("@limit", "@offset", true)
	assert.Equal(t, "OFFSET @offset ROWS FETCH NEXT @limit ROWS ONLY", got)

	got = SQLServerProfile.RenderPagination("@limit", "", true)
	assert.Equal(t, "OFFSET 0 ROWS FETCH NEXT @limit ROWS ONLY", got)
}

func TestRenderPaginationRowNum(t *testing.T) {
	assert.Equal(t, "ROWNUM <= 10", OracleProfile.RenderPagination("10", "", true))
	assert.Equal(t, "ROWNUM > 5", OracleProfile.RenderPagination("", "5", true))
	assert.Equal(t, "ROWNUM <= 10 AND ROWNUM > 5", OracleProfile.RenderPagination("10", "5", true))
	assert.Equal(t, "", OracleProfile.RenderPagination("", "", true))
}

func TestProfileForUnknownFallsBackToSQLite(t *testing.T) {
	assert.Equal(t, SQLiteProfile, ProfileFor(DialectName(99)))
}

func TestConcatStyles(t *testing.T) {
	assert.Equal(t, "a || b", PostgreSQLProfile.Concat("a", "b"))
	assert.Equal(t, "a + b", SQLServerProfile.Concat("a", "b"))
	assert.Equal(t, "CONCAT(a, b)", MySQLProfile.Concat("a", "b"))
}
