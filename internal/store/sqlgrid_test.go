package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestGrid(t *testing.T) *SQLGrid {
	t.Helper()
	g, err := OpenSQLGrid("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func TestSQLGridEnsureTableIsIdempotent(t *testing.T) {
	g := openTestGrid(t)
	require.NoError(t, g.EnsureTable("accounts", []string{"uuid", "name"}))
	require.NoError(t, g.AppendRows("accounts", [][]any{{"a1", "Alpha"}}))

	// a second ensure must not wipe rows or change the header
	require.NoError(t, g.EnsureTable("accounts", []string{"other", "header"}))

	header, err := g.Header("accounts")
	require.NoError(t, err)
	assert.Equal(t, []string{"uuid", "name"}, header)
	rows, err := g.Rows("accounts")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSQLGridMissingTable(t *testing.T) {
	g := openTestGrid(t)
	_, err := g.Header("nope")
	assert.ErrorIs(t, err, ErrTableNotFound)
	_, err = g.Rows("nope")
	assert.ErrorIs(t, err, ErrTableNotFound)
	assert.ErrorIs(t, g.AppendRows("nope", [][]any{{"x"}}), ErrTableNotFound)
}

func TestSQLGridRoundTrip(t *testing.T) {
	g := openTestGrid(t)
	require.NoError(t, g.EnsureTable("accounts", []string{"uuid", "name", "updated_at"}))
	require.NoError(t, g.AppendRows("accounts", [][]any{
		{"a1", "Alpha", int64(100)},
		{"a2", "Beta", int64(200)},
	}))

	rows, err := g.Rows("accounts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a1", CellString(rows[0][0]))
	assert.Equal(t, "Beta", CellString(rows[1][1]))

	require.NoError(t, g.SetRow("accounts", 1, []any{"a2", "Beta Renamed", int64(300)}))
	rows, err = g.Rows("accounts")
	require.NoError(t, err)
	assert.Equal(t, "Beta Renamed", CellString(rows[1][1]))

	assert.Error(t, g.SetRow("accounts", 5, []any{"x", "y", "z"}))
}

func TestSQLGridDeleteShiftsRows(t *testing.T) {
	g := openTestGrid(t)
	require.NoError(t, g.EnsureTable("accounts", []string{"uuid"}))
	require.NoError(t, g.AppendRows("accounts", [][]any{{"a1"}, {"a2"}, {"a3"}}))

	require.NoError(t, g.DeleteRow("accounts", 1))

	rows, err := g.Rows("accounts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a1", CellString(rows[0][0]))
	assert.Equal(t, "a3", CellString(rows[1][0]))

	// appended rows land after the shifted ones, not in a gap
	require.NoError(t, g.AppendRows("accounts", [][]any{{"a4"}}))
	rows, err = g.Rows("accounts")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "a4", CellString(rows[2][0]))
}

func TestSQLGridTruncateKeepsHeader(t *testing.T) {
	g := openTestGrid(t)
	require.NoError(t, g.EnsureTable("accounts", []string{"uuid", "name"}))
	require.NoError(t, g.AppendRows("accounts", [][]any{{"a1", "Alpha"}}))

	require.NoError(t, g.Truncate("accounts"))

	header, err := g.Header("accounts")
	require.NoError(t, err)
	assert.Equal(t, []string{"uuid", "name"}, header)
	rows, err := g.Rows("accounts")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
