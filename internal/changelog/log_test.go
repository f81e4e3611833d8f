package changelog

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheet-sync/internal/models"
	"sheet-sync/internal/schema"
	"sheet-sync/internal/store"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func logTableColumns() []schema.Column {
	return []schema.Column{
		{Name: "uuid", Type: schema.TypeUUID},
		{Name: "table_index", Type: schema.TypeTableIndex},
		{Name: "table_key", Type: schema.TypeUUID},
		{Name: "change_mode", Type: schema.TypeChangeMode},
		{Name: "updated_at", Type: schema.TypeTimestamp},
	}
}

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.NewRegistry([]*schema.TableDefinition{
		{
			Name:      "accounts",
			Index:     1,
			Type:      schema.TableTypeMaster,
			KeyColumn: "uuid",
			SyncData:  true,
			Columns: []schema.Column{
				{Name: "uuid", Type: schema.TypeUUID},
				{Name: "name", Type: schema.TypeName},
				{Name: "updated_at", Type: schema.TypeTimestamp},
			},
		},
		{
			Name:      schema.TableChangeLog,
			Index:     -1,
			Type:      schema.TableTypeLog,
			KeyColumn: "uuid",
			Columns:   logTableColumns(),
		},
		{
			Name:      schema.TableCondensedChangeLog,
			Index:     -2,
			Type:      schema.TableTypeLog,
			KeyColumn: "uuid",
			Columns:   logTableColumns(),
		},
	})
	require.NoError(t, err)
	return reg
}

func testLog(t *testing.T) (*Log, *store.MemGrid) {
	t.Helper()
	reg := testRegistry(t)
	grid := store.NewMemGrid()
	require.NoError(t, store.Setup(grid, reg, testLogger()))
	return New(grid, reg, testLogger()), grid
}

func TestLogChangesAppendsEntries(t *testing.T) {
	log, grid := testLog(t)

	log.LogChanges("accounts", []string{"k1", "k2"}, models.ChangeModeInsert, 100)

	rows, err := grid.Rows(schema.TableChangeLog)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.NotEmpty(t, rows[0][0])
	assert.Equal(t, 1, rows[0][1])
	assert.Equal(t, "k1", rows[0][2])
	assert.Equal(t, models.ChangeModeInsert, rows[0][3])
	assert.Equal(t, int64(100), rows[0][4])
	assert.Equal(t, "k2", rows[1][2])
}

func TestLogChangesUnknownTableIsSkipped(t *testing.T) {
	log, grid := testLog(t)

	log.LogChanges("no_such_table", []string{"k1"}, models.ChangeModeInsert, 100)

	rows, err := grid.Rows(schema.TableChangeLog)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestInsertEntriesFillsDefaults(t *testing.T) {
	log, grid := testLog(t)

	log.InsertEntries([]models.ChangeEntry{
		{TableIndex: 1, TableKey: "k1"},
	})

	rows, err := grid.Rows(schema.TableChangeLog)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotEmpty(t, rows[0][0])
	assert.Equal(t, models.ChangeModeInsert, rows[0][3])
	assert.Greater(t, rows[0][4].(int64), int64(0))
}

func TestWriteCondensedRewritesSnapshot(t *testing.T) {
	log, grid := testLog(t)
	log.LogChange("accounts", "k1", models.ChangeModeInsert, 10)
	log.LogChange("accounts", "k1", models.ChangeModeUpdate, 20)
	log.LogChange("accounts", "k2", models.ChangeModeDelete, 30)

	n, err := log.WriteCondensed(0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// a second condensation replaces the snapshot instead of appending
	n, err = log.WriteCondensed(0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := grid.Rows(schema.TableCondensedChangeLog)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestReadCondensedPagination(t *testing.T) {
	log, _ := testLog(t)
	for i, key := range []string{"a", "b", "c", "d", "e"} {
		log.LogChange("accounts", key, models.ChangeModeInsert, models.Millis(10+i))
	}
	_, err := log.WriteCondensed(0)
	require.NoError(t, err)

	page, total, err := log.ReadCondensed(0, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "a", page[0].TableKey)
	assert.Equal(t, "b", page[1].TableKey)

	page, total, err = log.ReadCondensed(4, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 1)
	assert.Equal(t, "e", page[0].TableKey)

	page, total, err = log.ReadCondensed(10, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, page)
}

func TestInitializeFromDataTables(t *testing.T) {
	log, grid := testLog(t)
	require.NoError(t, grid.AppendRows("accounts", [][]any{
		{"k1", "Alpha", int64(100)},
		{"", "", ""},
		{"k2", "Beta", int64(200)},
		{"", "no key row", int64(300)},
	}))
	// stale entries must not survive initialization
	log.LogChange("accounts", "old", models.ChangeModeDelete, 5)

	n, err := log.InitializeFromDataTables()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := grid.Rows(schema.TableChangeLog)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "k1", rows[0][2])
	assert.Equal(t, int64(100), rows[0][4])
	assert.Equal(t, "k2", rows[1][2])
}
