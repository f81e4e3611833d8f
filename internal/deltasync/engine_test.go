package deltasync

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheet-sync/internal/changelog"
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

// two data tables, projects referencing accounts with a denormalized
// account_name lookup column
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
			Name:      "projects",
			Index:     2,
			Type:      schema.TableTypeTransaction,
			KeyColumn: "uuid",
			SyncData:  true,
			Columns: []schema.Column{
				{Name: "uuid", Type: schema.TypeUUID},
				{Name: "name", Type: schema.TypeName},
				{Name: "account_uuid", Type: schema.TypeUUID},
				{Name: "updated_at", Type: schema.TypeTimestamp},
			},
			ForeignKeys: map[string]schema.ForeignKey{
				"account_uuid": {Table: "accounts", Column: "uuid"},
			},
			LookupColumns: []schema.LookupColumn{
				{SourceColumn: "account_uuid", Name: "account_name", TargetColumn: "name"},
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

func testEngine(t *testing.T) (*Engine, *store.MemGrid) {
	t.Helper()
	reg := testRegistry(t)
	grid := store.NewMemGrid()
	require.NoError(t, store.Setup(grid, reg, testLogger()))
	log := changelog.New(grid, reg, testLogger())
	return New(grid, reg, log, testLogger()), grid
}

func TestFetchTableRecords(t *testing.T) {
	engine, grid := testEngine(t)
	require.NoError(t, grid.AppendRows("accounts", [][]any{
		{"a1", "Alpha", int64(100)},
		{"a2", "Beta", int64(200)},
	}))

	records, kept, err := engine.FetchTableRecords([]models.ChangeEntry{
		{TableIndex: 1, TableKey: "a1", ChangeMode: models.ChangeModeInsert, UpdatedAt: 100},
		{TableIndex: 1, TableKey: "gone", ChangeMode: models.ChangeModeUpdate, UpdatedAt: 150},
		{TableIndex: 1, TableKey: "a3", ChangeMode: models.ChangeModeDelete, UpdatedAt: 300},
	})
	require.NoError(t, err)

	require.Contains(t, records, "accounts")
	require.Contains(t, records["accounts"], "a1")
	assert.Equal(t, "Alpha", records["accounts"]["a1"]["name"])
	assert.Equal(t, models.Millis(100), records["accounts"]["a1"]["updated_at"])

	// the vanished upsert is dropped, the delete passes through
	require.Len(t, kept, 2)
	assert.Equal(t, "a1", kept[0].TableKey)
	assert.Equal(t, "a3", kept[1].TableKey)
}

func TestApplyChangesInsertAndUpdate(t *testing.T) {
	engine, grid := testEngine(t)
	require.NoError(t, grid.AppendRows("accounts", [][]any{
		{"a1", "Alpha", int64(100)},
	}))

	result, applied := engine.ApplyChanges(
		[]models.ChangeEntry{
			{TableIndex: 1, TableKey: "a1", ChangeMode: models.ChangeModeUpdate, UpdatedAt: 150},
			{TableIndex: 1, TableKey: "a2", ChangeMode: models.ChangeModeInsert, UpdatedAt: 160},
		},
		models.TableRecords{
			"accounts": {
				"a1": {"uuid": "a1", "name": "Alpha Renamed", "updated_at": int64(150)},
				"a2": {"uuid": "a2", "name": "Beta", "updated_at": int64(160)},
			},
		},
	)

	assert.Equal(t, 2, result.Upserts)
	assert.Empty(t, result.Failed)
	assert.Len(t, applied, 2)

	rows, err := grid.Rows("accounts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alpha Renamed", rows[0][1])
	assert.Equal(t, "a2", rows[1][0])

	// applied changes are re-logged for other clients
	logRows, err := grid.Rows(schema.TableChangeLog)
	require.NoError(t, err)
	assert.Len(t, logRows, 2)
}

func TestApplyChangesInsertThenUpdateSameKey(t *testing.T) {
	engine, grid := testEngine(t)

	// both entries target a key that is not on the grid yet, so the second
	// upsert must land on the queued row rather than a grid position
	result, applied := engine.ApplyChanges(
		[]models.ChangeEntry{
			{TableIndex: 1, TableKey: "a1", ChangeMode: models.ChangeModeInsert, UpdatedAt: 100},
			{TableIndex: 1, TableKey: "a1", ChangeMode: models.ChangeModeUpdate, UpdatedAt: 110},
		},
		models.TableRecords{
			"accounts": {
				"a1": {"uuid": "a1", "name": "Alpha Final", "updated_at": int64(110)},
			},
		},
	)

	assert.Empty(t, result.Failed)
	assert.Equal(t, 2, result.Upserts)
	assert.Len(t, applied, 2)

	rows, err := grid.Rows("accounts")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a1", rows[0][0])
	assert.Equal(t, "Alpha Final", rows[0][1])

	logRows, err := grid.Rows(schema.TableChangeLog)
	require.NoError(t, err)
	assert.Len(t, logRows, 2)
}

func TestApplyChangesDeleteShiftsRows(t *testing.T) {
	engine, grid := testEngine(t)
	require.NoError(t, grid.AppendRows("accounts", [][]any{
		{"a1", "Alpha", int64(100)},
		{"a2", "Beta", int64(200)},
		{"a3", "Gamma", int64(300)},
	}))

	result, _ := engine.ApplyChanges(
		[]models.ChangeEntry{
			{TableIndex: 1, TableKey: "a2", ChangeMode: models.ChangeModeDelete, UpdatedAt: 400},
		},
		nil,
	)

	assert.Equal(t, 1, result.Deletes)
	rows, err := grid.Rows("accounts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a1", rows[0][0])
	assert.Equal(t, "a3", rows[1][0])
}

func TestApplyChangesDeleteThenInsertSameKey(t *testing.T) {
	engine, grid := testEngine(t)
	require.NoError(t, grid.AppendRows("accounts", [][]any{
		{"a1", "Alpha", int64(100)},
	}))

	result, _ := engine.ApplyChanges(
		[]models.ChangeEntry{
			{TableIndex: 1, TableKey: "a1", ChangeMode: models.ChangeModeDelete, UpdatedAt: 150},
			{TableIndex: 1, TableKey: "a1", ChangeMode: models.ChangeModeInsert, UpdatedAt: 160},
		},
		models.TableRecords{
			"accounts": {
				"a1": {"uuid": "a1", "name": "Alpha Again", "updated_at": int64(160)},
			},
		},
	)

	assert.Equal(t, 1, result.Deletes)
	assert.Equal(t, 1, result.Upserts)
	rows, err := grid.Rows("accounts")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alpha Again", rows[0][1])
}

func TestApplyChangesReusesBlankRows(t *testing.T) {
	engine, grid := testEngine(t)
	require.NoError(t, grid.AppendRows("accounts", [][]any{
		{"", "", ""},
		{"a1", "Alpha", int64(100)},
	}))

	engine.ApplyChanges(
		[]models.ChangeEntry{
			{TableIndex: 1, TableKey: "a2", ChangeMode: models.ChangeModeInsert, UpdatedAt: 200},
		},
		models.TableRecords{
			"accounts": {
				"a2": {"uuid": "a2", "name": "Beta", "updated_at": int64(200)},
			},
		},
	)

	rows, err := grid.Rows("accounts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a2", rows[0][0])
	assert.Equal(t, "a1", rows[1][0])
}

func TestApplyChangesResolvesLookupColumns(t *testing.T) {
	engine, grid := testEngine(t)
	require.NoError(t, grid.AppendRows("accounts", [][]any{
		{"a1", "Alpha", int64(100)},
	}))

	engine.ApplyChanges(
		[]models.ChangeEntry{
			{TableIndex: 2, TableKey: "p1", ChangeMode: models.ChangeModeInsert, UpdatedAt: 200},
		},
		models.TableRecords{
			"projects": {
				"p1": {
					"uuid":         "p1",
					"name":         "Rollout",
					"account_uuid": "a1",
					"account_name": "stale client value",
					"updated_at":   int64(200),
				},
			},
		},
	)

	rows, err := grid.Rows("projects")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	// header: uuid, name, account_uuid, updated_at, account_name
	assert.Equal(t, "Alpha", rows[0][4])
}

func TestApplyChangesMissingPayloadIsSkipped(t *testing.T) {
	engine, grid := testEngine(t)

	result, applied := engine.ApplyChanges(
		[]models.ChangeEntry{
			{TableIndex: 1, TableKey: "a1", ChangeMode: models.ChangeModeInsert, UpdatedAt: 100},
		},
		nil,
	)

	assert.Zero(t, result.Upserts)
	assert.Empty(t, applied)
	rows, err := grid.Rows("accounts")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestApplyChangesIsolatesTableFailures(t *testing.T) {
	reg := testRegistry(t)
	grid := store.NewMemGrid()
	// only accounts exists, projects was never set up
	require.NoError(t, grid.EnsureTable("accounts", reg.ByName("accounts").HeaderColumns()))
	require.NoError(t, grid.EnsureTable(schema.TableChangeLog, reg.ByName(schema.TableChangeLog).HeaderColumns()))
	log := changelog.New(grid, reg, testLogger())
	engine := New(grid, reg, log, testLogger())

	result, _ := engine.ApplyChanges(
		[]models.ChangeEntry{
			{TableIndex: 1, TableKey: "a1", ChangeMode: models.ChangeModeInsert, UpdatedAt: 100},
			{TableIndex: 2, TableKey: "p1", ChangeMode: models.ChangeModeInsert, UpdatedAt: 110},
		},
		models.TableRecords{
			"accounts": {"a1": {"uuid": "a1", "name": "Alpha", "updated_at": int64(100)}},
			"projects": {"p1": {"uuid": "p1", "name": "Rollout", "updated_at": int64(110)}},
		},
	)

	assert.Equal(t, 1, result.Upserts)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0], "projects")

	rows, err := grid.Rows("accounts")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
