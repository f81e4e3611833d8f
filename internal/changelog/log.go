// Package changelog records row-level mutations in the change_log table and
// condenses them into the minimal replay set served to sync clients.
package changelog

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sheet-sync/internal/models"
	"sheet-sync/internal/schema"
	"sheet-sync/internal/store"
)

// defaultRawTimestamp stands in for a raw log row with no usable updated_at.
// It is far enough in the past that any real "since" horizon filters it only
// when a full resync is not requested (1900-01-01T00:00:00Z).
const defaultRawTimestamp models.Millis = -2208988800000

// Log reads and writes the change_log and condensed_change_log tables.
type Log struct {
	grid   store.Grid
	reg    *schema.Registry
	logger *logrus.Logger
}

// New creates a Log over the given grid and registry.
func New(grid store.Grid, reg *schema.Registry, logger *logrus.Logger) *Log {
	return &Log{grid: grid, reg: reg, logger: logger}
}

// LogChange appends one entry for a single record mutation. Change logging
// is best-effort: a missing change_log table is logged and swallowed so the
// primary mutation is never blocked.
func (l *Log) LogChange(table, key, mode string, updatedAt models.Millis) {
	l.LogChanges(table, []string{key}, mode, updatedAt)
}

// LogChanges appends one entry per key in a single batch write.
func (l *Log) LogChanges(table string, keys []string, mode string, updatedAt models.Millis) {
	if len(keys) == 0 {
		return
	}
	tableIndex, ok := l.reg.IndexByName(table)
	if !ok {
		l.logger.Warnf("No table index for %s, skipping change logging", table)
		return
	}
	if updatedAt == 0 {
		updatedAt = models.NowMillis()
	}
	entries := make([]models.ChangeEntry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, models.ChangeEntry{
			UUID:       uuid.NewString(),
			TableIndex: tableIndex,
			TableKey:   key,
			ChangeMode: mode,
			UpdatedAt:  updatedAt,
		})
	}
	l.InsertEntries(entries)
}

// InsertEntries appends externally constructed entries in one batch,
// generating UUIDs and defaulting the mode to INSERT and the timestamp to
// now where absent. Used to re-log delta-apply results and consistency
// cleanup deletions.
func (l *Log) InsertEntries(entries []models.ChangeEntry) {
	if len(entries) == 0 {
		return
	}
	now := models.NowMillis()
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		if e.UUID == "" {
			e.UUID = uuid.NewString()
		}
		if e.ChangeMode == "" {
			e.ChangeMode = models.ChangeModeInsert
		}
		if e.UpdatedAt == 0 {
			e.UpdatedAt = now
		}
		rows = append(rows, entryRow(e))
	}
	if err := l.grid.AppendRows(schema.TableChangeLog, rows); err != nil {
		if errors.Is(err, store.ErrTableNotFound) {
			l.logger.Warnf("%s table not found, skipping change logging", schema.TableChangeLog)
			return
		}
		l.logger.Errorf("Error logging %d changes: %v", len(rows), err)
	}
}

// InitializeFromDataTables wipes both log tables and rebuilds the raw log
// with one INSERT entry per existing keyed record across all sync tables.
func (l *Log) InitializeFromDataTables() (int, error) {
	for _, name := range []string{schema.TableChangeLog, schema.TableCondensedChangeLog} {
		if err := l.grid.Truncate(name); err != nil {
			return 0, fmt.Errorf("failed to clear %s: %w", name, err)
		}
	}
	now := models.NowMillis()
	var entries []models.ChangeEntry
	for _, table := range l.reg.SyncTableNames() {
		def := l.reg.ByName(table)
		header, err := l.grid.Header(table)
		if err != nil {
			l.logger.Warnf("Table %s not found, skipping", table)
			continue
		}
		rows, err := l.grid.Rows(table)
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", table, err)
		}
		colMap := store.ColumnMap(header)
		keyIdx, ok := colMap[def.KeyColumn]
		if !ok {
			l.logger.Warnf("Key column %s not found in %s, skipping", def.KeyColumn, table)
			continue
		}
		updIdx, hasUpdated := colMap["updated_at"]
		count := 0
		for _, row := range rows {
			key := store.CellString(rawCell(row, keyIdx))
			if key == "" {
				continue
			}
			updatedAt := now
			if hasUpdated {
				updatedAt = models.CoerceMillis(rawCell(row, updIdx), now)
			}
			entries = append(entries, models.ChangeEntry{
				UUID:       uuid.NewString(),
				TableIndex: def.Index,
				TableKey:   key,
				ChangeMode: models.ChangeModeInsert,
				UpdatedAt:  updatedAt,
			})
			count++
		}
		l.logger.Infof("Processed %d records from %s", count, table)
	}
	if len(entries) > 0 {
		rows := make([][]any, len(entries))
		for i, e := range entries {
			rows[i] = entryRow(e)
		}
		if err := l.grid.AppendRows(schema.TableChangeLog, rows); err != nil {
			return 0, fmt.Errorf("failed to write %s: %w", schema.TableChangeLog, err)
		}
	}
	l.logger.Infof("Initialized %s with %d records", schema.TableChangeLog, len(entries))
	return len(entries), nil
}

// entryRow lays an entry out in the log tables' column order.
func entryRow(e models.ChangeEntry) []any {
	return []any{e.UUID, e.TableIndex, e.TableKey, e.ChangeMode, int64(e.UpdatedAt)}
}

// entryFromRow reads an entry through the header's column map so physical
// column reordering is tolerated.
func entryFromRow(row []any, colMap map[string]int, defaultUpdated models.Millis) models.ChangeEntry {
	return models.ChangeEntry{
		UUID:       store.CellString(cellAt(row, colMap, "uuid")),
		TableIndex: coerceInt(cellAt(row, colMap, "table_index")),
		TableKey:   store.CellString(cellAt(row, colMap, "table_key")),
		ChangeMode: store.CellString(cellAt(row, colMap, "change_mode")),
		UpdatedAt:  models.CoerceMillis(cellAt(row, colMap, "updated_at"), defaultUpdated),
	}
}

func cellAt(row []any, colMap map[string]int, name string) any {
	idx, ok := colMap[name]
	if !ok {
		return nil
	}
	return rawCell(row, idx)
}

func rawCell(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

func coerceInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
		return 0
	default:
		return 0
	}
}
