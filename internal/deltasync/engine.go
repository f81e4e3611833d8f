// Package deltasync resolves condensed change entries into full records for
// pulling clients and applies pushed client changes to the grid store.
package deltasync

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"sheet-sync/internal/changelog"
	"sheet-sync/internal/models"
	"sheet-sync/internal/schema"
	"sheet-sync/internal/store"
)

// Engine performs the pull-side record fetch and the push-side apply.
type Engine struct {
	grid   store.Grid
	reg    *schema.Registry
	log    *changelog.Log
	logger *logrus.Logger
}

// New creates an Engine.
func New(grid store.Grid, reg *schema.Registry, log *changelog.Log, logger *logrus.Logger) *Engine {
	return &Engine{grid: grid, reg: reg, log: log, logger: logger}
}

// FetchTableRecords loads the current record for every INSERT and UPDATE
// entry, one table read per affected table. Entries whose record no longer
// exists are dropped from the returned log slice so clients never receive an
// upsert without its payload. DELETE entries pass through untouched.
func (e *Engine) FetchTableRecords(entries []models.ChangeEntry) (models.TableRecords, []models.ChangeEntry, error) {
	wanted := make(map[string]map[string]bool)
	for _, entry := range entries {
		if entry.ChangeMode == models.ChangeModeDelete {
			continue
		}
		table, ok := e.reg.NameByIndex(entry.TableIndex)
		if !ok {
			e.logger.Warnf("Unknown table index %d in change log", entry.TableIndex)
			continue
		}
		if wanted[table] == nil {
			wanted[table] = make(map[string]bool)
		}
		wanted[table][entry.TableKey] = true
	}

	records := make(models.TableRecords)
	for table, keys := range wanted {
		found, err := e.readRecords(table, keys)
		if err != nil {
			return nil, nil, err
		}
		records[table] = found
	}

	kept := make([]models.ChangeEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.ChangeMode != models.ChangeModeDelete {
			table, ok := e.reg.NameByIndex(entry.TableIndex)
			if !ok {
				continue
			}
			if _, exists := records[table][entry.TableKey]; !exists {
				e.logger.Warnf("Record %s/%s no longer exists, dropping from response", table, entry.TableKey)
				continue
			}
		}
		kept = append(kept, entry)
	}
	return records, kept, nil
}

// readRecords scans a table once and maps the requested keys to records.
func (e *Engine) readRecords(table string, keys map[string]bool) (map[string]models.Record, error) {
	def := e.reg.ByName(table)
	header, err := e.grid.Header(table)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s header: %w", table, err)
	}
	rows, err := e.grid.Rows(table)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	colMap := store.ColumnMap(header)
	keyIdx, ok := colMap[def.KeyColumn]
	if !ok {
		return nil, fmt.Errorf("key column %s not found in %s", def.KeyColumn, table)
	}
	found := make(map[string]models.Record, len(keys))
	for _, row := range rows {
		if keyIdx >= len(row) {
			continue
		}
		key := store.CellString(row[keyIdx])
		if key == "" || !keys[key] {
			continue
		}
		found[key] = e.rowToRecord(def, header, row)
	}
	return found, nil
}

// rowToRecord builds the wire record from a row, normalizing date columns to
// epoch milliseconds regardless of how the backing store holds them.
func (e *Engine) rowToRecord(def *schema.TableDefinition, header []string, row []any) models.Record {
	rec := make(models.Record, len(header))
	for i, col := range header {
		var v any
		if i < len(row) {
			v = row[i]
		}
		if def.IsDateColumn(col) && v != nil && !store.IsEmptyCell(v) {
			rec[col] = models.CoerceMillis(v, 0)
			continue
		}
		rec[col] = v
	}
	return rec
}
