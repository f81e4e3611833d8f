package changelog

import (
	"fmt"
	"sort"

	"sheet-sync/internal/models"
	"sheet-sync/internal/schema"
	"sheet-sync/internal/store"
)

// Condense collapses raw log entries newer than since into the minimal set a
// client must replay. Entries are scanned in append order, per (table, key):
//
//   - a DELETE cancels any in-window INSERT or UPDATE, is ignored when a
//     DELETE is already kept, and is kept otherwise
//   - the first INSERT or UPDATE wins; later ones for the same key carry no
//     extra information and are dropped
//
// The result is ordered by table index, then updated_at, so parent tables
// replay before their children.
func Condense(entries []models.ChangeEntry, since models.Millis) []models.ChangeEntry {
	type tableKey struct {
		tableIndex int
		key        string
	}
	history := make(map[tableKey]models.ChangeEntry)
	for _, e := range entries {
		if e.UpdatedAt <= since {
			continue
		}
		k := tableKey{e.TableIndex, e.TableKey}
		prev, seen := history[k]
		switch e.ChangeMode {
		case models.ChangeModeDelete:
			if !seen {
				history[k] = e
			} else if prev.ChangeMode != models.ChangeModeDelete {
				// the record came and went inside the window
				delete(history, k)
			}
		default:
			if !seen {
				history[k] = e
			}
		}
	}
	condensed := make([]models.ChangeEntry, 0, len(history))
	for _, e := range history {
		condensed = append(condensed, e)
	}
	sort.Slice(condensed, func(i, j int) bool {
		a, b := condensed[i], condensed[j]
		if a.TableIndex != b.TableIndex {
			return a.TableIndex < b.TableIndex
		}
		if a.UpdatedAt != b.UpdatedAt {
			return a.UpdatedAt < b.UpdatedAt
		}
		return a.TableKey < b.TableKey
	})
	return condensed
}

// WriteCondensed rebuilds the condensed_change_log table from the raw log,
// keeping only entries newer than since, and returns the condensed count.
func (l *Log) WriteCondensed(since models.Millis) (int, error) {
	raw, err := l.readRaw()
	if err != nil {
		return 0, err
	}
	condensed := Condense(raw, since)
	if err := l.grid.Truncate(schema.TableCondensedChangeLog); err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", schema.TableCondensedChangeLog, err)
	}
	if len(condensed) > 0 {
		rows := make([][]any, len(condensed))
		for i, e := range condensed {
			rows[i] = entryRow(e)
		}
		if err := l.grid.AppendRows(schema.TableCondensedChangeLog, rows); err != nil {
			return 0, fmt.Errorf("failed to write %s: %w", schema.TableCondensedChangeLog, err)
		}
	}
	l.logger.Infof("Condensed %d raw entries into %d", len(raw), len(condensed))
	return len(condensed), nil
}

// readRaw parses the full raw change log in append order.
func (l *Log) readRaw() ([]models.ChangeEntry, error) {
	header, err := l.grid.Header(schema.TableChangeLog)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s header: %w", schema.TableChangeLog, err)
	}
	rows, err := l.grid.Rows(schema.TableChangeLog)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", schema.TableChangeLog, err)
	}
	colMap := store.ColumnMap(header)
	entries := make([]models.ChangeEntry, 0, len(rows))
	for _, row := range rows {
		if store.IsBlankRow(row) {
			continue
		}
		entries = append(entries, entryFromRow(row, colMap, defaultRawTimestamp))
	}
	return entries, nil
}
