package changelog

import (
	"fmt"

	"sheet-sync/internal/models"
	"sheet-sync/internal/schema"
	"sheet-sync/internal/store"
)

// ReadCondensed returns one page of the condensed log plus the total entry
// count, so clients know when they have paged past the end. Offsets beyond
// the end yield an empty page, never an error.
func (l *Log) ReadCondensed(offset, limit int) ([]models.ChangeEntry, int, error) {
	header, err := l.grid.Header(schema.TableCondensedChangeLog)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s header: %w", schema.TableCondensedChangeLog, err)
	}
	rows, err := l.grid.Rows(schema.TableCondensedChangeLog)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", schema.TableCondensedChangeLog, err)
	}
	colMap := store.ColumnMap(header)
	all := make([]models.ChangeEntry, 0, len(rows))
	now := models.NowMillis()
	for _, row := range rows {
		if store.IsBlankRow(row) {
			continue
		}
		all = append(all, entryFromRow(row, colMap, now))
	}
	total := len(all)
	if offset < 0 {
		offset = 0
	}
	if offset >= total || limit <= 0 {
		return []models.ChangeEntry{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}
