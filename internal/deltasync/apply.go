package deltasync

import (
	"fmt"
	"sort"

	"sheet-sync/internal/models"
	"sheet-sync/internal/schema"
	"sheet-sync/internal/store"
)

// ApplyResult summarizes a push. Failed carries one message per table whose
// changes could not be applied; other tables are unaffected.
type ApplyResult struct {
	Upserts int      `json:"upserts"`
	Deletes int      `json:"deletes"`
	Failed  []string `json:"failed,omitempty"`
}

// ApplyChanges writes pushed client changes to the grid. Entries are grouped
// per table and processed in table index order, deletes before upserts, so a
// delete-then-insert of the same key inside one push leaves the record
// present. A failure in one table is reported but does not abort the others.
// Every successfully applied entry is re-logged so other clients pick it up
// on their next pull, and returned so the caller can notify downstream
// consumers.
func (e *Engine) ApplyChanges(entries []models.ChangeEntry, tables models.TableRecords) (*ApplyResult, []models.ChangeEntry) {
	type group struct {
		deletes []models.ChangeEntry
		upserts []models.ChangeEntry
	}
	groups := make(map[string]*group)
	result := &ApplyResult{}
	for _, entry := range entries {
		table, ok := e.reg.NameByIndex(entry.TableIndex)
		if !ok {
			e.logger.Warnf("Unknown table index %d in pushed changes, skipping", entry.TableIndex)
			continue
		}
		g := groups[table]
		if g == nil {
			g = &group{}
			groups[table] = g
		}
		if entry.ChangeMode == models.ChangeModeDelete {
			g.deletes = append(g.deletes, entry)
		} else {
			g.upserts = append(g.upserts, entry)
		}
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return e.reg.ByName(names[i]).Index < e.reg.ByName(names[j]).Index
	})

	resolver := newLookupResolver(e.grid, e.reg)
	var logged []models.ChangeEntry
	for _, table := range names {
		g := groups[table]
		if err := e.applyTable(table, g.deletes, g.upserts, tables[table], resolver, result, &logged); err != nil {
			e.logger.Errorf("Error applying changes to %s: %v", table, err)
			result.Failed = append(result.Failed, fmt.Sprintf("%s: %v", table, err))
		}
	}
	e.log.InsertEntries(logged)
	return result, logged
}

func (e *Engine) applyTable(table string, deletes, upserts []models.ChangeEntry, records map[string]models.Record, resolver *lookupResolver, result *ApplyResult, logged *[]models.ChangeEntry) error {
	def := e.reg.ByName(table)
	header, err := e.grid.Header(table)
	if err != nil {
		return fmt.Errorf("failed to read %s header: %w", table, err)
	}
	colMap := store.ColumnMap(header)
	keyIdx, ok := colMap[def.KeyColumn]
	if !ok {
		return fmt.Errorf("key column %s not found in %s", def.KeyColumn, table)
	}

	if len(deletes) > 0 {
		rows, err := e.grid.Rows(table)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", table, err)
		}
		wanted := make(map[string]bool, len(deletes))
		for _, entry := range deletes {
			wanted[entry.TableKey] = true
		}
		var positions []int
		for pos, row := range rows {
			if keyIdx < len(row) && wanted[store.CellString(row[keyIdx])] {
				positions = append(positions, pos)
			}
		}
		// bottom-up, so earlier positions stay valid as rows shift
		sort.Sort(sort.Reverse(sort.IntSlice(positions)))
		for _, pos := range positions {
			if err := e.grid.DeleteRow(table, pos); err != nil {
				return fmt.Errorf("failed to delete row %d from %s: %w", pos, table, err)
			}
		}
		result.Deletes += len(positions)
		*logged = append(*logged, deletes...)
	}

	if len(upserts) == 0 {
		return nil
	}
	rows, err := e.grid.Rows(table)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", table, err)
	}
	keyPos := make(map[string]int, len(rows))
	var blanks []int
	for pos, row := range rows {
		if store.IsBlankRow(row) {
			blanks = append(blanks, pos)
			continue
		}
		if keyIdx < len(row) {
			if key := store.CellString(row[keyIdx]); key != "" {
				keyPos[key] = pos
			}
		}
	}

	// Rows without an existing position or blank slot are queued and appended
	// in one batch. Queued rows are not on the grid yet, so a later upsert for
	// the same key rewrites the queued row in place instead of getting a grid
	// position, and queued entries are only counted and logged once the
	// append succeeds.
	var queuedRows [][]any
	queuedIdx := make(map[string]int)
	var queuedEntries []models.ChangeEntry
	for _, entry := range upserts {
		record, exists := records[entry.TableKey]
		if !exists {
			e.logger.Warnf("No record payload for %s/%s, skipping", table, entry.TableKey)
			continue
		}
		row := e.recordToRow(def, header, entry.TableKey, record, resolver)
		if pos, found := keyPos[entry.TableKey]; found {
			if err := e.grid.SetRow(table, pos, row); err != nil {
				return fmt.Errorf("failed to update row %d in %s: %w", pos, table, err)
			}
		} else if idx, queued := queuedIdx[entry.TableKey]; queued {
			queuedRows[idx] = row
			queuedEntries = append(queuedEntries, entry)
			continue
		} else if len(blanks) > 0 {
			pos := blanks[0]
			blanks = blanks[1:]
			if err := e.grid.SetRow(table, pos, row); err != nil {
				return fmt.Errorf("failed to fill row %d in %s: %w", pos, table, err)
			}
			keyPos[entry.TableKey] = pos
		} else {
			queuedIdx[entry.TableKey] = len(queuedRows)
			queuedRows = append(queuedRows, row)
			queuedEntries = append(queuedEntries, entry)
			continue
		}
		result.Upserts++
		*logged = append(*logged, entry)
	}
	if len(queuedRows) > 0 {
		if err := e.grid.AppendRows(table, queuedRows); err != nil {
			return fmt.Errorf("failed to append %d rows to %s: %w", len(queuedRows), table, err)
		}
	}
	result.Upserts += len(queuedEntries)
	*logged = append(*logged, queuedEntries...)
	return nil
}

// recordToRow lays a record out in the table's header order. The key column
// is always taken from the change entry so a malformed payload cannot detach
// a row from its key. Lookup columns are resolved server side from the
// referenced table rather than trusted from the client.
func (e *Engine) recordToRow(def *schema.TableDefinition, header []string, key string, record models.Record, resolver *lookupResolver) []any {
	lookups := make(map[string]schema.LookupColumn, len(def.LookupColumns))
	for _, lc := range def.LookupColumns {
		lookups[lc.Name] = lc
	}
	row := make([]any, len(header))
	for i, col := range header {
		if col == def.KeyColumn {
			row[i] = key
			continue
		}
		if lc, isLookup := lookups[col]; isLookup {
			if v, ok := resolver.resolve(def, lc, record); ok {
				row[i] = v
			} else {
				row[i] = record[col]
			}
			continue
		}
		v, ok := record[col]
		if !ok || v == nil {
			row[i] = ""
			continue
		}
		if def.IsDateColumn(col) {
			row[i] = int64(models.CoerceMillis(v, 0))
			continue
		}
		row[i] = v
	}
	return row
}
