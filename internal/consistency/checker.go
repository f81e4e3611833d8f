// Package consistency validates key integrity and foreign key references
// across the grid store, optionally removing offending rows.
package consistency

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"sheet-sync/internal/changelog"
	"sheet-sync/internal/models"
	"sheet-sync/internal/schema"
	"sheet-sync/internal/store"
)

// Issue describes one offending row. Row is the 0-based data row position at
// detection time, so operators can find rows that have no usable key.
type Issue struct {
	Table           string `json:"table"`
	Row             int    `json:"row"`
	Key             string `json:"key,omitempty"`
	Column          string `json:"column,omitempty"`
	ReferencedTable string `json:"referenced_table,omitempty"`
	ReferencedKey   string `json:"referenced_key,omitempty"`
	Reason          string `json:"reason"`
}

// Report is the outcome of a full run. RemovedKeys holds the keys deleted by
// reference cleanup, one entry per removed row regardless of how many of its
// columns were in violation.
type Report struct {
	Cleanup         bool                `json:"cleanup"`
	KeyIssues       []Issue             `json:"key_issues"`
	ReferenceIssues []Issue             `json:"reference_issues"`
	RemovedRows     int                 `json:"removed_rows"`
	RemovedKeys     map[string][]string `json:"removed_keys,omitempty"`
	RecordCounts    map[string]int      `json:"record_counts"`
}

// Checker runs integrity checks over all registered tables.
type Checker struct {
	grid   store.Grid
	reg    *schema.Registry
	log    *changelog.Log
	logger *logrus.Logger

	// key sets of referenced tables, built once per run
	keySets map[string]map[string]bool
}

// New creates a Checker.
func New(grid store.Grid, reg *schema.Registry, log *changelog.Log, logger *logrus.Logger) *Checker {
	return &Checker{grid: grid, reg: reg, log: log, logger: logger}
}

// CheckAll runs key integrity checks on every sync table, then reference
// checks in dependency order: every table is examined after the tables it
// references, so a row removed from a parent table is already gone when its
// dependents are validated and the deletion cascades through the graph in a
// single run. The per-run key-set cache is safe under this order because a
// table's key set is only ever loaded by its dependents, all of which run
// after that table's own cleanup. Without cleanup the run only reports; with
// cleanup offending rows are deleted bottom-up and reference removals are
// recorded in the change log so clients drop the same rows on their next
// pull.
func (c *Checker) CheckAll(cleanup bool) (*Report, error) {
	c.keySets = make(map[string]map[string]bool)
	report := &Report{
		Cleanup:         cleanup,
		KeyIssues:       []Issue{},
		ReferenceIssues: []Issue{},
	}

	for _, table := range c.reg.SyncTableNames() {
		issues, removed, err := c.checkKeys(table, cleanup)
		if err != nil {
			return nil, err
		}
		report.KeyIssues = append(report.KeyIssues, issues...)
		report.RemovedRows += removed
	}

	for _, table := range c.reg.CleanupOrder() {
		def := c.reg.ByName(table)
		if len(def.ForeignKeys) == 0 {
			continue
		}
		issues, removed, keys, err := c.checkReferences(table, cleanup)
		if err != nil {
			return nil, err
		}
		report.ReferenceIssues = append(report.ReferenceIssues, issues...)
		report.RemovedRows += removed
		if len(keys) > 0 {
			if report.RemovedKeys == nil {
				report.RemovedKeys = make(map[string][]string)
			}
			report.RemovedKeys[table] = keys
		}
	}

	counts, err := c.RecordCounts()
	if err != nil {
		return nil, err
	}
	report.RecordCounts = counts
	c.logger.Infof("Consistency check done: %d key issues, %d reference issues, %d rows removed",
		len(report.KeyIssues), len(report.ReferenceIssues), report.RemovedRows)
	return report, nil
}

// checkKeys flags rows with an empty key and rows whose key duplicates an
// earlier one. The first occurrence of a key is authoritative and stays. No
// change entries are written for these removals: an empty key cannot be
// addressed by clients, and a duplicate's key remains live through the row
// that is kept.
func (c *Checker) checkKeys(table string, cleanup bool) ([]Issue, int, error) {
	def := c.reg.ByName(table)
	header, err := c.grid.Header(table)
	if err != nil {
		c.logger.Warnf("Table %s not found, skipping key check", table)
		return nil, 0, nil
	}
	rows, err := c.grid.Rows(table)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", table, err)
	}
	colMap := store.ColumnMap(header)
	keyIdx, ok := colMap[def.KeyColumn]
	if !ok {
		return nil, 0, fmt.Errorf("key column %s not found in %s", def.KeyColumn, table)
	}

	var issues []Issue
	var badPositions []int
	seen := make(map[string]bool, len(rows))
	for pos, row := range rows {
		if store.IsBlankRow(row) {
			continue
		}
		var key string
		if keyIdx < len(row) {
			key = store.CellString(row[keyIdx])
		}
		if key == "" {
			issues = append(issues, Issue{Table: table, Row: pos, Reason: "missing key"})
			badPositions = append(badPositions, pos)
			continue
		}
		if seen[key] {
			issues = append(issues, Issue{Table: table, Row: pos, Key: key, Reason: "duplicate key"})
			badPositions = append(badPositions, pos)
			continue
		}
		seen[key] = true
	}

	removed := 0
	if cleanup && len(badPositions) > 0 {
		if err := c.deleteRows(table, badPositions); err != nil {
			return nil, 0, err
		}
		removed = len(badPositions)
	}
	return issues, removed, nil
}

// checkReferences validates every foreign key column of a table against the
// referenced table's key set. With cleanup each offending row is removed
// once, no matter how many of its columns are in violation, and a DELETE
// change entry is logged for it. The removed keys are returned for
// downstream notification.
func (c *Checker) checkReferences(table string, cleanup bool) ([]Issue, int, []string, error) {
	def := c.reg.ByName(table)
	header, err := c.grid.Header(table)
	if err != nil {
		c.logger.Warnf("Table %s not found, skipping reference check", table)
		return nil, 0, nil, nil
	}
	rows, err := c.grid.Rows(table)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	colMap := store.ColumnMap(header)
	keyIdx := -1
	if idx, ok := colMap[def.KeyColumn]; ok {
		keyIdx = idx
	}

	var issues []Issue
	badPositions := make(map[int]string)
	for column, fk := range def.ForeignKeys {
		colIdx, ok := colMap[column]
		if !ok {
			c.logger.Warnf("Column %s not found in %s, skipping reference check", column, table)
			continue
		}
		targetKeys, err := c.keySet(fk.Table)
		if err != nil {
			return nil, 0, nil, err
		}
		for pos, row := range rows {
			if store.IsBlankRow(row) || colIdx >= len(row) {
				continue
			}
			ref := store.CellString(row[colIdx])
			if ref == "" || targetKeys[ref] {
				continue
			}
			var key string
			if keyIdx >= 0 && keyIdx < len(row) {
				key = store.CellString(row[keyIdx])
			}
			issues = append(issues, Issue{
				Table:           table,
				Row:             pos,
				Key:             key,
				Column:          column,
				ReferencedTable: fk.Table,
				ReferencedKey:   ref,
				Reason:          "broken reference",
			})
			badPositions[pos] = key
		}
	}

	removed := 0
	var keys []string
	if cleanup && len(badPositions) > 0 {
		positions := make([]int, 0, len(badPositions))
		for pos, key := range badPositions {
			positions = append(positions, pos)
			if key != "" {
				keys = append(keys, key)
			}
		}
		if err := c.deleteRows(table, positions); err != nil {
			return nil, 0, nil, err
		}
		removed = len(positions)
		sort.Strings(keys)
		c.log.LogChanges(table, keys, models.ChangeModeDelete, models.NowMillis())
	}
	return issues, removed, keys, nil
}

// deleteRows removes the given row positions bottom-up so earlier positions
// stay valid as rows shift.
func (c *Checker) deleteRows(table string, positions []int) error {
	sort.Sort(sort.Reverse(sort.IntSlice(positions)))
	for _, pos := range positions {
		if err := c.grid.DeleteRow(table, pos); err != nil {
			return fmt.Errorf("failed to delete row %d from %s: %w", pos, table, err)
		}
	}
	c.logger.Infof("Removed %d inconsistent rows from %s", len(positions), table)
	return nil
}

// keySet returns the set of live keys in a table, cached for the run.
func (c *Checker) keySet(table string) (map[string]bool, error) {
	if keys, ok := c.keySets[table]; ok {
		return keys, nil
	}
	def := c.reg.ByName(table)
	header, err := c.grid.Header(table)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s header: %w", table, err)
	}
	rows, err := c.grid.Rows(table)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	colMap := store.ColumnMap(header)
	keyIdx, ok := colMap[def.KeyColumn]
	if !ok {
		return nil, fmt.Errorf("key column %s not found in %s", def.KeyColumn, table)
	}
	keys := make(map[string]bool, len(rows))
	for _, row := range rows {
		if keyIdx >= len(row) {
			continue
		}
		if key := store.CellString(row[keyIdx]); key != "" {
			keys[key] = true
		}
	}
	c.keySets[table] = keys
	return keys, nil
}

// RecordCounts reports the number of non-blank data rows per table,
// including the log tables.
func (c *Checker) RecordCounts() (map[string]int, error) {
	counts := make(map[string]int)
	for _, table := range c.reg.TableNames() {
		rows, err := c.grid.Rows(table)
		if err != nil {
			c.logger.Warnf("Table %s not found, skipping count", table)
			continue
		}
		n := 0
		for _, row := range rows {
			if !store.IsBlankRow(row) {
				n++
			}
		}
		counts[table] = n
	}
	return counts, nil
}
