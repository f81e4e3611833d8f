package deltasync

import (
	"sheet-sync/internal/models"
	"sheet-sync/internal/schema"
	"sheet-sync/internal/store"
)

// lookupResolver fills denormalized lookup columns (for example account_name
// alongside account_id) from the table the source column references. Each
// referenced table is read at most once per apply run.
type lookupResolver struct {
	grid  store.Grid
	reg   *schema.Registry
	cache map[string]map[string]models.Record
}

func newLookupResolver(grid store.Grid, reg *schema.Registry) *lookupResolver {
	return &lookupResolver{
		grid:  grid,
		reg:   reg,
		cache: make(map[string]map[string]models.Record),
	}
}

// resolve returns the lookup value for one record, following the foreign key
// on the lookup's source column. The bool is false when the reference cannot
// be followed, so the caller can fall back to the pushed value.
func (r *lookupResolver) resolve(def *schema.TableDefinition, lc schema.LookupColumn, record models.Record) (any, bool) {
	fk, ok := def.ForeignKeys[lc.SourceColumn]
	if !ok {
		return nil, false
	}
	refKey := store.CellString(record[lc.SourceColumn])
	if refKey == "" {
		return "", true
	}
	records, err := r.load(fk.Table)
	if err != nil {
		return nil, false
	}
	target, ok := records[refKey]
	if !ok {
		return nil, false
	}
	v, ok := target[lc.TargetColumn]
	return v, ok
}

func (r *lookupResolver) load(table string) (map[string]models.Record, error) {
	if cached, ok := r.cache[table]; ok {
		return cached, nil
	}
	def := r.reg.ByName(table)
	header, err := r.grid.Header(table)
	if err != nil {
		return nil, err
	}
	rows, err := r.grid.Rows(table)
	if err != nil {
		return nil, err
	}
	colMap := store.ColumnMap(header)
	keyIdx, ok := colMap[def.KeyColumn]
	records := make(map[string]models.Record, len(rows))
	if ok {
		for _, row := range rows {
			if keyIdx >= len(row) {
				continue
			}
			key := store.CellString(row[keyIdx])
			if key == "" {
				continue
			}
			rec := make(models.Record, len(header))
			for i, col := range header {
				if i < len(row) {
					rec[col] = row[i]
				}
			}
			records[key] = rec
		}
	}
	r.cache[table] = records
	return records, nil
}
