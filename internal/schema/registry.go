// Package schema holds the static table definitions: columns, key columns,
// foreign keys and computed lookup columns. The registry is built once at
// startup and treated as read-only for the process lifetime.
package schema

import (
	"fmt"
	"sort"
)

// DataType classifies a column's semantic type. The sync engine only cares
// about Timestamp; the rest document intent for clients and tooling.
type DataType string

const (
	TypeUUID          DataType = "uuid"
	TypeTableIndex    DataType = "table_index"
	TypeID            DataType = "id"
	TypeInteger       DataType = "integer"
	TypeAmount        DataType = "amount"
	TypeQuantity      DataType = "quantity"
	TypeDouble        DataType = "double"
	TypeName          DataType = "name"
	TypeString        DataType = "string"
	TypeCurrency      DataType = "currency"
	TypeUnitOfMeasure DataType = "unit_of_measure"
	TypePercent       DataType = "percent"
	TypeDescription   DataType = "description"
	TypeTimestamp     DataType = "timestamp"
	TypeBoolean       DataType = "boolean"
	TypeChangeMode    DataType = "change_mode"
	TypeWebsite       DataType = "website"
	TypePhoneNumber   DataType = "phone_number"
	TypeEmailAddress  DataType = "email_address"
	TypeAddress       DataType = "address"
	TypeGeoLocation   DataType = "geo_location"
	TypePhoto         DataType = "photo_uuid"
)

// TableType classifies a table. Numeric table indices follow the same
// ordering: configuration < master < transaction, logs are negative.
type TableType string

const (
	TableTypeConfiguration TableType = "CONFIGURATION_DATA"
	TableTypeMaster        TableType = "MASTER_DATA"
	TableTypeTransaction   TableType = "TRANSACTION_DATA"
	TableTypeLog           TableType = "LOG"
)

// Column is one named, typed column of a table.
type Column struct {
	Name string
	Type DataType
}

// ForeignKey points a source column at a (table, column) pair.
type ForeignKey struct {
	Table  string
	Column string
}

// LookupColumn is a computed read-only column: the value of TargetColumn in
// the table referenced by the foreign key on SourceColumn.
type LookupColumn struct {
	SourceColumn string
	Name         string
	TargetColumn string
}

// TableDefinition describes one table. Immutable after registry construction.
type TableDefinition struct {
	Name          string
	Index         int
	Type          TableType
	KeyColumn     string
	Columns       []Column
	ForeignKeys   map[string]ForeignKey
	LookupColumns []LookupColumn
	SyncData      bool

	columnIndex map[string]int
}

func (d *TableDefinition) init() error {
	d.columnIndex = make(map[string]int, len(d.Columns))
	for i, col := range d.Columns {
		if _, ok := d.columnIndex[col.Name]; ok {
			return fmt.Errorf("duplicate column %q in table %q", col.Name, d.Name)
		}
		d.columnIndex[col.Name] = i
	}
	seen := make(map[string]bool, len(d.LookupColumns))
	for _, lc := range d.LookupColumns {
		if seen[lc.Name] {
			return fmt.Errorf("duplicate lookup column %q in table %q", lc.Name, d.Name)
		}
		seen[lc.Name] = true
		if _, ok := d.ForeignKeys[lc.SourceColumn]; !ok {
			return fmt.Errorf("lookup column %q in table %q references %q which has no foreign key", lc.Name, d.Name, lc.SourceColumn)
		}
	}
	if _, ok := d.columnIndex[d.KeyColumn]; !ok {
		return fmt.Errorf("key column %q not defined in table %q", d.KeyColumn, d.Name)
	}
	return nil
}

// ColumnNames returns the schema column names in definition order.
func (d *TableDefinition) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		names[i] = col.Name
	}
	return names
}

// HeaderColumns returns the full physical header: schema columns followed by
// lookup columns.
func (d *TableDefinition) HeaderColumns() []string {
	names := d.ColumnNames()
	for _, lc := range d.LookupColumns {
		names = append(names, lc.Name)
	}
	return names
}

// ColumnIndex returns the 0-based position of a schema column.
func (d *TableDefinition) ColumnIndex(name string) (int, bool) {
	i, ok := d.columnIndex[name]
	return i, ok
}

// ColumnType returns the data type of a schema column, or "" if unknown.
func (d *TableDefinition) ColumnType(name string) DataType {
	if i, ok := d.columnIndex[name]; ok {
		return d.Columns[i].Type
	}
	return ""
}

// IsDateColumn reports whether the column holds a timestamp.
func (d *TableDefinition) IsDateColumn(name string) bool {
	return d.ColumnType(name) == TypeTimestamp
}

// ColumnCount returns the number of schema columns (excludes lookup columns).
func (d *TableDefinition) ColumnCount() int {
	return len(d.Columns)
}

// Registry is the full table set, indexed by name and by numeric index.
type Registry struct {
	byName  map[string]*TableDefinition
	byIndex map[int]*TableDefinition
	names   []string
	sync    []string
}

// NewRegistry validates the definitions and builds the lookup maps. It fails
// fast on duplicate table names or indices and on duplicate lookup column
// names, since those indicate a misconfigured backend.
func NewRegistry(defs []*TableDefinition) (*Registry, error) {
	r := &Registry{
		byName:  make(map[string]*TableDefinition, len(defs)),
		byIndex: make(map[int]*TableDefinition, len(defs)),
	}
	for _, def := range defs {
		if err := def.init(); err != nil {
			return nil, err
		}
		if _, ok := r.byName[def.Name]; ok {
			return nil, fmt.Errorf("duplicate table name %q", def.Name)
		}
		if other, ok := r.byIndex[def.Index]; ok {
			return nil, fmt.Errorf("duplicate table index %d shared by %q and %q", def.Index, other.Name, def.Name)
		}
		r.byName[def.Name] = def
		r.byIndex[def.Index] = def
		r.names = append(r.names, def.Name)
		if def.SyncData {
			r.sync = append(r.sync, def.Name)
		}
	}
	for _, def := range defs {
		for col, fk := range def.ForeignKeys {
			target, ok := r.byName[fk.Table]
			if !ok {
				return nil, fmt.Errorf("table %q column %q references unknown table %q", def.Name, col, fk.Table)
			}
			if _, ok := target.ColumnIndex(fk.Column); !ok {
				return nil, fmt.Errorf("table %q column %q references unknown column %s.%s", def.Name, col, fk.Table, fk.Column)
			}
		}
	}
	return r, nil
}

// ByName returns the definition for a table name, or nil.
func (r *Registry) ByName(name string) *TableDefinition {
	return r.byName[name]
}

// ByIndex returns the definition for a numeric table index, or nil.
func (r *Registry) ByIndex(index int) *TableDefinition {
	return r.byIndex[index]
}

// IndexByName resolves a table name to its numeric index.
func (r *Registry) IndexByName(name string) (int, bool) {
	if def := r.byName[name]; def != nil {
		return def.Index, true
	}
	return 0, false
}

// NameByIndex resolves a numeric table index to its name.
func (r *Registry) NameByIndex(index int) (string, bool) {
	if def := r.byIndex[index]; def != nil {
		return def.Name, true
	}
	return "", false
}

// TableNames returns every table name in definition order.
func (r *Registry) TableNames() []string {
	return append([]string(nil), r.names...)
}

// SyncTableNames returns the tables eligible for change tracking. The log
// tables themselves are excluded.
func (r *Registry) SyncTableNames() []string {
	return append([]string(nil), r.sync...)
}

// CleanupOrder returns the sync tables ordered so that every table comes
// after the tables it references through foreign keys. Consistency cleanup
// walks this order so that removing an invalid row cascades: dependents are
// checked later, against the already-cleaned key set of their target.
func (r *Registry) CleanupOrder() []string {
	var order []string
	visited := make(map[string]bool, len(r.sync))
	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		def := r.byName[name]
		targets := make([]string, 0, len(def.ForeignKeys))
		for _, fk := range def.ForeignKeys {
			targets = append(targets, fk.Table)
		}
		sort.Strings(targets)
		for _, t := range targets {
			if t != name {
				visit(t)
			}
		}
		order = append(order, name)
	}
	for _, name := range r.sync {
		visit(name)
	}
	return order
}
