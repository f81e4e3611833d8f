package store

import (
	"fmt"
	"sort"
	"sync"
)

type memTable struct {
	header []string
	rows   [][]any
}

// MemGrid is an in-memory Grid. It is the default store for tests and for
// running without persistence.
type MemGrid struct {
	mu     sync.RWMutex
	tables map[string]*memTable
}

// NewMemGrid returns an empty in-memory grid.
func NewMemGrid() *MemGrid {
	return &MemGrid{tables: make(map[string]*memTable)}
}

func (g *MemGrid) EnsureTable(name string, header []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.tables[name]; ok {
		return nil
	}
	g.tables[name] = &memTable{header: append([]string(nil), header...)}
	return nil
}

func (g *MemGrid) Tables() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.tables))
	for name := range g.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (g *MemGrid) Header(name string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return append([]string(nil), t.header...), nil
}

func (g *MemGrid) Rows(name string) ([][]any, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	rows := make([][]any, len(t.rows))
	for i, row := range t.rows {
		rows[i] = append([]any(nil), row...)
	}
	return rows, nil
}

func (g *MemGrid) SetRow(name string, pos int, row []any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tables[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	if pos < 0 || pos >= len(t.rows) {
		return fmt.Errorf("row %d out of range in table %s", pos, name)
	}
	t.rows[pos] = append([]any(nil), row...)
	return nil
}

func (g *MemGrid) AppendRows(name string, rows [][]any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tables[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	for _, row := range rows {
		t.rows = append(t.rows, append([]any(nil), row...))
	}
	return nil
}

func (g *MemGrid) DeleteRow(name string, pos int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tables[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	if pos < 0 || pos >= len(t.rows) {
		return fmt.Errorf("row %d out of range in table %s", pos, name)
	}
	t.rows = append(t.rows[:pos], t.rows[pos+1:]...)
	return nil
}

func (g *MemGrid) Truncate(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tables[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	t.rows = nil
	return nil
}
