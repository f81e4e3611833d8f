package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	// Drivers for the persistent grid; the config picks one by name.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// SQLGrid persists the grid through database/sql. Each table is stored as a
// header row plus positioned data rows whose cells are JSON-encoded, keeping
// the store schema-less: the relational schema lives in the registry, not in
// the database.
type SQLGrid struct {
	db *sql.DB
}

// OpenSQLGrid opens the backing database and creates the grid tables if
// needed. Supported drivers: sqlite3, mysql.
func OpenSQLGrid(driver, dsn string) (*SQLGrid, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s store: %w", driver, err)
	}
	g := &SQLGrid{db: db}
	if err := g.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return g, nil
}

func (g *SQLGrid) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS grid_sheets (
			sheet VARCHAR(128) NOT NULL PRIMARY KEY,
			header TEXT NOT NULL
		)`,
		// no unique constraint on (sheet, pos): the shift after a delete
		// rewrites positions in place and must not trip a key check mid-update
		`CREATE TABLE IF NOT EXISTS grid_rows (
			sheet VARCHAR(128) NOT NULL,
			pos INTEGER NOT NULL,
			cells TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := g.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create grid tables: %w", err)
		}
	}
	// MySQL has no CREATE INDEX IF NOT EXISTS; a duplicate-index error here
	// just means a prior run already created it.
	g.db.Exec(`CREATE INDEX idx_grid_rows_sheet_pos ON grid_rows (sheet, pos)`)
	return nil
}

// Close closes the backing database.
func (g *SQLGrid) Close() error {
	return g.db.Close()
}

func (g *SQLGrid) EnsureTable(name string, header []string) error {
	data, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to encode header for %s: %w", name, err)
	}
	var existing string
	err = g.db.QueryRow(`SELECT header FROM grid_sheets WHERE sheet = ?`, name).Scan(&existing)
	if err == sql.ErrNoRows {
		if _, err := g.db.Exec(`INSERT INTO grid_sheets (sheet, header) VALUES (?, ?)`, name, string(data)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", name, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up table %s: %w", name, err)
	}
	return nil
}

func (g *SQLGrid) Tables() ([]string, error) {
	rows, err := g.db.Query(`SELECT sheet FROM grid_sheets ORDER BY sheet`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (g *SQLGrid) Header(name string) ([]string, error) {
	var data string
	err := g.db.QueryRow(`SELECT header FROM grid_sheets WHERE sheet = ?`, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", name, err)
	}
	var header []string
	if err := json.Unmarshal([]byte(data), &header); err != nil {
		return nil, fmt.Errorf("failed to decode header of %s: %w", name, err)
	}
	return header, nil
}

func (g *SQLGrid) Rows(name string) ([][]any, error) {
	if _, err := g.Header(name); err != nil {
		return nil, err
	}
	rows, err := g.db.Query(`SELECT cells FROM grid_rows WHERE sheet = ? ORDER BY pos`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", name, err)
	}
	defer rows.Close()
	var out [][]any
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", name, err)
		}
		var cells []any
		if err := json.Unmarshal([]byte(data), &cells); err != nil {
			return nil, fmt.Errorf("failed to decode row of %s: %w", name, err)
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}

func (g *SQLGrid) rowCount(tx *sql.Tx, name string) (int, error) {
	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM grid_rows WHERE sheet = ?`, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", name, err)
	}
	return n, nil
}

func (g *SQLGrid) SetRow(name string, pos int, row []any) error {
	if _, err := g.Header(name); err != nil {
		return err
	}
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode row for %s: %w", name, err)
	}
	res, err := g.db.Exec(`UPDATE grid_rows SET cells = ? WHERE sheet = ? AND pos = ?`, string(data), name, pos)
	if err != nil {
		return fmt.Errorf("failed to update row %d of %s: %w", pos, name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update row %d of %s: %w", pos, name, err)
	}
	if affected == 0 {
		return fmt.Errorf("row %d out of range in table %s", pos, name)
	}
	return nil
}

func (g *SQLGrid) AppendRows(name string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	if _, err := g.Header(name); err != nil {
		return err
	}
	tx, err := g.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin append to %s: %w", name, err)
	}
	defer tx.Rollback()
	next, err := g.rowCount(tx, name)
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO grid_rows (sheet, pos, cells) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare append to %s: %w", name, err)
	}
	defer stmt.Close()
	for i, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to encode row for %s: %w", name, err)
		}
		if _, err := stmt.Exec(name, next+i, string(data)); err != nil {
			return fmt.Errorf("failed to append row to %s: %w", name, err)
		}
	}
	return tx.Commit()
}

func (g *SQLGrid) DeleteRow(name string, pos int) error {
	if _, err := g.Header(name); err != nil {
		return err
	}
	tx, err := g.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete from %s: %w", name, err)
	}
	defer tx.Rollback()
	res, err := tx.Exec(`DELETE FROM grid_rows WHERE sheet = ? AND pos = ?`, name, pos)
	if err != nil {
		return fmt.Errorf("failed to delete row %d of %s: %w", pos, name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete row %d of %s: %w", pos, name, err)
	}
	if affected == 0 {
		return fmt.Errorf("row %d out of range in table %s", pos, name)
	}
	// shift the rows below up by one, like removing a spreadsheet row
	if _, err := tx.Exec(`UPDATE grid_rows SET pos = pos - 1 WHERE sheet = ? AND pos > ?`, name, pos); err != nil {
		return fmt.Errorf("failed to shift rows of %s: %w", name, err)
	}
	return tx.Commit()
}

func (g *SQLGrid) Truncate(name string) error {
	if _, err := g.Header(name); err != nil {
		return err
	}
	if _, err := g.db.Exec(`DELETE FROM grid_rows WHERE sheet = ?`, name); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", name, err)
	}
	return nil
}
