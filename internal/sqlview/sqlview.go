// Package sqlview mirrors a frame into an in-memory SQLite database so it can be
// queried with SQL. The mirror is read-only once loaded.
package sqlview

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alekseisolovev/databot/internal/frame"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// DefaultTable is the table name used when none is given.
const DefaultTable = "df"

// View is a read-only SQL mirror of one frame.
type View struct {
	db    *sql.DB
	table string
}

// Open copies f into a fresh in-memory database under the given table name.
func Open(ctx context.Context, f *frame.Frame, table string) (*View, error) {
	if f == nil {
		return nil, errors.New("sqlview: nil frame")
	}
	if table == "" {
		table = DefaultTable
	}
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("sqlview: open database: %w", err)
	}
	// each connection to :memory: is its own database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	v := &View{db: db, table: table}
	if err := v.load(ctx, f); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA query_only=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlview: set read-only: %w", err)
	}
	return v, nil
}

// Table returns the mirrored table name.
func (v *View) Table() string { return v.table }

func (v *View) load(ctx context.Context, f *frame.Frame) error {
	names := f.Columns()
	cols := make([]*frame.Series, len(names))
	defs := make([]string, len(names))
	for i, name := range names {
		c, err := f.Col(name)
		if err != nil {
			return err
		}
		cols[i] = c
		typ := "TEXT"
		if c.Kind() == frame.KindNumeric {
			typ = "REAL"
		}
		defs[i] = quoteIdent(name) + " " + typ
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(v.table), strings.Join(defs, ", "))
	if _, err := v.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("sqlview: create table: %w", err)
	}
	if f.Len() == 0 {
		return nil
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlview: begin: %w", err)
	}
	defer tx.Rollback()

	marks := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(v.table), marks))
	if err != nil {
		return fmt.Errorf("sqlview: prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for row := 0; row < f.Len(); row++ {
		for i, c := range cols {
			args[i] = sqlValue(c.At(row))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("sqlview: insert row %d: %w", row, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlview: commit: %w", err)
	}
	return nil
}

func sqlValue(v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// Query runs a single SELECT statement and returns its result set as a frame. Columns holding
// only numbers (or NULL) become numeric; everything else is text.
func (v *View) Query(ctx context.Context, query string) (*frame.Frame, error) {
	stmt, err := readOnlyStatement(query)
	if err != nil {
		return nil, fmt.Errorf("sql: %w", err)
	}
	rows, err := v.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("sql: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sql: columns: %w", err)
	}
	cells := make([][]any, len(names))
	for rows.Next() {
		dest := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sql: scan: %w", err)
		}
		for i, d := range dest {
			cells[i] = append(cells[i], d)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sql: %w", err)
	}

	seen := map[string]int{}
	series := make([]*frame.Series, len(names))
	for i, name := range names {
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		series[i] = toSeries(name, cells[i])
	}
	return frame.New(series...)
}

func toSeries(name string, vals []any) *frame.Series {
	numeric := true
	nums := make([]float64, len(vals))
	valid := make([]bool, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case nil:
		case int64:
			nums[i], valid[i] = float64(x), true
		case float64:
			nums[i], valid[i] = x, true
		default:
			numeric = false
		}
	}
	if numeric {
		return frame.NewNumeric(name, nums, valid)
	}
	strs := make([]string, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case nil:
			valid[i] = false
		case []byte:
			strs[i], valid[i] = string(x), true
		default:
			strs[i], valid[i] = fmt.Sprint(x), true
		}
	}
	return frame.NewStrings(name, strs, valid)
}

// Close releases the database.
func (v *View) Close() error {
	return v.db.Close()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
