// Package store persists tables in an embedded DuckDB database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
	"github.com/rs/zerolog"

	"github.com/KaramelBytes/winestat/internal/logging"
	"github.com/KaramelBytes/winestat/internal/table"
)

// ErrTableNotFound is returned when a named relation does not exist.
var ErrTableNotFound = errors.New("table not found")

// insertBatch is the number of rows per multi-row INSERT.
const insertBatch = 500

// Store wraps a DuckDB connection pool.
type Store struct {
	db   *sql.DB
	path string
	log  zerolog.Logger
}

// Open opens the database file at path. An empty path or ":memory:" opens a
// private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("duckdb", dsn+"?autoinstall_known_extensions=false&autoload_known_extensions=false")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	s := &Store{db: db, path: dsn, log: logging.With("store")}
	s.log.Debug().Str("path", dsn).Msg("database opened")
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the pool for ad-hoc SQL.
func (s *Store) DB() *sql.DB { return s.db }

// Quote returns ident as a double-quoted SQL identifier.
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Tables lists relations in the main schema, sorted by name.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = 'main' ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Exists reports whether a relation named name exists.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM information_schema.tables WHERE table_schema = 'main' AND table_name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return n > 0, nil
}

func (s *Store) mustExist(ctx context.Context, name string) error {
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return nil
}

// Count returns the number of rows in name.
func (s *Store) Count(ctx context.Context, name string) (int64, error) {
	if err := s.mustExist(ctx, name); err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM "+Quote(name)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", name, err)
	}
	return n, nil
}

// ReadTable loads every row of name.
func (s *Store) ReadTable(ctx context.Context, name string) (*table.Table, error) {
	if err := s.mustExist(ctx, name); err != nil {
		return nil, err
	}
	return s.Query(ctx, name, "SELECT * FROM "+Quote(name))
}

// Query runs query and returns the result as a table called name.
func (s *Store) Query(ctx context.Context, name, query string, args ...any) (*table.Table, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	t := table.New(name, cols)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		for i, v := range vals {
			vals[i] = normalize(v)
		}
		t.Rows = append(t.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	s.log.Debug().Str("table", name).Int("rows", t.Len()).Msg("read")
	return t, nil
}

// WriteTable creates or replaces the relation t.Name with t's rows in one
// transaction.
func (s *Store) WriteTable(ctx context.Context, t *table.Table) error {
	if t.Name == "" {
		return errors.New("write table: empty name")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("write table %s: no columns", t.Name)
	}
	types := inferTypes(t)
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = Quote(c) + " " + string(types[i])
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+Quote(t.Name)); err != nil {
		return fmt.Errorf("drop %s: %w", t.Name, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", Quote(t.Name), strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create %s: %w", t.Name, err)
	}
	if err := insertRows(ctx, tx, t, types); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", t.Name, err)
	}
	s.log.Debug().Str("table", t.Name).Int("rows", t.Len()).Msg("written")
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, t *table.Table, types []sqlType) error {
	ph := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ") + ")"
	stmtFor := func(n int) string {
		parts := make([]string, n)
		for i := range parts {
			parts[i] = ph
		}
		return "INSERT INTO " + Quote(t.Name) + " VALUES " + strings.Join(parts, ", ")
	}

	var full *sql.Stmt
	defer func() {
		if full != nil {
			full.Close()
		}
	}()
	for start := 0; start < len(t.Rows); start += insertBatch {
		end := min(start+insertBatch, len(t.Rows))
		args := make([]any, 0, (end-start)*len(t.Columns))
		for _, r := range t.Rows[start:end] {
			for j, v := range r {
				args = append(args, coerce(v, types[j]))
			}
		}
		if end-start == insertBatch {
			if full == nil {
				var err error
				if full, err = tx.PrepareContext(ctx, stmtFor(insertBatch)); err != nil {
					return fmt.Errorf("prepare insert %s: %w", t.Name, err)
				}
			}
			if _, err := full.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert %s: %w", t.Name, err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, stmtFor(end-start), args...); err != nil {
			return fmt.Errorf("insert %s: %w", t.Name, err)
		}
	}
	return nil
}

// DropTable removes name if it exists.
func (s *Store) DropTable(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+Quote(name)); err != nil {
		return fmt.Errorf("drop %s: %w", name, err)
	}
	return nil
}
