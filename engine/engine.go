// Package engine wraps the embedded DuckDB session that backs the emulated
// catalogs: one physical database, one "main" schema, seeded once at startup
// and never mutated afterwards.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	_ "github.com/duckdb/duckdb-go/v2"
)

// Engine is the shared DuckDB session. All statements run on a single
// connection guarded by a mutex: a DuckDB session is not safe for concurrent
// statement execution from multiple callers.
type Engine struct {
	db *sql.DB

	mu   sync.Mutex
	conn *sql.Conn
}

// seedStatements creates and populates the physical tables every instance
// starts with. The dictionary_test and run_end_test shadows are empty on
// purpose: their data lives in encoded-column fixtures the engine cannot
// produce, but the shadow rows make them show up in information_schema.
var seedStatements = []string{
	`CREATE TABLE test_data AS SELECT 42::INTEGER AS value`,
	`CREATE TABLE numbers AS SELECT i::INTEGER AS id, 'item_' || i AS name FROM range(1, 11) t(i)`,
	`CREATE TABLE types_test (
		int_col INTEGER,
		bigint_col BIGINT,
		double_col DOUBLE,
		varchar_col VARCHAR,
		bool_col BOOLEAN,
		date_col DATE,
		ts_col TIMESTAMP
	)`,
	`INSERT INTO types_test VALUES
		(1, 10000000000, 1.5, 'hello', TRUE, DATE '2024-01-15', TIMESTAMP '2024-01-15 10:30:00'),
		(-2, -20000000000, -2.25, 'world', FALSE, DATE '1969-07-20', TIMESTAMP '1969-07-20 20:17:40'),
		(NULL, NULL, NULL, NULL, NULL, NULL, NULL)`,
	`CREATE TABLE decimal_test (amount DECIMAL(18,3))`,
	`INSERT INTO decimal_test VALUES (123.456), (0.001), (-99999.999)`,
	`CREATE TABLE nested_test (list_col INTEGER[], struct_col STRUCT(a INTEGER, b VARCHAR))`,
	`INSERT INTO nested_test VALUES
		([1, 2, 3], {'a': 1, 'b': 'hi'}),
		([4, NULL], {'a': NULL, 'b': 'bye'})`,
	`CREATE TABLE dictionary_test AS SELECT 'alpha'::VARCHAR AS dict_col LIMIT 0`,
	`CREATE TABLE run_end_test AS SELECT 1::BIGINT AS ree_col LIMIT 0`,
}

// Open connects to DuckDB (":memory:" or a file path) and seeds the test
// tables.
func Open(ctx context.Context, database string) (*Engine, error) {
	db, err := sql.Open("duckdb", database)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("acquire duckdb connection: %w", err)
	}

	e := &Engine{db: db, conn: conn}
	if err := e.seed(ctx); err != nil {
		e.Close()
		return nil, err
	}

	slog.Info("Engine ready.", "database", database)
	return e, nil
}

func (e *Engine) seed(ctx context.Context) error {
	for _, stmt := range seedStatements {
		if _, err := e.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("seed statement %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

// Describe executes query to completion and returns its Arrow schema and row
// count. Running the full query, not a LIMIT 0 probe, doubles as validation
// that the statement is well-formed.
func (e *Engine) Describe(ctx context.Context, query string) (*arrow.Schema, int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rows, err := e.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = rows.Close()
	}()

	schema, err := schemaFromRows(rows)
	if err != nil {
		return nil, 0, err
	}

	var count int64
	for rows.Next() {
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return schema, count, nil
}

// Query executes query and hands the open cursor and its Arrow schema to fn.
// The engine lock is held for the duration of fn, so results are pulled
// lazily but concurrent queries are serialized.
func (e *Engine) Query(ctx context.Context, query string, fn func(*arrow.Schema, *sql.Rows) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rows, err := e.conn.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() {
		_ = rows.Close()
	}()

	schema, err := schemaFromRows(rows)
	if err != nil {
		return err
	}
	return fn(schema, rows)
}

// ListTables returns the base tables of the physical main schema, sorted by
// name. Fixture shadow tables are included; views are not.
func (e *Engine) ListTables(ctx context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rows, err := e.conn.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = 'main' AND table_type = 'BASE TABLE'
		 ORDER BY table_name`)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// TableSchema returns the Arrow schema of a physical table without reading
// any rows.
func (e *Engine) TableSchema(ctx context.Context, table string) (*arrow.Schema, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rows, err := e.conn.QueryContext(ctx, "SELECT * FROM main."+QuoteIdent(table)+" LIMIT 0")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	return schemaFromRows(rows)
}

// Close releases the connection and the database.
func (e *Engine) Close() {
	if e.conn != nil {
		if err := e.conn.Close(); err != nil {
			slog.Warn("Failed to close engine connection.", "error", err)
		}
	}
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			slog.Warn("Failed to close engine database.", "error", err)
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
