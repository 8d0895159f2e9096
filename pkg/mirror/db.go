package mirror

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Dialect identifies the SQL flavor behind a database handle.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// DialectForDriver maps a database/sql driver name to its dialect.
func DialectForDriver(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3":
		return DialectSQLite, nil
	case "postgres":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Rebind rewrites ? placeholders into the dialect's native form.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// LikeOperator returns the case-insensitive substring operator for the
// dialect. SQLite LIKE already folds ASCII case; PostgreSQL needs ILIKE.
func (d Dialect) LikeOperator() string {
	if d == DialectPostgres {
		return "ILIKE"
	}
	return "LIKE"
}

// Open opens the mirror database and verifies the connection. SQLite access
// is funneled through a single connection so concurrent writers queue up
// instead of failing with SQLITE_BUSY.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, Dialect, error) {
	dialect, err := DialectForDriver(driver)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	switch dialect {
	case DialectSQLite:
		db.SetMaxOpenConns(1)
	case DialectPostgres:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(1 * time.Hour)
		db.SetConnMaxIdleTime(10 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	return db, dialect, nil
}

// Migrate creates the tables used by the mirror, the key registry and the
// usage log. Every statement is idempotent so the service runs this on each
// start.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	for _, stmt := range schemaStatements(dialect) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func schemaStatements(dialect Dialect) []string {
	// "rows" is quoted everywhere because it is reserved in PostgreSQL.
	datasetsDDL := `
		CREATE TABLE IF NOT EXISTS datasets (
			id TEXT PRIMARY KEY,
			name TEXT,
			url TEXT,
			updated TEXT,
			"rows" INTEGER,
			columns TEXT,
			description TEXT,
			tags TEXT
		)`
	usageLogsDDL := `
		CREATE TABLE IF NOT EXISTS usage_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			api_key TEXT,
			endpoint TEXT,
			ts INTEGER
		)`
	if dialect == DialectPostgres {
		datasetsDDL = `
		CREATE TABLE IF NOT EXISTS datasets (
			id TEXT PRIMARY KEY,
			name TEXT,
			url TEXT,
			updated TEXT,
			"rows" BIGINT,
			columns TEXT,
			description TEXT,
			tags TEXT
		)`
		usageLogsDDL = `
		CREATE TABLE IF NOT EXISTS usage_logs (
			id BIGSERIAL PRIMARY KEY,
			api_key TEXT,
			endpoint TEXT,
			ts BIGINT
		)`
	}

	return []string{
		datasetsDDL,
		`
		CREATE TABLE IF NOT EXISTS api_keys (
			key TEXT PRIMARY KEY,
			label TEXT,
			created_at TEXT,
			active INTEGER DEFAULT 1,
			quota INTEGER
		)`,
		usageLogsDDL,
		`CREATE INDEX IF NOT EXISTS idx_usage_logs_api_key ON usage_logs(api_key)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_logs_ts ON usage_logs(ts)`,
		`
		CREATE TABLE IF NOT EXISTS usage_stats_daily (
			day TEXT NOT NULL,
			api_key TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			requests INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (day, api_key, endpoint)
		)`,
	}
}
