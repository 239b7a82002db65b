package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/communitydesk/communitydesk/pkg/apperrors"
	"github.com/communitydesk/communitydesk/pkg/telemetry"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using a single SQLite file.
type SQLiteStore struct {
	db          *sql.DB
	path        string
	busyTimeout time.Duration
	metrics     *telemetry.Metrics
}

// Config holds SQLite store configuration.
type Config struct {
	Path string
	// BusyTimeout is how long a write waits for the file lock.
	BusyTimeout time.Duration
	// Metrics is optional.
	Metrics *telemetry.Metrics
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 20 * time.Second
	}

	return &SQLiteStore{
		path:        cfg.Path,
		busyTimeout: cfg.BusyTimeout,
		metrics:     cfg.Metrics,
	}, nil
}

// Init opens the database file.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_txlock=immediate",
		s.path, s.busyTimeout.Milliseconds())
	if s.path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer; one connection keeps every statement of
	// an action on the same file handle.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs the embedded, versioned migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// EnsureSchema brings the file up to the declared schema. It is safe to
// call on every start: existing tables first get any missing columns, the
// migrations then run, any table still absent is created, and data left in
// the older layout is imported.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := s.reconcileColumns(ctx); err != nil {
		return err
	}

	if err := s.Migrate(ctx); err != nil {
		return err
	}

	if err := s.createMissingTables(ctx); err != nil {
		return err
	}

	return s.importLegacy(ctx)
}

// HealthCheck verifies the database is reachable.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}

// Backup writes a consistent copy of the database to dest.
func (s *SQLiteStore) Backup(ctx context.Context, dest string) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return fmt.Errorf("failed to back up database: %w", err)
	}
	return nil
}

func (s *SQLiteStore) logger(ctx context.Context) *telemetry.Logger {
	return telemetry.FromContext(ctx).NewComponentLogger("store")
}

// withSchemaRetry runs write once and, when SQLite reports a missing table
// or column, repairs the schema and runs it exactly once more.
func (s *SQLiteStore) withSchemaRetry(ctx context.Context, table, op string, write func() error) error {
	err := write()
	if !isMissingSchema(err) {
		return err
	}

	s.logger(ctx).WithTable(table).WithError(err).Warn("Schema incomplete, repairing before retry")
	if herr := s.EnsureSchema(ctx); herr != nil {
		return apperrors.NewMissingSchemaError("failed to repair schema", errors.Join(err, herr)).
			WithTable(table).WithOp(op)
	}
	s.metrics.RecordSchemaRepair(table)

	if err := write(); err != nil {
		if isMissingSchema(err) {
			return apperrors.NewMissingSchemaError("schema still incomplete after repair", err).
				WithTable(table).WithOp(op)
		}
		return err
	}
	return nil
}

func checkTable(table string) (TableSchema, error) {
	t, ok := LookupTable(table)
	if !ok {
		return TableSchema{}, apperrors.NewUserInputError(fmt.Sprintf("unknown table %q", table), nil)
	}
	return t, nil
}

// queryRows runs query and returns every row keyed by column name.
func (s *SQLiteStore) queryRows(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := []Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// Load returns every row of table ordered by id. It fails soft: an
// unreadable table triggers one schema repair and retry, and a persistent
// failure yields an empty result instead of an error.
func (s *SQLiteStore) Load(ctx context.Context, table string) ([]Row, error) {
	if _, err := checkTable(table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT * FROM %s ORDER BY id", table)
	rows, err := s.queryRows(ctx, query)
	if err == nil {
		return rows, nil
	}

	logger := s.logger(ctx).WithTable(table)
	logger.WithError(err).Warn("Failed to load table, repairing schema")
	if herr := s.EnsureSchema(ctx); herr != nil {
		logger.WithError(herr).Error("Schema repair failed")
		return []Row{}, nil
	}

	rows, err = s.queryRows(ctx, query)
	if err != nil {
		logger.WithError(err).Error("Table still unreadable after repair")
		return []Row{}, nil
	}
	return rows, nil
}

// CountRows returns the number of rows in table.
func (s *SQLiteStore) CountRows(ctx context.Context, table string) (int, error) {
	if _, err := checkTable(table); err != nil {
		return 0, err
	}

	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	err := s.withSchemaRetry(ctx, table, "count", func() error {
		return s.db.QueryRowContext(ctx, query).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return count, nil
}

// InsertRows appends rows to table. Only declared columns are written;
// id is always assigned by the database.
func (s *SQLiteStore) InsertRows(ctx context.Context, table string, rows []Row) error {
	schema, err := checkTable(table)
	if err != nil {
		return err
	}

	err = s.withSchemaRetry(ctx, table, "insert_rows", func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			for _, row := range rows {
				if err := insertRow(ctx, tx, schema, row); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("failed to insert rows into %s: %w", table, err)
	}

	s.metrics.RecordWrite(table, "insert_rows")
	return nil
}

// ReplaceRows deletes every row of table and inserts rows in their place,
// in a single transaction.
func (s *SQLiteStore) ReplaceRows(ctx context.Context, table string, rows []Row) error {
	schema, err := checkTable(table)
	if err != nil {
		return err
	}

	err = s.withSchemaRetry(ctx, table, "replace_rows", func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
				return err
			}
			for _, row := range rows {
				if err := insertRow(ctx, tx, schema, row); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("failed to replace rows of %s: %w", table, err)
	}

	s.metrics.RecordWrite(table, "replace_rows")
	return nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertRow(ctx context.Context, ex execer, schema TableSchema, row Row) error {
	cols := make([]string, 0, len(row))
	for col := range row {
		if col == "id" {
			continue
		}
		if _, ok := schema.Column(col); ok {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		return nil
	}
	sort.Strings(cols)

	args := make([]any, len(cols))
	for i, col := range cols {
		c, _ := schema.Column(col)
		args[i] = storageValue(c, row[col])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		schema.Name,
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
	)
	_, err := ex.ExecContext(ctx, query, args...)
	return err
}

// storageValue turns blank text into NULL for non-text columns so that an
// empty spreadsheet cell does not land as '' in an INTEGER column.
func storageValue(c Column, v any) any {
	if str, ok := v.(string); ok && c.Type != "TEXT" && strings.TrimSpace(str) == "" {
		return nil
	}
	return v
}

// affected converts a zero-row result into a not-found error.
func affected(result sql.Result, what string, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound(what, id)
	}
	return nil
}

func notFound(what string, id int64) error {
	return apperrors.NewNotFoundError(fmt.Sprintf("%s not found: %d", what, id))
}
