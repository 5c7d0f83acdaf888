// Package sqlite provides a SQLite implementation of store.Store.
//
// Individual methods execute against s.conn, which is either the
// underlying *sql.DB (autocommit) or a *sql.Tx inside RunInTransaction.
// Save writes the composition row and then replaces its labels, so it
// is only atomic when called through RunInTransaction.
//
// On-disk databases are opened in WAL mode with foreign keys enforced;
// deleting a composition cascades to its labels.
//
// All queries are prepared once at open time. Inside a transaction,
// tx.StmtContext binds the already-compiled statements to the
// transaction without re-parsing.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/frobware/go-pfq/store"
)

//go:embed schema.sql
var schemaSQL string

// dbConn abstracts *sql.DB and *sql.Tx for query execution.
type dbConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqliteStore struct {
	db     *sql.DB // original connection, used for BeginTx
	conn   dbConn  // active connection (db or tx)
	logger *slog.Logger

	stmtGet         *sql.Stmt
	stmtSave        *sql.Stmt
	stmtDelete      *sql.Stmt
	stmtList        *sql.Stmt
	stmtFindByLabel *sql.Stmt
	stmtGetLabels   *sql.Stmt
	stmtDelLabels   *sql.Stmt
	stmtInsLabel    *sql.Stmt
}

var _ store.Store = (*sqliteStore)(nil)

// New opens or creates a SQLite store at dbPath.
func New(ctx context.Context, dbPath string, logger *slog.Logger) (store.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store", "db", dbPath)

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open(driverName, dsn(dbPath, [][2]string{{"journal_mode", "WAL"}, {"foreign_keys", "1"}}))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s, err := open(ctx, db, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("opened database", "path", dbPath)
	return s, nil
}

// NewInMemory creates an in-memory SQLite store for testing.
func NewInMemory(ctx context.Context, logger *slog.Logger) (store.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store", "db", ":memory:")

	db, err := sql.Open(driverName, dsn(":memory:", [][2]string{{"foreign_keys", "1"}}))
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Every pooled connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	s, err := open(ctx, db, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("opened in-memory database")
	return s, nil
}

func open(ctx context.Context, db *sql.DB, logger *slog.Logger) (*sqliteStore, error) {
	s := &sqliteStore{db: db, conn: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := s.prepareStatements(ctx); err != nil {
		s.closeStatements()
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	return s, nil
}

// Close closes all prepared statements and the database connection.
func (s *sqliteStore) Close() error {
	s.closeStatements()
	return s.db.Close()
}

// closeStatements closes all prepared statements. Close errors are
// ignored because the database is about to be closed.
func (s *sqliteStore) closeStatements() {
	for _, stmt := range s.statements() {
		if *stmt != nil {
			(*stmt).Close()
		}
	}
}

func (s *sqliteStore) statements() []**sql.Stmt {
	return []**sql.Stmt{
		&s.stmtGet,
		&s.stmtSave,
		&s.stmtDelete,
		&s.stmtList,
		&s.stmtFindByLabel,
		&s.stmtGetLabels,
		&s.stmtDelLabels,
		&s.stmtInsLabel,
	}
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// RunInTransaction executes fn within a database transaction. If fn
// returns nil the transaction commits, otherwise it rolls back.
//
// The store's statements are prepared against *sql.DB and stay valid
// for the lifetime of the connection; tx.StmtContext makes transaction
// bound handles from them, which are discarded after commit or rollback.
func (s *sqliteStore) RunInTransaction(ctx context.Context, fn func(store.Store) error) error {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	txStore := &sqliteStore{db: s.db, conn: tx, logger: s.logger}
	master := s.statements()
	for i, stmt := range txStore.statements() {
		*stmt = tx.StmtContext(ctx, *master[i])
	}

	if err := fn(txStore); err != nil {
		s.logger.DebugContext(ctx, "transaction rolled back", "error", err, "duration_ms", msec(time.Since(start)))
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.logger.DebugContext(ctx, "transaction committed", "duration_ms", msec(time.Since(start)))
	return nil
}

// msec formats a duration as milliseconds with 3 decimal places.
func msec(d time.Duration) string {
	return fmt.Sprintf("%.3f", float64(d.Microseconds())/1000)
}

// Save inserts or replaces a composition by name.
func (s *sqliteStore) Save(ctx context.Context, rec store.Record) error {
	if rec.Name == "" {
		return fmt.Errorf("save: empty name")
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var id string
	err := s.stmtSave.QueryRowContext(ctx,
		rec.ID.String(), rec.Name, rec.Symbol, rec.Kind, rec.Wire, rec.Text,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("save %s: %w", rec.Name, err)
	}

	if _, err := s.stmtDelLabels.ExecContext(ctx, id); err != nil {
		return fmt.Errorf("save %s: clear labels: %w", rec.Name, err)
	}
	for k, v := range rec.Labels {
		if _, err := s.stmtInsLabel.ExecContext(ctx, id, k, v); err != nil {
			return fmt.Errorf("save %s: label %s: %w", rec.Name, k, err)
		}
	}

	s.logger.DebugContext(ctx, "saved composition", "name", rec.Name, "id", id, "symbol", rec.Symbol)
	return nil
}

// Get returns the composition named name.
func (s *sqliteStore) Get(ctx context.Context, name string) (store.Record, error) {
	row := s.stmtGet.QueryRowContext(ctx, name)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, store.ErrNotFound{Name: name}
	}
	if err != nil {
		return store.Record{}, fmt.Errorf("get %s: %w", name, err)
	}
	if rec.Labels, err = s.labels(ctx, rec.ID); err != nil {
		return store.Record{}, err
	}
	return rec, nil
}

// List returns all compositions ordered by name.
func (s *sqliteStore) List(ctx context.Context) ([]store.Record, error) {
	rows, err := s.stmtList.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return s.collect(ctx, rows)
}

// FindByLabel returns compositions labelled key=value.
func (s *sqliteStore) FindByLabel(ctx context.Context, key, value string) ([]store.Record, error) {
	rows, err := s.stmtFindByLabel.QueryContext(ctx, key, value)
	if err != nil {
		return nil, fmt.Errorf("find %s=%s: %w", key, value, err)
	}
	return s.collect(ctx, rows)
}

// Delete removes the composition named name. Labels go with it.
func (s *sqliteStore) Delete(ctx context.Context, name string) error {
	res, err := s.stmtDelete.ExecContext(ctx, name)
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if n == 0 {
		return store.ErrNotFound{Name: name}
	}
	s.logger.DebugContext(ctx, "deleted composition", "name", name)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (store.Record, error) {
	var (
		rec       store.Record
		id        string
		createdAt string
	)
	if err := row.Scan(&id, &rec.Name, &rec.Symbol, &rec.Kind, &rec.Wire, &rec.Text, &createdAt); err != nil {
		return store.Record{}, err
	}

	var err error
	if rec.ID, err = uuid.Parse(id); err != nil {
		return store.Record{}, fmt.Errorf("corrupt id %q: %w", id, err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return store.Record{}, fmt.Errorf("corrupt created_at %q: %w", createdAt, err)
	}
	return rec, nil
}

// collect drains rows before loading labels: the in-memory store runs
// on a single connection, which an open cursor would hold.
func (s *sqliteStore) collect(ctx context.Context, rows *sql.Rows) ([]store.Record, error) {
	var out []store.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		labels, err := s.labels(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Labels = labels
	}
	return out, nil
}

func (s *sqliteStore) labels(ctx context.Context, id uuid.UUID) (map[string]string, error) {
	rows, err := s.stmtGetLabels.QueryContext(ctx, id.String())
	if err != nil {
		return nil, fmt.Errorf("labels %s: %w", id, err)
	}
	defer rows.Close()

	var labels map[string]string
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("labels %s: %w", id, err)
		}
		if labels == nil {
			labels = make(map[string]string)
		}
		labels[k] = v
	}
	return labels, rows.Err()
}
