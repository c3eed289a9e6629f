// Package sqlite provides the SQLite implementation of the PIDStore and
// RelationStore interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/entities"
	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/ports"
	"github.com/JakobMiesner/invenio-pidrelations/internal/infrastructure/config"
)

// generateUUID returns a new UUID string.
func generateUUID() string {
	return uuid.New().String()
}

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository implements ports.PIDStore and ports.RelationStore using SQLite.
// A transaction-scoped Repository (as passed to InTransaction callbacks)
// shares the connection of its parent and routes statements through the
// open transaction.
type Repository struct {
	db     *sql.DB
	q      dbtx
	tx     *sql.Tx // non-nil for transaction-scoped repositories
	depth  int     // savepoint nesting depth
	path   string
	logger *slog.Logger
}

// Ensure Repository implements the persistence ports.
var (
	_ ports.PIDStore      = (*Repository)(nil)
	_ ports.RelationStore = (*Repository)(nil)
)

// NewRepository creates a new SQLite repository. A nil logger disables
// logging.
func NewRepository(cfg config.SQLiteConfig, logger *slog.Logger) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:     db,
		q:      db,
		path:   cfg.Path,
		logger: logger,
	}, nil
}

// Close closes the database connection. Closing a transaction-scoped
// repository is a no-op; the root repository owns the connection.
func (r *Repository) Close() error {
	if r.tx != nil {
		return nil
	}
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
//
// The UNIQUE constraint on (parent_id, child_id, relation_type) is the
// storage-layer guarantee behind DuplicateRelationError: concurrent inserts
// of the same triple fail loudly instead of racing in memory.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Persistent identifiers (the external PID store's table; relation
	-- queries join against it for status filtering and fetched-reference
	-- resolution)
	CREATE TABLE IF NOT EXISTS pids (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pid_type TEXT NOT NULL,
		pid_value TEXT NOT NULL,
		provider TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'new',
		object_uuid TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE(pid_type, pid_value)
	);
	CREATE INDEX IF NOT EXISTS idx_pids_status ON pids(status);

	-- Relation edges. idx is NULL for unordered edges; ordered siblings
	-- under one (parent_id, relation_type) carry a dense zero-based idx.
	CREATE TABLE IF NOT EXISTS pid_relations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		parent_id INTEGER NOT NULL REFERENCES pids(id),
		child_id INTEGER NOT NULL REFERENCES pids(id),
		relation_type INTEGER NOT NULL,
		idx INTEGER,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE(parent_id, child_id, relation_type)
	);
	CREATE INDEX IF NOT EXISTS idx_pid_relations_parent ON pid_relations(parent_id, relation_type);
	CREATE INDEX IF NOT EXISTS idx_pid_relations_child ON pid_relations(child_id, relation_type);
	`
	if _, err := r.q.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	r.logger.DebugContext(ctx, "schema ensured", "path", r.path)
	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint error.
func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	return errors.As(err, &serr) && serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// PID store operations

// Create registers a new persistent identifier.
func (r *Repository) Create(ctx context.Context, pidType, pidValue, provider string, status entities.PIDStatus) (*entities.PID, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid pid status: %s", status)
	}

	now := timeNow()
	pid := &entities.PID{
		PIDType:    pidType,
		PIDValue:   pidValue,
		Provider:   provider,
		Status:     status,
		ObjectUUID: generateUUID(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	query := `
		INSERT INTO pids (pid_type, pid_value, provider, status, object_uuid, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.q.ExecContext(ctx, query,
		pid.PIDType, pid.PIDValue, pid.Provider, string(pid.Status), pid.ObjectUUID, pid.CreatedAt, pid.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("pid already exists: %s:%s", pidType, pidValue)
	}
	if err != nil {
		return nil, fmt.Errorf("inserting pid: %w", err)
	}

	pid.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting pid id: %w", err)
	}
	return pid, nil
}

const pidColumns = `id, pid_type, pid_value, provider, status, object_uuid, created_at, updated_at`

// scanPID scans a row into a PID.
func scanPID(scanner interface{ Scan(...any) error }) (*entities.PID, error) {
	var pid entities.PID
	var status string
	err := scanner.Scan(
		&pid.ID, &pid.PIDType, &pid.PIDValue, &pid.Provider,
		&status, &pid.ObjectUUID, &pid.CreatedAt, &pid.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	pid.Status = entities.PIDStatus(status)
	return &pid, nil
}

// Get retrieves a PID by its stable numeric identity.
func (r *Repository) Get(ctx context.Context, id int64) (*entities.PID, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+pidColumns+` FROM pids WHERE id = ?`, id)
	pid, err := scanPID(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &entities.PIDNotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("scanning pid: %w", err)
	}
	return pid, nil
}

// Resolve looks up a PID by its identifying triple. The provider narrows
// the lookup only when set, since fetched references may omit it.
func (r *Repository) Resolve(ctx context.Context, pidType, pidValue, provider string) (*entities.PID, error) {
	query := `SELECT ` + pidColumns + ` FROM pids WHERE pid_type = ? AND pid_value = ?`
	args := []any{pidType, pidValue}
	if provider != "" {
		query += ` AND provider = ?`
		args = append(args, provider)
	}

	row := r.q.QueryRowContext(ctx, query, args...)
	pid, err := scanPID(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &entities.PIDNotFoundError{PIDType: pidType, PIDValue: pidValue, Provider: provider}
	}
	if err != nil {
		return nil, fmt.Errorf("scanning pid: %w", err)
	}
	return pid, nil
}

// SetStatus updates the lifecycle status of a PID.
func (r *Repository) SetStatus(ctx context.Context, id int64, status entities.PIDStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid pid status: %s", status)
	}

	result, err := r.q.ExecContext(ctx,
		`UPDATE pids SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), timeNow(), id,
	)
	if err != nil {
		return fmt.Errorf("updating pid status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return &entities.PIDNotFoundError{ID: id}
	}
	return nil
}

// Relation store operations

const relationColumns = `id, parent_id, child_id, relation_type, idx, created_at, updated_at`

// scanRelation scans a row into a Relation.
func scanRelation(scanner interface{ Scan(...any) error }) (*entities.Relation, error) {
	var rel entities.Relation
	var idx sql.NullInt64
	err := scanner.Scan(
		&rel.ID, &rel.ParentID, &rel.ChildID, &rel.Type,
		&idx, &rel.CreatedAt, &rel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if idx.Valid {
		i := int(idx.Int64)
		rel.Index = &i
	}
	return &rel, nil
}

// CreateRelation inserts a new edge. Returns DuplicateRelationError when an
// edge for the same (parent, child, relation type) triple already exists.
func (r *Repository) CreateRelation(ctx context.Context, parentID, childID int64, relationType int, index *int) (*entities.Relation, error) {
	now := timeNow()
	rel := &entities.Relation{
		ParentID:  parentID,
		ChildID:   childID,
		Type:      relationType,
		Index:     index,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO pid_relations (parent_id, child_id, relation_type, idx, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := r.q.ExecContext(ctx, query,
		rel.ParentID, rel.ChildID, rel.Type, indexValue(rel.Index), rel.CreatedAt, rel.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return nil, &entities.DuplicateRelationError{ParentID: parentID, ChildID: childID, Type: relationType}
	}
	if err != nil {
		return nil, fmt.Errorf("inserting relation: %w", err)
	}

	rel.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting relation id: %w", err)
	}
	r.logger.DebugContext(ctx, "relation created",
		"parent", parentID, "child", childID, "type", relationType)
	return rel, nil
}

// indexValue converts an optional index to a driver value.
func indexValue(index *int) any {
	if index == nil {
		return nil
	}
	return *index
}

// DeleteRelation removes an edge by identity.
func (r *Repository) DeleteRelation(ctx context.Context, rel *entities.Relation) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM pid_relations WHERE id = ?`, rel.ID)
	if err != nil {
		return fmt.Errorf("deleting relation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return &entities.RelationNotFoundError{ParentID: rel.ParentID, ChildID: rel.ChildID, Type: rel.Type}
	}
	return nil
}

// GetRelation retrieves the single edge for a triple.
func (r *Repository) GetRelation(ctx context.Context, parentID, childID int64, relationType int) (*entities.Relation, error) {
	query := `
		SELECT ` + relationColumns + ` FROM pid_relations
		WHERE parent_id = ? AND child_id = ? AND relation_type = ?
		LIMIT 2
	`
	rows, err := r.q.QueryContext(ctx, query, parentID, childID, relationType)
	if err != nil {
		return nil, fmt.Errorf("querying relation: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rel *entities.Relation
	for rows.Next() {
		if rel != nil {
			return nil, entities.ErrMultipleResults
		}
		rel, err = scanRelation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning relation: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relation rows: %w", err)
	}
	if rel == nil {
		return nil, &entities.RelationNotFoundError{ParentID: parentID, ChildID: childID, Type: relationType}
	}
	return rel, nil
}

// ChildRelations returns all edges under a parent and relation type, ordered
// by index. Unordered edges (NULL idx) sort first.
func (r *Repository) ChildRelations(ctx context.Context, parentID int64, relationType int) ([]*entities.Relation, error) {
	query := `
		SELECT ` + relationColumns + ` FROM pid_relations
		WHERE parent_id = ? AND relation_type = ?
		ORDER BY idx
	`
	rows, err := r.q.QueryContext(ctx, query, parentID, relationType)
	if err != nil {
		return nil, fmt.Errorf("querying child relations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rels []*entities.Relation
	for rows.Next() {
		rel, err := scanRelation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning relation: %w", err)
		}
		rels = append(rels, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relation rows: %w", err)
	}
	return rels, nil
}

// CountParents returns the number of parents a child has under a relation type.
func (r *Repository) CountParents(ctx context.Context, childID int64, relationType int) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pid_relations WHERE child_id = ? AND relation_type = ?`,
		childID, relationType,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting parents: %w", err)
	}
	return count, nil
}

// SetRelationIndex updates the order index of an edge.
func (r *Repository) SetRelationIndex(ctx context.Context, id int64, index *int) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE pid_relations SET idx = ?, updated_at = ? WHERE id = ?`,
		indexValue(index), timeNow(), id,
	)
	if err != nil {
		return fmt.Errorf("updating relation index: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return &entities.RelationNotFoundError{}
	}
	return nil
}

// InTransaction runs fn against a transaction-scoped Repository. On a
// transaction-scoped receiver it opens a savepoint instead, so mutation
// helpers compose into one atomic unit.
func (r *Repository) InTransaction(ctx context.Context, fn func(ports.RelationStore) error) error {
	if r.tx != nil {
		return r.inSavepoint(ctx, fn)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	scoped := &Repository{db: r.db, q: tx, tx: tx, path: r.path, logger: r.logger}
	if err := fn(scoped); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// inSavepoint nests an atomic scope inside the already-open transaction.
func (r *Repository) inSavepoint(ctx context.Context, fn func(ports.RelationStore) error) error {
	name := fmt.Sprintf("pidrel_sp_%d", r.depth+1)
	if _, err := r.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("creating savepoint: %w", err)
	}

	scoped := &Repository{db: r.db, q: r.tx, tx: r.tx, depth: r.depth + 1, path: r.path, logger: r.logger}
	if err := fn(scoped); err != nil {
		if _, rbErr := r.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return fmt.Errorf("rolling back savepoint after %w: %v", err, rbErr)
		}
		return err
	}
	if _, err := r.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("releasing savepoint: %w", err)
	}
	return nil
}
