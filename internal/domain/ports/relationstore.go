package ports

import (
	"context"

	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/entities"
)

// RelationStore is the durable store for relation edges. Uniqueness of
// (parent, child, relation type) is enforced by the storage schema, not
// application logic, so concurrent duplicate inserts surface as
// DuplicateRelationError instead of corrupting data.
type RelationStore interface {
	// EnsureSchema creates the storage schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the underlying connection.
	Close() error

	// CreateRelation inserts a new edge. Returns DuplicateRelationError when
	// an edge for the same triple already exists.
	CreateRelation(ctx context.Context, parentID, childID int64, relationType int, index *int) (*entities.Relation, error)

	// DeleteRelation removes an edge by identity.
	// Returns RelationNotFoundError if no such edge exists.
	DeleteRelation(ctx context.Context, rel *entities.Relation) error

	// GetRelation retrieves the single edge for a triple. Returns
	// RelationNotFoundError when absent and entities.ErrMultipleResults when
	// the uniqueness invariant has been violated upstream.
	GetRelation(ctx context.Context, parentID, childID int64, relationType int) (*entities.Relation, error)

	// ChildRelations returns all edges under a parent and relation type,
	// ordered by index (unordered edges first).
	ChildRelations(ctx context.Context, parentID int64, relationType int) ([]*entities.Relation, error)

	// CountParents returns the number of parents a child has under a
	// relation type.
	CountParents(ctx context.Context, childID int64, relationType int) (int, error)

	// SetRelationIndex updates the order index of an edge. A nil index marks
	// the edge unordered.
	SetRelationIndex(ctx context.Context, id int64, index *int) error

	// ConnectedPIDs builds a lazy query over the PIDs connected to the given
	// reference under a relation type. With fromParent true it yields the
	// children of the reference, otherwise its parents. Resolved references
	// filter by stored id; fetched references join the PID store by type and
	// value, since edges do not retain the fetched representation.
	ConnectedPIDs(pid entities.PIDRef, relationType int, fromParent bool) PIDQuery

	// InTransaction runs fn against a transaction-scoped store. All writes
	// commit together on a nil return and roll back together otherwise.
	// Nested calls open a savepoint within the enclosing transaction.
	InTransaction(ctx context.Context, fn func(RelationStore) error) error
}
