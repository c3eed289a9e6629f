// Package services implements the relation node API on top of the
// persistence ports.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/entities"
	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/ports"
)

// Node is a view of one PID in the relation graph under a single relation
// type. It exposes lazy queries over the node's parents and children and
// transactional mutations of the unordered edges. A Node is not safe for
// concurrent use; create one per goroutine.
type Node struct {
	relType   entities.RelationType
	ref       entities.PIDRef
	relations ports.RelationStore
	pids      ports.PIDStore

	maxChildren int // 0 means unlimited
	maxParents  int // 0 means unlimited

	resolved *entities.PID // memoized resolution of ref
}

// NodeOption configures optional cardinality limits on a Node.
type NodeOption func(*Node)

// WithMaxChildren caps how many children the node may have.
func WithMaxChildren(n int) NodeOption {
	return func(node *Node) {
		node.maxChildren = n
	}
}

// WithMaxParents caps how many parents any child of the node may have.
// With a cap of 1 the relation type forms a forest.
func WithMaxParents(n int) NodeOption {
	return func(node *Node) {
		node.maxParents = n
	}
}

// NewNode creates a node for the given PID reference and relation type.
// A fetched reference is resolved lazily, on the first operation that
// needs the stored record.
func NewNode(relType entities.RelationType, ref entities.PIDRef, relations ports.RelationStore, pids ports.PIDStore, opts ...NodeOption) *Node {
	node := &Node{
		relType:   relType,
		ref:       ref,
		relations: relations,
		pids:      pids,
	}
	for _, opt := range opts {
		opt(node)
	}
	return node
}

// RelationType returns the relation type the node operates under.
func (n *Node) RelationType() entities.RelationType {
	return n.relType
}

// ResolvedPID returns the stored record for the node's reference, resolving
// it through the PID store at most once. Returns PIDNotFoundError when a
// fetched reference does not match any stored identifier.
func (n *Node) ResolvedPID(ctx context.Context) (*entities.PID, error) {
	if n.resolved != nil {
		return n.resolved, nil
	}
	pid, err := n.resolveRef(ctx, n.ref)
	if err != nil {
		return nil, err
	}
	n.resolved = pid
	return pid, nil
}

// resolveRef returns the stored record behind a reference, hitting the PID
// store only for fetched references.
func (n *Node) resolveRef(ctx context.Context, ref entities.PIDRef) (*entities.PID, error) {
	if ref.IsResolved() {
		return ref.PID(), nil
	}
	pid, err := n.pids.Resolve(ctx, ref.PIDType(), ref.PIDValue(), ref.Provider())
	if err != nil {
		return nil, fmt.Errorf("resolving pid reference: %w", err)
	}
	return pid, nil
}

// queryRef returns the sharpest reference available for building queries.
func (n *Node) queryRef() entities.PIDRef {
	if n.resolved != nil {
		return entities.Resolved(n.resolved)
	}
	return n.ref
}

// Children returns a lazy query over the node's children.
func (n *Node) Children() ports.PIDQuery {
	return n.relations.ConnectedPIDs(n.queryRef(), n.relType.ID, true)
}

// Parents returns a lazy query over the node's parents.
func (n *Node) Parents() ports.PIDQuery {
	return n.relations.ConnectedPIDs(n.queryRef(), n.relType.ID, false)
}

// IsParent reports whether the node has at least one child.
func (n *Node) IsParent(ctx context.Context) (bool, error) {
	return n.Children().Exists(ctx)
}

// IsChild reports whether the node has at least one parent.
func (n *Node) IsChild(ctx context.Context) (bool, error) {
	return n.Parents().Exists(ctx)
}

// InsertChild adds an unordered edge from the node to child. The whole
// operation, including cardinality checks, runs in one transaction.
func (n *Node) InsertChild(ctx context.Context, child entities.PIDRef) error {
	return n.relations.InTransaction(ctx, func(tx ports.RelationStore) error {
		_, err := n.insertChild(ctx, tx, child, nil)
		return err
	})
}

// RemoveChild removes the edge from the node to child.
func (n *Node) RemoveChild(ctx context.Context, child entities.PIDRef) error {
	return n.relations.InTransaction(ctx, func(tx ports.RelationStore) error {
		_, err := n.removeChild(ctx, tx, child)
		return err
	})
}

// insertChild creates the edge inside an open transaction. References are
// resolved before any write, so a resolution failure leaves no trace.
func (n *Node) insertChild(ctx context.Context, tx ports.RelationStore, child entities.PIDRef, index *int) (*entities.Relation, error) {
	parent, err := n.ResolvedPID(ctx)
	if err != nil {
		return nil, err
	}
	childPID, err := n.resolveRef(ctx, child)
	if err != nil {
		return nil, err
	}

	if err := n.checkChildLimits(ctx, tx, childPID); err != nil {
		return nil, err
	}

	rel, err := tx.CreateRelation(ctx, parent.ID, childPID.ID, n.relType.ID, index)
	var dup *entities.DuplicateRelationError
	if errors.As(err, &dup) {
		return nil, &entities.ConsistencyError{
			Reason: fmt.Sprintf("pid %s:%s is already a child", childPID.PIDType, childPID.PIDValue),
			Err:    err,
		}
	}
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// removeChild deletes the edge inside an open transaction and returns the
// removed edge so ordered callers can compact the survivors.
func (n *Node) removeChild(ctx context.Context, tx ports.RelationStore, child entities.PIDRef) (*entities.Relation, error) {
	parent, err := n.ResolvedPID(ctx)
	if err != nil {
		return nil, err
	}
	childPID, err := n.resolveRef(ctx, child)
	if err != nil {
		return nil, err
	}

	rel, err := tx.GetRelation(ctx, parent.ID, childPID.ID, n.relType.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.DeleteRelation(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// checkChildLimits enforces the configured cardinality caps before an
// insert. Checks run on the transaction's view of the store.
func (n *Node) checkChildLimits(ctx context.Context, tx ports.RelationStore, child *entities.PID) error {
	if n.maxChildren > 0 {
		count, err := tx.ConnectedPIDs(n.queryRef(), n.relType.ID, true).Count(ctx)
		if err != nil {
			return err
		}
		if count >= n.maxChildren {
			return &entities.ConsistencyError{
				Reason: fmt.Sprintf("maximum number of children is set to %d", n.maxChildren),
			}
		}
	}
	if n.maxParents > 0 {
		count, err := tx.CountParents(ctx, child.ID, n.relType.ID)
		if err != nil {
			return err
		}
		if count >= n.maxParents {
			return &entities.ConsistencyError{
				Reason: fmt.Sprintf("pid %s:%s already has the maximum number of parents (%d)", child.PIDType, child.PIDValue, n.maxParents),
			}
		}
	}
	return nil
}
