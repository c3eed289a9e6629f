package services

import (
	"context"
	"fmt"

	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/entities"
	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/ports"
)

// OrderedNode extends Node with position-aware operations for ordered
// relation types. The ordered children of a parent carry a dense zero-based
// index sequence; every mutation rewrites the sequence inside the mutating
// transaction, so no committed state ever has a gap.
type OrderedNode struct {
	*Node
}

// NewOrderedNode creates an ordered node. The relation type must be
// configured as ordered.
func NewOrderedNode(relType entities.RelationType, ref entities.PIDRef, relations ports.RelationStore, pids ports.PIDStore, opts ...NodeOption) (*OrderedNode, error) {
	if !relType.Ordered {
		return nil, fmt.Errorf("relation type %q is not ordered", relType.Name)
	}
	return &OrderedNode{Node: NewNode(relType, ref, relations, pids, opts...)}, nil
}

// Index returns the order index of the edge from the node to child, or nil
// when the edge carries no index. Returns RelationNotFoundError when no
// such edge exists.
func (n *OrderedNode) Index(ctx context.Context, child entities.PIDRef) (*int, error) {
	parent, err := n.ResolvedPID(ctx)
	if err != nil {
		return nil, err
	}
	childPID, err := n.resolveRef(ctx, child)
	if err != nil {
		return nil, err
	}
	rel, err := n.relations.GetRelation(ctx, parent.ID, childPID.ID, n.relType.ID)
	if err != nil {
		return nil, err
	}
	return rel.Index, nil
}

// LastChild returns the child at the highest index, or nil when the node
// has no indexed children.
func (n *OrderedNode) LastChild(ctx context.Context) (*entities.PID, error) {
	q, err := n.Children().WithIndex().Ordered(ports.OrderDesc)
	if err != nil {
		return nil, err
	}
	return q.First(ctx)
}

// IsLastChild reports whether child sits at the highest index.
func (n *OrderedNode) IsLastChild(ctx context.Context, child entities.PIDRef) (bool, error) {
	last, err := n.LastChild(ctx)
	if err != nil {
		return false, err
	}
	if last == nil {
		return false, nil
	}
	childPID, err := n.resolveRef(ctx, child)
	if err != nil {
		return false, err
	}
	return last.ID == childPID.ID, nil
}

// NextChild returns the child following child in index order, or nil when
// child is last or carries no index.
func (n *OrderedNode) NextChild(ctx context.Context, child entities.PIDRef) (*entities.PID, error) {
	idx, err := n.Index(ctx, child)
	if err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, nil
	}
	q, err := n.Children().WithIndex().IndexGreaterThan(*idx).Ordered(ports.OrderAsc)
	if err != nil {
		return nil, err
	}
	return q.First(ctx)
}

// PreviousChild returns the child preceding child in index order, or nil
// when child is first or carries no index.
func (n *OrderedNode) PreviousChild(ctx context.Context, child entities.PIDRef) (*entities.PID, error) {
	idx, err := n.Index(ctx, child)
	if err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, nil
	}
	q, err := n.Children().WithIndex().IndexLessThan(*idx).Ordered(ports.OrderDesc)
	if err != nil {
		return nil, err
	}
	return q.First(ctx)
}

// InsertChild adds child at the given position. A negative or out-of-range
// index appends. All siblings are reindexed to a dense zero-based sequence
// in the same transaction as the insert.
func (n *OrderedNode) InsertChild(ctx context.Context, child entities.PIDRef, index int) error {
	return n.relations.InTransaction(ctx, func(tx ports.RelationStore) error {
		created, err := n.insertChild(ctx, tx, child, nil)
		if err != nil {
			return err
		}

		siblings, err := tx.ChildRelations(ctx, created.ParentID, n.relType.ID)
		if err != nil {
			return err
		}

		// Splice the new edge into position among the existing siblings,
		// which ChildRelations already yields in index order.
		ordered := make([]*entities.Relation, 0, len(siblings))
		for _, rel := range siblings {
			if rel.ID != created.ID {
				ordered = append(ordered, rel)
			}
		}
		if index < 0 || index >= len(ordered) {
			ordered = append(ordered, created)
		} else {
			ordered = append(ordered, nil)
			copy(ordered[index+1:], ordered[index:])
			ordered[index] = created
		}

		return n.reindex(ctx, tx, ordered)
	})
}

// RemoveChild removes child. With reorder set, the surviving siblings are
// compacted back to a dense sequence; without it the removed position stays
// vacant until the next reordering mutation.
func (n *OrderedNode) RemoveChild(ctx context.Context, child entities.PIDRef, reorder bool) error {
	return n.relations.InTransaction(ctx, func(tx ports.RelationStore) error {
		removed, err := n.removeChild(ctx, tx, child)
		if err != nil {
			return err
		}
		if !reorder {
			return nil
		}

		siblings, err := tx.ChildRelations(ctx, removed.ParentID, n.relType.ID)
		if err != nil {
			return err
		}
		return n.reindex(ctx, tx, siblings)
	})
}

// reindex rewrites the index of every edge to its position in rels.
func (n *OrderedNode) reindex(ctx context.Context, tx ports.RelationStore, rels []*entities.Relation) error {
	for i, rel := range rels {
		idx := i
		if err := tx.SetRelationIndex(ctx, rel.ID, &idx); err != nil {
			return err
		}
	}
	return nil
}
