package ports

import (
	"context"

	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/entities"
)

// Order is a sort direction for ordered relation queries.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// IsValid returns true if the order is one of the two recognized directions.
func (o Order) IsValid() bool {
	return o == OrderAsc || o == OrderDesc
}

// PIDQuery is a lazily-evaluated query over the PIDs connected to one node
// under one relation type. Modifiers return a new query value, never mutate
// the receiver, so intermediate queries can be branched and reused. Nothing
// touches the store until a terminal method runs.
type PIDQuery interface {
	// Ordered appends an ordering clause on the relation index.
	// Fails with entities.ErrInvalidOrder for an unrecognized direction.
	Ordered(ord Order) (PIDQuery, error)

	// Status restricts results to endpoint PIDs whose status is one of the
	// given values.
	Status(statuses ...entities.PIDStatus) PIDQuery

	// WithIndex restricts results to edges that carry an order index.
	WithIndex() PIDQuery

	// IndexGreaterThan restricts results to edges with an index above the
	// given position.
	IndexGreaterThan(index int) PIDQuery

	// IndexLessThan restricts results to edges with an index below the
	// given position.
	IndexLessThan(index int) PIDQuery

	// Count evaluates the query and returns the number of results.
	Count(ctx context.Context) (int, error)

	// First evaluates the query and returns the first result, or nil when
	// there are no results.
	First(ctx context.Context) (*entities.PID, error)

	// One evaluates the query and returns exactly one result. It fails with
	// entities.ErrNoResults or entities.ErrMultipleResults otherwise.
	One(ctx context.Context) (*entities.PID, error)

	// OneOrNone evaluates the query and returns at most one result, nil when
	// there are none, entities.ErrMultipleResults when there are several.
	OneOrNone(ctx context.Context) (*entities.PID, error)

	// All evaluates the query and returns the full result sequence.
	All(ctx context.Context) ([]*entities.PID, error)

	// Exists reports whether the query has at least one result.
	Exists(ctx context.Context) (bool, error)
}
