package entities

import (
	"errors"
	"fmt"
)

// ErrNoResults is returned by unique-result queries that matched no rows.
var ErrNoResults = errors.New("no results found")

// ErrMultipleResults is returned by unique-result queries that matched more
// than one row. It indicates a data-integrity problem upstream and is always
// surfaced, never swallowed.
var ErrMultipleResults = errors.New("multiple results found")

// ErrInvalidOrder is returned when an order direction is not "asc" or "desc".
var ErrInvalidOrder = errors.New(`order must be "asc" or "desc"`)

// PIDNotFoundError is returned when a PID cannot be found in the PID store,
// either by its numeric identity or by its (type, value, provider) triple.
type PIDNotFoundError struct {
	ID       int64
	PIDType  string
	PIDValue string
	Provider string
}

func (e *PIDNotFoundError) Error() string {
	if e.PIDType == "" && e.PIDValue == "" {
		return fmt.Sprintf("pid not found: id=%d", e.ID)
	}
	if e.Provider != "" {
		return fmt.Sprintf("pid not found: %s:%s (provider %s)", e.PIDType, e.PIDValue, e.Provider)
	}
	return fmt.Sprintf("pid not found: %s:%s", e.PIDType, e.PIDValue)
}

// RelationNotFoundError is returned when no edge exists for the requested
// (parent, child, relation type) triple.
type RelationNotFoundError struct {
	ParentID int64
	ChildID  int64
	Type     int
}

func (e *RelationNotFoundError) Error() string {
	return fmt.Sprintf("relation not found: parent=%d child=%d type=%d", e.ParentID, e.ChildID, e.Type)
}

// DuplicateRelationError is returned by the relation store when the
// storage-layer uniqueness constraint on (parent, child, relation type)
// rejects an insert.
type DuplicateRelationError struct {
	ParentID int64
	ChildID  int64
	Type     int
}

func (e *DuplicateRelationError) Error() string {
	return fmt.Sprintf("relation already exists: parent=%d child=%d type=%d", e.ParentID, e.ChildID, e.Type)
}

// ConsistencyError is returned by the node API when a mutation would
// violate a cardinality limit or create a duplicate edge. It wraps the
// underlying cause when there is one.
type ConsistencyError struct {
	Reason string
	Err    error
}

func (e *ConsistencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("relation consistency violation: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("relation consistency violation: %s", e.Reason)
}

func (e *ConsistencyError) Unwrap() error {
	return e.Err
}
