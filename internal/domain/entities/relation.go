package entities

import "time"

// RelationType defines a configured category of PID relation.
// The set of relation types is closed and supplied by configuration;
// the core consumes only the numeric ID and the ordered flag.
type RelationType struct {
	ID      int    `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
	Ordered bool   `json:"ordered" yaml:"ordered"`
}

// Relation is a directed, typed edge between two persistent identifiers.
// The triple (ParentID, ChildID, Type) is unique across the store.
// Index is nil for unordered edges; among the ordered children of one
// parent the non-nil indexes form a dense zero-based sequence.
type Relation struct {
	ID        int64     `json:"id"`
	ParentID  int64     `json:"parent_id"`
	ChildID   int64     `json:"child_id"`
	Type      int       `json:"relation_type"`
	Index     *int      `json:"index,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
