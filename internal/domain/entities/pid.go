// Package entities provides the pure domain layer for PID relations with no
// infrastructure dependencies.
package entities

import "time"

// PIDStatus represents the lifecycle status of a persistent identifier.
type PIDStatus string

const (
	// PIDStatusNew indicates the PID has been created but not reserved.
	PIDStatusNew PIDStatus = "new"

	// PIDStatusReserved indicates the PID is reserved and not yet public.
	PIDStatusReserved PIDStatus = "reserved"

	// PIDStatusRegistered indicates the PID is registered and resolvable.
	PIDStatusRegistered PIDStatus = "registered"

	// PIDStatusRedirected indicates the PID points at another PID.
	PIDStatusRedirected PIDStatus = "redirected"

	// PIDStatusDeleted indicates the PID has been retracted.
	PIDStatusDeleted PIDStatus = "deleted"
)

// String returns the string representation of the status.
func (s PIDStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized PID status.
func (s PIDStatus) IsValid() bool {
	switch s {
	case PIDStatusNew, PIDStatusReserved, PIDStatusRegistered, PIDStatusRedirected, PIDStatusDeleted:
		return true
	default:
		return false
	}
}

// PID is a persistent identifier record owned by the PID store.
// The relation core holds only references (IDs) to PIDs; it never
// creates or mutates them except through the PIDStore port.
type PID struct {
	ID         int64     `json:"id"`
	PIDType    string    `json:"pid_type"`
	PIDValue   string    `json:"pid_value"`
	Provider   string    `json:"provider,omitempty"`
	Status     PIDStatus `json:"status"`
	ObjectUUID string    `json:"object_uuid"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PIDRef is a reference to a persistent identifier. It is either resolved
// (carries the stored record) or fetched (carries only type, value and
// provider, and must be looked up in the PID store before use).
type PIDRef struct {
	pid      *PID
	pidType  string
	pidValue string
	provider string
}

// Resolved wraps an already-persisted PID record.
func Resolved(pid *PID) PIDRef {
	return PIDRef{
		pid:      pid,
		pidType:  pid.PIDType,
		pidValue: pid.PIDValue,
		provider: pid.Provider,
	}
}

// Fetched builds an unresolved reference from its identifying triple.
func Fetched(pidType, pidValue, provider string) PIDRef {
	return PIDRef{
		pidType:  pidType,
		pidValue: pidValue,
		provider: provider,
	}
}

// IsResolved reports whether the reference carries a stored record.
func (r PIDRef) IsResolved() bool {
	return r.pid != nil
}

// PID returns the stored record, or nil for a fetched reference.
func (r PIDRef) PID() *PID {
	return r.pid
}

// PIDType returns the identifier scheme, e.g. "doi".
func (r PIDRef) PIDType() string {
	return r.pidType
}

// PIDValue returns the identifier value within its scheme.
func (r PIDRef) PIDValue() string {
	return r.pidValue
}

// Provider returns the provider name, empty when unknown.
func (r PIDRef) Provider() string {
	return r.provider
}
