// Package ports defines the persistence interfaces consumed by the
// relation core. Implementations live under internal/infrastructure.
package ports

import (
	"context"

	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/entities"
)

// PIDStore is the external identifier store the relation core resolves
// fetched PID references against. The host system provides the real
// implementation; the sqlite adapter ships a reference one because the
// relation queries join against the same pids table for status filtering.
type PIDStore interface {
	// Create registers a new persistent identifier.
	Create(ctx context.Context, pidType, pidValue, provider string, status entities.PIDStatus) (*entities.PID, error)

	// Get retrieves a PID by its stable numeric identity.
	// Returns PIDNotFoundError if no such PID exists.
	Get(ctx context.Context, id int64) (*entities.PID, error)

	// Resolve looks up a PID by its identifying triple.
	// Returns PIDNotFoundError if no matching identifier exists.
	Resolve(ctx context.Context, pidType, pidValue, provider string) (*entities.PID, error)

	// SetStatus updates the lifecycle status of a PID.
	// Returns PIDNotFoundError if no such PID exists.
	SetStatus(ctx context.Context, id int64, status entities.PIDStatus) error
}
