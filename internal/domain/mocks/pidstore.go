// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"time"

	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/entities"
	"github.com/JakobMiesner/invenio-pidrelations/internal/domain/ports"
)

// PIDStore is an in-memory mock implementation of ports.PIDStore.
type PIDStore struct {
	PIDs   map[int64]*entities.PID
	Err    error
	nextID int64

	// Call tracking
	ResolveCallCount int
	GetCallCount     int
}

var _ ports.PIDStore = (*PIDStore)(nil)

// NewPIDStore creates an empty mock PID store.
func NewPIDStore() *PIDStore {
	return &PIDStore{PIDs: map[int64]*entities.PID{}}
}

// Create stores a new PID in memory.
func (m *PIDStore) Create(ctx context.Context, pidType, pidValue, provider string, status entities.PIDStatus) (*entities.PID, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.nextID++
	now := time.Now()
	pid := &entities.PID{
		ID:        m.nextID,
		PIDType:   pidType,
		PIDValue:  pidValue,
		Provider:  provider,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.PIDs[pid.ID] = pid
	return pid, nil
}

// Get returns the stored PID or PIDNotFoundError.
func (m *PIDStore) Get(ctx context.Context, id int64) (*entities.PID, error) {
	m.GetCallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	pid, ok := m.PIDs[id]
	if !ok {
		return nil, &entities.PIDNotFoundError{ID: id}
	}
	return pid, nil
}

// Resolve looks the PID up by type, value and optional provider.
func (m *PIDStore) Resolve(ctx context.Context, pidType, pidValue, provider string) (*entities.PID, error) {
	m.ResolveCallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	for _, pid := range m.PIDs {
		if pid.PIDType == pidType && pid.PIDValue == pidValue && (provider == "" || pid.Provider == provider) {
			return pid, nil
		}
	}
	return nil, &entities.PIDNotFoundError{PIDType: pidType, PIDValue: pidValue, Provider: provider}
}

// SetStatus updates the stored PID's status.
func (m *PIDStore) SetStatus(ctx context.Context, id int64, status entities.PIDStatus) error {
	if m.Err != nil {
		return m.Err
	}
	pid, ok := m.PIDs[id]
	if !ok {
		return &entities.PIDNotFoundError{ID: id}
	}
	pid.Status = status
	pid.UpdatedAt = time.Now()
	return nil
}
