package patientflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemRepo is the in-memory Repository. All data is process-lifetime only;
// records live in a map keyed by id with a separate slice preserving
// arrival order. Reads return deep copies and every mutation runs as a
// read-modify-write under the write lock (UpdateFunc), so concurrent
// operations on the same patient cannot lose updates.
type MemRepo struct {
	mu       sync.RWMutex
	patients map[uuid.UUID]*Patient
	order    []uuid.UUID // arrival order
}

// NewMemRepo creates an empty in-memory store.
func NewMemRepo() *MemRepo {
	return &MemRepo{
		patients: make(map[uuid.UUID]*Patient),
	}
}

// Add appends a fully-formed patient. The caller assigns the id; a
// duplicate is rejected rather than overwritten.
func (r *MemRepo) Add(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.patients[p.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
	}
	r.patients[p.ID] = p.Clone()
	r.order = append(r.order, p.ID)
	return nil
}

// Get returns a snapshot of one patient.
func (r *MemRepo) Get(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPatientNotFound, id)
	}
	return p.Clone(), nil
}

// UpdateFunc applies fn to a copy of the stored record and commits the
// result, all under the write lock. Concurrent mutations of the same
// patient are serialized here; an error from fn leaves the stored record
// untouched.
func (r *MemRepo) UpdateFunc(_ context.Context, id uuid.UUID, fn func(*Patient) error) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.patients[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPatientNotFound, id)
	}
	p := stored.Clone()
	if err := fn(p); err != nil {
		return nil, err
	}
	r.patients[id] = p
	return p.Clone(), nil
}

// List returns all patients in arrival order.
func (r *MemRepo) List(_ context.Context) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Patient, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.patients[id]; ok {
			result = append(result, p.Clone())
		}
	}
	return result, nil
}

// ListByStage filters the store by stage, preserving arrival order. Empty
// for a stage with no members.
func (r *MemRepo) ListByStage(_ context.Context, stage Stage) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Patient, 0)
	for _, id := range r.order {
		p, ok := r.patients[id]
		if !ok || p.Stage != stage {
			continue
		}
		result = append(result, p.Clone())
	}
	return result, nil
}

// Count returns the number of records in the store.
func (r *MemRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order), nil
}
