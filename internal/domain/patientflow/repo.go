package patientflow

import (
	"context"

	"github.com/google/uuid"
)

// Repository holds the authoritative patient collection in arrival order.
// Implementations must hand out deep copies so readers keep a consistent
// snapshot while writers replace records.
//
// UpdateFunc is the only way to mutate an existing record: it runs fn on
// a copy of the stored record while holding the write lock for that id,
// so concurrent mutations of the same patient are serialized and no
// interleaved Get/Update can lose a write. fn must not block; returning
// an error discards the mutation.
type Repository interface {
	Add(ctx context.Context, p *Patient) error
	Get(ctx context.Context, id uuid.UUID) (*Patient, error)
	UpdateFunc(ctx context.Context, id uuid.UUID, fn func(*Patient) error) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
	ListByStage(ctx context.Context, stage Stage) ([]*Patient, error)
	Count(ctx context.Context) (int, error)
}
