package advisory

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded reports that a newer analysis request for the same
// patient replaced this one while it was in flight. The superseded result
// is discarded, never applied to a stale view.
var ErrSuperseded = errors.New("analysis superseded by a newer request")

type flight struct {
	cancel context.CancelFunc
}

// Dispatcher serializes advisory calls per patient: issuing a new request
// for a patient cancels any call still in flight for that patient.
// Requests for different patients proceed independently.
type Dispatcher struct {
	client *Client

	mu       sync.Mutex
	inflight map[string]*flight
}

// NewDispatcher wraps a client with supersede bookkeeping.
func NewDispatcher(client *Client) *Dispatcher {
	return &Dispatcher{
		client:   client,
		inflight: make(map[string]*flight),
	}
}

// Analyze runs one advisory call keyed by the request's patient id.
// It returns ErrSuperseded when a newer request for the same patient
// cancelled this one; every other outcome is a Result (possibly a
// degraded placeholder) with a nil error.
func (d *Dispatcher) Analyze(ctx context.Context, req Request) (Result, error) {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	f := &flight{cancel: cancel}

	d.mu.Lock()
	if prev, ok := d.inflight[req.PatientID]; ok {
		prev.cancel()
	}
	d.inflight[req.PatientID] = f
	d.mu.Unlock()

	result := d.client.Analyze(callCtx, req)

	d.mu.Lock()
	superseded := d.inflight[req.PatientID] != f
	if !superseded {
		delete(d.inflight, req.PatientID)
	}
	d.mu.Unlock()

	if superseded {
		return Result{}, ErrSuperseded
	}
	return result, nil
}

// InFlight reports how many analyses are currently running; used by
// status endpoints and tests.
func (d *Dispatcher) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inflight)
}
