// Package queueboard contains the desk-side registration queue board. It polls the
// queue snapshot, keeps the six board positions as the server reports them and
// routes accepted patients to their next station.
package queueboard

import (
	"context"
	"log"
	"sync"
	"time"

	"clinic-desk/internal/logging"
	"clinic-desk/internal/metrics"
	"clinic-desk/internal/queueing"
)

const defaultPollInterval = 30 * time.Second

// API is the slice of the clinic API the queue board needs.
type API interface {
	GetRegistrationSnapshot(ctx context.Context) (*queueing.Snapshot, error)
	RoutePatient(ctx context.Context, request queueing.RouteRequest) (*queueing.QueueEntry, error)
}

// Board drives the registration queue view.
type Board struct {
	mu           sync.Mutex
	api          API
	logger       *log.Logger
	pollInterval time.Duration

	// seq counts dispatched refreshes so late responses of older ones are discarded.
	seq      uint64
	snapshot *queueing.Snapshot

	modalOpen   bool
	selected    *queueing.QueueEntry
	destination string
}

// NewBoard creates a new queue board polling at the given interval.
func NewBoard(api API, logger *log.Logger, pollInterval time.Duration) *Board {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Board{
		api:          api,
		logger:       logger,
		pollInterval: pollInterval,
	}
}

// Snapshot returns the last applied queue snapshot. Positions are exactly as the
// server reported them, empty chairs included.
func (b *Board) Snapshot() *queueing.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot
}

// Refresh fetches the queue snapshot. A response that was overtaken by a newer
// dispatched refresh is discarded, and a failed fetch keeps the last applied view.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.mu.Unlock()

	snapshot, err := b.api.GetRegistrationSnapshot(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		metrics.CountQueuePoll("error")
		logging.PrintlnError(b.logger, "could not refresh the queue snapshot: ", err)
		return err
	}
	if seq != b.seq {
		logging.PrintlnWarn(b.logger, "discarding a stale queue snapshot")
		return nil
	}
	b.snapshot = snapshot
	metrics.CountQueuePoll("ok")
	return nil
}

// Run refreshes the board immediately and then on every tick until the given
// context is canceled.
func (b *Board) Run(ctx context.Context) {
	_ = b.Refresh(ctx)
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = b.Refresh(ctx)
		}
	}
}

// Accept opens the routing modal for the given queue entry. Accepting nothing is
// a logged no-op.
func (b *Board) Accept(entry *queueing.QueueEntry) {
	if entry == nil {
		logging.PrintlnWarn(b.logger, "no queue entry to accept")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modalOpen = true
	b.selected = entry
	b.destination = ""
}

// Selected returns the entry the routing modal is open for, if any.
func (b *Board) Selected() *queueing.QueueEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selected
}

// ChooseDestination picks where the accepted patient goes next.
func (b *Board) ChooseDestination(destination string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.modalOpen {
		return Error(ErrModalNotOpen)
	}
	switch destination {
	case queueing.ActionAssessment, queueing.ActionTreatment, queueing.ActionLabTest:
	default:
		return Error(ErrUnknownDestination)
	}
	b.destination = destination
	return nil
}

// Confirm routes the accepted entry to the chosen destination. On success the
// modal closes and the board requeries immediately; on failure the modal stays
// open with the selection intact.
func (b *Board) Confirm(ctx context.Context) error {
	b.mu.Lock()
	if !b.modalOpen || b.selected == nil {
		logging.PrintlnWarn(b.logger, "nothing to confirm, no queue entry accepted")
		b.mu.Unlock()
		return Error(ErrModalNotOpen)
	}
	if b.destination == "" {
		b.mu.Unlock()
		return Error(ErrNoDestinationChosen)
	}
	request := queueing.RouteRequest{
		QueueEntryID: b.selected.ID,
		Action:       b.destination,
	}
	b.mu.Unlock()

	_, err := b.api.RoutePatient(ctx, request)
	if err != nil {
		metrics.CountDeskMutation("route_patient", "error")
		logging.PrintlnError(b.logger, "could not route the patient: ", err)
		return err
	}
	metrics.CountDeskMutation("route_patient", "ok")

	b.mu.Lock()
	b.modalOpen = false
	b.selected = nil
	b.destination = ""
	b.mu.Unlock()

	return b.Refresh(ctx)
}

// Close dismisses the routing modal without side effects.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modalOpen = false
	b.selected = nil
	b.destination = ""
}
