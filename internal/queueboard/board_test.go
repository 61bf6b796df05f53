package queueboard

import (
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"clinic-desk/internal/queueing"
)

type emptyWriter struct{}

func (e emptyWriter) Write(p []byte) (n int, err error) {
	return 0, nil
}

var logger = log.New(&emptyWriter{}, "", log.LstdFlags)

type mockAPI struct {
	mockGetRegistrationSnapshot func(ctx context.Context) (*queueing.Snapshot, error)
	mockRoutePatient            func(ctx context.Context, request queueing.RouteRequest) (*queueing.QueueEntry, error)
}

func (m mockAPI) GetRegistrationSnapshot(ctx context.Context) (*queueing.Snapshot, error) {
	return m.mockGetRegistrationSnapshot(ctx)
}

func (m mockAPI) RoutePatient(ctx context.Context, request queueing.RouteRequest) (*queueing.QueueEntry, error) {
	return m.mockRoutePatient(ctx, request)
}

func waitingEntry(id int64, queueNumber string) *queueing.QueueEntry {
	return &queueing.QueueEntry{
		ID:          id,
		FirstName:   "Ana",
		LastName:    "Souza",
		Complaint:   "headache",
		QueueNumber: queueNumber,
		Status:      queueing.StatusWaiting,
	}
}

func TestRefresh(t *testing.T) {
	t.Parallel()
	t.Run("should apply the snapshot with its empty positions preserved", func(t *testing.T) {
		t.Parallel()
		board := NewBoard(mockAPI{
			mockGetRegistrationSnapshot: func(ctx context.Context) (*queueing.Snapshot, error) {
				return &queueing.Snapshot{
					PriorityCurrent: waitingEntry(1, "P-01"),
					RegularCurrent:  waitingEntry(2, "R-01"),
					RegularNext2:    waitingEntry(3, "R-03"),
				}, nil
			},
		}, logger, 0)
		if err := board.Refresh(context.TODO()); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		snapshot := board.Snapshot()
		if snapshot.PriorityCurrent == nil || snapshot.PriorityCurrent.ID != 1 {
			t.Error("priority current position is incorrect")
		}
		if snapshot.PriorityNext1 != nil || snapshot.RegularNext1 != nil {
			t.Error("empty positions should stay empty")
		}
		if snapshot.RegularNext2 == nil || snapshot.RegularNext2.ID != 3 {
			t.Error("regular next2 position is incorrect")
		}
	})
	t.Run("should keep the last applied view when refreshing fails", func(t *testing.T) {
		t.Parallel()
		failing := false
		board := NewBoard(mockAPI{
			mockGetRegistrationSnapshot: func(ctx context.Context) (*queueing.Snapshot, error) {
				if failing {
					return nil, errors.New("boom")
				}
				return &queueing.Snapshot{PriorityCurrent: waitingEntry(1, "P-01")}, nil
			},
		}, logger, 0)
		if err := board.Refresh(context.TODO()); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		failing = true
		if err := board.Refresh(context.TODO()); err == nil {
			t.Fatal("expected an error, got none")
		}
		if board.Snapshot() == nil || board.Snapshot().PriorityCurrent == nil {
			t.Error("failed refresh should keep the last applied view")
		}
	})
	t.Run("should discard a response overtaken by a newer refresh", func(t *testing.T) {
		t.Parallel()
		firstStarted := make(chan struct{})
		release := make(chan struct{})
		var calls int
		var callsMu sync.Mutex
		board := NewBoard(mockAPI{
			mockGetRegistrationSnapshot: func(ctx context.Context) (*queueing.Snapshot, error) {
				callsMu.Lock()
				calls++
				call := calls
				callsMu.Unlock()
				if call == 1 {
					close(firstStarted)
					<-release
					return &queueing.Snapshot{PriorityCurrent: waitingEntry(1, "P-01")}, nil
				}
				return &queueing.Snapshot{PriorityCurrent: waitingEntry(2, "P-02")}, nil
			},
		}, logger, 0)

		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = board.Refresh(context.TODO())
		}()
		<-firstStarted

		// a second refresh overtakes the first one still in flight
		if err := board.Refresh(context.TODO()); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		close(release)
		<-done

		snapshot := board.Snapshot()
		if snapshot.PriorityCurrent == nil || snapshot.PriorityCurrent.ID != 2 {
			t.Error("the overtaken response should have been discarded")
		}
	})
}

func TestRun(t *testing.T) {
	t.Parallel()
	var calls int
	var callsMu sync.Mutex
	board := NewBoard(mockAPI{
		mockGetRegistrationSnapshot: func(ctx context.Context) (*queueing.Snapshot, error) {
			callsMu.Lock()
			calls++
			callsMu.Unlock()
			return &queueing.Snapshot{}, nil
		},
	}, logger, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		board.Run(ctx)
	}()

	deadline := time.After(2 * time.Second)
	for {
		callsMu.Lock()
		polled := calls
		callsMu.Unlock()
		if polled >= 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("the poller never reached three refreshes")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("the poller did not stop after cancellation")
	}
}

func TestRouting(t *testing.T) {
	t.Parallel()
	t.Run("should route the accepted entry by its queue entry id and requery", func(t *testing.T) {
		t.Parallel()
		var gotRequest queueing.RouteRequest
		var refreshes int
		var refreshesMu sync.Mutex
		board := NewBoard(mockAPI{
			mockGetRegistrationSnapshot: func(ctx context.Context) (*queueing.Snapshot, error) {
				refreshesMu.Lock()
				refreshes++
				refreshesMu.Unlock()
				return &queueing.Snapshot{}, nil
			},
			mockRoutePatient: func(ctx context.Context, request queueing.RouteRequest) (*queueing.QueueEntry, error) {
				gotRequest = request
				updated := waitingEntry(request.QueueEntryID, "P-01")
				updated.Status = queueing.StatusQueuedForTreatment
				return updated, nil
			},
		}, logger, 0)

		entry := waitingEntry(42, "P-01")
		patientID := "P-0042"
		entry.PatientID = &patientID

		board.Accept(entry)
		if err := board.ChooseDestination(queueing.ActionTreatment); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if err := board.Confirm(context.TODO()); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if gotRequest.QueueEntryID != 42 {
			t.Errorf("routing must use the queue entry id, got %d, want 42", gotRequest.QueueEntryID)
		}
		if gotRequest.Action != queueing.ActionTreatment {
			t.Errorf("action is incorrect, got %s", gotRequest.Action)
		}
		if board.Selected() != nil {
			t.Error("selection should be cleared after a successful routing")
		}
		refreshesMu.Lock()
		defer refreshesMu.Unlock()
		if refreshes != 1 {
			t.Errorf("a successful routing should requery immediately, got %d refreshes", refreshes)
		}
	})
	t.Run("should keep the modal open when routing fails", func(t *testing.T) {
		t.Parallel()
		board := NewBoard(mockAPI{
			mockRoutePatient: func(ctx context.Context, request queueing.RouteRequest) (*queueing.QueueEntry, error) {
				return nil, errors.New("boom")
			},
		}, logger, 0)
		entry := waitingEntry(42, "P-01")
		board.Accept(entry)
		_ = board.ChooseDestination(queueing.ActionLabTest)
		if err := board.Confirm(context.TODO()); err == nil {
			t.Fatal("expected an error, got none")
		}
		if board.Selected() == nil {
			t.Error("selection should survive a failed routing")
		}
	})
	t.Run("should treat accepting nothing as a no-op", func(t *testing.T) {
		t.Parallel()
		board := NewBoard(mockAPI{}, logger, 0)
		board.Accept(nil)
		if board.Selected() != nil {
			t.Error("accepting nothing should not open the modal")
		}
		if err := board.Confirm(context.TODO()); err == nil {
			t.Fatal("expected an error, got none")
		}
	})
	t.Run("should reject an unknown destination", func(t *testing.T) {
		t.Parallel()
		board := NewBoard(mockAPI{}, logger, 0)
		board.Accept(waitingEntry(1, "P-01"))
		if err := board.ChooseDestination("discharge"); err == nil {
			t.Fatal("expected an error, got none")
		}
	})
	t.Run("should not confirm before a destination is chosen", func(t *testing.T) {
		t.Parallel()
		board := NewBoard(mockAPI{}, logger, 0)
		board.Accept(waitingEntry(1, "P-01"))
		if err := board.Confirm(context.TODO()); err == nil {
			t.Fatal("expected an error, got none")
		}
	})
	t.Run("should clear everything on close without side effects", func(t *testing.T) {
		t.Parallel()
		board := NewBoard(mockAPI{}, logger, 0)
		board.Accept(waitingEntry(1, "P-01"))
		_ = board.ChooseDestination(queueing.ActionAssessment)
		board.Close()
		if board.Selected() != nil {
			t.Error("selection should be cleared on close")
		}
	})
}
