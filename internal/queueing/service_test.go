package queueing

import (
	"context"
	"testing"
	"time"

	"clinic-desk/internal/apierrors"
	"clinic-desk/internal/auth"
)

type mockRepository struct {
	mockListWaitingEntries     func(ctx context.Context, priorityLevel string) ([]*QueueEntry, error)
	mockFindQueueEntryByID     func(ctx context.Context, id int64) (*QueueEntry, error)
	mockUpdateQueueEntryStatus func(ctx context.Context, id int64, status string) error
}

func (m mockRepository) ListWaitingEntries(ctx context.Context, priorityLevel string) ([]*QueueEntry, error) {
	return m.mockListWaitingEntries(ctx, priorityLevel)
}

func (m mockRepository) FindQueueEntryByID(ctx context.Context, id int64) (*QueueEntry, error) {
	return m.mockFindQueueEntryByID(ctx, id)
}

func (m mockRepository) UpdateQueueEntryStatus(ctx context.Context, id int64, status string) error {
	return m.mockUpdateQueueEntryStatus(ctx, id, status)
}

var fixedNow = time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC)

func waitingEntry(id int64, priorityLevel string) *QueueEntry {
	return &QueueEntry{
		ID:            id,
		FirstName:     "Ana",
		LastName:      "Souza",
		Complaint:     "headache",
		QueueNumber:   "R-12",
		PriorityLevel: priorityLevel,
		Status:        StatusWaiting,
		CreatedAt:     fixedNow.Add(-time.Hour),
	}
}

func TestRegistrationSnapshot(t *testing.T) {
	t.Parallel()
	t.Run("should keep empty positions when a tier has fewer than three entries", func(t *testing.T) {
		t.Parallel()
		repository := mockRepository{
			mockListWaitingEntries: func(ctx context.Context, priorityLevel string) ([]*QueueEntry, error) {
				if priorityLevel == PriorityLevel {
					return []*QueueEntry{waitingEntry(1, PriorityLevel)}, nil
				}
				return []*QueueEntry{waitingEntry(2, RegularLevel), waitingEntry(3, RegularLevel)}, nil
			},
		}
		service := &defaultService{repository: repository, now: func() time.Time { return fixedNow }}
		snapshot, err := service.RegistrationSnapshot(context.TODO())
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if snapshot.PriorityCurrent == nil || snapshot.PriorityCurrent.ID != 1 {
			t.Error("priority current position is incorrect")
		}
		if snapshot.PriorityNext1 != nil || snapshot.PriorityNext2 != nil {
			t.Error("empty priority positions should stay empty")
		}
		if snapshot.RegularCurrent == nil || snapshot.RegularNext1 == nil {
			t.Error("regular positions were not filled")
		}
		if snapshot.RegularNext2 != nil {
			t.Error("empty regular position should stay empty")
		}
	})
	t.Run("should compute ages only for entries with a birth date", func(t *testing.T) {
		t.Parallel()
		birth := time.Date(1990, 6, 10, 0, 0, 0, 0, time.UTC)
		withBirth := waitingEntry(1, PriorityLevel)
		withBirth.DateOfBirth = &birth
		repository := mockRepository{
			mockListWaitingEntries: func(ctx context.Context, priorityLevel string) ([]*QueueEntry, error) {
				if priorityLevel == PriorityLevel {
					return []*QueueEntry{withBirth}, nil
				}
				return []*QueueEntry{waitingEntry(2, RegularLevel)}, nil
			},
		}
		service := &defaultService{repository: repository, now: func() time.Time { return fixedNow }}
		snapshot, err := service.RegistrationSnapshot(context.TODO())
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if snapshot.PriorityCurrent.Age == nil {
			t.Fatal("age was not computed")
		}
		// birthday is one day ahead of the reference clock, so still 34
		if *snapshot.PriorityCurrent.Age != 34 {
			t.Errorf("age is incorrect, got %d, want 34", *snapshot.PriorityCurrent.Age)
		}
		if snapshot.RegularCurrent.Age != nil {
			t.Error("age should stay empty without a birth date")
		}
	})
}

func TestRoutePatient(t *testing.T) {
	t.Parallel()
	type args struct {
		repository mockRepository
		request    RouteRequest
	}
	type want struct {
		status    string
		err       bool
		errStatus int
	}
	tests := []struct {
		name string
		args args
		want want
	}{
		{
			name: "should route a waiting entry to assessment",
			args: args{
				repository: mockRepository{
					mockFindQueueEntryByID: func(ctx context.Context, id int64) (*QueueEntry, error) {
						return waitingEntry(id, PriorityLevel), nil
					},
					mockUpdateQueueEntryStatus: func(ctx context.Context, id int64, status string) error {
						return nil
					},
				},
				request: RouteRequest{QueueEntryID: 1, Action: ActionAssessment},
			},
			want: want{status: StatusQueuedForAssessment},
		},
		{
			name: "should route a waiting entry to a lab test",
			args: args{
				repository: mockRepository{
					mockFindQueueEntryByID: func(ctx context.Context, id int64) (*QueueEntry, error) {
						return waitingEntry(id, RegularLevel), nil
					},
					mockUpdateQueueEntryStatus: func(ctx context.Context, id int64, status string) error {
						return nil
					},
				},
				request: RouteRequest{QueueEntryID: 2, Action: ActionLabTest},
			},
			want: want{status: StatusQueuedForLabTest},
		},
		{
			name: "should not route because no entry was found",
			args: args{
				repository: mockRepository{
					mockFindQueueEntryByID: func(ctx context.Context, id int64) (*QueueEntry, error) {
						return nil, nil
					},
				},
				request: RouteRequest{QueueEntryID: 99, Action: ActionTreatment},
			},
			want: want{err: true, errStatus: 404},
		},
		{
			name: "should not route because the entry already left the queue",
			args: args{
				repository: mockRepository{
					mockFindQueueEntryByID: func(ctx context.Context, id int64) (*QueueEntry, error) {
						entry := waitingEntry(id, PriorityLevel)
						entry.Status = StatusQueuedForTreatment
						return entry, nil
					},
				},
				request: RouteRequest{QueueEntryID: 1, Action: ActionTreatment},
			},
			want: want{err: true, errStatus: 409},
		},
		{
			name: "should not route because the action is unknown",
			args: args{
				repository: mockRepository{},
				request:    RouteRequest{QueueEntryID: 1, Action: "discharge"},
			},
			want: want{err: true},
		},
		{
			name: "should not route because the entry identifier is missing",
			args: args{
				repository: mockRepository{},
				request:    RouteRequest{Action: ActionTreatment},
			},
			want: want{err: true},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			service := &defaultService{repository: tt.args.repository, now: func() time.Time { return fixedNow }}
			user := auth.User{ID: 7, Email: "desk@clinic.com", Role: auth.SecretaryRole}
			entry, err := service.RoutePatient(context.TODO(), user, tt.args.request)
			if tt.want.err {
				if err == nil {
					t.Fatal("expected an error, got none")
				}
				if tt.want.errStatus > 0 {
					apiErr, isAPIErr := err.(*apierrors.APIError)
					if !isAPIErr {
						t.Fatalf("expected an API error, got %v", err)
					}
					if apiErr.HTTPStatusCode() != tt.want.errStatus {
						t.Errorf("error status is incorrect, got %d, want %d", apiErr.HTTPStatusCode(), tt.want.errStatus)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if entry.Status != tt.want.status {
				t.Errorf("entry status is incorrect, got %s, want %s", entry.Status, tt.want.status)
			}
		})
	}
}
