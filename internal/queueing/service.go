// Package queueing contains handlers, services and structures used to manage the
// registration queue and route waiting patients to their next station.
package queueing

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"clinic-desk/internal/apierrors"
	"clinic-desk/internal/auth"
	"clinic-desk/internal/configs"
	"clinic-desk/internal/database"
)

// Reader determines the methods available to read the registration queue.
type Reader interface {

	// RegistrationSnapshot returns the current and next two entries of both queue tiers.
	RegistrationSnapshot(ctx context.Context) (*Snapshot, error)
}

// Writer determines the methods available to route waiting patients.
type Writer interface {

	// RoutePatient transitions the given queue entry from waiting to the status
	// implied by the requested action, returning the updated entry.
	RoutePatient(ctx context.Context, user auth.User, request RouteRequest) (*QueueEntry, error)
}

// Service determines the methods used to manage the registration queue.
type Service interface {
	Reader
	Writer
}

type defaultService struct {
	repository Repository
	config     configs.Config
	now        func() time.Time
}

// NewService creates a new queueing service.
func NewService(config configs.Config, dbConn database.Connection) Service {
	return &defaultService{
		config:     config,
		repository: newRepository(dbConn),
		now:        time.Now,
	}
}

// age computes the completed years between the given birth date and now.
func age(birth time.Time, now time.Time) int64 {
	years := int64(now.Year() - birth.Year())
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// fillAges computes the age of each entry that has a birth date.
func (d defaultService) fillAges(entries []*QueueEntry) {
	now := d.now()
	for _, entry := range entries {
		if entry.DateOfBirth == nil {
			continue
		}
		entryAge := age(*entry.DateOfBirth, now)
		entry.Age = &entryAge
	}
}

// pick returns the entry at the given position, or nil when the tier is shorter.
func pick(entries []*QueueEntry, position int) *QueueEntry {
	if position >= len(entries) {
		return nil
	}
	return entries[position]
}

func (d defaultService) RegistrationSnapshot(ctx context.Context) (*Snapshot, error) {
	priority, err := d.repository.ListWaitingEntries(ctx, PriorityLevel)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	regular, err := d.repository.ListWaitingEntries(ctx, RegularLevel)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	d.fillAges(priority)
	d.fillAges(regular)
	return &Snapshot{
		PriorityCurrent: pick(priority, 0),
		PriorityNext1:   pick(priority, 1),
		PriorityNext2:   pick(priority, 2),
		RegularCurrent:  pick(regular, 0),
		RegularNext1:    pick(regular, 1),
		RegularNext2:    pick(regular, 2),
	}, nil
}

func (d defaultService) RoutePatient(ctx context.Context, user auth.User, request RouteRequest) (*QueueEntry, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	entry, err := d.repository.FindQueueEntryByID(ctx, request.QueueEntryID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if entry == nil {
		return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrQueueEntryNotFound), apierrors.WithHTTPStatusCode(http.StatusNotFound))
	}
	if entry.Status != StatusWaiting {
		return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrEntryNotWaiting), apierrors.WithHTTPStatusCode(http.StatusConflict))
	}
	status := actionStatuses[request.Action]
	if err = d.repository.UpdateQueueEntryStatus(ctx, entry.ID, status); err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	entry.Status = status
	d.fillAges([]*QueueEntry{entry})
	return entry, nil
}
