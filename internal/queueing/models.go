package queueing

import (
	"time"

	"clinic-desk/internal/apierrors"
)

// Queue entry statuses.
const (
	StatusWaiting             = "Waiting"
	StatusQueuedForAssessment = "Queued for Assessment"
	StatusQueuedForTreatment  = "Queued for Treatment"
	StatusQueuedForLabTest    = "Queued for Lab Test"
)

// Priority levels.
const (
	PriorityLevel = "Priority"
	RegularLevel  = "Regular"
)

// Routing actions.
const (
	ActionAssessment = "preliminary assessment"
	ActionTreatment  = "treatment"
	ActionLabTest    = "lab test"
)

// actionStatuses maps each routing action to the status the entry transitions to.
var actionStatuses = map[string]string{
	ActionAssessment: StatusQueuedForAssessment,
	ActionTreatment:  StatusQueuedForTreatment,
	ActionLabTest:    StatusQueuedForLabTest,
}

// QueueEntry is one patient waiting at the registration queue. Walk-in patients may
// have no patient record yet, so the patient reference and its personal data are optional.
type QueueEntry struct {
	ID            int64      `json:"id" dbfield:"id"`
	PatientID     *string    `json:"patient_id" dbfield:"patient_id"`
	FirstName     string     `json:"first_name" dbfield:"first_name"`
	LastName      string     `json:"last_name" dbfield:"last_name"`
	DateOfBirth   *time.Time `json:"-" dbfield:"date_of_birth"`
	Age           *int64     `json:"age"`
	PhoneNumber   *string    `json:"phone_number" dbfield:"phone_number"`
	Complaint     string     `json:"complaint" dbfield:"complaint"`
	QueueNumber   string     `json:"queue_number" dbfield:"queue_number"`
	PriorityLevel string     `json:"priority_level" dbfield:"priority_level"`
	Status        string     `json:"status" dbfield:"status"`
	CreatedAt     time.Time  `json:"created_at" dbfield:"created_at"`
}

// Snapshot is the registration queue board state. Each position is kept even when
// empty so callers can tell an empty chair apart from a shifted queue.
type Snapshot struct {
	PriorityCurrent *QueueEntry `json:"priority_current"`
	PriorityNext1   *QueueEntry `json:"priority_next1"`
	PriorityNext2   *QueueEntry `json:"priority_next2"`
	RegularCurrent  *QueueEntry `json:"regular_current"`
	RegularNext1    *QueueEntry `json:"regular_next1"`
	RegularNext2    *QueueEntry `json:"regular_next2"`
}

// RouteRequest is the payload used to route a queue entry to its next station.
type RouteRequest struct {
	QueueEntryID int64  `json:"queue_entry_id"`
	Action       string `json:"action"`
}

// Validate checks if the given request is valid.
func (r RouteRequest) Validate() error {
	if r.QueueEntryID <= 0 {
		return apierrors.NewValidationError("queue_entry_id", "required")
	}
	if r.Action == "" {
		return apierrors.NewValidationError("action", "required")
	}
	if _, known := actionStatuses[r.Action]; !known {
		return apierrors.NewValidationError("action", "unknown action")
	}
	return nil
}
