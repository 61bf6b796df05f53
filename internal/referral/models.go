package referral

import (
	"time"

	"clinic-desk/internal/apierrors"

	"github.com/google/uuid"
)

// Referral statuses.
const (
	StatusPending   = "pending"
	StatusScheduled = "scheduled"
	StatusCanceled  = "canceled"
)

type Doctor struct {
	ID             int64     `json:"id" dbfield:"id"`
	UserID         int64     `json:"-" dbfield:"user_id"`
	UUID           uuid.UUID `json:"uuid" dbfield:"uuid"`
	FullName       string    `json:"full_name" dbfield:"full_name"`
	Email          string    `json:"email" dbfield:"email"`
	Specialization string    `json:"specialization" dbfield:"specialization"`
	Timezone       string    `json:"timezone" dbfield:"timezone"`
}

// ScheduleWindow is one recurring weekly openness window declared by a doctor.
type ScheduleWindow struct {
	ID        int64  `json:"-" dbfield:"id"`
	DoctorID  int64  `json:"-" dbfield:"doctor_id"`
	DayOfWeek string `json:"day_of_week" dbfield:"day_of_week"`
	StartTime string `json:"start_time" dbfield:"start_time"`
	EndTime   string `json:"end_time" dbfield:"end_time"`
}

type Appointment struct {
	ID          int64     `json:"-" dbfield:"id"`
	UUID        uuid.UUID `json:"uuid" dbfield:"uuid"`
	DoctorID    int64     `json:"-" dbfield:"doctor_id"`
	PatientID   string    `json:"patient_id" dbfield:"patient_id"`
	ScheduledBy int64     `json:"-" dbfield:"scheduled_by"`
	Date        time.Time `json:"appointment_date" dbfield:"appointment_date"`
	Status      string    `json:"status" dbfield:"status"`
}

type Referral struct {
	ID                 int64      `json:"id" dbfield:"id"`
	PatientID          string     `json:"patient" dbfield:"patient_id"`
	ReferringDoctorID  int64      `json:"-" dbfield:"referring_doctor_id"`
	ReceivingDoctorID  int64      `json:"-" dbfield:"receiving_doctor_id"`
	ReferringDoctor    *Doctor    `json:"referring_doctor,omitempty"`
	ReceivingDoctor    *Doctor    `json:"receiving_doctor,omitempty"`
	Reason             string     `json:"reason" dbfield:"reason"`
	Notes              string     `json:"notes" dbfield:"notes"`
	Status             string     `json:"status" dbfield:"status"`
	CreatedAt          time.Time  `json:"created_at" dbfield:"created_at"`
	AppointmentDate    *time.Time `json:"appointment_date,omitempty" dbfield:"appointment_date"`
}

// AvailabilitySlot is one bookable window for a doctor on a specific date.
// Booked slots are kept in the collection with IsAvailable false so callers
// can render blocked windows instead of hiding them.
type AvailabilitySlot struct {
	Date        string    `json:"date"`
	DayOfWeek   string    `json:"day_of_week"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	IsAvailable bool      `json:"is_available"`
}

// DoctorSchedule is the doctor summary plus its availability collection.
type DoctorSchedule struct {
	ID             int64              `json:"id"`
	FullName       string             `json:"full_name"`
	Specialization string             `json:"specialization"`
	Email          string             `json:"email"`
	Timezone       string             `json:"timezone"`
	Availability   []AvailabilitySlot `json:"availability"`
}

// AppointmentRequest is the payload used to schedule an appointment for a referral.
type AppointmentRequest struct {
	ReferralID      int64  `json:"referral_id"`
	AppointmentDate string `json:"appointment_date"`
}

// Validate checks if the given request is valid.
func (a AppointmentRequest) Validate() error {
	if a.ReferralID <= 0 {
		return apierrors.NewValidationError("referral_id", "required")
	}
	if a.AppointmentDate == "" {
		return apierrors.NewValidationError("appointment_date", "required")
	}
	if _, err := time.Parse(time.RFC3339, a.AppointmentDate); err != nil {
		return apierrors.NewValidationError("appointment_date", "invalid timestamp, use RFC 3339")
	}
	return nil
}
