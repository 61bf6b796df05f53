// Package referral contains handlers, services and structures used to manage appointment
// referrals and the receiving doctors' bookable schedules.
package referral

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"clinic-desk/internal/apierrors"
	"clinic-desk/internal/auth"
	"clinic-desk/internal/configs"
	"clinic-desk/internal/database"

	"github.com/google/uuid"
)

const (
	slotDuration       = 30 * time.Minute
	defaultHorizonDays = 90

	AppointmentScheduledStatus = "Scheduled"
)

// Reader determines the methods available to read referrals and doctor schedules.
type Reader interface {

	// ListPendingReferrals returns the referrals awaiting scheduling, with doctor summaries embedded.
	ListPendingReferrals(ctx context.Context) ([]*Referral, error)

	// GetDoctorSchedule returns the doctor's summary and its availability between the given dates.
	// Zero dates fall back to a horizon starting today.
	GetDoctorSchedule(ctx context.Context, doctorID int64, from time.Time, to time.Time) (*DoctorSchedule, error)
}

// Writer determines the methods available to schedule appointments out of referrals.
type Writer interface {

	// ScheduleAppointment books the requested slot for the referral's patient and transitions
	// the referral to scheduled.
	ScheduleAppointment(ctx context.Context, user auth.User, request AppointmentRequest) (*Referral, error)
}

// Service determines the methods used to manage referral scheduling.
type Service interface {
	Reader
	Writer
}

type defaultService struct {
	repository Repository
	config     configs.Config
	now        func() time.Time
}

// NewService creates a new referral service.
func NewService(config configs.Config, dbConn database.Connection) Service {
	return &defaultService{
		config:     config,
		repository: newRepository(dbConn),
		now:        time.Now,
	}
}

func (d defaultService) ListPendingReferrals(ctx context.Context) ([]*Referral, error) {
	referrals, err := d.repository.ListPendingReferrals(ctx)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	doctors := make(map[int64]*Doctor)
	for _, referral := range referrals {
		if err = d.embedDoctors(ctx, referral, doctors); err != nil {
			return nil, err
		}
	}
	return referrals, nil
}

// embedDoctors fills the referral's doctor summaries, reusing already fetched doctors.
func (d defaultService) embedDoctors(ctx context.Context, referral *Referral, doctors map[int64]*Doctor) error {
	for _, id := range []int64{referral.ReferringDoctorID, referral.ReceivingDoctorID} {
		if _, found := doctors[id]; found {
			continue
		}
		doctor, err := d.repository.FindDoctorByID(ctx, id)
		if err != nil {
			return fmt.Errorf("an unexpected error occurred: %w", err)
		}
		doctors[id] = doctor
	}
	referral.ReferringDoctor = doctors[referral.ReferringDoctorID]
	referral.ReceivingDoctor = doctors[referral.ReceivingDoctorID]
	return nil
}

// doctorLocation resolves the doctor's timezone, falling back to UTC when unknown.
func doctorLocation(doctor *Doctor) *time.Location {
	if doctor.Timezone == "" {
		return time.UTC
	}
	location, err := time.LoadLocation(doctor.Timezone)
	if err != nil {
		return time.UTC
	}
	return location
}

// parseWindowTime parses a schedule window wall-clock time.
func parseWindowTime(value string) (time.Time, error) {
	parsed, err := time.Parse("15:04:05", value)
	if err != nil {
		return time.Parse("15:04", value)
	}
	return parsed, nil
}

// hasAppointment checks if some appointment falls within the given slot boundaries.
func hasAppointment(appointments []*Appointment, start time.Time, end time.Time) bool {
	for _, v := range appointments {
		if !v.Date.Before(start) && v.Date.Before(end) {
			return true
		}
	}
	return false
}

// buildAvailability expands the doctor's weekly windows into 30-minute slots between the
// given dates, flagging as unavailable the ones already taken by an appointment.
func (d defaultService) buildAvailability(windows []*ScheduleWindow, appointments []*Appointment, from time.Time, to time.Time, location *time.Location) []AvailabilitySlot {
	windowsByDay := make(map[string][]*ScheduleWindow)
	for _, window := range windows {
		windowsByDay[window.DayOfWeek] = append(windowsByDay[window.DayOfWeek], window)
	}
	slots := make([]AvailabilitySlot, 0)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		dayName := day.Weekday().String()
		for _, window := range windowsByDay[dayName] {
			start, err := parseWindowTime(window.StartTime)
			if err != nil {
				continue
			}
			end, err := parseWindowTime(window.EndTime)
			if err != nil {
				continue
			}
			slotStart := time.Date(day.Year(), day.Month(), day.Day(), start.Hour(), start.Minute(), 0, 0, location)
			windowEnd := time.Date(day.Year(), day.Month(), day.Day(), end.Hour(), end.Minute(), 0, 0, location)
			for !slotStart.Add(slotDuration).After(windowEnd) {
				slotEnd := slotStart.Add(slotDuration)
				slots = append(slots, AvailabilitySlot{
					Date:        slotStart.Format("2006-01-02"),
					DayOfWeek:   dayName,
					Start:       slotStart,
					End:         slotEnd,
					IsAvailable: !hasAppointment(appointments, slotStart, slotEnd),
				})
				slotStart = slotEnd
			}
		}
	}
	return slots
}

func (d defaultService) GetDoctorSchedule(ctx context.Context, doctorID int64, from time.Time, to time.Time) (*DoctorSchedule, error) {
	doctor, err := d.repository.FindDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if doctor == nil {
		return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrDoctorNotFound), apierrors.WithHTTPStatusCode(http.StatusNotFound))
	}
	location := doctorLocation(doctor)
	if from.IsZero() {
		now := d.now().In(location)
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, location)
	} else {
		from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, location)
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, defaultHorizonDays)
	} else {
		to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, location)
	}
	if to.Before(from) {
		return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidDateReference), apierrors.WithHTTPStatusCode(http.StatusBadRequest))
	}
	windows, err := d.repository.ListScheduleWindows(ctx, doctor.ID)
	if err != nil {
		return nil, err
	}
	appointments, err := d.repository.ListAppointments(ctx, doctor.ID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return &DoctorSchedule{
		ID:             doctor.ID,
		FullName:       doctor.FullName,
		Specialization: doctor.Specialization,
		Email:          doctor.Email,
		Timezone:       doctor.Timezone,
		Availability:   d.buildAvailability(windows, appointments, from, to, location),
	}, nil
}

// findSlot looks up the slot starting at the given instant.
func findSlot(slots []AvailabilitySlot, start time.Time) *AvailabilitySlot {
	for i := range slots {
		if slots[i].Start.Equal(start) {
			return &slots[i]
		}
	}
	return nil
}

func (d defaultService) ScheduleAppointment(ctx context.Context, user auth.User, request AppointmentRequest) (*Referral, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	appointmentDate, _ := time.Parse(time.RFC3339, request.AppointmentDate)
	referral, err := d.repository.FindReferralByID(ctx, request.ReferralID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if referral == nil {
		return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrReferralNotFound), apierrors.WithHTTPStatusCode(http.StatusNotFound))
	}
	if referral.Status != StatusPending {
		return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrReferralNotPending), apierrors.WithHTTPStatusCode(http.StatusBadRequest))
	}
	schedule, err := d.GetDoctorSchedule(ctx, referral.ReceivingDoctorID, appointmentDate, appointmentDate)
	if err != nil {
		return nil, err
	}
	slot := findSlot(schedule.Availability, appointmentDate)
	if slot == nil || !slot.IsAvailable || !slot.End.After(d.now()) {
		return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrSlotNotAvailable), apierrors.WithHTTPStatusCode(http.StatusBadRequest))
	}
	appointment := Appointment{
		UUID:        uuid.New(),
		DoctorID:    referral.ReceivingDoctorID,
		PatientID:   referral.PatientID,
		ScheduledBy: user.ID,
		Date:        appointmentDate,
		Status:      AppointmentScheduledStatus,
	}
	if err = d.repository.InsertAppointment(ctx, appointment); err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if err = d.repository.MarkReferralScheduled(ctx, referral.ID, appointmentDate); err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	referral.Status = StatusScheduled
	referral.AppointmentDate = &appointmentDate
	if err = d.embedDoctors(ctx, referral, make(map[int64]*Doctor)); err != nil {
		return nil, err
	}
	return referral, nil
}
