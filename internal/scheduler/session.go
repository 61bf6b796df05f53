// Package scheduler contains the desk-side scheduling session. It reconciles the
// pending referral list with the receiving doctor's availability and books the
// chosen slot, keeping all state out of the rendering layer.
package scheduler

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"clinic-desk/internal/logging"
	"clinic-desk/internal/metrics"
	"clinic-desk/internal/referral"
)

// State is the scheduling session state.
type State string

const (
	StateIdle          State = "idle"
	StateLoadingDoctor State = "loading_doctor"
	StateReadyToPick   State = "ready_to_pick"
	StateSlotChosen    State = "slot_chosen"
	StateScheduling    State = "scheduling"
	StateSuccess       State = "success"
)

// successDisplayDuration is how long the success confirmation stays up before the
// session resets to its baseline.
const successDisplayDuration = 2 * time.Second

// API is the slice of the clinic API the scheduling session needs.
type API interface {
	ListReferrals(ctx context.Context) ([]*referral.Referral, error)
	GetDoctorSchedule(ctx context.Context, doctorID int64) (*referral.DoctorSchedule, error)
	ScheduleAppointment(ctx context.Context, request referral.AppointmentRequest) (*referral.Referral, error)
}

// TimeSlot is one half-hour window of the loaded doctor schedule. Taken and passed
// slots stay visible so the desk can tell a blocked window from a free one, but
// neither can be selected.
type TimeSlot struct {
	Start  time.Time
	End    time.Time
	Taken  bool
	Passed bool
}

// Session drives the referral scheduling flow.
type Session struct {
	mu     sync.Mutex
	api    API
	logger *log.Logger
	now    func() time.Time

	state        State
	successUntil time.Time
	referrals    []*referral.Referral
	selected     *referral.Referral
	doctor       *referral.DoctorSchedule
	location     *time.Location
	slotsByDate  map[string][]TimeSlot
	dates        []string
	selectedDate string
	selectedSlot *TimeSlot
}

// NewSession creates a new scheduling session.
func NewSession(api API, logger *log.Logger) *Session {
	return &Session{
		api:    api,
		logger: logger,
		now:    time.Now,
		state:  StateIdle,
	}
}

// State returns the current session state. A success confirmation that stayed up
// long enough resets the session to its baseline.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireSuccess()
	return s.state
}

func (s *Session) expireSuccess() {
	if s.state == StateSuccess && !s.now().Before(s.successUntil) {
		s.resetSelection()
		s.state = StateIdle
	}
}

// resetSelection clears everything tied to the selected referral. The pending list
// itself survives.
func (s *Session) resetSelection() {
	s.selected = nil
	s.doctor = nil
	s.location = nil
	s.slotsByDate = nil
	s.dates = nil
	s.selectedDate = ""
	s.selectedSlot = nil
}

// LoadReferrals fetches the pending referral list. On failure the list is left
// empty rather than stale.
func (s *Session) LoadReferrals(ctx context.Context) error {
	referrals, err := s.api.ListReferrals(ctx)
	if err != nil {
		logging.PrintlnError(s.logger, "could not load the pending referrals: ", err)
		referrals = nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.referrals = referrals
	return err
}

// Referrals returns the loaded pending referrals.
func (s *Session) Referrals() []*referral.Referral {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.referrals
}

// scheduleLocation resolves the doctor's timezone, falling back to the local one.
func scheduleLocation(schedule *referral.DoctorSchedule) *time.Location {
	if schedule.Timezone == "" {
		return time.Local
	}
	location, err := time.LoadLocation(schedule.Timezone)
	if err != nil {
		return time.Local
	}
	return location
}

// groupSlots partitions the schedule's availability by calendar date in the
// doctor's timezone, keeping the server order within each date.
func groupSlots(schedule *referral.DoctorSchedule, location *time.Location) (map[string][]TimeSlot, []string) {
	slotsByDate := make(map[string][]TimeSlot)
	dates := make([]string, 0)
	for _, slot := range schedule.Availability {
		date := slot.Start.In(location).Format("2006-01-02")
		if _, seen := slotsByDate[date]; !seen {
			dates = append(dates, date)
		}
		slotsByDate[date] = append(slotsByDate[date], TimeSlot{
			Start: slot.Start.In(location),
			End:   slot.End.In(location),
			Taken: !slot.IsAvailable,
		})
	}
	sort.Strings(dates)
	return slotsByDate, dates
}

// SelectReferral picks a referral from the pending list and loads the receiving
// doctor's schedule. Any previous slot or date selection is discarded first.
func (s *Session) SelectReferral(ctx context.Context, referralID int64) error {
	s.mu.Lock()
	s.expireSuccess()
	if s.state == StateScheduling {
		s.mu.Unlock()
		return Error(ErrConfirmInProgress)
	}
	var picked *referral.Referral
	for _, v := range s.referrals {
		if v.ID == referralID {
			picked = v
			break
		}
	}
	if picked == nil {
		s.mu.Unlock()
		return Error(ErrUnknownReferral)
	}
	if picked.ReceivingDoctorID <= 0 {
		logging.PrintlnWarn(s.logger, "referral has no receiving doctor, nothing to load")
		s.mu.Unlock()
		return Error(ErrNoDoctorAssigned)
	}
	s.resetSelection()
	s.selected = picked
	s.state = StateLoadingDoctor
	s.mu.Unlock()

	schedule, err := s.api.GetDoctorSchedule(ctx, picked.ReceivingDoctorID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		logging.PrintlnError(s.logger, "could not load the doctor schedule: ", err)
		s.slotsByDate = make(map[string][]TimeSlot)
		s.dates = nil
		s.state = StateReadyToPick
		return err
	}
	location := scheduleLocation(schedule)
	s.doctor = schedule
	s.location = location
	s.slotsByDate, s.dates = groupSlots(schedule, location)
	s.state = StateReadyToPick
	return nil
}

// SelectedReferral returns the referral being scheduled, if any.
func (s *Session) SelectedReferral() *referral.Referral {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Doctor returns the loaded doctor schedule, if any.
func (s *Session) Doctor() *referral.DoctorSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doctor
}

// EnabledDates returns the dates that still have at least one open slot.
func (s *Session) EnabledDates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	enabled := make([]string, 0)
	for _, date := range s.dates {
		for _, slot := range s.slotsByDate[date] {
			if !slot.Taken {
				enabled = append(enabled, date)
				break
			}
		}
	}
	return enabled
}

// SelectDate picks a calendar date to browse. Dates without an open slot cannot
// be picked, and any previously chosen slot is discarded.
func (s *Session) SelectDate(date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireSuccess()
	if s.state != StateReadyToPick && s.state != StateSlotChosen {
		return Error(ErrScheduleNotLoaded)
	}
	open := false
	for _, slot := range s.slotsByDate[date] {
		if !slot.Taken {
			open = true
			break
		}
	}
	if !open {
		return Error(ErrDateNotSelectable)
	}
	s.selectedDate = date
	s.selectedSlot = nil
	s.state = StateReadyToPick
	return nil
}

// SelectedDate returns the currently picked calendar date, if any.
func (s *Session) SelectedDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedDate
}

// SlotsFor returns the slots of the given date in server order, each annotated
// with whether it is taken or already passed.
func (s *Session) SlotsFor(date string) []TimeSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	slots := make([]TimeSlot, 0, len(s.slotsByDate[date]))
	for _, slot := range s.slotsByDate[date] {
		slot.Passed = !slot.End.After(now)
		slots = append(slots, slot)
	}
	return slots
}

// SelectSlot chooses the slot starting at the given instant. Taken and passed
// slots are rejected.
func (s *Session) SelectSlot(date string, start time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireSuccess()
	if s.state != StateReadyToPick && s.state != StateSlotChosen {
		return Error(ErrScheduleNotLoaded)
	}
	now := s.now()
	for _, slot := range s.slotsByDate[date] {
		if !slot.Start.Equal(start) {
			continue
		}
		if slot.Taken || !slot.End.After(now) {
			return Error(ErrSlotNotSelectable)
		}
		chosen := slot
		s.selectedSlot = &chosen
		s.state = StateSlotChosen
		return nil
	}
	return Error(ErrSlotNotSelectable)
}

// SelectedSlot returns the currently chosen slot, if any.
func (s *Session) SelectedSlot() *TimeSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedSlot
}

// Confirm books the chosen slot for the selected referral. On success the booked
// referral leaves the pending list and the session shows a transient success
// confirmation before resetting. On failure the selection stays intact for retry.
func (s *Session) Confirm(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateSlotChosen || s.selectedSlot == nil || s.selected == nil {
		s.mu.Unlock()
		return Error(ErrNoSlotChosen)
	}
	request := referral.AppointmentRequest{
		ReferralID:      s.selected.ID,
		AppointmentDate: s.selectedSlot.Start.Format(time.RFC3339),
	}
	s.state = StateScheduling
	s.mu.Unlock()

	updated, err := s.api.ScheduleAppointment(ctx, request)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		logging.PrintlnError(s.logger, "could not schedule the appointment: ", err)
		metrics.CountDeskMutation("schedule_appointment", "error")
		s.state = StateSlotChosen
		return err
	}
	metrics.CountDeskMutation("schedule_appointment", "ok")
	remaining := make([]*referral.Referral, 0, len(s.referrals))
	for _, v := range s.referrals {
		if v.ID != updated.ID {
			remaining = append(remaining, v)
		}
	}
	s.referrals = remaining
	s.state = StateSuccess
	s.successUntil = s.now().Add(successDisplayDuration)
	return nil
}
