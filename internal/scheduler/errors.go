package scheduler

type Error string

const (
	ErrUnknownReferral   = "referral is not in the pending list"
	ErrNoDoctorAssigned  = "referral has no receiving doctor"
	ErrScheduleNotLoaded = "doctor schedule is not loaded yet"
	ErrDateNotSelectable = "date has no open slots"
	ErrSlotNotSelectable = "slot is taken or already passed"
	ErrNoSlotChosen      = "no slot chosen"
	ErrConfirmInProgress = "a confirmation is already in progress"
)

func (e Error) Error() string {
	return string(e)
}
