package referral

type Error string

const (
	ErrDoctorNotFound       = "doctor not found"
	ErrReferralNotFound     = "referral not found"
	ErrReferralNotPending   = "referral is not pending"
	ErrSlotNotAvailable     = "chosen slot is not available"
	ErrInvalidIdentifier    = "invalid identifier"
	ErrInvalidDateReference = "invalid date reference - e.g. 2025-06-10"
)

func (e Error) Error() string {
	return string(e)
}
