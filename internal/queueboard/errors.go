package queueboard

type Error string

const (
	ErrModalNotOpen        = "no queue entry accepted"
	ErrUnknownDestination  = "unknown destination"
	ErrNoDestinationChosen = "no destination chosen"
)

func (e Error) Error() string {
	return string(e)
}
