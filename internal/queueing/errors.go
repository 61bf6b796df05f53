package queueing

type Error string

const (
	ErrQueueEntryNotFound = "queue entry not found"
	ErrEntryNotWaiting    = "queue entry is no longer waiting"
)

func (e Error) Error() string {
	return string(e)
}
