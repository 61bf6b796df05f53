package queueing

import (
	"context"
	"fmt"

	"clinic-desk/internal/database"
)

const (
	listWaitingEntriesQuery     = "SELECT id, patient_id, first_name, last_name, date_of_birth, phone_number, complaint, queue_number, priority_level, status, created_at FROM tb_queue_entry WHERE status = $1 AND priority_level = $2 ORDER BY created_at LIMIT 3"
	findQueueEntryByIDQuery     = "SELECT id, patient_id, first_name, last_name, date_of_birth, phone_number, complaint, queue_number, priority_level, status, created_at FROM tb_queue_entry WHERE id = $1"
	updateQueueEntryStatusQuery = "UPDATE tb_queue_entry SET status = $1 WHERE id = $2"
)

// Repository provides access to registration queue data.
type Repository interface {

	// ListWaitingEntries lists the first waiting entries of the given priority level, oldest first.
	ListWaitingEntries(ctx context.Context, priorityLevel string) ([]*QueueEntry, error)

	// FindQueueEntryByID finds a queue entry by its ID.
	FindQueueEntryByID(ctx context.Context, id int64) (*QueueEntry, error)

	// UpdateQueueEntryStatus updates the status of the given queue entry.
	UpdateQueueEntryStatus(ctx context.Context, id int64, status string) error
}

type defaultRepository struct {
	dbConn database.Connection
}

// newRepository creates a new Repository.
func newRepository(dbConn database.Connection) Repository {
	return &defaultRepository{dbConn: dbConn}
}

func (d defaultRepository) ListWaitingEntries(ctx context.Context, priorityLevel string) ([]*QueueEntry, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, listWaitingEntriesQuery, StatusWaiting, priorityLevel)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	entries := make([]*QueueEntry, 0)
	for rows.Next() {
		entry := new(QueueEntry)
		if err = database.TransformRow(rows, entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (d defaultRepository) FindQueueEntryByID(ctx context.Context, id int64) (*QueueEntry, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, findQueueEntryByIDQuery, id)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	entry := new(QueueEntry)
	for rows.Next() {
		if err = database.TransformRow(rows, entry); err != nil {
			return nil, err
		}
		if entry.ID > 0 {
			return entry, nil
		}
	}
	return nil, nil
}

func (d defaultRepository) UpdateQueueEntryStatus(ctx context.Context, id int64, status string) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	result, err := d.dbConn.DB().ExecContext(ctx, updateQueueEntryStatusQuery, status, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("queue entry not updated")
	}
	return nil
}
