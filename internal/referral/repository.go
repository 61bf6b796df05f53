package referral

import (
	"context"
	"fmt"
	"time"

	"clinic-desk/internal/database"
)

const (
	listPendingReferralsQuery  = "SELECT id, patient_id, referring_doctor_id, receiving_doctor_id, reason, notes, status, created_at, appointment_date FROM tb_referral WHERE status = $1 ORDER BY created_at"
	findReferralByIDQuery      = "SELECT id, patient_id, referring_doctor_id, receiving_doctor_id, reason, notes, status, created_at, appointment_date FROM tb_referral WHERE id = $1"
	findDoctorByIDQuery        = "SELECT id, uuid, user_id, full_name, email, specialization, timezone FROM tb_doctor WHERE id = $1"
	listScheduleWindowsQuery   = "SELECT id, doctor_id, day_of_week, start_time, end_time FROM tb_schedule WHERE doctor_id = $1 ORDER BY id"
	listAppointmentsQuery      = "SELECT id, uuid, doctor_id, patient_id, scheduled_by, appointment_date, status FROM tb_appointment WHERE doctor_id = $1 AND appointment_date >= $2 AND appointment_date < $3"
	insertAppointmentQuery     = "INSERT INTO tb_appointment (uuid, doctor_id, patient_id, scheduled_by, appointment_date, status) VALUES ($1, $2, $3, $4, $5, $6)"
	markReferralScheduledQuery = "UPDATE tb_referral SET status = $1, appointment_date = $2 WHERE id = $3"
)

// Repository provides access to referral and scheduling data.
type Repository interface {

	// ListPendingReferrals lists the referrals still waiting to be scheduled, oldest first.
	ListPendingReferrals(ctx context.Context) ([]*Referral, error)

	// FindReferralByID finds a referral by its ID.
	FindReferralByID(ctx context.Context, id int64) (*Referral, error)

	// FindDoctorByID finds a doctor by its ID.
	FindDoctorByID(ctx context.Context, id int64) (*Doctor, error)

	// ListScheduleWindows lists the doctor's declared weekly openness windows.
	ListScheduleWindows(ctx context.Context, doctorID int64) ([]*ScheduleWindow, error)

	// ListAppointments lists the doctor's appointments within the given period.
	ListAppointments(ctx context.Context, doctorID int64, from time.Time, to time.Time) ([]*Appointment, error)

	// InsertAppointment inserts a new appointment.
	InsertAppointment(ctx context.Context, appointment Appointment) error

	// MarkReferralScheduled transitions the referral to scheduled and records its appointment date.
	MarkReferralScheduled(ctx context.Context, referralID int64, appointmentDate time.Time) error
}

type defaultRepository struct {
	dbConn database.Connection
}

// newRepository creates a new Repository.
func newRepository(dbConn database.Connection) Repository {
	return &defaultRepository{dbConn: dbConn}
}

func (d defaultRepository) ListPendingReferrals(ctx context.Context) ([]*Referral, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, listPendingReferralsQuery, StatusPending)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	referrals := make([]*Referral, 0)
	for rows.Next() {
		referral := new(Referral)
		if err = database.TransformRow(rows, referral); err != nil {
			return nil, err
		}
		referrals = append(referrals, referral)
	}
	return referrals, nil
}

func (d defaultRepository) FindReferralByID(ctx context.Context, id int64) (*Referral, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, findReferralByIDQuery, id)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	referral := new(Referral)
	for rows.Next() {
		if err = database.TransformRow(rows, referral); err != nil {
			return nil, err
		}
		if referral.ID > 0 {
			return referral, nil
		}
	}
	return nil, nil
}

func (d defaultRepository) FindDoctorByID(ctx context.Context, id int64) (*Doctor, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, findDoctorByIDQuery, id)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	doctor := new(Doctor)
	for rows.Next() {
		if err = database.TransformRow(rows, doctor); err != nil {
			return nil, err
		}
		if doctor.ID > 0 {
			return doctor, nil
		}
	}
	return nil, nil
}

func (d defaultRepository) ListScheduleWindows(ctx context.Context, doctorID int64) ([]*ScheduleWindow, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, listScheduleWindowsQuery, doctorID)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	windows := make([]*ScheduleWindow, 0)
	for rows.Next() {
		window := new(ScheduleWindow)
		if err = database.TransformRow(rows, window); err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}
	return windows, nil
}

func (d defaultRepository) ListAppointments(ctx context.Context, doctorID int64, from time.Time, to time.Time) ([]*Appointment, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, listAppointmentsQuery, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	appointments := make([]*Appointment, 0)
	for rows.Next() {
		appointment := new(Appointment)
		if err = database.TransformRow(rows, appointment); err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	return appointments, nil
}

func (d defaultRepository) InsertAppointment(ctx context.Context, appointment Appointment) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 6)
	params[0] = appointment.UUID
	params[1] = appointment.DoctorID
	params[2] = appointment.PatientID
	params[3] = appointment.ScheduledBy
	params[4] = appointment.Date
	params[5] = appointment.Status
	result, err := d.dbConn.DB().ExecContext(ctx, insertAppointmentQuery, params...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("appointment not inserted")
	}
	return nil
}

func (d defaultRepository) MarkReferralScheduled(ctx context.Context, referralID int64, appointmentDate time.Time) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	result, err := d.dbConn.DB().ExecContext(ctx, markReferralScheduledQuery, StatusScheduled, appointmentDate, referralID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("referral not updated")
	}
	return nil
}
