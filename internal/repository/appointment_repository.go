package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/healthconnect-api/internal/dto"
	"github.com/noah-isme/healthconnect-api/internal/models"
	"github.com/noah-isme/healthconnect-api/pkg/database"
)

const appointmentColumns = `id, student_id, nurse_id, appointment_date, time_slot, consultation_type, status, symptoms_description, notes, prescription, created_at, updated_at`

const appointmentDetailSelect = `SELECT a.id, a.student_id, s.full_name AS student_name, s.email AS student_email, s.student_number, s.phone_number AS student_phone, a.nurse_id, n.full_name AS nurse_name, n.specialization AS nurse_specialization, a.appointment_date, a.time_slot, a.consultation_type, a.status, a.symptoms_description, a.notes, a.prescription, a.created_at, a.updated_at FROM appointments a JOIN users s ON s.id = a.student_id LEFT JOIN users n ON n.id = a.nurse_id`

// AppointmentRepository persists clinic appointments.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs the repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// List returns appointments with participant names, newest first.
func (r *AppointmentRepository) List(ctx context.Context, filter dto.AppointmentFilter) ([]dto.AppointmentDetail, error) {
	var conditions []string
	var args []interface{}
	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)))
	}
	if filter.NurseID != nil {
		args = append(args, *filter.NurseID)
		conditions = append(conditions, fmt.Sprintf("a.nurse_id = $%d", len(args)))
	}

	query := appointmentDetailSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY a.created_at DESC, a.id DESC"

	items := make([]dto.AppointmentDetail, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return items, nil
}

// FindByID returns the bare appointment row.
func (r *AppointmentRepository) FindByID(ctx context.Context, id int64) (*models.Appointment, error) {
	const query = `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	return &appt, nil
}

// FindDetail returns an appointment joined with participant names.
func (r *AppointmentRepository) FindDetail(ctx context.Context, id int64) (*dto.AppointmentDetail, error) {
	const query = appointmentDetailSelect + ` WHERE a.id = $1`
	var detail dto.AppointmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find appointment detail: %w", err)
	}
	return &detail, nil
}

// SlotTaken reports whether another appointment occupies the date and slot.
// excludeID skips the appointment being edited; pass 0 when booking.
func (r *AppointmentRepository) SlotTaken(ctx context.Context, date models.Date, slot string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM appointments WHERE appointment_date = $1 AND time_slot = $2 AND id <> $3)`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, date, slot, excludeID); err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return taken, nil
}

// TakenSlots lists the occupied slots of a date.
func (r *AppointmentRepository) TakenSlots(ctx context.Context, date models.Date) ([]string, error) {
	const query = `SELECT time_slot FROM appointments WHERE appointment_date = $1 ORDER BY time_slot`
	slots := make([]string, 0)
	if err := r.db.SelectContext(ctx, &slots, query, date); err != nil {
		return nil, fmt.Errorf("list taken slots: %w", err)
	}
	return slots, nil
}

// Create inserts the appointment and fills its generated identifier.
func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	now := time.Now().UTC()
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = now
	}
	appt.UpdatedAt = appt.CreatedAt

	const query = `INSERT INTO appointments (student_id, nurse_id, appointment_date, time_slot, consultation_type, status, symptoms_description, notes, prescription, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		appt.StudentID, appt.NurseID, appt.AppointmentDate, appt.TimeSlot, appt.ConsultationType,
		appt.Status, appt.SymptomsDescription, appt.Notes, appt.Prescription, appt.CreatedAt, appt.UpdatedAt,
	).Scan(&appt.ID)
	if err != nil {
		if database.IsUniqueViolation(err, appointmentSlotConstraint) {
			return ErrSlotTaken
		}
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// Update writes every mutable column of the appointment.
func (r *AppointmentRepository) Update(ctx context.Context, appt *models.Appointment) error {
	appt.UpdatedAt = time.Now().UTC()
	const query = `UPDATE appointments SET nurse_id = :nurse_id, appointment_date = :appointment_date, time_slot = :time_slot, consultation_type = :consultation_type, status = :status, symptoms_description = :symptoms_description, notes = :notes, prescription = :prescription, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, appt)
	if err != nil {
		if database.IsUniqueViolation(err, appointmentSlotConstraint) {
			return ErrSlotTaken
		}
		return fmt.Errorf("update appointment: %w", err)
	}
	return requireAffected(res, "update appointment")
}

// Assign attaches a nurse to a pending appointment. It returns false when the
// appointment is no longer pending.
func (r *AppointmentRepository) Assign(ctx context.Context, id int64, nurseID string) (bool, error) {
	const query = `UPDATE appointments SET nurse_id = $2, status = 'Assigned', updated_at = $3 WHERE id = $1 AND status = 'Pending'`
	res, err := r.db.ExecContext(ctx, query, id, nurseID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("assign appointment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("assign appointment rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes the appointment.
func (r *AppointmentRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM appointments WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return requireAffected(res, "delete appointment")
}

// Stats aggregates counts for the admin dashboard. Upcoming counts open
// appointments on or after the given date.
func (r *AppointmentRepository) Stats(ctx context.Context, today models.Date) (*dto.AppointmentStats, error) {
	stats := &dto.AppointmentStats{}

	const totalsQuery = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE appointment_date >= $1 AND status <> 'Completed') AS upcoming FROM appointments`
	var totals struct {
		Total    int `db:"total"`
		Upcoming int `db:"upcoming"`
	}
	if err := r.db.GetContext(ctx, &totals, totalsQuery, today); err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	stats.Total = totals.Total
	stats.Upcoming = totals.Upcoming

	groups := []struct {
		column string
		dest   *[]dto.CountByKey
	}{
		{"status", &stats.ByStatus},
		{"consultation_type", &stats.ByConsultationType},
		{"time_slot", &stats.ByTimeSlot},
	}
	for _, g := range groups {
		query := fmt.Sprintf(`SELECT %s AS key, COUNT(*) AS count FROM appointments GROUP BY %s ORDER BY %s`, g.column, g.column, g.column)
		rows := make([]dto.CountByKey, 0)
		if err := r.db.SelectContext(ctx, &rows, query); err != nil {
			return nil, fmt.Errorf("group appointments by %s: %w", g.column, err)
		}
		*g.dest = rows
	}

	const workloadQuery = `SELECT n.id AS nurse_id, n.full_name AS nurse_name, COUNT(a.id) FILTER (WHERE a.status = 'Assigned') AS open, COUNT(a.id) FILTER (WHERE a.status = 'Completed') AS completed FROM users n LEFT JOIN appointments a ON a.nurse_id = n.id WHERE n.role = 'Nurse' GROUP BY n.id, n.full_name ORDER BY n.full_name`
	stats.NurseWorkload = make([]dto.NurseWorkload, 0)
	if err := r.db.SelectContext(ctx, &stats.NurseWorkload, workloadQuery); err != nil {
		return nil, fmt.Errorf("nurse workload: %w", err)
	}
	return stats, nil
}

func requireAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
