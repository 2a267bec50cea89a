package dto

import (
	"time"

	"github.com/noah-isme/healthconnect-api/internal/models"
)

// CreateAppointmentRequest is the booking form submitted by a student.
type CreateAppointmentRequest struct {
	AppointmentDate     models.Date `json:"appointmentDate"`
	TimeSlot            string      `json:"timeSlot" validate:"required,timeslot"`
	ConsultationType    string      `json:"consultationType" validate:"required,oneof=InPerson TeleConsult"`
	SymptomsDescription string      `json:"symptomsDescription" validate:"required,max=2000"`
	Notes               string      `json:"notes" validate:"max=2000"`
}

// UpdateAppointmentRequest is a partial update; only fields present in the
// payload are applied, and null clears optional text fields.
type UpdateAppointmentRequest struct {
	AppointmentDate     Optional[models.Date] `json:"appointmentDate"`
	TimeSlot            Optional[string]      `json:"timeSlot"`
	ConsultationType    Optional[string]      `json:"consultationType"`
	SymptomsDescription Optional[string]      `json:"symptomsDescription"`
	Notes               Optional[string]      `json:"notes"`
	Prescription        Optional[string]      `json:"prescription"`
	NurseID             Optional[string]      `json:"nurseId"`
	Status              Optional[string]      `json:"status"`
}

// Empty reports a payload with no fields.
func (r UpdateAppointmentRequest) Empty() bool {
	return !r.AppointmentDate.Set && !r.TimeSlot.Set && !r.ConsultationType.Set &&
		!r.SymptomsDescription.Set && !r.Notes.Set && !r.Prescription.Set &&
		!r.NurseID.Set && !r.Status.Set
}

// AssignAppointmentRequest names the nurse to attach.
type AssignAppointmentRequest struct {
	NurseID string `json:"nurseId" validate:"required"`
}

// AppointmentDetail is an appointment joined with student and nurse display fields.
type AppointmentDetail struct {
	ID                  int64                    `db:"id" json:"id"`
	StudentID           string                   `db:"student_id" json:"studentId"`
	StudentName         string                   `db:"student_name" json:"studentName"`
	StudentEmail        string                   `db:"student_email" json:"studentEmail"`
	StudentNumber       *string                  `db:"student_number" json:"studentNumber,omitempty"`
	StudentPhone        *string                  `db:"student_phone" json:"studentPhone,omitempty"`
	NurseID             *string                  `db:"nurse_id" json:"nurseId"`
	NurseName           *string                  `db:"nurse_name" json:"nurseName"`
	NurseSpecialization *string                  `db:"nurse_specialization" json:"nurseSpecialization,omitempty"`
	AppointmentDate     models.Date              `db:"appointment_date" json:"appointmentDate"`
	TimeSlot            string                   `db:"time_slot" json:"timeSlot"`
	ConsultationType    string                   `db:"consultation_type" json:"consultationType"`
	Status              models.AppointmentStatus `db:"status" json:"status"`
	SymptomsDescription string                   `db:"symptoms_description" json:"symptomsDescription"`
	Notes               *string                  `db:"notes" json:"notes"`
	Prescription        *string                  `db:"prescription" json:"prescription"`
	CreatedAt           time.Time                `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time                `db:"updated_at" json:"updatedAt"`
}

// AppointmentFilter scopes list queries. Nil fields do not filter.
type AppointmentFilter struct {
	StudentID *string
	NurseID   *string
}

// SlotAvailability reports whether a clinic slot is free on a date.
type SlotAvailability struct {
	TimeSlot  string `json:"timeSlot"`
	Available bool   `json:"available"`
}

// DaySlots lists the clinic slots for a date.
type DaySlots struct {
	Date  models.Date        `json:"date"`
	Slots []SlotAvailability `json:"slots"`
}

// Appointment returns the ownership and state fields used by access checks.
func (d *AppointmentDetail) Appointment() *models.Appointment {
	return &models.Appointment{
		ID:                  d.ID,
		StudentID:           d.StudentID,
		NurseID:             d.NurseID,
		AppointmentDate:     d.AppointmentDate,
		TimeSlot:            d.TimeSlot,
		ConsultationType:    d.ConsultationType,
		Status:              d.Status,
		SymptomsDescription: d.SymptomsDescription,
		Notes:               d.Notes,
		Prescription:        d.Prescription,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}
