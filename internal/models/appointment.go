package models

import "time"

// AppointmentStatus is the persisted lifecycle state. Values other than the
// constants below are accepted on update and stored verbatim.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "Pending"
	StatusAssigned  AppointmentStatus = "Assigned"
	StatusCompleted AppointmentStatus = "Completed"
)

// Consultation types offered by the clinic.
const (
	ConsultationInPerson    = "InPerson"
	ConsultationTeleConsult = "TeleConsult"
)

// Appointment is a row of the appointments table.
type Appointment struct {
	ID                  int64             `db:"id" json:"id"`
	StudentID           string            `db:"student_id" json:"studentId"`
	NurseID             *string           `db:"nurse_id" json:"nurseId"`
	AppointmentDate     Date              `db:"appointment_date" json:"appointmentDate"`
	TimeSlot            string            `db:"time_slot" json:"timeSlot"`
	ConsultationType    string            `db:"consultation_type" json:"consultationType"`
	Status              AppointmentStatus `db:"status" json:"status"`
	SymptomsDescription string            `db:"symptoms_description" json:"symptomsDescription"`
	Notes               *string           `db:"notes" json:"notes"`
	Prescription        *string           `db:"prescription" json:"prescription"`
	CreatedAt           time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time         `db:"updated_at" json:"updatedAt"`
}

// IsAssignedTo reports whether nurseID holds the appointment.
func (a *Appointment) IsAssignedTo(nurseID string) bool {
	return a.NurseID != nil && *a.NurseID == nurseID
}
