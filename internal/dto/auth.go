package dto

import "github.com/noah-isme/healthconnect-api/internal/models"

// RegisterStudentRequest is the self-service student sign-up form.
type RegisterStudentRequest struct {
	Email         string `json:"email" validate:"required,email,max=256"`
	Password      string `json:"password" validate:"required,strongpassword"`
	FullName      string `json:"fullName" validate:"required,max=200"`
	StudentNumber string `json:"studentNumber" validate:"required,max=50"`
	Campus        string `json:"campus" validate:"required,max=100"`
	Course        string `json:"course" validate:"required,max=150"`
	PhoneNumber   string `json:"phoneNumber" validate:"required,max=30"`
}

// RegisterNurseRequest is submitted by an admin to create a nurse account.
type RegisterNurseRequest struct {
	Email          string `json:"email" validate:"required,email,max=256"`
	Password       string `json:"password" validate:"required,strongpassword"`
	FullName       string `json:"fullName" validate:"required,max=200"`
	EmployeeNumber string `json:"employeeNumber" validate:"required,max=50"`
	Specialization string `json:"specialization" validate:"required,max=150"`
	PhoneNumber    string `json:"phoneNumber" validate:"required,max=30"`
}

// RegisterResponse acknowledges a student registration.
type RegisterResponse struct {
	Message string          `json:"message"`
	User    models.UserInfo `json:"user"`
}

// NurseSummary is the admin-facing view of a nurse account.
type NurseSummary struct {
	ID             string          `json:"id"`
	Email          string          `json:"email"`
	FullName       string          `json:"fullName"`
	EmployeeNumber string          `json:"employeeNumber"`
	Specialization string          `json:"specialization"`
	PhoneNumber    string          `json:"phoneNumber"`
	IsAvailable    bool            `json:"isAvailable"`
	Role           models.UserRole `json:"role"`
}

// NewNurseSummary projects a nurse account.
func NewNurseSummary(u *models.User) NurseSummary {
	return NurseSummary{
		ID:             u.ID,
		Email:          u.Email,
		FullName:       u.FullName,
		EmployeeNumber: models.StringValue(u.EmployeeNumber),
		Specialization: models.StringValue(u.Specialization),
		PhoneNumber:    models.StringValue(u.PhoneNumber),
		IsAvailable:    u.IsAvailable,
		Role:           u.Role,
	}
}

// SetAvailabilityRequest toggles a nurse's availability.
type SetAvailabilityRequest struct {
	IsAvailable *bool `json:"isAvailable" validate:"required"`
}

// StudentSummary carries the student fields used in the admin booking notice.
type StudentSummary struct {
	FullName      string
	Email         string
	StudentNumber string
	PhoneNumber   string
}

// NewStudentSummary projects a student account.
func NewStudentSummary(u *models.User) StudentSummary {
	return StudentSummary{
		FullName:      u.FullName,
		Email:         u.Email,
		StudentNumber: models.StringValue(u.StudentNumber),
		PhoneNumber:   models.StringValue(u.PhoneNumber),
	}
}
