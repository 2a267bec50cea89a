package service

import (
	"github.com/noah-isme/healthconnect-api/internal/dto"
	"github.com/noah-isme/healthconnect-api/internal/models"
	appErrors "github.com/noah-isme/healthconnect-api/pkg/errors"
)

// Action names an operation on appointments subject to access control.
type Action string

const (
	ActionList   Action = "list"
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionAssign Action = "assign"
)

// Principal is the authenticated caller as recorded in the user directory.
type Principal struct {
	ID   string
	Role models.UserRole
	User *models.User
}

// NewPrincipal builds a principal from a stored user.
func NewPrincipal(u *models.User) Principal {
	return Principal{ID: u.ID, Role: u.Role, User: u}
}

// Authorize decides whether p may perform action on appt. appt is nil for
// list and create. Callers must report a missing row before calling.
func Authorize(p Principal, action Action, appt *models.Appointment) error {
	if !p.Role.Valid() || p.ID == "" {
		return appErrors.Clone(appErrors.ErrForbidden, "role is not permitted to access appointments")
	}

	switch action {
	case ActionList:
		return nil
	case ActionCreate:
		if p.Role != models.RoleStudent {
			return appErrors.Clone(appErrors.ErrForbidden, "only students can book appointments")
		}
		return nil
	case ActionAssign:
		if p.Role != models.RoleAdmin {
			return appErrors.Clone(appErrors.ErrForbidden, "only administrators can assign nurses")
		}
		return nil
	}

	if appt == nil {
		return appErrors.Clone(appErrors.ErrForbidden, "appointment required")
	}

	switch p.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleStudent:
		if appt.StudentID != p.ID {
			return appErrors.Clone(appErrors.ErrForbidden, "appointment belongs to another student")
		}
		if action == ActionDelete && appt.Status != models.StatusPending {
			return appErrors.Clone(appErrors.ErrInvalidState, "Cannot cancel confirmed appointments")
		}
		return nil
	case models.RoleNurse:
		if !appt.IsAssignedTo(p.ID) {
			return appErrors.Clone(appErrors.ErrForbidden, "appointment is not assigned to you")
		}
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "")
}

// ListScope returns the filter restricting a listing to what p may see.
func ListScope(p Principal) (dto.AppointmentFilter, error) {
	if err := Authorize(p, ActionList, nil); err != nil {
		return dto.AppointmentFilter{}, err
	}
	id := p.ID
	switch p.Role {
	case models.RoleStudent:
		return dto.AppointmentFilter{StudentID: &id}, nil
	case models.RoleNurse:
		return dto.AppointmentFilter{NurseID: &id}, nil
	default:
		return dto.AppointmentFilter{}, nil
	}
}
