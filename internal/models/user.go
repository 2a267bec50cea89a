package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// UserRole is the closed set of account roles.
type UserRole string

const (
	RoleStudent UserRole = "Student"
	RoleNurse   UserRole = "Nurse"
	RoleAdmin   UserRole = "Admin"
)

// ParseUserRole accepts only the known roles.
func ParseUserRole(raw string) (UserRole, error) {
	role := UserRole(raw)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleNurse, RoleAdmin:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown roles at decode time.
func (r *UserRole) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	role, err := ParseUserRole(raw)
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// Scan implements sql.Scanner.
func (r *UserRole) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("scan role: unsupported type %T", src)
	}
	role, err := ParseUserRole(raw)
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// Value implements driver.Valuer.
func (r UserRole) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %q", string(r))
	}
	return string(r), nil
}

// User represents an account stored in the users table.
// StudentNumber, Campus and Course belong to students; EmployeeNumber to
// nurses and admins; Specialization and IsAvailable to nurses; Department to admins.
type User struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	FullName       string    `db:"full_name" json:"fullName"`
	PhoneNumber    *string   `db:"phone_number" json:"phoneNumber,omitempty"`
	Role           UserRole  `db:"role" json:"role"`
	StudentNumber  *string   `db:"student_number" json:"studentNumber,omitempty"`
	Campus         *string   `db:"campus" json:"campus,omitempty"`
	Course         *string   `db:"course" json:"course,omitempty"`
	EmployeeNumber *string   `db:"employee_number" json:"employeeNumber,omitempty"`
	Specialization *string   `db:"specialization" json:"specialization,omitempty"`
	Department     *string   `db:"department" json:"department,omitempty"`
	IsAvailable    bool      `db:"is_available" json:"isAvailable"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// StringValue dereferences optional columns.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns nil for empty strings.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
