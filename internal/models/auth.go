package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and profile.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserInfo  `json:"user"`
}

// UserInfo describes a user in responses, including role specific fields.
type UserInfo struct {
	ID             string   `json:"id"`
	Email          string   `json:"email"`
	FullName       string   `json:"fullName"`
	Role           UserRole `json:"role"`
	PhoneNumber    *string  `json:"phoneNumber,omitempty"`
	StudentNumber  *string  `json:"studentNumber,omitempty"`
	Campus         *string  `json:"campus,omitempty"`
	Course         *string  `json:"course,omitempty"`
	EmployeeNumber *string  `json:"employeeNumber,omitempty"`
	Specialization *string  `json:"specialization,omitempty"`
	Department     *string  `json:"department,omitempty"`
}

// NewUserInfo projects a stored user into its public profile.
func NewUserInfo(u *User) UserInfo {
	return UserInfo{
		ID:             u.ID,
		Email:          u.Email,
		FullName:       u.FullName,
		Role:           u.Role,
		PhoneNumber:    u.PhoneNumber,
		StudentNumber:  u.StudentNumber,
		Campus:         u.Campus,
		Course:         u.Course,
		EmployeeNumber: u.EmployeeNumber,
		Specialization: u.Specialization,
		Department:     u.Department,
	}
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
