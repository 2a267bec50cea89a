package repository

import "errors"

var (
	// ErrDuplicateEmail is returned when an account already uses the email address.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrSlotTaken is returned when another appointment holds the date and time slot.
	ErrSlotTaken = errors.New("time slot already booked")
)

const (
	usersEmailConstraint      = "users_email_key"
	appointmentSlotConstraint = "appointments_slot_key"
)
