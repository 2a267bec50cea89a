package dto

import "time"

// CountByKey is one bucket of a grouped count.
type CountByKey struct {
	Key   string `db:"key" json:"key"`
	Count int    `db:"count" json:"count"`
}

// NurseWorkload counts open and completed appointments per nurse.
type NurseWorkload struct {
	NurseID   string `db:"nurse_id" json:"nurseId"`
	NurseName string `db:"nurse_name" json:"nurseName"`
	Open      int    `db:"open" json:"open"`
	Completed int    `db:"completed" json:"completed"`
}

// AppointmentStats feeds the admin analytics dashboard.
type AppointmentStats struct {
	Total              int             `json:"total"`
	Upcoming           int             `json:"upcoming"`
	ByStatus           []CountByKey    `json:"byStatus"`
	ByConsultationType []CountByKey    `json:"byConsultationType"`
	ByTimeSlot         []CountByKey    `json:"byTimeSlot"`
	NurseWorkload      []NurseWorkload `json:"nurseWorkload"`
	GeneratedAt        time.Time       `json:"generatedAt"`
}
