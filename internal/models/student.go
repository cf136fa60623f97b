package models

import "time"

// Student represents a student record; AdvisorID links an advisee to its
// academic advisor. Advisor ownership is exclusive but enforced upstream.
type Student struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	NIM       string    `db:"nim" json:"nim"`
	FullName  string    `db:"full_name" json:"full_name"`
	Major     *string   `db:"major" json:"major,omitempty"`
	Semester  *int      `db:"semester" json:"semester,omitempty"`
	AdvisorID *string   `db:"advisor_id" json:"advisor_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AdviseeUpsert carries externally sourced advisee fields keyed on NIM.
type AdviseeUpsert struct {
	NIM       string
	FullName  string
	Major     *string
	Semester  *int
	AdvisorID string
}
