package models

import "time"

// Lecturer represents a lecturer profile owned by exactly one user.
// NIP (employee number) is the natural key used when reconciling against SIMAK.
type Lecturer struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	NIP            string    `db:"nip" json:"nip"`
	Department     *string   `db:"department" json:"department,omitempty"`
	Position       *string   `db:"position" json:"position,omitempty"`
	Specialization *string   `db:"specialization" json:"specialization,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`

	// Denormalised from the owning user on read; never written back.
	FullName string  `db:"full_name" json:"full_name"`
	Avatar   *string `db:"avatar" json:"avatar,omitempty"`
}

// LecturerUpsert carries the fields the reconciler is allowed to merge.
type LecturerUpsert struct {
	UserID         string
	NIP            string
	Department     *string
	Position       *string
	Specialization *string
}
