package models

import "time"

// KKPStatus enumerates the lifecycle of a practical-internship application.
type KKPStatus string

const (
	KKPStatusPending    KKPStatus = "pending"
	KKPStatusApproved   KKPStatus = "approved"
	KKPStatusInProgress KKPStatus = "in_progress"
	KKPStatusRejected   KKPStatus = "rejected"
	KKPStatusCompleted  KKPStatus = "completed"
)

// KKPApplication is a supervised practical-internship placement.
type KKPApplication struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	SupervisorID string    `db:"supervisor_id" json:"supervisor_id"`
	Title        string    `db:"title" json:"title"`
	Company      *string   `db:"company" json:"company,omitempty"`
	Status       KKPStatus `db:"status" json:"status"`
	SubmittedAt  time.Time `db:"submitted_at" json:"submitted_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	StudentName string `db:"student_name" json:"student_name"`
}

// ThesisStatus enumerates thesis title states.
type ThesisStatus string

const (
	ThesisStatusProposed  ThesisStatus = "proposed"
	ThesisStatusApproved  ThesisStatus = "approved"
	ThesisStatusRejected  ThesisStatus = "rejected"
	ThesisStatusCompleted ThesisStatus = "completed"
)

// ThesisTitle is a thesis under a lecturer's supervision.
type ThesisTitle struct {
	ID           string       `db:"id" json:"id"`
	StudentID    string       `db:"student_id" json:"student_id"`
	SupervisorID string       `db:"supervisor_id" json:"supervisor_id"`
	Title        string       `db:"title" json:"title"`
	Status       ThesisStatus `db:"status" json:"status"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// ExamStatus enumerates exam application states.
type ExamStatus string

const (
	ExamStatusPending   ExamStatus = "pending"
	ExamStatusScheduled ExamStatus = "scheduled"
	ExamStatusCompleted ExamStatus = "completed"
	ExamStatusCancelled ExamStatus = "cancelled"
)

// ExamApplication is a final/proposal exam request. A lecturer qualifies for
// an exam either through an advisor slot or through committee membership
// (exam_committees join table).
type ExamApplication struct {
	ID          string     `db:"id" json:"id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	Type        string     `db:"type" json:"type"`
	Advisor1ID  *string    `db:"advisor1_id" json:"advisor1_id,omitempty"`
	Advisor2ID  *string    `db:"advisor2_id" json:"advisor2_id,omitempty"`
	Status      ExamStatus `db:"status" json:"status"`
	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	SubmittedAt time.Time  `db:"submitted_at" json:"submitted_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`

	StudentName string `db:"student_name" json:"student_name"`
}

// Course is a class taught by a lecturer in a given semester.
type Course struct {
	ID         string `db:"id" json:"id"`
	LecturerID string `db:"lecturer_id" json:"lecturer_id"`
	Code       string `db:"code" json:"code"`
	Name       string `db:"name" json:"name"`
	Semester   int    `db:"semester" json:"semester"`
	Credits    int    `db:"credits" json:"credits"`
}

// Consultation is a scheduled academic consultation between an advisor and
// one of their advisees.
type Consultation struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	AdvisorID   string    `db:"advisor_id" json:"advisor_id"`
	Topic       string    `db:"topic" json:"topic"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`

	StudentName string `db:"student_name" json:"student_name"`
}
