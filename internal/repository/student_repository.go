package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siakad-dosen-api/internal/models"
)

// StudentRepository manages persistence for students and advisee links.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// UpsertAdvisee inserts or merges an externally sourced advisee keyed on NIM
// and points it at the given advisor. Repeated syncs with identical data
// produce no drift.
func (r *StudentRepository) UpsertAdvisee(ctx context.Context, input models.AdviseeUpsert) error {
	const query = `INSERT INTO students (id, nim, full_name, major, semester, advisor_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (nim) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			major = COALESCE(EXCLUDED.major, students.major),
			semester = COALESCE(EXCLUDED.semester, students.semester),
			advisor_id = EXCLUDED.advisor_id,
			updated_at = EXCLUDED.updated_at`

	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query,
		uuid.NewString(), input.NIM, input.FullName,
		input.Major, input.Semester, input.AdvisorID, now,
	); err != nil {
		return fmt.Errorf("upsert advisee %s: %w", input.NIM, err)
	}
	return nil
}

// CountByAdvisor returns the number of advisees assigned to the lecturer.
func (r *StudentRepository) CountByAdvisor(ctx context.Context, lecturerID string) (int, error) {
	const query = `SELECT COUNT(*) FROM students WHERE advisor_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, lecturerID); err != nil {
		return 0, fmt.Errorf("count advisees: %w", err)
	}
	return count, nil
}

// ListByAdvisor returns the lecturer's advisees ordered by NIM.
func (r *StudentRepository) ListByAdvisor(ctx context.Context, lecturerID string) ([]models.Student, error) {
	const query = `SELECT id, user_id, nim, full_name, major, semester, advisor_id, created_at, updated_at
		FROM students WHERE advisor_id = $1 ORDER BY nim ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, lecturerID); err != nil {
		return nil, fmt.Errorf("list advisees: %w", err)
	}
	return students, nil
}
