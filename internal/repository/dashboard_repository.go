package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siakad-dosen-api/internal/models"
)

// DashboardRepository holds the read-only statistic queries backing the
// lecturer dashboard. Every query is scoped to one lecturer and never
// mutates state.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// examScope matches exams where the lecturer sits in either advisor slot or
// on the committee.
const examScope = `(e.advisor1_id = $1 OR e.advisor2_id = $1 OR EXISTS (
		SELECT 1 FROM exam_committees ec WHERE ec.exam_id = e.id AND ec.lecturer_id = $1))`

// ActiveKKPCount counts supervised KKP applications in an active status.
func (r *DashboardRepository) ActiveKKPCount(ctx context.Context, lecturerID string) (int, error) {
	const query = `SELECT COUNT(*) FROM kkp_applications WHERE supervisor_id = $1 AND status IN ('approved', 'in_progress')`
	var count int
	if err := r.db.GetContext(ctx, &count, query, lecturerID); err != nil {
		return 0, fmt.Errorf("count active kkp: %w", err)
	}
	return count, nil
}

// ActiveThesisCount counts supervised theses with approved status.
func (r *DashboardRepository) ActiveThesisCount(ctx context.Context, lecturerID string) (int, error) {
	const query = `SELECT COUNT(*) FROM thesis_titles WHERE supervisor_id = $1 AND status = 'approved'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, lecturerID); err != nil {
		return 0, fmt.Errorf("count active thesis: %w", err)
	}
	return count, nil
}

// RecommendedThesisCount counts all theses the lecturer supervises,
// regardless of status.
func (r *DashboardRepository) RecommendedThesisCount(ctx context.Context, lecturerID string) (int, error) {
	const query = `SELECT COUNT(*) FROM thesis_titles WHERE supervisor_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, lecturerID); err != nil {
		return 0, fmt.Errorf("count recommended thesis: %w", err)
	}
	return count, nil
}

// PendingExamCount counts upcoming exams the lecturer participates in.
func (r *DashboardRepository) PendingExamCount(ctx context.Context, lecturerID string, now time.Time) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM exam_applications e
		WHERE %s AND e.status IN ('pending', 'scheduled') AND e.scheduled_at >= $2`, examScope)
	var count int
	if err := r.db.GetContext(ctx, &count, query, lecturerID, now); err != nil {
		return 0, fmt.Errorf("count pending exams: %w", err)
	}
	return count, nil
}

// CompletedExamCount counts the lecturer's exams completed within the window.
func (r *DashboardRepository) CompletedExamCount(ctx context.Context, lecturerID string, from, until time.Time) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM exam_applications e
		WHERE %s AND e.status = 'completed' AND e.completed_at BETWEEN $2 AND $3`, examScope)
	var count int
	if err := r.db.GetContext(ctx, &count, query, lecturerID, from, until); err != nil {
		return 0, fmt.Errorf("count completed exams: %w", err)
	}
	return count, nil
}

// CourseCount counts classes the lecturer teaches in the given semester.
func (r *DashboardRepository) CourseCount(ctx context.Context, lecturerID string, semester int) (int, error) {
	const query = `SELECT COUNT(*) FROM courses WHERE lecturer_id = $1 AND semester = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, lecturerID, semester); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return count, nil
}

// PendingKKPSubmissions returns the most recent pending KKP applications
// awaiting the lecturer's review, newest first.
func (r *DashboardRepository) PendingKKPSubmissions(ctx context.Context, lecturerID string, limit int) ([]models.KKPApplication, error) {
	const query = `SELECT k.id, k.student_id, k.supervisor_id, k.title, k.company, k.status, k.submitted_at, k.created_at, k.updated_at, s.full_name AS student_name
		FROM kkp_applications k
		JOIN students s ON s.id = k.student_id
		WHERE k.supervisor_id = $1 AND k.status = 'pending'
		ORDER BY k.submitted_at DESC
		LIMIT $2`
	var apps []models.KKPApplication
	if err := r.db.SelectContext(ctx, &apps, query, lecturerID, limit); err != nil {
		return nil, fmt.Errorf("list pending kkp submissions: %w", err)
	}
	return apps, nil
}

// UpcomingExams returns the lecturer's exams scheduled inside [from, until],
// soonest first.
func (r *DashboardRepository) UpcomingExams(ctx context.Context, lecturerID string, from, until time.Time, limit int) ([]models.ExamApplication, error) {
	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.type, e.advisor1_id, e.advisor2_id, e.status, e.scheduled_at, e.submitted_at, e.completed_at, s.full_name AS student_name
		FROM exam_applications e
		JOIN students s ON s.id = e.student_id
		WHERE %s AND e.status IN ('pending', 'scheduled') AND e.scheduled_at BETWEEN $2 AND $3
		ORDER BY e.scheduled_at ASC
		LIMIT $4`, examScope)
	var exams []models.ExamApplication
	if err := r.db.SelectContext(ctx, &exams, query, lecturerID, from, until, limit); err != nil {
		return nil, fmt.Errorf("list upcoming exams: %w", err)
	}
	return exams, nil
}

// UpcomingConsultations returns the advisor's consultations from the given
// instant onwards, ascending by date.
func (r *DashboardRepository) UpcomingConsultations(ctx context.Context, lecturerID string, from time.Time, limit int) ([]models.Consultation, error) {
	const query = `SELECT c.id, c.student_id, c.advisor_id, c.topic, c.scheduled_at, s.full_name AS student_name
		FROM consultations c
		JOIN students s ON s.id = c.student_id
		WHERE c.advisor_id = $1 AND c.scheduled_at >= $2
		ORDER BY c.scheduled_at ASC
		LIMIT $3`
	var consultations []models.Consultation
	if err := r.db.SelectContext(ctx, &consultations, query, lecturerID, from, limit); err != nil {
		return nil, fmt.Errorf("list upcoming consultations: %w", err)
	}
	return consultations, nil
}
