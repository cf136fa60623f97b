package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siakad-dosen-api/internal/models"
)

// LecturerRepository manages persistence for lecturer profiles.
type LecturerRepository struct {
	db *sqlx.DB
}

// NewLecturerRepository constructs a LecturerRepository.
func NewLecturerRepository(db *sqlx.DB) *LecturerRepository {
	return &LecturerRepository{db: db}
}

const lecturerColumns = `l.id, l.user_id, l.nip, l.department, l.position, l.specialization, l.created_at, l.updated_at, u.full_name, u.avatar`

// FindByUserID fetches the lecturer profile owned by the given user, joined
// with the denormalised display fields. Returns nil when no profile exists.
func (r *LecturerRepository) FindByUserID(ctx context.Context, userID string) (*models.Lecturer, error) {
	query := fmt.Sprintf(`SELECT %s FROM lecturers l JOIN users u ON u.id = l.user_id WHERE l.user_id = $1`, lecturerColumns)
	var lecturer models.Lecturer
	if err := r.db.GetContext(ctx, &lecturer, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find lecturer by user: %w", err)
	}
	return &lecturer, nil
}

// FindByID fetches a lecturer profile by its primary key.
func (r *LecturerRepository) FindByID(ctx context.Context, id string) (*models.Lecturer, error) {
	query := fmt.Sprintf(`SELECT %s FROM lecturers l JOIN users u ON u.id = l.user_id WHERE l.id = $1`, lecturerColumns)
	var lecturer models.Lecturer
	if err := r.db.GetContext(ctx, &lecturer, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find lecturer by id: %w", err)
	}
	return &lecturer, nil
}

// Upsert inserts or merges a lecturer profile keyed on user_id, preserving
// the one-lecturer-per-user invariant. Repeated upserts with the same data
// are idempotent.
func (r *LecturerRepository) Upsert(ctx context.Context, input models.LecturerUpsert) error {
	const query = `INSERT INTO lecturers (id, user_id, nip, department, position, specialization, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			nip = EXCLUDED.nip,
			department = COALESCE(EXCLUDED.department, lecturers.department),
			position = COALESCE(EXCLUDED.position, lecturers.position),
			specialization = COALESCE(EXCLUDED.specialization, lecturers.specialization),
			updated_at = EXCLUDED.updated_at`

	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query,
		uuid.NewString(), input.UserID, input.NIP,
		input.Department, input.Position, input.Specialization, now,
	); err != nil {
		return fmt.Errorf("upsert lecturer: %w", err)
	}
	return nil
}
