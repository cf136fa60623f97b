package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siakad-dosen-api/internal/models"
)

func newStudentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryUpsertAdvisee(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	major := "Informatika"
	semester := 7
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WithArgs(sqlmock.AnyArg(), "2019001", "Andi", "Informatika", 7, "lect-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertAdvisee(context.Background(), models.AdviseeUpsert{
		NIM:       "2019001",
		FullName:  "Andi",
		Major:     &major,
		Semester:  &semester,
		AdvisorID: "lect-1",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCountByAdvisor(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE advisor_id = $1")).
		WithArgs("lect-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	count, err := repo.CountByAdvisor(context.Background(), "lect-1")
	require.NoError(t, err)
	require.Equal(t, 12, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListByAdvisor(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "nim", "full_name", "major", "semester", "advisor_id", "created_at", "updated_at"}).
		AddRow("std-1", nil, "2019001", "Andi", "Informatika", 7, "lect-1", now, now).
		AddRow("std-2", nil, "2019002", "Budi", nil, nil, "lect-1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE advisor_id = $1 ORDER BY nim ASC")).
		WithArgs("lect-1").
		WillReturnRows(rows)

	repo := NewStudentRepository(db)
	students, err := repo.ListByAdvisor(context.Background(), "lect-1")
	require.NoError(t, err)
	require.Len(t, students, 2)
	require.Equal(t, "2019001", students[0].NIM)
	require.Nil(t, students[1].Major)
	require.NoError(t, mock.ExpectationsWereMet())
}
