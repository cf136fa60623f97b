package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siakad-dosen-api/internal/models"
	appErrors "github.com/noah-isme/siakad-dosen-api/pkg/errors"
	"github.com/noah-isme/siakad-dosen-api/pkg/jobs"
	"github.com/noah-isme/siakad-dosen-api/pkg/storage"
)

type fakeRosterLister struct {
	students []models.Student
	err      error
}

func (f *fakeRosterLister) ListByAdvisor(context.Context, string) ([]models.Student, error) {
	return f.students, f.err
}

type captureQueue struct {
	enqueued []jobs.Job
	err      error
}

func (q *captureQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}

func newTestExportService(t *testing.T, lister rosterLister) (*RosterExportService, *captureQueue) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	signer := storage.NewSignedURLSigner("export-secret", time.Hour)
	svc := NewRosterExportService(lister, store, signer, nil, RosterExportServiceConfig{
		DownloadBasePath: "/api/v1/dashboard/dosen/mahasiswa/exports",
	})
	queue := &captureQueue{}
	svc.SetQueue(queue)
	return svc, queue
}

func exportLister() *fakeRosterLister {
	major := "Informatika"
	return &fakeRosterLister{students: []models.Student{
		{NIM: "2019001", FullName: "Andi", Major: &major},
		{NIM: "2019002", FullName: "Budi"},
	}}
}

func TestExportCreateJobEnqueues(t *testing.T) {
	svc, queue := newTestExportService(t, exportLister())

	job, err := svc.CreateJob(context.Background(), testLecturer(), "")
	require.NoError(t, err)
	assert.Equal(t, string(ExportStatusQueued), job.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, job.ID, queue.enqueued[0].ID)
	assert.Equal(t, "roster_export", queue.enqueued[0].Type)
}

func TestExportCreateJobValidatesFormat(t *testing.T) {
	svc, _ := newTestExportService(t, exportLister())

	_, err := svc.CreateJob(context.Background(), testLecturer(), "xlsx")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestExportCreateJobEnqueueFailure(t *testing.T) {
	svc, queue := newTestExportService(t, exportLister())
	queue.err = errors.New("queue full")

	_, err := svc.CreateJob(context.Background(), testLecturer(), "csv")
	require.Error(t, err)
}

func TestExportHandleProducesDownloadableFile(t *testing.T) {
	svc, queue := newTestExportService(t, exportLister())

	created, err := svc.CreateJob(context.Background(), testLecturer(), "csv")
	require.NoError(t, err)
	require.NoError(t, svc.Handle(context.Background(), queue.enqueued[0]))

	status, err := svc.Status(created.ID, "lect-1")
	require.NoError(t, err)
	assert.Equal(t, string(ExportStatusFinished), status.Status)
	require.NotNil(t, status.ResultURL)
	assert.True(t, strings.HasPrefix(*status.ResultURL, "/api/v1/dashboard/dosen/mahasiswa/exports/"))

	parts := strings.Split(*status.ResultURL, "/")
	token := parts[len(parts)-1]

	download, err := svc.ResolveDownload(token)
	require.NoError(t, err)
	defer download.File.Close()

	content, err := io.ReadAll(download.File)
	require.NoError(t, err)
	body := string(content)
	assert.Contains(t, body, "NIM,Nama,Prodi,Semester")
	assert.Contains(t, body, "2019001")
	assert.Contains(t, body, "2019002")
	assert.Equal(t, "csv", download.Format)
}

func TestExportStatusEnforcesOwnership(t *testing.T) {
	svc, _ := newTestExportService(t, exportLister())

	created, err := svc.CreateJob(context.Background(), testLecturer(), "csv")
	require.NoError(t, err)

	_, err = svc.Status(created.ID, "lect-other")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Status("no-such-job", "lect-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportHandleExhaustedRetriesMarksFailed(t *testing.T) {
	lister := &fakeRosterLister{err: errors.New("db down")}
	svc, queue := newTestExportService(t, lister)

	created, err := svc.CreateJob(context.Background(), testLecturer(), "csv")
	require.NoError(t, err)

	job := queue.enqueued[0]
	job.Attempt = 3
	require.NoError(t, svc.Handle(context.Background(), job), "spent attempt budget resolves the job instead of retrying")

	status, err := svc.Status(created.ID, "lect-1")
	require.NoError(t, err)
	assert.Equal(t, string(ExportStatusFailed), status.Status)
	require.NotNil(t, status.Error)
}

func TestExportHandleRetriableFailureReturnsError(t *testing.T) {
	lister := &fakeRosterLister{err: errors.New("db down")}
	svc, queue := newTestExportService(t, lister)

	created, err := svc.CreateJob(context.Background(), testLecturer(), "csv")
	require.NoError(t, err)

	require.Error(t, svc.Handle(context.Background(), queue.enqueued[0]))

	status, err := svc.Status(created.ID, "lect-1")
	require.NoError(t, err)
	assert.NotEqual(t, string(ExportStatusFailed), status.Status)
}

func TestExportResolveDownloadRejectsBadToken(t *testing.T) {
	svc, _ := newTestExportService(t, exportLister())

	_, err := svc.ResolveDownload("not-a-token")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}
