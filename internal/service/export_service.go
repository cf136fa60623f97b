package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/siakad-dosen-api/internal/dto"
	"github.com/noah-isme/siakad-dosen-api/internal/models"
	appErrors "github.com/noah-isme/siakad-dosen-api/pkg/errors"
	"github.com/noah-isme/siakad-dosen-api/pkg/export"
	"github.com/noah-isme/siakad-dosen-api/pkg/jobs"
)

// ExportStatus enumerates roster export job states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "queued"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusFinished   ExportStatus = "finished"
	ExportStatusFailed     ExportStatus = "failed"
)

// ExportJob tracks one roster export from request to downloadable file.
// Jobs live in memory: exports are cheap to regenerate, so they do not
// survive a restart.
type ExportJob struct {
	ID         string
	LecturerID string
	Format     string
	Status     ExportStatus
	ResultURL  *string
	Error      *string
	RelPath    string
	CreatedAt  time.Time
	FinishedAt *time.Time
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File      *os.File
	Filename  string
	Format    string
	ExpiresAt time.Time
}

type rosterLister interface {
	ListByAdvisor(ctx context.Context, lecturerID string) ([]models.Student, error)
}

type exportJobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

// RosterExportServiceConfig governs job retention and retry behaviour.
type RosterExportServiceConfig struct {
	DownloadBasePath string
	ResultTTL        time.Duration
	MaxRetries       int
}

// RosterExportService runs advisee-roster exports asynchronously: a request
// creates a job, workers render and store the file, and the client polls the
// job until a signed download URL appears.
type RosterExportService struct {
	advisees rosterLister
	storage  exportStorage
	signer   downloadSigner
	queue    exportJobDispatcher
	logger   *zap.Logger
	cfg      RosterExportServiceConfig
	now      func() time.Time

	mu   sync.Mutex
	jobs map[string]*ExportJob
}

// NewRosterExportService constructs the export service. Attach the returned
// service's Handle method to the queue before starting it.
func NewRosterExportService(advisees rosterLister, storage exportStorage, signer downloadSigner, logger *zap.Logger, cfg RosterExportServiceConfig) *RosterExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &RosterExportService{
		advisees: advisees,
		storage:  storage,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		jobs:     map[string]*ExportJob{},
	}
}

// SetQueue attaches the dispatcher. Separate from the constructor because the
// queue needs the service's Handle as its handler.
func (s *RosterExportService) SetQueue(queue exportJobDispatcher) {
	s.queue = queue
}

// CreateJob registers an export job for the lecturer and enqueues it.
func (s *RosterExportService) CreateJob(ctx context.Context, lecturer *models.Lecturer, format string) (*dto.ExportJobResponse, error) {
	if lecturer == nil {
		return nil, appErrors.ErrLecturerNotFound
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export queue unavailable")
	}

	job := &ExportJob{
		ID:         uuid.NewString(),
		LecturerID: lecturer.ID,
		Format:     format,
		Status:     ExportStatusQueued,
		CreatedAt:  s.now().UTC(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "roster_export"}); err != nil {
		s.fail(job.ID, "failed to enqueue export")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return &dto.ExportJobResponse{ID: job.ID, Status: string(job.Status)}, nil
}

// Status reports job progress, enforcing ownership.
func (s *RosterExportService) Status(jobID, lecturerID string) (*dto.ExportStatusResponse, error) {
	s.mu.Lock()
	job, ok := s.jobs[jobID]
	if ok {
		snapshot := *job
		job = &snapshot
	}
	s.mu.Unlock()

	if !ok {
		return nil, appErrors.ErrNotFound
	}
	if job.LecturerID != lecturerID {
		return nil, appErrors.ErrForbidden
	}
	resp := &dto.ExportStatusResponse{ID: job.ID, Status: string(job.Status)}
	resp.ResultURL = job.ResultURL
	resp.Error = job.Error
	return resp, nil
}

// Handle processes one queue job: render the roster, store the file, attach
// a signed download URL. Returning an error lets the queue retry; once the
// attempt budget is spent the job is marked failed for good.
func (s *RosterExportService) Handle(ctx context.Context, job jobs.Job) error {
	record := s.snapshot(job.ID)
	if record == nil {
		return fmt.Errorf("unknown export job %s", job.ID)
	}
	s.transition(job.ID, ExportStatusProcessing, nil, nil)

	err := s.generate(ctx, record)
	if err == nil {
		return nil
	}
	if job.Attempt >= s.cfg.MaxRetries {
		s.fail(job.ID, err.Error())
		return nil
	}
	s.logger.Warn("roster export attempt failed",
		zap.String("job_id", job.ID),
		zap.Int("attempt", job.Attempt),
		zap.Error(err),
	)
	return err
}

func (s *RosterExportService) generate(ctx context.Context, record *ExportJob) error {
	students, err := s.advisees.ListByAdvisor(ctx, record.LecturerID)
	if err != nil {
		return fmt.Errorf("list advisees: %w", err)
	}

	dataset := RosterDataset(students)
	var payload []byte
	switch record.Format {
	case "pdf":
		payload, err = export.NewPDFExporter().Render(dataset, "Daftar Mahasiswa Bimbingan")
	default:
		payload, err = export.NewCSVExporter().Render(dataset)
	}
	if err != nil {
		return fmt.Errorf("render roster: %w", err)
	}

	relPath := filepath.Join(record.LecturerID,
		fmt.Sprintf("mahasiswa-bimbingan-%s.%s", s.now().UTC().Format("20060102-150405"), record.Format))
	if _, err := s.storage.Save(relPath, payload); err != nil {
		return fmt.Errorf("store roster export: %w", err)
	}

	token, _, err := s.signer.Generate(record.ID, relPath)
	if err != nil {
		return fmt.Errorf("sign download url: %w", err)
	}
	url := strings.TrimRight(s.cfg.DownloadBasePath, "/") + "/" + token

	s.mu.Lock()
	if job, ok := s.jobs[record.ID]; ok {
		now := s.now().UTC()
		job.Status = ExportStatusFinished
		job.ResultURL = &url
		job.RelPath = relPath
		job.Error = nil
		job.FinishedAt = &now
	}
	s.mu.Unlock()
	return nil
}

// ResolveDownload validates the token and opens the stored export file.
func (s *RosterExportService) ResolveDownload(token string) (*ExportDownload, error) {
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}

	record := s.snapshot(jobID)
	if record == nil {
		return nil, appErrors.ErrNotFound
	}
	if record.Status != ExportStatusFinished || record.RelPath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    record.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// StartCleanup periodically drops expired files and forgets finished jobs
// older than the result TTL.
func (s *RosterExportService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanup()
			}
		}
	}()
}

func (s *RosterExportService) cleanup() {
	if _, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
	}

	cutoff := s.now().UTC().Add(-s.cfg.ResultTTL)
	s.mu.Lock()
	for id, job := range s.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
	s.mu.Unlock()
}

func (s *RosterExportService) snapshot(jobID string) *ExportJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil
	}
	snapshot := *job
	return &snapshot
}

func (s *RosterExportService) transition(jobID string, status ExportStatus, resultURL, message *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	job.Status = status
	if resultURL != nil {
		job.ResultURL = resultURL
	}
	if message != nil {
		job.Error = message
	}
}

func (s *RosterExportService) fail(jobID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	now := s.now().UTC()
	job.Status = ExportStatusFailed
	job.Error = &message
	job.FinishedAt = &now
}

// RosterDataset shapes an advisee list for the tabular exporters.
func RosterDataset(students []models.Student) export.Dataset {
	headers := []string{"NIM", "Nama", "Prodi", "Semester"}
	rows := make([]map[string]string, 0, len(students))
	for _, s := range students {
		row := map[string]string{
			"NIM":  s.NIM,
			"Nama": s.FullName,
		}
		if s.Major != nil {
			row["Prodi"] = *s.Major
		}
		if s.Semester != nil {
			row["Semester"] = strconv.Itoa(*s.Semester)
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
