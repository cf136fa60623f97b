package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/siakad-dosen-api/internal/models"
	"github.com/noah-isme/siakad-dosen-api/internal/simak"
)

type lecturerStore interface {
	FindByID(ctx context.Context, id string) (*models.Lecturer, error)
	Upsert(ctx context.Context, input models.LecturerUpsert) error
}

type adviseeStore interface {
	UpsertAdvisee(ctx context.Context, input models.AdviseeUpsert) error
}

type recordsClient interface {
	FetchLecturerProfile(ctx context.Context, nip, token string) (*simak.LecturerRecord, error)
	FetchAdviseeRoster(ctx context.Context, nip, token string) ([]simak.StudentRecord, error)
}

// SyncService reconciles a lecturer's local profile and advisee roster
// against SIMAK. Sync is opportunistic: with no credential it is a no-op,
// and any external failure degrades to whatever the local store holds.
type SyncService struct {
	lecturers lecturerStore
	advisees  adviseeStore
	client    recordsClient
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewSyncService constructs a SyncService.
func NewSyncService(lecturers lecturerStore, advisees adviseeStore, client recordsClient, metrics *MetricsService, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{lecturers: lecturers, advisees: advisees, client: client, metrics: metrics, logger: logger}
}

// Sync merges the lecturer's SIMAK profile and advisee roster into the local
// store and returns the freshest lecturer record available. It never returns
// an error: profile and roster sync are isolated from each other, and each
// failure is logged, counted, and swallowed.
func (s *SyncService) Sync(ctx context.Context, lecturer *models.Lecturer, token string) *models.Lecturer {
	if lecturer == nil {
		return nil
	}
	if token == "" || s.client == nil {
		return lecturer
	}

	result := lecturer

	if merged := s.syncProfile(ctx, lecturer, token); merged != nil {
		result = merged
	}
	s.syncAdvisees(ctx, result, token)

	return result
}

func (s *SyncService) syncProfile(ctx context.Context, lecturer *models.Lecturer, token string) *models.Lecturer {
	record, err := s.client.FetchLecturerProfile(ctx, lecturer.NIP, token)
	if err != nil {
		s.warnSync("profile", lecturer.ID, err)
		return nil
	}
	if record == nil {
		return nil
	}

	upsert := models.LecturerUpsert{
		UserID: lecturer.UserID,
		NIP:    record.NIP,
	}
	if record.Department != "" {
		upsert.Department = &record.Department
	}
	if record.Position != "" {
		upsert.Position = &record.Position
	}
	if record.Specialization != "" {
		upsert.Specialization = &record.Specialization
	}

	if err := s.lecturers.Upsert(ctx, upsert); err != nil {
		s.warnSync("profile", lecturer.ID, err)
		return nil
	}

	// Re-read so downstream sees the merged row, not our in-memory guess.
	merged, err := s.lecturers.FindByID(ctx, lecturer.ID)
	if err != nil || merged == nil {
		s.warnSync("profile", lecturer.ID, err)
		return nil
	}
	return merged
}

func (s *SyncService) syncAdvisees(ctx context.Context, lecturer *models.Lecturer, token string) {
	roster, err := s.client.FetchAdviseeRoster(ctx, lecturer.NIP, token)
	if err != nil {
		s.warnSync("advisees", lecturer.ID, err)
		return
	}

	for _, record := range roster {
		if record.NIM == "" {
			continue
		}
		upsert := models.AdviseeUpsert{
			NIM:       record.NIM,
			FullName:  record.Name,
			AdvisorID: lecturer.ID,
		}
		if record.Major != "" {
			upsert.Major = &record.Major
		}
		if record.Semester > 0 {
			semester := record.Semester
			upsert.Semester = &semester
		}
		if err := s.advisees.UpsertAdvisee(ctx, upsert); err != nil {
			s.warnSync("advisees", lecturer.ID, err)
		}
	}
}

func (s *SyncService) warnSync(operation, lecturerID string, err error) {
	if s.metrics != nil {
		s.metrics.RecordSyncFailure(operation)
	}
	s.logger.Warn("simak sync failed, keeping local data",
		zap.String("operation", operation),
		zap.String("lecturer_id", lecturerID),
		zap.Error(err),
	)
}
