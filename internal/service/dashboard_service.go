package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/siakad-dosen-api/internal/dto"
	"github.com/noah-isme/siakad-dosen-api/internal/models"
	appErrors "github.com/noah-isme/siakad-dosen-api/pkg/errors"
)

const (
	activityKKPLimit     = 3
	activityExamLimit    = 3
	scheduleConsultLimit = 5
	scheduleExamLimit    = 5
	feedMaxItems         = 10
	upcomingWindow       = 7 * 24 * time.Hour
	scheduleDateLayout   = "2006-01-02"
	scheduleTimeLayout   = "15:04"
)

type adviseeCounter interface {
	CountByAdvisor(ctx context.Context, lecturerID string) (int, error)
}

type dashboardStatsRepository interface {
	ActiveKKPCount(ctx context.Context, lecturerID string) (int, error)
	ActiveThesisCount(ctx context.Context, lecturerID string) (int, error)
	RecommendedThesisCount(ctx context.Context, lecturerID string) (int, error)
	PendingExamCount(ctx context.Context, lecturerID string, now time.Time) (int, error)
	CompletedExamCount(ctx context.Context, lecturerID string, from, until time.Time) (int, error)
	CourseCount(ctx context.Context, lecturerID string, semester int) (int, error)
	PendingKKPSubmissions(ctx context.Context, lecturerID string, limit int) ([]models.KKPApplication, error)
	UpcomingExams(ctx context.Context, lecturerID string, from, until time.Time, limit int) ([]models.ExamApplication, error)
	UpcomingConsultations(ctx context.Context, lecturerID string, from time.Time, limit int) ([]models.Consultation, error)
}

type lecturerSyncer interface {
	Sync(ctx context.Context, lecturer *models.Lecturer, token string) *models.Lecturer
}

// DashboardServiceConfig tunes dashboard composition.
type DashboardServiceConfig struct {
	CurrentSemester int
	CacheTTL        time.Duration
}

// DashboardService builds the consolidated lecturer dashboard: best-effort
// reconciliation first, then a concurrent fan-out over the statistic queries
// with per-query fault isolation.
type DashboardService struct {
	stats    dashboardStatsRepository
	advisees adviseeCounter
	syncer   lecturerSyncer
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
	cfg      DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Stats    dashboardStatsRepository
	Advisees adviseeCounter
	Syncer   lecturerSyncer
	Cache    *CacheService
	Metrics  *MetricsService
	Logger   *zap.Logger
	Config   DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CurrentSemester <= 0 {
		cfg.CurrentSemester = 1
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		stats:    params.Stats,
		advisees: params.Advisees,
		syncer:   params.Syncer,
		cache:    params.Cache,
		metrics:  params.Metrics,
		logger:   logger,
		now:      time.Now,
		cfg:      cfg,
	}
}

// statResults holds one slot per statistic query. Each slot is written by
// exactly one goroutine during the fan-out.
type statResults struct {
	adviseeCount      int
	activeKKP         int
	activeThesis      int
	recommendedThesis int
	pendingExams      int
	completedExams    int
	courses           int
	activities        []dto.Activity
	schedule          []dto.ScheduleItem
}

func defaultStatResults() statResults {
	return statResults{
		activities: []dto.Activity{},
		schedule:   []dto.ScheduleItem{},
	}
}

// Build composes the dashboard payload for the lecturer. Data-availability
// failures never surface: individual statistics degrade to their defaults and
// reconciliation failures keep local data. It returns an error only when the
// lecturer is missing, which callers map to not-found.
func (s *DashboardService) Build(ctx context.Context, lecturer *models.Lecturer, token string) (*dto.LecturerDashboard, bool, error) {
	if lecturer == nil {
		return nil, false, appErrors.ErrLecturerNotFound
	}

	now := s.now().UTC()
	cacheKey := fmt.Sprintf("dash:dosen:%s:%s", lecturer.ID, now.Format(scheduleDateLayout))

	// A sync credential implies the caller wants fresh external data, so the
	// cache is only consulted on credential-less reads.
	if token == "" && s.cache != nil {
		var cached dto.LecturerDashboard
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	if s.syncer != nil {
		if synced := s.syncer.Sync(ctx, lecturer, token); synced != nil {
			lecturer = synced
		}
	}

	results := s.collectStats(ctx, lecturer.ID, now)

	payload := &dto.LecturerDashboard{
		Lecturer:         lecturerInfo(lecturer),
		Stats:            s.assembleStats(results),
		RecentActivities: results.activities,
		UpcomingSchedule: results.schedule,
	}
	payload.QuickStats = quickStats(payload.Stats, results.schedule, now)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, payload, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	return payload, false, nil
}

// collectStats fans out all nine statistic queries concurrently. Every slot
// is individually recovered to its default; even an orchestration-level panic
// degrades to the pre-initialised defaults rather than propagating.
func (s *DashboardService) collectStats(ctx context.Context, lecturerID string, now time.Time) (results statResults) {
	results = defaultStatResults()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("dashboard fan-out panicked, serving defaults",
				zap.String("lecturer_id", lecturerID),
				zap.Any("panic", r),
			)
			results = defaultStatResults()
		}
	}()

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	windowEnd := now.Add(upcomingWindow)

	var wg sync.WaitGroup
	runCount := func(name string, dest *int, query func(context.Context) (int, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			*dest = s.fallibleCount(ctx, name, query)
		}()
	}

	runCount("advisee_count", &results.adviseeCount, func(ctx context.Context) (int, error) {
		return s.advisees.CountByAdvisor(ctx, lecturerID)
	})
	runCount("active_kkp", &results.activeKKP, func(ctx context.Context) (int, error) {
		return s.stats.ActiveKKPCount(ctx, lecturerID)
	})
	runCount("active_thesis", &results.activeThesis, func(ctx context.Context) (int, error) {
		return s.stats.ActiveThesisCount(ctx, lecturerID)
	})
	runCount("recommended_thesis", &results.recommendedThesis, func(ctx context.Context) (int, error) {
		return s.stats.RecommendedThesisCount(ctx, lecturerID)
	})
	runCount("pending_exams", &results.pendingExams, func(ctx context.Context) (int, error) {
		return s.stats.PendingExamCount(ctx, lecturerID, now)
	})
	runCount("completed_exams", &results.completedExams, func(ctx context.Context) (int, error) {
		return s.stats.CompletedExamCount(ctx, lecturerID, monthStart, now)
	})
	runCount("courses", &results.courses, func(ctx context.Context) (int, error) {
		return s.stats.CourseCount(ctx, lecturerID, s.cfg.CurrentSemester)
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		results.activities = fallibleList(s, ctx, "recent_activities", func(ctx context.Context) ([]dto.Activity, error) {
			return s.recentActivities(ctx, lecturerID, now, windowEnd)
		})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		results.schedule = fallibleList(s, ctx, "upcoming_schedule", func(ctx context.Context) ([]dto.ScheduleItem, error) {
			return s.upcomingSchedule(ctx, lecturerID, now, windowEnd)
		})
	}()

	wg.Wait()
	return results
}

// fallibleCount runs a counting query and recovers any error or panic to the
// zero default. A degraded zero is visible in logs and metrics but not in the
// response contract.
func (s *DashboardService) fallibleCount(ctx context.Context, name string, query func(context.Context) (int, error)) (result int) {
	defer func() {
		if r := recover(); r != nil {
			s.recordStatFailure(name, fmt.Errorf("panic: %v", r))
			result = 0
		}
	}()

	value, err := query(ctx)
	if err != nil {
		s.recordStatFailure(name, err)
		return 0
	}
	return value
}

// fallibleList is the list-shaped counterpart of fallibleCount, recovering to
// an empty (non-nil) slice.
func fallibleList[T any](s *DashboardService, ctx context.Context, name string, query func(context.Context) ([]T, error)) (result []T) {
	defer func() {
		if r := recover(); r != nil {
			s.recordStatFailure(name, fmt.Errorf("panic: %v", r))
			result = []T{}
		}
	}()

	value, err := query(ctx)
	if err != nil {
		s.recordStatFailure(name, err)
		return []T{}
	}
	if value == nil {
		return []T{}
	}
	return value
}

func (s *DashboardService) recordStatFailure(name string, err error) {
	if s.metrics != nil {
		s.metrics.RecordStatQueryFailure(name)
	}
	s.logger.Warn("statistic query degraded to default",
		zap.String("query", name),
		zap.Error(err),
	)
}

// recentActivities merges pending KKP submissions (newest first) with exams
// in the upcoming window (soonest first), then orders the combined feed by
// event date descending, capped at feedMaxItems.
func (s *DashboardService) recentActivities(ctx context.Context, lecturerID string, now, windowEnd time.Time) ([]dto.Activity, error) {
	submissions, err := s.stats.PendingKKPSubmissions(ctx, lecturerID, activityKKPLimit)
	if err != nil {
		return nil, err
	}
	exams, err := s.stats.UpcomingExams(ctx, lecturerID, now, windowEnd, activityExamLimit)
	if err != nil {
		return nil, err
	}

	activities := make([]dto.Activity, 0, len(submissions)+len(exams))
	for _, app := range submissions {
		activities = append(activities, dto.Activity{
			Type:        "kkp_submission",
			Title:       app.Title,
			StudentName: app.StudentName,
			Date:        app.SubmittedAt,
		})
	}
	for _, exam := range exams {
		if exam.ScheduledAt == nil {
			continue
		}
		activities = append(activities, dto.Activity{
			Type:        "exam",
			Title:       fmt.Sprintf("Ujian %s", exam.Type),
			StudentName: exam.StudentName,
			Date:        *exam.ScheduledAt,
		})
	}

	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Date.After(activities[j].Date)
	})
	if len(activities) > feedMaxItems {
		activities = activities[:feedMaxItems]
	}
	return activities, nil
}

// upcomingSchedule merges consultations with exams in the upcoming window,
// ordered ascending by date, capped at feedMaxItems.
func (s *DashboardService) upcomingSchedule(ctx context.Context, lecturerID string, now, windowEnd time.Time) ([]dto.ScheduleItem, error) {
	consultations, err := s.stats.UpcomingConsultations(ctx, lecturerID, now, scheduleConsultLimit)
	if err != nil {
		return nil, err
	}
	exams, err := s.stats.UpcomingExams(ctx, lecturerID, now, windowEnd, scheduleExamLimit)
	if err != nil {
		return nil, err
	}

	type datedItem struct {
		item dto.ScheduleItem
		at   time.Time
	}
	dated := make([]datedItem, 0, len(consultations)+len(exams))
	for _, c := range consultations {
		dated = append(dated, datedItem{
			at: c.ScheduledAt,
			item: dto.ScheduleItem{
				Type:        "konsultasi",
				Title:       c.Topic,
				StudentName: c.StudentName,
				Date:        c.ScheduledAt.Format(scheduleDateLayout),
				Time:        c.ScheduledAt.Format(scheduleTimeLayout),
			},
		})
	}
	for _, exam := range exams {
		if exam.ScheduledAt == nil {
			continue
		}
		dated = append(dated, datedItem{
			at: *exam.ScheduledAt,
			item: dto.ScheduleItem{
				Type:        "ujian",
				Title:       fmt.Sprintf("Ujian %s", exam.Type),
				StudentName: exam.StudentName,
				Date:        exam.ScheduledAt.Format(scheduleDateLayout),
				Time:        exam.ScheduledAt.Format(scheduleTimeLayout),
			},
		})
	}

	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].at.Before(dated[j].at)
	})
	if len(dated) > feedMaxItems {
		dated = dated[:feedMaxItems]
	}

	items := make([]dto.ScheduleItem, 0, len(dated))
	for _, d := range dated {
		items = append(items, d.item)
	}
	return items, nil
}

func (s *DashboardService) assembleStats(results statResults) dto.LecturerStats {
	return dto.LecturerStats{
		TotalMahasiswa:        results.adviseeCount,
		BimbinganKKP:          results.activeKKP,
		BimbinganTesis:        results.activeThesis,
		TesisDirekomendasikan: results.recommendedThesis,
		UjianPending:          results.pendingExams,
		UjianSelesaiBulanIni:  results.completedExams,
		KelasSemesterIni:      results.courses,
		BimbinganAktif:        results.activeKKP + results.activeThesis,
		// RatingDosen stays nil until a real rating pipeline exists.
		RatingDosen: nil,
	}
}

func lecturerInfo(lecturer *models.Lecturer) dto.LecturerInfo {
	return dto.LecturerInfo{
		ID:             lecturer.ID,
		NIP:            lecturer.NIP,
		FullName:       lecturer.FullName,
		Department:     lecturer.Department,
		Position:       lecturer.Position,
		Specialization: lecturer.Specialization,
		Avatar:         lecturer.Avatar,
	}
}

// quickStats assembles the fixed-shape tile strip. Schedule dates are
// compared per item; a malformed date simply does not count as today.
func quickStats(stats dto.LecturerStats, schedule []dto.ScheduleItem, now time.Time) []dto.QuickStat {
	today := 0
	for _, item := range schedule {
		if isSameDay(item.Date, now) {
			today++
		}
	}
	return []dto.QuickStat{
		{Label: "Pending Review", Count: stats.UjianPending},
		{Label: "Jadwal Hari Ini", Count: today},
		{Label: "Bimbingan Aktif", Count: stats.BimbinganAktif},
		{Label: "Ujian Selesai", Count: stats.UjianSelesaiBulanIni},
	}
}

func isSameDay(raw string, now time.Time) bool {
	parsed, err := time.Parse(scheduleDateLayout, raw)
	if err != nil {
		return false
	}
	return parsed.Year() == now.Year() && parsed.YearDay() == now.YearDay()
}

// DefaultDashboard returns the fully degraded payload: identical shape, all
// defaults, diagnostics attached. Used as the last line of defense when the
// whole pipeline fails.
func DefaultDashboard(lecturer *models.Lecturer, message string) *dto.LecturerDashboard {
	payload := &dto.LecturerDashboard{
		Stats:            dto.LecturerStats{},
		RecentActivities: []dto.Activity{},
		UpcomingSchedule: []dto.ScheduleItem{},
		QuickStats: []dto.QuickStat{
			{Label: "Pending Review"},
			{Label: "Jadwal Hari Ini"},
			{Label: "Bimbingan Aktif"},
			{Label: "Ujian Selesai"},
		},
		Error:   message,
		Warning: "Data dashboard sementara tidak tersedia, silakan muat ulang",
	}
	if lecturer != nil {
		payload.Lecturer = lecturerInfo(lecturer)
	}
	return payload
}
