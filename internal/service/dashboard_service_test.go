package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/siakad-dosen-api/internal/models"
	appErrors "github.com/noah-isme/siakad-dosen-api/pkg/errors"
)

type fakeStatsRepo struct {
	activeKKP      int
	activeKKPErr   error
	activeKKPPanic bool

	activeThesis    int
	activeThesisErr error

	recommendedThesis    int
	recommendedThesisErr error

	pendingExams    int
	pendingExamsErr error

	completedExams    int
	completedExamsErr error

	courses      int
	coursesErr   error
	lastSemester int

	pendingKKP    []models.KKPApplication
	pendingKKPErr error

	upcomingExams    []models.ExamApplication
	upcomingExamsErr error

	consultations    []models.Consultation
	consultationsErr error

	mu sync.Mutex
}

func (f *fakeStatsRepo) ActiveKKPCount(context.Context, string) (int, error) {
	if f.activeKKPPanic {
		panic("kkp query exploded")
	}
	return f.activeKKP, f.activeKKPErr
}

func (f *fakeStatsRepo) ActiveThesisCount(context.Context, string) (int, error) {
	return f.activeThesis, f.activeThesisErr
}

func (f *fakeStatsRepo) RecommendedThesisCount(context.Context, string) (int, error) {
	return f.recommendedThesis, f.recommendedThesisErr
}

func (f *fakeStatsRepo) PendingExamCount(context.Context, string, time.Time) (int, error) {
	return f.pendingExams, f.pendingExamsErr
}

func (f *fakeStatsRepo) CompletedExamCount(context.Context, string, time.Time, time.Time) (int, error) {
	return f.completedExams, f.completedExamsErr
}

func (f *fakeStatsRepo) CourseCount(_ context.Context, _ string, semester int) (int, error) {
	f.mu.Lock()
	f.lastSemester = semester
	f.mu.Unlock()
	return f.courses, f.coursesErr
}

func (f *fakeStatsRepo) PendingKKPSubmissions(context.Context, string, int) ([]models.KKPApplication, error) {
	return f.pendingKKP, f.pendingKKPErr
}

func (f *fakeStatsRepo) UpcomingExams(context.Context, string, time.Time, time.Time, int) ([]models.ExamApplication, error) {
	return f.upcomingExams, f.upcomingExamsErr
}

func (f *fakeStatsRepo) UpcomingConsultations(context.Context, string, time.Time, int) ([]models.Consultation, error) {
	return f.consultations, f.consultationsErr
}

type fakeAdvisees struct {
	count int
	err   error
}

func (f *fakeAdvisees) CountByAdvisor(context.Context, string) (int, error) {
	return f.count, f.err
}

type fakeSyncer struct {
	synced *models.Lecturer
	calls  int
	tokens []string
}

func (f *fakeSyncer) Sync(_ context.Context, lecturer *models.Lecturer, token string) *models.Lecturer {
	f.calls++
	f.tokens = append(f.tokens, token)
	if f.synced != nil {
		return f.synced
	}
	return lecturer
}

type stubCacheRepo struct {
	entries map[string][]byte
}

func newStubCacheRepo() *stubCacheRepo {
	return &stubCacheRepo{entries: map[string][]byte{}}
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = raw
	return nil
}

func testLecturer() *models.Lecturer {
	dept := "Informatika"
	return &models.Lecturer{
		ID:         "lect-1",
		UserID:     "user-1",
		NIP:        "19800101",
		FullName:   "Dr. Rahmat Hidayat",
		Department: &dept,
	}
}

func newTestDashboardService(stats *fakeStatsRepo, advisees *fakeAdvisees, now time.Time) *DashboardService {
	svc := NewDashboardService(DashboardServiceParams{
		Stats:    stats,
		Advisees: advisees,
		Logger:   zap.NewNop(),
		Config:   DashboardServiceConfig{CurrentSemester: 5},
	})
	svc.now = func() time.Time { return now }
	return svc
}

func TestDashboardBuildComposesStats(t *testing.T) {
	now := time.Date(2024, 10, 14, 9, 0, 0, 0, time.UTC)
	stats := &fakeStatsRepo{
		activeKKP:         2,
		activeThesis:      1,
		recommendedThesis: 4,
		pendingExams:      0,
		completedExams:    2,
		courses:           3,
	}
	svc := newTestDashboardService(stats, &fakeAdvisees{count: 5}, now)

	payload, cacheHit, err := svc.Build(context.Background(), testLecturer(), "")
	require.NoError(t, err)
	assert.False(t, cacheHit)

	assert.Equal(t, 5, payload.Stats.TotalMahasiswa)
	assert.Equal(t, 2, payload.Stats.BimbinganKKP)
	assert.Equal(t, 1, payload.Stats.BimbinganTesis)
	assert.Equal(t, 4, payload.Stats.TesisDirekomendasikan)
	assert.Equal(t, 3, payload.Stats.BimbinganAktif)
	assert.Equal(t, 3, payload.Stats.KelasSemesterIni)
	assert.Nil(t, payload.Stats.RatingDosen)

	assert.Equal(t, 5, stats.lastSemester)

	require.Len(t, payload.QuickStats, 4)
	assert.Equal(t, "Pending Review", payload.QuickStats[0].Label)
	assert.Equal(t, 0, payload.QuickStats[0].Count)
	assert.Equal(t, 3, payload.QuickStats[2].Count)
	assert.Equal(t, 2, payload.QuickStats[3].Count)

	assert.Equal(t, "Dr. Rahmat Hidayat", payload.Lecturer.FullName)
	assert.NotNil(t, payload.RecentActivities)
	assert.NotNil(t, payload.UpcomingSchedule)
	assert.Empty(t, payload.Error)
}

func TestDashboardBuildIsolatesSingleQueryFailure(t *testing.T) {
	now := time.Date(2024, 10, 14, 9, 0, 0, 0, time.UTC)
	stats := &fakeStatsRepo{
		activeKKPErr:      errors.New("connection reset"),
		activeThesis:      2,
		recommendedThesis: 6,
		pendingExams:      1,
		completedExams:    3,
		courses:           2,
	}
	svc := newTestDashboardService(stats, &fakeAdvisees{count: 9}, now)

	payload, _, err := svc.Build(context.Background(), testLecturer(), "")
	require.NoError(t, err)

	assert.Equal(t, 0, payload.Stats.BimbinganKKP)
	assert.Equal(t, 9, payload.Stats.TotalMahasiswa)
	assert.Equal(t, 2, payload.Stats.BimbinganTesis)
	assert.Equal(t, 6, payload.Stats.TesisDirekomendasikan)
	assert.Equal(t, 1, payload.Stats.UjianPending)
	assert.Equal(t, 3, payload.Stats.UjianSelesaiBulanIni)
	assert.Equal(t, 2, payload.Stats.KelasSemesterIni)
	assert.Equal(t, 2, payload.Stats.BimbinganAktif)
	assert.Empty(t, payload.Error)
}

func TestDashboardBuildRecoversPanickingQuery(t *testing.T) {
	now := time.Date(2024, 10, 14, 9, 0, 0, 0, time.UTC)
	stats := &fakeStatsRepo{
		activeKKPPanic: true,
		activeThesis:   1,
	}
	svc := newTestDashboardService(stats, &fakeAdvisees{count: 4}, now)

	payload, _, err := svc.Build(context.Background(), testLecturer(), "")
	require.NoError(t, err)

	assert.Equal(t, 0, payload.Stats.BimbinganKKP)
	assert.Equal(t, 4, payload.Stats.TotalMahasiswa)
	assert.Equal(t, 1, payload.Stats.BimbinganTesis)
}

func TestDashboardBuildAllQueriesFailYieldsDefaults(t *testing.T) {
	boom := errors.New("db down")
	now := time.Date(2024, 10, 14, 9, 0, 0, 0, time.UTC)
	stats := &fakeStatsRepo{
		activeKKPErr:         boom,
		activeThesisErr:      boom,
		recommendedThesisErr: boom,
		pendingExamsErr:      boom,
		completedExamsErr:    boom,
		coursesErr:           boom,
		pendingKKPErr:        boom,
		upcomingExamsErr:     boom,
		consultationsErr:     boom,
	}
	svc := newTestDashboardService(stats, &fakeAdvisees{err: boom}, now)

	payload, _, err := svc.Build(context.Background(), testLecturer(), "")
	require.NoError(t, err)

	assert.Zero(t, payload.Stats.TotalMahasiswa)
	assert.Zero(t, payload.Stats.BimbinganAktif)
	assert.Empty(t, payload.RecentActivities)
	assert.Empty(t, payload.UpcomingSchedule)
	assert.NotNil(t, payload.RecentActivities)
	assert.NotNil(t, payload.UpcomingSchedule)
}

func TestDashboardBuildRejectsNilLecturer(t *testing.T) {
	svc := newTestDashboardService(&fakeStatsRepo{}, &fakeAdvisees{}, time.Now())

	_, _, err := svc.Build(context.Background(), nil, "")
	require.Error(t, err)
}

func TestRecentActivitiesSortedDescendingAndCapped(t *testing.T) {
	now := time.Date(2024, 10, 14, 9, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time { return now.Add(time.Duration(offset) * 24 * time.Hour) }

	exam1 := day(1)
	exam2 := day(2)
	exam3 := day(3)
	stats := &fakeStatsRepo{
		pendingKKP: []models.KKPApplication{
			{Title: "KKP A", StudentName: "Andi", SubmittedAt: day(-1)},
			{Title: "KKP B", StudentName: "Budi", SubmittedAt: day(-2)},
			{Title: "KKP C", StudentName: "Citra", SubmittedAt: day(-3)},
		},
		upcomingExams: []models.ExamApplication{
			{Type: "Proposal", StudentName: "Dewi", ScheduledAt: &exam1},
			{Type: "Skripsi", StudentName: "Eka", ScheduledAt: &exam2},
			{Type: "Proposal", StudentName: "Fajar", ScheduledAt: &exam3},
		},
	}
	svc := newTestDashboardService(stats, &fakeAdvisees{}, now)

	payload, _, err := svc.Build(context.Background(), testLecturer(), "")
	require.NoError(t, err)

	activities := payload.RecentActivities
	require.LessOrEqual(t, len(activities), 10)
	require.Len(t, activities, 6)
	for i := 1; i < len(activities); i++ {
		assert.False(t, activities[i].Date.After(activities[i-1].Date), "activities must be date-descending")
	}
	assert.Equal(t, "exam", activities[0].Type)
	assert.Equal(t, "Fajar", activities[0].StudentName)
}

func TestUpcomingScheduleSortedAscendingAndCapped(t *testing.T) {
	now := time.Date(2024, 10, 14, 9, 0, 0, 0, time.UTC)
	hour := func(offset int) time.Time { return now.Add(time.Duration(offset) * time.Hour) }

	consultations := make([]models.Consultation, 0, 5)
	for i := 0; i < 5; i++ {
		consultations = append(consultations, models.Consultation{
			Topic:       "Bimbingan skripsi",
			StudentName: "Mahasiswa",
			ScheduledAt: hour(48 + i),
		})
	}
	exams := make([]models.ExamApplication, 0, 5)
	for i := 0; i < 5; i++ {
		at := hour(1 + i)
		exams = append(exams, models.ExamApplication{Type: "Skripsi", StudentName: "Peserta", ScheduledAt: &at})
	}
	stats := &fakeStatsRepo{consultations: consultations, upcomingExams: exams}
	svc := newTestDashboardService(stats, &fakeAdvisees{}, now)

	payload, _, err := svc.Build(context.Background(), testLecturer(), "")
	require.NoError(t, err)

	schedule := payload.UpcomingSchedule
	require.Len(t, schedule, 10)
	assert.Equal(t, "ujian", schedule[0].Type)
	assert.Equal(t, "konsultasi", schedule[9].Type)
	for i := 1; i < len(schedule); i++ {
		assert.LessOrEqual(t, schedule[i-1].Date+schedule[i-1].Time, schedule[i].Date+schedule[i].Time)
	}
}

func TestQuickStatsCountsTodayAndToleratesMalformedDates(t *testing.T) {
	now := time.Date(2024, 10, 14, 9, 0, 0, 0, time.UTC)
	today := now.Add(2 * time.Hour)
	tomorrow := now.Add(26 * time.Hour)

	stats := &fakeStatsRepo{
		consultations: []models.Consultation{
			{Topic: "Hari ini", StudentName: "Andi", ScheduledAt: today},
			{Topic: "Besok", StudentName: "Budi", ScheduledAt: tomorrow},
		},
		pendingExams: 7,
	}
	svc := newTestDashboardService(stats, &fakeAdvisees{}, now)

	payload, _, err := svc.Build(context.Background(), testLecturer(), "")
	require.NoError(t, err)

	assert.Equal(t, 7, payload.QuickStats[0].Count)
	assert.Equal(t, 1, payload.QuickStats[1].Count)

	// malformed date: counted as not-today, never a failure
	assert.False(t, isSameDay("31-12-2024", now))
	assert.False(t, isSameDay("", now))
	assert.True(t, isSameDay("2024-10-14", now))
}

func TestDashboardBuildUsesCacheForCredentiallessReads(t *testing.T) {
	now := time.Date(2024, 10, 14, 9, 0, 0, 0, time.UTC)
	cacheSvc := NewCacheService(newStubCacheRepo(), nil, time.Minute, zap.NewNop(), true)

	stats := &fakeStatsRepo{activeKKP: 2}
	syncer := &fakeSyncer{}
	svc := NewDashboardService(DashboardServiceParams{
		Stats:    stats,
		Advisees: &fakeAdvisees{count: 3},
		Syncer:   syncer,
		Cache:    cacheSvc,
		Logger:   zap.NewNop(),
	})
	svc.now = func() time.Time { return now }

	first, hit, err := svc.Build(context.Background(), testLecturer(), "")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, syncer.calls)

	second, hit, err := svc.Build(context.Background(), testLecturer(), "")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.Stats, second.Stats)
	assert.Equal(t, 1, syncer.calls, "cache hit must not trigger another sync")
}

func TestDashboardBuildBypassesCacheWhenTokenPresent(t *testing.T) {
	now := time.Date(2024, 10, 14, 9, 0, 0, 0, time.UTC)
	cacheSvc := NewCacheService(newStubCacheRepo(), nil, time.Minute, zap.NewNop(), true)

	syncer := &fakeSyncer{}
	svc := NewDashboardService(DashboardServiceParams{
		Stats:    &fakeStatsRepo{},
		Advisees: &fakeAdvisees{},
		Syncer:   syncer,
		Cache:    cacheSvc,
		Logger:   zap.NewNop(),
	})
	svc.now = func() time.Time { return now }

	_, hit, err := svc.Build(context.Background(), testLecturer(), "simak-token")
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = svc.Build(context.Background(), testLecturer(), "simak-token")
	require.NoError(t, err)
	assert.False(t, hit, "a credential implies fresh data, cache must be skipped")
	assert.Equal(t, []string{"simak-token", "simak-token"}, syncer.tokens)
}

func TestDefaultDashboardShape(t *testing.T) {
	payload := DefaultDashboard(testLecturer(), "Gagal memuat data dashboard")

	assert.Equal(t, "Gagal memuat data dashboard", payload.Error)
	assert.NotEmpty(t, payload.Warning)
	assert.NotNil(t, payload.RecentActivities)
	assert.NotNil(t, payload.UpcomingSchedule)
	require.Len(t, payload.QuickStats, 4)
	for _, stat := range payload.QuickStats {
		assert.Zero(t, stat.Count)
	}
	assert.Zero(t, payload.Stats.TotalMahasiswa)
	assert.Nil(t, payload.Stats.RatingDosen)
	assert.Equal(t, "Dr. Rahmat Hidayat", payload.Lecturer.FullName)
}
