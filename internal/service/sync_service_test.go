package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siakad-dosen-api/internal/models"
	"github.com/noah-isme/siakad-dosen-api/internal/simak"
)

type fakeLecturerStore struct {
	upserts   []models.LecturerUpsert
	upsertErr error
	merged    *models.Lecturer
	findErr   error
}

func (f *fakeLecturerStore) FindByID(context.Context, string) (*models.Lecturer, error) {
	return f.merged, f.findErr
}

func (f *fakeLecturerStore) Upsert(_ context.Context, input models.LecturerUpsert) error {
	f.upserts = append(f.upserts, input)
	return f.upsertErr
}

type fakeAdviseeStore struct {
	upserts   []models.AdviseeUpsert
	upsertErr error
}

func (f *fakeAdviseeStore) UpsertAdvisee(_ context.Context, input models.AdviseeUpsert) error {
	f.upserts = append(f.upserts, input)
	return f.upsertErr
}

type fakeRecordsClient struct {
	profile      *simak.LecturerRecord
	profileErr   error
	profileCalls int

	roster      []simak.StudentRecord
	rosterErr   error
	rosterCalls int
}

func (f *fakeRecordsClient) FetchLecturerProfile(context.Context, string, string) (*simak.LecturerRecord, error) {
	f.profileCalls++
	return f.profile, f.profileErr
}

func (f *fakeRecordsClient) FetchAdviseeRoster(context.Context, string, string) ([]simak.StudentRecord, error) {
	f.rosterCalls++
	return f.roster, f.rosterErr
}

func TestSyncWithoutTokenIsNoOp(t *testing.T) {
	client := &fakeRecordsClient{}
	svc := NewSyncService(&fakeLecturerStore{}, &fakeAdviseeStore{}, client, nil, nil)

	lecturer := testLecturer()
	result := svc.Sync(context.Background(), lecturer, "")

	assert.Same(t, lecturer, result)
	assert.Zero(t, client.profileCalls)
	assert.Zero(t, client.rosterCalls)
}

func TestSyncMergesProfileAndRoster(t *testing.T) {
	merged := testLecturer()
	pos := "Lektor Kepala"
	merged.Position = &pos

	lecturers := &fakeLecturerStore{merged: merged}
	advisees := &fakeAdviseeStore{}
	client := &fakeRecordsClient{
		profile: &simak.LecturerRecord{
			NIP:        "19800101",
			Name:       "Dr. Rahmat Hidayat",
			Department: "Informatika",
			Position:   "Lektor Kepala",
		},
		roster: []simak.StudentRecord{
			{NIM: "2019001", Name: "Andi", Major: "Informatika", Semester: 7},
			{NIM: "", Name: "Tanpa NIM"},
			{NIM: "2019002", Name: "Budi"},
		},
	}
	svc := NewSyncService(lecturers, advisees, client, nil, nil)

	result := svc.Sync(context.Background(), testLecturer(), "tok")

	require.NotNil(t, result)
	assert.Same(t, merged, result)

	require.Len(t, lecturers.upserts, 1)
	assert.Equal(t, "19800101", lecturers.upserts[0].NIP)
	require.NotNil(t, lecturers.upserts[0].Position)
	assert.Equal(t, "Lektor Kepala", *lecturers.upserts[0].Position)

	// records without a NIM are skipped
	require.Len(t, advisees.upserts, 2)
	assert.Equal(t, "2019001", advisees.upserts[0].NIM)
	assert.Equal(t, "lect-1", advisees.upserts[0].AdvisorID)
	require.NotNil(t, advisees.upserts[0].Semester)
	assert.Equal(t, 7, *advisees.upserts[0].Semester)
	assert.Nil(t, advisees.upserts[1].Major)
}

func TestSyncProfileFailureStillSyncsRoster(t *testing.T) {
	lecturers := &fakeLecturerStore{}
	advisees := &fakeAdviseeStore{}
	client := &fakeRecordsClient{
		profileErr: errors.New("simak timeout"),
		roster:     []simak.StudentRecord{{NIM: "2019001", Name: "Andi"}},
	}
	svc := NewSyncService(lecturers, advisees, client, nil, nil)

	lecturer := testLecturer()
	result := svc.Sync(context.Background(), lecturer, "tok")

	assert.Same(t, lecturer, result, "failed profile sync keeps local data")
	assert.Empty(t, lecturers.upserts)
	require.Len(t, advisees.upserts, 1)
}

func TestSyncRosterFailureKeepsMergedProfile(t *testing.T) {
	merged := testLecturer()
	lecturers := &fakeLecturerStore{merged: merged}
	client := &fakeRecordsClient{
		profile:   &simak.LecturerRecord{NIP: "19800101"},
		rosterErr: errors.New("simak 500"),
	}
	svc := NewSyncService(lecturers, &fakeAdviseeStore{}, client, nil, nil)

	result := svc.Sync(context.Background(), testLecturer(), "tok")

	assert.Same(t, merged, result)
	assert.Equal(t, 1, client.rosterCalls)
}

func TestSyncMissingRemoteProfileKeepsLocal(t *testing.T) {
	lecturers := &fakeLecturerStore{}
	client := &fakeRecordsClient{profile: nil}
	svc := NewSyncService(lecturers, &fakeAdviseeStore{}, client, nil, nil)

	lecturer := testLecturer()
	result := svc.Sync(context.Background(), lecturer, "tok")

	assert.Same(t, lecturer, result)
	assert.Empty(t, lecturers.upserts)
}

func TestSyncIsIdempotent(t *testing.T) {
	merged := testLecturer()
	lecturers := &fakeLecturerStore{merged: merged}
	advisees := &fakeAdviseeStore{}
	client := &fakeRecordsClient{
		profile: &simak.LecturerRecord{NIP: "19800101"},
		roster:  []simak.StudentRecord{{NIM: "2019001", Name: "Andi"}},
	}
	svc := NewSyncService(lecturers, advisees, client, nil, nil)

	first := svc.Sync(context.Background(), testLecturer(), "tok")
	second := svc.Sync(context.Background(), testLecturer(), "tok")

	assert.Equal(t, first, second)
	require.Len(t, advisees.upserts, 2)
	assert.Equal(t, advisees.upserts[0], advisees.upserts[1], "same roster produces identical upserts")
}
