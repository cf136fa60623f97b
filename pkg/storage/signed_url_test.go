package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("export-secret", time.Hour)

	token, expiresAt, err := signer.Generate("exp-1", "lect-1/mahasiswa-bimbingan.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	jobID, relPath, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "exp-1", jobID)
	require.Equal(t, "lect-1/mahasiswa-bimbingan.csv", relPath)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("export-secret", time.Hour)
	token, _, err := signer.Generate("exp-1", "lect-1/roster.csv")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[0] = "exp-2"
	_, _, _, err = signer.Parse(strings.Join(parts, "."), false)
	require.Error(t, err)

	other := NewSignedURLSigner("different-secret", time.Hour)
	_, _, _, err = other.Parse(token, false)
	require.Error(t, err)
}

func TestSignedURLExpiry(t *testing.T) {
	signer := NewSignedURLSigner("export-secret", time.Millisecond)
	token, _, err := signer.Generate("exp-1", "lect-1/roster.csv")
	require.NoError(t, err)

	// expiry has one-second resolution
	time.Sleep(1100 * time.Millisecond)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	jobID, relPath, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "exp-1", jobID)
	require.Equal(t, "lect-1/roster.csv", relPath)
}
