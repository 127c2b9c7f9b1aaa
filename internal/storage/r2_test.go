package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewR2ClientNotConfigured(t *testing.T) {
	_, err := NewR2Client(Config{Endpoint: "https://example.r2.cloudflarestorage.com", Bucket: "snaps"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestObjectURL(t *testing.T) {
	cfg := Config{
		Endpoint:  "https://acct.r2.cloudflarestorage.com/",
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "snaps",
	}
	c, err := NewR2Client(cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://acct.r2.cloudflarestorage.com/snaps/a/b.jpg", c.ObjectURL("/a/b.jpg"))

	cfg.PublicBaseURL = "https://cdn.example.com/"
	c, err = NewR2Client(cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/snaps/a/b.jpg", c.ObjectURL("a/b.jpg"))
}

func TestSnapshotKey(t *testing.T) {
	at := time.Date(2026, 5, 4, 23, 0, 0, 0, time.FixedZone("WAT", 3600))

	key := SnapshotKey(at, "Plate.PNG")
	assert.True(t, strings.HasPrefix(key, "snapshots/2026-05-04/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)

	assert.True(t, strings.HasSuffix(SnapshotKey(at, "picture"), ".jpg"))
	assert.NotEqual(t, SnapshotKey(at, "a.jpg"), SnapshotKey(at, "a.jpg"))
}
