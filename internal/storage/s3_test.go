package storage

import (
	"alcyxob/fitness-challenges/internal/config"
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) FileStorage {
	t.Helper()
	fs, err := NewS3Storage(context.Background(), config.S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio-secret",
		BucketName:      "evidence-bucket",
	})
	require.NoError(t, err)
	return fs
}

func TestPresignedUploadURL(t *testing.T) {
	fs := newTestStorage(t)

	raw, err := fs.GeneratePresignedUploadURL(context.Background(), "evidence/c1/p1/u1/clip.mp4", "video/mp4", 5*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/evidence-bucket/evidence/c1/p1/u1/clip.mp4", u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.True(t, strings.HasPrefix(u.Query().Get("X-Amz-Credential"), "minio/"))
}

func TestPresignedDownloadURLDefaultsExpiry(t *testing.T) {
	fs := newTestStorage(t)

	raw, err := fs.GeneratePresignedDownloadURL(context.Background(), "evidence/c1/p1/u1/photo.jpg", 0)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/evidence-bucket/evidence/c1/p1/u1/photo.jpg", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}
