package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStorage struct {
	uploadKey   string
	contentType string
	downloadKey string
	fail        bool
}

func (s *recordingStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error) {
	if s.fail {
		return "", errors.New("presign failed")
	}
	s.uploadKey, s.contentType = objectKey, contentType
	return "https://s3.local/put/" + objectKey, nil
}

func (s *recordingStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	if s.fail {
		return "", errors.New("presign failed")
	}
	s.downloadKey = objectKey
	return "https://s3.local/get/" + objectKey, nil
}

func TestEvidenceUploadAndDownload(t *testing.T) {
	svc := newTestService(t)
	files := &recordingStorage{}
	evidence := NewEvidenceService(svc, files)
	ctx := context.Background()
	id, parts := openChallenge(t, svc, basicInput())

	upload, err := evidence.RequestUpload(ctx, parts[0].ID, userB, "video/mp4", "run.MOV")
	require.NoError(t, err)
	prefix := "evidence/" + id + "/" + parts[0].ID + "/" + userB + "/"
	assert.True(t, strings.HasPrefix(upload.ObjectKey, prefix), upload.ObjectKey)
	assert.True(t, strings.HasSuffix(upload.ObjectKey, ".mov"), upload.ObjectKey)
	assert.Equal(t, upload.ObjectKey, files.uploadKey)
	assert.Equal(t, "video/mp4", files.contentType)
	assert.True(t, upload.ExpiresAt.After(time.Now()))

	reqID, err := svc.CreateVerificationRequest(ctx, parts[0].ID, userB, userC, upload.ObjectKey)
	require.NoError(t, err)

	url, err := evidence.DownloadURL(ctx, reqID, userC)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.local/get/"+upload.ObjectKey, url)

	_, err = evidence.DownloadURL(ctx, reqID, userA)
	assertChallengeError(t, err, ErrEvidenceAccessDenied)

	_, err = evidence.DownloadURL(ctx, "missing", userC)
	assertChallengeError(t, err, ErrVerificationRequestNotFound)
}

func TestEvidenceUploadKeepsKeyFlat(t *testing.T) {
	svc := newTestService(t)
	evidence := NewEvidenceService(svc, &recordingStorage{})
	ctx := context.Background()
	id, parts := openChallenge(t, svc, basicInput())

	upload, err := evidence.RequestUpload(ctx, parts[0].ID, userB, "image/png", "a.b/../c")
	require.NoError(t, err)
	prefix := "evidence/" + id + "/" + parts[0].ID + "/" + userB + "/"
	require.True(t, strings.HasPrefix(upload.ObjectKey, prefix), upload.ObjectKey)
	name := strings.TrimPrefix(upload.ObjectKey, prefix)
	assert.NotContains(t, name, "/")
	assert.NotContains(t, name, "..")
	assert.True(t, strings.HasSuffix(name, ".png"), upload.ObjectKey)
}

func TestEvidenceUploadRejectsBadInput(t *testing.T) {
	svc := newTestService(t)
	evidence := NewEvidenceService(svc, &recordingStorage{})
	ctx := context.Background()
	_, parts := openChallenge(t, svc, basicInput())

	_, err := evidence.RequestUpload(ctx, parts[0].ID, userB, "application/pdf", "doc.pdf")
	assertChallengeError(t, err, ErrInvalidContentType)

	_, err = evidence.RequestUpload(ctx, "missing", userB, "image/png", "")
	assertChallengeError(t, err, ErrPartNotFound)
}

func TestEvidenceDownloadWithoutEvidence(t *testing.T) {
	svc := newTestService(t)
	evidence := NewEvidenceService(svc, &recordingStorage{})
	ctx := context.Background()
	_, parts := openChallenge(t, svc, basicInput())

	reqID, err := svc.CreateVerificationRequest(ctx, parts[0].ID, userB, userC, "")
	require.NoError(t, err)

	_, err = evidence.DownloadURL(ctx, reqID, userB)
	assertChallengeError(t, err, ErrEvidenceMissing)
}

func TestEvidencePresignFailureIsWrapped(t *testing.T) {
	svc := newTestService(t)
	evidence := NewEvidenceService(svc, &recordingStorage{fail: true})
	_, parts := openChallenge(t, svc, basicInput())

	_, err := evidence.RequestUpload(context.Background(), parts[0].ID, userB, "image/jpeg", "a.jpg")
	require.Error(t, err)
	var challengeErr *ChallengeError
	assert.False(t, errors.As(err, &challengeErr))
	assert.Contains(t, err.Error(), "presign evidence upload")
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, "jpg", extensionFor("image/jpeg", "photo.JPG"))
	assert.Equal(t, "bin", extensionFor("video/x-unknown-thing", ""))
	assert.Equal(t, "bin", extensionFor("video/x-unknown-thing", "trailingdot."))
	assert.Equal(t, "bin", extensionFor("video/x-unknown-thing", "a.b/../c"))
	assert.Equal(t, "bin", extensionFor("video/x-unknown-thing", "clip.mp4?x=1"))
	assert.Equal(t, "bin", extensionFor("video/x-unknown-thing", "clip.verylongext"))
	assert.NotContains(t, extensionFor("image/png", "a.b/../c"), "/")
}
