package service

import (
	"alcyxob/fitness-challenges/internal/storage"
	"context"
	"fmt"
	"log"
	"mime"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EvidenceUpload is a presigned upload target for evidence media.
// ObjectKey is what callers pass as the evidence reference of a verification request.
type EvidenceUpload struct {
	UploadURL string    `json:"uploadUrl"`
	ObjectKey string    `json:"objectKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// EvidenceService hands out presigned URLs for evidence media.
// The challenge engine itself treats evidence as an opaque string.
type EvidenceService interface {
	RequestUpload(ctx context.Context, partID, user, contentType, fileName string) (*EvidenceUpload, error)
	DownloadURL(ctx context.Context, verificationRequestID, user string) (string, error)
}

type evidenceService struct {
	challenges ChallengeService
	files      storage.FileStorage
	expiry     time.Duration
}

// NewEvidenceService creates an EvidenceService on top of challenges and files.
func NewEvidenceService(challenges ChallengeService, files storage.FileStorage) EvidenceService {
	return &evidenceService{
		challenges: challenges,
		files:      files,
		expiry:     storage.DefaultPresignedURLExpiry,
	}
}

var extensionPattern = regexp.MustCompile(`^[a-z0-9]{1,8}$`)

// extensionFor picks the object extension from the file name, falling back to the content type.
// Only short alphanumeric extensions are taken from the file name.
func extensionFor(contentType, fileName string) string {
	if i := strings.LastIndex(fileName, "."); i >= 0 {
		if ext := strings.ToLower(fileName[i+1:]); extensionPattern.MatchString(ext) {
			return ext
		}
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return "bin"
}

// RequestUpload returns a presigned PUT URL for evidence of user doing the part.
func (s *evidenceService) RequestUpload(ctx context.Context, partID, user, contentType, fileName string) (*EvidenceUpload, error) {
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
		return nil, ErrInvalidContentType
	}

	challengeID, found, err := s.challenges.GetAssociatedChallenge(ctx, partID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrPartNotFound
	}

	objectKey := fmt.Sprintf("evidence/%s/%s/%s/%s.%s", challengeID, partID, user, uuid.NewString(), extensionFor(contentType, fileName))
	uploadURL, err := s.files.GeneratePresignedUploadURL(ctx, objectKey, contentType, s.expiry)
	if err != nil {
		return nil, fmt.Errorf("presign evidence upload: %w", err)
	}

	log.Printf("INFO: Evidence upload URL issued for part %s, user %s, key %s", partID, user, objectKey)
	return &EvidenceUpload{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
		ExpiresAt: time.Now().UTC().Add(s.expiry),
	}, nil
}

// DownloadURL returns a presigned GET URL for the evidence of a request.
// Only its requester and approver may view it.
func (s *evidenceService) DownloadURL(ctx context.Context, verificationRequestID, user string) (string, error) {
	req, err := s.challenges.GetVerificationRequest(ctx, verificationRequestID)
	if err != nil {
		return "", err
	}
	if user != req.RequesterID && user != req.ApproverID {
		return "", ErrEvidenceAccessDenied
	}
	if req.Evidence == "" {
		return "", ErrEvidenceMissing
	}

	downloadURL, err := s.files.GeneratePresignedDownloadURL(ctx, req.Evidence, s.expiry)
	if err != nil {
		return "", fmt.Errorf("presign evidence download: %w", err)
	}
	return downloadURL, nil
}
