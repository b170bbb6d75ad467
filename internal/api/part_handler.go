package api

import (
	"alcyxob/fitness-challenges/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PartHandler exposes part completion, peer verification and evidence media.
type PartHandler struct {
	challengeService service.ChallengeService
	evidenceService  service.EvidenceService // nil when object storage is not configured
}

// NewPartHandler creates a new PartHandler.
func NewPartHandler(challengeService service.ChallengeService, evidenceService service.EvidenceService) *PartHandler {
	return &PartHandler{challengeService: challengeService, evidenceService: evidenceService}
}

// --- DTOs ---

// CreateVerificationRequestRequest names the approver and the evidence reference,
// usually the objectKey returned by the evidence upload endpoint.
type CreateVerificationRequestRequest struct {
	Approver string `json:"approver" binding:"required"`
	Evidence string `json:"evidence"`
}

// VerifyRequest names whose request the caller approves.
type VerifyRequest struct {
	Requester string `json:"requester" binding:"required"`
}

// EvidenceUploadRequest describes the media about to be uploaded.
type EvidenceUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
	FileName    string `json:"fileName"`
}

// --- Actions ---

// CompletePart godoc
// @Summary Complete a part
// @Description Marks the part as done by the caller. Completing every part completes the challenge.
// @Tags Parts
// @Produce json
// @Security BearerAuth
// @Param partId path string true "Part ID"
// @Success 200 {object} gin.H
// @Failure 404 {object} gin.H "Part or challenge not found"
// @Failure 409 {object} gin.H "Challenge closed or caller not an accepted participant"
// @Router /parts/{partId}/complete [post]
func (h *PartHandler) CompletePart(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	if err := h.challengeService.CompletePart(c.Request.Context(), c.Param("partId"), userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// CreateVerificationRequest asks the named approver to confirm the caller did the part.
func (h *PartHandler) CreateVerificationRequest(c *gin.Context) {
	var req CreateVerificationRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	id, err := h.challengeService.CreateVerificationRequest(c.Request.Context(), c.Param("partId"), userID, req.Approver, req.Evidence)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"verificationRequest": id})
}

// Verify approves a pending request. The caller must be its designated approver.
func (h *PartHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	if err := h.challengeService.Verify(c.Request.Context(), c.Param("partId"), req.Requester, userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *PartHandler) EvidenceUploadURL(c *gin.Context) {
	if h.evidenceService == nil {
		abortWithError(c, http.StatusServiceUnavailable, "Evidence storage is not configured.")
		return
	}
	var req EvidenceUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	upload, err := h.evidenceService.RequestUpload(c.Request.Context(), c.Param("partId"), userID, req.ContentType, req.FileName)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

// --- Queries ---

func (h *PartHandler) GetPoints(c *gin.Context) {
	points, found, err := h.challengeService.GetPartPoints(c.Request.Context(), c.Param("partId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !found {
		respondServiceError(c, service.ErrPartNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}

func (h *PartHandler) GetChallenge(c *gin.Context) {
	challengeID, found, err := h.challengeService.GetAssociatedChallenge(c.Request.Context(), c.Param("partId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !found {
		respondServiceError(c, service.ErrPartNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenge": challengeID})
}

func (h *PartHandler) IsCompleted(c *gin.Context) {
	completed, err := h.challengeService.IsCompletedPart(c.Request.Context(), c.Param("partId"), c.Param("userId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": completed})
}

// GetMyVerificationRequests lists the requests waiting on the caller.
func (h *PartHandler) GetMyVerificationRequests(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	requests, err := h.challengeService.GetPendingVerifications(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verificationRequests": requests})
}

func (h *PartHandler) GetEvidenceURL(c *gin.Context) {
	if h.evidenceService == nil {
		abortWithError(c, http.StatusServiceUnavailable, "Evidence storage is not configured.")
		return
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	url, err := h.evidenceService.DownloadURL(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
