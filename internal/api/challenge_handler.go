package api

import (
	"alcyxob/fitness-challenges/internal/domain"
	"alcyxob/fitness-challenges/internal/service"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ChallengeHandler exposes challenge actions and queries.
type ChallengeHandler struct {
	challengeService service.ChallengeService
}

// NewChallengeHandler creates a new ChallengeHandler.
func NewChallengeHandler(challengeService service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

// --- DTOs ---

// CreateChallengeRequest defines the expected JSON for creating a challenge.
// Numbers are decoded as float64 so fractional values reach validation.
type CreateChallengeRequest struct {
	CreatorType string   `json:"creatorType"` // "User" (default) or "Group"
	Creator     string   `json:"creator"`     // Group ID; ignored for User challenges
	Exercise    string   `json:"exercise"`
	Level       float64  `json:"level"`
	Reps        *float64 `json:"reps"`
	Sets        *float64 `json:"sets"`
	Weight      *float64 `json:"weight"`
	Minutes     *float64 `json:"minutes"`
	Frequency   float64  `json:"frequency"`
	Duration    float64  `json:"duration"`
}

// InviteRequest lists the users to invite.
type InviteRequest struct {
	Users []string `json:"users" binding:"required"`
}

// UserFlagsResponse describes one user's relation to a challenge.
type UserFlagsResponse struct {
	Participant bool `json:"participant"`
	Invited     bool `json:"invited"`
	Completed   bool `json:"completed"`
	Creator     bool `json:"creator"`
}

// --- Actions ---

// CreateChallenge godoc
// @Summary Create a challenge
// @Description Creates a closed challenge with its full schedule of parts. User challenges are always created by the caller.
// @Tags Challenges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param challenge body CreateChallengeRequest true "Challenge definition"
// @Success 201 {object} gin.H "{"challenge": id}"
// @Failure 400 {object} gin.H "Validation error"
// @Router /challenges [post]
func (h *ChallengeHandler) CreateChallenge(c *gin.Context) {
	var req CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	creatorType := domain.CreatorType(req.CreatorType)
	creator := req.Creator
	if creatorType == "" {
		creatorType = domain.CreatorUser
	}
	if creatorType == domain.CreatorUser {
		creator = userID
	}

	id, err := h.challengeService.CreateChallenge(c.Request.Context(), service.CreateChallengeInput{
		Creator:     creator,
		CreatorType: creatorType,
		Level:       req.Level,
		Exercise:    req.Exercise,
		Reps:        req.Reps,
		Sets:        req.Sets,
		Weight:      req.Weight,
		Minutes:     req.Minutes,
		Frequency:   req.Frequency,
		Duration:    req.Duration,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"challenge": id})
}

func (h *ChallengeHandler) OpenChallenge(c *gin.Context) {
	if err := h.challengeService.OpenChallenge(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *ChallengeHandler) CloseChallenge(c *gin.Context) {
	if err := h.challengeService.CloseChallenge(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// DeleteChallenge removes the challenge together with its parts, roster and verification requests.
func (h *ChallengeHandler) DeleteChallenge(c *gin.Context) {
	if err := h.challengeService.DeleteChallenge(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *ChallengeHandler) Invite(c *gin.Context) {
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if err := h.challengeService.InviteToChallenge(c.Request.Context(), c.Param("id"), req.Users); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Accept and Leave act on behalf of the caller.
func (h *ChallengeHandler) Accept(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	if err := h.challengeService.AcceptChallenge(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *ChallengeHandler) Leave(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	if err := h.challengeService.LeaveChallenge(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// --- Queries ---

func (h *ChallengeHandler) GetDetails(c *gin.Context) {
	details, err := h.challengeService.GetChallengeDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if details == nil {
		respondServiceError(c, service.ErrChallengeNotFound)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *ChallengeHandler) GetCreator(c *gin.Context) {
	creator, err := h.challengeService.GetCreator(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if creator == nil {
		respondServiceError(c, service.ErrChallengeNotFound)
		return
	}
	c.JSON(http.StatusOK, creator)
}

func (h *ChallengeHandler) IsOpen(c *gin.Context) {
	open, err := h.challengeService.IsOpen(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"open": open})
}

func (h *ChallengeHandler) GetPoints(c *gin.Context) {
	bonus, found, err := h.challengeService.GetChallengePoints(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !found {
		respondServiceError(c, service.ErrChallengeNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bonusPoints": bonus})
}

func (h *ChallengeHandler) GetParts(c *gin.Context) {
	parts, err := h.challengeService.GetParts(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parts": parts})
}

func (h *ChallengeHandler) GetParticipants(c *gin.Context) {
	h.respondUsers(c, h.challengeService.GetParticipants)
}

func (h *ChallengeHandler) GetInvitees(c *gin.Context) {
	h.respondUsers(c, h.challengeService.GetInvitees)
}

func (h *ChallengeHandler) GetCompleters(c *gin.Context) {
	h.respondUsers(c, h.challengeService.GetCompleters)
}

func (h *ChallengeHandler) respondUsers(c *gin.Context, list func(ctx context.Context, challengeID string) ([]string, error)) {
	users, err := list(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetUserFlags reports how a user relates to a challenge.
func (h *ChallengeHandler) GetUserFlags(c *gin.Context) {
	ctx := c.Request.Context()
	challengeID, userID := c.Param("id"), c.Param("userId")

	var flags UserFlagsResponse
	var err error
	if flags.Participant, err = h.challengeService.IsParticipant(ctx, challengeID, userID); err != nil {
		respondServiceError(c, err)
		return
	}
	if flags.Invited, err = h.challengeService.IsInvited(ctx, challengeID, userID); err != nil {
		respondServiceError(c, err)
		return
	}
	if flags.Completed, err = h.challengeService.IsCompletedChallenge(ctx, challengeID, userID); err != nil {
		respondServiceError(c, err)
		return
	}
	if flags.Creator, err = h.challengeService.IsUserCreator(ctx, challengeID, userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, flags)
}

func (h *ChallengeHandler) IsGroupCreator(c *gin.Context) {
	isCreator, err := h.challengeService.IsGroupCreator(c.Request.Context(), c.Param("id"), c.Param("groupId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"creator": isCreator})
}

func (h *ChallengeHandler) GetChallengesForUser(c *gin.Context) {
	ids, err := h.challengeService.GetChallengesForUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": ids})
}

// GetMyChallenges returns the full challenges the caller has accepted.
func (h *ChallengeHandler) GetMyChallenges(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	challenges, err := h.challengeService.ListChallengesForUser(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": challenges})
}
