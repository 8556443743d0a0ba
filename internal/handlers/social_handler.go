package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gracepoint-chapel/church-backend/internal/services"
)

// SocialHandler handles social media endpoints
type SocialHandler struct {
	socialService *services.SocialService
}

// NewSocialHandler creates a new SocialHandler
func NewSocialHandler(socialService *services.SocialService) *SocialHandler {
	return &SocialHandler{socialService: socialService}
}

type postPayload struct {
	AccountID   string     `json:"accountId" binding:"required"`
	Content     string     `json:"content"`
	MediaURLs   []string   `json:"mediaUrls"`
	MediaType   string     `json:"mediaType"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

type updatePostPayload struct {
	Content     *string    `json:"content"`
	MediaURLs   []string   `json:"mediaUrls"`
	MediaType   *string    `json:"mediaType"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

type schedulePostPayload struct {
	ScheduledAt time.Time `json:"scheduledAt" binding:"required"`
}

// ListAccounts handles GET /api/v1/social/accounts
func (h *SocialHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.socialService.ListAccounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// ConnectAccount handles GET /api/v1/social/accounts/:platform/connect
func (h *SocialHandler) ConnectAccount(c *gin.Context) {
	platform := strings.ToUpper(c.Param("platform"))

	authURL, err := h.socialService.ConnectURL(c.Request.Context(), platform)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"authUrl": authURL})
}

// OAuthCallback handles GET /api/v1/social/accounts/:platform/callback. It is
// the only unauthenticated social route; the provider's browser redirect
// carries no bearer token.
func (h *SocialHandler) OAuthCallback(c *gin.Context) {
	platform := strings.ToUpper(c.Param("platform"))
	code := c.Query("code")
	oauthErr := c.Query("error")
	if desc := c.Query("error_description"); oauthErr != "" && desc != "" {
		oauthErr = desc
	}

	redirect := h.socialService.HandleCallback(c.Request.Context(), platform, code, oauthErr)
	c.Redirect(http.StatusFound, redirect)
}

// DisconnectAccount handles DELETE /api/v1/social/accounts/:id
func (h *SocialHandler) DisconnectAccount(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.socialService.DisconnectAccount(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account disconnected"})
}

// ListPosts handles GET /api/v1/social/posts
func (h *SocialHandler) ListPosts(c *gin.Context) {
	status := c.Query("status")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	accountID, ok := parseOptionalObjectID(c, c.Query("accountId"))
	if !ok {
		return
	}

	posts, total, err := h.socialService.ListPosts(c.Request.Context(), status, accountID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetPost handles GET /api/v1/social/posts/:id
func (h *SocialHandler) GetPost(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	post, err := h.socialService.GetPost(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// CreatePost handles POST /api/v1/social/posts
func (h *SocialHandler) CreatePost(c *gin.Context) {
	var payload postPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accountID, ok := parseOptionalObjectID(c, payload.AccountID)
	if !ok {
		return
	}
	if accountID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accountId is required"})
		return
	}

	post, err := h.socialService.CreatePost(c.Request.Context(), services.CreatePostRequest{
		AccountID:   *accountID,
		Content:     payload.Content,
		MediaURLs:   payload.MediaURLs,
		MediaType:   payload.MediaType,
		ScheduledAt: payload.ScheduledAt,
	}, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// UpdatePost handles PUT /api/v1/social/posts/:id
func (h *SocialHandler) UpdatePost(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var payload updatePostPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.socialService.UpdatePost(c.Request.Context(), id, services.UpdatePostRequest{
		Content:     payload.Content,
		MediaURLs:   payload.MediaURLs,
		MediaType:   payload.MediaType,
		ScheduledAt: payload.ScheduledAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// DeletePost handles DELETE /api/v1/social/posts/:id
func (h *SocialHandler) DeletePost(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.socialService.DeletePost(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

// SchedulePost handles POST /api/v1/social/posts/:id/schedule
func (h *SocialHandler) SchedulePost(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var payload schedulePostPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.socialService.SchedulePost(c.Request.Context(), id, payload.ScheduledAt)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// PublishPost handles POST /api/v1/social/posts/:id/publish
func (h *SocialHandler) PublishPost(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	post, err := h.socialService.PublishNow(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// Calendar handles GET /api/v1/social/calendar
func (h *SocialHandler) Calendar(c *gin.Context) {
	now := time.Now()
	year, _ := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	month, _ := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be between 1 and 12"})
		return
	}

	posts, err := h.socialService.Calendar(c.Request.Context(), year, time.Month(month))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}
