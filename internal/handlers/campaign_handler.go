package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gracepoint-chapel/church-backend/internal/services"
)

// CampaignHandler handles SMS campaign endpoints
type CampaignHandler struct {
	campaignService *services.CampaignService
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(campaignService *services.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

type campaignPayload struct {
	Name        string     `json:"name"`
	Message     string     `json:"message"`
	TargetType  string     `json:"targetType"`
	TargetID    string     `json:"targetId"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

type updateCampaignPayload struct {
	Name        *string    `json:"name"`
	Message     *string    `json:"message"`
	TargetType  *string    `json:"targetType"`
	TargetID    *string    `json:"targetId"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

type sendCampaignPayload struct {
	ScheduledAt *time.Time `json:"scheduledAt"`
}

// ListCampaigns handles GET /api/v1/campaigns
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	status := c.Query("status")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	campaigns, total, err := h.campaignService.ListCampaigns(c.Request.Context(), status, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"campaigns": campaigns,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// GetCampaign handles GET /api/v1/campaigns/:id
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	campaign, recipients, err := h.campaignService.GetCampaign(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"campaign":   campaign,
		"recipients": recipients,
	})
}

// CreateCampaign handles POST /api/v1/campaigns
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var payload campaignPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetID, ok := parseOptionalObjectID(c, payload.TargetID)
	if !ok {
		return
	}

	campaign, err := h.campaignService.CreateCampaign(c.Request.Context(), services.CreateCampaignRequest{
		Name:        payload.Name,
		Message:     payload.Message,
		TargetType:  payload.TargetType,
		TargetID:    targetID,
		ScheduledAt: payload.ScheduledAt,
	}, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

// UpdateCampaign handles PUT /api/v1/campaigns/:id
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var payload updateCampaignPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := services.UpdateCampaignRequest{
		Name:        payload.Name,
		Message:     payload.Message,
		TargetType:  payload.TargetType,
		ScheduledAt: payload.ScheduledAt,
	}
	if payload.TargetID != nil {
		targetID, ok := parseOptionalObjectID(c, *payload.TargetID)
		if !ok {
			return
		}
		req.TargetID = targetID
	}

	campaign, err := h.campaignService.UpdateCampaign(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// DeleteCampaign handles DELETE /api/v1/campaigns/:id
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.campaignService.DeleteCampaign(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Campaign deleted"})
}

// SendCampaign handles POST /api/v1/campaigns/:id/send
func (h *CampaignHandler) SendCampaign(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var payload sendCampaignPayload
	if err := c.ShouldBindJSON(&payload); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	campaign, err := h.campaignService.SendCampaign(c.Request.Context(), id, payload.ScheduledAt)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// CancelCampaign handles POST /api/v1/campaigns/:id/cancel
func (h *CampaignHandler) CancelCampaign(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	campaign, err := h.campaignService.CancelCampaign(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// PreviewRecipients handles GET /api/v1/campaigns/preview-recipients
func (h *CampaignHandler) PreviewRecipients(c *gin.Context) {
	targetType := c.Query("targetType")
	targetID, ok := parseOptionalObjectID(c, c.Query("targetId"))
	if !ok {
		return
	}

	count, sample, err := h.campaignService.PreviewRecipients(c.Request.Context(), targetType, targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":  count,
		"sample": sample,
	})
}

// ListMinistries handles GET /api/v1/campaigns/ministries
func (h *CampaignHandler) ListMinistries(c *gin.Context) {
	ministries, err := h.campaignService.ListMinistries(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ministries)
}

// ListEvents handles GET /api/v1/campaigns/events
func (h *CampaignHandler) ListEvents(c *gin.Context) {
	events, err := h.campaignService.ListEvents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// parseOptionalObjectID treats an empty string as absent
func parseOptionalObjectID(c *gin.Context, hex string) (*primitive.ObjectID, bool) {
	if hex == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return nil, false
	}
	return &id, true
}
