package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gracepoint-chapel/church-backend/internal/models"
	"github.com/gracepoint-chapel/church-backend/internal/repositories"
)

// recipientSampleLimit caps the recipient rows returned with a campaign detail.
const recipientSampleLimit = 100

// previewSampleLimit caps the audience preview sample.
const previewSampleLimit = 50

// CampaignService handles SMS campaign management. Lifecycle transitions
// after SCHEDULED belong to the dispatch engine; this service owns authoring,
// scheduling and cancellation.
type CampaignService struct {
	campaignRepo  repositories.CampaignRepository
	recipientRepo repositories.RecipientRepository
	audienceRepo  repositories.AudienceRepository
	ministryRepo  repositories.MinistryRepository
	eventRepo     repositories.EventRepository
	dispatch      *SMSDispatchService
}

// NewCampaignService creates a new CampaignService
func NewCampaignService(
	campaignRepo repositories.CampaignRepository,
	recipientRepo repositories.RecipientRepository,
	audienceRepo repositories.AudienceRepository,
	ministryRepo repositories.MinistryRepository,
	eventRepo repositories.EventRepository,
	dispatch *SMSDispatchService,
) *CampaignService {
	return &CampaignService{
		campaignRepo:  campaignRepo,
		recipientRepo: recipientRepo,
		audienceRepo:  audienceRepo,
		ministryRepo:  ministryRepo,
		eventRepo:     eventRepo,
		dispatch:      dispatch,
	}
}

// CreateCampaignRequest carries a new campaign's fields
type CreateCampaignRequest struct {
	Name        string
	Message     string
	TargetType  string
	TargetID    *primitive.ObjectID
	ScheduledAt *time.Time
}

// UpdateCampaignRequest carries optional campaign updates; nil fields are
// left untouched
type UpdateCampaignRequest struct {
	Name        *string
	Message     *string
	TargetType  *string
	TargetID    *primitive.ObjectID
	ScheduledAt *time.Time
}

// ListCampaigns returns a page of campaigns, optionally filtered by status
func (s *CampaignService) ListCampaigns(ctx context.Context, status string, page, limit int) ([]*models.Campaign, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	campaigns, err := s.campaignRepo.FindAll(ctx, status, page, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.campaignRepo.Count(ctx, status)
	if err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

// GetCampaign returns a campaign with a sample of its recipient rows
func (s *CampaignService) GetCampaign(ctx context.Context, id primitive.ObjectID) (*models.Campaign, []*models.Recipient, error) {
	campaign, err := s.findCampaign(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	recipients, err := s.recipientRepo.FindByCampaign(ctx, id, recipientSampleLimit)
	if err != nil {
		return nil, nil, err
	}
	return campaign, recipients, nil
}

// CreateCampaign validates and stores a new campaign. A scheduledAt in the
// request creates it SCHEDULED, otherwise DRAFT. TotalRecipients holds a
// preview count; the authoritative count is set when recipients materialize.
func (s *CampaignService) CreateCampaign(ctx context.Context, req CreateCampaignRequest, createdBy primitive.ObjectID) (*models.Campaign, error) {
	if err := validateCampaignFields(req.Name, req.Message, req.TargetType, req.TargetID); err != nil {
		return nil, err
	}

	count, err := countAudience(ctx, s.audienceRepo, req.TargetType, req.TargetID)
	if err != nil {
		return nil, err
	}

	status := models.CampaignStatusDraft
	if req.ScheduledAt != nil {
		status = models.CampaignStatusScheduled
	}

	now := time.Now()
	campaign := &models.Campaign{
		Name:            req.Name,
		Message:         req.Message,
		TargetType:      req.TargetType,
		TargetID:        req.TargetID,
		Status:          status,
		ScheduledAt:     req.ScheduledAt,
		TotalRecipients: int(count),
		CreatedByID:     createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// UpdateCampaign modifies an editable campaign. Campaigns past SCHEDULED are
// immutable.
func (s *CampaignService) UpdateCampaign(ctx context.Context, id primitive.ObjectID, req UpdateCampaignRequest) (*models.Campaign, error) {
	campaign, err := s.findCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if !campaign.IsEditable() {
		return nil, ErrInvalidState
	}

	if req.Name != nil {
		campaign.Name = *req.Name
	}
	if req.Message != nil {
		campaign.Message = *req.Message
	}
	if req.TargetType != nil {
		campaign.TargetType = *req.TargetType
		campaign.TargetID = req.TargetID
	} else if req.TargetID != nil {
		campaign.TargetID = req.TargetID
	}
	if req.ScheduledAt != nil {
		campaign.ScheduledAt = req.ScheduledAt
		campaign.Status = models.CampaignStatusScheduled
	}

	if err := validateCampaignFields(campaign.Name, campaign.Message, campaign.TargetType, campaign.TargetID); err != nil {
		return nil, err
	}

	count, err := countAudience(ctx, s.audienceRepo, campaign.TargetType, campaign.TargetID)
	if err != nil {
		return nil, err
	}
	campaign.TotalRecipients = int(count)
	campaign.UpdatedAt = time.Now()

	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// DeleteCampaign removes a DRAFT campaign
func (s *CampaignService) DeleteCampaign(ctx context.Context, id primitive.ObjectID) error {
	campaign, err := s.findCampaign(ctx, id)
	if err != nil {
		return err
	}
	if campaign.Status != models.CampaignStatusDraft {
		return ErrInvalidState
	}
	return s.campaignRepo.Delete(ctx, id)
}

// SendCampaign starts a DRAFT or SCHEDULED campaign. With a scheduledAt it
// is (re)scheduled for later; without one it starts processing immediately.
func (s *CampaignService) SendCampaign(ctx context.Context, id primitive.ObjectID, scheduledAt *time.Time) (*models.Campaign, error) {
	campaign, err := s.findCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if !campaign.IsEditable() {
		return nil, ErrInvalidState
	}

	if scheduledAt != nil {
		campaign.Status = models.CampaignStatusScheduled
		campaign.ScheduledAt = scheduledAt
		campaign.UpdatedAt = time.Now()
		if err := s.campaignRepo.Update(ctx, campaign); err != nil {
			return nil, err
		}
		return campaign, nil
	}

	if err := s.dispatch.StartCampaign(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// CancelCampaign stops a SCHEDULED or PROCESSING campaign. Recipients already
// sent stay sent; pending ones are never attempted.
func (s *CampaignService) CancelCampaign(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	campaign, err := s.findCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignStatusScheduled && campaign.Status != models.CampaignStatusProcessing {
		return nil, ErrInvalidState
	}

	campaign.Status = models.CampaignStatusCancelled
	campaign.UpdatedAt = time.Now()
	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// PreviewRecipients returns the reachable-member count and a small sample for
// a prospective target, without touching any campaign.
func (s *CampaignService) PreviewRecipients(ctx context.Context, targetType string, targetID *primitive.ObjectID) (int64, []*models.AudienceMember, error) {
	if !isValidTargetType(targetType) {
		return 0, nil, validationErrorf("unknown target type: %s", targetType)
	}
	members, err := resolveAudience(ctx, s.audienceRepo, targetType, targetID)
	if err != nil {
		return 0, nil, err
	}
	sample := members
	if len(sample) > previewSampleLimit {
		sample = sample[:previewSampleLimit]
	}
	return int64(len(members)), sample, nil
}

// ListMinistries lists active ministries for the target picker
func (s *CampaignService) ListMinistries(ctx context.Context) ([]*models.Ministry, error) {
	return s.ministryRepo.FindActive(ctx)
}

// ListEvents lists published events for the target picker
func (s *CampaignService) ListEvents(ctx context.Context) ([]*models.Event, error) {
	return s.eventRepo.FindPublished(ctx, 100)
}

func (s *CampaignService) findCampaign(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return campaign, nil
}

func validateCampaignFields(name, message, targetType string, targetID *primitive.ObjectID) error {
	if name == "" {
		return validationErrorf("campaign name is required")
	}
	if message == "" {
		return validationErrorf("campaign message is required")
	}
	if len(message) > models.MaxCampaignMessageLength {
		return validationErrorf("campaign message exceeds %d characters", models.MaxCampaignMessageLength)
	}
	if !isValidTargetType(targetType) {
		return validationErrorf("unknown target type: %s", targetType)
	}
	if targetType != models.TargetAllMembers && targetID == nil {
		return validationErrorf("target ID is required for target type %s", targetType)
	}
	return nil
}
