package services

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gracepoint-chapel/church-backend/internal/models"
	"github.com/gracepoint-chapel/church-backend/internal/repositories"
	"github.com/gracepoint-chapel/church-backend/pkg/smsgateway"
)

// SMSDispatchService drives SMS campaigns through their lifecycle. Each tick
// promotes due SCHEDULED campaigns to PROCESSING and drains one batch of
// pending recipients per PROCESSING campaign.
type SMSDispatchService struct {
	campaignRepo  repositories.CampaignRepository
	recipientRepo repositories.RecipientRepository
	audienceRepo  repositories.AudienceRepository
	settingsRepo  repositories.SettingsRepository
	gateways      *smsgateway.Registry

	batchSize     int
	ratePerSecond int

	sleep func(time.Duration)
	now   func() time.Time
}

// NewSMSDispatchService creates a new SMSDispatchService
func NewSMSDispatchService(
	campaignRepo repositories.CampaignRepository,
	recipientRepo repositories.RecipientRepository,
	audienceRepo repositories.AudienceRepository,
	settingsRepo repositories.SettingsRepository,
	gateways *smsgateway.Registry,
	batchSize int,
	ratePerSecond int,
) *SMSDispatchService {
	if batchSize <= 0 {
		batchSize = 100
	}
	if ratePerSecond <= 0 {
		ratePerSecond = 10
	}
	return &SMSDispatchService{
		campaignRepo:  campaignRepo,
		recipientRepo: recipientRepo,
		audienceRepo:  audienceRepo,
		settingsRepo:  settingsRepo,
		gateways:      gateways,
		batchSize:     batchSize,
		ratePerSecond: ratePerSecond,
		sleep:         time.Sleep,
		now:           time.Now,
	}
}

// Start runs the dispatch loop until ctx is cancelled. The first tick fires
// immediately so a restart resumes in-flight campaigns without waiting a full
// interval.
func (s *SMSDispatchService) Start(ctx context.Context, interval time.Duration) {
	log.Printf("SMS dispatch loop started (interval %s, batch %d)", interval, s.batchSize)
	s.safeTick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("SMS dispatch loop stopped")
			return
		case <-ticker.C:
			s.safeTick(ctx)
		}
	}
}

func (s *SMSDispatchService) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("sms dispatch: recovered from panic: %v", r)
		}
	}()
	s.Tick(ctx)
}

// Tick performs one dispatch pass. An error in one phase or one campaign is
// logged and never stops work on the others.
func (s *SMSDispatchService) Tick(ctx context.Context) {
	if err := s.promoteScheduled(ctx); err != nil {
		log.Printf("sms dispatch: promoting scheduled campaigns: %v", err)
	}
	if err := s.drainProcessing(ctx); err != nil {
		log.Printf("sms dispatch: draining processing campaigns: %v", err)
	}
}

func (s *SMSDispatchService) promoteScheduled(ctx context.Context) error {
	due, err := s.campaignRepo.FindDueScheduled(ctx, s.now())
	if err != nil {
		return err
	}
	for _, campaign := range due {
		if err := s.StartCampaign(ctx, campaign); err != nil {
			log.Printf("sms dispatch: starting campaign %s: %v", campaign.ID.Hex(), err)
		}
	}
	return nil
}

// StartCampaign transitions a campaign to PROCESSING and materializes its
// recipient rows from current membership state. It is called both by the
// scheduler and by the immediate send action.
func (s *SMSDispatchService) StartCampaign(ctx context.Context, campaign *models.Campaign) error {
	now := s.now()
	campaign.Status = models.CampaignStatusProcessing
	campaign.StartedAt = &now
	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return err
	}

	audience, err := resolveAudience(ctx, s.audienceRepo, campaign.TargetType, campaign.TargetID)
	if err != nil {
		return err
	}

	recipients := make([]*models.Recipient, 0, len(audience))
	for _, member := range audience {
		recipients = append(recipients, &models.Recipient{
			CampaignID: campaign.ID,
			Phone:      member.Phone,
			Name:       member.Name,
			UserID:     member.UserID,
			Status:     models.RecipientStatusPending,
			CreatedAt:  now,
		})
	}
	if len(recipients) > 0 {
		if err := s.recipientRepo.CreateMany(ctx, recipients); err != nil {
			return err
		}
	}

	campaign.TotalRecipients = len(recipients)
	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return err
	}

	log.Printf("Campaign %q started with %d recipients", campaign.Name, len(recipients))
	return nil
}

func (s *SMSDispatchService) drainProcessing(ctx context.Context) error {
	campaigns, err := s.campaignRepo.FindByStatus(ctx, models.CampaignStatusProcessing)
	if err != nil {
		return err
	}
	if len(campaigns) == 0 {
		return nil
	}

	// Settings are read once per tick so provider credentials can rotate
	// without a restart.
	settings, err := s.settingsRepo.GetAll(ctx)
	if err != nil {
		return err
	}

	for _, campaign := range campaigns {
		if err := s.drainCampaign(ctx, campaign, settings); err != nil {
			log.Printf("sms dispatch: draining campaign %s: %v", campaign.ID.Hex(), err)
		}
	}
	return nil
}

func (s *SMSDispatchService) drainCampaign(ctx context.Context, campaign *models.Campaign, settings map[string]string) error {
	// Re-check status so a cancellation issued after the listing stops the
	// campaign before the next send. Messages already sent stay sent.
	current, err := s.campaignRepo.FindByID(ctx, campaign.ID)
	if err != nil {
		return err
	}
	if current.Status != models.CampaignStatusProcessing {
		return nil
	}

	batch, err := s.recipientRepo.FindPending(ctx, current.ID, s.batchSize)
	if err != nil {
		return err
	}

	if len(batch) == 0 {
		return s.completeCampaign(ctx, current)
	}

	s.processBatch(ctx, current, batch, settings)

	sent, failed, err := s.recipientCounts(ctx, current.ID)
	if err != nil {
		return err
	}
	return s.campaignRepo.UpdateCounts(ctx, current.ID, sent, failed)
}

func (s *SMSDispatchService) processBatch(ctx context.Context, campaign *models.Campaign, batch []*models.Recipient, settings map[string]string) {
	gateway, ok := s.gateways.ForSettings(settings)

	for i, recipient := range batch {
		// Hold the send rate under provider limits.
		if i > 0 && i%s.ratePerSecond == 0 {
			s.sleep(time.Second)
		}

		var sendErr error
		if !ok {
			sendErr = errors.New("no SMS provider configured")
		} else {
			sendErr = gateway.SendSMS(ctx, recipient.Phone, campaign.Message, settings)
		}

		if sendErr != nil {
			if err := s.recipientRepo.MarkFailed(ctx, recipient.ID, sendErr.Error()); err != nil {
				log.Printf("sms dispatch: marking recipient %s failed: %v", recipient.ID.Hex(), err)
			}
			continue
		}
		if err := s.recipientRepo.MarkSent(ctx, recipient.ID, s.now()); err != nil {
			log.Printf("sms dispatch: marking recipient %s sent: %v", recipient.ID.Hex(), err)
		}
	}
}

func (s *SMSDispatchService) completeCampaign(ctx context.Context, campaign *models.Campaign) error {
	sent, failed, err := s.recipientCounts(ctx, campaign.ID)
	if err != nil {
		return err
	}

	now := s.now()
	campaign.Status = models.CampaignStatusCompleted
	campaign.CompletedAt = &now
	campaign.SentCount = sent
	campaign.FailedCount = failed
	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return err
	}

	log.Printf("Campaign %q completed: %d sent, %d failed", campaign.Name, sent, failed)
	return nil
}

func (s *SMSDispatchService) recipientCounts(ctx context.Context, campaignID primitive.ObjectID) (int, int, error) {
	counts, err := s.recipientRepo.CountByStatus(ctx, campaignID)
	if err != nil {
		return 0, 0, err
	}
	return int(counts[models.RecipientStatusSent]), int(counts[models.RecipientStatusFailed]), nil
}
