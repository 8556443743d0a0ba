package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gracepoint-chapel/church-backend/internal/models"
	"github.com/gracepoint-chapel/church-backend/pkg/smsgateway"
)

type smsDispatchFixture struct {
	svc          *SMSDispatchService
	campaignRepo *fakeCampaignRepo
	recipients   *fakeRecipientRepo
	audience     *fakeAudienceRepo
	gateway      *fakeSMSGateway
	sleeps       []time.Duration
	clock        time.Time
}

func newSMSDispatchFixture(t *testing.T, memberCount int) *smsDispatchFixture {
	t.Helper()

	members := make([]*models.AudienceMember, 0, memberCount)
	for i := 0; i < memberCount; i++ {
		members = append(members, &models.AudienceMember{
			Phone: fmt.Sprintf("+25470000%04d", i),
			Name:  fmt.Sprintf("Member %d", i),
		})
	}

	f := &smsDispatchFixture{
		campaignRepo: &fakeCampaignRepo{},
		recipients:   &fakeRecipientRepo{},
		audience:     &fakeAudienceRepo{all: members},
		gateway:      &fakeSMSGateway{},
		clock:        time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewSMSDispatchService(
		f.campaignRepo, f.recipients, f.audience, &fakeSettingsRepo{},
		smsgateway.NewRegistry(f.gateway), 100, 10,
	)
	f.svc.now = func() time.Time { return f.clock }
	f.svc.sleep = func(d time.Duration) { f.sleeps = append(f.sleeps, d) }
	return f
}

func (f *smsDispatchFixture) addCampaign(t *testing.T, status string, scheduledAt *time.Time) *models.Campaign {
	t.Helper()
	campaign := &models.Campaign{
		Name:        "June newsletter",
		Message:     "Service moves to 9am this Sunday",
		TargetType:  models.TargetAllMembers,
		Status:      status,
		ScheduledAt: scheduledAt,
	}
	if err := f.campaignRepo.Create(context.Background(), campaign); err != nil {
		t.Fatalf("creating campaign: %v", err)
	}
	return campaign
}

// campaign re-reads the single campaign under test
func (f *smsDispatchFixture) campaign(t *testing.T) *models.Campaign {
	t.Helper()
	campaign, err := f.campaignRepo.FindByID(context.Background(), f.campaignRepo.campaigns[0].ID)
	if err != nil {
		t.Fatalf("fetching campaign: %v", err)
	}
	return campaign
}

func TestTickPromotesAndSendsDueCampaign(t *testing.T) {
	f := newSMSDispatchFixture(t, 3)
	due := f.clock.Add(-time.Minute)
	f.addCampaign(t, models.CampaignStatusScheduled, &due)

	f.svc.Tick(context.Background())

	got := f.campaign(t)
	if got.Status != models.CampaignStatusProcessing {
		t.Fatalf("expected PROCESSING after first tick, got %s", got.Status)
	}
	if got.TotalRecipients != 3 {
		t.Errorf("expected 3 recipients materialized, got %d", got.TotalRecipients)
	}
	if got.StartedAt == nil {
		t.Error("expected startedAt to be set")
	}
	if f.gateway.callCount() != 3 {
		t.Errorf("expected 3 sends, got %d", f.gateway.callCount())
	}
	if got.SentCount != 3 || got.FailedCount != 0 {
		t.Errorf("expected counts 3/0, got %d/%d", got.SentCount, got.FailedCount)
	}

	// No pending recipients remain, so the next tick completes the campaign.
	f.svc.Tick(context.Background())

	got = f.campaign(t)
	if got.Status != models.CampaignStatusCompleted {
		t.Fatalf("expected COMPLETED after drain, got %s", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("expected completedAt to be set")
	}
	if f.gateway.callCount() != 3 {
		t.Errorf("completed campaign must not send again, got %d sends", f.gateway.callCount())
	}
}

func TestTickIgnoresCampaignScheduledInTheFuture(t *testing.T) {
	f := newSMSDispatchFixture(t, 2)
	future := f.clock.Add(time.Hour)
	f.addCampaign(t, models.CampaignStatusScheduled, &future)

	f.svc.Tick(context.Background())

	got := f.campaign(t)
	if got.Status != models.CampaignStatusScheduled {
		t.Errorf("expected campaign to stay SCHEDULED, got %s", got.Status)
	}
	if f.gateway.callCount() != 0 {
		t.Errorf("expected no sends, got %d", f.gateway.callCount())
	}
}

func TestBatchRespectsPerSecondRate(t *testing.T) {
	f := newSMSDispatchFixture(t, 25)
	due := f.clock.Add(-time.Minute)
	f.addCampaign(t, models.CampaignStatusScheduled, &due)

	f.svc.Tick(context.Background())

	if f.gateway.callCount() != 25 {
		t.Fatalf("expected 25 sends, got %d", f.gateway.callCount())
	}
	// One pause after each full chunk of 10 except before the first.
	if len(f.sleeps) != 2 {
		t.Fatalf("expected 2 rate pauses, got %d", len(f.sleeps))
	}
	for _, d := range f.sleeps {
		if d != time.Second {
			t.Errorf("expected 1s pause, got %s", d)
		}
	}
}

func TestBatchSizeBoundsTickWork(t *testing.T) {
	f := newSMSDispatchFixture(t, 7)
	f.svc.batchSize = 5
	due := f.clock.Add(-time.Minute)
	f.addCampaign(t, models.CampaignStatusScheduled, &due)

	f.svc.Tick(context.Background())
	if f.gateway.callCount() != 5 {
		t.Fatalf("expected first tick to send one batch of 5, got %d", f.gateway.callCount())
	}

	f.svc.Tick(context.Background())
	if f.gateway.callCount() != 7 {
		t.Fatalf("expected remaining 2 sends on second tick, got %d", f.gateway.callCount())
	}

	got := f.campaign(t)
	if got.Status != models.CampaignStatusProcessing {
		t.Fatalf("campaign completes only once a tick finds no pending rows, got %s", got.Status)
	}

	f.svc.Tick(context.Background())
	got = f.campaign(t)
	if got.Status != models.CampaignStatusCompleted || got.SentCount != 7 {
		t.Errorf("expected COMPLETED with 7 sent, got %s with %d", got.Status, got.SentCount)
	}
}

func TestCancelledCampaignStopsWithoutRollback(t *testing.T) {
	f := newSMSDispatchFixture(t, 6)
	f.svc.batchSize = 3
	due := f.clock.Add(-time.Minute)
	f.addCampaign(t, models.CampaignStatusScheduled, &due)

	// First tick sends one batch of 3.
	f.svc.Tick(context.Background())
	if f.gateway.callCount() != 3 {
		t.Fatalf("expected 3 sends before cancellation, got %d", f.gateway.callCount())
	}

	cancelled := f.campaign(t)
	cancelled.Status = models.CampaignStatusCancelled
	if err := f.campaignRepo.Update(context.Background(), cancelled); err != nil {
		t.Fatalf("cancelling campaign: %v", err)
	}

	f.svc.Tick(context.Background())

	got := f.campaign(t)
	if got.Status != models.CampaignStatusCancelled {
		t.Fatalf("expected campaign to stay CANCELLED, got %s", got.Status)
	}
	if f.gateway.callCount() != 3 {
		t.Errorf("no further sends after cancellation, got %d", f.gateway.callCount())
	}

	counts, _ := f.recipients.CountByStatus(context.Background(), got.ID)
	if counts[models.RecipientStatusSent] != 3 {
		t.Errorf("already-sent recipients must stay SENT, got %d", counts[models.RecipientStatusSent])
	}
	if counts[models.RecipientStatusPending] != 3 {
		t.Errorf("unsent recipients stay PENDING, got %d", counts[models.RecipientStatusPending])
	}
}

func TestSendFailureMarksRecipientWithoutStoppingBatch(t *testing.T) {
	f := newSMSDispatchFixture(t, 3)
	f.gateway.sendErr = func(to string) error {
		if to == "+254700000001" {
			return errors.New("undeliverable destination")
		}
		return nil
	}
	due := f.clock.Add(-time.Minute)
	f.addCampaign(t, models.CampaignStatusScheduled, &due)

	f.svc.Tick(context.Background())

	got := f.campaign(t)
	if got.SentCount != 2 || got.FailedCount != 1 {
		t.Fatalf("expected counts 2/1, got %d/%d", got.SentCount, got.FailedCount)
	}

	rows, _ := f.recipients.FindByCampaign(context.Background(), got.ID, 0)
	var failed *models.Recipient
	for _, row := range rows {
		if row.Status == models.RecipientStatusFailed {
			failed = row
		}
	}
	if failed == nil {
		t.Fatal("expected one FAILED recipient")
	}
	if failed.ErrorMessage != "undeliverable destination" {
		t.Errorf("expected the provider error on the row, got %q", failed.ErrorMessage)
	}

	f.svc.Tick(context.Background())
	got = f.campaign(t)
	if got.Status != models.CampaignStatusCompleted {
		t.Errorf("partial failure still completes the campaign, got %s", got.Status)
	}
}

func TestNoProviderConfiguredFailsRecipients(t *testing.T) {
	f := newSMSDispatchFixture(t, 2)
	f.svc.gateways = smsgateway.NewRegistry() // nothing registered
	due := f.clock.Add(-time.Minute)
	f.addCampaign(t, models.CampaignStatusScheduled, &due)

	f.svc.Tick(context.Background())

	got := f.campaign(t)
	if got.FailedCount != 2 || got.SentCount != 0 {
		t.Fatalf("expected counts 0/2, got %d/%d", got.SentCount, got.FailedCount)
	}

	rows, _ := f.recipients.FindByCampaign(context.Background(), got.ID, 0)
	for _, row := range rows {
		if row.ErrorMessage != "no SMS provider configured" {
			t.Errorf("unexpected error message %q", row.ErrorMessage)
		}
	}
}

func TestEmptyAudienceCompletesWithZeroCounts(t *testing.T) {
	f := newSMSDispatchFixture(t, 0)
	due := f.clock.Add(-time.Minute)
	f.addCampaign(t, models.CampaignStatusScheduled, &due)

	f.svc.Tick(context.Background())
	f.svc.Tick(context.Background())

	got := f.campaign(t)
	if got.Status != models.CampaignStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", got.Status)
	}
	if got.TotalRecipients != 0 || got.SentCount != 0 || got.FailedCount != 0 {
		t.Errorf("expected all-zero counts, got %d/%d/%d", got.TotalRecipients, got.SentCount, got.FailedCount)
	}
}

func TestTickRecipientsMaterializeExactlyOnce(t *testing.T) {
	f := newSMSDispatchFixture(t, 4)
	due := f.clock.Add(-time.Minute)
	campaign := f.addCampaign(t, models.CampaignStatusScheduled, &due)

	f.svc.Tick(context.Background())
	f.svc.Tick(context.Background())
	f.svc.Tick(context.Background())

	total, _ := f.recipients.CountByCampaign(context.Background(), campaign.ID)
	if total != 4 {
		t.Errorf("recipients must materialize exactly once, got %d rows", total)
	}
}
