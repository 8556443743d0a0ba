package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gracepoint-chapel/church-backend/internal/models"
	"github.com/gracepoint-chapel/church-backend/pkg/socialgateway"
)

type socialDispatchFixture struct {
	svc       *SocialDispatchService
	posts     *fakePostRepo
	accounts  *fakeAccountRepo
	publisher *fakeRefreshingPublisher
	clock     time.Time
}

func newSocialDispatchFixture(t *testing.T) *socialDispatchFixture {
	t.Helper()
	f := &socialDispatchFixture{
		posts:    &fakePostRepo{},
		accounts: &fakeAccountRepo{},
		publisher: &fakeRefreshingPublisher{
			fakePublisher: fakePublisher{platform: models.PlatformTwitter, postID: "tw-1"},
		},
		clock: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewSocialDispatchService(
		f.posts, f.accounts, &fakeSettingsRepo{},
		socialgateway.NewRegistry(f.publisher), 24*time.Hour,
	)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *socialDispatchFixture) addAccount(t *testing.T, expiry *time.Time, refreshToken string) *models.SocialAccount {
	t.Helper()
	account := &models.SocialAccount{
		Platform:     models.PlatformTwitter,
		AccountID:    "acct-1",
		AccountName:  "@gracepoint",
		AccessToken:  "old-access",
		RefreshToken: refreshToken,
		TokenExpiry:  expiry,
		IsActive:     true,
	}
	if err := f.accounts.Upsert(context.Background(), account); err != nil {
		t.Fatalf("storing account: %v", err)
	}
	return account
}

func (f *socialDispatchFixture) addPost(t *testing.T, account *models.SocialAccount, scheduledAt time.Time) *models.SocialPost {
	t.Helper()
	post := &models.SocialPost{
		AccountID:   account.ID,
		Content:     "Midweek devotional is live",
		Status:      models.PostStatusScheduled,
		ScheduledAt: &scheduledAt,
	}
	if err := f.posts.Create(context.Background(), post); err != nil {
		t.Fatalf("storing post: %v", err)
	}
	return post
}

func TestTickPublishesDuePost(t *testing.T) {
	f := newSocialDispatchFixture(t)
	expiry := f.clock.Add(48 * time.Hour)
	account := f.addAccount(t, &expiry, "")
	post := f.addPost(t, account, f.clock.Add(-time.Minute))

	f.svc.Tick(context.Background())

	got, err := f.posts.FindByID(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("fetching post: %v", err)
	}
	if got.Status != models.PostStatusPublished {
		t.Fatalf("expected PUBLISHED, got %s", got.Status)
	}
	if got.PlatformPostID != "tw-1" {
		t.Errorf("expected platform post ID recorded, got %q", got.PlatformPostID)
	}
	if got.PublishedAt == nil {
		t.Error("expected publishedAt to be set")
	}
	if f.publisher.publishCalls != 1 {
		t.Errorf("expected exactly 1 publish call, got %d", f.publisher.publishCalls)
	}
}

func TestTickIgnoresFuturePost(t *testing.T) {
	f := newSocialDispatchFixture(t)
	expiry := f.clock.Add(48 * time.Hour)
	account := f.addAccount(t, &expiry, "")
	post := f.addPost(t, account, f.clock.Add(time.Hour))

	f.svc.Tick(context.Background())

	got, _ := f.posts.FindByID(context.Background(), post.ID)
	if got.Status != models.PostStatusScheduled {
		t.Errorf("expected the post to stay SCHEDULED, got %s", got.Status)
	}
	if f.publisher.publishCalls != 0 {
		t.Errorf("expected no publish calls, got %d", f.publisher.publishCalls)
	}
}

func TestExpiredTokenFailsFastWithoutAPICall(t *testing.T) {
	f := newSocialDispatchFixture(t)
	expiry := f.clock.Add(-time.Hour)
	account := f.addAccount(t, &expiry, "")
	post := f.addPost(t, account, f.clock.Add(-time.Minute))

	f.svc.Tick(context.Background())

	got, _ := f.posts.FindByID(context.Background(), post.ID)
	if got.Status != models.PostStatusFailed {
		t.Fatalf("expected FAILED, got %s", got.Status)
	}
	if got.ErrorMessage != "Account token expired. Please reconnect the account." {
		t.Errorf("unexpected error message %q", got.ErrorMessage)
	}
	if f.publisher.publishCalls != 0 {
		t.Errorf("expired token must not reach the platform API, got %d calls", f.publisher.publishCalls)
	}
}

func TestPublishErrorMarksPostFailed(t *testing.T) {
	f := newSocialDispatchFixture(t)
	f.publisher.publishErr = errors.New("duplicate content")
	expiry := f.clock.Add(48 * time.Hour)
	account := f.addAccount(t, &expiry, "")
	post := f.addPost(t, account, f.clock.Add(-time.Minute))

	f.svc.Tick(context.Background())

	got, _ := f.posts.FindByID(context.Background(), post.ID)
	if got.Status != models.PostStatusFailed {
		t.Fatalf("expected FAILED, got %s", got.Status)
	}
	if got.ErrorMessage != "duplicate content" {
		t.Errorf("expected the platform error on the post, got %q", got.ErrorMessage)
	}
}

func TestTickDoesNotRepublish(t *testing.T) {
	f := newSocialDispatchFixture(t)
	expiry := f.clock.Add(48 * time.Hour)
	account := f.addAccount(t, &expiry, "")
	f.addPost(t, account, f.clock.Add(-time.Minute))

	f.svc.Tick(context.Background())
	f.svc.Tick(context.Background())
	f.svc.Tick(context.Background())

	if f.publisher.publishCalls != 1 {
		t.Errorf("a published post must never publish again, got %d calls", f.publisher.publishCalls)
	}
}

func TestRefreshesTokenExpiringInsideWindow(t *testing.T) {
	f := newSocialDispatchFixture(t)
	f.publisher.token = &socialgateway.Token{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		Expiry:       f.clock.Add(2 * time.Hour),
	}
	expiry := f.clock.Add(6 * time.Hour) // inside the 24h window
	account := f.addAccount(t, &expiry, "old-refresh")

	f.svc.Tick(context.Background())

	if f.publisher.refreshCalls != 1 {
		t.Fatalf("expected 1 refresh call, got %d", f.publisher.refreshCalls)
	}
	got, _ := f.accounts.FindByID(context.Background(), account.ID)
	if got.AccessToken != "new-access" || got.RefreshToken != "new-refresh" {
		t.Errorf("expected rotated tokens, got %q/%q", got.AccessToken, got.RefreshToken)
	}
	if got.TokenExpiry == nil || !got.TokenExpiry.Equal(f.clock.Add(2*time.Hour)) {
		t.Errorf("expected the new expiry to be stored")
	}
}

func TestRefreshKeepsOldRefreshTokenWhenResponseOmitsIt(t *testing.T) {
	f := newSocialDispatchFixture(t)
	f.publisher.token = &socialgateway.Token{
		AccessToken: "new-access",
		Expiry:      f.clock.Add(2 * time.Hour),
	}
	expiry := f.clock.Add(6 * time.Hour)
	account := f.addAccount(t, &expiry, "old-refresh")

	f.svc.Tick(context.Background())

	got, _ := f.accounts.FindByID(context.Background(), account.ID)
	if got.RefreshToken != "old-refresh" {
		t.Errorf("expected the old refresh token to survive, got %q", got.RefreshToken)
	}
}

func TestRefreshFailureLeavesTokensUntouched(t *testing.T) {
	f := newSocialDispatchFixture(t)
	f.publisher.refreshErr = errors.New("invalid_grant")
	expiry := f.clock.Add(6 * time.Hour)
	account := f.addAccount(t, &expiry, "old-refresh")

	f.svc.Tick(context.Background())

	got, _ := f.accounts.FindByID(context.Background(), account.ID)
	if got.AccessToken != "old-access" || got.RefreshToken != "old-refresh" {
		t.Errorf("failed refresh must not clobber stored tokens, got %q/%q", got.AccessToken, got.RefreshToken)
	}
}

func TestSkipsRefreshOutsideWindowOrWithoutRefreshToken(t *testing.T) {
	f := newSocialDispatchFixture(t)
	farExpiry := f.clock.Add(72 * time.Hour)
	f.addAccount(t, &farExpiry, "old-refresh")

	nearExpiry := f.clock.Add(6 * time.Hour)
	noRefresh := &models.SocialAccount{
		Platform:    models.PlatformTwitter,
		AccountID:   "acct-2",
		AccountName: "@youthministry",
		AccessToken: "access-2",
		TokenExpiry: &nearExpiry,
		IsActive:    true,
	}
	if err := f.accounts.Upsert(context.Background(), noRefresh); err != nil {
		t.Fatalf("storing account: %v", err)
	}

	f.svc.Tick(context.Background())

	if f.publisher.refreshCalls != 0 {
		t.Errorf("expected no refresh calls, got %d", f.publisher.refreshCalls)
	}
}
