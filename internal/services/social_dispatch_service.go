package services

import (
	"context"
	"log"
	"time"

	"github.com/gracepoint-chapel/church-backend/internal/models"
	"github.com/gracepoint-chapel/church-backend/internal/repositories"
	"github.com/gracepoint-chapel/church-backend/pkg/socialgateway"
)

// accountTokenExpiredMessage is recorded on posts whose account token lapsed
// before publish. The admin UI surfaces it verbatim.
const accountTokenExpiredMessage = "Account token expired. Please reconnect the account."

// SocialDispatchService publishes due scheduled posts and keeps account
// tokens fresh. Each tick refreshes tokens expiring inside the lookahead
// window, then publishes every SCHEDULED post whose time has come.
type SocialDispatchService struct {
	postRepo     repositories.SocialPostRepository
	accountRepo  repositories.SocialAccountRepository
	settingsRepo repositories.SettingsRepository
	platforms    *socialgateway.Registry

	refreshWindow time.Duration

	now func() time.Time
}

// NewSocialDispatchService creates a new SocialDispatchService
func NewSocialDispatchService(
	postRepo repositories.SocialPostRepository,
	accountRepo repositories.SocialAccountRepository,
	settingsRepo repositories.SettingsRepository,
	platforms *socialgateway.Registry,
	refreshWindow time.Duration,
) *SocialDispatchService {
	if refreshWindow <= 0 {
		refreshWindow = 24 * time.Hour
	}
	return &SocialDispatchService{
		postRepo:      postRepo,
		accountRepo:   accountRepo,
		settingsRepo:  settingsRepo,
		platforms:     platforms,
		refreshWindow: refreshWindow,
		now:           time.Now,
	}
}

// Start runs the dispatch loop until ctx is cancelled
func (s *SocialDispatchService) Start(ctx context.Context, interval time.Duration) {
	log.Printf("Social dispatch loop started (interval %s)", interval)
	s.safeTick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Social dispatch loop stopped")
			return
		case <-ticker.C:
			s.safeTick(ctx)
		}
	}
}

func (s *SocialDispatchService) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("social dispatch: recovered from panic: %v", r)
		}
	}()
	s.Tick(ctx)
}

// Tick performs one dispatch pass. Token refresh runs first so a post due
// this tick can ride a token refreshed this tick.
func (s *SocialDispatchService) Tick(ctx context.Context) {
	settings, err := s.settingsRepo.GetAll(ctx)
	if err != nil {
		log.Printf("social dispatch: reading settings: %v", err)
		return
	}

	if err := s.refreshExpiringTokens(ctx, settings); err != nil {
		log.Printf("social dispatch: refreshing tokens: %v", err)
	}
	if err := s.publishDuePosts(ctx, settings); err != nil {
		log.Printf("social dispatch: publishing due posts: %v", err)
	}
}

func (s *SocialDispatchService) refreshExpiringTokens(ctx context.Context, settings map[string]string) error {
	expiring, err := s.accountRepo.FindExpiring(ctx, s.now().Add(s.refreshWindow))
	if err != nil {
		return err
	}

	for _, account := range expiring {
		refresher, ok := s.platforms.Refresher(account.Platform)
		if !ok {
			continue
		}
		token, err := refresher.RefreshToken(ctx, account, settings)
		if err != nil {
			// The old token stays in place; the post fails loudly at
			// publish time if it has lapsed by then.
			log.Printf("social dispatch: refreshing %s token for %s: %v", account.Platform, account.AccountName, err)
			continue
		}
		refreshToken := token.RefreshToken
		if refreshToken == "" {
			refreshToken = account.RefreshToken
		}
		if err := s.accountRepo.UpdateTokens(ctx, account.ID, token.AccessToken, refreshToken, token.Expiry); err != nil {
			log.Printf("social dispatch: storing refreshed %s token for %s: %v", account.Platform, account.AccountName, err)
			continue
		}
		log.Printf("Refreshed %s token for %s", account.Platform, account.AccountName)
	}
	return nil
}

func (s *SocialDispatchService) publishDuePosts(ctx context.Context, settings map[string]string) error {
	due, err := s.postRepo.FindDueScheduled(ctx, s.now())
	if err != nil {
		return err
	}

	for _, post := range due {
		if err := s.publishPost(ctx, post, settings); err != nil {
			log.Printf("social dispatch: publishing post %s: %v", post.ID.Hex(), err)
		}
	}
	return nil
}

func (s *SocialDispatchService) publishPost(ctx context.Context, post *models.SocialPost, settings map[string]string) error {
	account, err := s.accountRepo.FindByID(ctx, post.AccountID)
	if err != nil {
		return s.postRepo.MarkFailed(ctx, post.ID, "connected account not found")
	}

	// Fail fast on a lapsed token instead of burning a doomed API call.
	if account.TokenExpired(s.now()) {
		return s.postRepo.MarkFailed(ctx, post.ID, accountTokenExpiredMessage)
	}

	publisher, ok := s.platforms.Publisher(account.Platform)
	if !ok {
		return s.postRepo.MarkFailed(ctx, post.ID, "unsupported platform: "+account.Platform)
	}

	if err := s.postRepo.SetStatus(ctx, post.ID, models.PostStatusPublishing); err != nil {
		return err
	}

	platformPostID, err := publisher.Publish(ctx, post, account, settings)
	if err != nil {
		return s.postRepo.MarkFailed(ctx, post.ID, err.Error())
	}

	if err := s.postRepo.MarkPublished(ctx, post.ID, platformPostID, s.now()); err != nil {
		return err
	}
	log.Printf("Published post %s to %s (%s)", post.ID.Hex(), account.Platform, platformPostID)
	return nil
}
