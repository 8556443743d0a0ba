package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gracepoint-chapel/church-backend/internal/models"
	"github.com/gracepoint-chapel/church-backend/internal/repositories"
	"github.com/gracepoint-chapel/church-backend/pkg/socialgateway"
)

// SocialService handles connected accounts and the social post ledger. The
// scheduled-publish path lives in SocialDispatchService; this service owns
// authoring, the OAuth connect flow and immediate publishes.
type SocialService struct {
	postRepo     repositories.SocialPostRepository
	accountRepo  repositories.SocialAccountRepository
	settingsRepo repositories.SettingsRepository
	platforms    *socialgateway.Registry

	apiBaseURL    string
	clientBaseURL string
}

// NewSocialService creates a new SocialService
func NewSocialService(
	postRepo repositories.SocialPostRepository,
	accountRepo repositories.SocialAccountRepository,
	settingsRepo repositories.SettingsRepository,
	platforms *socialgateway.Registry,
	apiBaseURL, clientBaseURL string,
) *SocialService {
	return &SocialService{
		postRepo:      postRepo,
		accountRepo:   accountRepo,
		settingsRepo:  settingsRepo,
		platforms:     platforms,
		apiBaseURL:    strings.TrimRight(apiBaseURL, "/"),
		clientBaseURL: strings.TrimRight(clientBaseURL, "/"),
	}
}

// CreatePostRequest carries a new post's fields
type CreatePostRequest struct {
	AccountID   primitive.ObjectID
	Content     string
	MediaURLs   []string
	MediaType   string
	ScheduledAt *time.Time
}

// UpdatePostRequest carries optional post updates; nil fields are left
// untouched
type UpdatePostRequest struct {
	Content     *string
	MediaURLs   []string
	MediaType   *string
	ScheduledAt *time.Time
}

// ListAccounts returns all active connected accounts
func (s *SocialService) ListAccounts(ctx context.Context) ([]*models.SocialAccount, error) {
	return s.accountRepo.FindActive(ctx)
}

// ConnectURL builds the platform's OAuth authorization URL for the admin UI
// to redirect to.
func (s *SocialService) ConnectURL(ctx context.Context, platform string) (string, error) {
	connector, ok := s.platforms.Connector(platform)
	if !ok {
		return "", validationErrorf("platform %s does not support connecting", platform)
	}
	settings, err := s.settingsRepo.GetAll(ctx)
	if err != nil {
		return "", err
	}
	return connector.AuthURL(settings, s.callbackURI(platform))
}

// HandleCallback completes the OAuth flow. It always returns an admin UI URL
// to redirect the browser to; failures land there with an error parameter
// instead of an error page.
func (s *SocialService) HandleCallback(ctx context.Context, platform, code, oauthErr string) string {
	if oauthErr != "" {
		return s.adminRedirect("error", oauthErr)
	}
	if code == "" {
		return s.adminRedirect("error", "missing authorization code")
	}

	connector, ok := s.platforms.Connector(platform)
	if !ok {
		return s.adminRedirect("error", "unsupported platform")
	}

	settings, err := s.settingsRepo.GetAll(ctx)
	if err != nil {
		return s.adminRedirect("error", "could not load platform settings")
	}

	connected, err := connector.ExchangeCode(ctx, code, s.callbackURI(platform), settings)
	if err != nil {
		return s.adminRedirect("error", err.Error())
	}

	expiry := connected.Expiry
	account := &models.SocialAccount{
		Platform:     platform,
		AccountID:    connected.AccountID,
		AccountName:  connected.AccountName,
		AccessToken:  connected.AccessToken,
		RefreshToken: connected.RefreshToken,
		TokenExpiry:  &expiry,
		IsActive:     true,
	}
	if err := s.accountRepo.Upsert(ctx, account); err != nil {
		return s.adminRedirect("error", "could not store connected account")
	}
	return s.adminRedirect("success", "connected")
}

// DisconnectAccount deactivates an account. Its posts keep their history.
func (s *SocialService) DisconnectAccount(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.findAccount(ctx, id); err != nil {
		return err
	}
	return s.accountRepo.Deactivate(ctx, id)
}

// ListPosts returns a page of posts, optionally filtered by status and account
func (s *SocialService) ListPosts(ctx context.Context, status string, accountID *primitive.ObjectID, page, limit int) ([]*models.SocialPost, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	posts, err := s.postRepo.FindAll(ctx, status, accountID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.postRepo.Count(ctx, status, accountID)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// GetPost returns one post
func (s *SocialService) GetPost(ctx context.Context, id primitive.ObjectID) (*models.SocialPost, error) {
	return s.findPost(ctx, id)
}

// CreatePost validates and stores a new post. A scheduledAt in the request
// creates it SCHEDULED, otherwise DRAFT.
func (s *SocialService) CreatePost(ctx context.Context, req CreatePostRequest, createdBy primitive.ObjectID) (*models.SocialPost, error) {
	if req.Content == "" && len(req.MediaURLs) == 0 {
		return nil, validationErrorf("post content or media is required")
	}

	account, err := s.findAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, validationErrorf("account %s is disconnected", account.AccountName)
	}

	status := models.PostStatusDraft
	if req.ScheduledAt != nil {
		status = models.PostStatusScheduled
	}

	now := time.Now()
	post := &models.SocialPost{
		AccountID:   req.AccountID,
		Content:     req.Content,
		MediaURLs:   req.MediaURLs,
		MediaType:   req.MediaType,
		Status:      status,
		ScheduledAt: req.ScheduledAt,
		CreatedByID: createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// UpdatePost modifies an editable post
func (s *SocialService) UpdatePost(ctx context.Context, id primitive.ObjectID, req UpdatePostRequest) (*models.SocialPost, error) {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.IsEditable() {
		return nil, ErrInvalidState
	}

	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.MediaURLs != nil {
		post.MediaURLs = req.MediaURLs
	}
	if req.MediaType != nil {
		post.MediaType = *req.MediaType
	}
	if req.ScheduledAt != nil {
		post.ScheduledAt = req.ScheduledAt
		post.Status = models.PostStatusScheduled
	}
	if post.Content == "" && len(post.MediaURLs) == 0 {
		return nil, validationErrorf("post content or media is required")
	}
	post.UpdatedAt = time.Now()

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes an editable post
func (s *SocialService) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return err
	}
	if !post.IsEditable() {
		return ErrInvalidState
	}
	return s.postRepo.Delete(ctx, id)
}

// SchedulePost sets or moves a post's publish time
func (s *SocialService) SchedulePost(ctx context.Context, id primitive.ObjectID, scheduledAt time.Time) (*models.SocialPost, error) {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.IsEditable() {
		return nil, ErrInvalidState
	}

	post.ScheduledAt = &scheduledAt
	post.Status = models.PostStatusScheduled
	post.UpdatedAt = time.Now()
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// PublishNow publishes a DRAFT or SCHEDULED post immediately
func (s *SocialService) PublishNow(ctx context.Context, id primitive.ObjectID) (*models.SocialPost, error) {
	post, err := s.findPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.IsEditable() {
		return nil, ErrInvalidState
	}

	account, err := s.findAccount(ctx, post.AccountID)
	if err != nil {
		return nil, err
	}
	publisher, ok := s.platforms.Publisher(account.Platform)
	if !ok {
		return nil, validationErrorf("unsupported platform: %s", account.Platform)
	}

	settings, err := s.settingsRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.postRepo.SetStatus(ctx, post.ID, models.PostStatusPublishing); err != nil {
		return nil, err
	}

	platformPostID, err := publisher.Publish(ctx, post, account, settings)
	if err != nil {
		if markErr := s.postRepo.MarkFailed(ctx, post.ID, err.Error()); markErr != nil {
			return nil, markErr
		}
		return s.findPost(ctx, id)
	}

	if err := s.postRepo.MarkPublished(ctx, post.ID, platformPostID, time.Now()); err != nil {
		return nil, err
	}
	return s.findPost(ctx, id)
}

// Calendar returns all posts scheduled or published within one month
func (s *SocialService) Calendar(ctx context.Context, year int, month time.Month) ([]*models.SocialPost, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return s.postRepo.FindInRange(ctx, start, end)
}

func (s *SocialService) callbackURI(platform string) string {
	return s.apiBaseURL + "/api/v1/social/accounts/callback/" + strings.ToLower(platform)
}

func (s *SocialService) adminRedirect(key, value string) string {
	return s.clientBaseURL + "/admin/social?" + key + "=" + url.QueryEscape(value)
}

func (s *SocialService) findPost(ctx context.Context, id primitive.ObjectID) (*models.SocialPost, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return post, nil
}

func (s *SocialService) findAccount(ctx context.Context, id primitive.ObjectID) (*models.SocialAccount, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return account, nil
}
