package services

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gracepoint-chapel/church-backend/internal/models"
	"github.com/gracepoint-chapel/church-backend/pkg/socialgateway"
)

// In-memory repository fakes. Reads hand out copies so a caller mutating a
// row without calling Update does not leak into the store, mirroring how a
// real database behaves.

type fakeCampaignRepo struct {
	mu        sync.Mutex
	campaigns []*models.Campaign
}

func (r *fakeCampaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if campaign.ID.IsZero() {
		campaign.ID = primitive.NewObjectID()
	}
	stored := *campaign
	r.campaigns = append(r.campaigns, &stored)
	return nil
}

func (r *fakeCampaignRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, campaign := range r.campaigns {
		if campaign.ID == id {
			copied := *campaign
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeCampaignRepo) FindAll(ctx context.Context, status string, page, limit int) ([]*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Campaign
	for _, campaign := range r.campaigns {
		if status == "" || campaign.Status == status {
			copied := *campaign
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeCampaignRepo) Count(ctx context.Context, status string) (int64, error) {
	campaigns, _ := r.FindAll(ctx, status, 1, 0)
	return int64(len(campaigns)), nil
}

func (r *fakeCampaignRepo) Update(ctx context.Context, campaign *models.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.campaigns {
		if existing.ID == campaign.ID {
			stored := *campaign
			r.campaigns[i] = &stored
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeCampaignRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.campaigns {
		if existing.ID == id {
			r.campaigns = append(r.campaigns[:i], r.campaigns[i+1:]...)
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeCampaignRepo) FindDueScheduled(ctx context.Context, now time.Time) ([]*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Campaign
	for _, campaign := range r.campaigns {
		if campaign.Status == models.CampaignStatusScheduled && campaign.ScheduledAt != nil && !campaign.ScheduledAt.After(now) {
			copied := *campaign
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeCampaignRepo) FindByStatus(ctx context.Context, status string) ([]*models.Campaign, error) {
	return r.FindAll(ctx, status, 1, 0)
}

func (r *fakeCampaignRepo) UpdateCounts(ctx context.Context, id primitive.ObjectID, sentCount, failedCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, campaign := range r.campaigns {
		if campaign.ID == id {
			campaign.SentCount = sentCount
			campaign.FailedCount = failedCount
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

type fakeRecipientRepo struct {
	mu         sync.Mutex
	recipients []*models.Recipient
}

func (r *fakeRecipientRepo) CreateMany(ctx context.Context, recipients []*models.Recipient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, recipient := range recipients {
		if recipient.ID.IsZero() {
			recipient.ID = primitive.NewObjectID()
		}
		stored := *recipient
		r.recipients = append(r.recipients, &stored)
	}
	return nil
}

func (r *fakeRecipientRepo) FindPending(ctx context.Context, campaignID primitive.ObjectID, limit int) ([]*models.Recipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Recipient
	for _, recipient := range r.recipients {
		if recipient.CampaignID == campaignID && recipient.Status == models.RecipientStatusPending {
			copied := *recipient
			out = append(out, &copied)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeRecipientRepo) FindByCampaign(ctx context.Context, campaignID primitive.ObjectID, limit int) ([]*models.Recipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Recipient
	for _, recipient := range r.recipients {
		if recipient.CampaignID == campaignID {
			copied := *recipient
			out = append(out, &copied)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeRecipientRepo) MarkSent(ctx context.Context, id primitive.ObjectID, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, recipient := range r.recipients {
		if recipient.ID == id {
			recipient.Status = models.RecipientStatusSent
			recipient.SentAt = &sentAt
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeRecipientRepo) MarkFailed(ctx context.Context, id primitive.ObjectID, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, recipient := range r.recipients {
		if recipient.ID == id {
			recipient.Status = models.RecipientStatusFailed
			recipient.ErrorMessage = errorMessage
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeRecipientRepo) CountByStatus(ctx context.Context, campaignID primitive.ObjectID) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, recipient := range r.recipients {
		if recipient.CampaignID == campaignID {
			counts[recipient.Status]++
		}
	}
	return counts, nil
}

func (r *fakeRecipientRepo) CountByCampaign(ctx context.Context, campaignID primitive.ObjectID) (int64, error) {
	counts, _ := r.CountByStatus(ctx, campaignID)
	var total int64
	for _, n := range counts {
		total += n
	}
	return total, nil
}

type fakeAudienceRepo struct {
	all        []*models.AudienceMember
	ministries map[primitive.ObjectID][]*models.AudienceMember
	events     map[primitive.ObjectID][]*models.AudienceMember
}

func (r *fakeAudienceRepo) FindAllMembers(ctx context.Context) ([]*models.AudienceMember, error) {
	return r.all, nil
}

func (r *fakeAudienceRepo) FindMinistryMembers(ctx context.Context, ministryID primitive.ObjectID) ([]*models.AudienceMember, error) {
	return r.ministries[ministryID], nil
}

func (r *fakeAudienceRepo) FindEventRegistrants(ctx context.Context, eventID primitive.ObjectID) ([]*models.AudienceMember, error) {
	return r.events[eventID], nil
}

func (r *fakeAudienceRepo) CountAllMembers(ctx context.Context) (int64, error) {
	return int64(len(r.all)), nil
}

func (r *fakeAudienceRepo) CountMinistryMembers(ctx context.Context, ministryID primitive.ObjectID) (int64, error) {
	return int64(len(r.ministries[ministryID])), nil
}

func (r *fakeAudienceRepo) CountEventRegistrants(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	return int64(len(r.events[eventID])), nil
}

type fakeSettingsRepo struct {
	settings map[string]string
	err      error
}

func (r *fakeSettingsRepo) GetAll(ctx context.Context) (map[string]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.settings == nil {
		return map[string]string{}, nil
	}
	return r.settings, nil
}

type fakeMinistryRepo struct {
	ministries []*models.Ministry
}

func (r *fakeMinistryRepo) FindActive(ctx context.Context) ([]*models.Ministry, error) {
	return r.ministries, nil
}

type fakeEventRepo struct {
	events []*models.Event
}

func (r *fakeEventRepo) FindPublished(ctx context.Context, limit int) ([]*models.Event, error) {
	return r.events, nil
}

type fakeUserRepo struct {
	users []*models.User
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users = append(r.users, user)
	return nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts []*models.SocialAccount
}

func (r *fakeAccountRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.ID == id {
			copied := *account
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeAccountRepo) FindActive(ctx context.Context) ([]*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SocialAccount
	for _, account := range r.accounts {
		if account.IsActive {
			copied := *account
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) FindExpiring(ctx context.Context, before time.Time) ([]*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SocialAccount
	for _, account := range r.accounts {
		if account.IsActive && account.RefreshToken != "" && account.TokenExpiry != nil && account.TokenExpiry.Before(before) {
			copied := *account
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) Upsert(ctx context.Context, account *models.SocialAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.accounts {
		if existing.Platform == account.Platform && existing.AccountID == account.AccountID {
			account.ID = existing.ID
			stored := *account
			r.accounts[i] = &stored
			return nil
		}
	}
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	stored := *account
	r.accounts = append(r.accounts, &stored)
	return nil
}

func (r *fakeAccountRepo) UpdateTokens(ctx context.Context, id primitive.ObjectID, accessToken, refreshToken string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.ID == id {
			account.AccessToken = accessToken
			account.RefreshToken = refreshToken
			account.TokenExpiry = &expiry
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeAccountRepo) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.ID == id {
			account.IsActive = false
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

type fakePostRepo struct {
	mu    sync.Mutex
	posts []*models.SocialPost
}

func (r *fakePostRepo) Create(ctx context.Context, post *models.SocialPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	stored := *post
	r.posts = append(r.posts, &stored)
	return nil
}

func (r *fakePostRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.SocialPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, post := range r.posts {
		if post.ID == id {
			copied := *post
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakePostRepo) FindAll(ctx context.Context, status string, accountID *primitive.ObjectID, page, limit int) ([]*models.SocialPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SocialPost
	for _, post := range r.posts {
		if status != "" && post.Status != status {
			continue
		}
		if accountID != nil && post.AccountID != *accountID {
			continue
		}
		copied := *post
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakePostRepo) Count(ctx context.Context, status string, accountID *primitive.ObjectID) (int64, error) {
	posts, _ := r.FindAll(ctx, status, accountID, 1, 0)
	return int64(len(posts)), nil
}

func (r *fakePostRepo) Update(ctx context.Context, post *models.SocialPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.posts {
		if existing.ID == post.ID {
			stored := *post
			r.posts[i] = &stored
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakePostRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.posts {
		if existing.ID == id {
			r.posts = append(r.posts[:i], r.posts[i+1:]...)
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakePostRepo) FindDueScheduled(ctx context.Context, now time.Time) ([]*models.SocialPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SocialPost
	for _, post := range r.posts {
		if post.Status == models.PostStatusScheduled && post.ScheduledAt != nil && !post.ScheduledAt.After(now) {
			copied := *post
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakePostRepo) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, post := range r.posts {
		if post.ID == id {
			post.Status = status
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakePostRepo) MarkPublished(ctx context.Context, id primitive.ObjectID, platformPostID string, publishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, post := range r.posts {
		if post.ID == id {
			post.Status = models.PostStatusPublished
			post.PlatformPostID = platformPostID
			post.PublishedAt = &publishedAt
			post.ErrorMessage = ""
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakePostRepo) MarkFailed(ctx context.Context, id primitive.ObjectID, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, post := range r.posts {
		if post.ID == id {
			post.Status = models.PostStatusFailed
			post.ErrorMessage = errorMessage
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakePostRepo) FindInRange(ctx context.Context, start, end time.Time) ([]*models.SocialPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inRange := func(t *time.Time) bool {
		return t != nil && !t.Before(start) && !t.After(end)
	}
	var out []*models.SocialPost
	for _, post := range r.posts {
		if inRange(post.ScheduledAt) || inRange(post.PublishedAt) {
			copied := *post
			out = append(out, &copied)
		}
	}
	return out, nil
}

// fakeSMSGateway records outbound sends.
type fakeSMSGateway struct {
	mu      sync.Mutex
	name    string
	calls   []string
	sendErr func(to string) error
}

func (g *fakeSMSGateway) Name() string {
	if g.name == "" {
		return "twilio"
	}
	return g.name
}

func (g *fakeSMSGateway) SendSMS(ctx context.Context, to, message string, settings map[string]string) error {
	g.mu.Lock()
	g.calls = append(g.calls, to)
	g.mu.Unlock()
	if g.sendErr != nil {
		return g.sendErr(to)
	}
	return nil
}

func (g *fakeSMSGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// fakePublisher records publishes for one platform.
type fakePublisher struct {
	platform     string
	publishCalls int
	publishErr   error
	postID       string
}

func (p *fakePublisher) Platform() string {
	return p.platform
}

func (p *fakePublisher) Publish(ctx context.Context, post *models.SocialPost, account *models.SocialAccount, settings map[string]string) (string, error) {
	p.publishCalls++
	if p.publishErr != nil {
		return "", p.publishErr
	}
	if p.postID != "" {
		return p.postID, nil
	}
	return "platform-post-1", nil
}

// fakeRefreshingPublisher also implements token refresh.
type fakeRefreshingPublisher struct {
	fakePublisher
	refreshCalls int
	token        *socialgateway.Token
	refreshErr   error
}

func (p *fakeRefreshingPublisher) RefreshToken(ctx context.Context, account *models.SocialAccount, settings map[string]string) (*socialgateway.Token, error) {
	p.refreshCalls++
	if p.refreshErr != nil {
		return nil, p.refreshErr
	}
	return p.token, nil
}

// fakeConnector implements the OAuth connect flow.
type fakeConnector struct {
	fakePublisher
	authURL      string
	connected    *socialgateway.ConnectedAccount
	exchangeErr  error
	lastRedirect string
}

func (c *fakeConnector) AuthURL(settings map[string]string, redirectURI string) (string, error) {
	c.lastRedirect = redirectURI
	return c.authURL, nil
}

func (c *fakeConnector) ExchangeCode(ctx context.Context, code, redirectURI string, settings map[string]string) (*socialgateway.ConnectedAccount, error) {
	c.lastRedirect = redirectURI
	if c.exchangeErr != nil {
		return nil, c.exchangeErr
	}
	return c.connected, nil
}
