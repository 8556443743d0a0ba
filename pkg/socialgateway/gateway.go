package socialgateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gracepoint-chapel/church-backend/internal/models"
)

// Token is a refreshed or newly issued OAuth token set.
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// ConnectedAccount is the result of an OAuth code exchange: everything needed
// to persist a SocialAccount row.
type ConnectedAccount struct {
	AccountID    string
	AccountName  string
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Publisher publishes one post to its platform. Implementations own the
// provider-specific request shape, including multi-step protocols, and
// normalize every provider failure into a returned error so the dispatch
// loop's control flow is uniform across platforms.
type Publisher interface {
	Platform() string
	Publish(ctx context.Context, post *models.SocialPost, account *models.SocialAccount, settings map[string]string) (postID string, err error)
}

// TokenRefresher exchanges a refresh token for a fresh access token.
// Platforms without refresh support simply do not implement it.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, account *models.SocialAccount, settings map[string]string) (*Token, error)
}

// Connector implements a platform's OAuth connect flow for the admin UI.
type Connector interface {
	AuthURL(settings map[string]string, redirectURI string) (string, error)
	ExchangeCode(ctx context.Context, code, redirectURI string, settings map[string]string) (*ConnectedAccount, error)
}

// Registry selects a platform adapter by the account's platform field.
type Registry struct {
	publishers map[string]Publisher
}

// NewRegistry creates a registry over the given platform adapters
func NewRegistry(publishers ...Publisher) *Registry {
	r := &Registry{publishers: make(map[string]Publisher, len(publishers))}
	for _, publisher := range publishers {
		r.publishers[publisher.Platform()] = publisher
	}
	return r
}

// Register adds or replaces a platform adapter
func (r *Registry) Register(publisher Publisher) {
	r.publishers[publisher.Platform()] = publisher
}

// Publisher returns the adapter for a platform
func (r *Registry) Publisher(platform string) (Publisher, bool) {
	publisher, ok := r.publishers[platform]
	return publisher, ok
}

// Refresher returns the adapter for a platform if it supports token refresh
func (r *Registry) Refresher(platform string) (TokenRefresher, bool) {
	publisher, ok := r.publishers[platform]
	if !ok {
		return nil, false
	}
	refresher, ok := publisher.(TokenRefresher)
	return refresher, ok
}

// Connector returns the adapter for a platform if it supports OAuth connect
func (r *Registry) Connector(platform string) (Connector, bool) {
	publisher, ok := r.publishers[platform]
	if !ok {
		return nil, false
	}
	connector, ok := publisher.(Connector)
	return connector, ok
}

// NewDefaultRegistry wires up every supported platform
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		NewFacebookGateway(),
		NewInstagramGateway(),
		NewTwitterGateway(),
		NewTikTokGateway(),
	)
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
	}
}
