package socialgateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gracepoint-chapel/church-backend/internal/models"
)

// FacebookGateway publishes to a Facebook page through the Graph API.
// Posting requires resolving a page-scoped token from the stored user token
// first, then writing to the page's feed (or photos, when media is attached).
type FacebookGateway struct {
	GraphURL   string
	DialogURL  string
	httpClient *http.Client
}

// NewFacebookGateway creates a new FacebookGateway
func NewFacebookGateway() *FacebookGateway {
	return &FacebookGateway{
		GraphURL:   "https://graph.facebook.com/v18.0",
		DialogURL:  "https://www.facebook.com/v18.0/dialog/oauth",
		httpClient: newHTTPClient(),
	}
}

// Platform returns the platform key this adapter serves
func (g *FacebookGateway) Platform() string {
	return models.PlatformFacebook
}

// Publish posts to the connected page's feed, or to its photos edge when the
// post carries media.
func (g *FacebookGateway) Publish(ctx context.Context, post *models.SocialPost, account *models.SocialAccount, settings map[string]string) (string, error) {
	page, err := resolveGraphPage(ctx, g.httpClient, g.GraphURL, account.AccessToken)
	if err != nil {
		return "", err
	}

	var endpoint string
	form := url.Values{}
	form.Set("access_token", page.AccessToken)

	if len(post.MediaURLs) > 0 {
		endpoint = fmt.Sprintf("%s/%s/photos", g.GraphURL, page.ID)
		form.Set("url", post.MediaURLs[0])
		form.Set("message", post.Content)
	} else {
		endpoint = fmt.Sprintf("%s/%s/feed", g.GraphURL, page.ID)
		form.Set("message", post.Content)
	}

	var result struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
		graphError
	}
	if err := postForm(ctx, g.httpClient, endpoint, form, &result); err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", errors.New(result.Error.Message)
	}
	if result.PostID != "" {
		return result.PostID, nil
	}
	return result.ID, nil
}

// AuthURL builds the Meta OAuth dialog URL with page publishing scopes
func (g *FacebookGateway) AuthURL(settings map[string]string, redirectURI string) (string, error) {
	appID := settings["meta_app_id"]
	if appID == "" {
		return "", errors.New("Meta App ID not configured")
	}
	params := url.Values{
		"client_id":    {appID},
		"redirect_uri": {redirectURI},
		"scope":        {"pages_show_list,pages_read_engagement,pages_manage_posts"},
		"state":        {models.PlatformFacebook},
	}
	return g.DialogURL + "?" + params.Encode(), nil
}

// ExchangeCode trades an OAuth code for a long-lived user token plus the
// account identity.
func (g *FacebookGateway) ExchangeCode(ctx context.Context, code, redirectURI string, settings map[string]string) (*ConnectedAccount, error) {
	token, err := metaExchangeCode(ctx, g.httpClient, g.GraphURL, code, redirectURI, settings)
	if err != nil {
		return nil, err
	}

	me, err := fetchGraphIdentity(ctx, g.httpClient, g.GraphURL, token.AccessToken)
	if err != nil {
		return nil, err
	}

	return &ConnectedAccount{
		AccountID:   me.ID,
		AccountName: me.Name,
		AccessToken: token.AccessToken,
		Expiry:      token.Expiry,
	}, nil
}
