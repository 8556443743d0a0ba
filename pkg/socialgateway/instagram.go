package socialgateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gracepoint-chapel/church-backend/internal/models"
)

// InstagramGateway publishes to an Instagram business account through the
// Graph API. Instagram requires a two-step protocol: create a media container
// first, then publish it.
type InstagramGateway struct {
	GraphURL   string
	DialogURL  string
	httpClient *http.Client
}

// NewInstagramGateway creates a new InstagramGateway
func NewInstagramGateway() *InstagramGateway {
	return &InstagramGateway{
		GraphURL:   "https://graph.facebook.com/v18.0",
		DialogURL:  "https://www.facebook.com/v18.0/dialog/oauth",
		httpClient: newHTTPClient(),
	}
}

// Platform returns the platform key this adapter serves
func (g *InstagramGateway) Platform() string {
	return models.PlatformInstagram
}

// Publish creates a media container for the post and publishes it. Instagram
// rejects text-only posts, so at least one media URL is required.
func (g *InstagramGateway) Publish(ctx context.Context, post *models.SocialPost, account *models.SocialAccount, settings map[string]string) (string, error) {
	if len(post.MediaURLs) == 0 {
		return "", errors.New("Instagram requires at least one media item")
	}

	// Step 1: create the container
	containerForm := url.Values{
		"caption":      {post.Content},
		"access_token": {account.AccessToken},
	}
	if post.MediaType == models.MediaTypeVideo {
		containerForm.Set("media_type", "VIDEO")
		containerForm.Set("video_url", post.MediaURLs[0])
	} else {
		containerForm.Set("image_url", post.MediaURLs[0])
	}

	var container struct {
		ID string `json:"id"`
		graphError
	}
	containerEndpoint := fmt.Sprintf("%s/%s/media", g.GraphURL, account.AccountID)
	if err := postForm(ctx, g.httpClient, containerEndpoint, containerForm, &container); err != nil {
		return "", err
	}
	if container.Error.Message != "" {
		return "", errors.New(container.Error.Message)
	}

	// Step 2: publish the container
	publishForm := url.Values{
		"creation_id":  {container.ID},
		"access_token": {account.AccessToken},
	}
	var published struct {
		ID string `json:"id"`
		graphError
	}
	publishEndpoint := fmt.Sprintf("%s/%s/media_publish", g.GraphURL, account.AccountID)
	if err := postForm(ctx, g.httpClient, publishEndpoint, publishForm, &published); err != nil {
		return "", err
	}
	if published.Error.Message != "" {
		return "", errors.New(published.Error.Message)
	}

	return published.ID, nil
}

// AuthURL builds the Meta OAuth dialog URL with Instagram publishing scopes
func (g *InstagramGateway) AuthURL(settings map[string]string, redirectURI string) (string, error) {
	appID := settings["meta_app_id"]
	if appID == "" {
		return "", errors.New("Meta App ID not configured")
	}
	params := url.Values{
		"client_id":    {appID},
		"redirect_uri": {redirectURI},
		"scope":        {"instagram_basic,instagram_content_publish,pages_show_list"},
		"state":        {models.PlatformInstagram},
	}
	return g.DialogURL + "?" + params.Encode(), nil
}

// ExchangeCode trades an OAuth code for a long-lived token and resolves the
// Instagram business account linked to the user's first Facebook page.
func (g *InstagramGateway) ExchangeCode(ctx context.Context, code, redirectURI string, settings map[string]string) (*ConnectedAccount, error) {
	token, err := metaExchangeCode(ctx, g.httpClient, g.GraphURL, code, redirectURI, settings)
	if err != nil {
		return nil, err
	}

	me, err := fetchGraphIdentity(ctx, g.httpClient, g.GraphURL, token.AccessToken)
	if err != nil {
		return nil, err
	}

	connected := &ConnectedAccount{
		AccountID:   me.ID,
		AccountName: me.Name,
		AccessToken: token.AccessToken,
		Expiry:      token.Expiry,
	}

	page, err := resolveGraphPage(ctx, g.httpClient, g.GraphURL, token.AccessToken)
	if err != nil {
		return nil, err
	}

	igEndpoint := fmt.Sprintf("%s/%s?fields=instagram_business_account&access_token=%s",
		g.GraphURL, page.ID, url.QueryEscape(token.AccessToken))
	var ig struct {
		InstagramBusinessAccount *struct {
			ID string `json:"id"`
		} `json:"instagram_business_account"`
		graphError
	}
	if err := getJSON(ctx, g.httpClient, igEndpoint, &ig); err != nil {
		return nil, err
	}
	if ig.Error.Message != "" {
		return nil, errors.New(ig.Error.Message)
	}
	if ig.InstagramBusinessAccount == nil {
		return nil, errors.New("no Instagram business account linked to the Facebook page")
	}

	connected.AccountID = ig.InstagramBusinessAccount.ID
	connected.AccountName = fmt.Sprintf("Instagram (%s)", page.Name)
	return connected, nil
}
