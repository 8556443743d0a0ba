package socialgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gracepoint-chapel/church-backend/internal/models"
)

// TikTok access tokens last 24 hours when the response omits expires_in.
const tiktokDefaultExpirySeconds = 86400

// tiktokTitleLimit is the longest caption TikTok accepts on a video post.
const tiktokTitleLimit = 150

// TikTokGateway publishes videos through the TikTok content posting API using
// the PULL_FROM_URL source, and refreshes OAuth tokens.
type TikTokGateway struct {
	APIURL       string
	AuthorizeURL string
	httpClient   *http.Client
}

// NewTikTokGateway creates a new TikTokGateway
func NewTikTokGateway() *TikTokGateway {
	return &TikTokGateway{
		APIURL:       "https://open.tiktokapis.com",
		AuthorizeURL: "https://www.tiktok.com/v2/auth/authorize/",
		httpClient:   newHTTPClient(),
	}
}

// Platform returns the platform key this adapter serves
func (g *TikTokGateway) Platform() string {
	return models.PlatformTikTok
}

type tiktokError struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Publish initializes a video upload pulled from the post's media URL.
// TikTok only accepts video content.
func (g *TikTokGateway) Publish(ctx context.Context, post *models.SocialPost, account *models.SocialAccount, settings map[string]string) (string, error) {
	if len(post.MediaURLs) == 0 || post.MediaType != models.MediaTypeVideo {
		return "", errors.New("TikTok requires a video")
	}

	title := post.Content
	if len(title) > tiktokTitleLimit {
		title = title[:tiktokTitleLimit]
	}

	payload := map[string]interface{}{
		"post_info": map[string]interface{}{
			"title":           title,
			"privacy_level":   "MUTUAL_FOLLOW_FRIENDS",
			"disable_duet":    false,
			"disable_comment": false,
			"disable_stitch":  false,
		},
		"source_info": map[string]interface{}{
			"source":    "PULL_FROM_URL",
			"video_url": post.MediaURLs[0],
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("tiktok: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.APIURL+"/v2/post/publish/video/init/", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("tiktok: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+account.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("tiktok: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("tiktok: %w", err)
	}

	var result struct {
		Data struct {
			PublishID string `json:"publish_id"`
		} `json:"data"`
		tiktokError
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("tiktok: failed to parse response: %w", err)
	}
	if result.Error != nil && result.Error.Message != "" {
		return "", errors.New(result.Error.Message)
	}
	return result.Data.PublishID, nil
}

// RefreshToken exchanges the stored refresh token for a fresh access token
func (g *TikTokGateway) RefreshToken(ctx context.Context, account *models.SocialAccount, settings map[string]string) (*Token, error) {
	clientKey := settings["tiktok_client_key"]
	clientSecret := settings["tiktok_client_secret"]
	if clientKey == "" || clientSecret == "" {
		return nil, errors.New("TikTok client credentials not configured")
	}

	form := url.Values{
		"client_key":    {clientKey},
		"client_secret": {clientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {account.RefreshToken},
	}
	token, err := g.requestToken(ctx, form)
	if err != nil {
		return nil, err
	}
	return &token.Token, nil
}

// AuthURL builds the TikTok OAuth authorize URL
func (g *TikTokGateway) AuthURL(settings map[string]string, redirectURI string) (string, error) {
	clientKey := settings["tiktok_client_key"]
	if clientKey == "" {
		return "", errors.New("TikTok client key not configured")
	}
	params := url.Values{
		"client_key":    {clientKey},
		"scope":         {"user.info.basic,video.publish"},
		"response_type": {"code"},
		"redirect_uri":  {redirectURI},
		"state":         {models.PlatformTikTok},
	}
	return g.AuthorizeURL + "?" + params.Encode(), nil
}

// ExchangeCode trades an OAuth code for tokens and fetches the display name
func (g *TikTokGateway) ExchangeCode(ctx context.Context, code, redirectURI string, settings map[string]string) (*ConnectedAccount, error) {
	clientKey := settings["tiktok_client_key"]
	clientSecret := settings["tiktok_client_secret"]
	if clientKey == "" || clientSecret == "" {
		return nil, errors.New("TikTok client credentials not configured")
	}

	form := url.Values{
		"client_key":    {clientKey},
		"client_secret": {clientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {redirectURI},
	}
	token, err := g.requestToken(ctx, form)
	if err != nil {
		return nil, err
	}

	connected := &ConnectedAccount{
		AccountID:    token.openID,
		AccountName:  "TikTok User",
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}

	// Display name is best-effort; the connection is usable without it.
	if name, err := g.fetchDisplayName(ctx, token.AccessToken); err == nil && name != "" {
		connected.AccountName = name
	}
	return connected, nil
}

// tiktokToken carries the platform-native open_id alongside the OAuth fields.
type tiktokToken struct {
	Token
	openID string
}

func (g *TikTokGateway) requestToken(ctx context.Context, form url.Values) (*tiktokToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.APIURL+"/v2/oauth/token/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("tiktok: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tiktok: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tiktok: %w", err)
	}

	var result struct {
		AccessToken      string `json:"access_token"`
		RefreshToken     string `json:"refresh_token"`
		ExpiresIn        int64  `json:"expires_in"`
		OpenID           string `json:"open_id"`
		ErrorText        string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("tiktok: failed to parse token response: %w", err)
	}
	if result.AccessToken == "" {
		if result.ErrorDescription != "" {
			return nil, errors.New(result.ErrorDescription)
		}
		if result.ErrorText != "" {
			return nil, errors.New(result.ErrorText)
		}
		return nil, errors.New("tiktok: token endpoint returned no access token")
	}

	expiresIn := result.ExpiresIn
	if expiresIn == 0 {
		expiresIn = tiktokDefaultExpirySeconds
	}
	return &tiktokToken{
		Token: Token{
			AccessToken:  result.AccessToken,
			RefreshToken: result.RefreshToken,
			Expiry:       time.Now().Add(time.Duration(expiresIn) * time.Second),
		},
		openID: result.OpenID,
	}, nil
}

func (g *TikTokGateway) fetchDisplayName(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.APIURL+"/v2/user/info/?fields=display_name,avatar_url", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var result struct {
		Data struct {
			User struct {
				DisplayName string `json:"display_name"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	return result.Data.User.DisplayName, nil
}
