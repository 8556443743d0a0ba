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

// Twitter access tokens last two hours when the response omits expires_in.
const twitterDefaultExpirySeconds = 7200

// twitterCodeChallenge is the plain-method PKCE value used for both the
// authorize URL and the code exchange; the callback is stateless so the
// verifier cannot vary per request.
const twitterCodeChallenge = "challenge"

// TwitterGateway publishes tweets through the X API v2 and refreshes OAuth2
// tokens for accounts connected with offline access.
type TwitterGateway struct {
	APIURL       string
	AuthorizeURL string
	httpClient   *http.Client
}

// NewTwitterGateway creates a new TwitterGateway
func NewTwitterGateway() *TwitterGateway {
	return &TwitterGateway{
		APIURL:       "https://api.twitter.com",
		AuthorizeURL: "https://twitter.com/i/oauth2/authorize",
		httpClient:   newHTTPClient(),
	}
}

// Platform returns the platform key this adapter serves
func (g *TwitterGateway) Platform() string {
	return models.PlatformTwitter
}

type twitterError struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	ErrorText        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *twitterError) message() string {
	if len(e.Errors) > 0 {
		return e.Errors[0].Message
	}
	if e.ErrorDescription != "" {
		return e.ErrorDescription
	}
	return e.ErrorText
}

// Publish posts a text tweet. Media upload needs the separate v1.1 upload
// endpoint and is not implemented; attached media URLs are ignored.
func (g *TwitterGateway) Publish(ctx context.Context, post *models.SocialPost, account *models.SocialAccount, settings map[string]string) (string, error) {
	payload, err := json.Marshal(map[string]string{"text": post.Content})
	if err != nil {
		return "", fmt.Errorf("twitter: failed to marshal tweet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.APIURL+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("twitter: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+account.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("twitter: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("twitter: %w", err)
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
		twitterError
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("twitter: failed to parse response: %w", err)
	}
	if msg := result.message(); msg != "" {
		return "", errors.New(msg)
	}
	return result.Data.ID, nil
}

// RefreshToken exchanges the stored refresh token for a fresh access token
func (g *TwitterGateway) RefreshToken(ctx context.Context, account *models.SocialAccount, settings map[string]string) (*Token, error) {
	apiKey := settings["twitter_api_key"]
	apiSecret := settings["twitter_api_secret"]
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("Twitter API credentials not configured")
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {account.RefreshToken},
	}
	token, err := g.requestToken(ctx, form, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	return token, nil
}

// AuthURL builds the OAuth2 authorize URL with plain-method PKCE
func (g *TwitterGateway) AuthURL(settings map[string]string, redirectURI string) (string, error) {
	apiKey := settings["twitter_api_key"]
	if apiKey == "" {
		return "", errors.New("Twitter API key not configured")
	}
	params := url.Values{
		"response_type":         {"code"},
		"client_id":             {apiKey},
		"redirect_uri":          {redirectURI},
		"scope":                 {"tweet.read tweet.write users.read offline.access"},
		"state":                 {models.PlatformTwitter},
		"code_challenge":        {twitterCodeChallenge},
		"code_challenge_method": {"plain"},
	}
	return g.AuthorizeURL + "?" + params.Encode(), nil
}

// ExchangeCode trades an OAuth code for tokens and fetches the account identity
func (g *TwitterGateway) ExchangeCode(ctx context.Context, code, redirectURI string, settings map[string]string) (*ConnectedAccount, error) {
	apiKey := settings["twitter_api_key"]
	apiSecret := settings["twitter_api_secret"]
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("Twitter API credentials not configured")
	}

	form := url.Values{
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {redirectURI},
		"code_verifier": {twitterCodeChallenge},
	}
	token, err := g.requestToken(ctx, form, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.APIURL+"/2/users/me", nil)
	if err != nil {
		return nil, fmt.Errorf("twitter: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twitter: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("twitter: %w", err)
	}

	var user struct {
		Data struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"data"`
		twitterError
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("twitter: failed to parse user response: %w", err)
	}
	if msg := user.message(); msg != "" {
		return nil, errors.New(msg)
	}

	return &ConnectedAccount{
		AccountID:    user.Data.ID,
		AccountName:  "@" + user.Data.Username,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}, nil
}

// requestToken posts to the OAuth2 token endpoint with basic auth
func (g *TwitterGateway) requestToken(ctx context.Context, form url.Values, apiKey, apiSecret string) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.APIURL+"/2/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("twitter: failed to create request: %w", err)
	}
	req.SetBasicAuth(apiKey, apiSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twitter: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("twitter: %w", err)
	}

	var result struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
		twitterError
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("twitter: failed to parse token response: %w", err)
	}
	if result.AccessToken == "" {
		if msg := result.message(); msg != "" {
			return nil, errors.New(msg)
		}
		return nil, errors.New("twitter: token endpoint returned no access token")
	}

	expiresIn := result.ExpiresIn
	if expiresIn == 0 {
		expiresIn = twitterDefaultExpirySeconds
	}
	return &Token{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		Expiry:       time.Now().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}
