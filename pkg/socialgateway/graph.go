package socialgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Shared Meta Graph API plumbing used by the Facebook and Instagram adapters.

// Facebook long-lived user tokens last about 60 days when the response
// omits expires_in.
const facebookDefaultExpirySeconds = 5184000

type graphError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type graphPage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

type graphIdentity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// resolveGraphPage exchanges a user token for the first managed page and its
// page-scoped access token.
func resolveGraphPage(ctx context.Context, client *http.Client, graphURL, accessToken string) (*graphPage, error) {
	endpoint := fmt.Sprintf("%s/me/accounts?access_token=%s", graphURL, url.QueryEscape(accessToken))
	var pages struct {
		Data []graphPage `json:"data"`
		graphError
	}
	if err := getJSON(ctx, client, endpoint, &pages); err != nil {
		return nil, err
	}
	if pages.Error.Message != "" {
		return nil, errors.New(pages.Error.Message)
	}
	if len(pages.Data) == 0 {
		return nil, errors.New("no Facebook page found")
	}
	return &pages.Data[0], nil
}

// metaExchangeCode trades an OAuth code for a short-lived token and upgrades
// it to a long-lived one. Both Meta platforms share this flow.
func metaExchangeCode(ctx context.Context, client *http.Client, graphURL, code, redirectURI string, settings map[string]string) (*Token, error) {
	appID := settings["meta_app_id"]
	appSecret := settings["meta_app_secret"]
	if appID == "" || appSecret == "" {
		return nil, errors.New("Meta app credentials not configured")
	}

	exchange := fmt.Sprintf("%s/oauth/access_token?client_id=%s&client_secret=%s&redirect_uri=%s&code=%s",
		graphURL, url.QueryEscape(appID), url.QueryEscape(appSecret), url.QueryEscape(redirectURI), url.QueryEscape(code))

	var short struct {
		AccessToken string `json:"access_token"`
		graphError
	}
	if err := getJSON(ctx, client, exchange, &short); err != nil {
		return nil, err
	}
	if short.Error.Message != "" {
		return nil, errors.New(short.Error.Message)
	}

	upgrade := fmt.Sprintf("%s/oauth/access_token?grant_type=fb_exchange_token&client_id=%s&client_secret=%s&fb_exchange_token=%s",
		graphURL, url.QueryEscape(appID), url.QueryEscape(appSecret), url.QueryEscape(short.AccessToken))

	var long struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
		graphError
	}
	if err := getJSON(ctx, client, upgrade, &long); err != nil {
		return nil, err
	}
	if long.Error.Message != "" {
		return nil, errors.New(long.Error.Message)
	}

	expiresIn := long.ExpiresIn
	if expiresIn == 0 {
		expiresIn = facebookDefaultExpirySeconds
	}
	return &Token{
		AccessToken: long.AccessToken,
		Expiry:      time.Now().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}

func fetchGraphIdentity(ctx context.Context, client *http.Client, graphURL, accessToken string) (*graphIdentity, error) {
	endpoint := fmt.Sprintf("%s/me?access_token=%s", graphURL, url.QueryEscape(accessToken))
	var me struct {
		graphIdentity
		graphError
	}
	if err := getJSON(ctx, client, endpoint, &me); err != nil {
		return nil, err
	}
	if me.Error.Message != "" {
		return nil, errors.New(me.Error.Message)
	}
	return &me.graphIdentity, nil
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func postForm(ctx context.Context, client *http.Client, endpoint string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
