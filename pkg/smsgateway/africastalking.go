package smsgateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// AfricasTalkingGateway sends SMS through the Africa's Talking messaging API.
// Auth is an apiKey header on a form-encoded POST.
type AfricasTalkingGateway struct {
	BaseURL    string
	httpClient *http.Client
}

// NewAfricasTalkingGateway creates a new AfricasTalkingGateway
func NewAfricasTalkingGateway() *AfricasTalkingGateway {
	return &AfricasTalkingGateway{
		BaseURL:    "https://api.africastalking.com",
		httpClient: newHTTPClient(),
	}
}

// Name returns the provider key used in the settings store
func (g *AfricasTalkingGateway) Name() string {
	return "africas_talking"
}

// SendSMS sends a single message through Africa's Talking
func (g *AfricasTalkingGateway) SendSMS(ctx context.Context, to, message string, settings map[string]string) error {
	username := settings["africas_talking_username"]
	apiKey := settings["africas_talking_api_key"]

	if username == "" || apiKey == "" {
		return errors.New("africa's talking is not configured")
	}

	form := url.Values{
		"username": {username},
		"to":       {to},
		"message":  {message},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/version1/messaging", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("africa's talking: failed to create request: %w", err)
	}
	req.Header.Set("apiKey", apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("africa's talking: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("africa's talking: request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
