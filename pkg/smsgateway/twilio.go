package smsgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// TwilioGateway sends SMS through the Twilio Messages API. Twilio expects a
// form-encoded POST with HTTP basic auth against the account SID.
type TwilioGateway struct {
	BaseURL    string
	httpClient *http.Client
}

// NewTwilioGateway creates a new TwilioGateway
func NewTwilioGateway() *TwilioGateway {
	return &TwilioGateway{
		BaseURL:    "https://api.twilio.com/2010-04-01",
		httpClient: newHTTPClient(),
	}
}

// Name returns the provider key used in the settings store
func (g *TwilioGateway) Name() string {
	return "twilio"
}

// SendSMS sends a single message through Twilio
func (g *TwilioGateway) SendSMS(ctx context.Context, to, message string, settings map[string]string) error {
	accountSID := settings["twilio_account_sid"]
	authToken := settings["twilio_auth_token"]
	fromNumber := settings["twilio_phone_number"]

	if accountSID == "" || authToken == "" || fromNumber == "" {
		return errors.New("twilio is not configured")
	}

	form := url.Values{
		"To":   {to},
		"From": {fromNumber},
		"Body": {message},
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", g.BaseURL, accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("twilio: failed to create request: %w", err)
	}
	req.SetBasicAuth(accountSID, authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twilio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("twilio: %s", apiErr.Message)
		}
		return fmt.Errorf("twilio: request failed with status %d", resp.StatusCode)
	}

	return nil
}
