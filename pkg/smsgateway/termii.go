package smsgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// TermiiGateway sends SMS through the Termii API. Termii takes a JSON body
// with the API key carried inside the payload rather than a header.
type TermiiGateway struct {
	BaseURL    string
	httpClient *http.Client
}

// NewTermiiGateway creates a new TermiiGateway
func NewTermiiGateway() *TermiiGateway {
	return &TermiiGateway{
		BaseURL:    "https://api.ng.termii.com",
		httpClient: newHTTPClient(),
	}
}

// Name returns the provider key used in the settings store
func (g *TermiiGateway) Name() string {
	return "termii"
}

// SendSMS sends a single message through Termii
func (g *TermiiGateway) SendSMS(ctx context.Context, to, message string, settings map[string]string) error {
	apiKey := settings["termii_api_key"]
	senderID := settings["termii_sender_id"]

	if apiKey == "" || senderID == "" {
		return errors.New("termii is not configured")
	}

	payload := map[string]string{
		"to":      to,
		"from":    senderID,
		"sms":     message,
		"type":    "plain",
		"channel": "generic",
		"api_key": apiKey,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("termii: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/api/sms/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("termii: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("termii: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("termii: request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return nil
}
