package smsgateway

import (
	"context"
	"net/http"
	"time"
)

// DefaultProvider is used when the settings store carries no sms_provider key.
const DefaultProvider = "twilio"

// Gateway is the outbound SMS delivery port. An implementation translates a
// generic send into one provider's wire call. Credentials arrive in the
// settings map read fresh from the settings store for every dispatch cycle,
// so rotated keys take effect without a restart. Implementations normalize
// every provider failure into a returned error; a missing credential is
// reported before any network call is made.
type Gateway interface {
	Name() string
	SendSMS(ctx context.Context, to, message string, settings map[string]string) error
}

// Registry selects a concrete gateway by its configured provider name.
// Adding a provider is a pure addition: implement Gateway and register it.
type Registry struct {
	gateways map[string]Gateway
}

// NewRegistry creates a registry over the given gateways
func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway, len(gateways))}
	for _, gateway := range gateways {
		r.gateways[gateway.Name()] = gateway
	}
	return r
}

// Register adds or replaces a gateway
func (r *Registry) Register(gateway Gateway) {
	r.gateways[gateway.Name()] = gateway
}

// Lookup returns the gateway registered under the given provider name
func (r *Registry) Lookup(name string) (Gateway, bool) {
	gateway, ok := r.gateways[name]
	return gateway, ok
}

// ForSettings picks the gateway named by the sms_provider setting, falling
// back to the default provider when the key is absent.
func (r *Registry) ForSettings(settings map[string]string) (Gateway, bool) {
	name := settings["sms_provider"]
	if name == "" {
		name = DefaultProvider
	}
	return r.Lookup(name)
}

// NewDefaultRegistry wires up every supported provider
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		NewTwilioGateway(),
		NewAfricasTalkingGateway(),
		NewTermiiGateway(),
	)
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
	}
}
