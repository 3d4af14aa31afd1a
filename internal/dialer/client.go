package dialer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/acme/voice-campaign-manager/internal/config"
)

// Dialer places a single outbound call through the voice provider.
type Dialer interface {
	PlaceCall(ctx context.Context, input PlaceCallInput) (*Call, error)
}

// PlaceCallInput identifies one call: the customer being dialled, the
// assistant persona conducting it, and the originating number identity.
type PlaceCallInput struct {
	PhoneNumber   string
	Name          string
	AssistantID   string
	PhoneNumberID string
	Metadata      map[string]any
}

// Call is the provider's call-placement response.
type Call struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// PlacementError reports a non-2xx response from the provider. It carries
// the provider's status text only; a placement failure is never retried
// here, that decision belongs to the caller.
type PlacementError struct {
	StatusCode int
	Status     string
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("dialer: call placement failed: %s", e.Status)
}

// Client is the HTTP client for the provider's call-placement endpoint.
type Client struct {
	baseURL       string
	apiKey        string
	phoneNumberID string
	http          *http.Client
}

// NewClient builds a provider client from configuration. The API key is
// held privately and never appears in errors or logs.
func NewClient(cfg config.ProviderConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		phoneNumberID: cfg.PhoneNumberID,
		http:          &http.Client{Timeout: timeout},
	}
}

type placeCallRequest struct {
	AssistantID   string         `json:"assistantId"`
	Customer      customer       `json:"customer"`
	PhoneNumberID string         `json:"phoneNumberId"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

type customer struct {
	Number string `json:"number"`
	Name   string `json:"name,omitempty"`
}

// PlaceCall issues a single call-placement request. No retries are
// performed on failure.
func (c *Client) PlaceCall(ctx context.Context, input PlaceCallInput) (*Call, error) {
	if input.PhoneNumber == "" {
		return nil, fmt.Errorf("dialer: phone number is required")
	}

	phoneNumberID := input.PhoneNumberID
	if phoneNumberID == "" {
		phoneNumberID = c.phoneNumberID
	}

	body, err := json.Marshal(placeCallRequest{
		AssistantID:   input.AssistantID,
		Customer:      customer{Number: input.PhoneNumber, Name: input.Name},
		PhoneNumberID: phoneNumberID,
		Metadata:      input.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("dialer: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/call", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("dialer: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dialer: call provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &PlacementError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var call Call
	if err := json.NewDecoder(resp.Body).Decode(&call); err != nil {
		return nil, fmt.Errorf("dialer: decode response: %w", err)
	}
	if call.ID == "" {
		return nil, fmt.Errorf("dialer: provider response missing call id")
	}

	return &call, nil
}
