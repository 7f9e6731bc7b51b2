package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// TokenSigner issues bearer tokens for relay requests.
type TokenSigner interface {
	Sign(subject string) (string, error)
}

// RelayClient sends mail through a remote mail relay over HTTP.
type RelayClient struct {
	baseURL    string
	httpClient *http.Client
	signer     TokenSigner
}

type SendEmailRequest struct {
	To      string   `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Cc      []string `json:"cc,omitempty"`
	Bcc     []string `json:"bcc,omitempty"`
}

type SendOTPRequest struct {
	Email   string `json:"email"`
	OTP     string `json:"otp"`
	Purpose string `json:"purpose"`
}

type RelayResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Message   string `json:"message,omitempty"`
}

// NewRelayClient builds a client for baseURL. signer may be nil when the relay
// runs without a shared secret.
func NewRelayClient(baseURL string, signer TokenSigner) *RelayClient {
	return &RelayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		signer:     signer,
	}
}

func (c *RelayClient) SendEmail(ctx context.Context, msg *Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	html := msg.HTML
	if html == "" {
		html = "<pre>" + msg.Text + "</pre>"
	}

	return c.post(ctx, "/api/send-email", SendEmailRequest{
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    html,
		Cc:      msg.Cc,
		Bcc:     msg.Bcc,
	})
}

func (c *RelayClient) SendOTP(ctx context.Context, to, otp, purpose string) (string, error) {
	return c.post(ctx, "/api/send-otp", SendOTPRequest{Email: to, OTP: otp, Purpose: purpose})
}

// Health reports whether the relay answered its health check.
func (c *RelayClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health-check", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("relay unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay health check returned %d", resp.StatusCode)
	}
	return nil
}

func (c *RelayClient) post(ctx context.Context, path string, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode relay request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	if c.signer != nil {
		token, err := c.signer.Sign("app")
		if err != nil {
			return "", err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	var result RelayResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("relay returned %d with unreadable body: %w", resp.StatusCode, err)
	}

	if !result.Success {
		log.Error().Str("path", path).Int("status", resp.StatusCode).Str("message", result.Message).Msg("Relay refused email")
		return "", fmt.Errorf("%w: %s", ErrRejected, result.Message)
	}

	return result.MessageID, nil
}
