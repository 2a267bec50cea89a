package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultResendEndpoint = "https://api.resend.com/emails"

// ResendConfig configures the transactional HTTP email API.
type ResendConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// ResendSender posts messages to the Resend JSON API.
type ResendSender struct {
	cfg    ResendConfig
	from   From
	client *http.Client
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

// NewResendSender builds a sender. A nil client gets one with cfg.Timeout.
func NewResendSender(cfg ResendConfig, from From, client *http.Client) *ResendSender {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultResendEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &ResendSender{cfg: cfg, from: from, client: client}
}

// Send posts the message and treats any non-2xx answer as a failure.
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	fromHeader := s.from.Email
	if s.from.Name != "" {
		fromHeader = fmt.Sprintf("%s <%s>", s.from.Name, s.from.Email)
	}
	body, err := json.Marshal(resendRequest{
		From:    fromHeader,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTMLBody,
		Text:    msg.TextBody,
	})
	if err != nil {
		return fmt.Errorf("encode resend payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("resend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("resend returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}
