package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stafflink/finance-api/internal/dto"
	"github.com/stafflink/finance-api/pkg/config"
)

// Client posts rendered notifications to the outbound email/SMS gateway.
type Client struct {
	emailEndpoint string
	smsEndpoint   string
	apiKey        string
	httpClient    *http.Client
}

// NewClient builds a gateway client from configuration.
func NewClient(cfg config.NotifierConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		emailEndpoint: cfg.EmailEndpoint,
		smsEndpoint:   cfg.SMSEndpoint,
		apiKey:        cfg.APIKey,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// SendEmail delivers a rendered email intent to the gateway.
func (c *Client) SendEmail(ctx context.Context, intent dto.EmailIntent) error {
	return c.post(ctx, c.emailEndpoint, intent)
}

// SendSMS delivers a plain text message to the gateway.
func (c *Client) SendSMS(ctx context.Context, to, message string) error {
	payload := map[string]string{"to": to, "message": message}
	return c.post(ctx, c.smsEndpoint, payload)
}

func (c *Client) post(ctx context.Context, endpoint string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notification gateway returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
