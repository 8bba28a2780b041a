// Package delivery talks to the downstream browser-messaging automation
// service that actually sends the outreach messages.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	contentType = "application/json"

	// Sending a message drives a real browser on the other side, so the
	// per-batch timeout is generous.
	defaultTimeout = 5 * time.Minute
)

// Item is one outreach batch entry: where to send and what to say.
type Item struct {
	Destination string `json:"x_url"`
	Message     string `json:"personal_message"`
}

// ItemResult is the per-item delivery status reported by the service.
type ItemResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type batchResponse struct {
	Results []ItemResult `json:"results"`
}

// Client is an HTTP client for the delivery service. Results are passed
// through to the caller untouched; the pipeline never interprets them.
type Client struct {
	baseURL    string
	logger     *zap.Logger
	HTTPClient *http.Client
}

func New(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// SendMessages posts the batch and returns one status per item.
func (c *Client) SendMessages(ctx context.Context, items []Item) ([]ItemResult, error) {
	body, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/send-messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	c.logger.Debug("dispatching outreach batch",
		zap.String("url", url),
		zap.Int("items", len(items)),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send messages: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("send messages: bad status: %s", resp.Status)
	}

	var parsed batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode delivery response: %w", err)
	}

	return parsed.Results, nil
}

// Health pings the delivery service.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("delivery health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delivery health check: bad status: %s", resp.Status)
	}

	return nil
}
