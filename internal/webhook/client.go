package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/irequest/internal/mq"
)

// Client posts request events as JSON to an external integration endpoint.
// A nil client is a no-op, so the integration stays optional.
type Client struct {
	url    string
	client *http.Client
}

// NewClient constructs a client targeting the provided URL. Returns nil when
// the URL is empty.
func NewClient(url string) *Client {
	if url == "" {
		return nil
	}
	return &Client{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Send delivers one event. Non-2xx responses are errors.
func (c *Client) Send(ctx context.Context, event mq.Event) error {
	if c == nil {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook delivery failed: %s", resp.Status)
	}
	return nil
}
