package visits

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RemoteCounter calls an external counting service. URL may contain a
// {visitor} placeholder; the response is {"count": N} or {"value": N}.
type RemoteCounter struct {
	url    string
	client *http.Client
}

func NewRemoteCounter(rawURL string, timeout time.Duration) (*RemoteCounter, error) {
	if _, err := url.Parse(strings.ReplaceAll(rawURL, "{visitor}", "x")); err != nil {
		return nil, fmt.Errorf("visits: bad counter url: %w", err)
	}
	return &RemoteCounter{url: rawURL, client: &http.Client{Timeout: timeout}}, nil
}

func (c *RemoteCounter) Hit(ctx context.Context, visitorID string) (int64, error) {
	if visitorID == "" {
		return 0, ErrNoVisitor
	}
	target := strings.ReplaceAll(c.url, "{visitor}", url.PathEscape(visitorID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("visits: counter service returned %s", resp.Status)
	}

	var body struct {
		Count *int64 `json:"count"`
		Value *int64 `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("visits: decode counter response: %w", err)
	}
	switch {
	case body.Count != nil:
		return *body.Count, nil
	case body.Value != nil:
		return *body.Value, nil
	default:
		return 0, fmt.Errorf("visits: counter response has no count")
	}
}
