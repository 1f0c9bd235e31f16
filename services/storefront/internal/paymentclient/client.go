package paymentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Skotchmaster/ref_site/services/storefront/internal/cart"
)

var ErrUnavailable = errors.New("payment session unavailable")

type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient talks to the payment session endpoint. Redirects are never
// followed: a 303 is the answer, not a hop.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type sessionRequest struct {
	Items     []cart.LineItem `json:"items"`
	CancelURL string          `json:"cancelUrl,omitempty"`
}

// CreateSession sends the full cart and returns the hosted checkout URL.
// Any transport error or unexpected status wraps ErrUnavailable.
func (c *Client) CreateSession(ctx context.Context, items []cart.LineItem, cancelURL string) (string, error) {
	body, err := json.Marshal(sessionRequest{Items: items, CancelURL: cancelURL})
	if err != nil {
		return "", fmt.Errorf("encode cart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusSeeOther:
		if loc := resp.Header.Get("Location"); loc != "" {
			return loc, nil
		}
		return "", fmt.Errorf("%w: redirect without location", ErrUnavailable)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var out struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
		}
		if out.URL == "" {
			return "", fmt.Errorf("%w: response has no url", ErrUnavailable)
		}
		return out.URL, nil
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, bytes.TrimSpace(msg))
	}
}
