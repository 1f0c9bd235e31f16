package feedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var ErrRejected = errors.New("feed service rejected the request")

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Post carries the fields the storefront shows. The service's optional post
// title is not decoded: entries have none.
type Post struct {
	ID     string `json:"id"`
	Body   string `json:"body"`
	TS     string `json:"ts"`
	Edited bool   `json:"edited"`
}

type actionRequest struct {
	Action   string `json:"action"`
	Token    string `json:"token,omitempty"`
	ID       string `json:"id,omitempty"`
	Body     string `json:"body,omitempty"`
	Password string `json:"password,omitempty"`
}

type actionResponse struct {
	OK    bool   `json:"ok"`
	Token string `json:"token"`
	Error string `json:"error"`
	Post  *Post  `json:"post"`
}

func (c *Client) List(ctx context.Context, limit int) ([]Post, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list failed with status: %d", resp.StatusCode)
	}

	var out struct {
		OK    bool   `json:"ok"`
		Posts []Post `json:"posts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !out.OK {
		return nil, ErrRejected
	}
	return out.Posts, nil
}

func (c *Client) Post(ctx context.Context, token, body string) (*Post, error) {
	res, err := c.do(ctx, actionRequest{Action: "post", Token: token, Body: body})
	if err != nil {
		return nil, err
	}
	return res.Post, nil
}

func (c *Client) Edit(ctx context.Context, token, id, body string) error {
	_, err := c.do(ctx, actionRequest{Action: "edit", Token: token, ID: id, Body: body})
	return err
}

func (c *Client) Delete(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, actionRequest{Action: "delete", Token: token, ID: id})
	return err
}

// Verify exchanges the owner passphrase for a short-lived token.
func (c *Client) Verify(ctx context.Context, password string) (string, error) {
	res, err := c.do(ctx, actionRequest{Action: "verify", Password: password})
	if err != nil {
		return "", err
	}
	if res.Token == "" {
		return "", ErrRejected
	}
	return res.Token, nil
}

func (c *Client) do(ctx context.Context, in actionRequest) (*actionResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var out actionResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !out.OK {
		return nil, fmt.Errorf("%w: %s status %d %s", ErrRejected, in.Action, resp.StatusCode, out.Error)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	return &out, nil
}
