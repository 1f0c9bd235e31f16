package models

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

type LineItem struct {
	PriceID  string `json:"priceId"`
	Quantity int64  `json:"quantity"`
	Title    string `json:"title,omitempty"`
	Size     string `json:"size,omitempty"`
	Color    string `json:"color,omitempty"`
}

type SessionRequest struct {
	Items     []LineItem `json:"items"`
	CancelURL string     `json:"cancelUrl"`
}

// DecodeSessionRequest accepts both body shapes sent by the storefront: the
// bare cart array and the {items, cancelUrl} wrapper. An empty body decodes
// to an empty request.
func DecodeSessionRequest(raw []byte) (SessionRequest, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return SessionRequest{}, nil
	}

	if raw[0] == '[' {
		var items []LineItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return SessionRequest{}, fmt.Errorf("decode cart array: %w", err)
		}
		return SessionRequest{Items: items}, nil
	}

	var req SessionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return SessionRequest{}, fmt.Errorf("decode session request: %w", err)
	}
	return req, nil
}

// DecodePayload reads the base64url encoded {items, cancelUrl} object used by
// browser navigation (GET ?payload=...). Padding is optional.
func DecodePayload(payload string) (SessionRequest, error) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(payload, "="))
	if err != nil {
		return SessionRequest{}, fmt.Errorf("decode payload: %w", err)
	}
	return DecodeSessionRequest(data)
}

func EncodePayload(req SessionRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}
