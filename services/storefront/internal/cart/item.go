package cart

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ProductID accepts both the numeric ids of older carts and string ids.
type ProductID string

func (p *ProductID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = ProductID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = ProductID(n.String())
	return nil
}

type LineItem struct {
	ID           ProductID `json:"id,omitempty"`
	PriceID      string    `json:"priceId"`
	Title        string    `json:"title"`
	DisplayPrice string    `json:"displayPrice"`
	File         string    `json:"file,omitempty"`
	Size         string    `json:"size,omitempty"`
	Color        string    `json:"color,omitempty"`
	Quantity     int       `json:"quantity"`
}

// SameLine reports whether two items are the same cart line: equal price id,
// size and color.
func (li LineItem) SameLine(o LineItem) bool {
	return li.PriceID == o.PriceID && li.Size == o.Size && li.Color == o.Color
}

func indexOf(items []LineItem, target LineItem) int {
	for i, it := range items {
		if it.SameLine(target) {
			return i
		}
	}
	return -1
}
