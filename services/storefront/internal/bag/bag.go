// Package bag renders the bag and checkout summary from the cart.
package bag

import (
	"context"
	"net/url"
	"strings"

	"github.com/Skotchmaster/ref_site/services/storefront/internal/cart"
	"github.com/shopspring/decimal"
)

const ShippingPlaceholder = "TBD"

// ParsePrice keeps only digits and dots, then reads the longest leading
// number. Anything unreadable is zero.
func ParsePrice(s string) decimal.Decimal {
	var b strings.Builder
	dot := false
scan:
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.':
			// a second dot ends the number
			if dot {
				break scan
			}
			dot = true
			b.WriteRune(r)
		}
	}
	num := strings.TrimSuffix(b.String(), ".")
	if num == "" || num == "." {
		return decimal.Zero
	}
	if strings.HasPrefix(num, ".") {
		num = "0" + num
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func FormatPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

type Line struct {
	Item      cart.LineItem `json:"item"`
	Quantity  int           `json:"quantity"`
	UnitPrice string        `json:"unitPrice"`
	LineTotal string        `json:"lineTotal"`
	Href      string        `json:"href"`
}

type View struct {
	Lines       []Line `json:"lines"`
	ItemCount   int    `json:"itemCount"`
	Subtotal    string `json:"subtotal"`
	Shipping    string `json:"shipping"`
	Total       string `json:"total"`
	Empty       bool   `json:"empty"`
	CanContinue bool   `json:"canContinue"`
}

// Render is a pure function of the items: rendering the same cart twice
// gives the same view.
func Render(items []cart.LineItem) View {
	v := View{Lines: make([]Line, 0, len(items)), Shipping: ShippingPlaceholder}
	subtotal := decimal.Zero

	for _, it := range items {
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		unit := ParsePrice(it.DisplayPrice)
		line := unit.Mul(decimal.NewFromInt(int64(qty)))
		subtotal = subtotal.Add(line)
		v.ItemCount += qty
		v.Lines = append(v.Lines, Line{
			Item:      it,
			Quantity:  qty,
			UnitPrice: FormatPrice(unit),
			LineTotal: FormatPrice(line),
			Href:      productHref(it),
		})
	}

	v.Subtotal = FormatPrice(subtotal)
	v.Total = v.Subtotal
	v.Empty = len(items) == 0
	v.CanContinue = !v.Empty
	return v
}

// RenderStore re-reads the cart; it never writes.
func RenderStore(ctx context.Context, s *cart.Store) View {
	return Render(s.ReadCart(ctx))
}

func productHref(it cart.LineItem) string {
	id := strings.TrimSpace(string(it.ID))
	if id == "" {
		return "products.html"
	}
	return "product.html?id=" + url.QueryEscape(id)
}
