// Package seed loads the product sheet that drives the product grid and
// product pages.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Skotchmaster/ref_site/services/catalog/internal/models"
)

const (
	colFile     = "File"
	colTitle    = "Title"
	colPrice    = "Price"
	colDetails  = "Details"
	colPriceID  = "StripePriceId"
	colSitePage = "Site Page"

	productsPage = "products"
)

var ErrNoHeader = errors.New("csv has no header row")

// ParseProducts reads the sheet by header name. Only rows meant for the shop
// are kept: Site Page empty or "products". Rows without a File are skipped.
func ParseProducts(r io.Reader) ([]models.Product, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := idx[colFile]; !ok {
		return nil, fmt.Errorf("missing %q column: %w", colFile, ErrNoHeader)
	}

	get := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []models.Product
	seen := make(map[string]bool)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		file := get(rec, colFile)
		page := get(rec, colSitePage)
		if file == "" || (page != "" && page != productsPage) || seen[file] {
			continue
		}
		seen[file] = true

		title := get(rec, colTitle)
		if title == "" {
			title = file
		}
		out = append(out, models.Product{
			File:     file,
			Title:    title,
			Price:    get(rec, colPrice),
			Details:  get(rec, colDetails),
			PriceID:  get(rec, colPriceID),
			SitePage: page,
		})
	}
	return out, nil
}

// Load reads the sheet from a local path or, for http(s) sources such as a
// spreadsheet CSV export, over the network.
func Load(ctx context.Context, source string) ([]models.Product, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return fetch(ctx, source)
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseProducts(f)
}

func fetch(ctx context.Context, url string) ([]models.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sheet: status %d", resp.StatusCode)
	}
	return ParseProducts(resp.Body)
}
