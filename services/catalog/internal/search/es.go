package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Skotchmaster/ref_site/services/catalog/internal/models"
	"github.com/elastic/go-elasticsearch/v9"
)

type Config struct {
	URL      string
	Username string
	Password string
	Index    string
	// Transport is swapped in tests.
	Transport http.RoundTripper
}

// Index keeps a searchable copy of the product sheet in Elasticsearch.
type Index struct {
	client *elasticsearch.Client
	name   string
}

type document struct {
	File    string `json:"file"`
	Title   string `json:"title"`
	Details string `json:"details"`
	Price   string `json:"price"`
}

func NewIndex(cfg Config) (*Index, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	name := cfg.Index
	if name == "" {
		name = "products"
	}
	return &Index{client: client, name: name}, nil
}

// Ping checks the cluster answers, the way startup code verifies the
// connection before serving.
func (i *Index) Ping(ctx context.Context) error {
	res, err := i.client.Info(i.client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch info: %s", res.Status())
	}
	return nil
}

func (i *Index) IndexProducts(ctx context.Context, products []models.Product) error {
	for _, p := range products {
		body, err := json.Marshal(document{File: p.File, Title: p.Title, Details: p.Details, Price: p.Price})
		if err != nil {
			return err
		}
		res, err := i.client.Index(i.name, bytes.NewReader(body),
			i.client.Index.WithContext(ctx),
			i.client.Index.WithDocumentID(strconv.FormatUint(uint64(p.ID), 10)),
		)
		if err != nil {
			return fmt.Errorf("index product %d: %w", p.ID, err)
		}
		status := res.Status()
		isErr := res.IsError()
		res.Body.Close()
		if isErr {
			return fmt.Errorf("index product %d: %s", p.ID, status)
		}
	}

	res, err := i.client.Indices.Refresh(
		i.client.Indices.Refresh.WithContext(ctx),
		i.client.Indices.Refresh.WithIndex(i.name),
	)
	if err != nil {
		return fmt.Errorf("refresh index: %w", err)
	}
	res.Body.Close()
	return nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a multi_match over title (boosted) and details and returns
// the matching product ids by relevance.
func (i *Index) Search(ctx context.Context, q string, offset, limit int) (int64, []uint, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"title^2", "details"},
				"fuzziness": "AUTO",
			},
		},
		"_source": false,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return 0, nil, err
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.name),
		i.client.Search.WithBody(&buf),
		i.client.Search.WithFrom(offset),
		i.client.Search.WithSize(limit),
		i.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return 0, nil, fmt.Errorf("search: %s: %s", res.Status(), strings.TrimSpace(string(msg)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uint, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		id, err := strconv.ParseUint(h.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return parsed.Hits.Total.Value, ids, nil
}
