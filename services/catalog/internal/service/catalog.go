package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/ref_site/pkg/events"
	"github.com/Skotchmaster/ref_site/pkg/logging"
	"github.com/Skotchmaster/ref_site/services/catalog/internal/models"
	"github.com/Skotchmaster/ref_site/services/catalog/internal/repo"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

// Searcher is the full-text index. Nil means search falls back to the
// database.
type Searcher interface {
	IndexProducts(ctx context.Context, products []models.Product) error
	Search(ctx context.Context, q string, offset, limit int) (int64, []uint, error)
}

type CatalogService struct {
	Repo     *repo.GormRepo
	Searcher Searcher
	Events   events.Publisher
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("product: %w", ErrNotFound)
	}
	return err
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	return p, notFound(err)
}

func (s *CatalogService) GetProductByFile(ctx context.Context, file string) (*models.Product, error) {
	if strings.TrimSpace(file) == "" {
		return nil, fmt.Errorf("file is required: %w", ErrValidation)
	}
	p, err := s.Repo.GetProductByFile(ctx, file)
	return p, notFound(err)
}

func (s *CatalogService) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, offset, limit)
}

// Seed stores the sheet rows and, when a search index is configured, indexes
// them. Index failures are logged; the database stays the source of truth.
func (s *CatalogService) Seed(ctx context.Context, products []models.Product) (int, error) {
	stored, err := s.Repo.UpsertProducts(ctx, products)
	if err != nil {
		return 0, fmt.Errorf("store products: %w", err)
	}

	l := logging.FromContext(ctx)
	if s.Searcher != nil {
		if err := s.Searcher.IndexProducts(ctx, stored); err != nil {
			l.Warn("catalog_index_failed", "error", err)
		}
	}

	if s.Events != nil {
		ev := map[string]any{"type": "catalog_seeded", "count": len(stored)}
		if err := s.Events.Publish(ctx, events.TopicCatalog, "seed", ev); err != nil {
			l.Warn("catalog_event_publish_failed", "error", err)
		}
	}
	return len(stored), nil
}

func (s *CatalogService) Search(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, []models.Product{}, nil
	}

	if s.Searcher != nil {
		total, ids, err := s.Searcher.Search(ctx, q, offset, limit)
		if err == nil {
			items, err := s.Repo.GetProductsByIDs(ctx, ids)
			return total, items, err
		}
		logging.FromContext(ctx).Warn("catalog_search_fallback", "error", err)
	}

	return s.Repo.SearchProducts(ctx, q, offset, limit)
}
