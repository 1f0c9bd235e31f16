package repo

import (
	"context"
	"strings"

	"github.com/Skotchmaster/ref_site/services/catalog/internal/models"
	"gorm.io/gorm/clause"
)

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product := models.Product{}
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) GetProductByFile(ctx context.Context, file string) (*models.Product, error) {
	product := models.Product{}
	if err := r.DB.WithContext(ctx).Where("file = ?", file).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

// GetProductsByIDs keeps the order of ids; unknown ids are dropped.
func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var found []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// UpsertProducts inserts new rows and refreshes existing ones keyed by file.
// The stored rows, with ids, are returned in input order.
func (r *GormRepo) UpsertProducts(ctx context.Context, products []models.Product) ([]models.Product, error) {
	if len(products) == 0 {
		return nil, nil
	}
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "file"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "price", "details", "price_id", "site_page", "updated_at"}),
	}).Create(&products).Error
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(products))
	for _, p := range products {
		files = append(files, p.File)
	}
	var stored []models.Product
	if err := r.DB.WithContext(ctx).Where("file IN ?", files).Find(&stored).Error; err != nil {
		return nil, err
	}
	byFile := make(map[string]models.Product, len(stored))
	for _, p := range stored {
		byFile[p.File] = p
	}
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		out = append(out, byFile[p.File])
	}
	return out, nil
}

// SearchProducts is the database fallback used when no search cluster is
// configured: a case-insensitive substring match on title and details.
func (r *GormRepo) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	where := "LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(details) LIKE ? ESCAPE '\\'"

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Where(where, pattern, pattern).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where(where, pattern, pattern).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
