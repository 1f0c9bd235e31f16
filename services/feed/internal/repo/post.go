package repo

import (
	"context"

	"github.com/Skotchmaster/ref_site/services/feed/internal/models"
	"gorm.io/gorm"
)

func (r *GormRepo) ListPosts(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	if err := r.DB.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *GormRepo) CreatePost(ctx context.Context, post *models.Post) error {
	return r.DB.WithContext(ctx).Create(post).Error
}

func (r *GormRepo) UpdateBody(ctx context.Context, id, body string) (*models.Post, error) {
	var post models.Post
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&post).Error; err != nil {
			return err
		}
		post.Body = body
		post.Edited = true
		return tx.Save(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *GormRepo) DeletePost(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
