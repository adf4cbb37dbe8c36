package store

import (
	"context"

	"github.com/edu-center/site-api/internal/models"
	"gorm.io/gorm"
)

// CreateImages inserts upload records in one transaction.
func (s *Store) CreateImages(ctx context.Context, imgs []models.Image) error {
	return mapErr(s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range imgs {
			newID(&imgs[i].ID)
			if err := tx.Create(&imgs[i]).Error; err != nil {
				return err
			}
		}
		return nil
	}))
}

// ListImages returns one page of images, newest first. An empty category lists all.
func (s *Store) ListImages(ctx context.Context, category models.ImageCategory, limit, offset int) ([]models.Image, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.Image{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := []models.Image{}
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, total, err
}

// GetImageByID returns a single image by its primary key.
func (s *Store) GetImageByID(ctx context.Context, id string) (*models.Image, error) {
	return findByID[models.Image](ctx, s.DB, id)
}

// UpdateImageCategory changes the only editable field of an image.
func (s *Store) UpdateImageCategory(ctx context.Context, id string, category models.ImageCategory) (*models.Image, error) {
	return updateByID[models.Image](ctx, s.DB, id, map[string]interface{}{"category": category})
}

// DeleteImage hard-deletes an image record by ID.
func (s *Store) DeleteImage(ctx context.Context, id string) (*models.Image, error) {
	return deleteByID[models.Image](ctx, s.DB, id)
}
