package store

import (
	"context"

	"github.com/edu-center/site-api/internal/models"
	"gorm.io/gorm"
)

func activeScope(column string, v *bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if v == nil {
			return db
		}
		return db.Where(column+" = ?", *v)
	}
}

/* ------------------ Banners ------------------ */

// ListBanners returns banners newest first; active filters by is_active when set.
func (s *Store) ListBanners(ctx context.Context, active *bool) ([]models.Banner, error) {
	out := []models.Banner{}
	err := s.DB.WithContext(ctx).Scopes(activeScope("active", active)).
		Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *Store) GetBannerByID(ctx context.Context, id string) (*models.Banner, error) {
	return findByID[models.Banner](ctx, s.DB, id)
}

func (s *Store) CreateBanner(ctx context.Context, b *models.Banner) error {
	newID(&b.ID)
	return mapErr(s.DB.WithContext(ctx).Create(b).Error)
}

func (s *Store) UpdateBanner(ctx context.Context, id string, fields map[string]interface{}) (*models.Banner, error) {
	return updateByID[models.Banner](ctx, s.DB, id, fields)
}

func (s *Store) DeleteBanner(ctx context.Context, id string) (*models.Banner, error) {
	return deleteByID[models.Banner](ctx, s.DB, id)
}

/* ------------------ News ------------------ */

// ListNews returns one page of news, newest first, and the total matching count.
func (s *Store) ListNews(ctx context.Context, published *bool, limit, offset int) ([]models.News, int64, error) {
	var total int64
	q := s.DB.WithContext(ctx).Model(&models.News{}).Scopes(activeScope("published", published)).
		Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := []models.News{}
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, total, err
}

func (s *Store) GetNewsByID(ctx context.Context, id string) (*models.News, error) {
	return findByID[models.News](ctx, s.DB, id)
}

func (s *Store) CreateNews(ctx context.Context, n *models.News) error {
	newID(&n.ID)
	return mapErr(s.DB.WithContext(ctx).Create(n).Error)
}

func (s *Store) UpdateNews(ctx context.Context, id string, fields map[string]interface{}) (*models.News, error) {
	return updateByID[models.News](ctx, s.DB, id, fields)
}

func (s *Store) DeleteNews(ctx context.Context, id string) (*models.News, error) {
	return deleteByID[models.News](ctx, s.DB, id)
}

/* ------------------ Directions ------------------ */

func (s *Store) ListDirections(ctx context.Context, active *bool) ([]models.Direction, error) {
	out := []models.Direction{}
	err := s.DB.WithContext(ctx).Scopes(activeScope("active", active)).
		Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *Store) GetDirectionByID(ctx context.Context, id string) (*models.Direction, error) {
	return findByID[models.Direction](ctx, s.DB, id)
}

func (s *Store) CreateDirection(ctx context.Context, d *models.Direction) error {
	newID(&d.ID)
	return mapErr(s.DB.WithContext(ctx).Create(d).Error)
}

func (s *Store) UpdateDirection(ctx context.Context, id string, fields map[string]interface{}) (*models.Direction, error) {
	return updateByID[models.Direction](ctx, s.DB, id, fields)
}

func (s *Store) DeleteDirection(ctx context.Context, id string) (*models.Direction, error) {
	return deleteByID[models.Direction](ctx, s.DB, id)
}

/* ------------------ Choose items ------------------ */

func (s *Store) ListChooseItems(ctx context.Context, active *bool) ([]models.Choose, error) {
	out := []models.Choose{}
	err := s.DB.WithContext(ctx).Scopes(activeScope("active", active)).
		Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *Store) GetChooseItemByID(ctx context.Context, id string) (*models.Choose, error) {
	return findByID[models.Choose](ctx, s.DB, id)
}

func (s *Store) CreateChooseItem(ctx context.Context, c *models.Choose) error {
	newID(&c.ID)
	return mapErr(s.DB.WithContext(ctx).Create(c).Error)
}

func (s *Store) UpdateChooseItem(ctx context.Context, id string, fields map[string]interface{}) (*models.Choose, error) {
	return updateByID[models.Choose](ctx, s.DB, id, fields)
}

func (s *Store) DeleteChooseItem(ctx context.Context, id string) (*models.Choose, error) {
	return deleteByID[models.Choose](ctx, s.DB, id)
}

/* ------------------ Questions ------------------ */

// ListQuestions orders by sort_order ascending, then newest first.
func (s *Store) ListQuestions(ctx context.Context, active *bool) ([]models.Question, error) {
	out := []models.Question{}
	err := s.DB.WithContext(ctx).Scopes(activeScope("active", active)).
		Order("sort_order ASC").Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *Store) GetQuestionByID(ctx context.Context, id string) (*models.Question, error) {
	return findByID[models.Question](ctx, s.DB, id)
}

func (s *Store) CreateQuestion(ctx context.Context, q *models.Question) error {
	newID(&q.ID)
	return mapErr(s.DB.WithContext(ctx).Create(q).Error)
}

func (s *Store) UpdateQuestion(ctx context.Context, id string, fields map[string]interface{}) (*models.Question, error) {
	return updateByID[models.Question](ctx, s.DB, id, fields)
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) (*models.Question, error) {
	return deleteByID[models.Question](ctx, s.DB, id)
}
