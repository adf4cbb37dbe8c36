package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edu-center/site-api/internal/models"
	"github.com/edu-center/site-api/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a record with the requested id does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique column already holds the value.
var ErrDuplicate = errors.New("record already exists")

type Store struct {
	DB *gorm.DB
}

func NewGormStore(databaseURL string, log *logrus.Logger) (*Store, error) {
	gormCfg := &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	}
	db, err := gorm.Open(postgres.Open(databaseURL), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// AutoMigrate (non-destructive: creates tables/columns/indexes)
	if err := db.AutoMigrate(
		&models.User{}, &models.RefreshToken{},
		&models.Banner{}, &models.News{}, &models.Direction{},
		&models.Choose{}, &models.Question{}, &models.Image{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return &Store{DB: db}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

/* ------------------ Helpers ------------------ */

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

func findByID[T any](ctx context.Context, db *gorm.DB, id string) (*T, error) {
	var out T
	if err := db.WithContext(ctx).First(&out, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

// updateByID applies fields and returns the fresh row.
func updateByID[T any](ctx context.Context, db *gorm.DB, id string, fields map[string]interface{}) (*T, error) {
	var out T
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields["updated_at"] = time.Now()
		res := tx.Model(&out).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.First(&out, "id = ?", id).Error
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

// deleteByID hard-deletes and returns the removed row so callers can clean up files.
func deleteByID[T any](ctx context.Context, db *gorm.DB, id string) (*T, error) {
	var out T
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&out, "id = ?", id).Error
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func newID(id *string) {
	if *id == "" {
		*id = utils.GenerateID()
	}
}
