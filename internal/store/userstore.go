package store

import (
	"context"
	"time"

	"github.com/edu-center/site-api/internal/models"
	"github.com/edu-center/site-api/internal/utils"
	"gorm.io/gorm"
)

/* ------------------ User CRUD ------------------ */

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	newID(&u.ID)
	return mapErr(s.DB.WithContext(ctx).Create(u).Error)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return findByID[models.User](ctx, s.DB, id)
}

// UserExists reports whether the email or the username is already taken.
func (s *Store) UserExists(ctx context.Context, email, username string) (bool, error) {
	var cnt int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&cnt).Error
	return cnt > 0, err
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var cnt int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).Count(&cnt).Error
	return cnt, err
}

/* ------------------ Refresh token methods ------------------ */

// SaveRefreshToken stores a token (hashed) and expiry
func (s *Store) SaveRefreshToken(ctx context.Context, userID, plainToken string, expiresAt time.Time) error {
	rt := models.RefreshToken{
		ID:        utils.GenerateID(),
		UserID:    userID,
		TokenHash: utils.HashToken(plainToken),
		IssuedAt:  time.Now(),
		ExpiresAt: expiresAt,
	}
	return s.DB.WithContext(ctx).Create(&rt).Error
}

// RevokeRefreshToken marks token revoked
func (s *Store) RevokeRefreshToken(ctx context.Context, plainToken string) error {
	return s.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", utils.HashToken(plainToken)).
		Update("revoked", true).Error
}

// RotateRefreshToken revokes the old token and stores the new one in a
// single transaction. It returns the owning user id.
func (s *Store) RotateRefreshToken(ctx context.Context, oldPlain, newPlain string, newExpiry time.Time) (string, error) {
	var userID string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.RefreshToken
		if err := tx.Where("token_hash = ? AND revoked = false AND expires_at > ?", utils.HashToken(oldPlain), time.Now()).
			First(&old).Error; err != nil {
			return err
		}
		res := tx.Model(&models.RefreshToken{}).Where("id = ? AND revoked = false", old.ID).Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		userID = old.UserID
		return tx.Create(&models.RefreshToken{
			ID:        utils.GenerateID(),
			UserID:    old.UserID,
			TokenHash: utils.HashToken(newPlain),
			IssuedAt:  time.Now(),
			ExpiresAt: newExpiry,
		}).Error
	})
	if err != nil {
		return "", mapErr(err)
	}
	return userID, nil
}

func (s *Store) DeleteExpiredTokens(ctx context.Context) error {
	return s.DB.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{}).Error
}
