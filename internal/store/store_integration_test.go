//go:build integration

package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-center/site-api/internal/models"
)

var testStore *Store

func TestMain(m *testing.M) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required for integration tests")
	}
	s, err := NewGormStore(dsn, log.StandardLogger())
	if err != nil {
		log.Fatalf("creating database client: %v", err)
	}
	testStore = s
	code := m.Run()
	_ = s.Close()
	os.Exit(code)
}

func cleanup(t *testing.T) {
	t.Helper()
	for _, table := range []string{"refresh_tokens", "users", "banners", "news", "directions", "choose_items", "questions", "images"} {
		require.NoError(t, testStore.DB.Exec("DELETE FROM "+table).Error)
	}
}

func TestUsersAndTokens(t *testing.T) {
	cleanup(t)
	ctx := context.Background()

	u := &models.User{Username: "admin", Email: "admin@example.com", PasswordHash: "x", Role: models.RoleAdmin, Active: true}
	require.NoError(t, testStore.CreateUser(ctx, u))
	err := testStore.CreateUser(ctx, &models.User{Username: "admin", Email: "other@example.com", PasswordHash: "x", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrDuplicate)

	n, err := testStore.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	exists, err := testStore.UserExists(ctx, "nobody@example.com", "admin")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = testStore.GetUserByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, testStore.SaveRefreshToken(ctx, u.ID, "old", time.Now().Add(time.Hour)))
	uid, err := testStore.RotateRefreshToken(ctx, "old", "new", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)

	_, err = testStore.RotateRefreshToken(ctx, "old", "newer", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, testStore.RevokeRefreshToken(ctx, "new"))
	_, err = testStore.RotateRefreshToken(ctx, "new", "newer", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, testStore.SaveRefreshToken(ctx, u.ID, "stale", time.Now().Add(-time.Hour)))
	require.NoError(t, testStore.DeleteExpiredTokens(ctx))
	var left int64
	require.NoError(t, testStore.DB.Model(&models.RefreshToken{}).Where("expires_at < ?", time.Now()).Count(&left).Error)
	assert.Zero(t, left)
}

func TestBannerCRUD(t *testing.T) {
	cleanup(t)
	ctx := context.Background()

	b := &models.Banner{Title: "t", Description: "d", Image: "/uploads/a.png", ImageKey: "a.png", Active: false}
	require.NoError(t, testStore.CreateBanner(ctx, b))

	got, err := testStore.GetBannerByID(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, got.Active, "explicit false survives insert")

	updated, err := testStore.UpdateBanner(ctx, b.ID, map[string]interface{}{"title": "t2", "active": true})
	require.NoError(t, err)
	assert.Equal(t, "t2", updated.Title)
	assert.True(t, updated.Active)

	active := true
	list, err := testStore.ListBanners(ctx, &active)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	deleted, err := testStore.DeleteBanner(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.png", deleted.ImageKey)

	_, err = testStore.DeleteBanner(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = testStore.UpdateBanner(ctx, b.ID, map[string]interface{}{"title": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewsPages(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		require.NoError(t, testStore.CreateNews(ctx, &models.News{
			Title: fmt.Sprintf("n%d", i), Description: "d", Image: "i", Published: i != 0, PublishDate: time.Now(),
		}))
		time.Sleep(2 * time.Millisecond)
	}

	items, total, err := testStore.ListNews(ctx, nil, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	assert.Len(t, items, 2)
	assert.Equal(t, "n0", items[1].Title)

	published := false
	items, total, err = testStore.ListNews(ctx, &published, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "n0", items[0].Title)
}

func TestQuestionsSortOrder(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	for _, q := range []models.Question{{Question: "b", Answer: "a", Order: 2, Active: true}, {Question: "a", Answer: "a", Order: 1, Active: true}} {
		q := q
		require.NoError(t, testStore.CreateQuestion(ctx, &q))
	}
	list, err := testStore.ListQuestions(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Question)
}

func TestImagesTransaction(t *testing.T) {
	cleanup(t)
	ctx := context.Background()

	imgs := []models.Image{
		{Filename: "one.png", OriginalName: "1.png", Path: "/uploads/one.png", Size: 1, MimeType: "image/png", Category: models.CategoryGallery},
		{Filename: "one.png", OriginalName: "2.png", Path: "/uploads/one.png", Size: 1, MimeType: "image/png", Category: models.CategoryGallery},
	}
	assert.Error(t, testStore.CreateImages(ctx, imgs))
	_, total, err := testStore.ListImages(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total, "failed batch leaves nothing behind")

	imgs[1].ID, imgs[0].ID = "", ""
	imgs[1].Filename = "two.png"
	require.NoError(t, testStore.CreateImages(ctx, imgs))

	list, total, err := testStore.ListImages(ctx, models.CategoryGallery, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 1)

	img, err := testStore.UpdateImageCategory(ctx, imgs[0].ID, models.CategoryBanner)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryBanner, img.Category)

	_, err = testStore.DeleteImage(ctx, imgs[0].ID)
	require.NoError(t, err)
	_, err = testStore.GetImageByID(ctx, imgs[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
