package v1

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/datatypes"

	"github.com/edu-center/site-api/internal/models"
	"github.com/edu-center/site-api/internal/utils"
)

const (
	msgImageNotFound = "image not found"
	imagesPerPage    = 20
)

type imageStore interface {
	CreateImages(ctx context.Context, imgs []models.Image) error
	ListImages(ctx context.Context, category models.ImageCategory, limit, offset int) ([]models.Image, int64, error)
	GetImageByID(ctx context.Context, id string) (*models.Image, error)
	UpdateImageCategory(ctx context.Context, id string, category models.ImageCategory) (*models.Image, error)
	DeleteImage(ctx context.Context, id string) (*models.Image, error)
}

var invalidCategory = models.FieldError{
	Field:   "category",
	Message: "category must be one of: banner, news, directions, gallery, other",
}

// categoryFrom returns the category field, defaulting to "other" when absent.
func categoryFrom(f *formFields) (models.ImageCategory, bool) {
	if !f.Has("category") {
		return models.CategoryOther, true
	}
	c := models.ImageCategory(strings.ToLower(f.String("category")))
	return c, c.Valid()
}

func imageRecord(up *uploadedFile, category models.ImageCategory) models.Image {
	return models.Image{
		Filename:     up.Key,
		OriginalName: up.OriginalName,
		Path:         up.URL,
		Size:         up.Size,
		MimeType:     up.MimeType,
		Category:     category,
		Meta:         datatypes.JSONMap{"width": up.Width, "height": up.Height},
	}
}

// ListImages pages through images, optionally filtered by category.
func (a *API) ListImages(w http.ResponseWriter, r *http.Request) {
	var category models.ImageCategory
	if v := strings.TrimSpace(r.URL.Query().Get("category")); v != "" {
		category = models.ImageCategory(strings.ToLower(v))
		if !category.Valid() {
			utils.WriteValidationErrors(w, []models.FieldError{invalidCategory})
			return
		}
	}
	page, limit := parsePage(r, imagesPerPage)
	items, total, err := a.store.ListImages(r.Context(), category, limit, (page-1)*limit)
	if err != nil {
		a.serverError(w, r, "failed to fetch images", err)
		return
	}
	utils.WritePaginated(w, items, models.NewPagination(page, limit, total))
}

func (a *API) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgImageNotFound)
	if !ok {
		return
	}
	img, err := a.store.GetImageByID(r.Context(), id)
	if err != nil {
		a.storeError(w, r, msgImageNotFound, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "", img, nil)
}

// UploadImage stores a single "image" file.
func (a *API) UploadImage(w http.ResponseWriter, r *http.Request) {
	f, ok := a.uploadFields(w, r, 1)
	if !ok {
		return
	}
	category, ok := categoryFrom(f)
	if !ok {
		utils.WriteValidationErrors(w, []models.FieldError{invalidCategory})
		return
	}
	up, ok := a.requiredImage(w, r)
	if !ok {
		return
	}
	imgs := []models.Image{imageRecord(up, category)}
	if err := a.store.CreateImages(r.Context(), imgs); err != nil {
		a.rollback(r, up)
		a.serverError(w, r, "failed to save image", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, true, "image uploaded", imgs[0], nil)
}

// UploadImages stores every file of the "images" field under one category.
// Either all records are written or none are.
func (a *API) UploadImages(w http.ResponseWriter, r *http.Request) {
	f, ok := a.uploadFields(w, r, a.upload.maxFiles)
	if !ok {
		return
	}
	category, ok := categoryFrom(f)
	if !ok {
		utils.WriteValidationErrors(w, []models.FieldError{invalidCategory})
		return
	}
	fhs := formFiles(r, "images")
	switch {
	case len(fhs) == 0:
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "at least one image is required", nil, nil)
		return
	case len(fhs) > a.upload.maxFiles:
		utils.WriteJSONResponse(w, http.StatusBadRequest, false,
			fmt.Sprintf("too many files (max %d)", a.upload.maxFiles), nil, nil)
		return
	}

	ups, err := a.upload.saveAll(r.Context(), "images", fhs)
	if err != nil {
		a.uploadFailed(w, r, err)
		return
	}
	imgs := make([]models.Image, len(ups))
	for i, up := range ups {
		imgs[i] = imageRecord(up, category)
	}
	if err := a.store.CreateImages(r.Context(), imgs); err != nil {
		a.upload.discard(r.Context(), keysOf(ups)...)
		a.serverError(w, r, "failed to save images", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, true, fmt.Sprintf("%d images uploaded", len(imgs)), imgs, nil)
}

// UpdateImage changes the category; the file itself is immutable.
func (a *API) UpdateImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgImageNotFound)
	if !ok {
		return
	}
	f, ok := a.bodyFields(w, r)
	if !ok {
		return
	}
	if !f.Has("category") {
		utils.WriteValidationErrors(w, []models.FieldError{{Field: "category", Message: "category is required"}})
		return
	}
	category, ok := categoryFrom(f)
	if !ok {
		utils.WriteValidationErrors(w, []models.FieldError{invalidCategory})
		return
	}
	img, err := a.store.UpdateImageCategory(r.Context(), id, category)
	if err != nil {
		a.storeError(w, r, msgImageNotFound, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "image updated", img, nil)
}

func (a *API) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgImageNotFound)
	if !ok {
		return
	}
	img, err := a.store.DeleteImage(r.Context(), id)
	if err != nil {
		a.storeError(w, r, msgImageNotFound, err)
		return
	}
	a.upload.discard(r.Context(), img.Filename)
	utils.WriteJSONResponse(w, http.StatusOK, true, "image deleted", nil, nil)
}
