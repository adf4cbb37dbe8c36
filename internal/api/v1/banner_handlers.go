package v1

import (
	"context"
	"net/http"

	"github.com/edu-center/site-api/internal/models"
	"github.com/edu-center/site-api/internal/utils"
)

const msgBannerNotFound = "banner not found"

type bannerStore interface {
	ListBanners(ctx context.Context, active *bool) ([]models.Banner, error)
	GetBannerByID(ctx context.Context, id string) (*models.Banner, error)
	CreateBanner(ctx context.Context, b *models.Banner) error
	UpdateBanner(ctx context.Context, id string, fields map[string]interface{}) (*models.Banner, error)
	DeleteBanner(ctx context.Context, id string) (*models.Banner, error)
}

type bannerInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
}

func (a *API) ListBanners(w http.ResponseWriter, r *http.Request) {
	active, ok := queryBool(r, "active")
	if !ok {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "active must be true or false", nil, nil)
		return
	}
	items, err := a.store.ListBanners(r.Context(), active)
	if err != nil {
		a.serverError(w, r, "failed to fetch banners", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "", items, nil)
}

func (a *API) GetBanner(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgBannerNotFound)
	if !ok {
		return
	}
	b, err := a.store.GetBannerByID(r.Context(), id)
	if err != nil {
		a.storeError(w, r, msgBannerNotFound, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "", b, nil)
}

// CreateBanner expects multipart form data with a required "image" file.
func (a *API) CreateBanner(w http.ResponseWriter, r *http.Request) {
	f, ok := a.uploadFields(w, r, 1)
	if !ok {
		return
	}
	in := bannerInput{Title: f.String("title"), Description: f.String("description")}
	active := f.Bool("is_active")
	if errs := collectErrors(f, in); len(errs) > 0 {
		utils.WriteValidationErrors(w, errs)
		return
	}
	up, ok := a.requiredImage(w, r)
	if !ok {
		return
	}
	b := &models.Banner{
		Title:       in.Title,
		Description: in.Description,
		Image:       up.URL,
		ImageKey:    up.Key,
		Active:      boolOr(active, true),
	}
	if err := a.store.CreateBanner(r.Context(), b); err != nil {
		a.rollback(r, up)
		a.serverError(w, r, "failed to create banner", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, true, "banner created", b, nil)
}

// UpdateBanner replaces title and description; a new image replaces the stored one.
func (a *API) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgBannerNotFound)
	if !ok {
		return
	}
	f, ok := a.uploadFields(w, r, 1)
	if !ok {
		return
	}
	in := bannerInput{Title: f.String("title"), Description: f.String("description")}
	active := f.Bool("is_active")
	if errs := collectErrors(f, in); len(errs) > 0 {
		utils.WriteValidationErrors(w, errs)
		return
	}
	cur, err := a.store.GetBannerByID(r.Context(), id)
	if err != nil {
		a.storeError(w, r, msgBannerNotFound, err)
		return
	}

	fields := map[string]interface{}{"title": in.Title, "description": in.Description}
	if active != nil {
		fields["active"] = *active
	}
	up, ok := a.optionalImage(w, r, fields)
	if !ok {
		return
	}
	b, err := a.store.UpdateBanner(r.Context(), id, fields)
	if err != nil {
		a.rollback(r, up)
		a.storeError(w, r, msgBannerNotFound, err)
		return
	}
	if up != nil {
		a.upload.discard(r.Context(), cur.ImageKey)
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "banner updated", b, nil)
}

func (a *API) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgBannerNotFound)
	if !ok {
		return
	}
	b, err := a.store.DeleteBanner(r.Context(), id)
	if err != nil {
		a.storeError(w, r, msgBannerNotFound, err)
		return
	}
	a.upload.discard(r.Context(), b.ImageKey)
	utils.WriteJSONResponse(w, http.StatusOK, true, "banner deleted", nil, nil)
}
