package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/edu-center/site-api/internal/models"
	"github.com/edu-center/site-api/internal/utils"
)

const (
	msgNewsNotFound = "news not found"
	newsPerPage     = 10
)

type newsStore interface {
	ListNews(ctx context.Context, published *bool, limit, offset int) ([]models.News, int64, error)
	GetNewsByID(ctx context.Context, id string) (*models.News, error)
	CreateNews(ctx context.Context, n *models.News) error
	UpdateNews(ctx context.Context, id string, fields map[string]interface{}) (*models.News, error)
	DeleteNews(ctx context.Context, id string) (*models.News, error)
}

type newsInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
}

// ListNews returns a page of news, newest first.
func (a *API) ListNews(w http.ResponseWriter, r *http.Request) {
	published, ok := queryBool(r, "published")
	if !ok {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "published must be true or false", nil, nil)
		return
	}
	page, limit := parsePage(r, newsPerPage)
	items, total, err := a.store.ListNews(r.Context(), published, limit, (page-1)*limit)
	if err != nil {
		a.serverError(w, r, "failed to fetch news", err)
		return
	}
	utils.WritePaginated(w, items, models.NewPagination(page, limit, total))
}

func (a *API) GetNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgNewsNotFound)
	if !ok {
		return
	}
	n, err := a.store.GetNewsByID(r.Context(), id)
	if err != nil {
		a.storeError(w, r, msgNewsNotFound, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "", n, nil)
}

func (a *API) CreateNews(w http.ResponseWriter, r *http.Request) {
	f, ok := a.uploadFields(w, r, 1)
	if !ok {
		return
	}
	in := newsInput{Title: f.String("title"), Description: f.String("description")}
	published := f.Bool("is_published")
	date := f.Time("publish_date")
	if errs := collectErrors(f, in); len(errs) > 0 {
		utils.WriteValidationErrors(w, errs)
		return
	}
	up, ok := a.requiredImage(w, r)
	if !ok {
		return
	}
	n := &models.News{
		Title:       in.Title,
		Description: in.Description,
		Image:       up.URL,
		ImageKey:    up.Key,
		Published:   boolOr(published, true),
		PublishDate: time.Now(),
	}
	if date != nil {
		n.PublishDate = *date
	}
	if err := a.store.CreateNews(r.Context(), n); err != nil {
		a.rollback(r, up)
		a.serverError(w, r, "failed to create news", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, true, "news created", n, nil)
}

func (a *API) UpdateNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgNewsNotFound)
	if !ok {
		return
	}
	f, ok := a.uploadFields(w, r, 1)
	if !ok {
		return
	}
	in := newsInput{Title: f.String("title"), Description: f.String("description")}
	published := f.Bool("is_published")
	date := f.Time("publish_date")
	if errs := collectErrors(f, in); len(errs) > 0 {
		utils.WriteValidationErrors(w, errs)
		return
	}
	cur, err := a.store.GetNewsByID(r.Context(), id)
	if err != nil {
		a.storeError(w, r, msgNewsNotFound, err)
		return
	}

	fields := map[string]interface{}{"title": in.Title, "description": in.Description}
	if published != nil {
		fields["published"] = *published
	}
	if date != nil {
		fields["publish_date"] = *date
	}
	up, ok := a.optionalImage(w, r, fields)
	if !ok {
		return
	}
	n, err := a.store.UpdateNews(r.Context(), id, fields)
	if err != nil {
		a.rollback(r, up)
		a.storeError(w, r, msgNewsNotFound, err)
		return
	}
	if up != nil {
		a.upload.discard(r.Context(), cur.ImageKey)
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "news updated", n, nil)
}

func (a *API) DeleteNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgNewsNotFound)
	if !ok {
		return
	}
	n, err := a.store.DeleteNews(r.Context(), id)
	if err != nil {
		a.storeError(w, r, msgNewsNotFound, err)
		return
	}
	a.upload.discard(r.Context(), n.ImageKey)
	utils.WriteJSONResponse(w, http.StatusOK, true, "news deleted", nil, nil)
}
