package v1

import (
	"context"
	"net/http"

	"github.com/edu-center/site-api/internal/models"
	"github.com/edu-center/site-api/internal/utils"
)

const msgChooseNotFound = "item not found"

type chooseStore interface {
	ListChooseItems(ctx context.Context, active *bool) ([]models.Choose, error)
	GetChooseItemByID(ctx context.Context, id string) (*models.Choose, error)
	CreateChooseItem(ctx context.Context, c *models.Choose) error
	UpdateChooseItem(ctx context.Context, id string, fields map[string]interface{}) (*models.Choose, error)
	DeleteChooseItem(ctx context.Context, id string) (*models.Choose, error)
}

type chooseInput struct {
	Title            string `json:"title" validate:"required,max=255"`
	TitleDescription string `json:"title_description" validate:"required,max=255"`
	Description      string `json:"description" validate:"required"`
}

func (a *API) ListChooseItems(w http.ResponseWriter, r *http.Request) {
	active, ok := queryBool(r, "active")
	if !ok {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "active must be true or false", nil, nil)
		return
	}
	items, err := a.store.ListChooseItems(r.Context(), active)
	if err != nil {
		a.serverError(w, r, "failed to fetch items", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "", items, nil)
}

func (a *API) GetChooseItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgChooseNotFound)
	if !ok {
		return
	}
	c, err := a.store.GetChooseItemByID(r.Context(), id)
	if err != nil {
		a.storeError(w, r, msgChooseNotFound, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "", c, nil)
}

func (a *API) CreateChooseItem(w http.ResponseWriter, r *http.Request) {
	f, ok := a.bodyFields(w, r)
	if !ok {
		return
	}
	in := chooseInput{Title: f.String("title"), TitleDescription: f.String("title_description"), Description: f.String("description")}
	active := f.Bool("is_active")
	if errs := collectErrors(f, in); len(errs) > 0 {
		utils.WriteValidationErrors(w, errs)
		return
	}
	c := &models.Choose{
		Title:            in.Title,
		TitleDescription: in.TitleDescription,
		Description:      in.Description,
		Active:           boolOr(active, true),
	}
	if err := a.store.CreateChooseItem(r.Context(), c); err != nil {
		a.serverError(w, r, "failed to create item", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, true, "item created", c, nil)
}

func (a *API) UpdateChooseItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgChooseNotFound)
	if !ok {
		return
	}
	f, ok := a.bodyFields(w, r)
	if !ok {
		return
	}
	in := chooseInput{Title: f.String("title"), TitleDescription: f.String("title_description"), Description: f.String("description")}
	active := f.Bool("is_active")
	if errs := collectErrors(f, in); len(errs) > 0 {
		utils.WriteValidationErrors(w, errs)
		return
	}
	fields := map[string]interface{}{
		"title":             in.Title,
		"title_description": in.TitleDescription,
		"description":       in.Description,
	}
	if active != nil {
		fields["active"] = *active
	}
	c, err := a.store.UpdateChooseItem(r.Context(), id, fields)
	if err != nil {
		a.storeError(w, r, msgChooseNotFound, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "item updated", c, nil)
}

func (a *API) DeleteChooseItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgChooseNotFound)
	if !ok {
		return
	}
	if _, err := a.store.DeleteChooseItem(r.Context(), id); err != nil {
		a.storeError(w, r, msgChooseNotFound, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "item deleted", nil, nil)
}
