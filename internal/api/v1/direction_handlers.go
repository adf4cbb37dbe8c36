package v1

import (
	"context"
	"net/http"

	"github.com/edu-center/site-api/internal/models"
	"github.com/edu-center/site-api/internal/utils"
)

const msgDirectionNotFound = "direction not found"

type directionStore interface {
	ListDirections(ctx context.Context, active *bool) ([]models.Direction, error)
	GetDirectionByID(ctx context.Context, id string) (*models.Direction, error)
	CreateDirection(ctx context.Context, d *models.Direction) error
	UpdateDirection(ctx context.Context, id string, fields map[string]interface{}) (*models.Direction, error)
	DeleteDirection(ctx context.Context, id string) (*models.Direction, error)
}

type directionInput struct {
	Title          string `json:"title" validate:"required,max=255"`
	Description    string `json:"description" validate:"required"`
	Duration       string `json:"duration" validate:"required,max=100"`
	LessonDuration string `json:"lesson_duration" validate:"required,max=100"`
	LessonDays     string `json:"lesson_days" validate:"required,max=100"`
	AgeRange       string `json:"age_range" validate:"required,max=100"`
	Requirements   string `json:"requirements" validate:"required"`
}

func readDirection(f *formFields) directionInput {
	return directionInput{
		Title:          f.String("title"),
		Description:    f.String("description"),
		Duration:       f.String("duration"),
		LessonDuration: f.String("lesson_duration"),
		LessonDays:     f.String("lesson_days"),
		AgeRange:       f.String("age_range"),
		Requirements:   f.String("requirements"),
	}
}

func (in directionInput) columns() map[string]interface{} {
	return map[string]interface{}{
		"title":           in.Title,
		"description":     in.Description,
		"duration":        in.Duration,
		"lesson_duration": in.LessonDuration,
		"lesson_days":     in.LessonDays,
		"age_range":       in.AgeRange,
		"requirements":    in.Requirements,
	}
}

func (a *API) ListDirections(w http.ResponseWriter, r *http.Request) {
	active, ok := queryBool(r, "active")
	if !ok {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "active must be true or false", nil, nil)
		return
	}
	items, err := a.store.ListDirections(r.Context(), active)
	if err != nil {
		a.serverError(w, r, "failed to fetch directions", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "", items, nil)
}

func (a *API) GetDirection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgDirectionNotFound)
	if !ok {
		return
	}
	d, err := a.store.GetDirectionByID(r.Context(), id)
	if err != nil {
		a.storeError(w, r, msgDirectionNotFound, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "", d, nil)
}

func (a *API) CreateDirection(w http.ResponseWriter, r *http.Request) {
	f, ok := a.uploadFields(w, r, 1)
	if !ok {
		return
	}
	in := readDirection(f)
	active := f.Bool("is_active")
	if errs := collectErrors(f, in); len(errs) > 0 {
		utils.WriteValidationErrors(w, errs)
		return
	}
	up, ok := a.requiredImage(w, r)
	if !ok {
		return
	}
	d := &models.Direction{
		Title:          in.Title,
		Description:    in.Description,
		Image:          up.URL,
		ImageKey:       up.Key,
		Duration:       in.Duration,
		LessonDuration: in.LessonDuration,
		LessonDays:     in.LessonDays,
		AgeRange:       in.AgeRange,
		Requirements:   in.Requirements,
		Active:         boolOr(active, true),
	}
	if err := a.store.CreateDirection(r.Context(), d); err != nil {
		a.rollback(r, up)
		a.serverError(w, r, "failed to create direction", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, true, "direction created", d, nil)
}

func (a *API) UpdateDirection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgDirectionNotFound)
	if !ok {
		return
	}
	f, ok := a.uploadFields(w, r, 1)
	if !ok {
		return
	}
	in := readDirection(f)
	active := f.Bool("is_active")
	if errs := collectErrors(f, in); len(errs) > 0 {
		utils.WriteValidationErrors(w, errs)
		return
	}
	cur, err := a.store.GetDirectionByID(r.Context(), id)
	if err != nil {
		a.storeError(w, r, msgDirectionNotFound, err)
		return
	}

	fields := in.columns()
	if active != nil {
		fields["active"] = *active
	}
	up, ok := a.optionalImage(w, r, fields)
	if !ok {
		return
	}
	d, err := a.store.UpdateDirection(r.Context(), id, fields)
	if err != nil {
		a.rollback(r, up)
		a.storeError(w, r, msgDirectionNotFound, err)
		return
	}
	if up != nil {
		a.upload.discard(r.Context(), cur.ImageKey)
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "direction updated", d, nil)
}

func (a *API) DeleteDirection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgDirectionNotFound)
	if !ok {
		return
	}
	d, err := a.store.DeleteDirection(r.Context(), id)
	if err != nil {
		a.storeError(w, r, msgDirectionNotFound, err)
		return
	}
	a.upload.discard(r.Context(), d.ImageKey)
	utils.WriteJSONResponse(w, http.StatusOK, true, "direction deleted", nil, nil)
}
