package v1

import (
	"context"
	"net/http"

	"github.com/edu-center/site-api/internal/models"
	"github.com/edu-center/site-api/internal/utils"
)

const msgQuestionNotFound = "question not found"

type questionStore interface {
	ListQuestions(ctx context.Context, active *bool) ([]models.Question, error)
	GetQuestionByID(ctx context.Context, id string) (*models.Question, error)
	CreateQuestion(ctx context.Context, q *models.Question) error
	UpdateQuestion(ctx context.Context, id string, fields map[string]interface{}) (*models.Question, error)
	DeleteQuestion(ctx context.Context, id string) (*models.Question, error)
}

type questionInput struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

// ListQuestions is sorted by order, then newest first.
func (a *API) ListQuestions(w http.ResponseWriter, r *http.Request) {
	active, ok := queryBool(r, "active")
	if !ok {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "active must be true or false", nil, nil)
		return
	}
	items, err := a.store.ListQuestions(r.Context(), active)
	if err != nil {
		a.serverError(w, r, "failed to fetch questions", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "", items, nil)
}

func (a *API) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgQuestionNotFound)
	if !ok {
		return
	}
	q, err := a.store.GetQuestionByID(r.Context(), id)
	if err != nil {
		a.storeError(w, r, msgQuestionNotFound, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "", q, nil)
}

func (a *API) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	f, ok := a.bodyFields(w, r)
	if !ok {
		return
	}
	in := questionInput{Question: f.String("question"), Answer: f.String("answer")}
	active := f.Bool("is_active")
	order := f.Int("order")
	if errs := collectErrors(f, in); len(errs) > 0 {
		utils.WriteValidationErrors(w, errs)
		return
	}
	q := &models.Question{Question: in.Question, Answer: in.Answer, Active: boolOr(active, true)}
	if order != nil {
		q.Order = *order
	}
	if err := a.store.CreateQuestion(r.Context(), q); err != nil {
		a.serverError(w, r, "failed to create question", err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, true, "question created", q, nil)
}

func (a *API) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgQuestionNotFound)
	if !ok {
		return
	}
	f, ok := a.bodyFields(w, r)
	if !ok {
		return
	}
	in := questionInput{Question: f.String("question"), Answer: f.String("answer")}
	active := f.Bool("is_active")
	order := f.Int("order")
	if errs := collectErrors(f, in); len(errs) > 0 {
		utils.WriteValidationErrors(w, errs)
		return
	}
	fields := map[string]interface{}{"question": in.Question, "answer": in.Answer}
	if active != nil {
		fields["active"] = *active
	}
	if order != nil {
		fields["sort_order"] = *order
	}
	q, err := a.store.UpdateQuestion(r.Context(), id, fields)
	if err != nil {
		a.storeError(w, r, msgQuestionNotFound, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "question updated", q, nil)
}

func (a *API) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgQuestionNotFound)
	if !ok {
		return
	}
	if _, err := a.store.DeleteQuestion(r.Context(), id); err != nil {
		a.storeError(w, r, msgQuestionNotFound, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "question deleted", nil, nil)
}
