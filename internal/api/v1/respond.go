package v1

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/edu-center/site-api/internal/store"
	"github.com/edu-center/site-api/internal/utils"
)

const (
	maxPerPage     = 100
	maxJSONBody    = 10 << 20
	msgServerError = "internal server error"
)

// serverError logs err and answers 500; the detail is only exposed in development.
func (a *API) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	a.log.WithError(err).WithFields(logrus.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
	}).Error(msg)
	var detail interface{}
	if a.cfg.IsDevelopment() {
		detail = err.Error()
	}
	utils.WriteJSONResponse(w, http.StatusInternalServerError, false, msg, nil, detail)
}

// storeError maps store.ErrNotFound to 404 and anything else to 500.
func (a *API) storeError(w http.ResponseWriter, r *http.Request, notFoundMsg string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		utils.WriteJSONResponse(w, http.StatusNotFound, false, notFoundMsg, nil, nil)
		return
	}
	a.serverError(w, r, msgServerError, err)
}

// pathID reads {id}; malformed ids cannot exist and are answered with 404.
func pathID(w http.ResponseWriter, r *http.Request, notFoundMsg string) (string, bool) {
	id := chi.URLParam(r, "id")
	if !utils.ValidID(id) {
		utils.WriteJSONResponse(w, http.StatusNotFound, false, notFoundMsg, nil, nil)
		return "", false
	}
	return id, true
}

// bodyFields reads a JSON/form body of at most maxJSONBody bytes, answering
// 400 on failure and 413 when the body is too large.
func (a *API) bodyFields(w http.ResponseWriter, r *http.Request) (*formFields, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	f, err := readFields(r)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			utils.WriteJSONResponse(w, http.StatusRequestEntityTooLarge, false, "request body too large", nil, nil)
			return nil, false
		}
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "invalid request body", nil, err.Error())
		return nil, false
	}
	return f, true
}

// uploadFields limits the body for the given number of files, then parses it.
func (a *API) uploadFields(w http.ResponseWriter, r *http.Request, files int) (*formFields, bool) {
	a.upload.limitBody(w, r, files)
	f, err := readFields(r)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			utils.WriteJSONResponse(w, http.StatusBadRequest, false, msgFileTooLarge, nil, nil)
			return nil, false
		}
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "invalid request body", nil, err.Error())
		return nil, false
	}
	return f, true
}

// uploadFailed answers a failed upload: 400 for client mistakes, 500 otherwise.
func (a *API) uploadFailed(w http.ResponseWriter, r *http.Request, err error) {
	if msg, ok := isUploadError(err); ok {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, msg, nil, nil)
		return
	}
	a.serverError(w, r, "failed to save file", err)
}

// queryBool parses an optional boolean filter; ok is false when the value is malformed.
func queryBool(r *http.Request, key string) (*bool, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, false
	}
	return &b, true
}

// parsePage reads page/limit with defaults; limit is capped at maxPerPage and
// page so that (page-1)*limit cannot overflow.
func parsePage(r *http.Request, defaultLimit int) (page, limit int) {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(q.Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPerPage {
		limit = maxPerPage
	}
	if last := math.MaxInt / limit; page > last {
		page = last
	}
	return page, limit
}

// requiredImage saves the "image" part, answering 400 when it is missing or rejected.
func (a *API) requiredImage(w http.ResponseWriter, r *http.Request) (*uploadedFile, bool) {
	fh := formFile(r, "image")
	if fh == nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "image is required", nil, nil)
		return nil, false
	}
	up, err := a.upload.save(r.Context(), "image", fh)
	if err != nil {
		a.uploadFailed(w, r, err)
		return nil, false
	}
	return up, true
}

// optionalImage saves a replacement "image" part when one was sent and adds
// its columns to fields.
func (a *API) optionalImage(w http.ResponseWriter, r *http.Request, fields map[string]interface{}) (*uploadedFile, bool) {
	fh := formFile(r, "image")
	if fh == nil {
		return nil, true
	}
	up, err := a.upload.save(r.Context(), "image", fh)
	if err != nil {
		a.uploadFailed(w, r, err)
		return nil, false
	}
	fields["image"] = up.URL
	fields["image_key"] = up.Key
	return up, true
}

// rollback removes a just-saved upload whose record was not written.
func (a *API) rollback(r *http.Request, up *uploadedFile) {
	if up != nil {
		a.upload.discard(r.Context(), up.Key)
	}
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
