package utils

import (
	"encoding/json"
	"net/http"

	"github.com/edu-center/site-api/internal/models"
)

// WriteJSONResponse writes the standard envelope.
func WriteJSONResponse(w http.ResponseWriter, status int, success bool, message string, data interface{}, errDetail interface{}) {
	WriteEnvelope(w, status, models.APIResponse{
		Success: success,
		Message: message,
		Data:    data,
		Error:   errDetail,
	})
}

func WriteEnvelope(w http.ResponseWriter, status int, resp models.APIResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func WriteValidationErrors(w http.ResponseWriter, errs []models.FieldError) {
	WriteEnvelope(w, http.StatusBadRequest, models.APIResponse{
		Success: false,
		Message: "invalid input",
		Errors:  errs,
	})
}

func WritePaginated(w http.ResponseWriter, data interface{}, p *models.Pagination) {
	WriteEnvelope(w, http.StatusOK, models.APIResponse{
		Success:    true,
		Data:       data,
		Pagination: p,
	})
}
