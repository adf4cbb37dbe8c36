package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/edu-center/site-api/internal/utils"
)

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	err := a.store.Ping(ctx)
	ok := err == nil
	data := map[string]interface{}{
		"db":   ok,
		"time": time.Now(),
	}
	if !ok {
		a.log.WithError(err).Warn("health check: database unreachable")
		utils.WriteJSONResponse(w, http.StatusServiceUnavailable, false, "db unreachable", data, nil)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "ok", data, nil)
}
