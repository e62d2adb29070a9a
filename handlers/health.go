package handlers

import (
	"context"
	"net/http"

	"project-camp/api/utils"
)

// HealthHandler reports liveness. Ping, when set, checks the backing store.
type HealthHandler struct {
	Ping func(ctx context.Context) error
}

func (h *HealthHandler) Healthcheck(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		if err := h.Ping(r.Context()); err != nil {
			utils.WriteError(w, &utils.ApiError{
				StatusCode: http.StatusServiceUnavailable,
				Message:    "Database is unreachable",
				Err:        err,
			})
			return
		}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"}, "Server is running")
}
