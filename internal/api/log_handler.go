package api

import (
	"context"
	"net/http"

	"parkreserve/internal/db"
	"parkreserve/internal/entities"
)

type LogAPI interface {
	List(ctx context.Context, page entities.Page) ([]db.AuditLog, int, error)
}

type LogHandler struct {
	Service LogAPI
}

func NewLogHandler(svc LogAPI) *LogHandler {
	return &LogHandler{Service: svc}
}

func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	logs, total, err := h.Service.List(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}
	if logs == nil {
		logs = []db.AuditLog{}
	}
	writeJSON(w, http.StatusOK, newListResponse(logs, page, total))
}
