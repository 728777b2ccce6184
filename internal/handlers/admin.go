package handlers

import (
	"net/http"

	"github.com/petermazzocco/cloud-vault/internal/httpx"
)

type statsResp struct {
	TotalFiles    int   `json:"totalFiles"`
	TotalUsers    int64 `json:"totalUsers"`
	TotalSizeUsed int64 `json:"totalSizeUsed"`
}

// StatsHandler serves GET /api/admin/stats behind auth.AdminMiddleware.
func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	files, err := a.files.ListAll(r.Context())
	if err != nil {
		a.log.Error(r.Context(), "stats: list files", "err", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	users, err := a.users.Count(r.Context())
	if err != nil {
		a.log.Error(r.Context(), "stats: count users", "err", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, statsResp{
		TotalFiles:    len(files),
		TotalUsers:    users,
		TotalSizeUsed: TotalSize(files),
	})
}
