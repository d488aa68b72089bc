package handlers

import (
	"encoding/json"
	"net/http"

	"stationgate/internal/engine"
	"stationgate/internal/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func ListDeviceTokens(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ts, err := st.ListDeviceTokens(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, ts)
	}
}

// ApproveDeviceToken approves a pending token; when pc_id is supplied the
// station is registered to the token's address and brought online as well.
func ApproveDeviceToken(core *engine.Core, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			PCID string `json:"pc_id,omitempty"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		respondOp(w, lg, "approve token", core.ApproveDeviceToken(r.Context(), id, req.PCID))
	}
}

func RejectDeviceToken(core *engine.Core, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondOp(w, lg, "reject token", core.RejectDeviceToken(r.Context(), chi.URLParam(r, "id")))
	}
}

func DeleteDeviceToken(core *engine.Core, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondOp(w, lg, "delete token", core.DeleteDeviceToken(r.Context(), chi.URLParam(r, "id")))
	}
}
