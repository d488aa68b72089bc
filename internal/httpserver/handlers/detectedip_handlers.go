package handlers

import (
	"encoding/json"
	"net/http"

	"stationgate/internal/engine"
	"stationgate/internal/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func ListDetectedIPs(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, err := st.ListDetectedIPs(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, ds)
	}
}

func AssignDetectedIP(core *engine.Core, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := chi.URLParam(r, "ip")
		var req struct {
			PCID string `json:"pc_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.PCID == "" {
			http.Error(w, "pc_id required", http.StatusBadRequest)
			return
		}
		respondOp(w, lg, "assign ip", core.AssignIPToPC(r.Context(), ip, req.PCID))
	}
}

func ApproveDetectedIP(core *engine.Core, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondOp(w, lg, "approve ip", core.ApproveDetectedIP(r.Context(), chi.URLParam(r, "ip")))
	}
}

func IgnoreDetectedIP(core *engine.Core, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondOp(w, lg, "ignore ip", core.IgnoreDetectedIP(r.Context(), chi.URLParam(r, "ip")))
	}
}

func DeleteDetectedIP(core *engine.Core, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondOp(w, lg, "delete ip", core.DeleteDetectedIP(r.Context(), chi.URLParam(r, "ip")))
	}
}
