package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"stationgate/internal/engine"
	"stationgate/internal/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Claim endpoints are unauthenticated: they serve stations that have not been
// authorized yet. They expose only the rows a claimant needs to watch.

func ClaimPCByIP(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := strings.TrimSpace(r.URL.Query().Get("ip"))
		if net.ParseIP(ip) == nil {
			http.Error(w, "valid ip required", http.StatusBadRequest)
			return
		}
		pc, err := st.PCByIP(r.Context(), ip)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if pc == nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		respondJSON(w, pc)
	}
}

func ClaimCreateSession(core *engine.Core, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PCID      string `json:"pc_id"`
			IPAddress string `json:"ip_address"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.PCID == "" || net.ParseIP(req.IPAddress) == nil {
			http.Error(w, "pc_id and valid ip_address required", http.StatusBadRequest)
			return
		}
		sess, err := core.CreateSessionForPC(r.Context(), req.PCID, req.IPAddress)
		if err != nil {
			respondOp(w, lg, "claim session", err)
			return
		}
		respondJSON(w, sess)
	}
}

func ClaimSessionByID(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := st.SessionByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if sess == nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		respondJSON(w, sess)
	}
}

func ClaimCreateDeviceToken(core *engine.Core, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IPAddress  string `json:"ip_address"`
			DeviceName string `json:"device_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if net.ParseIP(req.IPAddress) == nil {
			http.Error(w, "valid ip_address required", http.StatusBadRequest)
			return
		}
		t, err := core.RegisterClaim(r.Context(), req.IPAddress, strings.TrimSpace(req.DeviceName))
		if err != nil {
			respondOp(w, lg, "register claim", err)
			return
		}
		respondJSON(w, t)
	}
}

func ClaimDeviceTokenByValue(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := st.DeviceTokenByValue(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if t == nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		respondJSON(w, t)
	}
}
