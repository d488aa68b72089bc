package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"stationgate/internal/engine"
	"stationgate/internal/models"
	"stationgate/internal/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func ListPCs(st store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pcs, err := st.ListPCs(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, pcs)
	}
}

// CreatePC provisions a station. Stations start offline with no address.
func CreatePC(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PCNumber string `json:"pc_number"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		number := strings.TrimSpace(req.PCNumber)
		if number == "" {
			http.Error(w, "pc_number required", http.StatusBadRequest)
			return
		}
		pc := models.PC{PCNumber: number, Status: models.PCOffline, CreatedAt: time.Now(), UpdatedAt: time.Now()}
		if err := db.Create(&pc).Error; err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondJSON(w, pc)
	}
}

// PCOperation dispatches the admin transitions on a single station.
func PCOperation(core *engine.Core, lg *zap.SugaredLogger, op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var err error
		switch op {
		case "grant":
			err = core.Grant(r.Context(), id)
		case "deny":
			err = core.Deny(r.Context(), id)
		case "end":
			err = core.EndSession(r.Context(), id)
		case "kick":
			err = core.Kick(r.Context(), id)
		case "maintenance":
			err = core.SetMaintenance(r.Context(), id)
		case "restore":
			err = core.Restore(r.Context(), id)
		default:
			http.Error(w, "unknown operation", http.StatusNotFound)
			return
		}
		respondOp(w, lg, op, err)
	}
}
