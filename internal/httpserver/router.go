package httpserver

import (
	"net/http"

	"stationgate/internal/auth"
	"stationgate/internal/engine"
	"stationgate/internal/httpserver/handlers"
	"stationgate/internal/realtime"
	"stationgate/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewRouter(db *gorm.DB, st store.Store, core *engine.Core, hub *realtime.Hub, lg *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)

	r.Post("/v1/auth/login", handlers.Login(db, lg))

	// Claim surface: unauthenticated, used by stations before they are let in.
	r.Get("/v1/claim/pc", handlers.ClaimPCByIP(st, lg))
	r.Post("/v1/claim/session", handlers.ClaimCreateSession(core, lg))
	r.Get("/v1/claim/session/{id}", handlers.ClaimSessionByID(st, lg))
	r.Post("/v1/claim/device-token", handlers.ClaimCreateDeviceToken(core, lg))
	r.Get("/v1/claim/device-token/{token}", handlers.ClaimDeviceTokenByValue(st, lg))

	// Change stream for claimants and consoles alike.
	r.Get("/v1/events", handlers.StreamEvents(hub, lg))

	r.Group(func(protected chi.Router) {
		protected.Use(auth.JWTAuth(db))
		protected.Get("/v1/me", handlers.Me(db, lg))

		// Read-only lists for dashboards and badge counts.
		protected.Get("/v1/pcs", handlers.ListPCs(st, lg))
		protected.Get("/v1/detected-ips", handlers.ListDetectedIPs(st, lg))
		protected.Get("/v1/device-tokens", handlers.ListDeviceTokens(st, lg))

		protected.Group(func(admin chi.Router) {
			admin.Use(auth.RequireRole("Administrator"))
			admin.Post("/v1/pcs", handlers.CreatePC(db, lg))
			for _, op := range []string{"grant", "deny", "end", "kick", "maintenance", "restore"} {
				admin.Post("/v1/pcs/{id}/"+op, handlers.PCOperation(core, lg, op))
			}
			admin.Post("/v1/detected-ips/{ip}/assign", handlers.AssignDetectedIP(core, lg))
			admin.Post("/v1/detected-ips/{ip}/approve", handlers.ApproveDetectedIP(core, lg))
			admin.Post("/v1/detected-ips/{ip}/ignore", handlers.IgnoreDetectedIP(core, lg))
			admin.Delete("/v1/detected-ips/{ip}", handlers.DeleteDetectedIP(core, lg))
			admin.Post("/v1/device-tokens/{id}/approve", handlers.ApproveDeviceToken(core, lg))
			admin.Post("/v1/device-tokens/{id}/reject", handlers.RejectDeviceToken(core, lg))
			admin.Delete("/v1/device-tokens/{id}", handlers.DeleteDeviceToken(core, lg))

			admin.Get("/v1/staff", handlers.ListStaff(db, lg))
			admin.Post("/v1/staff", handlers.CreateStaff(db, lg))
			admin.Patch("/v1/staff/{id}", handlers.UpdateStaff(db, lg))
			admin.Delete("/v1/staff/{id}", handlers.DeleteStaff(db, lg))
		})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
