package routes

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"PEERMATCH_BACK-END/internal/config"
	"PEERMATCH_BACK-END/internal/handlers"
	"PEERMATCH_BACK-END/internal/middleware"
)

// Handlers groups the HTTP handlers the router mounts
type Handlers struct {
	Health        *handlers.HealthHandler
	Availability  *handlers.AvailabilityHandler
	Notifications *handlers.NotificationsHandler
}

// SetupRoutes configures all application routes on mux
func SetupRoutes(mux *http.ServeMux, h Handlers, cfg *config.Config) {
	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return middleware.AuthMiddleware(next, &cfg.JWT)
	}

	// Health check routes
	mux.HandleFunc("/healthz", h.Health.HealthCheck)
	mux.HandleFunc("/livez", h.Health.LivenessCheck)
	mux.HandleFunc("/readyz", h.Health.ReadinessCheck)

	// Availability routes
	mux.HandleFunc("/api/availability", auth(h.Availability.Availability))
	mux.HandleFunc("/api/availability/grid", auth(h.Availability.Grid))

	// Notification routes
	mux.HandleFunc("/api/notifications", auth(h.Notifications.ListNotifications))
	mux.HandleFunc("/api/notifications/read-all", auth(h.Notifications.MarkAllRead))

	if cfg.SwaggerEnabled {
		mux.Handle("/swagger/", httpSwagger.WrapHandler)
	}

	// Root route
	mux.HandleFunc("/", rootHandler)
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Write([]byte("PeerMatch availability backend is running."))
}
