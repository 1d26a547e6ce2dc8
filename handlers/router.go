package handlers

import (
	"net/http"

	"event-checkin-backend/middleware"
	"event-checkin-backend/services"

	"github.com/gorilla/mux"
)

// WebSocketPath est servi sans les middlewares HTTP
const WebSocketPath = "/ws"

// RouterConfig regroupe les handlers et réglages nécessaires au routeur
type RouterConfig struct {
	JWTSecret   string
	CORSOrigins []string
	Slack       *services.SlackService

	Health        *HealthHandler
	Auth          *AuthHandler
	Events        *EventHandler
	Registrations *RegistrationHandler
	// WebSocket peut être nil : la route /ws n'est alors pas exposée
	WebSocket http.Handler
}

// NewRouter construit le routeur de l'API
func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()

	// Routeur sans middleware pour WebSocket
	rawRouter := mux.NewRouter()

	router.Use(middleware.Logging(cfg.Slack))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// Routes publiques
	router.HandleFunc("/api/health", cfg.Health.Health).Methods("GET")
	router.HandleFunc("/api/auth/signup", cfg.Auth.Signup).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/login", cfg.Auth.Login).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/logout", cfg.Auth.Logout).Methods("POST", "OPTIONS")

	// Page d'inscription publique
	router.HandleFunc("/api/events/public/{slug}", cfg.Events.GetPublicEvent).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/registrations/register", cfg.Registrations.Register).Methods("POST", "OPTIONS")

	// Routes protégées
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.Auth(cfg.JWTSecret))

	protected.HandleFunc("/auth/me", cfg.Auth.Me).Methods("GET", "OPTIONS")

	// Événements
	protected.HandleFunc("/events", cfg.Events.ListEvents).Methods("GET", "OPTIONS")
	protected.HandleFunc("/events", cfg.Events.CreateEvent).Methods("POST", "OPTIONS")
	protected.HandleFunc("/events/slug/{slug}", cfg.Events.GetEventBySlug).Methods("GET", "OPTIONS")
	protected.HandleFunc("/events/{event_id}", cfg.Events.GetEvent).Methods("GET", "OPTIONS")
	protected.HandleFunc("/events/{event_id}", cfg.Events.UpdateEvent).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/events/{event_id}", cfg.Events.DeleteEvent).Methods("DELETE", "OPTIONS")

	// Groupes
	protected.HandleFunc("/events/{event_id}/groups", cfg.Events.AddGroup).Methods("POST", "OPTIONS")
	protected.HandleFunc("/events/{event_id}/groups/{group_id}", cfg.Events.UpdateGroup).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/events/{event_id}/groups/{group_id}", cfg.Events.DeleteGroup).Methods("DELETE", "OPTIONS")
	protected.HandleFunc("/events/{event_id}/groups/{group_id}/toggle", cfg.Events.ToggleGroup).Methods("PATCH", "OPTIONS")

	// Entrée et inscriptions
	protected.HandleFunc("/registrations/checkin", cfg.Registrations.CheckIn).Methods("POST", "OPTIONS")
	protected.HandleFunc("/registrations/{event_id}", cfg.Registrations.ListRegistrations).Methods("GET", "OPTIONS")
	protected.HandleFunc("/registrations/{event_id}/export", cfg.Registrations.ExportRegistrations).Methods("GET", "OPTIONS")
	protected.HandleFunc("/registrations/{event_id}/mass-email", cfg.Registrations.SendMassEmail).Methods("POST", "OPTIONS")
	protected.HandleFunc("/registrations/{event_id}/analytics", cfg.Registrations.GetAnalytics).Methods("GET", "OPTIONS")
	protected.HandleFunc("/registrations/{event_id}/analytics/export", cfg.Registrations.ExportAnalytics).Methods("GET", "OPTIONS")
	protected.HandleFunc("/registrations/{event_id}/{registration_id}", cfg.Registrations.UpdateRegistration).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/registrations/{event_id}/{registration_id}", cfg.Registrations.DeleteRegistration).Methods("DELETE", "OPTIONS")

	if cfg.WebSocket != nil {
		rawRouter.Handle(WebSocketPath, cfg.WebSocket).Methods("GET")
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == WebSocketPath && cfg.WebSocket != nil {
			rawRouter.ServeHTTP(w, r)
			return
		}
		router.ServeHTTP(w, r)
	})
}
