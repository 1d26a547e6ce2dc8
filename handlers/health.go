package handlers

import (
	"log"
	"net/http"
	"runtime"
	"time"

	"event-checkin-backend/utils"
)

var startTime = time.Now()

// HealthHandler gère les endpoints de santé
type HealthHandler struct {
	environment string
	storage     string
	ping        func() error
}

// NewHealthHandler crée un nouveau HealthHandler. ping vérifie le stockage ; nil pour la mémoire.
func NewHealthHandler(environment, storage string, ping func() error) *HealthHandler {
	return &HealthHandler{environment: environment, storage: storage, ping: ping}
}

// Health retourne l'état du serveur ; 503 si le stockage ne répond pas
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, code, dbStatus := "ok", http.StatusOK, "ok"
	if h.ping != nil {
		if err := h.ping(); err != nil {
			log.Printf("❌ Stockage %s injoignable: %v", h.storage, err)
			status, code, dbStatus = "degraded", http.StatusServiceUnavailable, "error"
		}
	}

	utils.RespondJSON(w, code, map[string]interface{}{
		"status":     status,
		"env":        h.environment,
		"storage":    h.storage,
		"db_status":  dbStatus,
		"uptime":     time.Since(startTime).Round(time.Second).String(),
		"go_version": runtime.Version(),
	})
}
