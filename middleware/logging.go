package middleware

import (
	"bufio"
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"event-checkin-backend/constants"
	"event-checkin-backend/services"

	"github.com/google/uuid"
)

const requestIDKey contextKey = "request_id"

// responseWriter wrapper pour capturer le code de statut
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack laisse passer la mise à niveau websocket
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack non supporté")
	}
	return h.Hijack()
}

// isCriticalError : seules les erreurs serveur (5xx) sont notifiées sur Slack.
// Les rejets métier (400, 401, 403, 404, 409) sont des réponses attendues.
func isCriticalError(statusCode int) bool {
	return statusCode >= http.StatusInternalServerError
}

// RequestIDFromContext retourne l'identifiant de la requête en cours
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Logging attribue un identifiant à chaque requête, journalise les erreurs
// et envoie une notification Slack pour les erreurs critiques
func Logging(slackService *services.SlackService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(constants.HeaderRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(constants.HeaderRequestID, requestID)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID))

			// Créer un wrapper pour capturer le code de statut
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			statusCode := rw.statusCode

			if statusCode < http.StatusBadRequest {
				return
			}

			log.Printf("⚠️ [%s] %s %s -> %d (%s)", requestID, r.Method, r.RequestURI, statusCode, duration)

			if isCriticalError(statusCode) && slackService.Enabled() {
				go slackService.SendCriticalError(
					r.Method,
					r.RequestURI,
					strconv.Itoa(statusCode),
					http.StatusText(statusCode),
					requestID,
					r.Header.Get("User-Agent"),
				)
			}
		})
	}
}
