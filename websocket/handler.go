package websocket

import (
	"log"
	"net/http"
	"time"

	"event-checkin-backend/constants"
	"event-checkin-backend/middleware"
	"event-checkin-backend/utils"

	"github.com/gorilla/websocket"
)

// authWait borne l'attente du message d'authentification
const authWait = 10 * time.Second

// Handler gère les connexions WebSocket des tableaux de bord
type Handler struct {
	hub       *Hub
	jwtSecret string
	upgrader  websocket.Upgrader
}

// NewHandler crée un nouveau handler WebSocket. allowedOrigins suit la configuration CORS.
func NewHandler(hub *Hub, jwtSecret string, allowedOrigins []string) *Handler {
	return &Handler{
		hub:       hub,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

// ServeHTTP accepte le token dans l'en-tête, le cookie de session ou ?token=.
// Sans token, le premier message doit être {"type":"authenticate","token":"..."}.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.TokenFromRequest(r)
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, constants.ErrInvalidTokenFormat)
		return
	}
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	managerID := ""
	if token != "" {
		claims, err := utils.ValidateToken(token, h.jwtSecret)
		if err != nil {
			utils.RespondError(w, http.StatusUnauthorized, constants.ErrInvalidToken)
			return
		}
		managerID = claims.ManagerID
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}

	if managerID != "" {
		h.accept(conn, managerID)
		return
	}

	go h.awaitAuthentication(conn)
}

// awaitAuthentication lit le message d'authentification avant d'enregistrer le client
func (h *Handler) awaitAuthentication(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(authWait))

	_, message, err := conn.ReadMessage()
	if err != nil {
		log.Printf("❌ Erreur lecture auth: %v", err)
		conn.Close()
		return
	}

	authMsg, err := decodeInbound(message)
	if err != nil || authMsg.Type != "authenticate" {
		h.reject(conn, "Authentification requise")
		return
	}
	if authMsg.Token == "" {
		h.reject(conn, "Token requis")
		return
	}

	claims, err := utils.ValidateToken(authMsg.Token, h.jwtSecret)
	if err != nil {
		log.Printf("⚠️  Token WebSocket invalide: %v", err)
		h.reject(conn, "Token invalide ou expiré")
		return
	}

	conn.SetReadDeadline(time.Time{})
	h.accept(conn, claims.ManagerID)
}

// accept enregistre le client puis confirme l'authentification avant de lancer les pumps
func (h *Handler) accept(conn *websocket.Conn, managerID string) {
	client := newClient(h.hub, conn, managerID)

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(map[string]interface{}{
		"type":       "authenticated",
		"manager_id": managerID,
	}); err != nil {
		log.Printf("❌ Erreur confirmation WebSocket: %v", err)
	}

	go client.writePump()
	go client.readPump()
}

func (h *Handler) reject(conn *websocket.Conn, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
	conn.Close()
}
