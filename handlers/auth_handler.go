package handlers

import (
	"net/http"
	"time"

	"event-checkin-backend/constants"
	"event-checkin-backend/models"
	"event-checkin-backend/services"
	"event-checkin-backend/utils"
)

// AuthHandler gère les requêtes d'authentification des managers
type AuthHandler struct {
	auth         *services.AuthService
	secureCookie bool
}

// NewAuthHandler crée une nouvelle instance de AuthHandler.
// secureCookie active Secure et SameSite=None (production, front sur un autre domaine).
func NewAuthHandler(auth *services.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, secureCookie: secureCookie}
}

// Signup crée un compte manager
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	resp, err := h.auth.Signup(r.Context(), req)
	if err != nil {
		respondServiceError(w, "l'inscription du manager", err)
		return
	}

	h.setSessionCookie(w, resp.Token, h.auth.TokenTTL())
	utils.RespondJSON(w, http.StatusCreated, resp)
}

// Login ouvre une session ; le token est renvoyé dans le corps et dans un cookie HttpOnly
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	resp, err := h.auth.Login(r.Context(), req)
	if err != nil {
		respondServiceError(w, "la connexion", err)
		return
	}

	h.setSessionCookie(w, resp.Token, h.auth.TokenTTL())
	utils.RespondJSON(w, http.StatusOK, resp)
}

// Logout supprime le cookie de session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setSessionCookie(w, "", -1)
	utils.RespondSuccess(w, "Déconnexion réussie", nil)
}

// Me retourne le manager connecté
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}

	manager, err := h.auth.Me(r.Context(), managerID)
	if err != nil {
		respondServiceError(w, "la lecture du manager", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, manager)
}

// setSessionCookie pose le cookie ; une durée négative le supprime
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     constants.AuthCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if h.secureCookie {
		cookie.SameSite = http.SameSiteNoneMode
	}
	if ttl < 0 {
		cookie.MaxAge = -1
	} else {
		cookie.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, cookie)
}
