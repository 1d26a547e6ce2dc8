package middleware

import (
	"context"
	"net/http"
	"strings"

	"event-checkin-backend/constants"
	"event-checkin-backend/utils"
)

type contextKey string

const ManagerContextKey contextKey = "manager"

// TokenFromRequest lit le JWT dans l'en-tête Authorization, sinon dans le cookie.
// Retourne ok=false si l'en-tête est présent mais mal formé.
func TokenFromRequest(r *http.Request) (token string, ok bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		// Vérifier le format "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	if cookie, err := r.Cookie(constants.AuthCookieName); err == nil {
		return cookie.Value, true
	}
	return "", true
}

// Auth vérifie le token JWT du manager
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := TokenFromRequest(r)
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, constants.ErrInvalidTokenFormat)
				return
			}
			if tokenString == "" {
				utils.RespondError(w, http.StatusUnauthorized, constants.ErrMissingToken)
				return
			}

			claims, err := utils.ValidateToken(tokenString, jwtSecret)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, constants.ErrInvalidToken)
				return
			}

			// Ajouter le manager au contexte
			ctx := context.WithValue(r.Context(), ManagerContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetManagerFromContext récupère le manager authentifié depuis le contexte
func GetManagerFromContext(ctx context.Context) *utils.Claims {
	claims, ok := ctx.Value(ManagerContextKey).(*utils.Claims)
	if !ok {
		return nil
	}
	return claims
}
