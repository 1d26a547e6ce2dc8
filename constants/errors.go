package constants

// Messages d'erreur HTTP courants
const (
	ErrMethodNotAllowed      = "Méthode non autorisée"
	ErrServerError           = "Erreur serveur"
	ErrInvalidData           = "Données invalides"
	ErrNotAuthenticated      = "Non authentifié"
	ErrMissingToken          = "Token d'authentification manquant"
	ErrInvalidTokenFormat    = "Format du token invalide"
	ErrInvalidToken          = "Token invalide ou expiré"
	ErrInvalidEventID        = "ID événement invalide"
	ErrEventNotFound         = "Événement non trouvé"
	ErrInvalidGroupID        = "ID de groupe invalide"
	ErrGroupNotFound         = "Groupe non trouvé"
	ErrInvalidRegistrationID = "ID d'inscription invalide"
	ErrRegistrationNotFound  = "Inscription non trouvée"
	ErrInvalidJSONBody       = "Body JSON invalide"
)

// En-têtes HTTP
const (
	HeaderContentType     = "Content-Type"
	HeaderApplicationJSON = "application/json"
	HeaderTextCSV         = "text/csv; charset=utf-8"
	HeaderRequestID       = "X-Request-ID"
)

// AuthCookieName est le cookie HttpOnly qui porte le JWT du manager
const AuthCookieName = "token"
