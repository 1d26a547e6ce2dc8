package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"event-checkin-backend/constants"
	"event-checkin-backend/middleware"
	"event-checkin-backend/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxBodyBytes borne la taille des corps JSON acceptés
const maxBodyBytes = 1 << 20

// ParseEventID extrait et valide event_id depuis les vars de l'URL.
func ParseEventID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	return ParseObjectIDVar(w, mux.Vars(r), "event_id", constants.ErrInvalidEventID)
}

// ParseObjectIDVar extrait et valide un ObjectID depuis les vars (clé configurable, msg d'erreur configurable).
func ParseObjectIDVar(w http.ResponseWriter, vars map[string]string, key, errMsg string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(vars[key])
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, errMsg)
		return primitive.NilObjectID, false
	}
	return id, true
}

// ManagerID retourne l'identifiant du manager authentifié. Écrit 401 si absent.
func ManagerID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims := middleware.GetManagerFromContext(r.Context())
	if claims == nil {
		utils.RespondError(w, http.StatusUnauthorized, constants.ErrNotAuthenticated)
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.ManagerID)
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, constants.ErrInvalidToken)
		return primitive.NilObjectID, false
	}
	return id, true
}

// DecodeJSON décode le corps et applique les tags validate. Écrit 400 en cas d'échec.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidJSONBody)
		return false
	}

	if err := utils.ValidateStruct(dst); err != nil {
		var ve utils.ValidationError
		if errors.As(err, &ve) {
			utils.RespondErrorWith(w, http.StatusBadRequest, ve.Error(), map[string]interface{}{"field": ve.Field})
			return false
		}
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return false
	}
	return true
}
