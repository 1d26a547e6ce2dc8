package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"event-checkin-backend/constants"
	"event-checkin-backend/database"
	"event-checkin-backend/services"
	"event-checkin-backend/utils"
)

// errorStatuses associe les rejets métier à leur code HTTP
var errorStatuses = []struct {
	err    error
	status int
}{
	{services.ErrEventNotFound, http.StatusNotFound},
	{services.ErrGroupNotFound, http.StatusNotFound},
	{services.ErrRegistrationNotFound, http.StatusNotFound},
	{services.ErrMissingEmail, http.StatusBadRequest},
	{services.ErrCapacityExceeded, http.StatusBadRequest},
	{services.ErrGroupClosed, http.StatusForbidden},
	{services.ErrGroupNameTaken, http.StatusConflict},
	{services.ErrEmailTaken, http.StatusConflict},
	{database.ErrSlugTaken, http.StatusConflict},
	{services.ErrInvalidCredentials, http.StatusUnauthorized},
	{services.ErrMailerDisabled, http.StatusServiceUnavailable},
}

// respondServiceError traduit une erreur de service en réponse HTTP.
// Les erreurs inconnues sont journalisées et renvoyées en 500 sans détail.
func respondServiceError(w http.ResponseWriter, action string, err error) {
	var ve utils.ValidationError
	if errors.As(err, &ve) {
		utils.RespondErrorWith(w, http.StatusBadRequest, ve.Error(), map[string]interface{}{"field": ve.Field})
		return
	}

	var se *services.StructuralSchemaError
	if errors.As(err, &se) {
		utils.RespondErrorWith(w, http.StatusBadRequest, se.Error(), map[string]interface{}{"missing_roles": se.MissingRoles})
		return
	}

	var already *services.AlreadyCheckedInError
	if errors.As(err, &already) {
		utils.RespondErrorWith(w, http.StatusConflict, already.Error(), map[string]interface{}{
			"checked_in_at": already.CheckedInAt.Format(time.RFC3339),
			"registration":  already.Registration,
		})
		return
	}

	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			utils.RespondError(w, e.status, e.err.Error())
			return
		}
	}

	log.Printf("❌ Erreur lors de %s: %v", action, err)
	utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
}
