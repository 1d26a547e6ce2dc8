package handlers

import (
	"net/http"

	"event-checkin-backend/constants"
	"event-checkin-backend/models"
	"event-checkin-backend/services"
	"event-checkin-backend/utils"

	"github.com/gorilla/mux"
)

// EventHandler gère les événements et leurs groupes
type EventHandler struct {
	events *services.EventService
}

// NewEventHandler crée une nouvelle instance de EventHandler
func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// GetPublicEvent retourne un événement par slug pour la page d'inscription (PUBLIC)
func (h *EventHandler) GetPublicEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetPublicEvent(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		respondServiceError(w, "la récupération de l'événement public", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, event)
}

// CreateEvent crée un événement pour le manager connecté
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}

	var req models.CreateEventRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	event, err := h.events.CreateEvent(r.Context(), managerID, req)
	if err != nil {
		respondServiceError(w, "la création de l'événement", err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, event)
}

// ListEvents retourne les événements du manager connecté
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}

	events, err := h.events.ListEvents(r.Context(), managerID)
	if err != nil {
		respondServiceError(w, "la récupération des événements", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, events)
}

// GetEvent retourne un événement du manager connecté
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}

	event, err := h.events.GetEvent(r.Context(), eventID, managerID)
	if err != nil {
		respondServiceError(w, "la récupération de l'événement", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, event)
}

// GetEventBySlug retourne un événement du manager connecté à partir de son slug
func (h *EventHandler) GetEventBySlug(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}

	event, err := h.events.GetEventBySlug(r.Context(), mux.Vars(r)["slug"], managerID)
	if err != nil {
		respondServiceError(w, "la récupération de l'événement", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, event)
}

// UpdateEvent modifie les métadonnées d'un événement
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}

	var req models.UpdateEventRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	event, err := h.events.UpdateEvent(r.Context(), eventID, managerID, req)
	if err != nil {
		respondServiceError(w, "la mise à jour de l'événement", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, event)
}

// DeleteEvent supprime un événement et ses inscriptions
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}

	deleted, err := h.events.DeleteEvent(r.Context(), eventID, managerID)
	if err != nil {
		respondServiceError(w, "la suppression de l'événement", err)
		return
	}

	utils.RespondSuccess(w, "Événement supprimé", map[string]int{"registrations_deleted": deleted})
}

// AddGroup ajoute un groupe à l'événement
func (h *EventHandler) AddGroup(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}

	var req models.CreateGroupRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	group, err := h.events.AddGroup(r.Context(), eventID, managerID, req)
	if err != nil {
		respondServiceError(w, "l'ajout du groupe", err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, group)
}

// UpdateGroup modifie un groupe de l'événement
func (h *EventHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}
	groupID, ok := ParseObjectIDVar(w, mux.Vars(r), "group_id", constants.ErrInvalidGroupID)
	if !ok {
		return
	}

	var req models.UpdateGroupRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	group, err := h.events.UpdateGroup(r.Context(), eventID, groupID, managerID, req)
	if err != nil {
		respondServiceError(w, "la mise à jour du groupe", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, group)
}

// ToggleGroup ouvre ou ferme les inscriptions d'un groupe
func (h *EventHandler) ToggleGroup(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}
	groupID, ok := ParseObjectIDVar(w, mux.Vars(r), "group_id", constants.ErrInvalidGroupID)
	if !ok {
		return
	}

	group, err := h.events.ToggleGroup(r.Context(), eventID, groupID, managerID)
	if err != nil {
		respondServiceError(w, "l'ouverture/fermeture du groupe", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, group)
}

// DeleteGroup retire un groupe de l'événement
func (h *EventHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}
	groupID, ok := ParseObjectIDVar(w, mux.Vars(r), "group_id", constants.ErrInvalidGroupID)
	if !ok {
		return
	}

	if err := h.events.DeleteGroup(r.Context(), eventID, groupID, managerID); err != nil {
		respondServiceError(w, "la suppression du groupe", err)
		return
	}

	utils.RespondSuccess(w, "Groupe supprimé", nil)
}
