package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"event-checkin-backend/constants"
	"event-checkin-backend/models"
	"event-checkin-backend/services"
	"event-checkin-backend/utils"

	"github.com/gorilla/mux"
)

// RegistrationHandler gère les inscriptions, l'entrée et les statistiques
type RegistrationHandler struct {
	registrations *services.RegistrationService
	checkIn       *services.CheckInService
	analytics     *services.AnalyticsService
}

// NewRegistrationHandler crée une nouvelle instance de RegistrationHandler
func NewRegistrationHandler(registrations *services.RegistrationService, checkIn *services.CheckInService, analytics *services.AnalyticsService) *RegistrationHandler {
	return &RegistrationHandler{
		registrations: registrations,
		checkIn:       checkIn,
		analytics:     analytics,
	}
}

// Register inscrit un participant (PUBLIC) et renvoie son QR code
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.registrations.Register(r.Context(), req)
	if err != nil {
		respondServiceError(w, "l'inscription", err)
		return
	}

	resp := models.RegisterResponse{
		Message:           "Inscription réussie",
		RegistrationID:    res.Registration.ID.Hex(),
		Token:             res.Registration.Token,
		DeliveryConfirmed: res.DeliveryConfirmed,
	}
	if res.QRImage != nil {
		resp.QRCode = services.PNGDataURL(res.QRImage)
	}

	utils.RespondJSON(w, http.StatusCreated, resp)
}

// CheckIn enregistre l'entrée correspondant à un QR code scanné
func (h *RegistrationHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}

	var req models.CheckInRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	reg, err := h.checkIn.CheckIn(r.Context(), req.Value(), managerID)
	if err != nil {
		respondServiceError(w, "l'enregistrement de l'entrée", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Entrée enregistrée",
		"registration": reg,
	})
}

// ListRegistrations retourne les inscriptions d'un événement
func (h *RegistrationHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}

	registrations, err := h.registrations.ListRegistrations(r.Context(), eventID, managerID)
	if err != nil {
		respondServiceError(w, "la récupération des inscriptions", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, registrations)
}

// UpdateRegistration modifie les réponses d'une inscription
func (h *RegistrationHandler) UpdateRegistration(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}
	registrationID, ok := ParseObjectIDVar(w, mux.Vars(r), "registration_id", constants.ErrInvalidRegistrationID)
	if !ok {
		return
	}

	var req models.UpdateRegistrationRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	reg, err := h.registrations.UpdateRegistration(r.Context(), eventID, registrationID, managerID, req.FormData)
	if err != nil {
		respondServiceError(w, "la mise à jour de l'inscription", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, reg)
}

// DeleteRegistration supprime une inscription
func (h *RegistrationHandler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}
	registrationID, ok := ParseObjectIDVar(w, mux.Vars(r), "registration_id", constants.ErrInvalidRegistrationID)
	if !ok {
		return
	}

	if err := h.registrations.DeleteRegistration(r.Context(), eventID, registrationID, managerID); err != nil {
		respondServiceError(w, "la suppression de l'inscription", err)
		return
	}

	utils.RespondSuccess(w, "Inscription supprimée", nil)
}

// ExportRegistrations télécharge les inscriptions au format CSV
func (h *RegistrationHandler) ExportRegistrations(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}

	// Le CSV est construit en mémoire : une erreur peut encore produire une réponse JSON
	var buf bytes.Buffer
	event, err := h.registrations.ExportRegistrationsCSV(r.Context(), eventID, managerID, &buf)
	if err != nil {
		respondServiceError(w, "l'export des inscriptions", err)
		return
	}

	writeCSV(w, event.Slug+"-registrations.csv", buf.Bytes())
}

// SendMassEmail envoie un email aux inscrits filtrés
func (h *RegistrationHandler) SendMassEmail(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}

	var req models.MassEmailRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	resp, err := h.registrations.SendMassEmail(r.Context(), eventID, managerID, req)
	if err != nil {
		respondServiceError(w, "l'envoi groupé", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}

// GetAnalytics retourne les statistiques de l'événement
func (h *RegistrationHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}

	analytics, err := h.analytics.EventAnalytics(r.Context(), eventID, managerID)
	if err != nil {
		respondServiceError(w, "le calcul des statistiques", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, analytics)
}

// ExportAnalytics télécharge les statistiques par groupe au format CSV
func (h *RegistrationHandler) ExportAnalytics(w http.ResponseWriter, r *http.Request) {
	managerID, ok := ManagerID(w, r)
	if !ok {
		return
	}
	eventID, ok := ParseEventID(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if _, err := h.analytics.ExportCSV(r.Context(), eventID, managerID, &buf); err != nil {
		respondServiceError(w, "l'export des statistiques", err)
		return
	}

	writeCSV(w, fmt.Sprintf("analytics-%s.csv", time.Now().Format("20060102")), buf.Bytes())
}

func writeCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set(constants.HeaderContentType, constants.HeaderTextCSV)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
