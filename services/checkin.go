package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"event-checkin-backend/database"
	"event-checkin-backend/models"
	"event-checkin-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// tokenKeys sont les clés sous lesquelles les différentes versions du QR code ont porté le token
var tokenKeys = []string{"token", "registrationId", "registration_id", "qrCode", "qr_code", "code", "id"}

// ResolveToken extrait le token d'une valeur scannée.
// Accepte le contenu JSON actuel ({"v":1,"token":...}), les anciennes enveloppes JSON
// et le token brut ; à défaut de clé reconnue, la valeur entière est le token.
func ResolveToken(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		return raw
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return raw
	}

	for _, key := range tokenKeys {
		switch v := payload[key].(type) {
		case string:
			if t := strings.TrimSpace(v); t != "" {
				return t
			}
		case float64:
			if v == float64(int64(v)) {
				return strconv.FormatInt(int64(v), 10)
			}
		}
	}

	return raw
}

// CheckInService enregistre les entrées le jour de l'événement
type CheckInService struct {
	events        EventStore
	registrations RegistrationStore
	analytics     *AnalyticsService
	now           func() time.Time
}

// NewCheckInService crée un CheckInService. analytics peut être nil.
func NewCheckInService(events EventStore, registrations RegistrationStore, analytics *AnalyticsService) *CheckInService {
	return &CheckInService{
		events:        events,
		registrations: registrations,
		analytics:     analytics,
		now:           time.Now,
	}
}

// CheckIn fait passer l'inscription correspondant à la valeur scannée à "entrée enregistrée".
// Seules les inscriptions des événements du manager sont visibles.
// Un second scan retourne *AlreadyCheckedInError avec l'heure du premier.
func (s *CheckInService) CheckIn(ctx context.Context, scanned string, managerID primitive.ObjectID) (*models.Registration, error) {
	token := ResolveToken(scanned)
	if token == "" {
		return nil, utils.ValidationError{Field: "scanned_value", Message: "valeur scannée vide"}
	}

	existing, err := s.registrations.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrRegistrationNotFound
	}
	event, err := s.events.FindByID(ctx, existing.EventID)
	if err != nil {
		return nil, err
	}
	if event == nil || event.ManagerID != managerID {
		return nil, ErrRegistrationNotFound
	}

	reg, err := s.registrations.MarkCheckedIn(ctx, token, s.now().UTC())
	switch {
	case err == nil:
	case errors.Is(err, database.ErrNotFound):
		return nil, ErrRegistrationNotFound
	case errors.Is(err, database.ErrAlreadyCheckedIn):
		var at time.Time
		if reg.CheckedInAt != nil {
			at = *reg.CheckedInAt
		}
		resolveGroupName(event, reg)
		log.Printf("ℹ️  Entrée déjà enregistrée pour l'inscription %s (%s)", reg.ID.Hex(), at.Format(time.RFC3339))
		return nil, &AlreadyCheckedInError{Registration: reg, CheckedInAt: at}
	default:
		return nil, err
	}

	log.Printf("✓ Entrée enregistrée: inscription %s", reg.ID.Hex())

	resolveGroupName(event, reg)
	s.analytics.Publish(event)

	return reg, nil
}

// resolveGroupName remplace le nom dénormalisé par le nom actuel du groupe, s'il existe encore
func resolveGroupName(event *models.Event, reg *models.Registration) {
	if event == nil {
		return
	}
	if g := event.GroupByID(reg.GroupID); g != nil {
		reg.GroupName = g.Name
	}
}
