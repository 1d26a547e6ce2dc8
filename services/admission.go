package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"event-checkin-backend/database"
	"event-checkin-backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"
)

// DefaultLanguage est la langue des emails quand le participant n'en choisit pas
const DefaultLanguage = "en"

// RegistrationResult est le résultat d'une inscription admise
type RegistrationResult struct {
	Registration      *models.Registration
	QRImage           []byte
	DeliveryConfirmed bool
}

// RegistrationService admet les inscriptions publiques et les gère pour le manager
type RegistrationService struct {
	events          EventStore
	registrations   RegistrationStore
	issuer          *TokenIssuer
	renderer        Renderer
	notifier        Notifier
	analytics       *AnalyticsService
	deliveryTimeout time.Duration
	limiter         *rate.Limiter
}

// NewRegistrationService crée un RegistrationService. analytics peut être nil.
func NewRegistrationService(
	events EventStore,
	registrations RegistrationStore,
	renderer Renderer,
	notifier Notifier,
	analytics *AnalyticsService,
	deliveryTimeout time.Duration,
) *RegistrationService {
	if deliveryTimeout <= 0 {
		deliveryTimeout = 10 * time.Second
	}
	return &RegistrationService{
		events:          events,
		registrations:   registrations,
		issuer:          NewTokenIssuer(),
		renderer:        renderer,
		notifier:        notifier,
		analytics:       analytics,
		deliveryTimeout: deliveryTimeout,
		limiter:         newMassEmailLimiter(),
	}
}

// Register valide et admet une inscription publique.
//
// Contrôles dans l'ordre : événement, groupe, ouverture, formulaire, capacité.
// L'envoi de l'email est ensuite tenté une fois ; son échec n'annule pas l'inscription.
func (s *RegistrationService) Register(ctx context.Context, req models.RegisterRequest) (*RegistrationResult, error) {
	event, err := s.events.FindBySlug(ctx, strings.TrimSpace(req.EventSlug))
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	group := event.GroupByName(strings.TrimSpace(req.GroupName))
	if group == nil {
		return nil, ErrGroupNotFound
	}
	if !group.IsOpen {
		return nil, ErrGroupClosed
	}

	formData, email, err := ValidateSubmission(group.Fields, req.FormData)
	if err != nil {
		return nil, err
	}

	language := req.Language
	if _, ok := confirmationTranslations[language]; !ok {
		language = DefaultLanguage
	}

	reg := &models.Registration{
		EventID:   event.ID,
		GroupID:   group.ID,
		GroupName: group.Name,
		FormData:  formData,
		Email:     email,
		Language:  language,
	}

	if err := s.admit(ctx, reg, group.Capacity); err != nil {
		return nil, err
	}

	log.Printf("✓ Inscription admise: %s -> %s / %s", reg.ID.Hex(), event.Slug, group.Name)
	s.analytics.Publish(event)

	result := &RegistrationResult{Registration: reg}

	png, err := s.renderer.Render(EncodePayload(reg.Token))
	if err != nil {
		log.Printf("❌ QR code non généré pour l'inscription %s: %v", reg.ID.Hex(), err)
		s.recordDelivery(ctx, reg, false)
		return result, nil
	}
	result.QRImage = png
	result.DeliveryConfirmed = s.deliver(ctx, event, reg, png)

	return result, nil
}

// admit génère un token et insère l'inscription, en régénérant le token en cas de collision
func (s *RegistrationService) admit(ctx context.Context, reg *models.Registration, capacity int) error {
	for attempt := 1; attempt <= MaxTokenAttempts; attempt++ {
		token, err := s.issuer.Issue()
		if err != nil {
			return fmt.Errorf("erreur lors de la génération du token: %w", err)
		}
		reg.Token = token

		err = s.registrations.Admit(ctx, reg, capacity)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, database.ErrGroupFull):
			return ErrCapacityExceeded
		case errors.Is(err, database.ErrDuplicateToken):
			log.Printf("⚠️  Collision de token (tentative %d/%d)", attempt, MaxTokenAttempts)
			continue
		default:
			return err
		}
	}

	log.Printf("❌ %d collisions de token consécutives : entropie insuffisante", MaxTokenAttempts)
	return ErrTokenExhausted
}

// deliver envoie l'email de confirmation avec un délai borné et enregistre le résultat
func (s *RegistrationService) deliver(ctx context.Context, event *models.Event, reg *models.Registration, png []byte) bool {
	// L'envoi continue même si le client HTTP se déconnecte
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.deliveryTimeout)
	defer cancel()

	err := s.notifier.Deliver(ctx, Delivery{
		Email:      reg.Email,
		EventTitle: event.Title,
		Language:   reg.Language,
		QRImage:    png,
	})
	if err != nil {
		log.Printf("⚠️  Email non envoyé pour l'inscription %s: %v", reg.ID.Hex(), err)
	}

	s.recordDelivery(ctx, reg, err == nil)
	return err == nil
}

func (s *RegistrationService) recordDelivery(ctx context.Context, reg *models.Registration, sent bool) {
	status := models.NotificationFailed
	if sent {
		status = models.NotificationSent
	}
	reg.NotificationAttempts++
	reg.NotificationStatus = status

	if err := s.registrations.UpdateNotification(context.WithoutCancel(ctx), reg.ID, status, reg.NotificationAttempts); err != nil {
		log.Printf("❌ Statut d'envoi non enregistré pour l'inscription %s: %v", reg.ID.Hex(), err)
	}
}

// RetryFailedDeliveries renvoie les emails en échec ; retourne le nombre d'envois réussis et échoués
func (s *RegistrationService) RetryFailedDeliveries(ctx context.Context, maxAttempts, batchSize int) (int, int, error) {
	pending, err := s.registrations.FindFailedNotifications(ctx, maxAttempts, batchSize)
	if err != nil {
		return 0, 0, err
	}

	events := make(map[primitive.ObjectID]*models.Event)
	sent, failed := 0, 0

	for i := range pending {
		reg := &pending[i]

		event, ok := events[reg.EventID]
		if !ok {
			event, err = s.events.FindByID(ctx, reg.EventID)
			if err != nil {
				return sent, failed, err
			}
			events[reg.EventID] = event
		}
		if event == nil {
			// Événement supprimé : plus rien à envoyer
			reg.NotificationAttempts = maxAttempts - 1
			s.recordDelivery(ctx, reg, false)
			failed++
			continue
		}

		png, err := s.renderer.Render(EncodePayload(reg.Token))
		if err != nil {
			log.Printf("❌ QR code non généré pour l'inscription %s: %v", reg.ID.Hex(), err)
			s.recordDelivery(ctx, reg, false)
			failed++
			continue
		}

		if s.deliver(ctx, event, reg, png) {
			sent++
		} else {
			failed++
		}
	}

	return sent, failed, nil
}

// ListRegistrations retourne les inscriptions d'un événement du manager, les plus récentes d'abord
func (s *RegistrationService) ListRegistrations(ctx context.Context, eventID, managerID primitive.ObjectID) ([]models.Registration, error) {
	event, err := loadOwnedEvent(ctx, s.events, eventID, managerID)
	if err != nil {
		return nil, err
	}

	return s.eventRegistrations(ctx, event)
}

// eventRegistrations charge les inscriptions avec le nom actuel de leur groupe
func (s *RegistrationService) eventRegistrations(ctx context.Context, event *models.Event) ([]models.Registration, error) {
	registrations, err := s.registrations.FindByEvent(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	if registrations == nil {
		registrations = []models.Registration{}
	}
	for i := range registrations {
		resolveGroupName(event, &registrations[i])
	}

	return registrations, nil
}

// UpdateRegistration modifie les réponses d'une inscription, revalidées contre le formulaire actuel du groupe
func (s *RegistrationService) UpdateRegistration(ctx context.Context, eventID, registrationID, managerID primitive.ObjectID, formData map[string]string) (*models.Registration, error) {
	event, err := loadOwnedEvent(ctx, s.events, eventID, managerID)
	if err != nil {
		return nil, err
	}

	reg, err := s.registrations.FindByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg == nil || reg.EventID != event.ID {
		return nil, ErrRegistrationNotFound
	}

	group := event.GroupByID(reg.GroupID)
	if group == nil {
		return nil, ErrGroupNotFound
	}

	normalized, email, err := ValidateSubmission(group.Fields, formData)
	if err != nil {
		return nil, err
	}

	if err := s.registrations.UpdateFormData(ctx, reg.ID, normalized, email); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}

	reg.FormData = normalized
	reg.Email = email
	reg.GroupName = group.Name
	return reg, nil
}

// DeleteRegistration supprime une inscription ; sa place redevient disponible
func (s *RegistrationService) DeleteRegistration(ctx context.Context, eventID, registrationID, managerID primitive.ObjectID) error {
	event, err := loadOwnedEvent(ctx, s.events, eventID, managerID)
	if err != nil {
		return err
	}

	if err := s.registrations.DeleteByID(ctx, event.ID, registrationID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrRegistrationNotFound
		}
		return err
	}

	s.analytics.Publish(event)
	return nil
}
