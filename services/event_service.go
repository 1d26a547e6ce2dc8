package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"event-checkin-backend/database"
	"event-checkin-backend/models"
	"event-checkin-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxSlugSuffix borne la recherche d'un slug libre
const maxSlugSuffix = 1000

// EventService gère les événements et leurs groupes pour un manager
type EventService struct {
	events        EventStore
	registrations RegistrationStore
}

// NewEventService crée un EventService
func NewEventService(events EventStore, registrations RegistrationStore) *EventService {
	return &EventService{events: events, registrations: registrations}
}

// loadOwnedEvent retourne l'événement s'il appartient au manager ; sinon ErrEventNotFound
func loadOwnedEvent(ctx context.Context, events EventStore, eventID, managerID primitive.ObjectID) (*models.Event, error) {
	event, err := events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil || event.ManagerID != managerID {
		return nil, ErrEventNotFound
	}
	return event, nil
}

// CreateEvent crée un événement ; le slug est dérivé du titre
func (s *EventService) CreateEvent(ctx context.Context, managerID primitive.ObjectID, req models.CreateEventRequest) (*models.Event, error) {
	title := strings.TrimSpace(req.Title)
	if err := utils.ValidateRequired("title", title); err != nil {
		return nil, err
	}
	if req.Date.IsZero() {
		return nil, utils.ValidationError{Field: "date", Message: "la date est requise"}
	}

	event := &models.Event{
		Title:       title,
		Date:        req.Date.Time.UTC(),
		Location:    strings.TrimSpace(req.Location),
		Description: strings.TrimSpace(req.Description),
		Groups:      []models.StakeholderGroup{},
		ManagerID:   managerID,
	}

	// Un autre événement peut prendre le slug entre la vérification et l'insertion
	for attempt := 0; ; attempt++ {
		slug, err := s.uniqueSlug(ctx, title, primitive.NilObjectID)
		if err != nil {
			return nil, err
		}
		event.Slug = slug

		err = s.events.Create(ctx, event)
		if err == nil {
			break
		}
		if !errors.Is(err, database.ErrSlugTaken) || attempt >= 2 {
			return nil, err
		}
	}

	log.Printf("✓ Événement créé: %s (%s)", event.Title, event.Slug)
	return event, nil
}

// ListEvents retourne les événements du manager, les plus récents d'abord
func (s *EventService) ListEvents(ctx context.Context, managerID primitive.ObjectID) ([]models.Event, error) {
	events, err := s.events.FindByManager(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

// GetEvent retourne un événement du manager
func (s *EventService) GetEvent(ctx context.Context, eventID, managerID primitive.ObjectID) (*models.Event, error) {
	return loadOwnedEvent(ctx, s.events, eventID, managerID)
}

// GetEventBySlug retourne un événement du manager à partir de son slug
func (s *EventService) GetEventBySlug(ctx context.Context, slug string, managerID primitive.ObjectID) (*models.Event, error) {
	event, err := s.events.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if event == nil || event.ManagerID != managerID {
		return nil, ErrEventNotFound
	}
	return event, nil
}

// GetPublicEvent retourne la vue publique d'un événement (page d'inscription)
func (s *EventService) GetPublicEvent(ctx context.Context, slug string) (*models.PublicEvent, error) {
	event, err := s.events.FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	public := event.Public()
	return &public, nil
}

// UpdateEvent modifie les métadonnées ; un nouveau titre redérive le slug
func (s *EventService) UpdateEvent(ctx context.Context, eventID, managerID primitive.ObjectID, req models.UpdateEventRequest) (*models.Event, error) {
	event, err := loadOwnedEvent(ctx, s.events, eventID, managerID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := utils.ValidateRequired("title", title); err != nil {
			return nil, err
		}
		if title != event.Title {
			slug, err := s.uniqueSlug(ctx, title, event.ID)
			if err != nil {
				return nil, err
			}
			event.Title = title
			event.Slug = slug
		}
	}
	if req.Date != nil {
		if req.Date.IsZero() {
			return nil, utils.ValidationError{Field: "date", Message: "la date est requise"}
		}
		event.Date = req.Date.Time.UTC()
	}
	if req.Location != nil {
		event.Location = strings.TrimSpace(*req.Location)
	}
	if req.Description != nil {
		event.Description = strings.TrimSpace(*req.Description)
	}

	if err := s.events.Update(ctx, event); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	return event, nil
}

// DeleteEvent supprime les inscriptions puis l'événement.
// Un échec sur les inscriptions laisse l'événement en place, la suppression peut être relancée.
// Une inscription admise entre les deux étapes est reprise par un second passage.
func (s *EventService) DeleteEvent(ctx context.Context, eventID, managerID primitive.ObjectID) (int, error) {
	event, err := loadOwnedEvent(ctx, s.events, eventID, managerID)
	if err != nil {
		return 0, err
	}

	deleted, err := s.registrations.DeleteByEvent(ctx, event.ID)
	if err != nil {
		return 0, fmt.Errorf("erreur lors de la suppression des inscriptions: %w", err)
	}

	if err := s.events.Delete(ctx, event.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, ErrEventNotFound
		}
		return 0, err
	}

	// Inscriptions arrivées pendant la suppression
	late, err := s.registrations.DeleteByEvent(ctx, event.ID)
	if err != nil {
		log.Printf("❌ Inscriptions orphelines possibles pour l'événement %s: %v", event.ID.Hex(), err)
	}
	deleted += late

	log.Printf("✓ Événement supprimé: %s (%d inscription(s) supprimée(s))", event.Slug, deleted)
	return deleted, nil
}

// AddGroup ajoute un groupe ; le formulaire est complété par Nom et Email si besoin
func (s *EventService) AddGroup(ctx context.Context, eventID, managerID primitive.ObjectID, req models.CreateGroupRequest) (*models.StakeholderGroup, error) {
	event, err := loadOwnedEvent(ctx, s.events, eventID, managerID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if err := utils.ValidateRequired("name", name); err != nil {
		return nil, err
	}
	if req.Capacity < 1 {
		return nil, utils.ValidationError{Field: "capacity", Message: "la capacité doit être au moins 1"}
	}
	if event.GroupByName(name) != nil {
		return nil, ErrGroupNameTaken
	}

	fields, err := PrepareNewGroupFields(req.Fields)
	if err != nil {
		return nil, err
	}

	group := models.StakeholderGroup{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Capacity: req.Capacity,
		IsOpen:   true,
		Fields:   fields,
	}

	if err := s.events.AddGroup(ctx, event.ID, group); err != nil {
		switch {
		case errors.Is(err, database.ErrGroupNameTaken):
			return nil, ErrGroupNameTaken
		case errors.Is(err, database.ErrNotFound):
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	return &group, nil
}

// UpdateGroup modifie un groupe. Le nouveau formulaire, s'il est fourni, doit garder
// ses champs Nom et Email obligatoires : sinon rien n'est modifié.
func (s *EventService) UpdateGroup(ctx context.Context, eventID, groupID, managerID primitive.ObjectID, req models.UpdateGroupRequest) (*models.StakeholderGroup, error) {
	event, err := loadOwnedEvent(ctx, s.events, eventID, managerID)
	if err != nil {
		return nil, err
	}

	current := event.GroupByID(groupID)
	if current == nil {
		return nil, ErrGroupNotFound
	}
	group := *current

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := utils.ValidateRequired("name", name); err != nil {
			return nil, err
		}
		if other := event.GroupByName(name); other != nil && other.ID != group.ID {
			return nil, ErrGroupNameTaken
		}
		group.Name = name
	}
	if req.Capacity != nil {
		if *req.Capacity < 1 {
			return nil, utils.ValidationError{Field: "capacity", Message: "la capacité doit être au moins 1"}
		}
		group.Capacity = *req.Capacity
	}
	if req.IsOpen != nil {
		group.IsOpen = *req.IsOpen
	}
	if req.Fields != nil {
		fields, err := ValidateGroupFieldsUpdate(req.Fields)
		if err != nil {
			return nil, err
		}
		group.Fields = fields
	}

	if err := s.replaceGroup(ctx, event.ID, group); err != nil {
		return nil, err
	}

	return &group, nil
}

// ToggleGroup ouvre ou ferme les inscriptions d'un groupe
func (s *EventService) ToggleGroup(ctx context.Context, eventID, groupID, managerID primitive.ObjectID) (*models.StakeholderGroup, error) {
	event, err := loadOwnedEvent(ctx, s.events, eventID, managerID)
	if err != nil {
		return nil, err
	}

	current := event.GroupByID(groupID)
	if current == nil {
		return nil, ErrGroupNotFound
	}
	group := *current
	group.IsOpen = !group.IsOpen

	if err := s.replaceGroup(ctx, event.ID, group); err != nil {
		return nil, err
	}

	return &group, nil
}

// DeleteGroup retire un groupe ; ses inscriptions sont conservées avec leur nom de groupe
func (s *EventService) DeleteGroup(ctx context.Context, eventID, groupID, managerID primitive.ObjectID) error {
	event, err := loadOwnedEvent(ctx, s.events, eventID, managerID)
	if err != nil {
		return err
	}

	if err := s.events.DeleteGroup(ctx, event.ID, groupID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrGroupNotFound
		}
		return err
	}

	return nil
}

func (s *EventService) replaceGroup(ctx context.Context, eventID primitive.ObjectID, group models.StakeholderGroup) error {
	if err := s.events.ReplaceGroup(ctx, eventID, group); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrGroupNotFound
		}
		return err
	}
	return nil
}

// uniqueSlug dérive un slug du titre et ajoute -1, -2... jusqu'à en trouver un libre
func (s *EventService) uniqueSlug(ctx context.Context, title string, excludeID primitive.ObjectID) (string, error) {
	base := utils.Slugify(title)
	if base == "" {
		base = "event"
	}

	slug := base
	for i := 1; i <= maxSlugSuffix; i++ {
		exists, err := s.events.SlugExists(ctx, slug, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		suffix := fmt.Sprintf("-%d", i)
		slug = utils.TruncateSlug(base, utils.MaxSlugLength-len(suffix)) + suffix
	}

	return "", fmt.Errorf("aucun slug libre pour %q", title)
}
