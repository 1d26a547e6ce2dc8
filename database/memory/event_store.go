package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"event-checkin-backend/database"
	"event-checkin-backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventStore conserve les événements en mémoire
type EventStore struct {
	mu     sync.RWMutex
	events map[primitive.ObjectID]*models.Event
}

// NewEventStore crée un store d'événements vide
func NewEventStore() *EventStore {
	return &EventStore{events: make(map[primitive.ObjectID]*models.Event)}
}

// Create crée un nouvel événement ; le slug doit être libre
func (s *EventStore) Create(ctx context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slugTaken(event.Slug, primitive.NilObjectID) {
		return database.ErrSlugTaken
	}

	event.ID = primitive.NewObjectID()
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	if event.Groups == nil {
		event.Groups = []models.StakeholderGroup{}
	}

	s.events[event.ID] = copyEvent(event)
	return nil
}

// FindByID recherche un événement par ID
func (s *EventStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.events[id]; ok {
		return copyEvent(e), nil
	}
	return nil, nil
}

// FindBySlug recherche un événement par slug
func (s *EventStore) FindBySlug(ctx context.Context, slug string) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.events {
		if e.Slug == slug {
			return copyEvent(e), nil
		}
	}
	return nil, nil
}

// FindByManager retourne les événements d'un manager, du plus récent au plus ancien
func (s *EventStore) FindByManager(ctx context.Context, managerID primitive.ObjectID) ([]models.Event, error) {
	return s.find(func(e *models.Event) bool { return e.ManagerID == managerID }), nil
}

// FindAll retourne tous les événements
func (s *EventStore) FindAll(ctx context.Context) ([]models.Event, error) {
	return s.find(func(*models.Event) bool { return true }), nil
}

func (s *EventStore) find(match func(*models.Event) bool) []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []models.Event
	for _, e := range s.events {
		if match(e) {
			events = append(events, *copyEvent(e))
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events
}

// SlugExists indique si un autre événement utilise déjà ce slug
func (s *EventStore) SlugExists(ctx context.Context, slug string, excludeID primitive.ObjectID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.slugTaken(slug, excludeID), nil
}

func (s *EventStore) slugTaken(slug string, excludeID primitive.ObjectID) bool {
	for id, e := range s.events {
		if e.Slug == slug && id != excludeID {
			return true
		}
	}
	return false
}

// Update met à jour les métadonnées d'un événement
func (s *EventStore) Update(ctx context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.events[event.ID]
	if !ok {
		return database.ErrNotFound
	}
	if s.slugTaken(event.Slug, event.ID) {
		return database.ErrSlugTaken
	}

	event.UpdatedAt = time.Now()
	current.Title = event.Title
	current.Slug = event.Slug
	current.Date = event.Date
	current.Location = event.Location
	current.Description = event.Description
	current.UpdatedAt = event.UpdatedAt
	return nil
}

// AddGroup ajoute un groupe si aucun groupe du même nom n'existe dans l'événement
func (s *EventStore) AddGroup(ctx context.Context, eventID primitive.ObjectID, group models.StakeholderGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok {
		return database.ErrNotFound
	}
	if e.GroupByName(group.Name) != nil {
		return database.ErrGroupNameTaken
	}

	e.Groups = append(e.Groups, copyGroup(group))
	e.UpdatedAt = time.Now()
	return nil
}

// ReplaceGroup remplace un groupe existant (même identifiant)
func (s *EventStore) ReplaceGroup(ctx context.Context, eventID primitive.ObjectID, group models.StakeholderGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok {
		return database.ErrNotFound
	}
	for i := range e.Groups {
		if e.Groups[i].ID == group.ID {
			e.Groups[i] = copyGroup(group)
			e.UpdatedAt = time.Now()
			return nil
		}
	}
	return database.ErrNotFound
}

// DeleteGroup retire un groupe de l'événement
func (s *EventStore) DeleteGroup(ctx context.Context, eventID, groupID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok {
		return database.ErrNotFound
	}
	for i := range e.Groups {
		if e.Groups[i].ID == groupID {
			e.Groups = append(e.Groups[:i], e.Groups[i+1:]...)
			e.UpdatedAt = time.Now()
			return nil
		}
	}
	return database.ErrNotFound
}

// Delete supprime un événement
func (s *EventStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.events, id)
	return nil
}
