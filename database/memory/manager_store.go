package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"event-checkin-backend/database"
	"event-checkin-backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ManagerStore conserve les comptes managers en mémoire
type ManagerStore struct {
	mu       sync.RWMutex
	managers map[primitive.ObjectID]models.Manager
}

// NewManagerStore crée un store de managers vide
func NewManagerStore() *ManagerStore {
	return &ManagerStore{managers: make(map[primitive.ObjectID]models.Manager)}
}

// Create crée un nouveau manager ; l'email est unique sans tenir compte de la casse
func (s *ManagerStore) Create(ctx context.Context, manager *models.Manager) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(manager.Email))
	for _, m := range s.managers {
		if m.Email == email {
			return database.ErrDuplicateEmail
		}
	}

	manager.ID = primitive.NewObjectID()
	manager.CreatedAt = time.Now()
	manager.Email = email
	s.managers[manager.ID] = *manager
	return nil
}

// FindByEmail recherche un manager par email
func (s *ManagerStore) FindByEmail(ctx context.Context, email string) (*models.Manager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, m := range s.managers {
		if m.Email == email {
			return &m, nil
		}
	}
	return nil, nil
}

// FindByID recherche un manager par ID
func (s *ManagerStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Manager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.managers[id]; ok {
		return &m, nil
	}
	return nil, nil
}
