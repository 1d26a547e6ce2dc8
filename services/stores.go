package services

import (
	"context"
	"time"

	"event-checkin-backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventStore persiste les événements et leurs groupes embarqués.
// Les recherches retournent (nil, nil) quand rien n'est trouvé.
type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	FindBySlug(ctx context.Context, slug string) (*models.Event, error)
	FindByManager(ctx context.Context, managerID primitive.ObjectID) ([]models.Event, error)
	SlugExists(ctx context.Context, slug string, excludeID primitive.ObjectID) (bool, error)
	Update(ctx context.Context, event *models.Event) error
	AddGroup(ctx context.Context, eventID primitive.ObjectID, group models.StakeholderGroup) error
	ReplaceGroup(ctx context.Context, eventID primitive.ObjectID, group models.StakeholderGroup) error
	DeleteGroup(ctx context.Context, eventID, groupID primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// RegistrationStore persiste les inscriptions.
//
// Admit doit être atomique par (event, group) : jamais plus de capacity inscriptions.
// MarkCheckedIn doit être atomique par token : un seul appel concurrent réussit,
// les autres reçoivent database.ErrAlreadyCheckedIn avec l'inscription existante.
type RegistrationStore interface {
	Admit(ctx context.Context, reg *models.Registration, capacity int) error
	FindByToken(ctx context.Context, token string) (*models.Registration, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Registration, error)
	FindByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.Registration, error)
	CountByGroup(ctx context.Context, eventID, groupID primitive.ObjectID) (int, error)
	GroupCounts(ctx context.Context, eventID primitive.ObjectID) (map[primitive.ObjectID]models.GroupCount, error)
	MarkCheckedIn(ctx context.Context, token string, at time.Time) (*models.Registration, error)
	UpdateFormData(ctx context.Context, id primitive.ObjectID, formData map[string]string, email string) error
	UpdateNotification(ctx context.Context, id primitive.ObjectID, status models.NotificationStatus, attempts int) error
	FindFailedNotifications(ctx context.Context, maxAttempts, limit int) ([]models.Registration, error)
	DeleteByID(ctx context.Context, eventID, id primitive.ObjectID) error
	DeleteByEvent(ctx context.Context, eventID primitive.ObjectID) (int, error)
}

// ManagerStore persiste les comptes managers
type ManagerStore interface {
	Create(ctx context.Context, manager *models.Manager) error
	FindByEmail(ctx context.Context, email string) (*models.Manager, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Manager, error)
}

// Broadcaster pousse un message temps réel au manager connecté
type Broadcaster interface {
	SendToManager(managerID string, payload interface{})
}
