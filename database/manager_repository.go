package database

import (
	"context"
	"event-checkin-backend/models"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ManagerRepository gère les opérations sur les comptes managers
type ManagerRepository struct {
	collection *mongo.Collection
}

// NewManagerRepository crée une nouvelle instance de ManagerRepository
func NewManagerRepository(db *mongo.Database) *ManagerRepository {
	return &ManagerRepository{
		collection: db.Collection(ManagersCollection),
	}
}

// Create crée un nouveau manager
func (r *ManagerRepository) Create(ctx context.Context, manager *models.Manager) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	manager.ID = primitive.NewObjectID()
	manager.CreatedAt = time.Now()
	manager.Email = strings.ToLower(strings.TrimSpace(manager.Email))

	_, err := r.collection.InsertOne(ctx, manager)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("erreur lors de la création du manager: %w", err)
	}

	return nil
}

// FindByEmail recherche un manager par email
func (r *ManagerRepository) FindByEmail(ctx context.Context, email string) (*models.Manager, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

// FindByID recherche un manager par ID
func (r *ManagerRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Manager, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ManagerRepository) findOne(ctx context.Context, filter bson.M) (*models.Manager, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var manager models.Manager
	err := r.collection.FindOne(ctx, filter).Decode(&manager)

	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche du manager: %w", err)
	}

	return &manager, nil
}
