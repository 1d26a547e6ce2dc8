package database

import (
	"context"
	"event-checkin-backend/models"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EventRepository gère les opérations sur les événements et leurs groupes
type EventRepository struct {
	collection *mongo.Collection
}

// NewEventRepository crée une nouvelle instance de EventRepository
func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{
		collection: db.Collection(EventsCollection),
	}
}

// Create crée un nouvel événement
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Initialiser les champs techniques
	event.ID = primitive.NewObjectID()
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	if event.Groups == nil {
		event.Groups = []models.StakeholderGroup{}
	}

	// Insérer l'événement ; l'index unique protège le slug
	_, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("erreur lors de la création de l'événement: %w", err)
	}

	return nil
}

// FindByID recherche un événement par ID
func (r *EventRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindBySlug recherche un événement par slug
func (r *EventRepository) FindBySlug(ctx context.Context, slug string) (*models.Event, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *EventRepository) findOne(ctx context.Context, filter bson.M) (*models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var event models.Event
	err := r.collection.FindOne(ctx, filter).Decode(&event)

	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de l'événement: %w", err)
	}

	return &event, nil
}

// FindByManager retourne les événements d'un manager, du plus récent au plus ancien
func (r *EventRepository) FindByManager(ctx context.Context, managerID primitive.ObjectID) ([]models.Event, error) {
	return r.find(ctx, bson.M{"manager_id": managerID})
}

// FindAll retourne tous les événements (migration)
func (r *EventRepository) FindAll(ctx context.Context) ([]models.Event, error) {
	return r.find(ctx, bson.M{})
}

func (r *EventRepository) find(ctx context.Context, filter bson.M) ([]models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Trier par date de création décroissante
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des événements: %w", err)
	}
	defer cursor.Close(ctx)

	// Décoder les résultats
	var events []models.Event
	if err = cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des événements: %w", err)
	}

	return events, nil
}

// SlugExists indique si un autre événement utilise déjà ce slug
func (r *EventRepository) SlugExists(ctx context.Context, slug string, excludeID primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Exclure l'événement en cours de modification
	filter := bson.M{"slug": slug}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{BSONNe: excludeID}
	}

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("erreur lors de la vérification du slug: %w", err)
	}

	return count > 0, nil
}

// Update met à jour les métadonnées d'un événement (les groupes ont leurs propres opérations)
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	event.UpdatedAt = time.Now()

	// Mettre à jour les champs modifiables
	res, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": event.ID},
		bson.M{BSONSet: bson.M{
			"title":       event.Title,
			"slug":        event.Slug,
			"date":        event.Date,
			"location":    event.Location,
			"description": event.Description,
			"updated_at":  event.UpdatedAt,
		}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("erreur lors de la mise à jour de l'événement: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// AddGroup ajoute un groupe si aucun groupe du même nom n'existe dans l'événement
func (r *EventRepository) AddGroup(ctx context.Context, eventID primitive.ObjectID, group models.StakeholderGroup) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// N'ajouter que si aucun groupe ne porte déjà ce nom
	res, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": eventID, "groups.name": bson.M{BSONNe: group.Name}},
		bson.M{
			BSONPush: bson.M{"groups": group},
			BSONSet:  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("erreur lors de l'ajout du groupe: %w", err)
	}
	if res.MatchedCount == 0 {
		// Soit l'événement n'existe pas, soit le nom est déjà pris
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": eventID})
		if err != nil {
			return fmt.Errorf("erreur lors de la vérification de l'événement: %w", err)
		}
		if count > 0 {
			return ErrGroupNameTaken
		}
		return ErrNotFound
	}

	return nil
}

// ReplaceGroup remplace un groupe existant (même identifiant)
func (r *EventRepository) ReplaceGroup(ctx context.Context, eventID primitive.ObjectID, group models.StakeholderGroup) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Remplacer le groupe trouvé via l'opérateur positionnel
	res, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": eventID, "groups._id": group.ID},
		bson.M{BSONSet: bson.M{
			"groups.$":   group,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("erreur lors de la mise à jour du groupe: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteGroup retire un groupe de l'événement
func (r *EventRepository) DeleteGroup(ctx context.Context, eventID, groupID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Retirer le groupe du tableau embarqué
	res, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": eventID, "groups._id": groupID},
		bson.M{
			BSONPull: bson.M{"groups": bson.M{"_id": groupID}},
			BSONSet:  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("erreur lors de la suppression du groupe: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete supprime un événement
func (r *EventRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("erreur lors de la suppression de l'événement: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}
