package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Noms des collections et des index
const (
	ManagersCollection      = "managers"
	EventsCollection        = "events"
	RegistrationsCollection = "registrations"

	tokenIndexName = "uniq_registration_token"
	slotIndexName  = "uniq_group_slot"

	// Clés d'appartenance d'une inscription à un groupe
	fieldEventID = "event_id"
	fieldGroupID = "group_id"
)

// DB est l'instance de connexion à la base de données MongoDB
var DB *mongo.Database
var Client *mongo.Client

// Connect établit la connexion à la base de données MongoDB
func Connect(uri, dbName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Options de connexion
	clientOptions := options.Client().ApplyURI(uri)

	// Se connecter à MongoDB
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("erreur lors de la connexion à MongoDB: %w", err)
	}

	// Vérifier la connexion
	if err = client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("erreur lors du ping MongoDB: %w", err)
	}

	Client = client
	DB = client.Database(dbName)

	log.Println("✓ Connexion à MongoDB établie")

	// Créer les index
	if err = createIndexes(ctx, DB); err != nil {
		return fmt.Errorf("erreur lors de la création des index: %w", err)
	}

	return nil
}

// Ping vérifie que la connexion MongoDB est active
func Ping() error {
	if Client == nil {
		return fmt.Errorf("client MongoDB non initialisé")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return Client.Ping(ctx, nil)
}

// Close ferme la connexion à la base de données
func Close() error {
	if Client != nil {
		// Laisser le temps aux opérations en cours de se terminer
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return Client.Disconnect(ctx)
	}
	return nil
}

// createIndexes crée les index nécessaires.
// L'unicité des tokens et des places est garantie ici, pas seulement dans le code.
func createIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		// Index unique sur l'email des managers
		ManagersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		// Slug unique et liste des événements par manager
		EventsCollection: {
			{
				Keys:    bson.D{{Key: "slug", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "manager_id", Value: 1}, {Key: "created_at", Value: -1}},
			},
		},
		// Token et place uniques, plus la recherche des emails à relancer
		RegistrationsCollection: {
			{
				Keys:    bson.D{{Key: "token", Value: 1}},
				Options: options.Index().SetUnique(true).SetName(tokenIndexName),
			},
			{
				Keys: bson.D{
					{Key: fieldEventID, Value: 1},
					{Key: fieldGroupID, Value: 1},
					{Key: "slot", Value: 1},
				},
				Options: options.Index().SetUnique(true).SetName(slotIndexName),
			},
			{
				Keys: bson.D{{Key: "notification_status", Value: 1}},
			},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("erreur lors de la création des index %s: %w", collection, err)
		}
	}

	log.Println("✓ Index MongoDB créés")
	return nil
}
