package database

import (
	"context"
	"errors"
	"event-checkin-backend/models"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// errSlotTaken signale qu'une admission concurrente a pris la place visée
var errSlotTaken = errors.New("place déjà occupée")

// RegistrationRepository gère les opérations sur les inscriptions
type RegistrationRepository struct {
	collection *mongo.Collection
}

// NewRegistrationRepository crée une nouvelle instance de RegistrationRepository
func NewRegistrationRepository(db *mongo.Database) *RegistrationRepository {
	return &RegistrationRepository{
		collection: db.Collection(RegistrationsCollection),
	}
}

// groupFilter définit l'appartenance d'une inscription à un groupe.
// CountByGroup (admission) et GroupCounts (statistiques) comptent sur ces mêmes clés.
func groupFilter(eventID, groupID primitive.ObjectID) bson.M {
	return bson.M{fieldEventID: eventID, fieldGroupID: groupID}
}

// Admit insère l'inscription si le groupe a encore une place.
//
// Chaque inscription occupe une place (slot) dans [0, capacity) et l'index unique
// (event_id, group_id, slot) interdit à deux inscriptions d'occuper la même place.
// La place est tirée au hasard parmi les places libres pour étaler les admissions
// concurrentes. Un conflit sur une place signifie qu'une autre admission a abouti :
// on recompte et on réessaie jusqu'à ce que le groupe soit plein.
func (r *RegistrationRepository) Admit(ctx context.Context, reg *models.Registration, capacity int) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return admitInFreeSlot(ctx, r, reg, capacity, rand.IntN)
}

// slotClaimer regroupe les accès au stockage nécessaires à l'admission
type slotClaimer interface {
	CountByGroup(ctx context.Context, eventID, groupID primitive.ObjectID) (int, error)
	usedSlots(ctx context.Context, eventID, groupID primitive.ObjectID) ([]int, error)
	insertInSlot(ctx context.Context, reg *models.Registration) error
}

// admitInFreeSlot boucle tant que le groupe n'est pas plein.
// pick(n) choisit un indice dans [0, n) parmi les places libres.
func admitInFreeSlot(ctx context.Context, store slotClaimer, reg *models.Registration, capacity int, pick func(n int) int) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("admission interrompue: %w", err)
		}

		// Compter les inscrits du groupe
		count, err := store.CountByGroup(ctx, reg.EventID, reg.GroupID)
		if err != nil {
			return err
		}
		if count >= capacity {
			return ErrGroupFull
		}

		// Lire les places occupées dans [0, capacity)
		used, err := store.usedSlots(ctx, reg.EventID, reg.GroupID)
		if err != nil {
			return err
		}
		taken := slotsBelow(used, capacity)
		free := capacity - len(taken)
		if free <= 0 {
			return ErrGroupFull
		}

		now := time.Now()
		reg.ID = primitive.NewObjectID()
		reg.Slot = nthFreeSlot(taken, pick(free))
		reg.CreatedAt = now
		reg.UpdatedAt = now
		if reg.NotificationStatus == "" {
			reg.NotificationStatus = models.NotificationPending
		}

		err = store.insertInSlot(ctx, reg)
		if errors.Is(err, errSlotTaken) {
			continue
		}
		return err
	}
}

// slotsBelow retourne les places distinctes de [0, capacity), triées
func slotsBelow(used []int, capacity int) []int {
	seen := make(map[int]bool, len(used))
	taken := make([]int, 0, len(used))
	for _, s := range used {
		if s >= 0 && s < capacity && !seen[s] {
			seen[s] = true
			taken = append(taken, s)
		}
	}
	sort.Ints(taken)
	return taken
}

// nthFreeSlot retourne la n-ième place libre (à partir de 0) ; taken est trié
func nthFreeSlot(taken []int, n int) int {
	slot := n
	for _, t := range taken {
		if t > slot {
			break
		}
		slot++
	}
	return slot
}

func (r *RegistrationRepository) usedSlots(ctx context.Context, eventID, groupID primitive.ObjectID) ([]int, error) {
	values, err := r.collection.Distinct(ctx, "slot", groupFilter(eventID, groupID))
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la lecture des places: %w", err)
	}

	// Le driver décode les entiers BSON selon leur taille
	slots := make([]int, 0, len(values))
	for _, v := range values {
		switch n := v.(type) {
		case int32:
			slots = append(slots, int(n))
		case int64:
			slots = append(slots, int(n))
		case float64:
			slots = append(slots, int(n))
		}
	}
	return slots, nil
}

func (r *RegistrationRepository) insertInSlot(ctx context.Context, reg *models.Registration) error {
	_, err := r.collection.InsertOne(ctx, reg)
	switch {
	case err == nil:
		return nil
	case isDuplicateOn(err, slotIndexName):
		return errSlotTaken
	case isDuplicateOn(err, tokenIndexName):
		return ErrDuplicateToken
	}
	return fmt.Errorf("erreur lors de la création de l'inscription: %w", err)
}

// FindByToken recherche une inscription par token
func (r *RegistrationRepository) FindByToken(ctx context.Context, token string) (*models.Registration, error) {
	return r.findOne(ctx, bson.M{"token": token})
}

// FindByID recherche une inscription par ID
func (r *RegistrationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Registration, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *RegistrationRepository) findOne(ctx context.Context, filter bson.M) (*models.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var reg models.Registration
	err := r.collection.FindOne(ctx, filter).Decode(&reg)

	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de l'inscription: %w", err)
	}

	return &reg, nil
}

// FindByEvent retourne toutes les inscriptions d'un événement, les plus récentes d'abord
func (r *RegistrationRepository) FindByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Trier par date de création décroissante
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{fieldEventID: eventID}, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des inscriptions de l'événement: %w", err)
	}
	defer cursor.Close(ctx)

	// Décoder les résultats
	var registrations []models.Registration
	if err = cursor.All(ctx, &registrations); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des inscriptions: %w", err)
	}

	return registrations, nil
}

// CountByGroup compte les inscriptions d'un groupe
func (r *RegistrationRepository) CountByGroup(ctx context.Context, eventID, groupID primitive.ObjectID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, groupFilter(eventID, groupID))
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des inscriptions: %w", err)
	}

	return int(count), nil
}

// GroupCounts calcule, pour chaque groupe de l'événement, inscrits et entrées.
// Chaque ligne compte les inscriptions qui satisfont groupFilter pour son groupe.
func (r *RegistrationRepository) GroupCounts(ctx context.Context, eventID primitive.ObjectID) (map[primitive.ObjectID]models.GroupCount, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Regrouper par clé de groupe les inscriptions de l'événement
	pipeline := []bson.M{
		{BSONMatch: bson.M{fieldEventID: eventID}},
		{BSONGroup: bson.M{
			"_id":           "$" + fieldGroupID,
			"registrations": bson.M{BSONSum: 1},
			"checked_in": bson.M{BSONSum: bson.M{
				BSONCond: bson.A{"$checked_in", 1, 0},
			}},
		}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'agrégation: %w", err)
	}
	defer cursor.Close(ctx)

	// Décoder les résultats
	var rows []struct {
		GroupID           primitive.ObjectID `bson:"_id"`
		models.GroupCount `bson:",inline"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des statistiques: %w", err)
	}

	counts := make(map[primitive.ObjectID]models.GroupCount, len(rows))
	for _, row := range rows {
		counts[row.GroupID] = row.GroupCount
	}

	return counts, nil
}

// MarkCheckedIn passe l'inscription à "entrée enregistrée" si elle ne l'est pas déjà.
// La mise à jour conditionnelle garantit qu'un seul scan concurrent réussit.
func (r *RegistrationRepository) MarkCheckedIn(ctx context.Context, token string, at time.Time) (*models.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Retourner le document après mise à jour
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var reg models.Registration
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"token": token, "checked_in": false},
		bson.M{BSONSet: bson.M{
			"checked_in":    true,
			"checked_in_at": at,
			"updated_at":    at,
		}},
		opts,
	).Decode(&reg)

	if err == nil {
		return &reg, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("erreur lors de l'enregistrement de l'entrée: %w", err)
	}

	// Aucune inscription non enregistrée : absente ou déjà passée
	existing, err := r.findOne(ctx, bson.M{"token": token})
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	return existing, ErrAlreadyCheckedIn
}

// UpdateFormData met à jour les données de formulaire et l'email
func (r *RegistrationRepository) UpdateFormData(ctx context.Context, id primitive.ObjectID, formData map[string]string, email string) error {
	return r.updateFields(ctx, id, bson.M{
		"form_data": formData,
		"email":     email,
	})
}

// UpdateNotification enregistre le résultat d'un envoi d'email
func (r *RegistrationRepository) UpdateNotification(ctx context.Context, id primitive.ObjectID, status models.NotificationStatus, attempts int) error {
	return r.updateFields(ctx, id, bson.M{
		"notification_status":   status,
		"notification_attempts": attempts,
	})
}

func (r *RegistrationRepository) updateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	fields["updated_at"] = time.Now()

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{BSONSet: fields})
	if err != nil {
		return fmt.Errorf("erreur lors de la mise à jour de l'inscription: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// FindFailedNotifications retourne les inscriptions dont l'email n'a pas pu être envoyé
func (r *RegistrationRepository) FindFailedNotifications(ctx context.Context, maxAttempts, limit int) ([]models.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Emails en échec qui n'ont pas épuisé leurs tentatives, les plus anciens d'abord
	filter := bson.M{
		"notification_status":   models.NotificationFailed,
		"notification_attempts": bson.M{BSONLt: maxAttempts},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des emails en échec: %w", err)
	}
	defer cursor.Close(ctx)

	var registrations []models.Registration
	if err = cursor.All(ctx, &registrations); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des inscriptions: %w", err)
	}

	return registrations, nil
}

// DeleteByID supprime une inscription d'un événement et libère sa place
func (r *RegistrationRepository) DeleteByID(ctx context.Context, eventID, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, fieldEventID: eventID})
	if err != nil {
		return fmt.Errorf("erreur lors de la suppression de l'inscription: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteByEvent supprime toutes les inscriptions d'un événement
func (r *RegistrationRepository) DeleteByEvent(ctx context.Context, eventID primitive.ObjectID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := r.collection.DeleteMany(ctx, bson.M{fieldEventID: eventID})
	if err != nil {
		return 0, fmt.Errorf("erreur lors de la suppression des inscriptions: %w", err)
	}

	return int(res.DeletedCount), nil
}
