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

type entry struct {
	reg models.Registration
	seq uint64
}

// RegistrationStore conserve les inscriptions en mémoire.
//
// mu protège les maps. Admit compte et insère sous le verrou en écriture,
// ce qui rend l'admission atomique ; MarkCheckedIn aussi.
type RegistrationStore struct {
	mu      sync.RWMutex
	byID    map[primitive.ObjectID]*entry
	byToken map[string]primitive.ObjectID
	seq     uint64
}

// NewRegistrationStore crée un store d'inscriptions vide
func NewRegistrationStore() *RegistrationStore {
	return &RegistrationStore{
		byID:    make(map[primitive.ObjectID]*entry),
		byToken: make(map[string]primitive.ObjectID),
	}
}

// inGroup définit l'appartenance d'une inscription à un groupe.
// countLocked, donc Admit, CountByGroup et GroupCounts, ne comptent que par ce prédicat.
func inGroup(r *models.Registration, eventID, groupID primitive.ObjectID) bool {
	return r.EventID == eventID && r.GroupID == groupID
}

// countLocked compte inscrits et entrées d'un groupe ; mu doit être tenu
func (s *RegistrationStore) countLocked(eventID, groupID primitive.ObjectID) models.GroupCount {
	var c models.GroupCount
	for _, e := range s.byID {
		if inGroup(&e.reg, eventID, groupID) {
			c.Registrations++
			if e.reg.CheckedIn {
				c.CheckedIn++
			}
		}
	}
	return c
}

// Admit insère l'inscription si le groupe a encore une place
func (s *RegistrationStore) Admit(ctx context.Context, reg *models.Registration, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.countLocked(reg.EventID, reg.GroupID).Registrations >= capacity {
		return database.ErrGroupFull
	}
	if _, taken := s.byToken[reg.Token]; taken {
		return database.ErrDuplicateToken
	}

	// Plus petite place libre du groupe
	used := make(map[int]bool)
	for _, e := range s.byID {
		if inGroup(&e.reg, reg.EventID, reg.GroupID) {
			used[e.reg.Slot] = true
		}
	}
	slot := 0
	for used[slot] {
		slot++
	}

	now := time.Now()
	reg.ID = primitive.NewObjectID()
	reg.Slot = slot
	reg.CreatedAt = now
	reg.UpdatedAt = now
	if reg.NotificationStatus == "" {
		reg.NotificationStatus = models.NotificationPending
	}

	s.seq++
	s.byID[reg.ID] = &entry{reg: *copyRegistration(reg), seq: s.seq}
	s.byToken[reg.Token] = reg.ID
	return nil
}

// FindByToken recherche une inscription par token
func (s *RegistrationStore) FindByToken(ctx context.Context, token string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.byToken[token]; ok {
		return copyRegistration(&s.byID[id].reg), nil
	}
	return nil, nil
}

// FindByID recherche une inscription par ID
func (s *RegistrationStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.byID[id]; ok {
		return copyRegistration(&e.reg), nil
	}
	return nil, nil
}

// FindByEvent retourne toutes les inscriptions d'un événement, les plus récentes d'abord
func (s *RegistrationStore) FindByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*entry
	for _, e := range s.byID {
		if e.reg.EventID == eventID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })

	registrations := make([]models.Registration, 0, len(entries))
	for _, e := range entries {
		registrations = append(registrations, *copyRegistration(&e.reg))
	}
	return registrations, nil
}

// CountByGroup compte les inscriptions d'un groupe
func (s *RegistrationStore) CountByGroup(ctx context.Context, eventID, groupID primitive.ObjectID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.countLocked(eventID, groupID).Registrations, nil
}

// GroupCounts calcule, pour chaque groupe de l'événement, inscrits et entrées
func (s *RegistrationStore) GroupCounts(ctx context.Context, eventID primitive.ObjectID) (map[primitive.ObjectID]models.GroupCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[primitive.ObjectID]models.GroupCount)
	for _, e := range s.byID {
		if e.reg.EventID != eventID {
			continue
		}
		if _, done := counts[e.reg.GroupID]; !done {
			counts[e.reg.GroupID] = s.countLocked(eventID, e.reg.GroupID)
		}
	}
	return counts, nil
}

// MarkCheckedIn passe l'inscription à "entrée enregistrée" si elle ne l'est pas déjà
func (s *RegistrationStore) MarkCheckedIn(ctx context.Context, token string, at time.Time) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byToken[token]
	if !ok {
		return nil, database.ErrNotFound
	}
	reg := &s.byID[id].reg
	if reg.CheckedIn {
		return copyRegistration(reg), database.ErrAlreadyCheckedIn
	}

	reg.CheckedIn = true
	reg.CheckedInAt = &at
	reg.UpdatedAt = at
	return copyRegistration(reg), nil
}

// UpdateFormData met à jour les données de formulaire et l'email
func (s *RegistrationStore) UpdateFormData(ctx context.Context, id primitive.ObjectID, formData map[string]string, email string) error {
	return s.update(id, func(r *models.Registration) {
		r.FormData = make(map[string]string, len(formData))
		for k, v := range formData {
			r.FormData[k] = v
		}
		r.Email = email
	})
}

// UpdateNotification enregistre le résultat d'un envoi d'email
func (s *RegistrationStore) UpdateNotification(ctx context.Context, id primitive.ObjectID, status models.NotificationStatus, attempts int) error {
	return s.update(id, func(r *models.Registration) {
		r.NotificationStatus = status
		r.NotificationAttempts = attempts
	})
}

func (s *RegistrationStore) update(id primitive.ObjectID, apply func(*models.Registration)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[id]
	if !ok {
		return database.ErrNotFound
	}
	apply(&e.reg)
	e.reg.UpdatedAt = time.Now()
	return nil
}

// FindFailedNotifications retourne les inscriptions dont l'email n'a pas pu être envoyé
func (s *RegistrationStore) FindFailedNotifications(ctx context.Context, maxAttempts, limit int) ([]models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var registrations []models.Registration
	for _, e := range s.byID {
		if e.reg.NotificationStatus == models.NotificationFailed && e.reg.NotificationAttempts < maxAttempts {
			registrations = append(registrations, *copyRegistration(&e.reg))
		}
	}
	sort.SliceStable(registrations, func(i, j int) bool {
		return registrations[i].UpdatedAt.Before(registrations[j].UpdatedAt)
	})
	if limit > 0 && len(registrations) > limit {
		registrations = registrations[:limit]
	}
	return registrations, nil
}

// DeleteByID supprime une inscription d'un événement et libère sa place
func (s *RegistrationStore) DeleteByID(ctx context.Context, eventID, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[id]
	if !ok || e.reg.EventID != eventID {
		return database.ErrNotFound
	}
	delete(s.byToken, e.reg.Token)
	delete(s.byID, id)
	return nil
}

// DeleteByEvent supprime toutes les inscriptions d'un événement
func (s *RegistrationStore) DeleteByEvent(ctx context.Context, eventID primitive.ObjectID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, e := range s.byID {
		if e.reg.EventID == eventID {
			delete(s.byToken, e.reg.Token)
			delete(s.byID, id)
			deleted++
		}
	}
	return deleted, nil
}
