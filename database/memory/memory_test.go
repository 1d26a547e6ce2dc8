package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"event-checkin-backend/database"
	"event-checkin-backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newRegistration(eventID, groupID primitive.ObjectID, token string) *models.Registration {
	return &models.Registration{
		EventID:  eventID,
		GroupID:  groupID,
		Token:    token,
		Email:    token + "@example.com",
		FormData: map[string]string{"Email": token + "@example.com"},
	}
}

func TestAdmit_capaciteRespecteeSousConcurrence(t *testing.T) {
	store := NewRegistrationStore()
	ctx := context.Background()
	eventID, groupID := primitive.NewObjectID(), primitive.NewObjectID()

	const capacity = 5
	const attempts = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted, full := 0, 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.Admit(ctx, newRegistration(eventID, groupID, fmt.Sprintf("tok%d", i)), capacity)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case errors.Is(err, database.ErrGroupFull):
				full++
			default:
				t.Errorf("erreur inattendue: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if admitted != capacity {
		t.Errorf("admis = %d, attendu %d", admitted, capacity)
	}
	if full != attempts-capacity {
		t.Errorf("refusés = %d, attendu %d", full, attempts-capacity)
	}

	count, _ := store.CountByGroup(ctx, eventID, groupID)
	if count != capacity {
		t.Errorf("CountByGroup = %d, attendu %d", count, capacity)
	}
}

func TestAdmit_tokenDuplique(t *testing.T) {
	store := NewRegistrationStore()
	ctx := context.Background()
	eventID := primitive.NewObjectID()

	if err := store.Admit(ctx, newRegistration(eventID, primitive.NewObjectID(), "same"), 10); err != nil {
		t.Fatalf("première admission: %v", err)
	}
	err := store.Admit(ctx, newRegistration(eventID, primitive.NewObjectID(), "same"), 10)
	if !errors.Is(err, database.ErrDuplicateToken) {
		t.Errorf("erreur = %v, attendu ErrDuplicateToken", err)
	}
}

func TestAdmit_placeLibereeParSuppression(t *testing.T) {
	store := NewRegistrationStore()
	ctx := context.Background()
	eventID, groupID := primitive.NewObjectID(), primitive.NewObjectID()

	first := newRegistration(eventID, groupID, "a")
	if err := store.Admit(ctx, first, 1); err != nil {
		t.Fatalf("admission: %v", err)
	}
	if err := store.Admit(ctx, newRegistration(eventID, groupID, "b"), 1); !errors.Is(err, database.ErrGroupFull) {
		t.Fatalf("erreur = %v, attendu ErrGroupFull", err)
	}

	if err := store.DeleteByID(ctx, eventID, first.ID); err != nil {
		t.Fatalf("suppression: %v", err)
	}
	if err := store.Admit(ctx, newRegistration(eventID, groupID, "b"), 1); err != nil {
		t.Errorf("admission après suppression: %v", err)
	}
}

func TestMarkCheckedIn_unSeulSucces(t *testing.T) {
	store := NewRegistrationStore()
	ctx := context.Background()

	reg := newRegistration(primitive.NewObjectID(), primitive.NewObjectID(), "scan")
	if err := store.Admit(ctx, reg, 1); err != nil {
		t.Fatalf("admission: %v", err)
	}

	const scans = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, already := 0, 0

	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := store.MarkCheckedIn(ctx, "scan", time.Now())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, database.ErrAlreadyCheckedIn):
				already++
				if got == nil || got.CheckedInAt == nil {
					t.Error("l'inscription existante doit être retournée avec sa date d'entrée")
				}
			default:
				t.Errorf("erreur inattendue: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || already != scans-1 {
		t.Errorf("succès = %d, déjà enregistrés = %d", ok, already)
	}
}

func TestMarkCheckedIn_tokenInconnu(t *testing.T) {
	store := NewRegistrationStore()
	_, err := store.MarkCheckedIn(context.Background(), "inconnu", time.Now())
	if !errors.Is(err, database.ErrNotFound) {
		t.Errorf("erreur = %v, attendu ErrNotFound", err)
	}
}

func TestGroupCounts(t *testing.T) {
	store := NewRegistrationStore()
	ctx := context.Background()
	eventID := primitive.NewObjectID()
	g1, g2 := primitive.NewObjectID(), primitive.NewObjectID()

	for i, g := range []primitive.ObjectID{g1, g1, g2} {
		if err := store.Admit(ctx, newRegistration(eventID, g, fmt.Sprintf("t%d", i)), 10); err != nil {
			t.Fatalf("admission: %v", err)
		}
	}
	// Un autre événement ne doit pas être compté
	if err := store.Admit(ctx, newRegistration(primitive.NewObjectID(), g1, "other"), 10); err != nil {
		t.Fatalf("admission: %v", err)
	}
	if _, err := store.MarkCheckedIn(ctx, "t0", time.Now()); err != nil {
		t.Fatalf("entrée: %v", err)
	}

	counts, err := store.GroupCounts(ctx, eventID)
	if err != nil {
		t.Fatalf("GroupCounts: %v", err)
	}
	if got := counts[g1]; got.Registrations != 2 || got.CheckedIn != 1 {
		t.Errorf("groupe 1 = %+v", got)
	}
	if got := counts[g2]; got.Registrations != 1 || got.CheckedIn != 0 {
		t.Errorf("groupe 2 = %+v", got)
	}

	// Le comptage de l'admission et celui des statistiques coïncident
	for _, g := range []primitive.ObjectID{g1, g2} {
		n, _ := store.CountByGroup(ctx, eventID, g)
		if n != counts[g].Registrations {
			t.Errorf("CountByGroup = %d, GroupCounts = %d", n, counts[g].Registrations)
		}
	}
	// Groupe réduit à une place : l'admission voit les mêmes 2 inscrits
	if err := store.Admit(ctx, newRegistration(eventID, g1, "t9"), 2); !errors.Is(err, database.ErrGroupFull) {
		t.Errorf("erreur = %v, attendu ErrGroupFull", err)
	}
}

func TestDeleteByEvent_neConserveRien(t *testing.T) {
	store := NewRegistrationStore()
	ctx := context.Background()

	for e := 0; e < 20; e++ {
		eventID := primitive.NewObjectID()
		for g := 0; g < 3; g++ {
			groupID := primitive.NewObjectID()
			if err := store.Admit(ctx, newRegistration(eventID, groupID, fmt.Sprintf("e%dg%d", e, g)), 1); err != nil {
				t.Fatalf("admission: %v", err)
			}
		}
		if n, _ := store.DeleteByEvent(ctx, eventID); n != 3 {
			t.Fatalf("DeleteByEvent = %d, attendu 3", n)
		}
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	if len(store.byID) != 0 || len(store.byToken) != 0 {
		t.Errorf("état résiduel: %d inscriptions, %d tokens", len(store.byID), len(store.byToken))
	}
}

func TestFindByEvent_plusRecentesDabord(t *testing.T) {
	store := NewRegistrationStore()
	ctx := context.Background()
	eventID, groupID := primitive.NewObjectID(), primitive.NewObjectID()

	for _, tok := range []string{"premier", "second", "troisieme"} {
		if err := store.Admit(ctx, newRegistration(eventID, groupID, tok), 10); err != nil {
			t.Fatalf("admission: %v", err)
		}
	}

	regs, _ := store.FindByEvent(ctx, eventID)
	if len(regs) != 3 || regs[0].Token != "troisieme" || regs[2].Token != "premier" {
		t.Errorf("ordre inattendu: %+v", regs)
	}
}

func TestFindByID_copieIsolee(t *testing.T) {
	store := NewRegistrationStore()
	ctx := context.Background()

	reg := newRegistration(primitive.NewObjectID(), primitive.NewObjectID(), "iso")
	if err := store.Admit(ctx, reg, 1); err != nil {
		t.Fatalf("admission: %v", err)
	}

	got, _ := store.FindByID(ctx, reg.ID)
	got.FormData["Email"] = "modifie"

	again, _ := store.FindByID(ctx, reg.ID)
	if again.FormData["Email"] != "iso@example.com" {
		t.Error("la modification d'une copie ne doit pas atteindre le store")
	}
}

func TestFindFailedNotifications(t *testing.T) {
	store := NewRegistrationStore()
	ctx := context.Background()
	eventID, groupID := primitive.NewObjectID(), primitive.NewObjectID()

	ids := make([]primitive.ObjectID, 3)
	for i := range ids {
		reg := newRegistration(eventID, groupID, fmt.Sprintf("n%d", i))
		if err := store.Admit(ctx, reg, 10); err != nil {
			t.Fatalf("admission: %v", err)
		}
		ids[i] = reg.ID
	}
	store.UpdateNotification(ctx, ids[0], models.NotificationFailed, 1)
	store.UpdateNotification(ctx, ids[1], models.NotificationFailed, 5)
	store.UpdateNotification(ctx, ids[2], models.NotificationSent, 1)

	got, _ := store.FindFailedNotifications(ctx, 5, 10)
	if len(got) != 1 || got[0].ID != ids[0] {
		t.Errorf("FindFailedNotifications = %+v", got)
	}
}

func TestEventStore_slugEtGroupes(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()
	managerID := primitive.NewObjectID()

	event := &models.Event{Title: "Gala", Slug: "gala", ManagerID: managerID}
	if err := store.Create(ctx, event); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(ctx, &models.Event{Title: "Gala", Slug: "gala"}); !errors.Is(err, database.ErrSlugTaken) {
		t.Errorf("erreur = %v, attendu ErrSlugTaken", err)
	}

	exists, _ := store.SlugExists(ctx, "gala", event.ID)
	if exists {
		t.Error("le slug de l'événement lui-même ne doit pas compter")
	}

	group := models.StakeholderGroup{ID: primitive.NewObjectID(), Name: "VIP", Capacity: 2, IsOpen: true}
	if err := store.AddGroup(ctx, event.ID, group); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	dup := models.StakeholderGroup{ID: primitive.NewObjectID(), Name: "VIP", Capacity: 1}
	if err := store.AddGroup(ctx, event.ID, dup); !errors.Is(err, database.ErrGroupNameTaken) {
		t.Errorf("erreur = %v, attendu ErrGroupNameTaken", err)
	}

	group.IsOpen = false
	if err := store.ReplaceGroup(ctx, event.ID, group); err != nil {
		t.Fatalf("ReplaceGroup: %v", err)
	}
	got, _ := store.FindBySlug(ctx, "gala")
	if got == nil || len(got.Groups) != 1 || got.Groups[0].IsOpen {
		t.Errorf("groupe non remplacé: %+v", got)
	}

	if err := store.DeleteGroup(ctx, event.ID, group.ID); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}
	if err := store.DeleteGroup(ctx, event.ID, group.ID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("erreur = %v, attendu ErrNotFound", err)
	}
}

func TestManagerStore_emailUnique(t *testing.T) {
	store := NewManagerStore()
	ctx := context.Background()

	if err := store.Create(ctx, &models.Manager{Email: "Admin@Example.com"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(ctx, &models.Manager{Email: "admin@example.com"}); !errors.Is(err, database.ErrDuplicateEmail) {
		t.Errorf("erreur = %v, attendu ErrDuplicateEmail", err)
	}

	m, _ := store.FindByEmail(ctx, " ADMIN@example.com ")
	if m == nil {
		t.Error("FindByEmail doit ignorer la casse")
	}
}
