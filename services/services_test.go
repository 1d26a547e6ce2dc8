package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"event-checkin-backend/database/memory"
	"event-checkin-backend/models"
	"event-checkin-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeRenderer struct {
	err error
}

func (r *fakeRenderer) Render(payload string) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("png:" + payload), nil
}

type fakeNotifier struct {
	mu         sync.Mutex
	err        error
	deliveries []Delivery
	messages   []Message
}

func (n *fakeNotifier) Deliver(ctx context.Context, d Delivery) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.deliveries = append(n.deliveries, d)
	return nil
}

func (n *fakeNotifier) Send(ctx context.Context, m Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, m)
	return nil
}

func (n *fakeNotifier) setErr(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent map[string]int
	ch   chan struct{}
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{sent: make(map[string]int), ch: make(chan struct{}, 100)}
}

func (b *fakeBroadcaster) SendToManager(managerID string, payload interface{}) {
	b.mu.Lock()
	b.sent[managerID]++
	b.mu.Unlock()
	b.ch <- struct{}{}
}

func (b *fakeBroadcaster) wait(t *testing.T) {
	t.Helper()
	select {
	case <-b.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("aucune statistique poussée au tableau de bord")
	}
}

type testEnv struct {
	events        *memory.EventStore
	registrations *memory.RegistrationStore
	notifier      *fakeNotifier
	broadcaster   *fakeBroadcaster
	eventSvc      *EventService
	regSvc        *RegistrationService
	checkIn       *CheckInService
	analytics     *AnalyticsService
	managerID     primitive.ObjectID
}

func newTestEnv() *testEnv {
	env := &testEnv{
		events:        memory.NewEventStore(),
		registrations: memory.NewRegistrationStore(),
		notifier:      &fakeNotifier{},
		broadcaster:   newFakeBroadcaster(),
		managerID:     primitive.NewObjectID(),
	}
	env.analytics = NewAnalyticsService(env.events, env.registrations, env.broadcaster)
	env.eventSvc = NewEventService(env.events, env.registrations)
	env.regSvc = NewRegistrationService(env.events, env.registrations, &fakeRenderer{}, env.notifier, env.analytics, time.Second)
	env.checkIn = NewCheckInService(env.events, env.registrations, env.analytics)
	return env
}

// createEvent crée un événement avec un groupe au formulaire [Full Name, Email]
func (env *testEnv) createEvent(t *testing.T, title string, capacity int) (*models.Event, *models.StakeholderGroup) {
	t.Helper()
	ctx := context.Background()

	event, err := env.eventSvc.CreateEvent(ctx, env.managerID, models.CreateEventRequest{
		Title: title,
		Date:  models.FlexibleTime{Time: time.Date(2026, 12, 31, 20, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	group, err := env.eventSvc.AddGroup(ctx, event.ID, env.managerID, models.CreateGroupRequest{
		Name:     "Attendees",
		Capacity: capacity,
	})
	if err != nil {
		t.Fatalf("AddGroup: %v", err)
	}

	return event, group
}

func registerRequest(slug, group, email string) models.RegisterRequest {
	return models.RegisterRequest{
		EventSlug: slug,
		GroupName: group,
		FormData:  map[string]string{"Full Name": "Guest", "Email": email},
	}
}

func TestRegister_derniereplaceConcurrente(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 1)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = env.regSvc.Register(context.Background(), registerRequest(event.Slug, group.Name, fmt.Sprintf("guest%d@example.com", i)))
		}(i)
	}
	wg.Wait()

	ok, full := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrCapacityExceeded):
			full++
		default:
			t.Errorf("erreur inattendue: %v", err)
		}
	}
	if ok != 1 || full != 1 {
		t.Errorf("succès = %d, complet = %d", ok, full)
	}
}

func TestRegister_capaciteSousForteConcurrence(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Forum", 7)

	var wg sync.WaitGroup
	var mu sync.Mutex
	tokens := make(map[string]bool)

	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := env.regSvc.Register(context.Background(), registerRequest(event.Slug, group.Name, fmt.Sprintf("g%d@example.com", i)))
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if tokens[res.Registration.Token] {
				t.Errorf("token dupliqué: %s", res.Registration.Token)
			}
			tokens[res.Registration.Token] = true
		}(i)
	}
	wg.Wait()

	if len(tokens) != 7 {
		t.Errorf("inscriptions admises = %d, attendu 7", len(tokens))
	}
}

func TestRegister_emailManquant(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 5)

	_, err := env.regSvc.Register(context.Background(), models.RegisterRequest{
		EventSlug: event.Slug,
		GroupName: group.Name,
		FormData:  map[string]string{"Full Name": "Guest"},
	})
	if !errors.Is(err, ErrMissingEmail) {
		t.Fatalf("erreur = %v, attendu ErrMissingEmail", err)
	}

	count, _ := env.registrations.CountByGroup(context.Background(), event.ID, group.ID)
	if count != 0 {
		t.Errorf("aucune inscription ne doit être enregistrée, trouvé %d", count)
	}
}

func TestRegister_groupeFerme(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 100)

	if _, err := env.eventSvc.ToggleGroup(context.Background(), event.ID, group.ID, env.managerID); err != nil {
		t.Fatalf("ToggleGroup: %v", err)
	}

	_, err := env.regSvc.Register(context.Background(), registerRequest(event.Slug, group.Name, "guest@example.com"))
	if !errors.Is(err, ErrGroupClosed) {
		t.Errorf("erreur = %v, attendu ErrGroupClosed", err)
	}
}

func TestRegister_evenementOuGroupeInconnu(t *testing.T) {
	env := newTestEnv()
	event, _ := env.createEvent(t, "Gala", 1)

	if _, err := env.regSvc.Register(context.Background(), registerRequest("inconnu", "Attendees", "a@example.com")); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("erreur = %v, attendu ErrEventNotFound", err)
	}
	if _, err := env.regSvc.Register(context.Background(), registerRequest(event.Slug, "VIP", "a@example.com")); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("erreur = %v, attendu ErrGroupNotFound", err)
	}
}

func TestRegister_envoiEmail(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 5)

	req := registerRequest(event.Slug, group.Name, "Guest@Example.com")
	req.Language = "ar"
	res, err := env.regSvc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	env.broadcaster.wait(t)

	if !res.DeliveryConfirmed {
		t.Error("l'envoi doit être confirmé")
	}
	if len(env.notifier.deliveries) != 1 {
		t.Fatalf("envois = %d, attendu 1", len(env.notifier.deliveries))
	}
	d := env.notifier.deliveries[0]
	if d.Email != "guest@example.com" || d.Language != "ar" || d.EventTitle != "Gala" {
		t.Errorf("envoi = %+v", d)
	}
	if string(res.QRImage) != "png:"+EncodePayload(res.Registration.Token) {
		t.Errorf("le QR code doit encoder le contenu canonique, reçu %q", res.QRImage)
	}

	stored, _ := env.registrations.FindByID(context.Background(), res.Registration.ID)
	if stored.NotificationStatus != models.NotificationSent {
		t.Errorf("statut = %q, attendu sent", stored.NotificationStatus)
	}
}

func TestRegister_echecEmailNonBloquant(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 5)
	env.notifier.setErr(errors.New("smtp indisponible"))

	res, err := env.regSvc.Register(context.Background(), registerRequest(event.Slug, group.Name, "guest@example.com"))
	if err != nil {
		t.Fatalf("l'inscription doit aboutir malgré l'échec d'envoi: %v", err)
	}
	if res.DeliveryConfirmed {
		t.Error("l'envoi ne doit pas être confirmé")
	}

	stored, _ := env.registrations.FindByID(context.Background(), res.Registration.ID)
	if stored.NotificationStatus != models.NotificationFailed || stored.NotificationAttempts != 1 {
		t.Errorf("statut = %q, tentatives = %d", stored.NotificationStatus, stored.NotificationAttempts)
	}

	// Le renvoi périodique rattrape l'email une fois le SMTP rétabli
	env.notifier.setErr(nil)
	sent, failed, err := env.regSvc.RetryFailedDeliveries(context.Background(), 5, 10)
	if err != nil || sent != 1 || failed != 0 {
		t.Fatalf("RetryFailedDeliveries = %d, %d, %v", sent, failed, err)
	}
	stored, _ = env.registrations.FindByID(context.Background(), res.Registration.ID)
	if stored.NotificationStatus != models.NotificationSent || stored.NotificationAttempts != 2 {
		t.Errorf("statut = %q, tentatives = %d", stored.NotificationStatus, stored.NotificationAttempts)
	}
}

func TestRetryFailedDeliveries_limiteDeTentatives(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 5)
	env.notifier.setErr(errors.New("smtp indisponible"))

	if _, err := env.regSvc.Register(context.Background(), registerRequest(event.Slug, group.Name, "guest@example.com")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	for i := 0; i < 5; i++ {
		env.regSvc.RetryFailedDeliveries(context.Background(), 3, 10)
	}

	pending, _ := env.registrations.FindFailedNotifications(context.Background(), 3, 10)
	if len(pending) != 0 {
		t.Errorf("plus aucun renvoi attendu après 3 tentatives, reste %d", len(pending))
	}
}

func TestCheckIn_scenarioLegacyPuisBrut(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 5)
	ctx := context.Background()

	reg := &models.Registration{
		EventID:  event.ID,
		GroupID:  group.ID,
		Token:    "abc123",
		Email:    "guest@example.com",
		FormData: map[string]string{"Full Name": "Guest", "Email": "guest@example.com"},
	}
	if err := env.registrations.Admit(ctx, reg, group.Capacity); err != nil {
		t.Fatalf("Admit: %v", err)
	}

	first, err := env.checkIn.CheckIn(ctx, `{"registrationId":"abc123"}`, env.managerID)
	if err != nil {
		t.Fatalf("premier scan: %v", err)
	}
	if !first.CheckedIn || first.CheckedInAt == nil {
		t.Fatalf("inscription non enregistrée: %+v", first)
	}
	if first.GroupName != group.Name {
		t.Errorf("GroupName = %q, attendu %q", first.GroupName, group.Name)
	}

	_, err = env.checkIn.CheckIn(ctx, "abc123", env.managerID)
	var already *AlreadyCheckedInError
	if !errors.As(err, &already) {
		t.Fatalf("erreur = %v, attendu AlreadyCheckedInError", err)
	}
	if !already.CheckedInAt.Equal(*first.CheckedInAt) {
		t.Errorf("CheckedInAt = %v, attendu %v", already.CheckedInAt, *first.CheckedInAt)
	}
}

func TestCheckIn_erreurs(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 5)
	ctx := context.Background()

	res, err := env.regSvc.Register(ctx, registerRequest(event.Slug, group.Name, "guest@example.com"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var ve utils.ValidationError
	if _, err := env.checkIn.CheckIn(ctx, "  ", env.managerID); !errors.As(err, &ve) {
		t.Errorf("valeur vide: erreur = %v, attendu ValidationError", err)
	}
	if _, err := env.checkIn.CheckIn(ctx, "inconnu", env.managerID); !errors.Is(err, ErrRegistrationNotFound) {
		t.Errorf("token inconnu: erreur = %v", err)
	}
	if _, err := env.checkIn.CheckIn(ctx, res.Registration.Token, primitive.NewObjectID()); !errors.Is(err, ErrRegistrationNotFound) {
		t.Errorf("autre manager: erreur = %v, attendu ErrRegistrationNotFound", err)
	}

	stored, _ := env.registrations.FindByID(ctx, res.Registration.ID)
	if stored.CheckedIn {
		t.Error("un scan refusé ne doit pas enregistrer l'entrée")
	}
}

func TestCheckIn_scansConcurrents(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 5)
	ctx := context.Background()

	res, err := env.regSvc.Register(ctx, registerRequest(event.Slug, group.Name, "guest@example.com"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	payload := EncodePayload(res.Registration.Token)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, already := 0, 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.checkIn.CheckIn(ctx, payload, env.managerID)
			var ae *AlreadyCheckedInError
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.As(err, &ae):
				already++
			default:
				t.Errorf("erreur inattendue: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || already != 9 {
		t.Errorf("succès = %d, déjà enregistrés = %d", ok, already)
	}
}

func TestEventAnalytics(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 3)
	ctx := context.Background()

	vip, err := env.eventSvc.AddGroup(ctx, event.ID, env.managerID, models.CreateGroupRequest{Name: "VIP", Capacity: 2})
	if err != nil {
		t.Fatalf("AddGroup: %v", err)
	}

	var tokens []string
	for i := 0; i < 2; i++ {
		res, err := env.regSvc.Register(ctx, registerRequest(event.Slug, group.Name, fmt.Sprintf("g%d@example.com", i)))
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		tokens = append(tokens, res.Registration.Token)
	}
	if _, err := env.checkIn.CheckIn(ctx, tokens[0], env.managerID); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	a, err := env.analytics.EventAnalytics(ctx, event.ID, env.managerID)
	if err != nil {
		t.Fatalf("EventAnalytics: %v", err)
	}

	if len(a.Groups) != 2 {
		t.Fatalf("groupes = %d, attendu 2", len(a.Groups))
	}
	g := a.Groups[0]
	if g.GroupName != group.Name || g.Registrations != 2 || g.CheckedIn != 1 || g.Available != 1 {
		t.Errorf("groupe %+v", g)
	}
	if a.Groups[1].GroupID != vip.ID.Hex() || a.Groups[1].Available != 2 {
		t.Errorf("groupe VIP %+v", a.Groups[1])
	}
	if a.Capacity != 5 || a.Registrations != 2 || a.CheckedIn != 1 || a.Available != 3 {
		t.Errorf("totaux %+v", a)
	}

	if _, err := env.analytics.EventAnalytics(ctx, event.ID, primitive.NewObjectID()); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("autre manager: erreur = %v, attendu ErrEventNotFound", err)
	}
}

func TestEventAnalytics_disponibleJamaisNegatif(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := env.regSvc.Register(ctx, registerRequest(event.Slug, group.Name, fmt.Sprintf("g%d@example.com", i))); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	capacity := 1
	if _, err := env.eventSvc.UpdateGroup(ctx, event.ID, group.ID, env.managerID, models.UpdateGroupRequest{Capacity: &capacity}); err != nil {
		t.Fatalf("UpdateGroup: %v", err)
	}

	a, err := env.analytics.EventAnalytics(ctx, event.ID, env.managerID)
	if err != nil {
		t.Fatalf("EventAnalytics: %v", err)
	}
	if a.Groups[0].Available != 0 {
		t.Errorf("Available = %d, attendu 0", a.Groups[0].Available)
	}
}

func TestEventService_slugs(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	create := func(title string) *models.Event {
		e, err := env.eventSvc.CreateEvent(ctx, env.managerID, models.CreateEventRequest{
			Title: title,
			Date:  models.FlexibleTime{Time: time.Now()},
		})
		if err != nil {
			t.Fatalf("CreateEvent(%q): %v", title, err)
		}
		return e
	}

	a := create("Soirée d'été")
	b := create("Soirée d'été")
	if a.Slug != "soiree-dete" || b.Slug != "soiree-dete-1" {
		t.Errorf("slugs = %q, %q", a.Slug, b.Slug)
	}

	title := "Gala 2026"
	updated, err := env.eventSvc.UpdateEvent(ctx, b.ID, env.managerID, models.UpdateEventRequest{Title: &title})
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if updated.Slug != "gala-2026" {
		t.Errorf("slug après renommage = %q", updated.Slug)
	}

	if _, err := env.eventSvc.GetEvent(ctx, a.ID, primitive.NewObjectID()); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("autre manager: erreur = %v, attendu ErrEventNotFound", err)
	}
}

func TestEventService_groupes(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 5)
	ctx := context.Background()

	if _, err := env.eventSvc.AddGroup(ctx, event.ID, env.managerID, models.CreateGroupRequest{Name: group.Name, Capacity: 1}); !errors.Is(err, ErrGroupNameTaken) {
		t.Errorf("nom en double: erreur = %v", err)
	}
	if _, err := env.eventSvc.AddGroup(ctx, event.ID, env.managerID, models.CreateGroupRequest{Name: "VIP"}); err == nil {
		t.Error("une capacité nulle doit être refusée")
	}

	// Retirer le champ Email obligatoire : refusé, groupe inchangé
	_, err := env.eventSvc.UpdateGroup(ctx, event.ID, group.ID, env.managerID, models.UpdateGroupRequest{
		Fields: []models.FieldDefinition{{Label: "Full Name", Required: true, Role: models.FieldRoleName}},
	})
	var se *StructuralSchemaError
	if !errors.As(err, &se) {
		t.Fatalf("erreur = %v, attendu StructuralSchemaError", err)
	}
	current, _ := env.eventSvc.GetEvent(ctx, event.ID, env.managerID)
	if len(current.Groups[0].Fields) != 2 {
		t.Errorf("le formulaire ne doit pas changer: %+v", current.Groups[0].Fields)
	}

	if err := env.eventSvc.DeleteGroup(ctx, event.ID, group.ID, env.managerID); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}
	if err := env.eventSvc.DeleteGroup(ctx, event.ID, group.ID, env.managerID); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("erreur = %v, attendu ErrGroupNotFound", err)
	}
}

func TestDeleteEvent_supprimeLesInscriptions(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 5)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := env.regSvc.Register(ctx, registerRequest(event.Slug, group.Name, fmt.Sprintf("g%d@example.com", i))); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	deleted, err := env.eventSvc.DeleteEvent(ctx, event.ID, env.managerID)
	if err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if deleted != 3 {
		t.Errorf("inscriptions supprimées = %d, attendu 3", deleted)
	}
	regs, _ := env.registrations.FindByEvent(ctx, event.ID)
	if len(regs) != 0 {
		t.Errorf("inscriptions restantes = %d", len(regs))
	}
}

// registrationsDeleteFailing refuse toute suppression d'inscriptions par événement
type registrationsDeleteFailing struct {
	*memory.RegistrationStore
}

func (registrationsDeleteFailing) DeleteByEvent(ctx context.Context, eventID primitive.ObjectID) (int, error) {
	return 0, errors.New("mongo indisponible")
}

func TestDeleteEvent_echecInscriptionsGardeLEvenement(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 5)
	ctx := context.Background()

	if _, err := env.regSvc.Register(ctx, registerRequest(event.Slug, group.Name, "g@example.com")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	svc := NewEventService(env.events, registrationsDeleteFailing{env.registrations})
	if _, err := svc.DeleteEvent(ctx, event.ID, env.managerID); err == nil {
		t.Fatal("DeleteEvent() devrait échouer")
	}

	if found, _ := env.events.FindByID(ctx, event.ID); found == nil {
		t.Error("l'événement ne doit pas être supprimé quand ses inscriptions restent")
	}

	// La suppression relancée aboutit
	deleted, err := env.eventSvc.DeleteEvent(ctx, event.ID, env.managerID)
	if err != nil || deleted != 1 {
		t.Errorf("DeleteEvent() = %d, %v ; attendu 1, nil", deleted, err)
	}
}

func TestRegistrationManagement(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 1)
	ctx := context.Background()

	res, err := env.regSvc.Register(ctx, registerRequest(event.Slug, group.Name, "guest@example.com"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	updated, err := env.regSvc.UpdateRegistration(ctx, event.ID, res.Registration.ID, env.managerID, map[string]string{
		"Full Name": "Guest Renamed",
		"Email":     "NEW@example.com",
	})
	if err != nil {
		t.Fatalf("UpdateRegistration: %v", err)
	}
	if updated.Email != "new@example.com" || updated.FormData["Full Name"] != "Guest Renamed" {
		t.Errorf("inscription = %+v", updated)
	}

	if _, err := env.regSvc.UpdateRegistration(ctx, event.ID, res.Registration.ID, env.managerID, map[string]string{"Full Name": "X"}); !errors.Is(err, ErrMissingEmail) {
		t.Errorf("erreur = %v, attendu ErrMissingEmail", err)
	}

	// Le groupe est complet ; la suppression libère la place
	if _, err := env.regSvc.Register(ctx, registerRequest(event.Slug, group.Name, "other@example.com")); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("erreur = %v, attendu ErrCapacityExceeded", err)
	}
	if err := env.regSvc.DeleteRegistration(ctx, event.ID, res.Registration.ID, env.managerID); err != nil {
		t.Fatalf("DeleteRegistration: %v", err)
	}
	if _, err := env.regSvc.Register(ctx, registerRequest(event.Slug, group.Name, "other@example.com")); err != nil {
		t.Errorf("Register après suppression: %v", err)
	}
	if err := env.regSvc.DeleteRegistration(ctx, event.ID, res.Registration.ID, env.managerID); !errors.Is(err, ErrRegistrationNotFound) {
		t.Errorf("erreur = %v, attendu ErrRegistrationNotFound", err)
	}
}

func TestListRegistrations_nomDeGroupeActuel(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 5)
	ctx := context.Background()

	if _, err := env.regSvc.Register(ctx, registerRequest(event.Slug, group.Name, "guest@example.com")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	name := "Participants"
	if _, err := env.eventSvc.UpdateGroup(ctx, event.ID, group.ID, env.managerID, models.UpdateGroupRequest{Name: &name}); err != nil {
		t.Fatalf("UpdateGroup: %v", err)
	}

	regs, err := env.regSvc.ListRegistrations(ctx, event.ID, env.managerID)
	if err != nil {
		t.Fatalf("ListRegistrations: %v", err)
	}
	if len(regs) != 1 || regs[0].GroupName != name {
		t.Errorf("inscriptions = %+v", regs)
	}
}

func TestSendMassEmail(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 10)
	ctx := context.Background()

	var first string
	for i := 0; i < 3; i++ {
		req := registerRequest(event.Slug, group.Name, fmt.Sprintf("g%d@example.com", i))
		req.FormData["Full Name"] = fmt.Sprintf("Guest %d", i)
		res, err := env.regSvc.Register(ctx, req)
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if i == 0 {
			first = res.Registration.Token
		}
	}
	if _, err := env.checkIn.CheckIn(ctx, first, env.managerID); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	notCheckedIn := false
	resp, err := env.regSvc.SendMassEmail(ctx, event.ID, env.managerID, models.MassEmailRequest{
		Subject:   "Rappel {eventTitle}",
		Body:      "Bonjour {name} ({groupName})",
		CheckedIn: &notCheckedIn,
	})
	if err != nil {
		t.Fatalf("SendMassEmail: %v", err)
	}
	if resp.Recipients != 2 || resp.SentCount != 2 || resp.Failed != 0 {
		t.Errorf("réponse = %+v", resp)
	}

	for _, m := range env.notifier.messages {
		if m.Subject != "Rappel Gala" {
			t.Errorf("sujet = %q", m.Subject)
		}
		if !strings.HasPrefix(m.Body, "Bonjour Guest ") || !strings.HasSuffix(m.Body, "(Attendees)") {
			t.Errorf("corps = %q", m.Body)
		}
	}

	_, err = env.regSvc.SendMassEmail(ctx, event.ID, env.managerID, models.MassEmailRequest{
		Subject:   "Rappel",
		Body:      "Bonjour",
		GroupName: "VIP",
	})
	var ve utils.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("aucun destinataire: erreur = %v, attendu ValidationError", err)
	}
}

func TestExportRegistrationsCSV(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 10)
	ctx := context.Background()

	if _, err := env.regSvc.Register(ctx, registerRequest(event.Slug, group.Name, "guest@example.com")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var buf bytes.Buffer
	if _, err := env.regSvc.ExportRegistrationsCSV(ctx, event.ID, env.managerID, &buf); err != nil {
		t.Fatalf("ExportRegistrationsCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV illisible: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("lignes = %d, attendu 2", len(rows))
	}
	wantHeader := []string{"Group", "Email", "Checked In", "Checked In At", "Registered At", "Full Name", "Email"}
	if strings.Join(rows[0], "|") != strings.Join(wantHeader, "|") {
		t.Errorf("en-tête = %v", rows[0])
	}
	if rows[1][0] != group.Name || rows[1][1] != "guest@example.com" || rows[1][2] != "false" || rows[1][5] != "Guest" {
		t.Errorf("ligne = %v", rows[1])
	}
}

func TestAnalyticsExportCSV(t *testing.T) {
	env := newTestEnv()
	event, group := env.createEvent(t, "Gala", 4)
	ctx := context.Background()

	if _, err := env.regSvc.Register(ctx, registerRequest(event.Slug, group.Name, "guest@example.com")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var buf bytes.Buffer
	if _, err := env.analytics.ExportCSV(ctx, event.ID, env.managerID, &buf); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	rows, _ := csv.NewReader(&buf).ReadAll()
	if len(rows) != 2 || rows[1][0] != "Attendees" || rows[1][2] != "1" || rows[1][5] != "25.0%" {
		t.Errorf("CSV = %v", rows)
	}
}
