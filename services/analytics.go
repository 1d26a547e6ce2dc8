package services

import (
	"context"
	"log"
	"time"

	"event-checkin-backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnalyticsUpdatedMessage est le type du message poussé au tableau de bord
const AnalyticsUpdatedMessage = "analytics_updated"

// AnalyticsService calcule les compteurs d'un événement à partir des inscriptions
type AnalyticsService struct {
	events        EventStore
	registrations RegistrationStore
	broadcaster   Broadcaster
}

// NewAnalyticsService crée un AnalyticsService. broadcaster peut être nil.
func NewAnalyticsService(events EventStore, registrations RegistrationStore, broadcaster Broadcaster) *AnalyticsService {
	return &AnalyticsService{
		events:        events,
		registrations: registrations,
		broadcaster:   broadcaster,
	}
}

// EventAnalytics retourne les statistiques d'un événement appartenant au manager
func (s *AnalyticsService) EventAnalytics(ctx context.Context, eventID, managerID primitive.ObjectID) (*models.EventAnalytics, error) {
	event, err := loadOwnedEvent(ctx, s.events, eventID, managerID)
	if err != nil {
		return nil, err
	}
	return s.compute(ctx, event)
}

func (s *AnalyticsService) compute(ctx context.Context, event *models.Event) (*models.EventAnalytics, error) {
	counts, err := s.registrations.GroupCounts(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	analytics := &models.EventAnalytics{
		EventID: event.ID.Hex(),
		Title:   event.Title,
		Groups:  make([]models.GroupStats, 0, len(event.Groups)),
	}

	for _, g := range event.Groups {
		c := counts[g.ID]
		available := g.Capacity - c.Registrations
		if available < 0 {
			available = 0
		}

		analytics.Groups = append(analytics.Groups, models.GroupStats{
			GroupID:       g.ID.Hex(),
			GroupName:     g.Name,
			Capacity:      g.Capacity,
			IsOpen:        g.IsOpen,
			Registrations: c.Registrations,
			CheckedIn:     c.CheckedIn,
			Available:     available,
		})

		analytics.Capacity += g.Capacity
		analytics.Registrations += c.Registrations
		analytics.CheckedIn += c.CheckedIn
		analytics.Available += available
	}

	return analytics, nil
}

// Publish pousse les statistiques à jour au manager propriétaire, sans bloquer l'appelant
func (s *AnalyticsService) Publish(event *models.Event) {
	if s == nil || s.broadcaster == nil || event == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		analytics, err := s.compute(ctx, event)
		if err != nil {
			log.Printf("⚠️  Statistiques temps réel non calculées pour %s: %v", event.ID.Hex(), err)
			return
		}

		s.broadcaster.SendToManager(event.ManagerID.Hex(), map[string]interface{}{
			"type":      AnalyticsUpdatedMessage,
			"event_id":  event.ID.Hex(),
			"analytics": analytics,
		})
	}()
}
