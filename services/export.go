package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"event-checkin-backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var registrationColumns = []string{"Group", "Email", "Checked In", "Checked In At", "Registered At"}

var analyticsColumns = []string{"Group", "Capacity", "Registrations", "Checked In", "Available", "Rate"}

// ExportRegistrationsCSV écrit les inscriptions de l'événement au format CSV.
// Les colonnes de formulaire suivent l'ordre des champs des groupes, sans doublon.
func (s *RegistrationService) ExportRegistrationsCSV(ctx context.Context, eventID, managerID primitive.ObjectID, w io.Writer) (*models.Event, error) {
	event, err := loadOwnedEvent(ctx, s.events, eventID, managerID)
	if err != nil {
		return nil, err
	}
	registrations, err := s.eventRegistrations(ctx, event)
	if err != nil {
		return nil, err
	}

	labels := formLabels(event, registrations)

	cw := csv.NewWriter(w)
	header := append(append([]string{}, registrationColumns...), labels...)
	if err := cw.Write(header); err != nil {
		return nil, fmt.Errorf("erreur lors de l'écriture du CSV: %w", err)
	}

	for _, reg := range registrations {
		checkedInAt := ""
		if reg.CheckedInAt != nil {
			checkedInAt = reg.CheckedInAt.In(models.DisplayLocation).Format(time.RFC3339)
		}
		row := []string{
			reg.GroupName,
			reg.Email,
			strconv.FormatBool(reg.CheckedIn),
			checkedInAt,
			reg.CreatedAt.In(models.DisplayLocation).Format(time.RFC3339),
		}
		for _, label := range labels {
			row = append(row, reg.FormData[label])
		}
		if err := cw.Write(row); err != nil {
			return nil, fmt.Errorf("erreur lors de l'écriture du CSV: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("erreur lors de l'écriture du CSV: %w", err)
	}
	return event, nil
}

// formLabels liste les libellés des formulaires actuels, puis ceux qui ne subsistent
// que dans d'anciennes réponses (groupe supprimé ou champ renommé)
func formLabels(event *models.Event, registrations []models.Registration) []string {
	seen := make(map[string]bool)
	var labels []string
	add := func(label string) {
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}

	for _, g := range event.Groups {
		for _, f := range g.Fields {
			add(f.Label)
		}
	}

	var extra []string
	for _, reg := range registrations {
		for label := range reg.FormData {
			if !seen[label] && !containsString(extra, label) {
				extra = append(extra, label)
			}
		}
	}
	sort.Strings(extra)
	for _, label := range extra {
		add(label)
	}

	return labels
}

// ExportCSV écrit les statistiques par groupe au format CSV
func (s *AnalyticsService) ExportCSV(ctx context.Context, eventID, managerID primitive.ObjectID, w io.Writer) (*models.EventAnalytics, error) {
	analytics, err := s.EventAnalytics(ctx, eventID, managerID)
	if err != nil {
		return nil, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(analyticsColumns); err != nil {
		return nil, fmt.Errorf("erreur lors de l'écriture du CSV: %w", err)
	}
	for _, g := range analytics.Groups {
		rate := 0.0
		if g.Capacity > 0 {
			rate = float64(g.Registrations) / float64(g.Capacity) * 100
		}
		err := cw.Write([]string{
			g.GroupName,
			strconv.Itoa(g.Capacity),
			strconv.Itoa(g.Registrations),
			strconv.Itoa(g.CheckedIn),
			strconv.Itoa(g.Available),
			strconv.FormatFloat(rate, 'f', 1, 64) + "%",
		})
		if err != nil {
			return nil, fmt.Errorf("erreur lors de l'écriture du CSV: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("erreur lors de l'écriture du CSV: %w", err)
	}
	return analytics, nil
}
