package services

import (
	"context"
	"log"
	"strings"
	"sync/atomic"

	"event-checkin-backend/models"
	"event-checkin-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// massEmailConcurrency borne le nombre de connexions SMTP simultanées
	massEmailConcurrency = 4
	massEmailRate        = 10 // emails par seconde
	massEmailBurst       = 4
)

// SendMassEmail envoie un email libre aux inscrits de l'événement correspondant aux filtres.
// Un échec d'envoi est compté, il n'interrompt pas les autres.
func (s *RegistrationService) SendMassEmail(ctx context.Context, eventID, managerID primitive.ObjectID, req models.MassEmailRequest) (*models.MassEmailResponse, error) {
	if err := utils.ValidateRequired("subject", req.Subject); err != nil {
		return nil, err
	}
	if err := utils.ValidateRequired("body", req.Body); err != nil {
		return nil, err
	}

	event, err := loadOwnedEvent(ctx, s.events, eventID, managerID)
	if err != nil {
		return nil, err
	}
	registrations, err := s.eventRegistrations(ctx, event)
	if err != nil {
		return nil, err
	}

	recipients := filterRecipients(registrations, req)
	if len(recipients) == 0 {
		return nil, utils.ValidationError{Field: "filters", Message: "aucun destinataire ne correspond aux filtres"}
	}

	var sent, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(massEmailConcurrency)

	for _, reg := range recipients {
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return err
			}

			vars := strings.NewReplacer(
				"{name}", registrantName(event, &reg),
				"{groupName}", reg.GroupName,
				"{eventTitle}", event.Title,
			)
			err := s.notifier.Send(gctx, Message{
				To:      reg.Email,
				Subject: vars.Replace(req.Subject),
				Body:    vars.Replace(req.Body),
			})
			if err != nil {
				log.Printf("⚠️  Email groupé non envoyé à %s: %v", reg.Email, err)
				failed.Add(1)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Printf("✓ Email groupé '%s': %d envoyé(s), %d échec(s)", event.Slug, sent.Load(), failed.Load())

	return &models.MassEmailResponse{
		Recipients: len(recipients),
		SentCount:  int(sent.Load()),
		Failed:     int(failed.Load()),
	}, nil
}

func filterRecipients(registrations []models.Registration, req models.MassEmailRequest) []models.Registration {
	group := strings.TrimSpace(req.GroupName)
	search := strings.ToLower(strings.TrimSpace(req.SearchEmail))

	var out []models.Registration
	for _, reg := range registrations {
		if group != "" && reg.GroupName != group {
			continue
		}
		if req.CheckedIn != nil && reg.CheckedIn != *req.CheckedIn {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(reg.Email), search) {
			continue
		}
		out = append(out, reg)
	}
	return out
}

// registrantName lit la réponse au champ de rôle "name" du groupe
func registrantName(event *models.Event, reg *models.Registration) string {
	group := event.GroupByID(reg.GroupID)
	if group == nil {
		return ""
	}
	if i := findRole(group.Fields, models.FieldRoleName); i >= 0 {
		return reg.FormData[group.Fields[i].Label]
	}
	return ""
}

func newMassEmailLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(massEmailRate), massEmailBurst)
}
