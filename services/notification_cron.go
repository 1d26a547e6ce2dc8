package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// retryBatchSize borne le nombre d'emails renvoyés par passage
const retryBatchSize = 50

// NotificationCron renvoie périodiquement les emails de confirmation en échec
type NotificationCron struct {
	registrations *RegistrationService
	slack         *SlackService
	schedule      string
	maxAttempts   int
	cron          *cron.Cron
}

// NewNotificationCron crée une nouvelle instance. slack peut être nil.
func NewNotificationCron(registrations *RegistrationService, slack *SlackService, schedule string, maxAttempts int) *NotificationCron {
	if schedule == "" {
		schedule = "@every 5m"
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &NotificationCron{
		registrations: registrations,
		slack:         slack,
		schedule:      schedule,
		maxAttempts:   maxAttempts,
		cron:          cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Start démarre le cron job
func (nc *NotificationCron) Start() error {
	if _, err := nc.cron.AddFunc(nc.schedule, nc.retryFailedDeliveries); err != nil {
		return err
	}
	nc.cron.Start()
	log.Printf("✓ Cron job renvoi des emails démarré (%s, %d tentatives max)", nc.schedule, nc.maxAttempts)
	return nil
}

// Stop arrête le cron job et attend la fin du passage en cours
func (nc *NotificationCron) Stop() {
	<-nc.cron.Stop().Done()
}

func (nc *NotificationCron) retryFailedDeliveries() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sent, failed, err := nc.registrations.RetryFailedDeliveries(ctx, nc.maxAttempts, retryBatchSize)
	if err != nil {
		log.Printf("❌ Erreur lors du renvoi des emails: %v", err)
		return
	}

	if sent+failed == 0 {
		return // Rien à faire
	}

	log.Printf("📧 Renvoi des emails de confirmation: %d succès, %d échecs", sent, failed)

	if sent == 0 {
		if err := nc.slack.SendDeliveryFailures(ctx, failed, nc.maxAttempts); err != nil {
			log.Printf("❌ Erreur lors de l'envoi de la notification Slack: %v", err)
		}
	}
}
