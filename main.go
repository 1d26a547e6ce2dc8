package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-checkin-backend/config"
	"event-checkin-backend/database"
	"event-checkin-backend/database/memory"
	"event-checkin-backend/handlers"
	"event-checkin-backend/models"
	"event-checkin-backend/services"
	"event-checkin-backend/websocket"
)

// stores regroupe les implémentations de stockage choisies par STORAGE_DRIVER
type stores struct {
	events        services.EventStore
	registrations services.RegistrationStore
	managers      services.ManagerStore
	ping          func() error
}

func openStores(cfg *config.Config) (*stores, func(), error) {
	if cfg.StorageDriver == "memory" {
		log.Println("⚠️  Stockage en mémoire : les données seront perdues à l'arrêt")
		return &stores{
			events:        memory.NewEventStore(),
			registrations: memory.NewRegistrationStore(),
			managers:      memory.NewManagerStore(),
		}, func() {}, nil
	}

	if err := database.Connect(cfg.MongoURI, cfg.MongoDB); err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := database.Close(); err != nil {
			log.Printf("❌ Erreur lors de la fermeture de MongoDB: %v", err)
		}
	}

	return &stores{
		events:        database.NewEventRepository(database.DB),
		registrations: database.NewRegistrationRepository(database.DB),
		managers:      database.NewManagerRepository(database.DB),
		ping:          database.Ping,
	}, closeFn, nil
}

func main() {
	// Charger la configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Erreur lors du chargement de la configuration: %v", err)
	}

	if err := models.SetDisplayLocation(cfg.Timezone); err != nil {
		log.Fatalf("❌ Fuseau horaire invalide: %v", err)
	}

	st, closeStores, err := openStores(cfg)
	if err != nil {
		log.Fatalf("❌ Erreur de connexion à MongoDB: %v", err)
	}
	defer closeStores()

	// Envoi des emails (optionnel)
	var notifier services.Notifier
	if cfg.Mailer.Enabled() {
		notifier = services.NewSMTPMailer(cfg.Mailer)
		log.Printf("✓ Envoi d'emails via %s:%d", cfg.Mailer.Host, cfg.Mailer.Port)
	} else {
		log.Println("⚠️  EMAIL_HOST non configuré : les QR codes ne seront pas envoyés par email")
		notifier = services.NewDisabledMailer()
	}

	slackService := services.NewSlackService(cfg.SlackWebhookURL)

	// Hub WebSocket des tableaux de bord
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("✅ Hub WebSocket initialisé et en cours d'exécution")

	// Services
	analyticsService := services.NewAnalyticsService(st.events, st.registrations, wsHub)
	eventService := services.NewEventService(st.events, st.registrations)
	registrationService := services.NewRegistrationService(
		st.events,
		st.registrations,
		services.NewQRRenderer(0),
		notifier,
		analyticsService,
		cfg.Mailer.Timeout,
	)
	checkInService := services.NewCheckInService(st.events, st.registrations, analyticsService)
	authService := services.NewAuthService(st.managers, cfg.JWTSecret, cfg.JWTExpiry)

	// Relance des emails en échec
	var notificationCron *services.NotificationCron
	if cfg.Mailer.Enabled() {
		notificationCron = services.NewNotificationCron(registrationService, slackService, cfg.NotificationRetrySchedule, cfg.NotificationMaxAttempts)
		if err := notificationCron.Start(); err != nil {
			log.Fatalf("❌ Planification de la relance des emails impossible: %v", err)
		}
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		JWTSecret:     cfg.JWTSecret,
		CORSOrigins:   cfg.CORSOrigins,
		Slack:         slackService,
		Health:        handlers.NewHealthHandler(cfg.Environment, cfg.StorageDriver, st.ping),
		Auth:          handlers.NewAuthHandler(authService, cfg.Environment == "production"),
		Events:        handlers.NewEventHandler(eventService),
		Registrations: handlers.NewRegistrationHandler(registrationService, checkInService, analyticsService),
		WebSocket:     websocket.NewHandler(wsHub, cfg.JWTSecret, cfg.CORSOrigins),
	})

	// Démarrer le serveur
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Serveur démarré sur http://%s", addr)
		log.Printf("📝 Environnement: %s", cfg.Environment)
		log.Printf("🗄️  Stockage: %s", cfg.StorageDriver)
		logRoutes()
		log.Println("\n✨ Le serveur est prêt à recevoir des requêtes!")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Erreur du serveur: %v", err)
		}
	}()

	// Attendre le signal d'arrêt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n🛑 Arrêt du serveur...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Erreur lors de l'arrêt du serveur: %v", err)
	}
	if notificationCron != nil {
		notificationCron.Stop()
	}
	wsHub.Shutdown()

	log.Println("✓ Serveur arrêté proprement")
}

func logRoutes() {
	log.Println("📋 Routes disponibles:")
	log.Println("   GET    /api/health                                   - Health check")
	log.Println("   POST   /api/auth/signup                              - Créer un compte manager")
	log.Println("   POST   /api/auth/login                               - Connexion")
	log.Println("   POST   /api/auth/logout                              - Déconnexion")
	log.Println("   GET    /api/events/public/{slug}                     - Page d'inscription (public)")
	log.Println("   POST   /api/registrations/register                   - Inscription (public)")
	log.Println("")
	log.Println("   🔒 Routes protégées:")
	log.Println("   GET    /api/auth/me                                  - Manager connecté")
	log.Println("   GET    /api/events                                   - Mes événements")
	log.Println("   POST   /api/events                                   - Créer un événement")
	log.Println("   GET    /api/events/slug/{slug}                       - Événement par slug")
	log.Println("   GET    /api/events/{id}                              - Détails événement")
	log.Println("   PUT    /api/events/{id}                              - Modifier événement")
	log.Println("   DELETE /api/events/{id}                              - Supprimer événement et inscriptions")
	log.Println("   POST   /api/events/{id}/groups                       - Ajouter un groupe")
	log.Println("   PUT    /api/events/{id}/groups/{group_id}            - Modifier un groupe")
	log.Println("   PATCH  /api/events/{id}/groups/{group_id}/toggle     - Ouvrir/fermer un groupe")
	log.Println("   DELETE /api/events/{id}/groups/{group_id}            - Supprimer un groupe")
	log.Println("   POST   /api/registrations/checkin                    - Scanner un QR code")
	log.Println("   GET    /api/registrations/{id}                       - Liste des inscrits")
	log.Println("   GET    /api/registrations/{id}/export                - Export CSV des inscrits")
	log.Println("   POST   /api/registrations/{id}/mass-email            - Email groupé")
	log.Println("   GET    /api/registrations/{id}/analytics             - Statistiques")
	log.Println("   GET    /api/registrations/{id}/analytics/export      - Export CSV des statistiques")
	log.Println("   PUT    /api/registrations/{id}/{registration_id}     - Modifier une inscription")
	log.Println("   DELETE /api/registrations/{id}/{registration_id}     - Supprimer une inscription")
	log.Println("")
	log.Println("   🔌 WebSocket:")
	log.Println("   GET    /ws                                           - Statistiques en direct")
}
