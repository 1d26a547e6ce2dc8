package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contient toutes les configurations de l'application
type Config struct {
	Port        string
	Host        string
	MongoURI    string
	MongoDB     string
	JWTSecret   string
	JWTExpiry   time.Duration
	Environment string
	CORSOrigins []string

	// StorageDriver vaut "mongo" (défaut) ou "memory" pour un fonctionnement local sans base
	StorageDriver string
	Timezone      string
	PublicBaseURL string

	SlackWebhookURL string
	Mailer          MailerConfig

	NotificationRetrySchedule string
	NotificationMaxAttempts   int
}

// MailerConfig configure l'envoi des emails. Injecté dans le mailer à sa construction.
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// Enabled indique si un serveur SMTP est configuré
func (m MailerConfig) Enabled() bool {
	return m.Host != "" && m.From != ""
}

// Load charge la configuration depuis les variables d'environnement
func Load() (*Config, error) {
	// Charger le fichier .env s'il existe
	_ = godotenv.Load()

	config := &Config{
		Port:            getEnv("PORT", "8090"),
		Host:            getEnv("HOST", "0.0.0.0"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getEnv("MONGO_DB", "event_checkin_db"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		Environment:     getEnv("ENVIRONMENT", "development"),
		StorageDriver:   strings.ToLower(getEnv("STORAGE_DRIVER", "mongo")),
		Timezone:        getEnv("TIMEZONE", "UTC"),
		PublicBaseURL:   strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),

		NotificationRetrySchedule: getEnv("NOTIFICATION_RETRY_SCHEDULE", "@every 5m"),
	}

	var err error
	if config.JWTExpiry, err = getDuration("JWT_EXPIRY", 24*time.Hour); err != nil {
		return nil, err
	}
	if config.NotificationMaxAttempts, err = getInt("NOTIFICATION_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}

	config.Mailer = MailerConfig{
		Host:     getEnv("EMAIL_HOST", ""),
		Username: getEnv("EMAIL_USER", ""),
		Password: getEnv("EMAIL_PASS", ""),
		From:     getEnv("EMAIL_FROM", getEnv("EMAIL_USER", "")),
	}
	if config.Mailer.Port, err = getInt("EMAIL_PORT", 587); err != nil {
		return nil, err
	}
	if config.Mailer.Timeout, err = getDuration("EMAIL_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	// Parser les origines CORS
	origins := getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	originsList := strings.Split(origins, ",")
	config.CORSOrigins = make([]string, 0, len(originsList))
	for _, origin := range originsList {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			config.CORSOrigins = append(config.CORSOrigins, trimmed)
		}
	}

	// Valider les configurations critiques
	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET est requis")
	}
	if config.StorageDriver != "mongo" && config.StorageDriver != "memory" {
		return nil, fmt.Errorf("STORAGE_DRIVER invalide: %s (mongo ou memory)", config.StorageDriver)
	}
	if _, err := time.LoadLocation(config.Timezone); err != nil {
		return nil, fmt.Errorf("TIMEZONE invalide: %w", err)
	}

	return config, nil
}

// getEnv récupère une variable d'environnement avec une valeur par défaut
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s doit être un entier: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s doit être une durée (ex: 24h): %w", key, err)
	}
	return d, nil
}
