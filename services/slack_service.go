package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"
)

const slackFooter = "Event Check-in - Backend"

// SlackService envoie les alertes d'exploitation sur un webhook Slack.
// Un SlackService nil ou sans webhook ne fait rien.
type SlackService struct {
	webhookURL string
	client     *http.Client
}

// SlackMessage représente un message Slack
type SlackMessage struct {
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment représente une pièce jointe Slack
type Attachment struct {
	Color     string  `json:"color,omitempty"`
	Title     string  `json:"title,omitempty"`
	Text      string  `json:"text,omitempty"`
	Fields    []Field `json:"fields,omitempty"`
	Timestamp int64   `json:"ts,omitempty"`
	Footer    string  `json:"footer,omitempty"`
}

// Field représente un champ dans une pièce jointe Slack
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// NewSlackService crée une nouvelle instance de SlackService
func NewSlackService(webhookURL string) *SlackService {
	if webhookURL == "" {
		log.Println("⚠️  Slack webhook URL non configuré - notifications Slack désactivées")
	}

	return &SlackService{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Enabled indique si un webhook est configuré
func (s *SlackService) Enabled() bool {
	return s != nil && s.webhookURL != ""
}

// SendCriticalError signale une réponse 5xx ; les champs vides sont omis
func (s *SlackService) SendCriticalError(method, path, statusCode, errorMessage, requestID, userAgent string) {
	attachment := Attachment{
		Color: "danger",
		Title: "🚨 Erreur serveur: Erreur Critique",
		Text:  errorMessage,
		Fields: []Field{
			{Title: "Méthode", Value: method, Short: true},
			{Title: "Status Code", Value: statusCode, Short: true},
			{Title: "Chemin", Value: path},
		},
	}
	if requestID != "" {
		attachment.Fields = append(attachment.Fields, Field{Title: "Request ID", Value: requestID, Short: true})
	}
	if userAgent != "" {
		attachment.Fields = append(attachment.Fields, Field{Title: "User-Agent", Value: userAgent})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.send(ctx, attachment); err != nil {
		log.Printf("❌ Erreur lors de l'envoi de la notification Slack: %v", err)
		return
	}
	log.Printf("✓ Notification Slack envoyée pour l'erreur: %s %s", method, path)
}

// SendDeliveryFailures signale un passage de relance où aucun email n'est parti
func (s *SlackService) SendDeliveryFailures(ctx context.Context, failed, maxAttempts int) error {
	return s.send(ctx, Attachment{
		Color: "warning",
		Title: "📧 Emails de confirmation en échec",
		Text:  "Aucun email n'a pu être renvoyé : vérifier le serveur SMTP.",
		Fields: []Field{
			{Title: "Échecs", Value: strconv.Itoa(failed), Short: true},
			{Title: "Tentatives max", Value: strconv.Itoa(maxAttempts), Short: true},
		},
	})
}

func (s *SlackService) send(ctx context.Context, attachment Attachment) error {
	if !s.Enabled() {
		return nil
	}

	attachment.Timestamp = time.Now().Unix()
	attachment.Footer = slackFooter

	jsonData, err := json.Marshal(SlackMessage{Attachments: []Attachment{attachment}})
	if err != nil {
		return fmt.Errorf("erreur lors de la sérialisation du message Slack: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("erreur lors de la création de la requête: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("erreur lors de l'envoi à Slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Slack a retourné un code d'erreur: %d", resp.StatusCode)
	}
	return nil
}
