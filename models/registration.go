package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationStatus suit l'envoi de l'email contenant le QR code
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// Registration représente l'inscription d'un participant à un groupe d'un événement
type Registration struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EventID   primitive.ObjectID `json:"event_id" bson:"event_id"`
	GroupID   primitive.ObjectID `json:"group_id" bson:"group_id"`
	GroupName string             `json:"group_name" bson:"group_name"` // nom au moment de l'inscription, affichage uniquement
	FormData  map[string]string  `json:"form_data" bson:"form_data"`
	Token     string             `json:"token" bson:"token"`
	Email     string             `json:"email" bson:"email"`
	Language  string             `json:"language" bson:"language"`

	CheckedIn   bool       `json:"checked_in" bson:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty" bson:"checked_in_at,omitempty"`

	// Place occupée dans le groupe, unique par (event_id, group_id)
	Slot int `json:"-" bson:"slot"`

	NotificationStatus   NotificationStatus `json:"notification_status" bson:"notification_status"`
	NotificationAttempts int                `json:"-" bson:"notification_attempts"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// GroupCount regroupe les compteurs d'un groupe
type GroupCount struct {
	Registrations int `bson:"registrations"`
	CheckedIn     int `bson:"checked_in"`
}

// RegisterRequest représente une inscription publique
type RegisterRequest struct {
	EventSlug string            `json:"event_slug" validate:"required"`
	GroupName string            `json:"group_name" validate:"required"`
	FormData  map[string]string `json:"form_data"`
	Language  string            `json:"language" validate:"omitempty,oneof=en ar"`
}

// RegisterResponse est renvoyée après une inscription réussie
type RegisterResponse struct {
	Message           string `json:"message"`
	RegistrationID    string `json:"registration_id"`
	Token             string `json:"token"`
	QRCode            string `json:"qr_code"` // data URL PNG
	DeliveryConfirmed bool   `json:"delivery_confirmed"`
}

// CheckInRequest représente un scan de QR code.
// qr_code est accepté pour les anciens scanners.
type CheckInRequest struct {
	ScannedValue string `json:"scanned_value"`
	QRCode       string `json:"qr_code"`
}

// Value retourne la valeur scannée quel que soit le champ utilisé
func (r CheckInRequest) Value() string {
	if r.ScannedValue != "" {
		return r.ScannedValue
	}
	return r.QRCode
}

// UpdateRegistrationRequest représente une modification par le manager
type UpdateRegistrationRequest struct {
	FormData map[string]string `json:"form_data" validate:"required"`
}

// MassEmailRequest représente un envoi groupé aux inscrits.
// Body accepte les variables {name}, {groupName} et {eventTitle}.
type MassEmailRequest struct {
	Subject     string `json:"subject" validate:"required,max=200"`
	Body        string `json:"body" validate:"required"`
	GroupName   string `json:"group_name,omitempty"`
	CheckedIn   *bool  `json:"checked_in,omitempty"`
	SearchEmail string `json:"search_email,omitempty"`
}

// MassEmailResponse résume un envoi groupé
type MassEmailResponse struct {
	Recipients int `json:"recipients"`
	SentCount  int `json:"sent_count"`
	Failed     int `json:"failed"`
}
