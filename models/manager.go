package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Manager représente un organisateur d'événements
type Manager struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email     string             `json:"email" bson:"email"`
	Name      string             `json:"name" bson:"name"`
	Password  string             `json:"-" bson:"password"` // Le "-" empêche la sérialisation du hash
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// SignupRequest représente la requête de création de compte manager
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,max=100"`
}

// LoginRequest représente la requête de connexion
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse représente la réponse d'authentification
type AuthResponse struct {
	Token   string  `json:"token"`
	Manager Manager `json:"manager"`
}

// ErrorResponse représente une réponse d'erreur
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse représente une réponse de succès générique
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
