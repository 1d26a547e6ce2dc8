package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"event-checkin-backend/database"
	"event-checkin-backend/models"
	"event-checkin-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthService gère les comptes managers et leurs sessions JWT
type AuthService struct {
	managers  ManagerStore
	jwtSecret string
	jwtExpiry time.Duration
}

// NewAuthService crée un AuthService
func NewAuthService(managers ManagerStore, jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{managers: managers, jwtSecret: jwtSecret, jwtExpiry: jwtExpiry}
}

// Signup crée un compte manager et ouvre sa session
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	manager := &models.Manager{
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Name:     strings.TrimSpace(req.Name),
		Password: hashedPassword,
	}
	if err := s.managers.Create(ctx, manager); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	log.Printf("✓ Nouveau manager inscrit: %s (ID: %s)", manager.Email, manager.ID.Hex())
	return s.session(manager)
}

// Login vérifie les identifiants ; email inconnu et mauvais mot de passe donnent la même erreur
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	manager, err := s.managers.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if manager == nil {
		return nil, ErrInvalidCredentials
	}

	if !utils.CheckPassword(manager.Password, req.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.session(manager)
}

// Me retourne le manager authentifié
func (s *AuthService) Me(ctx context.Context, managerID primitive.ObjectID) (*models.Manager, error) {
	manager, err := s.managers.FindByID(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if manager == nil {
		return nil, ErrInvalidCredentials
	}
	return manager, nil
}

func (s *AuthService) session(manager *models.Manager) (*models.AuthResponse, error) {
	token, err := utils.GenerateToken(manager.ID.Hex(), manager.Email, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la génération du token: %w", err)
	}
	return &models.AuthResponse{Token: token, Manager: *manager}, nil
}

// TokenTTL est la durée de validité des sessions
func (s *AuthService) TokenTTL() time.Duration {
	if s.jwtExpiry <= 0 {
		return 24 * time.Hour
	}
	return s.jwtExpiry
}
