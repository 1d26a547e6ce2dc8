package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"event-checkin-backend/models"
)

// Rejets définitifs renvoyés à l'appelant
var (
	ErrEventNotFound        = errors.New("événement introuvable")
	ErrGroupNotFound        = errors.New("groupe introuvable")
	ErrRegistrationNotFound = errors.New("inscription introuvable")
	ErrGroupClosed          = errors.New("les inscriptions sont fermées pour ce groupe")
	ErrCapacityExceeded     = errors.New("ce groupe est complet")
	ErrMissingEmail         = errors.New("un email est requis pour s'inscrire")
	ErrGroupNameTaken       = errors.New("un groupe porte déjà ce nom dans cet événement")
	ErrEmailTaken           = errors.New("cet email est déjà utilisé")
	ErrInvalidCredentials   = errors.New("email ou mot de passe incorrect")

	// ErrTokenExhausted signale des collisions de token répétées : erreur interne, pas un rejet utilisateur
	ErrTokenExhausted = errors.New("impossible de générer un token unique")
)

// StructuralSchemaError rejette une modification de formulaire qui perd un champ Nom ou Email obligatoire
type StructuralSchemaError struct {
	MissingRoles []models.FieldRole
}

func (e *StructuralSchemaError) Error() string {
	roles := make([]string, len(e.MissingRoles))
	for i, r := range e.MissingRoles {
		roles[i] = string(r)
	}
	return fmt.Sprintf("le formulaire doit contenir un champ obligatoire pour: %s", strings.Join(roles, ", "))
}

// AlreadyCheckedInError est un résultat attendu : l'entrée a déjà été enregistrée à CheckedInAt
type AlreadyCheckedInError struct {
	Registration *models.Registration
	CheckedInAt  time.Time
}

func (e *AlreadyCheckedInError) Error() string {
	return fmt.Sprintf("entrée déjà enregistrée le %s", e.CheckedInAt.Format(time.RFC3339))
}
