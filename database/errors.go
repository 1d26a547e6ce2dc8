package database

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// Erreurs de stockage partagées par les implémentations Mongo et mémoire
var (
	ErrDuplicateToken = errors.New("token d'inscription déjà utilisé")
	ErrGroupFull      = errors.New("plus aucune place dans ce groupe")
	ErrDuplicateEmail = errors.New("cet email est déjà utilisé")
	ErrSlugTaken      = errors.New("ce slug est déjà utilisé")
	ErrNotFound       = errors.New("document introuvable")
	ErrGroupNameTaken = errors.New("un groupe porte déjà ce nom dans cet événement")
)

// isDuplicateOn indique si err est une violation d'unicité sur l'index nommé
func isDuplicateOn(err error, indexName string) bool {
	if !mongo.IsDuplicateKeyError(err) {
		return false
	}
	return strings.Contains(err.Error(), indexName)
}

// ErrAlreadyCheckedIn est retournée avec l'inscription déjà enregistrée
var ErrAlreadyCheckedIn = errors.New("inscription déjà enregistrée à l'entrée")
