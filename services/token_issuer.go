package services

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxTokenAttempts borne les régénérations après une collision de token
	MaxTokenAttempts = 3

	// PayloadVersion est la version du contenu encodé dans le QR code
	PayloadVersion = 1

	tokenAlphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
	tokenSuffixLength = 8
)

// TokenIssuer génère les tokens d'inscription
type TokenIssuer struct {
	now func() time.Time
}

// NewTokenIssuer crée un TokenIssuer basé sur l'horloge système
func NewTokenIssuer() *TokenIssuer {
	return &TokenIssuer{now: time.Now}
}

// Issue retourne un token : horodatage en millisecondes (base 36) suivi de 8 caractères aléatoires.
// L'unicité est garantie en dernier recours par l'index unique du stockage.
func (t *TokenIssuer) Issue() (string, error) {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(t.now().UnixMilli(), 36))

	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := 0; i < tokenSuffixLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(tokenAlphabet[n.Int64()])
	}

	return b.String(), nil
}

// QRPayload est le contenu canonique encodé dans le QR code
type QRPayload struct {
	Version int    `json:"v"`
	Token   string `json:"token"`
}

// EncodePayload produit le contenu scannable pour un token : {"v":1,"token":"..."}
func EncodePayload(token string) string {
	data, _ := json.Marshal(QRPayload{Version: PayloadVersion, Token: token})
	return string(data)
}
