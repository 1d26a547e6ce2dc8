package services

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// Renderer transforme un contenu scannable en image
type Renderer interface {
	Render(payload string) ([]byte, error)
}

// QRRenderer produit des PNG avec correction d'erreur moyenne
type QRRenderer struct {
	Size int
}

// NewQRRenderer crée un QRRenderer (256 px par défaut)
func NewQRRenderer(size int) *QRRenderer {
	if size <= 0 {
		size = 256
	}
	return &QRRenderer{Size: size}
}

// Render encode le contenu en PNG
func (r *QRRenderer) Render(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, r.Size)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la génération du QR code: %w", err)
	}
	return png, nil
}

// PNGDataURL encode une image PNG en data URL
func PNGDataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
