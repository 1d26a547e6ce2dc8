package models

import (
	"fmt"
	"strings"
	"time"
)

// DisplayLocation est le fuseau utilisé pour lire et afficher les dates sans zone.
// Configuré au démarrage depuis TIMEZONE.
var DisplayLocation = time.UTC

// SetDisplayLocation charge le fuseau d'affichage; garde UTC si le nom est inconnu
func SetDisplayLocation(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("fuseau horaire invalide %q: %w", name, err)
	}
	DisplayLocation = loc
	return nil
}

// FlexibleTime gère plusieurs formats de dates
type FlexibleTime struct {
	time.Time
}

// UnmarshalJSON implémente le unmarshaler pour accepter plusieurs formats de dates
func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "null" || s == "" {
		ft.Time = time.Time{}
		return nil
	}

	// Les formats avec zone gardent leur zone, les autres sont lus dans DisplayLocation
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		ft.Time = parsed
		return nil
	}

	formats := []string{
		"2006-01-02T15:04:05", // "2025-12-31T20:00:00"
		"2006-01-02T15:04",    // "2025-12-31T20:00"
		"2006-01-02",          // "2025-12-31"
	}

	for _, layout := range formats {
		parsedTime, parseErr := time.ParseInLocation(layout, s, DisplayLocation)
		if parseErr == nil {
			ft.Time = parsedTime
			return nil
		}
	}

	return fmt.Errorf("format de date invalide: %s", s)
}

// MarshalJSON retourne la date dans le fuseau d'affichage (MongoDB stocke en UTC)
func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	if ft.Time.IsZero() {
		return []byte("null"), nil
	}

	local := ft.Time.In(DisplayLocation)

	// Format simple : YYYY-MM-DDTHH:MM:SS
	return []byte("\"" + local.Format("2006-01-02T15:04:05") + "\""), nil
}
