package models

// GroupStats représente les compteurs d'un groupe pour le tableau de bord
type GroupStats struct {
	GroupID       string `json:"group_id"`
	GroupName     string `json:"group_name"`
	Capacity      int    `json:"capacity"`
	IsOpen        bool   `json:"is_open"`
	Registrations int    `json:"registrations"`
	CheckedIn     int    `json:"checked_in"`
	Available     int    `json:"available"`
}

// EventAnalytics regroupe les statistiques d'un événement
type EventAnalytics struct {
	EventID       string       `json:"event_id"`
	Title         string       `json:"title"`
	Groups        []GroupStats `json:"groups"`
	Capacity      int          `json:"capacity"`
	Registrations int          `json:"registrations"`
	CheckedIn     int          `json:"checked_in"`
	Available     int          `json:"available"`
}
