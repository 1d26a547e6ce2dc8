package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldType est le type de contrôle d'un champ de formulaire
type FieldType string

const (
	FieldTypeText   FieldType = "text"
	FieldTypeNumber FieldType = "number"
	FieldTypeSelect FieldType = "select"
	FieldTypeFile   FieldType = "file"
)

// Valid indique si le type est connu
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeSelect, FieldTypeFile:
		return true
	}
	return false
}

// FieldRole est le rôle sémantique d'un champ, fixé à la création du formulaire
type FieldRole string

const (
	FieldRoleGeneric FieldRole = "generic"
	FieldRoleName    FieldRole = "name"
	FieldRoleEmail   FieldRole = "email"
)

// FieldDefinition représente un champ du formulaire d'un groupe
type FieldDefinition struct {
	Label    string    `json:"label" bson:"label" validate:"required"`
	Type     FieldType `json:"type" bson:"type"`
	Options  []string  `json:"options,omitempty" bson:"options,omitempty"`
	Required bool      `json:"required" bson:"required"`
	Role     FieldRole `json:"role,omitempty" bson:"role,omitempty"`
}

// StakeholderGroup représente une catégorie d'inscription (participant, intervenant...)
type StakeholderGroup struct {
	ID       primitive.ObjectID `json:"id" bson:"_id"`
	Name     string             `json:"name" bson:"name"`
	Capacity int                `json:"capacity" bson:"capacity"`
	IsOpen   bool               `json:"is_open" bson:"is_open"`
	Fields   []FieldDefinition  `json:"fields" bson:"fields"`
}

// Event représente un événement géré par un manager
type Event struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Slug        string             `json:"slug" bson:"slug"`
	Date        time.Time          `json:"date" bson:"date"`
	Location    string             `json:"location" bson:"location"`
	Description string             `json:"description" bson:"description"`
	Groups      []StakeholderGroup `json:"groups" bson:"groups"`
	ManagerID   primitive.ObjectID `json:"manager_id" bson:"manager_id"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// GroupByName retourne le groupe portant ce nom, ou nil
func (e *Event) GroupByName(name string) *StakeholderGroup {
	for i := range e.Groups {
		if e.Groups[i].Name == name {
			return &e.Groups[i]
		}
	}
	return nil
}

// GroupByID retourne le groupe avec cet identifiant, ou nil
func (e *Event) GroupByID(id primitive.ObjectID) *StakeholderGroup {
	for i := range e.Groups {
		if e.Groups[i].ID == id {
			return &e.Groups[i]
		}
	}
	return nil
}

// PublicEvent est la vue publique d'un événement (page d'inscription)
type PublicEvent struct {
	Title       string             `json:"title"`
	Slug        string             `json:"slug"`
	Date        FlexibleTime       `json:"date"`
	Location    string             `json:"location"`
	Description string             `json:"description"`
	Groups      []StakeholderGroup `json:"groups"`
}

// Public construit la vue publique de l'événement
func (e *Event) Public() PublicEvent {
	groups := e.Groups
	if groups == nil {
		groups = []StakeholderGroup{}
	}
	return PublicEvent{
		Title:       e.Title,
		Slug:        e.Slug,
		Date:        FlexibleTime{Time: e.Date},
		Location:    e.Location,
		Description: e.Description,
		Groups:      groups,
	}
}

// CreateEventRequest représente la requête de création d'événement
type CreateEventRequest struct {
	Title       string       `json:"title" validate:"required,max=200"`
	Date        FlexibleTime `json:"date"`
	Location    string       `json:"location"`
	Description string       `json:"description"`
}

// UpdateEventRequest représente la requête de modification d'événement
type UpdateEventRequest struct {
	Title       *string       `json:"title,omitempty" validate:"omitempty,max=200"`
	Date        *FlexibleTime `json:"date,omitempty"`
	Location    *string       `json:"location,omitempty"`
	Description *string       `json:"description,omitempty"`
}

// CreateGroupRequest représente la requête d'ajout d'un groupe
type CreateGroupRequest struct {
	Name     string            `json:"name" validate:"required,max=100"`
	Capacity int               `json:"capacity" validate:"gte=1"`
	Fields   []FieldDefinition `json:"fields" validate:"dive"`
}

// UpdateGroupRequest représente la requête de modification d'un groupe.
// Fields à nil laisse le formulaire inchangé.
type UpdateGroupRequest struct {
	Name     *string           `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Capacity *int              `json:"capacity,omitempty" validate:"omitempty,gte=1"`
	IsOpen   *bool             `json:"is_open,omitempty"`
	Fields   []FieldDefinition `json:"fields,omitempty" validate:"omitempty,dive"`
}

// MarshalJSON formate la date de l'événement dans le fuseau d'affichage
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event

	groups := e.Groups
	if groups == nil {
		groups = []StakeholderGroup{}
	}

	return json.Marshal(&struct {
		*Alias
		Date   FlexibleTime       `json:"date"`
		Groups []StakeholderGroup `json:"groups"`
	}{
		Alias:  (*Alias)(&e),
		Date:   FlexibleTime{Time: e.Date},
		Groups: groups,
	})
}
