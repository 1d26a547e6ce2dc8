// Package memory implémente les stores en mémoire, pour le mode local (STORAGE_DRIVER=memory)
// et les tests. Les documents sont copiés à l'entrée et à la sortie : un appelant
// ne modifie jamais l'état partagé.
package memory

import (
	"event-checkin-backend/models"
)

func copyEvent(e *models.Event) *models.Event {
	c := *e
	c.Groups = make([]models.StakeholderGroup, len(e.Groups))
	for i, g := range e.Groups {
		c.Groups[i] = copyGroup(g)
	}
	return &c
}

func copyGroup(g models.StakeholderGroup) models.StakeholderGroup {
	c := g
	c.Fields = make([]models.FieldDefinition, len(g.Fields))
	for i, f := range g.Fields {
		f.Options = append([]string(nil), f.Options...)
		c.Fields[i] = f
	}
	return c
}

func copyRegistration(r *models.Registration) *models.Registration {
	c := *r
	c.FormData = make(map[string]string, len(r.FormData))
	for k, v := range r.FormData {
		c.FormData[k] = v
	}
	if r.CheckedInAt != nil {
		at := *r.CheckedInAt
		c.CheckedInAt = &at
	}
	return &c
}
