package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"event-checkin-backend/models"
	"event-checkin-backend/utils"
)

// Libellés des champs injectés à la création d'un groupe
const (
	DefaultNameLabel  = "Full Name"
	DefaultEmailLabel = "Email"
)

// emailKey est la clé de formulaire reconnue pour l'email, sans tenir compte de la casse
const emailKey = "email"

// InferFieldRole devine le rôle d'un champ à partir de son libellé (anglais ou arabe).
// Utilisé uniquement à la saisie du formulaire et par la migration, jamais à la validation.
func InferFieldRole(label string) models.FieldRole {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "email"), strings.Contains(l, "بريد"):
		return models.FieldRoleEmail
	case strings.Contains(l, "name"), strings.Contains(l, "اسم"):
		return models.FieldRoleName
	}
	return models.FieldRoleGeneric
}

// AssignMissingRoles attribue un rôle aux champs enregistrés sans rôle (anciens formulaires).
// Un seul champ reçoit le rôle email ; changed indique si le formulaire a été modifié.
func AssignMissingRoles(fields []models.FieldDefinition) (out []models.FieldDefinition, changed bool) {
	out = make([]models.FieldDefinition, len(fields))
	copy(out, fields)

	hasEmail := findRole(out, models.FieldRoleEmail) >= 0
	for i := range out {
		if out[i].Role != "" {
			continue
		}
		role := InferFieldRole(out[i].Label)
		if role == models.FieldRoleEmail {
			if hasEmail {
				role = models.FieldRoleGeneric
			}
			hasEmail = true
		}
		out[i].Role = role
		changed = true
	}
	return out, changed
}

// PrepareNewGroupFields prépare le formulaire d'un nouveau groupe.
// Injecte "Full Name" en position 0 et "Email" en position 1 s'ils manquent,
// puis rend obligatoires tous les champs Nom et Email.
func PrepareNewGroupFields(fields []models.FieldDefinition) ([]models.FieldDefinition, error) {
	out, err := normalizeFields(fields)
	if err != nil {
		return nil, err
	}

	if findRole(out, models.FieldRoleName) < 0 {
		nameField := models.FieldDefinition{
			Label:    DefaultNameLabel,
			Type:     models.FieldTypeText,
			Required: true,
			Role:     models.FieldRoleName,
		}
		out = insertField(out, 0, nameField)
	}

	if findRole(out, models.FieldRoleEmail) < 0 {
		emailField := models.FieldDefinition{
			Label:    DefaultEmailLabel,
			Type:     models.FieldTypeText,
			Required: true,
			Role:     models.FieldRoleEmail,
		}
		out = insertField(out, 1, emailField)
	}

	for i := range out {
		if out[i].Role == models.FieldRoleName || out[i].Role == models.FieldRoleEmail {
			out[i].Required = true
		}
	}

	if err := checkUniqueLabels(out); err != nil {
		return nil, err
	}

	return out, nil
}

// ValidateGroupFieldsUpdate valide un nouveau formulaire pour un groupe existant.
// Aucune injection : un formulaire sans champ Nom ou Email obligatoire est rejeté.
func ValidateGroupFieldsUpdate(fields []models.FieldDefinition) ([]models.FieldDefinition, error) {
	out, err := normalizeFields(fields)
	if err != nil {
		return nil, err
	}

	var missing []models.FieldRole
	if !hasRequiredRole(out, models.FieldRoleName) {
		missing = append(missing, models.FieldRoleName)
	}
	if !hasRequiredRole(out, models.FieldRoleEmail) {
		missing = append(missing, models.FieldRoleEmail)
	}
	if len(missing) > 0 {
		return nil, &StructuralSchemaError{MissingRoles: missing}
	}

	return out, nil
}

// ValidateSubmission valide une soumission contre le formulaire du groupe.
// Retourne les données normalisées (libellés du formulaire uniquement) et l'email extrait.
func ValidateSubmission(fields []models.FieldDefinition, formData map[string]string) (map[string]string, string, error) {
	emailIdx := findRole(fields, models.FieldRoleEmail)

	// 1. Email
	email := extractEmail(formData)
	if email == "" && emailIdx >= 0 {
		email = strings.TrimSpace(formData[fields[emailIdx].Label])
	}
	if email == "" {
		return nil, "", ErrMissingEmail
	}
	email = strings.ToLower(email)

	// 2. Champs obligatoires, par libellé exact
	values := make(map[string]string, len(fields))
	for i, f := range fields {
		v := strings.TrimSpace(formData[f.Label])
		if i == emailIdx {
			v = email
		}
		if f.Required && v == "" {
			return nil, "", utils.ValidationError{Field: f.Label, Message: "ce champ est requis"}
		}
		values[f.Label] = v
	}

	// 3. Contrôles par type
	for _, f := range fields {
		v := values[f.Label]
		if v == "" {
			continue
		}
		switch f.Type {
		case models.FieldTypeNumber:
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return nil, "", utils.ValidationError{Field: f.Label, Message: "doit être un nombre"}
			}
		case models.FieldTypeSelect:
			if !containsString(f.Options, v) {
				return nil, "", utils.ValidationError{Field: f.Label, Message: "option non proposée"}
			}
		}
	}

	if err := utils.ValidateEmail(email); err != nil {
		field := emailKey
		if emailIdx >= 0 {
			field = fields[emailIdx].Label
		}
		return nil, "", utils.ValidationError{Field: field, Message: "format d'email invalide"}
	}

	normalized := make(map[string]string, len(values)+1)
	for label, v := range values {
		if v != "" {
			normalized[label] = v
		}
	}
	if emailIdx < 0 {
		normalized[emailKey] = email
	}

	return normalized, email, nil
}

// extractEmail cherche la clé "email" sans tenir compte de la casse.
// La clé exacte "email" est prioritaire, puis l'ordre lexicographique des clés.
func extractEmail(formData map[string]string) string {
	if v := strings.TrimSpace(formData[emailKey]); v != "" {
		return v
	}

	keys := make([]string, 0, len(formData))
	for k := range formData {
		if strings.EqualFold(strings.TrimSpace(k), emailKey) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		if v := strings.TrimSpace(formData[k]); v != "" {
			return v
		}
	}
	return ""
}

// normalizeFields vérifie et nettoie une liste de champs. Ne modifie pas l'entrée.
func normalizeFields(fields []models.FieldDefinition) ([]models.FieldDefinition, error) {
	out := make([]models.FieldDefinition, 0, len(fields)+2)
	emailCount := 0

	for _, f := range fields {
		f.Label = strings.TrimSpace(f.Label)
		if f.Label == "" {
			return nil, utils.ValidationError{Field: "fields", Message: "chaque champ doit avoir un libellé"}
		}

		if f.Type == "" {
			f.Type = models.FieldTypeText
		}
		if !f.Type.Valid() {
			return nil, utils.ValidationError{Field: f.Label, Message: fmt.Sprintf("type de champ inconnu: %s", f.Type)}
		}

		if f.Type == models.FieldTypeSelect {
			opts := make([]string, 0, len(f.Options))
			for _, o := range f.Options {
				if o = strings.TrimSpace(o); o != "" {
					opts = append(opts, o)
				}
			}
			if len(opts) == 0 {
				return nil, utils.ValidationError{Field: f.Label, Message: "une liste de choix doit proposer au moins une option"}
			}
			f.Options = opts
		} else {
			f.Options = nil
		}

		switch f.Role {
		case "":
			f.Role = InferFieldRole(f.Label)
		case models.FieldRoleGeneric:
			// Les libellés par défaut restent attachés à leur rôle
			if role, reserved := reservedLabelRole(f.Label); reserved {
				return nil, utils.ValidationError{Field: f.Label, Message: fmt.Sprintf("ce libellé est réservé au rôle %s", role)}
			}
		case models.FieldRoleName, models.FieldRoleEmail:
		default:
			return nil, utils.ValidationError{Field: f.Label, Message: fmt.Sprintf("rôle de champ inconnu: %s", f.Role)}
		}

		if f.Role == models.FieldRoleEmail {
			emailCount++
			if emailCount > 1 {
				return nil, utils.ValidationError{Field: f.Label, Message: "un seul champ email est autorisé"}
			}
		}

		out = append(out, f)
	}

	if err := checkUniqueLabels(out); err != nil {
		return nil, err
	}

	return out, nil
}

func reservedLabelRole(label string) (models.FieldRole, bool) {
	switch {
	case strings.EqualFold(label, DefaultNameLabel):
		return models.FieldRoleName, true
	case strings.EqualFold(label, DefaultEmailLabel):
		return models.FieldRoleEmail, true
	}
	return "", false
}

func checkUniqueLabels(fields []models.FieldDefinition) error {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Label] {
			return utils.ValidationError{Field: f.Label, Message: "libellé en double"}
		}
		seen[f.Label] = true
	}
	return nil
}

func findRole(fields []models.FieldDefinition, role models.FieldRole) int {
	for i, f := range fields {
		if f.Role == role {
			return i
		}
	}
	return -1
}

func hasRequiredRole(fields []models.FieldDefinition, role models.FieldRole) bool {
	for _, f := range fields {
		if f.Role == role && f.Required {
			return true
		}
	}
	return false
}

func insertField(fields []models.FieldDefinition, at int, f models.FieldDefinition) []models.FieldDefinition {
	if at > len(fields) {
		at = len(fields)
	}
	fields = append(fields, models.FieldDefinition{})
	copy(fields[at+1:], fields[at:])
	fields[at] = f
	return fields
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
