package models

import (
	"encoding/json"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFlexibleTime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"format ISO", `"2025-12-31T20:00:00"`, false},
		{"format court", `"2025-12-31T20:00"`, false},
		{"date seule", `"2025-12-31"`, false},
		{"RFC3339", `"2025-12-31T20:00:00Z"`, false},
		{"null", `null`, false},
		{"vide", `""`, false},
		{"invalide", `"invalid"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ft FlexibleTime
			err := json.Unmarshal([]byte(tt.input), &ft)
			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalJSON() erreur = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFlexibleTime_MarshalJSON(t *testing.T) {
	ft := FlexibleTime{Time: time.Date(2025, 12, 31, 20, 0, 0, 0, time.UTC)}
	data, err := json.Marshal(ft)
	if err != nil {
		t.Fatalf("MarshalJSON() erreur = %v", err)
	}
	if string(data) != `"2025-12-31T20:00:00"` {
		t.Errorf("MarshalJSON() = %s", data)
	}

	data, _ = json.Marshal(FlexibleTime{})
	if string(data) != "null" {
		t.Errorf("MarshalJSON() date vide = %s, attendu null", data)
	}
}

func TestEventGroupLookup(t *testing.T) {
	speakerID := primitive.NewObjectID()
	event := &Event{Groups: []StakeholderGroup{
		{ID: primitive.NewObjectID(), Name: "Attendee"},
		{ID: speakerID, Name: "Speaker"},
	}}

	if g := event.GroupByName("Speaker"); g == nil || g.ID != speakerID {
		t.Errorf("GroupByName(Speaker) = %+v", g)
	}
	if g := event.GroupByName("speaker"); g != nil {
		t.Error("GroupByName doit être sensible à la casse")
	}
	if g := event.GroupByID(speakerID); g == nil || g.Name != "Speaker" {
		t.Errorf("GroupByID = %+v", g)
	}

	// Le pointeur retourné modifie bien l'événement
	event.GroupByName("Attendee").IsOpen = true
	if !event.Groups[0].IsOpen {
		t.Error("GroupByName doit retourner un pointeur sur le groupe de l'événement")
	}
}

func TestEventMarshalJSON_groupsNeverNull(t *testing.T) {
	data, err := json.Marshal(Event{Title: "Conf"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := out["groups"].([]interface{}); !ok {
		t.Errorf("groups = %v, attendu un tableau", out["groups"])
	}
	if out["date"] != nil {
		t.Errorf("date = %v, attendu null", out["date"])
	}
}
