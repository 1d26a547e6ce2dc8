package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSlackService_disabled(t *testing.T) {
	var nilService *SlackService
	if nilService.Enabled() {
		t.Error("un service nil ne doit pas être actif")
	}
	if err := nilService.SendDeliveryFailures(context.Background(), 3, 5); err != nil {
		t.Errorf("SendDeliveryFailures() sur service nil = %v", err)
	}
	if NewSlackService("").Enabled() {
		t.Error("un service sans webhook ne doit pas être actif")
	}
}

func TestSlackService_SendDeliveryFailures(t *testing.T) {
	var received SlackMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("corps invalide: %v", err)
		}
	}))
	defer server.Close()

	if err := NewSlackService(server.URL).SendDeliveryFailures(context.Background(), 7, 5); err != nil {
		t.Fatalf("SendDeliveryFailures() erreur = %v", err)
	}

	if len(received.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(received.Attachments))
	}
	a := received.Attachments[0]
	if a.Color != "warning" || a.Footer != slackFooter || a.Timestamp == 0 {
		t.Errorf("attachment = %+v", a)
	}
	if len(a.Fields) != 2 || a.Fields[0].Value != "7" || a.Fields[1].Value != "5" {
		t.Errorf("fields = %+v", a.Fields)
	}
}

func TestSlackService_webhookError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	if err := NewSlackService(server.URL).SendDeliveryFailures(context.Background(), 1, 1); err == nil {
		t.Error("SendDeliveryFailures() devrait échouer sur un 403")
	}
}
