package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		storage    string
		ping       func() error
		wantCode   int
		wantStatus string
		wantDB     string
	}{
		{"mémoire", "memory", nil, http.StatusOK, "ok", "ok"},
		{"mongo joignable", "mongo", func() error { return nil }, http.StatusOK, "ok", "ok"},
		{"mongo injoignable", "mongo", func() error { return errors.New("injoignable") }, http.StatusServiceUnavailable, "degraded", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			NewHealthHandler("test", tt.storage, tt.ping).Health(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			if rr.Code != tt.wantCode {
				t.Errorf("Code = %d, attendu %d", rr.Code, tt.wantCode)
			}

			var body map[string]interface{}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("corps JSON invalide: %v", err)
			}
			if body["status"] != tt.wantStatus || body["db_status"] != tt.wantDB || body["storage"] != tt.storage {
				t.Errorf("corps = %v", body)
			}
			for _, key := range []string{"env", "uptime", "go_version"} {
				if _, ok := body[key]; !ok {
					t.Errorf("clé %q absente", key)
				}
			}
		})
	}
}
