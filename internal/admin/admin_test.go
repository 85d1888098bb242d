package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"filedesk/internal/api"
	"filedesk/internal/session"
)

func newService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store := session.NewMemStore(&session.Session{Token: "tok", User: session.User{Role: "admin"}})
	return NewService(api.NewClient(srv.URL, store))
}

func TestStats_FailsSoftToZero(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	stats := svc.Stats(context.Background())
	if stats.TotalUsers != 0 || stats.TotalSubmissions != 0 {
		t.Errorf("stats = %+v, want zero values on failure", stats)
	}
}

func TestStats_Success(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"totalUsers":12,"totalSubmissions":88,"pendingReview":7,"byStatus":{"PENDING":7}}`))
	})

	stats := svc.Stats(context.Background())
	if stats.TotalSubmissions != 88 || stats.ByStatus["PENDING"] != 7 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestLogs_FailLoud(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	if _, err := svc.Logs(context.Background(), 50); !errors.Is(err, api.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestLogs_PassesLimit(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "25" {
			t.Errorf("limit = %q", got)
		}
		w.Write([]byte(`[{"id":"l1","actor":"admin","action":"status.update"}]`))
	})

	entries, err := svc.Logs(context.Background(), 25)
	if err != nil {
		t.Fatalf("Logs() failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "status.update" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestSettings_RoundTrip(t *testing.T) {
	var gotMethod string
	var gotBody Settings
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"maintenanceMode":true,"supportEmail":"help@x.com"}`))
		case http.MethodPut:
			json.NewDecoder(r.Body).Decode(&gotBody)
		}
	})

	settings, err := svc.Settings(context.Background())
	if err != nil {
		t.Fatalf("Settings() failed: %v", err)
	}
	if !settings.MaintenanceMode || settings.SupportEmail != "help@x.com" {
		t.Errorf("settings = %+v", settings)
	}

	settings.MaintenanceMode = false
	if err := svc.UpdateSettings(context.Background(), *settings); err != nil {
		t.Fatalf("UpdateSettings() failed: %v", err)
	}
	if gotMethod != http.MethodPut || gotBody.SupportEmail != "help@x.com" {
		t.Errorf("update = %s %+v", gotMethod, gotBody)
	}
}

func TestNotifications_FailsSoftToEmpty(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if notices := svc.Notifications(context.Background()); len(notices) != 0 {
		t.Errorf("notices = %+v, want empty on failure", notices)
	}
}
