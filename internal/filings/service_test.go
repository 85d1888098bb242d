package filings

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

func newServiceWithHandler(t *testing.T, handler http.HandlerFunc) (*Service, session.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store := session.NewMemStore(nil)
	client := api.NewClient(srv.URL, store)
	return NewService(client, store, FanoutOptions{}), store
}

func TestLogin_NormalizesAndPersistsSession(t *testing.T) {
	svc, store := newServiceWithHandler(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			http.NotFound(w, r)
			return
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "a@b.com" || body["password"] != "secret" {
			t.Errorf("login body = %v", body)
		}
		// Backend uses a non-canonical token field.
		w.Write([]byte(`{"accessToken":"abc","user":{"id":"u1","name":"Asha","email":"a@b.com","role":"user"}}`))
	})

	sess, err := svc.Login(context.Background(), "a@b.com", "secret")
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if sess.Token != "abc" {
		t.Errorf("Token = %q, want normalized accessToken", sess.Token)
	}

	persisted, err := store.Current()
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if persisted.Token != "abc" || persisted.User.Email != "a@b.com" {
		t.Errorf("persisted session = %+v", persisted)
	}
}

func TestLogin_BadCredentialsPropagate(t *testing.T) {
	svc, store := newServiceWithHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"wrong password"}`))
	})

	_, err := svc.Login(context.Background(), "a@b.com", "nope")
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if _, err := store.Current(); err != session.ErrNoSession {
		t.Error("failed login must not persist a session")
	}
}

func TestSignup_TokenlessResponseCreatesNoSession(t *testing.T) {
	svc, store := newServiceWithHandler(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/signup" {
			http.NotFound(w, r)
			return
		}
		// Some deployments return only the created profile.
		w.Write([]byte(`{"id":"u2","email":"new@b.com"}`))
	})

	sess, err := svc.Signup(context.Background(), map[string]any{"email": "new@b.com", "password": "pw"})
	if err != nil {
		t.Fatalf("Signup() failed: %v", err)
	}
	if sess != nil {
		t.Errorf("sess = %+v, want nil for token-less response", sess)
	}
	if _, err := store.Current(); err != session.ErrNoSession {
		t.Error("token-less signup must not persist a session")
	}
}

func TestSignup_TokenResponsePersistsSession(t *testing.T) {
	svc, store := newServiceWithHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"xyz","user":{"email":"new@b.com"}}`))
	})

	sess, err := svc.Signup(context.Background(), map[string]any{"email": "new@b.com", "password": "pw"})
	if err != nil {
		t.Fatalf("Signup() failed: %v", err)
	}
	if sess == nil || sess.Token != "xyz" {
		t.Fatalf("sess = %+v, want token xyz", sess)
	}
	if persisted, err := store.Current(); err != nil || persisted.Token != "xyz" {
		t.Errorf("persisted = %+v, err = %v", persisted, err)
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	svc, store := newServiceWithHandler(t, func(w http.ResponseWriter, r *http.Request) {})
	store.Save(&session.Session{Token: "tok"})

	if err := svc.Logout(); err != nil {
		t.Fatalf("Logout() failed: %v", err)
	}
	if _, err := store.Current(); err != session.ErrNoSession {
		t.Error("session still present after Logout()")
	}
}

func TestApply_PostsToServicePath(t *testing.T) {
	var gotPath string
	svc, _ := newServiceWithHandler(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"submissionId":"FSSAI-77","status":"INITIATED"}`))
	})

	rec, err := svc.Apply(context.Background(), "fssai", map[string]any{"businessName": "Chai Point"})
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if gotPath != "/fssai/apply" {
		t.Errorf("path = %q, want /fssai/apply", gotPath)
	}
	if rec.ID() != "FSSAI-77" || rec.Status() != "INITIATED" {
		t.Errorf("record = %v", rec)
	}
}

func TestApply_UnknownSlug(t *testing.T) {
	svc, _ := newServiceWithHandler(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for unknown slug")
	})

	if _, err := svc.Apply(context.Background(), "no-such-service", nil); err == nil {
		t.Error("Apply() expected error for unknown slug, got nil")
	}
}

func TestUpdateStatus_PutsStatusBody(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody map[string]string
	svc, _ := newServiceWithHandler(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
	})

	if err := svc.UpdateStatus(context.Background(), "pvt-ltd", "PVT-3", "COMPLETED"); err != nil {
		t.Fatalf("UpdateStatus() failed: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/service/pvt-ltd/PVT-3/status" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
	if gotBody["status"] != "COMPLETED" {
		t.Errorf("body = %v", gotBody)
	}
}

func TestMyRequests_DecodesArray(t *testing.T) {
	svc, _ := newServiceWithHandler(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("email"); got != "a@b.com" {
			t.Errorf("email query = %q", got)
		}
		w.Write([]byte(`[{"submissionId":"REQ-1"},{"submissionId":"REQ-2"}]`))
	})

	records, err := svc.MyRequests(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("MyRequests() failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("records = %v, want 2", records)
	}
}

func TestApplyGeneric_PostsToSharedStore(t *testing.T) {
	var gotPath string
	svc, _ := newServiceWithHandler(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"submissionId":"REQ-9"}`))
	})

	rec, err := svc.ApplyGeneric(context.Background(), map[string]any{"service": "Consultation"})
	if err != nil {
		t.Fatalf("ApplyGeneric() failed: %v", err)
	}
	if gotPath != "/services/apply" {
		t.Errorf("path = %q", gotPath)
	}
	if rec.ID() != "REQ-9" {
		t.Errorf("record = %v", rec)
	}
}
