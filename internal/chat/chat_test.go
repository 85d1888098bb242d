package chat

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
	store := session.NewMemStore(&session.Session{Token: "tok"})
	return NewService(api.NewClient(srv.URL, store))
}

func TestSend(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"id":"m1","ticketId":"T-9","sender":"user","text":"any update?"}`))
	})

	msg, err := svc.Send(context.Background(), "T-9", "any update?")
	if err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if gotPath != "/chat/T-9/messages" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["text"] != "any update?" {
		t.Errorf("body = %v", gotBody)
	}
	if msg.ID != "m1" || msg.TicketID != "T-9" {
		t.Errorf("message = %+v", msg)
	}
}

func TestHistory(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s", r.Method)
		}
		w.Write([]byte(`[{"id":"m1","text":"hi"},{"id":"m2","text":"hello"}]`))
	})

	messages, err := svc.History(context.Background(), "T-9")
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(messages) != 2 || messages[1].Text != "hello" {
		t.Errorf("messages = %+v", messages)
	}
}

func TestMarkRead(t *testing.T) {
	var gotMethod, gotPath string
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
	})

	if err := svc.MarkRead(context.Background(), "T-9"); err != nil {
		t.Fatalf("MarkRead() failed: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/chat/T-9/read" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
}

func TestSend_FailuresPropagate(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	if _, err := svc.Send(context.Background(), "T-9", "x"); !errors.Is(err, api.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestTypingStatus_FailsSoft(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	state := svc.TypingStatus(context.Background(), "T-9")
	if state.Typing || state.TicketID != "T-9" {
		t.Errorf("state = %+v, want zero value tagged with the ticket", state)
	}
}

func TestTypingStatus_Success(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ticketId":"T-9","typing":true,"by":"support"}`))
	})

	state := svc.TypingStatus(context.Background(), "T-9")
	if !state.Typing || state.By != "support" {
		t.Errorf("state = %+v", state)
	}
}
