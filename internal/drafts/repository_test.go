package drafts

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "drafts.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewRepository(db)
}

func TestRepositorySaveAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	draft := &Draft{
		ServiceSlug: "fssai",
		Payload:     map[string]any{"businessName": "Acme Foods", "email": "owner@acme.test"},
	}
	if err := repo.Save(ctx, draft); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if draft.ID == "" {
		t.Fatal("Save() did not assign an id")
	}
	if draft.CreatedAt.IsZero() || draft.UpdatedAt.IsZero() {
		t.Fatal("Save() did not set timestamps")
	}

	got, err := repo.Get(ctx, draft.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ServiceSlug != "fssai" {
		t.Errorf("ServiceSlug = %q, want %q", got.ServiceSlug, "fssai")
	}
	if got.Payload["businessName"] != "Acme Foods" {
		t.Errorf("Payload[businessName] = %v, want %q", got.Payload["businessName"], "Acme Foods")
	}
}

func TestRepositorySaveReplacesExisting(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	draft := &Draft{ServiceSlug: "gst-registration", Payload: map[string]any{"step": float64(1)}}
	if err := repo.Save(ctx, draft); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	draft.Payload["step"] = float64(2)
	if err := repo.Save(ctx, draft); err != nil {
		t.Fatalf("Save() update error = %v", err)
	}

	drafts, err := repo.List(ctx, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("List() returned %d drafts, want 1", len(drafts))
	}
	if drafts[0].Payload["step"] != float64(2) {
		t.Errorf("Payload[step] = %v, want 2", drafts[0].Payload["step"])
	}
}

func TestRepositoryListFiltersBySlug(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, slug := range []string{"fssai", "trade-license", "fssai"} {
		if err := repo.Save(ctx, &Draft{ServiceSlug: slug, Payload: map[string]any{}}); err != nil {
			t.Fatalf("Save(%q) error = %v", slug, err)
		}
	}

	drafts, err := repo.List(ctx, "fssai")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("List(fssai) returned %d drafts, want 2", len(drafts))
	}
	for _, d := range drafts {
		if d.ServiceSlug != "fssai" {
			t.Errorf("ServiceSlug = %q, want %q", d.ServiceSlug, "fssai")
		}
	}
}

func TestRepositoryDelete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	draft := &Draft{ServiceSlug: "opc", Payload: map[string]any{}}
	if err := repo.Save(ctx, draft); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := repo.Delete(ctx, draft.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, draft.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, draft.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() missing error = %v, want ErrNotFound", err)
	}
}
