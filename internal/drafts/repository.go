package drafts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("draft not found")

// Draft is a locally stored filing payload pending submission.
type Draft struct {
	ID          string         `json:"id"`
	ServiceSlug string         `json:"serviceSlug"`
	Payload     map[string]any `json:"payload"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Save stores a new draft, or replaces an existing one when draft.ID is set.
func (r *Repository) Save(ctx context.Context, draft *Draft) error {
	now := time.Now().UTC()
	if draft.ID == "" {
		draft.ID = uuid.NewString()
		draft.CreatedAt = now
	}
	draft.UpdatedAt = now

	payload, err := json.Marshal(draft.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode draft payload: %w", err)
	}

	query := `
		INSERT INTO drafts (id, service_slug, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			service_slug = excluded.service_slug,
			payload = excluded.payload,
			updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, draft.ID, draft.ServiceSlug, string(payload), draft.CreatedAt, draft.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Get returns the draft with the given id or ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (*Draft, error) {
	query := `
		SELECT id, service_slug, payload, created_at, updated_at
		FROM drafts
		WHERE id = ?`

	row := r.db.DB.QueryRowContext(ctx, query, id)

	draft, err := scanDraft(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return draft, nil
}

// List returns all drafts, most recently updated first. A non-empty slug
// restricts the result to one service.
func (r *Repository) List(ctx context.Context, slug string) ([]*Draft, error) {
	query := `
		SELECT id, service_slug, payload, created_at, updated_at
		FROM drafts`
	args := []any{}
	if slug != "" {
		query += ` WHERE service_slug = ?`
		args = append(args, slug)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*Draft
	for rows.Next() {
		draft, err := scanDraft(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		drafts = append(drafts, draft)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate drafts: %w", err)
	}
	return drafts, nil
}

// Delete removes the draft with the given id. Deleting a missing draft
// returns ErrNotFound.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDraft(scan func(dest ...any) error) (*Draft, error) {
	var (
		draft   Draft
		payload string
	)
	if err := scan(&draft.ID, &draft.ServiceSlug, &payload, &draft.CreatedAt, &draft.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &draft.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode draft payload: %w", err)
	}
	return &draft, nil
}
