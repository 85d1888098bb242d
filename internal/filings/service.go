package filings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"filedesk/internal/api"
	"filedesk/internal/catalog"
	"filedesk/internal/session"
)

// Service wraps the envelope client with the marketplace's submission and
// auth operations. All mutating calls and critical reads fail loud; the
// caller owns user-facing messaging.
type Service struct {
	client   *api.Client
	sessions session.Store

	fanoutConcurrency int
	fanoutTimeout     time.Duration
	fanoutBudget      time.Duration
}

// FanoutOptions bound the aggregated fetch. Zero fields fall back to
// defaults.
type FanoutOptions struct {
	Concurrency       int
	PerRequestTimeout time.Duration
	Budget            time.Duration
}

// NewService creates the filings service. The session store is the same
// one injected into the envelope client; login and logout write it here.
func NewService(client *api.Client, sessions session.Store, opts FanoutOptions) *Service {
	s := &Service{
		client:            client,
		sessions:          sessions,
		fanoutConcurrency: opts.Concurrency,
		fanoutTimeout:     opts.PerRequestTimeout,
		fanoutBudget:      opts.Budget,
	}
	if s.fanoutConcurrency <= 0 {
		s.fanoutConcurrency = 8
	}
	if s.fanoutTimeout <= 0 {
		s.fanoutTimeout = 15 * time.Second
	}
	if s.fanoutBudget <= 0 {
		s.fanoutBudget = 45 * time.Second
	}
	return s
}

// Login authenticates, normalizes the response into a canonical session
// and persists it. The duck-typed token lookup happens here, once; every
// later request reads the single canonical token field.
func (s *Service) Login(ctx context.Context, email, password string) (*session.Session, error) {
	raw, err := s.client.Post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return s.saveSession(raw)
}

// Signup registers a new account. When the response carries a token the
// session is persisted immediately; some deployments return only the created
// profile, in which case a nil session is returned and the caller logs in
// separately.
func (s *Service) Signup(ctx context.Context, profile map[string]any) (*session.Session, error) {
	raw, err := s.client.Post(ctx, "/auth/signup", profile)
	if err != nil {
		return nil, err
	}
	var resp map[string]any
	if err := api.DecodeInto(raw, &resp); err != nil {
		return nil, err
	}
	sess, err := session.Normalize(resp)
	if err != nil {
		return nil, nil
	}
	if err := s.sessions.Save(sess); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	return sess, nil
}

func (s *Service) saveSession(raw json.RawMessage) (*session.Session, error) {
	var resp map[string]any
	if err := api.DecodeInto(raw, &resp); err != nil {
		return nil, err
	}
	sess, err := session.Normalize(resp)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(sess); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	return sess, nil
}

// Logout destroys the persisted session.
func (s *Service) Logout() error {
	return s.sessions.Clear()
}

// Apply submits a filing to the named service's store and returns the
// created record. Payload validation is the caller's job, matching the
// backend contract.
func (s *Service) Apply(ctx context.Context, slug string, payload map[string]any) (Record, error) {
	svc, ok := catalog.BySlug(slug)
	if !ok {
		return nil, fmt.Errorf("unknown service %q", slug)
	}
	raw, err := s.client.Post(ctx, svc.ApplyPath(), payload)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := api.DecodeInto(raw, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ApplyGeneric submits to the cross-service store.
func (s *Service) ApplyGeneric(ctx context.Context, payload map[string]any) (Record, error) {
	raw, err := s.client.Post(ctx, "/services/apply", payload)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := api.DecodeInto(raw, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateStatus moves one submission to a new status.
func (s *Service) UpdateStatus(ctx context.Context, slug, id, status string) error {
	svc, ok := catalog.BySlug(slug)
	if !ok {
		return fmt.Errorf("unknown service %q", slug)
	}
	_, err := s.client.Put(ctx, svc.StatusPath(id), map[string]string{"status": status})
	return err
}

// MyRequests fetches the generic store's records for one user, unfiltered.
// The aggregated view in Applications is usually what callers want.
func (s *Service) MyRequests(ctx context.Context, email string) ([]Record, error) {
	raw, err := s.client.Get(ctx, "/services/my-requests?email="+url.QueryEscape(email))
	if err != nil {
		return nil, err
	}
	return decodeRecords(raw)
}

// ServiceApplications fetches one specialized store's records for a user.
func (s *Service) ServiceApplications(ctx context.Context, svc catalog.Service, email string) ([]Record, error) {
	raw, err := s.client.Get(ctx, svc.ApplicationsPath(email))
	if err != nil {
		return nil, err
	}
	return decodeRecords(raw)
}

// decodeRecords interprets a store payload as an array of records. A body
// that is valid JSON but not an array contributes zero records rather than
// an error; stores under migration have been seen returning objects.
func decodeRecords(raw json.RawMessage) ([]Record, error) {
	if raw == nil {
		return nil, nil
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, nil
	}
	return records, nil
}
