// Package admin is the client for operations that require an elevated
// session: dashboard statistics, audit logs and marketplace settings.
package admin

import (
	"context"
	"fmt"
	"log"
	"time"

	"filedesk/internal/api"
)

// Stats is the admin dashboard summary. It feeds cosmetic widgets, so the
// read degrades to zero values on failure instead of breaking the
// dashboard.
type Stats struct {
	TotalUsers       int            `json:"totalUsers"`
	TotalSubmissions int            `json:"totalSubmissions"`
	PendingReview    int            `json:"pendingReview"`
	ByStatus         map[string]int `json:"byStatus"`
}

// LogEntry is one audit log line.
type LogEntry struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}

// Settings is the mutable marketplace configuration.
type Settings struct {
	MaintenanceMode  bool   `json:"maintenanceMode"`
	SupportEmail     string `json:"supportEmail"`
	MaxUploadBytes   int64  `json:"maxUploadBytes"`
	AnnouncementText string `json:"announcementText"`
}

// Notification is one user-facing notice rendered on the dashboard.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service issues admin calls through the shared envelope. Mutations and
// the audit log fail loud; Stats and Notifications fail soft.
type Service struct {
	client *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// Stats reads the dashboard summary, degrading to zero values on any
// failure.
func (s *Service) Stats(ctx context.Context) Stats {
	raw, err := s.client.Get(ctx, "/admin/stats")
	if err != nil {
		log.Printf("Admin: stats read failed: %v", err)
		return Stats{}
	}
	var stats Stats
	if err := api.DecodeInto(raw, &stats); err != nil {
		log.Printf("Admin: stats decode failed: %v", err)
		return Stats{}
	}
	return stats
}

// Logs fetches the newest audit entries, up to limit.
func (s *Service) Logs(ctx context.Context, limit int) ([]LogEntry, error) {
	raw, err := s.client.Get(ctx, fmt.Sprintf("/admin/logs?limit=%d", limit))
	if err != nil {
		return nil, err
	}
	var entries []LogEntry
	if err := api.DecodeInto(raw, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Settings reads the current marketplace settings.
func (s *Service) Settings(ctx context.Context) (*Settings, error) {
	raw, err := s.client.Get(ctx, "/admin/settings")
	if err != nil {
		return nil, err
	}
	var settings Settings
	if err := api.DecodeInto(raw, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings replaces the marketplace settings.
func (s *Service) UpdateSettings(ctx context.Context, settings Settings) error {
	_, err := s.client.Put(ctx, "/admin/settings", settings)
	return err
}

// Notifications reads the current user's notices, degrading to an empty
// list on failure so the widget renders regardless.
func (s *Service) Notifications(ctx context.Context) []Notification {
	raw, err := s.client.Get(ctx, "/admin/notifications")
	if err != nil {
		log.Printf("Admin: notifications read failed: %v", err)
		return nil
	}
	var notices []Notification
	if err := api.DecodeInto(raw, &notices); err != nil {
		log.Printf("Admin: notifications decode failed: %v", err)
		return nil
	}
	return notices
}
