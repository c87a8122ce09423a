// Package services contains the client's business logic layers.
// Services are called by handlers and background workers and reach the
// portal through the API client.
package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/aawaaz/grievance-portal/internal/client"
	"github.com/aawaaz/grievance-portal/internal/models"
)

// PortalAPI is the subset of the API client the services need
type PortalAPI interface {
	ListComplaints(ctx context.Context, filter client.ComplaintFilter) ([]models.Complaint, error)
	GetComplaint(ctx context.Context, id string) (models.Complaint, error)
	ListNotifications(ctx context.Context) ([]models.Notification, error)
	GetAnalytics(ctx context.Context) (models.Analytics, error)
}

// ComplaintService reads complaints, notifications and analytics
type ComplaintService struct {
	api    PortalAPI
	logger *zap.SugaredLogger
}

// NewComplaintService creates a new complaint service
func NewComplaintService(api PortalAPI, logger *zap.SugaredLogger) *ComplaintService {
	return &ComplaintService{api: api, logger: logger}
}

// List returns complaints matching filter, newest first
func (s *ComplaintService) List(ctx context.Context, filter client.ComplaintFilter) ([]models.Complaint, error) {
	complaints, err := s.api.ListComplaints(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	// ISO timestamps in UTC sort lexically
	sort.SliceStable(complaints, func(i, j int) bool {
		return complaints[i].CreatedAt > complaints[j].CreatedAt
	})
	s.logger.Debugw("Complaints fetched", "count", len(complaints), "status", filter.Status)
	return complaints, nil
}

// Get returns a single complaint
func (s *ComplaintService) Get(ctx context.Context, id string) (models.Complaint, error) {
	c, err := s.api.GetComplaint(ctx, id)
	if err != nil {
		return models.Complaint{}, fmt.Errorf("get complaint %s: %w", id, err)
	}
	return c, nil
}

// Notifications returns the user's notifications, optionally unread only
func (s *ComplaintService) Notifications(ctx context.Context, unreadOnly bool) ([]models.Notification, error) {
	notes, err := s.api.ListNotifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if !unreadOnly {
		return notes, nil
	}
	unread := make([]models.Notification, 0, len(notes))
	for _, n := range notes {
		if !n.IsRead {
			unread = append(unread, n)
		}
	}
	return unread, nil
}

// Analytics returns the analytics summary
func (s *ComplaintService) Analytics(ctx context.Context) (models.Analytics, error) {
	a, err := s.api.GetAnalytics(ctx)
	if err != nil {
		return models.Analytics{}, fmt.Errorf("get analytics: %w", err)
	}
	return a, nil
}
