package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aawaaz/grievance-portal/internal/client"
	"github.com/aawaaz/grievance-portal/internal/models"
)

type fakeAPI struct {
	complaints []models.Complaint
	notes      []models.Notification
	analytics  models.Analytics
	filter     client.ComplaintFilter
	err        error
}

func (f *fakeAPI) ListComplaints(_ context.Context, filter client.ComplaintFilter) ([]models.Complaint, error) {
	f.filter = filter
	return f.complaints, f.err
}

func (f *fakeAPI) GetComplaint(_ context.Context, id string) (models.Complaint, error) {
	for _, c := range f.complaints {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Complaint{}, client.ErrNotFound
}

func (f *fakeAPI) ListNotifications(context.Context) ([]models.Notification, error) {
	return f.notes, f.err
}

func (f *fakeAPI) GetAnalytics(context.Context) (models.Analytics, error) {
	return f.analytics, f.err
}

func TestComplaintService_ListNewestFirst(t *testing.T) {
	api := &fakeAPI{complaints: []models.Complaint{
		{ID: "a", CreatedAt: "2024-01-01T00:00:00.000Z"},
		{ID: "b", CreatedAt: "2024-03-01T00:00:00.000Z"},
		{ID: "c", CreatedAt: "2024-02-01T00:00:00.000Z"},
	}}
	svc := NewComplaintService(api, zap.NewNop().Sugar())

	got, err := svc.List(context.Background(), client.ComplaintFilter{Status: models.StatusOpen})
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, api.filter.Status)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestComplaintService_GetWrapsNotFound(t *testing.T) {
	svc := NewComplaintService(&fakeAPI{}, zap.NewNop().Sugar())
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestComplaintService_UnreadNotifications(t *testing.T) {
	api := &fakeAPI{notes: []models.Notification{
		{ID: "1", IsRead: true},
		{ID: "2"},
	}}
	svc := NewComplaintService(api, zap.NewNop().Sugar())

	all, err := svc.Notifications(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	unread, err := svc.Notifications(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "2", unread[0].ID)
}
