package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/nexacrm/crm-backend/internal/models"
)

// MockEmailHistoryRepository implements repository.EmailHistoryRepository
type MockEmailHistoryRepository struct {
	mock.Mock
}

// Create creates a new sent-email record
func (m *MockEmailHistoryRepository) Create(ctx context.Context, email *models.EmailHistory) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// GetByID retrieves a sent email by its ID
func (m *MockEmailHistoryRepository) GetByID(ctx context.Context, id string) (*models.EmailHistory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmailHistory), args.Error(1)
}

// ListCheckable retrieves sent emails eligible for reply matching
func (m *MockEmailHistoryRepository) ListCheckable(ctx context.Context, since time.Time) ([]models.EmailHistory, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EmailHistory), args.Error(1)
}

// CountMissingMessageID counts untrackable emails in the window
func (m *MockEmailHistoryRepository) CountMissingMessageID(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

// MarkReplied records a confirmed reply on the sent email
func (m *MockEmailHistoryRepository) MarkReplied(ctx context.Context, id string, replyCount int, receivedAt time.Time, firstReply bool) error {
	args := m.Called(ctx, id, replyCount, receivedAt, firstReply)
	return args.Error(0)
}

// MockReplyRepository implements repository.ReplyRepository
type MockReplyRepository struct {
	mock.Mock
}

// Upsert inserts a reply, ignoring duplicates
func (m *MockReplyRepository) Upsert(ctx context.Context, reply *models.EmailReply) error {
	args := m.Called(ctx, reply)
	return args.Error(0)
}

// Exists reports whether a reply is already recorded
func (m *MockReplyRepository) Exists(ctx context.Context, emailHistoryID, graphMessageID string) (bool, error) {
	args := m.Called(ctx, emailHistoryID, graphMessageID)
	return args.Bool(0), args.Error(1)
}

// CountByEmailHistory returns the number of replies linked to a sent email
func (m *MockReplyRepository) CountByEmailHistory(ctx context.Context, emailHistoryID string) (int64, error) {
	args := m.Called(ctx, emailHistoryID)
	return args.Get(0).(int64), args.Error(1)
}

// ListByEmailHistory retrieves replies for a sent email with pagination
func (m *MockReplyRepository) ListByEmailHistory(ctx context.Context, emailHistoryID string, limit, offset int) ([]models.EmailReply, int64, error) {
	args := m.Called(ctx, emailHistoryID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.EmailReply), args.Get(1).(int64), args.Error(2)
}

// MockNotificationRepository implements repository.NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

// Create creates a new notification
func (m *MockNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

// ListByUser retrieves notifications for a user with pagination
func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Notification, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Notification), args.Get(1).(int64), args.Error(2)
}

// MarkRead marks a notification as read
func (m *MockNotificationRepository) MarkRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// CountUnread counts unread notifications for a user
func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockCRMRepository implements repository.CRMRepository
type MockCRMRepository struct {
	mock.Mock
}

// TouchContactLastContacted advances a contact's last-contacted timestamp
func (m *MockCRMRepository) TouchContactLastContacted(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// TouchLeadLastContacted advances a lead's last-contacted timestamp
func (m *MockCRMRepository) TouchLeadLastContacted(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// TouchAccountLastContacted advances an account's last-contacted timestamp
func (m *MockCRMRepository) TouchAccountLastContacted(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}
