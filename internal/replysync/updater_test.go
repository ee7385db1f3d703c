package replysync

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nexacrm/crm-backend/internal/models"
	"github.com/nexacrm/crm-backend/internal/repository"
)

type capturedBroadcast struct {
	userID       string
	notification *models.Notification
}

// mockBroadcaster records broadcast calls for assertions
type mockBroadcaster struct {
	mu    sync.Mutex
	calls []capturedBroadcast
}

func (m *mockBroadcaster) BroadcastReplyNotification(userID string, n *models.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, capturedBroadcast{userID: userID, notification: n})
}

func (m *mockBroadcaster) captured() []capturedBroadcast {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]capturedBroadcast, len(m.calls))
	copy(out, m.calls)
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// UpdaterTestSuite exercises the state transitions against a real database
type UpdaterTestSuite struct {
	suite.Suite
	db            *gorm.DB
	replies       repository.ReplyRepository
	history       repository.EmailHistoryRepository
	crm           repository.CRMRepository
	notifications repository.NotificationRepository
	broadcaster   *mockBroadcaster
	updater       *Updater
}

func (s *UpdaterTestSuite) SetupSuite() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)

	err = db.AutoMigrate(
		&models.EmailHistory{}, &models.EmailReply{},
		&models.Contact{}, &models.Lead{}, &models.Account{},
		&models.Notification{},
	)
	require.NoError(s.T(), err)

	s.db = db
	s.replies = repository.NewReplyRepository(db)
	s.history = repository.NewEmailHistoryRepository(db)
	s.crm = repository.NewCRMRepository(db)
	s.notifications = repository.NewNotificationRepository(db)
}

func (s *UpdaterTestSuite) TearDownSuite() {
	sqlDB, _ := s.db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

func (s *UpdaterTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM email_replies")
	s.db.Exec("DELETE FROM email_history")
	s.db.Exec("DELETE FROM contacts")
	s.db.Exec("DELETE FROM leads")
	s.db.Exec("DELETE FROM accounts")
	s.db.Exec("DELETE FROM notifications")

	s.broadcaster = &mockBroadcaster{}
	s.updater = NewUpdater(s.replies, s.history, s.crm, s.notifications, s.broadcaster, testLogger())
}

func TestUpdaterTestSuite(t *testing.T) {
	suite.Run(t, new(UpdaterTestSuite))
}

func (s *UpdaterTestSuite) createSentEmail(opts ...func(*models.EmailHistory)) *models.EmailHistory {
	email := &models.EmailHistory{
		SenderEmail:    testMailbox,
		RecipientEmail: "jane@customer.com",
		Subject:        "Proposal for Q3",
		Status:         models.StatusSent,
		SentAt:         time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(email)
	}
	require.NoError(s.T(), s.history.Create(context.Background(), email))
	return email
}

func candidate(graphID string, receivedAt time.Time) *ReplyCandidate {
	return &ReplyCandidate{
		FromEmail:      "jane@customer.com",
		FromName:       "Jane Doe",
		Subject:        "Re: Proposal for Q3",
		BodyPreview:    "Sounds good.",
		ReceivedAt:     receivedAt,
		GraphMessageID: graphID,
	}
}

func (s *UpdaterTestSuite) TestApply_FirstReply() {
	email := s.createSentEmail()
	receivedAt := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	err := s.updater.Apply(context.Background(), email, candidate("g1", receivedAt))
	require.NoError(s.T(), err)

	updated, err := s.history.GetByID(context.Background(), email.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.StatusReplied, updated.Status)
	assert.Equal(s.T(), 1, updated.ReplyCount)
	require.NotNil(s.T(), updated.RepliedAt)
	assert.True(s.T(), updated.RepliedAt.Equal(receivedAt))
	require.NotNil(s.T(), updated.LastReplyAt)
	assert.True(s.T(), updated.LastReplyAt.Equal(receivedAt))
}

func (s *UpdaterTestSuite) TestApply_SecondReplyKeepsRepliedAt() {
	email := s.createSentEmail()
	first := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	second := time.Date(2026, 8, 21, 15, 0, 0, 0, time.UTC)

	require.NoError(s.T(), s.updater.Apply(context.Background(), email, candidate("g1", first)))
	require.NoError(s.T(), s.updater.Apply(context.Background(), email, candidate("g2", second)))

	updated, err := s.history.GetByID(context.Background(), email.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, updated.ReplyCount)
	require.NotNil(s.T(), updated.RepliedAt)
	assert.True(s.T(), updated.RepliedAt.Equal(first), "replied_at must not move on later replies")
	require.NotNil(s.T(), updated.LastReplyAt)
	assert.True(s.T(), updated.LastReplyAt.Equal(second))
}

func (s *UpdaterTestSuite) TestApply_DuplicateUpsertDoesNotInflateCount() {
	email := s.createSentEmail()
	receivedAt := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	require.NoError(s.T(), s.updater.Apply(context.Background(), email, candidate("g1", receivedAt)))
	require.NoError(s.T(), s.updater.Apply(context.Background(), email, candidate("g1", receivedAt)))

	count, err := s.replies.CountByEmailHistory(context.Background(), email.ID)
	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), 1, count)

	updated, err := s.history.GetByID(context.Background(), email.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, updated.ReplyCount)
}

func (s *UpdaterTestSuite) TestApply_TouchesLinkedCRMEntities() {
	contact := &models.Contact{Email: "jane@customer.com"}
	require.NoError(s.T(), s.db.Create(contact).Error)
	lead := &models.Lead{Email: "jane@customer.com"}
	require.NoError(s.T(), s.db.Create(lead).Error)

	email := s.createSentEmail(func(e *models.EmailHistory) {
		e.ContactID = &contact.ID
		e.LeadID = &lead.ID
	})
	receivedAt := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	require.NoError(s.T(), s.updater.Apply(context.Background(), email, candidate("g1", receivedAt)))

	var freshContact models.Contact
	require.NoError(s.T(), s.db.First(&freshContact, "id = ?", contact.ID).Error)
	require.NotNil(s.T(), freshContact.LastContactedAt)
	assert.True(s.T(), freshContact.LastContactedAt.Equal(receivedAt))

	var freshLead models.Lead
	require.NoError(s.T(), s.db.First(&freshLead, "id = ?", lead.ID).Error)
	require.NotNil(s.T(), freshLead.LastContactedAt)
	assert.True(s.T(), freshLead.LastContactedAt.Equal(receivedAt))
}

func (s *UpdaterTestSuite) TestApply_LastContactedNeverMovesBackwards() {
	later := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	contact := &models.Contact{Email: "jane@customer.com", LastContactedAt: &later}
	require.NoError(s.T(), s.db.Create(contact).Error)

	email := s.createSentEmail(func(e *models.EmailHistory) {
		e.ContactID = &contact.ID
	})
	earlier := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	require.NoError(s.T(), s.updater.Apply(context.Background(), email, candidate("g1", earlier)))

	var fresh models.Contact
	require.NoError(s.T(), s.db.First(&fresh, "id = ?", contact.ID).Error)
	require.NotNil(s.T(), fresh.LastContactedAt)
	assert.True(s.T(), fresh.LastContactedAt.Equal(later), "older reply must not rewind last_contacted_at")
}

func (s *UpdaterTestSuite) TestApply_CreatesAndBroadcastsNotification() {
	userID := "user-42"
	email := s.createSentEmail(func(e *models.EmailHistory) {
		e.SentBy = &userID
	})
	receivedAt := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	require.NoError(s.T(), s.updater.Apply(context.Background(), email, candidate("g1", receivedAt)))

	notifications, total, err := s.notifications.ListByUser(context.Background(), userID, 10, 0)
	require.NoError(s.T(), err)
	require.EqualValues(s.T(), 1, total)
	n := notifications[0]
	assert.Equal(s.T(), models.NotificationTypeEmailReplied, n.NotificationType)
	assert.Equal(s.T(), models.NotificationStatusUnread, n.Status)
	assert.Equal(s.T(), `Jane Doe replied to your email: "Proposal for Q3"`, n.Message)

	calls := s.broadcaster.captured()
	require.Len(s.T(), calls, 1)
	assert.Equal(s.T(), userID, calls[0].userID)
}

func (s *UpdaterTestSuite) TestApply_NotificationFallsBackToSenderAddress() {
	userID := "user-42"
	email := s.createSentEmail(func(e *models.EmailHistory) {
		e.SentBy = &userID
	})
	c := candidate("g1", time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC))
	c.FromName = ""

	require.NoError(s.T(), s.updater.Apply(context.Background(), email, c))

	notifications, _, err := s.notifications.ListByUser(context.Background(), userID, 10, 0)
	require.NoError(s.T(), err)
	require.Len(s.T(), notifications, 1)
	assert.Equal(s.T(), `jane@customer.com replied to your email: "Proposal for Q3"`, notifications[0].Message)
}

func (s *UpdaterTestSuite) TestApply_NoNotificationWithoutSendingUser() {
	email := s.createSentEmail()

	require.NoError(s.T(), s.updater.Apply(context.Background(), email,
		candidate("g1", time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC))))

	var count int64
	require.NoError(s.T(), s.db.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(s.T(), count)
	assert.Empty(s.T(), s.broadcaster.captured())
}
