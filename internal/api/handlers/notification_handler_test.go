package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/nexacrm/crm-backend/internal/models"
	"github.com/nexacrm/crm-backend/internal/repository"
	"github.com/nexacrm/crm-backend/tests/mocks"
)

// NotificationHandlerTestSuite is the test suite for NotificationHandler
type NotificationHandlerTestSuite struct {
	suite.Suite
	echo     *echo.Echo
	handler  *NotificationHandler
	mockRepo *mocks.MockNotificationRepository
}

// SetupTest runs before each test
func (s *NotificationHandlerTestSuite) SetupTest() {
	s.echo = echo.New()
	s.mockRepo = new(mocks.MockNotificationRepository)
	s.handler = NewNotificationHandler(s.mockRepo)
}

// TearDownTest runs after each test
func (s *NotificationHandlerTestSuite) TearDownTest() {
	s.mockRepo.AssertExpectations(s.T())
}

// TestNotificationHandlerTestSuite runs the test suite
func TestNotificationHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(NotificationHandlerTestSuite))
}

// Helper function to create a test context
func (s *NotificationHandlerTestSuite) createContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	return c, rec
}

func (s *NotificationHandlerTestSuite) TestListByUser_ReturnsNotifications() {
	notifications := []models.Notification{
		{ID: "n-1", UserID: "user-1", Message: "Jane replied", NotificationType: models.NotificationTypeEmailReplied},
		{ID: "n-2", UserID: "user-1", Message: "John replied", NotificationType: models.NotificationTypeEmailReplied},
	}
	s.mockRepo.On("ListByUser", mock.Anything, "user-1", 20, 0).Return(notifications, int64(2), nil)

	c, rec := s.createContext(http.MethodGet, "/api/users/user-1/notifications", "")
	c.SetParamNames("user_id")
	c.SetParamValues("user-1")

	err := s.handler.ListByUser(c)
	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)

	resp, err := parsePaginatedResponse(rec)
	s.NoError(err)
	s.True(resp.Success)
	s.Equal(int64(2), resp.Meta.Total)
}

func (s *NotificationHandlerTestSuite) TestListByUser_HonorsPaginationParams() {
	s.mockRepo.On("ListByUser", mock.Anything, "user-1", 5, 10).Return([]models.Notification{}, int64(0), nil)

	c, rec := s.createContext(http.MethodGet, "/api/users/user-1/notifications?limit=5&offset=10", "")
	c.SetParamNames("user_id")
	c.SetParamValues("user-1")

	err := s.handler.ListByUser(c)
	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *NotificationHandlerTestSuite) TestListByUser_ReturnsInternalErrorOnRepoFailure() {
	s.mockRepo.On("ListByUser", mock.Anything, "user-1", 20, 0).Return(nil, int64(0), errors.New("db down"))

	c, rec := s.createContext(http.MethodGet, "/api/users/user-1/notifications", "")
	c.SetParamNames("user_id")
	c.SetParamValues("user-1")

	err := s.handler.ListByUser(c)
	s.NoError(err)
	s.Equal(http.StatusInternalServerError, rec.Code)
}

func (s *NotificationHandlerTestSuite) TestUnreadCount_ReturnsCount() {
	s.mockRepo.On("CountUnread", mock.Anything, "user-1").Return(int64(3), nil)

	c, rec := s.createContext(http.MethodGet, "/api/users/user-1/notifications/unread-count", "")
	c.SetParamNames("user_id")
	c.SetParamValues("user-1")

	err := s.handler.UnreadCount(c)
	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"unread":3`)
}

func (s *NotificationHandlerTestSuite) TestUnreadCount_ReturnsInternalErrorOnRepoFailure() {
	s.mockRepo.On("CountUnread", mock.Anything, "user-1").Return(int64(0), errors.New("db down"))

	c, rec := s.createContext(http.MethodGet, "/api/users/user-1/notifications/unread-count", "")
	c.SetParamNames("user_id")
	c.SetParamValues("user-1")

	err := s.handler.UnreadCount(c)
	s.NoError(err)
	s.Equal(http.StatusInternalServerError, rec.Code)
}

func (s *NotificationHandlerTestSuite) TestMarkRead_MarksNotification() {
	s.mockRepo.On("MarkRead", mock.Anything, "n-1").Return(nil)

	c, rec := s.createContext(http.MethodPatch, "/api/notifications/n-1/read", "")
	c.SetParamNames("id")
	c.SetParamValues("n-1")

	err := s.handler.MarkRead(c)
	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)

	resp, err := parseAPIResponse(rec)
	s.NoError(err)
	s.True(resp.Success)
	s.Equal("notification marked as read", resp.Message)
}

func (s *NotificationHandlerTestSuite) TestMarkRead_ReturnsNotFound() {
	s.mockRepo.On("MarkRead", mock.Anything, "missing").Return(repository.ErrNotFound)

	c, rec := s.createContext(http.MethodPatch, "/api/notifications/missing/read", "")
	c.SetParamNames("id")
	c.SetParamValues("missing")

	err := s.handler.MarkRead(c)
	s.NoError(err)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *NotificationHandlerTestSuite) TestMarkRead_ReturnsInternalErrorOnRepoFailure() {
	s.mockRepo.On("MarkRead", mock.Anything, "n-1").Return(errors.New("db down"))

	c, rec := s.createContext(http.MethodPatch, "/api/notifications/n-1/read", "")
	c.SetParamNames("id")
	c.SetParamValues("n-1")

	err := s.handler.MarkRead(c)
	s.NoError(err)
	s.Equal(http.StatusInternalServerError, rec.Code)
}
