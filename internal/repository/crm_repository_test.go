package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nexacrm/crm-backend/internal/models"
)

// CRMRepositoryTestSuite is the test suite for CRMRepository
type CRMRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo CRMRepository
}

// SetupSuite runs once before all tests
func (s *CRMRepositoryTestSuite) SetupSuite() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)

	err = db.AutoMigrate(&models.Contact{}, &models.Lead{}, &models.Account{})
	require.NoError(s.T(), err)

	s.db = db
	s.repo = NewCRMRepository(db)
}

// TearDownSuite runs once after all tests
func (s *CRMRepositoryTestSuite) TearDownSuite() {
	sqlDB, _ := s.db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SetupTest runs before each test
func (s *CRMRepositoryTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM contacts")
	s.db.Exec("DELETE FROM leads")
	s.db.Exec("DELETE FROM accounts")
}

// TestCRMRepositoryTestSuite runs the test suite
func TestCRMRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(CRMRepositoryTestSuite))
}

func (s *CRMRepositoryTestSuite) TestTouchContact_SetsWhenNull() {
	contact := &models.Contact{Name: "Jane Doe", Email: "jane@customer.com"}
	require.NoError(s.T(), s.db.Create(contact).Error)
	at := time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)

	err := s.repo.TouchContactLastContacted(context.Background(), contact.ID, at)
	require.NoError(s.T(), err)

	var fresh models.Contact
	require.NoError(s.T(), s.db.First(&fresh, "id = ?", contact.ID).Error)
	require.NotNil(s.T(), fresh.LastContactedAt)
	assert.True(s.T(), fresh.LastContactedAt.Equal(at))
}

func (s *CRMRepositoryTestSuite) TestTouchContact_AdvancesEarlierTimestamp() {
	earlier := time.Date(2026, 8, 10, 10, 0, 0, 0, time.UTC)
	contact := &models.Contact{Name: "Jane Doe", LastContactedAt: &earlier}
	require.NoError(s.T(), s.db.Create(contact).Error)
	at := time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)

	err := s.repo.TouchContactLastContacted(context.Background(), contact.ID, at)
	require.NoError(s.T(), err)

	var fresh models.Contact
	require.NoError(s.T(), s.db.First(&fresh, "id = ?", contact.ID).Error)
	assert.True(s.T(), fresh.LastContactedAt.Equal(at))
}

func (s *CRMRepositoryTestSuite) TestTouchContact_NeverMovesBackwards() {
	later := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	contact := &models.Contact{Name: "Jane Doe", LastContactedAt: &later}
	require.NoError(s.T(), s.db.Create(contact).Error)

	err := s.repo.TouchContactLastContacted(context.Background(), contact.ID,
		time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC))
	require.NoError(s.T(), err)

	var fresh models.Contact
	require.NoError(s.T(), s.db.First(&fresh, "id = ?", contact.ID).Error)
	assert.True(s.T(), fresh.LastContactedAt.Equal(later))
}

func (s *CRMRepositoryTestSuite) TestTouchContact_MissingRowIsNotAnError() {
	err := s.repo.TouchContactLastContacted(context.Background(), "no-such-id", time.Now())

	assert.NoError(s.T(), err)
}

func (s *CRMRepositoryTestSuite) TestTouchLeadAndAccount() {
	lead := &models.Lead{Name: "Acme Lead"}
	require.NoError(s.T(), s.db.Create(lead).Error)
	account := &models.Account{Name: "Acme Corp"}
	require.NoError(s.T(), s.db.Create(account).Error)
	at := time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)

	require.NoError(s.T(), s.repo.TouchLeadLastContacted(context.Background(), lead.ID, at))
	require.NoError(s.T(), s.repo.TouchAccountLastContacted(context.Background(), account.ID, at))

	var freshLead models.Lead
	require.NoError(s.T(), s.db.First(&freshLead, "id = ?", lead.ID).Error)
	require.NotNil(s.T(), freshLead.LastContactedAt)
	assert.True(s.T(), freshLead.LastContactedAt.Equal(at))

	var freshAccount models.Account
	require.NoError(s.T(), s.db.First(&freshAccount, "id = ?", account.ID).Error)
	require.NotNil(s.T(), freshAccount.LastContactedAt)
	assert.True(s.T(), freshAccount.LastContactedAt.Equal(at))
}
