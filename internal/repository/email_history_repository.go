package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nexacrm/crm-backend/internal/models"
	"gorm.io/gorm"
)

// EmailHistoryRepository defines the interface for sent-email data access
type EmailHistoryRepository interface {
	Create(ctx context.Context, email *models.EmailHistory) error
	GetByID(ctx context.Context, id string) (*models.EmailHistory, error)
	// ListCheckable returns sent emails eligible for reply matching: sent on or
	// after the given time and not bounced, newest first.
	ListCheckable(ctx context.Context, since time.Time) ([]models.EmailHistory, error)
	// CountMissingMessageID counts non-bounced emails in the window that
	// carry no transport message id and so can never be matched by message id.
	CountMissingMessageID(ctx context.Context, since time.Time) (int64, error)
	// MarkReplied records a confirmed reply on the sent email: status, the
	// recomputed reply count and the last-reply timestamp. RepliedAt is set
	// only on the first reply and never overwritten afterwards.
	MarkReplied(ctx context.Context, id string, replyCount int, receivedAt time.Time, firstReply bool) error
}

// emailHistoryRepository implements EmailHistoryRepository using GORM
type emailHistoryRepository struct {
	db *gorm.DB
}

// NewEmailHistoryRepository creates a new EmailHistoryRepository instance
func NewEmailHistoryRepository(db *gorm.DB) EmailHistoryRepository {
	return &emailHistoryRepository{db: db}
}

// Create creates a new sent-email record
func (r *emailHistoryRepository) Create(ctx context.Context, email *models.EmailHistory) error {
	if err := r.db.WithContext(ctx).Create(email).Error; err != nil {
		return fmt.Errorf("failed to create email history record: %w", err)
	}
	return nil
}

// GetByID retrieves a sent-email record by its ID
func (r *emailHistoryRepository) GetByID(ctx context.Context, id string) (*models.EmailHistory, error) {
	var email models.EmailHistory
	result := r.db.WithContext(ctx).First(&email, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get email history record: %w", result.Error)
	}
	return &email, nil
}

// ListCheckable retrieves the candidate set for reply matching
func (r *emailHistoryRepository) ListCheckable(ctx context.Context, since time.Time) ([]models.EmailHistory, error) {
	var emails []models.EmailHistory
	result := r.db.WithContext(ctx).
		Where("sent_at >= ? AND status <> ?", since, models.StatusBounced).
		Order("sent_at DESC").
		Find(&emails)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list checkable emails: %w", result.Error)
	}
	return emails, nil
}

// CountMissingMessageID counts recent emails without a message id
func (r *emailHistoryRepository) CountMissingMessageID(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.EmailHistory{}).
		Where("sent_at >= ? AND message_id IS NULL AND status <> ?", since, models.StatusBounced).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count emails without message id: %w", result.Error)
	}
	return count, nil
}

// MarkReplied updates the reply-driven fields of a sent email
func (r *emailHistoryRepository) MarkReplied(ctx context.Context, id string, replyCount int, receivedAt time.Time, firstReply bool) error {
	var email models.EmailHistory
	if err := r.db.WithContext(ctx).First(&email, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load email for reply update: %w", err)
	}

	updates := map[string]interface{}{
		"reply_count":   replyCount,
		"last_reply_at": receivedAt,
	}
	// Status moves to replied only forward; a higher-ranked status such as
	// bounced is never demoted.
	if models.StatusOutranks(models.StatusReplied, email.Status) {
		updates["status"] = models.StatusReplied
	}
	if firstReply {
		updates["replied_at"] = receivedAt
	}

	result := r.db.WithContext(ctx).Model(&models.EmailHistory{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to mark email as replied: %w", result.Error)
	}
	return nil
}
