package repository

import (
	"context"
	"fmt"

	"github.com/nexacrm/crm-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReplyRepository defines the interface for reply-record data access
type ReplyRepository interface {
	// Upsert inserts a reply, silently ignoring a conflict on the
	// (email_history_id, graph_message_id) pair. Safe under overlapping runs.
	Upsert(ctx context.Context, reply *models.EmailReply) error
	// Exists reports whether a reply is already recorded for the given sent
	// email and inbound message.
	Exists(ctx context.Context, emailHistoryID, graphMessageID string) (bool, error)
	// CountByEmailHistory returns the authoritative number of replies linked
	// to a sent email.
	CountByEmailHistory(ctx context.Context, emailHistoryID string) (int64, error)
	ListByEmailHistory(ctx context.Context, emailHistoryID string, limit, offset int) ([]models.EmailReply, int64, error)
}

// replyRepository implements ReplyRepository using GORM
type replyRepository struct {
	db *gorm.DB
}

// NewReplyRepository creates a new ReplyRepository instance
func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &replyRepository{db: db}
}

// Upsert inserts a reply with conflicts on the uniqueness pair ignored
func (r *replyRepository) Upsert(ctx context.Context, reply *models.EmailReply) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "email_history_id"},
			{Name: "graph_message_id"},
		},
		DoNothing: true,
	}).Create(reply)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert reply: %w", result.Error)
	}
	return nil
}

// Exists checks for an already-recorded reply
func (r *replyRepository) Exists(ctx context.Context, emailHistoryID, graphMessageID string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.EmailReply{}).
		Where("email_history_id = ? AND graph_message_id = ?", emailHistoryID, graphMessageID).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check for existing reply: %w", result.Error)
	}
	return count > 0, nil
}

// CountByEmailHistory counts replies linked to a sent email
func (r *replyRepository) CountByEmailHistory(ctx context.Context, emailHistoryID string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.EmailReply{}).
		Where("email_history_id = ?", emailHistoryID).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count replies: %w", result.Error)
	}
	return count, nil
}

// ListByEmailHistory retrieves replies for a sent email, newest first
func (r *replyRepository) ListByEmailHistory(ctx context.Context, emailHistoryID string, limit, offset int) ([]models.EmailReply, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.EmailReply{}).
		Where("email_history_id = ?", emailHistoryID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count replies: %w", err)
	}

	var replies []models.EmailReply
	result := r.db.WithContext(ctx).
		Where("email_history_id = ?", emailHistoryID).
		Order("received_at DESC").
		Limit(limit).Offset(offset).
		Find(&replies)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to list replies: %w", result.Error)
	}
	return replies, total, nil
}
