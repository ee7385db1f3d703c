package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmailReply represents an inbound message attributed to a sent email.
// The (EmailHistoryID, GraphMessageID) pair is unique: a given inbox message
// is attributed to a given sent email at most once.
type EmailReply struct {
	ID             string `gorm:"type:uuid;primaryKey" json:"id"`
	EmailHistoryID string `gorm:"type:uuid;not null;index;uniqueIndex:idx_replies_history_graph" json:"email_history_id"`

	FromEmail   string    `gorm:"not null;size:255" json:"from_email"`
	FromName    *string   `gorm:"size:255" json:"from_name,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	BodyPreview string    `gorm:"size:500" json:"body_preview,omitempty"`
	ReceivedAt  time.Time `gorm:"not null" json:"received_at"`

	// GraphMessageID is the inbound message's own transport identifier.
	GraphMessageID string `gorm:"not null;size:512;uniqueIndex:idx_replies_history_graph" json:"graph_message_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	EmailHistory EmailHistory `gorm:"foreignKey:EmailHistoryID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for EmailReply
func (EmailReply) TableName() string {
	return "email_replies"
}

// BeforeCreate assigns a UUID primary key when none is set
func (r *EmailReply) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
