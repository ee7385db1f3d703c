package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types and statuses
const (
	NotificationTypeEmailReplied = "email_replied"

	NotificationStatusUnread = "unread"
	NotificationStatusRead   = "read"
)

// Notification represents an in-app notification addressed to a user.
type Notification struct {
	ID               string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Message          string    `gorm:"not null" json:"message"`
	NotificationType string    `gorm:"not null;size:64" json:"notification_type"`
	Status           string    `gorm:"not null;size:16;default:'unread'" json:"status"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate assigns a UUID primary key when none is set
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
