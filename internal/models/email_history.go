package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Email delivery statuses, ordered from weakest to strongest signal.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusOpened    = "opened"
	StatusReplied   = "replied"
	StatusBounced   = "bounced"
)

// statusOrder ranks statuses; a status may only ever be replaced by one that
// appears later in this list.
var statusOrder = []string{
	StatusSent,
	StatusDelivered,
	StatusOpened,
	StatusReplied,
	StatusBounced,
}

// StatusRank returns the precedence of a status. Unknown statuses rank lowest.
func StatusRank(status string) int {
	for i, s := range statusOrder {
		if s == status {
			return i
		}
	}
	return -1
}

// StatusOutranks reports whether status a supersedes status b.
func StatusOutranks(a, b string) bool {
	return StatusRank(a) > StatusRank(b)
}

// EmailHistory represents an email sent by the CRM, eligible to receive a reply.
type EmailHistory struct {
	ID             string `gorm:"type:uuid;primaryKey" json:"id"`
	SenderEmail    string `gorm:"not null;size:255;index" json:"sender_email"`
	RecipientEmail string `gorm:"not null;size:255" json:"recipient_email"`
	Subject        string `json:"subject,omitempty"`

	// MessageID is assigned by the mail transport on send. Records without it
	// can only ever be matched to replies via ConversationID.
	MessageID      *string `gorm:"size:512;index" json:"message_id,omitempty"`
	ConversationID *string `gorm:"size:512;index" json:"conversation_id,omitempty"`

	Status      string     `gorm:"not null;size:32;default:'sent'" json:"status"`
	ReplyCount  int        `gorm:"not null;default:0" json:"reply_count"`
	RepliedAt   *time.Time `json:"replied_at,omitempty"`
	LastReplyAt *time.Time `json:"last_reply_at,omitempty"`

	SentAt time.Time `gorm:"not null;index" json:"sent_at"`
	SentBy *string   `gorm:"type:uuid" json:"sent_by,omitempty"`

	// Optional CRM links; the schema allows all three.
	ContactID *string `gorm:"type:uuid;index" json:"contact_id,omitempty"`
	LeadID    *string `gorm:"type:uuid;index" json:"lead_id,omitempty"`
	AccountID *string `gorm:"type:uuid;index" json:"account_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Replies []EmailReply `gorm:"foreignKey:EmailHistoryID;constraint:OnDelete:CASCADE" json:"replies,omitempty"`
}

// TableName returns the table name for EmailHistory
func (EmailHistory) TableName() string {
	return "email_history"
}

// BeforeCreate assigns a UUID primary key when none is set
func (e *EmailHistory) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
