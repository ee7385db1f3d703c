package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact represents a person attached to an account.
type Contact struct {
	ID              string     `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string     `gorm:"not null;size:255" json:"name"`
	Email           string     `gorm:"size:255;index" json:"email,omitempty"`
	AccountID       *string    `gorm:"type:uuid;index" json:"account_id,omitempty"`
	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Contact
func (Contact) TableName() string {
	return "contacts"
}

// BeforeCreate assigns a UUID primary key when none is set
func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Lead represents a prospective customer not yet converted to a contact.
type Lead struct {
	ID              string     `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string     `gorm:"not null;size:255" json:"name"`
	Email           string     `gorm:"size:255;index" json:"email,omitempty"`
	Status          string     `gorm:"size:32;default:'new'" json:"status"`
	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Lead
func (Lead) TableName() string {
	return "leads"
}

// BeforeCreate assigns a UUID primary key when none is set
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// Account represents a company or organization.
type Account struct {
	ID              string     `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string     `gorm:"not null;size:255" json:"name"`
	Domain          string     `gorm:"size:255" json:"domain,omitempty"`
	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Account
func (Account) TableName() string {
	return "accounts"
}

// BeforeCreate assigns a UUID primary key when none is set
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
