package replysync

import (
	"github.com/nexacrm/crm-backend/internal/models"
)

// SentIndex holds the lookup structures for one mailbox's sent emails.
// It is built once per run and only read afterwards.
type SentIndex struct {
	byMessageID      map[string]*models.EmailHistory
	byConversationID map[string]*models.EmailHistory
}

// BuildSentIndex builds the lookup maps for a mailbox's sent emails.
// Message ids are indexed under both their stored form and the form with
// enclosing angle brackets stripped, since inbound headers may carry either.
// Conversation ids are last-write-wins: conversation matching is a fallback
// and duplicates are tolerated.
func BuildSentIndex(emails []models.EmailHistory) *SentIndex {
	idx := &SentIndex{
		byMessageID:      make(map[string]*models.EmailHistory),
		byConversationID: make(map[string]*models.EmailHistory),
	}

	for i := range emails {
		email := &emails[i]
		if email.MessageID != nil && *email.MessageID != "" {
			idx.byMessageID[*email.MessageID] = email
			idx.byMessageID[stripAngleBrackets(*email.MessageID)] = email
		}
		if email.ConversationID != nil && *email.ConversationID != "" {
			idx.byConversationID[*email.ConversationID] = email
		}
	}

	return idx
}

// LookupMessageID finds the sent email whose transport message id matches
func (idx *SentIndex) LookupMessageID(id string) (*models.EmailHistory, bool) {
	if id == "" {
		return nil, false
	}
	email, ok := idx.byMessageID[id]
	return email, ok
}

// LookupConversationID finds the sent email sharing a conversation id
func (idx *SentIndex) LookupConversationID(id string) (*models.EmailHistory, bool) {
	if id == "" {
		return nil, false
	}
	email, ok := idx.byConversationID[id]
	return email, ok
}

// GroupBySender groups sent emails by their sender mailbox address.
// Each mailbox is scanned and matched independently.
func GroupBySender(emails []models.EmailHistory) map[string][]models.EmailHistory {
	groups := make(map[string][]models.EmailHistory)
	for _, email := range emails {
		groups[email.SenderEmail] = append(groups[email.SenderEmail], email)
	}
	return groups
}
