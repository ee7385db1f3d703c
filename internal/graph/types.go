package graph

import (
	"strings"
	"time"
)

// EmailAddress is a name/address pair as returned by the Graph API
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// Recipient wraps an email address
type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// InternetMessageHeader is a raw RFC 5322 header as exposed by the Graph API
type InternetMessageHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Message is an inbox message with the fields relevant to reply matching
type Message struct {
	ID                     string                  `json:"id"`
	Subject                string                  `json:"subject,omitempty"`
	From                   *Recipient              `json:"from,omitempty"`
	ToRecipients           []Recipient             `json:"toRecipients,omitempty"`
	CcRecipients           []Recipient             `json:"ccRecipients,omitempty"`
	ReceivedDateTime       time.Time               `json:"receivedDateTime"`
	BodyPreview            string                  `json:"bodyPreview,omitempty"`
	InternetMessageHeaders []InternetMessageHeader `json:"internetMessageHeaders,omitempty"`
	ConversationID         string                  `json:"conversationId,omitempty"`
}

// messageListResponse is the envelope Graph wraps message collections in
type messageListResponse struct {
	Value []Message `json:"value"`
}

// FromAddress returns the sender address, or "" when absent
func (m *Message) FromAddress() string {
	if m.From == nil {
		return ""
	}
	return m.From.EmailAddress.Address
}

// FromName returns the sender display name, or "" when absent
func (m *Message) FromName() string {
	if m.From == nil {
		return ""
	}
	return m.From.EmailAddress.Name
}

// Header returns the value of the named internet message header,
// case-insensitively, or "" when the header is absent.
func (m *Message) Header(name string) string {
	for _, h := range m.InternetMessageHeaders {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// IsAddressedTo reports whether the given mailbox appears among the To or Cc
// recipients, case-insensitively.
func (m *Message) IsAddressedTo(mailbox string) bool {
	for _, r := range m.ToRecipients {
		if strings.EqualFold(r.EmailAddress.Address, mailbox) {
			return true
		}
	}
	for _, r := range m.CcRecipients {
		if strings.EqualFold(r.EmailAddress.Address, mailbox) {
			return true
		}
	}
	return false
}
