package replysync

import (
	"log/slog"
	"strings"

	"github.com/nexacrm/crm-backend/internal/models"
)

// matchRule is one lookup strategy for resolving a candidate against the
// sent-email index. Rules are ranked: they are tried top to bottom and the
// first hit wins, so stronger correlation signals always take precedence
// over the conversation-id fallback.
type matchRule struct {
	name   string
	lookup func(idx *SentIndex, c *ReplyCandidate) (*models.EmailHistory, bool)
}

var matchRules = []matchRule{
	{
		name: "in_reply_to",
		lookup: func(idx *SentIndex, c *ReplyCandidate) (*models.EmailHistory, bool) {
			return idx.LookupMessageID(c.InReplyTo)
		},
	},
	{
		name: "in_reply_to_bracketed",
		lookup: func(idx *SentIndex, c *ReplyCandidate) (*models.EmailHistory, bool) {
			if c.InReplyTo == "" {
				return nil, false
			}
			return idx.LookupMessageID("<" + c.InReplyTo + ">")
		},
	},
	{
		name: "in_reply_to_stripped",
		lookup: func(idx *SentIndex, c *ReplyCandidate) (*models.EmailHistory, bool) {
			return idx.LookupMessageID(stripAngleBrackets(c.InReplyTo))
		},
	},
	{
		// Conversation ids can be reused across unrelated threads; this is
		// the lowest-confidence rule and only reached when no message-id
		// lookup succeeded.
		name: "conversation_id",
		lookup: func(idx *SentIndex, c *ReplyCandidate) (*models.EmailHistory, bool) {
			return idx.LookupConversationID(c.ConversationID)
		},
	},
}

// Matcher resolves reply candidates against a sent-email index.
type Matcher struct {
	logger *slog.Logger
}

// NewMatcher creates a new Matcher
func NewMatcher(logger *slog.Logger) *Matcher {
	return &Matcher{logger: logger}
}

// Match finds the sent email the candidate replies to. It returns the record,
// the name of the rule that matched, and whether any rule matched at all.
// A candidate with no match is routine, not an error.
func (m *Matcher) Match(idx *SentIndex, c *ReplyCandidate) (*models.EmailHistory, string, bool) {
	for _, rule := range matchRules {
		if email, ok := rule.lookup(idx, c); ok {
			if m.logger != nil {
				m.logger.Debug("matched reply candidate",
					slog.String("rule", rule.name),
					slog.String("email_history_id", email.ID),
					slog.String("from", c.FromEmail))
			}
			return email, rule.name, true
		}
	}

	if m.logger != nil {
		m.logger.Debug("no match for reply candidate",
			slog.String("in_reply_to", c.InReplyTo),
			slog.String("conversation_id", c.ConversationID))
	}
	return nil, "", false
}

// IsSelfReply reports whether the candidate's sender is the matched email's
// own sender mailbox. This is a second, independent guard beyond the scan
// filter: a mailbox's earlier reply to itself can thread into a conversation
// and structurally match.
func IsSelfReply(c *ReplyCandidate, email *models.EmailHistory) bool {
	return strings.EqualFold(c.FromEmail, email.SenderEmail)
}
