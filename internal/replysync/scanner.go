// Package replysync implements the email-reply reconciliation job: it scans
// mailbox inboxes for messages that reply to emails the CRM sent, matches
// them to their originating sent records and applies the downstream state
// changes (reply records, reply counts, last-contacted markers,
// notifications).
package replysync

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/nexacrm/crm-backend/internal/graph"
)

// bodyPreviewLimit caps how much of an inbound body is stored with a reply.
const bodyPreviewLimit = 500

var reSubject = regexp.MustCompile(`(?i)^re:`)

// ReplyCandidate is an inbound message provisionally identified as a possible
// reply, pending matching. Candidates live only for the duration of one run.
type ReplyCandidate struct {
	FromEmail   string
	FromName    string
	Subject     string
	BodyPreview string
	ReceivedAt  time.Time

	// GraphMessageID is the inbound message's own transport identifier; it
	// forms the de-duplication key together with the matched sent email.
	GraphMessageID string

	// InReplyTo is the cleaned correlation id extracted from the reply
	// headers, or "" when the message carried none.
	InReplyTo string

	ConversationID string
}

// scanRule rejects an inbox message that cannot be a reply addressed to the
// scanned mailbox. Rules are evaluated top to bottom; the first rejection
// wins and is logged under the rule's name.
type scanRule struct {
	name    string
	rejects func(mailbox string, msg *graph.Message) bool
}

var scanRules = []scanRule{
	{
		// The mailbox's own outbound traffic shows up in its inbox too.
		name: "self_sent",
		rejects: func(mailbox string, msg *graph.Message) bool {
			return strings.EqualFold(msg.FromAddress(), mailbox)
		},
	},
	{
		// Messages present only via forwarding or inbox rules were never sent
		// to this address and cannot be replies to it.
		name: "not_addressed_to_mailbox",
		rejects: func(mailbox string, msg *graph.Message) bool {
			return !msg.IsAddressedTo(mailbox)
		},
	},
	{
		// Without reply headers or a conversation id there is nothing to
		// correlate on.
		name: "no_reply_signal",
		rejects: func(mailbox string, msg *graph.Message) bool {
			return !hasReplyHeaders(msg) && msg.ConversationID == ""
		},
	},
	{
		// Conversation ids are reused broadly; alone they are only trusted
		// when the subject also looks like a reply.
		name: "conversation_id_without_re_subject",
		rejects: func(mailbox string, msg *graph.Message) bool {
			return !hasReplyHeaders(msg) &&
				msg.ConversationID != "" &&
				!reSubject.MatchString(strings.TrimSpace(msg.Subject))
		},
	},
}

// Scanner filters raw inbox messages down to reply candidates.
type Scanner struct {
	logger *slog.Logger
}

// NewScanner creates a new Scanner
func NewScanner(logger *slog.Logger) *Scanner {
	return &Scanner{logger: logger}
}

// Scan applies the filter rules to every message and builds candidates from
// the survivors. The input ordering (newest first) is preserved.
func (s *Scanner) Scan(mailbox string, messages []graph.Message) []ReplyCandidate {
	candidates := make([]ReplyCandidate, 0, len(messages))

	for i := range messages {
		msg := &messages[i]
		if rule, rejected := rejectedBy(mailbox, msg); rejected {
			if s.logger != nil {
				s.logger.Debug("skipping inbox message",
					slog.String("mailbox", mailbox),
					slog.String("rule", rule),
					slog.String("subject", truncate(msg.Subject, 50)))
			}
			continue
		}

		candidates = append(candidates, ReplyCandidate{
			FromEmail:      msg.FromAddress(),
			FromName:       msg.FromName(),
			Subject:        msg.Subject,
			BodyPreview:    truncate(msg.BodyPreview, bodyPreviewLimit),
			ReceivedAt:     msg.ReceivedDateTime,
			GraphMessageID: msg.ID,
			InReplyTo:      correlationID(msg),
			ConversationID: msg.ConversationID,
		})
	}

	return candidates
}

// rejectedBy returns the name of the first rule that rejects the message
func rejectedBy(mailbox string, msg *graph.Message) (string, bool) {
	for _, rule := range scanRules {
		if rule.rejects(mailbox, msg) {
			return rule.name, true
		}
	}
	return "", false
}

func hasReplyHeaders(msg *graph.Message) bool {
	return msg.Header("In-Reply-To") != "" || msg.Header("References") != ""
}

// correlationID extracts the id of the message being replied to: In-Reply-To
// when present, otherwise the last whitespace-separated token of References.
// Enclosing angle brackets are stripped.
func correlationID(msg *graph.Message) string {
	id := strings.TrimSpace(msg.Header("In-Reply-To"))
	if id == "" {
		if refs := strings.Fields(msg.Header("References")); len(refs) > 0 {
			id = refs[len(refs)-1]
		}
	}
	return stripAngleBrackets(id)
}

// stripAngleBrackets removes one enclosing pair of angle brackets
func stripAngleBrackets(s string) string {
	s = strings.TrimPrefix(s, "<")
	return strings.TrimSuffix(s, ">")
}

// truncate caps the string at max runes, never splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
