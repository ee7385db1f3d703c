package replysync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nexacrm/crm-backend/internal/graph"
	"github.com/nexacrm/crm-backend/internal/models"
	"github.com/nexacrm/crm-backend/internal/repository"
)

// DefaultLookbackDays bounds how far back sent emails are considered for
// reply matching.
const DefaultLookbackDays = 30

// ErrAuthentication is returned when the Graph access token cannot be
// acquired. The whole run aborts: without a token no mailbox can be read.
var ErrAuthentication = errors.New("Azure authentication failed")

// InboxLister reads a mailbox's recent inbox messages
type InboxLister interface {
	ListInboxMessages(ctx context.Context, token, mailbox string, since time.Time) ([]graph.Message, error)
}

// Summary is the outcome of one reconciliation run. ProcessedReplies holds
// the ids of the sent emails that received new replies.
type Summary struct {
	EmailsChecked      int      `json:"emailsChecked"`
	RepliesFound       int      `json:"repliesFound"`
	SkippedSelfReplies int      `json:"skippedSelfReplies"`
	ProcessedReplies   []string `json:"processedReplies"`
	ProcessingTimeMs   int64    `json:"processingTimeMs"`
	Message            string   `json:"message"`

	// EmailsWithoutMessageID is reported when the eligible set is empty, to
	// surface sent emails that can never be matched by message id. Nil on
	// normal runs.
	EmailsWithoutMessageID *int64 `json:"emailsWithoutMessageId,omitempty"`
	Hint                   string `json:"hint,omitempty"`
}

// Job runs one reconciliation pass over all sender mailboxes
type Job struct {
	tokens  graph.TokenProvider
	inbox   InboxLister
	history repository.EmailHistoryRepository
	scanner *Scanner
	matcher *Matcher
	updater *Updater

	lookbackDays int
	logger       *slog.Logger

	// now is swappable for tests
	now func() time.Time
}

// NewJob creates a reconciliation job. lookbackDays falls back to
// DefaultLookbackDays when zero or negative.
func NewJob(
	tokens graph.TokenProvider,
	inbox InboxLister,
	history repository.EmailHistoryRepository,
	updater *Updater,
	lookbackDays int,
	logger *slog.Logger,
) *Job {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return &Job{
		tokens:       tokens,
		inbox:        inbox,
		history:      history,
		scanner:      NewScanner(logger),
		matcher:      NewMatcher(logger),
		updater:      updater,
		lookbackDays: lookbackDays,
		logger:       logger,
		now:          time.Now,
	}
}

// Run executes one reconciliation pass. The token is acquired before
// anything else; a broken credential aborts the run even when the sent
// window turns out empty. Loading the sent-email set is fatal too.
// Everything downstream degrades per mailbox or per candidate so one bad
// mailbox cannot starve the others.
func (j *Job) Run(ctx context.Context) (*Summary, error) {
	started := j.now()
	since := started.AddDate(0, 0, -j.lookbackDays)

	token, err := j.tokens.Token(ctx)
	if err != nil {
		j.logger.Error("failed to acquire Graph access token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	emails, err := j.history.ListCheckable(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load sent emails: %w", err)
	}

	summary := &Summary{
		EmailsChecked:    len(emails),
		ProcessedReplies: []string{},
	}

	if len(emails) == 0 {
		summary.Message = "No emails to check for replies"
		missing, err := j.history.CountMissingMessageID(ctx, since)
		if err != nil {
			j.logger.Error("failed to count emails without message id",
				slog.String("error", err.Error()))
		} else {
			summary.EmailsWithoutMessageID = &missing
			if missing > 0 {
				summary.Hint = fmt.Sprintf("Found %d emails without message_id - these cannot be tracked for replies", missing)
			}
		}
		summary.ProcessingTimeMs = j.now().Sub(started).Milliseconds()
		j.logger.Info("reply sync run finished", slog.String("message", summary.Message))
		return summary, nil
	}

	byMailbox := GroupBySender(emails)

	for mailbox, sent := range byMailbox {
		j.processMailbox(ctx, token, mailbox, sent, since, summary)
	}

	if summary.RepliesFound > 0 {
		summary.Message = fmt.Sprintf("Found %d new reply(s)", summary.RepliesFound)
	} else {
		summary.Message = "No new replies detected"
	}
	summary.ProcessingTimeMs = j.now().Sub(started).Milliseconds()

	j.logger.Info("reply sync run finished",
		slog.Int("emails_checked", summary.EmailsChecked),
		slog.Int("mailboxes", len(byMailbox)),
		slog.Int("replies_found", summary.RepliesFound),
		slog.Int("skipped_self_replies", summary.SkippedSelfReplies),
		slog.Int64("processing_time_ms", summary.ProcessingTimeMs))

	return summary, nil
}

// processMailbox reconciles one sender mailbox. Fetch failures are logged
// and yield zero candidates; the run continues with the remaining mailboxes.
func (j *Job) processMailbox(ctx context.Context, token, mailbox string, sent []models.EmailHistory, since time.Time, summary *Summary) {
	messages, err := j.inbox.ListInboxMessages(ctx, token, mailbox, since)
	if err != nil {
		j.logger.Error("failed to fetch inbox, skipping mailbox",
			slog.String("mailbox", mailbox),
			slog.String("error", err.Error()))
		return
	}

	candidates := j.scanner.Scan(mailbox, messages)
	if len(candidates) == 0 {
		return
	}

	idx := BuildSentIndex(sent)

	for i := range candidates {
		c := &candidates[i]

		email, rule, ok := j.matcher.Match(idx, c)
		if !ok {
			continue
		}
		if IsSelfReply(c, email) {
			summary.SkippedSelfReplies++
			j.logger.Debug("skipping self-reply",
				slog.String("mailbox", mailbox),
				slog.String("email_history_id", email.ID))
			continue
		}

		recorded, err := j.recordReply(ctx, email, c)
		if err != nil {
			j.logger.Error("failed to process reply",
				slog.String("email_history_id", email.ID),
				slog.String("match_rule", rule),
				slog.String("error", err.Error()))
			continue
		}
		if !recorded {
			continue
		}

		summary.RepliesFound++
		summary.ProcessedReplies = append(summary.ProcessedReplies, email.ID)
	}
}

// recordReply applies the candidate unless it is already recorded. An
// existence-check failure skips the candidate: under-counting is preferable
// to a double insert. Returns whether a new reply was written.
func (j *Job) recordReply(ctx context.Context, email *models.EmailHistory, c *ReplyCandidate) (bool, error) {
	exists, err := j.updater.replies.Exists(ctx, email.ID, c.GraphMessageID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := j.updater.Apply(ctx, email, c); err != nil {
		return false, err
	}
	return true, nil
}
