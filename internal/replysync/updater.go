package replysync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nexacrm/crm-backend/internal/models"
	"github.com/nexacrm/crm-backend/internal/repository"
	"github.com/nexacrm/crm-backend/internal/validator"
)

// NotificationBroadcaster pushes a freshly created notification to any live
// subscriber of the target user. Delivery is best-effort.
type NotificationBroadcaster interface {
	BroadcastReplyNotification(userID string, notification *models.Notification)
}

// Updater applies the state changes for one matched reply. The reply record,
// reply count and sent-email status form the core transition and abort the
// reply on failure; CRM timestamp touches and the notification are follow-on
// effects whose failures are logged but do not undo the core transition.
type Updater struct {
	replies       repository.ReplyRepository
	history       repository.EmailHistoryRepository
	crm           repository.CRMRepository
	notifications repository.NotificationRepository
	broadcaster   NotificationBroadcaster
	logger        *slog.Logger
}

// NewUpdater creates a new Updater. broadcaster may be nil when no live push
// channel is wired.
func NewUpdater(
	replies repository.ReplyRepository,
	history repository.EmailHistoryRepository,
	crm repository.CRMRepository,
	notifications repository.NotificationRepository,
	broadcaster NotificationBroadcaster,
	logger *slog.Logger,
) *Updater {
	return &Updater{
		replies:       replies,
		history:       history,
		crm:           crm,
		notifications: notifications,
		broadcaster:   broadcaster,
		logger:        logger,
	}
}

// Apply records the reply against its matched sent email. The steps run in a
// fixed order so a crash mid-way leaves a state the next run converges from:
// the reply row lands first, then the count is recomputed from storage, then
// the sent email is updated from that count.
func (u *Updater) Apply(ctx context.Context, email *models.EmailHistory, c *ReplyCandidate) error {
	reply := &models.EmailReply{
		EmailHistoryID: email.ID,
		GraphMessageID: c.GraphMessageID,
		FromEmail:      c.FromEmail,
		Subject:        c.Subject,
		BodyPreview:    c.BodyPreview,
		ReceivedAt:     c.ReceivedAt,
	}
	if c.FromName != "" {
		name := c.FromName
		reply.FromName = &name
	}

	if err := u.replies.Upsert(ctx, reply); err != nil {
		return fmt.Errorf("failed to record reply for email %s: %w", email.ID, err)
	}

	// Recount from storage rather than incrementing in memory, so overlapping
	// runs and retries converge on the same number.
	count, err := u.replies.CountByEmailHistory(ctx, email.ID)
	if err != nil {
		return fmt.Errorf("failed to recount replies for email %s: %w", email.ID, err)
	}

	firstReply := count == 1
	if err := u.history.MarkReplied(ctx, email.ID, int(count), c.ReceivedAt, firstReply); err != nil {
		return fmt.Errorf("failed to mark email %s as replied: %w", email.ID, err)
	}

	u.touchCRM(ctx, email, c)
	u.notify(ctx, email, c)

	u.logger.Info("recorded email reply",
		slog.String("email_history_id", email.ID),
		slog.String("from", c.FromEmail),
		slog.Int64("reply_count", count),
		slog.Bool("first_reply", firstReply))

	return nil
}

// touchCRM advances last-contacted timestamps on every CRM entity linked to
// the sent email. Each touch is independent and failures only log.
func (u *Updater) touchCRM(ctx context.Context, email *models.EmailHistory, c *ReplyCandidate) {
	type touch struct {
		entity string
		id     *string
		fn     func(context.Context, string, time.Time) error
	}
	touches := []touch{
		{"contact", email.ContactID, u.crm.TouchContactLastContacted},
		{"lead", email.LeadID, u.crm.TouchLeadLastContacted},
		{"account", email.AccountID, u.crm.TouchAccountLastContacted},
	}

	for _, t := range touches {
		if t.id == nil || *t.id == "" {
			continue
		}
		if err := t.fn(ctx, *t.id, c.ReceivedAt); err != nil {
			u.logger.Error("failed to update last contacted timestamp",
				slog.String("entity", t.entity),
				slog.String("id", *t.id),
				slog.String("error", err.Error()))
		}
	}
}

// notify creates a notification for the user who sent the original email and
// pushes it to any live subscriber. Skipped when the sender user is unknown.
func (u *Updater) notify(ctx context.Context, email *models.EmailHistory, c *ReplyCandidate) {
	if email.SentBy == nil || *email.SentBy == "" {
		return
	}

	// Display names come from an external mailbox; strip control characters
	// before they reach stored notifications.
	who := validator.SanitizeString(c.FromName, 255)
	if who == "" {
		who = c.FromEmail
	}

	notification := &models.Notification{
		UserID:           *email.SentBy,
		Message:          fmt.Sprintf("%s replied to your email: %q", who, email.Subject),
		NotificationType: models.NotificationTypeEmailReplied,
	}

	if err := u.notifications.Create(ctx, notification); err != nil {
		u.logger.Error("failed to create reply notification",
			slog.String("user_id", *email.SentBy),
			slog.String("email_history_id", email.ID),
			slog.String("error", err.Error()))
		return
	}

	if u.broadcaster != nil {
		u.broadcaster.BroadcastReplyNotification(notification.UserID, notification)
	}
}
