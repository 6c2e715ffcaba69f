package telegram

import (
	"context"
	"time"

	"go.uber.org/zap"

	"grievance/backend/internal/localization"
	"grievance/backend/internal/logger"
	"grievance/backend/internal/metrics"
	"grievance/backend/internal/models"
)

// UserLookup resolves the officer named by an event.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// GrievanceLookup resolves the grievance named by an event.
type GrievanceLookup interface {
	GetGrievance(ctx context.Context, id string) (*models.Grievance, error)
}

// Notifier sends assignment and escalation notices to the officer's linked chat.
// It is an event hub sink; failures are logged and counted, never returned.
type Notifier struct {
	messenger  Messenger
	users      UserLookup
	grievances GrievanceLookup
	localizer  *localization.Localizer
	lang       string
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewNotifier(m Messenger, users UserLookup, grievances GrievanceLookup, loc *localization.Localizer, lang string, mt *metrics.Metrics, l *zap.Logger) *Notifier {
	if lang == "" {
		lang = localization.DefaultLanguage
	}
	return &Notifier{
		messenger:  m,
		users:      users,
		grievances: grievances,
		localizer:  loc,
		lang:       lang,
		metrics:    mt,
		logger:     logger.OrNop(l),
	}
}

func (n *Notifier) Handle(ctx context.Context, e models.Event) {
	if e.OfficerID == "" || (e.Type != models.EventAssigned && e.Type != models.EventEscalated) {
		return
	}

	officer, err := n.users.GetUser(ctx, e.OfficerID)
	if err != nil {
		n.logger.Warn("Notification officer lookup failed", zap.String("officer_id", e.OfficerID), zap.Error(err))
		n.count("failed")
		return
	}
	if officer.TelegramChatID == 0 {
		n.count("skipped")
		return
	}

	if err := n.messenger.SendText(officer.TelegramChatID, n.text(ctx, e)); err != nil {
		n.logger.Warn("Telegram notification failed",
			zap.String("officer_id", e.OfficerID),
			zap.String("grievance_id", e.GrievanceID),
			zap.Error(err))
		n.count("failed")
		return
	}
	n.count("sent")
}

func (n *Notifier) text(ctx context.Context, e models.Event) string {
	if e.Type == models.EventEscalated {
		return n.localizer.Format(n.lang, "grievance_escalated", e.GrievanceID, e.Title, e.EscalationCount)
	}

	priority, deadline := "-", "-"
	if g, err := n.grievances.GetGrievance(ctx, e.ID); err == nil {
		priority = string(g.Priority)
		if g.ExpectedResolutionAt != nil {
			deadline = g.ExpectedResolutionAt.UTC().Format(time.RFC1123)
		}
	}
	return n.localizer.Format(n.lang, "grievance_assigned", e.GrievanceID, e.Title, priority, deadline)
}

func (n *Notifier) count(result string) {
	if n.metrics != nil {
		n.metrics.NotificationsSent.WithLabelValues("telegram", result).Inc()
	}
}
