package email

import (
	"context"
	"log/slog"

	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// MockSMTPNotifier is a secondary adapter that mocks sending emails.
// It implements the ports.Notifier interface.
type MockSMTPNotifier struct {
	logger *slog.Logger
}

// NewMockSMTPNotifier creates a new mock notifier.
func NewMockSMTPNotifier(logger *slog.Logger) ports.Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &MockSMTPNotifier{
		logger: logger.With("component", "email_notifier"),
	}
}

// Notify logs the notification to the console instead of sending an
// email. Callers invoke it off the request path; failures stay here.
func (n *MockSMTPNotifier) Notify(ctx context.Context, params ports.NotificationParams) {
	n.logger.Info("mock email sent",
		"to_name", params.Recipient.DisplayName(),
		"to_username", params.Recipient.Username,
		"subject", params.Subject,
		"message", params.Message,
		"ticket_id", params.TicketID,
	)
}
