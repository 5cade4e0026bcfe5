package notifications

import (
	"context"
	"fmt"

	"github.com/deskflow-io/deskflow/internal/models"
	"github.com/deskflow-io/deskflow/internal/repository"
)

// Notifier turns an outbox row into a delivered email.
type Notifier struct {
	users    repository.UserRepository
	provider EmailProvider
}

// NewNotifier creates a notifier.
func NewNotifier(users repository.UserRepository, provider EmailProvider) *Notifier {
	return &Notifier{users: users, provider: provider}
}

// Notify resolves the recipient, renders the topic template and sends the
// message.
func (n *Notifier) Notify(ctx context.Context, row *models.OutboxNotification) error {
	recipient, err := n.users.GetByID(ctx, row.RecipientUserID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient %d: %w", row.RecipientUserID, err)
	}

	subject, body, err := Render(row, recipient)
	if err != nil {
		return err
	}

	return n.provider.Send(ctx, EmailMessage{
		To:      []string{recipient.Email},
		Subject: subject,
		Body:    body,
	})
}
