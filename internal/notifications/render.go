package notifications

import (
	"encoding/json"
	"fmt"

	"github.com/flosch/pongo2/v6"

	"github.com/deskflow-io/deskflow/internal/models"
)

type messageTemplate struct {
	subject *pongo2.Template
	body    *pongo2.Template
}

// Per-topic templates. The context carries the notification payload fields
// plus recipient_name.
var topicTemplates = map[string]messageTemplate{
	models.TopicTicketCreated: {
		subject: pongo2.Must(pongo2.FromString(`[#{{ ticket_id }}] Ticket received: {{ title }}`)),
		body: pongo2.Must(pongo2.FromString(`Hello {{ recipient_name }},

your ticket "{{ title }}" (#{{ ticket_id }}) has been recorded. We will get back to you as soon as possible.`)),
	},
	models.TopicTicketAssigned: {
		subject: pongo2.Must(pongo2.FromString(`[#{{ ticket_id }}] Assigned to you: {{ title }}`)),
		body: pongo2.Must(pongo2.FromString(`Hello {{ recipient_name }},

ticket "{{ title }}" (#{{ ticket_id }}) has been assigned to you.`)),
	},
	models.TopicStatusChanged: {
		subject: pongo2.Must(pongo2.FromString(`[#{{ ticket_id }}] Status changed: {{ title }}`)),
		body: pongo2.Must(pongo2.FromString(`Hello {{ recipient_name }},

the status of ticket "{{ title }}" (#{{ ticket_id }}) has changed.`)),
	},
	models.TopicCommentAdded: {
		subject: pongo2.Must(pongo2.FromString(`[#{{ ticket_id }}] New comment`)),
		body: pongo2.Must(pongo2.FromString(`Hello {{ recipient_name }},

there is a new comment on ticket #{{ ticket_id }}.`)),
	},
}

// Render produces the subject and body for a notification. Unknown topics
// are an error; the poller counts them as failures rather than guessing.
func Render(n *models.OutboxNotification, recipient *models.User) (subject, body string, err error) {
	tpl, ok := topicTemplates[n.Topic]
	if !ok {
		return "", "", fmt.Errorf("no template for topic %q", n.Topic)
	}

	ctx := pongo2.Context{"recipient_name": recipient.Name}
	var payload map[string]any
	if len(n.Payload) > 0 {
		if err := json.Unmarshal(n.Payload, &payload); err != nil {
			return "", "", fmt.Errorf("failed to decode notification payload: %w", err)
		}
		for k, v := range payload {
			ctx[k] = v
		}
	}

	subject, err = tpl.subject.Execute(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to render subject: %w", err)
	}
	body, err = tpl.body.Execute(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to render body: %w", err)
	}
	return subject, body, nil
}
