package notifications

import (
	"strings"
	"testing"
)

func TestFormatMessageListsAllRecipients(t *testing.T) {
	raw := string(formatMessage("deskflow@example.com", EmailMessage{
		To:      []string{"a@example.com", "b@example.com"},
		Subject: "Ticket #55 updated",
		Body:    "The status changed.",
	}))

	if !strings.Contains(raw, "From: deskflow@example.com\r\n") {
		t.Errorf("missing From header: %q", raw)
	}
	if !strings.Contains(raw, "To: a@example.com, b@example.com\r\n") {
		t.Errorf("missing combined To header: %q", raw)
	}
	if !strings.Contains(raw, "Content-Type: text/plain") {
		t.Errorf("plain message must carry text/plain: %q", raw)
	}
	if !strings.HasSuffix(raw, "\r\n\r\nThe status changed.") {
		t.Errorf("body must follow a blank line: %q", raw)
	}
}

func TestFormatMessageHTMLContentType(t *testing.T) {
	raw := string(formatMessage("deskflow@example.com", EmailMessage{
		To:      []string{"a@example.com"},
		Subject: "s",
		Body:    "<p>hi</p>",
		HTML:    true,
	}))
	if !strings.Contains(raw, "Content-Type: text/html") {
		t.Errorf("html message must carry text/html: %q", raw)
	}
}
