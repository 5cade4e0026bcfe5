package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/deskflow-io/deskflow/internal/models"
)

// The audit trail outlives the ticket: listing events applies the caller's
// scope but never the soft-delete flag, so the trail of a deleted ticket
// stays readable. The matcher fails the test if the query ever grows an
// is_deleted filter.
func TestTicketEventsSurviveSoftDelete(t *testing.T) {
	matcher := sqlmock.QueryMatcherFunc(func(expected, actual string) error {
		if err := sqlmock.QueryMatcherRegexp.Match(expected, actual); err != nil {
			return err
		}
		if strings.Contains(actual, "is_deleted") {
			return fmt.Errorf("audit trail query must not filter on the soft-delete flag:\n%s", actual)
		}
		return nil
	})
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(matcher))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "ticket_id", "actor_id", "event_type", "old_value", "new_value", "created_at"}).
		AddRow(1, 55, 9, "TICKET_CREATED", "", "Printer broken", now.Add(-time.Hour)).
		AddRow(2, 55, 1, "TICKET_DELETED", "", "", now)
	mock.ExpectQuery(`(?s)SELECT e\.id, .* FROM ticket_events e.*JOIN tickets t ON t\.id = e\.ticket_id.*WHERE e\.ticket_id = \$1 AND`).
		WithArgs(int64(55), int64(10)).
		WillReturnRows(rows)

	repo := NewEventRepository(db)
	events, err := repo.ListByTicket(context.Background(), adminScope(), 55)
	if err != nil {
		t.Fatalf("ListByTicket: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[1].Type != models.EventTicketDeleted {
		t.Errorf("expected trailing %s event, got %s", models.EventTicketDeleted, events[1].Type)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
