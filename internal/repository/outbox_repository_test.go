package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/deskflow-io/deskflow/internal/models"
)

func TestEnqueueStampsIdempotencyKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewOutboxRepository(db)

	mock.ExpectQuery(`(?s)INSERT INTO outbox_notifications.*RETURNING id`).
		WithArgs(models.TopicTicketCreated, int64(5), int64(7), []byte(`{"ticket_id":5}`),
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(31)))

	n := &models.OutboxNotification{
		Topic:           models.TopicTicketCreated,
		TicketID:        5,
		RecipientUserID: 7,
		Payload:         []byte(`{"ticket_id":5}`),
	}
	if err := repo.Enqueue(context.Background(), nil, n); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if n.ID != 31 {
		t.Fatalf("unexpected id: %d", n.ID)
	}
	if _, err := uuid.Parse(n.IdempotencyKey); err != nil {
		t.Fatalf("idempotency key not a uuid: %q", n.IdempotencyKey)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnqueueKeepsCallerKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewOutboxRepository(db)

	mock.ExpectQuery(`INSERT INTO outbox_notifications`).
		WithArgs(models.TopicCommentAdded, int64(5), int64(7), []byte(`{}`),
			"fixed-key", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(32)))

	n := &models.OutboxNotification{
		Topic:           models.TopicCommentAdded,
		TicketID:        5,
		RecipientUserID: 7,
		Payload:         []byte(`{}`),
		IdempotencyKey:  "fixed-key",
	}
	if err := repo.Enqueue(context.Background(), nil, n); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if n.IdempotencyKey != "fixed-key" {
		t.Fatalf("key was replaced: %q", n.IdempotencyKey)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFetchPendingSkipsExhaustedRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewOutboxRepository(db)
	created := time.Now().Add(-time.Minute)

	cols := []string{"id", "topic", "ticket_id", "recipient_user_id", "payload",
		"idempotency_key", "attempts", "processed_at", "created_at"}
	mock.ExpectQuery(`(?s)WHERE processed_at IS NULL AND attempts < \$1.*ORDER BY created_at ASC`).
		WithArgs(5, 10).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), models.TopicTicketCreated, int64(5), int64(7), []byte(`{}`), "k1", 0, nil, created))

	pending, err := repo.FetchPending(context.Background(), 10, 5)
	if err != nil {
		t.Fatalf("FetchPending: %v", err)
	}
	if len(pending) != 1 || !pending[0].Pending() {
		t.Fatalf("unexpected pending set: %+v", pending)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkProcessedGuardsAgainstDoubleDelivery(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewOutboxRepository(db)

	mock.ExpectExec(`UPDATE outbox_notifications SET processed_at = \$1 WHERE id = \$2 AND processed_at IS NULL`).
		WithArgs(sqlmock.AnyArg(), int64(31)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkProcessed(context.Background(), 31); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
