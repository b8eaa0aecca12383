package chat

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"coachteam/internal/routing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*ThreadStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewThreadStore(db), mock
}

func TestCreateThread(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO coachteam.coach_threads`)).
		WithArgs("user-1", "team").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("thread-1", now, now))

	thread, err := store.CreateThread(context.Background(), "user-1", routing.RoleTeam)
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	if thread.ID != "thread-1" || thread.Channel != routing.RoleTeam {
		t.Fatalf("unexpected thread %+v", thread)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateThreadRequiresUser(t *testing.T) {
	store, _ := newMockStore(t)
	if _, err := store.CreateThread(context.Background(), "", routing.RoleTeam); err == nil {
		t.Fatal("expected error for missing user")
	}
}

func TestGetThreadParsesMetadata(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()
	metadata := []byte(`{"pending_handoff":{"to":"doctor","from":"trainer","reason":"checkup"}}`)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, channel, metadata, created_at, updated_at`)).
		WithArgs("thread-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "channel", "metadata", "created_at", "updated_at"}).
			AddRow("thread-1", "user-1", "trainer", metadata, now, now))

	thread, err := store.GetThread(context.Background(), "user-1", "thread-1")
	if err != nil {
		t.Fatalf("get thread: %v", err)
	}
	if thread.Channel != routing.RoleTrainer {
		t.Fatalf("unexpected channel %q", thread.Channel)
	}
	pending := thread.Metadata.PendingHandoff
	if pending == nil || pending.To != routing.RoleDoctor || pending.From != routing.RoleTrainer {
		t.Fatalf("unexpected pending handoff %+v", pending)
	}
}

func TestGetThreadOwnership(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, channel, metadata, created_at, updated_at`)).
		WithArgs("thread-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "channel", "metadata", "created_at", "updated_at"}).
			AddRow("thread-1", "someone-else", "team", []byte(`{}`), now, now))

	if _, err := store.GetThread(context.Background(), "user-1", "thread-1"); !errors.Is(err, ErrThreadForbidden) {
		t.Fatalf("expected ErrThreadForbidden, got %v", err)
	}
}

func TestGetThreadNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, channel, metadata, created_at, updated_at`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	if _, err := store.GetThread(context.Background(), "user-1", "missing"); !errors.Is(err, ErrThreadNotFound) {
		t.Fatalf("expected ErrThreadNotFound, got %v", err)
	}
}

func TestUpdateThreadState(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE coachteam.coach_threads`)).
		WithArgs("nutritionist", []byte(`{}`), "thread-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpdateThreadState(context.Background(), "thread-1", routing.RoleNutritionist, ThreadMetadata{})
	if err != nil {
		t.Fatalf("update thread state: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateThreadStateNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE coachteam.coach_threads`)).
		WithArgs("trainer", []byte(`{}`), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateThreadState(context.Background(), "missing", routing.RoleTrainer, ThreadMetadata{})
	if !errors.Is(err, ErrThreadNotFound) {
		t.Fatalf("expected ErrThreadNotFound, got %v", err)
	}
}

func TestUpdateThreadStateRowsError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE coachteam.coach_threads`)).
		WithArgs("trainer", []byte(`{}`), "thread-1").
		WillReturnResult(sqlmock.NewErrorResult(errors.New("rows unavailable")))

	err := store.UpdateThreadState(context.Background(), "thread-1", routing.RoleTrainer, ThreadMetadata{})
	if err == nil || errors.Is(err, ErrThreadNotFound) {
		t.Fatalf("expected rows error, got %v", err)
	}
}

func TestAppendMessage(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO coachteam.coach_messages`)).
		WithArgs("thread-1", "user", "привет", []byte(`{}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("msg-1", now))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE coachteam.coach_threads SET updated_at = NOW()`)).
		WithArgs("thread-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	msg, err := store.AppendMessage(context.Background(), "thread-1", Message{Role: "user", Content: "привет"})
	if err != nil {
		t.Fatalf("append message: %v", err)
	}
	if msg.ID != "msg-1" || msg.ThreadID != "thread-1" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendMessageThreadMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO coachteam.coach_messages`)).
		WithArgs("missing", "user", "привет", []byte(`{}`)).
		WillReturnError(sql.ErrNoRows)

	if _, err := store.AppendMessage(context.Background(), "missing", Message{Role: "user", Content: "привет"}); !errors.Is(err, ErrThreadNotFound) {
		t.Fatalf("expected ErrThreadNotFound, got %v", err)
	}
}

func TestListMessagesWithLimit(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC LIMIT $2`)).
		WithArgs("thread-1", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "thread_id", "role", "content", "metadata", "created_at"}).
			AddRow("msg-1", "thread-1", "user", "привет", []byte(`{}`), now).
			AddRow("msg-2", "thread-1", "assistant", "здравствуйте", []byte(`{"speaker":"team","type":"response"}`), now))

	messages, err := store.ListMessages(context.Background(), "thread-1", 2)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[1].Metadata.Speaker != routing.RoleTeam {
		t.Fatalf("unexpected metadata %+v", messages[1].Metadata)
	}
}
