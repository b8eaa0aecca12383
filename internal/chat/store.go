package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coachteam/internal/classifier"
	"coachteam/internal/routing"
)

// ThreadMetadata is the per-thread routing state stored as JSONB. It holds at
// most one pending handoff proposal.
type ThreadMetadata struct {
	PendingHandoff *routing.HandoffProposal `json:"pending_handoff,omitempty"`
}

type Thread struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Channel   routing.Role   `json:"channel"`
	Metadata  ThreadMetadata `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Message kinds stored in message metadata.
const (
	MessageTypeResponse        = "response"
	MessageTypeHandoffQuestion = "handoff_question"
	MessageTypeHandoffNotice   = "handoff_notice"
)

// MessageMetadata annotates assistant messages with the routing verdict that
// produced them. User messages carry empty metadata.
type MessageMetadata struct {
	Speaker            routing.Role        `json:"speaker,omitempty"`
	Rule               string              `json:"rule,omitempty"`
	Type               string              `json:"type,omitempty"`
	SafetyFlags        []classifier.Flag   `json:"safety_flags,omitempty"`
	HandoffSuggestedTo *routing.Role       `json:"handoff_suggested_to,omitempty"`
	HandoffMode        routing.HandoffMode `json:"handoff_mode,omitempty"`
}

type Message struct {
	ID        string          `json:"id"`
	ThreadID  string          `json:"thread_id"`
	Role      string          `json:"role"` // "user" or "assistant"
	Content   string          `json:"content"`
	Metadata  MessageMetadata `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store is the persistence surface the orchestrator needs. ThreadStore is the
// Postgres implementation; tests use an in-memory fake.
type Store interface {
	CreateThread(ctx context.Context, userID string, channel routing.Role) (Thread, error)
	GetThread(ctx context.Context, userID, threadID string) (Thread, error)
	FindActiveThread(ctx context.Context, userID string, channel routing.Role) (Thread, error)
	UpdateThreadState(ctx context.Context, threadID string, channel routing.Role, meta ThreadMetadata) error
	AppendMessage(ctx context.Context, threadID string, msg Message) (Message, error)
	ListMessages(ctx context.Context, threadID string, limit int) ([]Message, error)
}

type ThreadStore struct {
	db *sql.DB
}

func NewThreadStore(db *sql.DB) *ThreadStore {
	return &ThreadStore{db: db}
}

func (s *ThreadStore) CreateThread(ctx context.Context, userID string, channel routing.Role) (Thread, error) {
	if userID == "" {
		return Thread{}, fmt.Errorf("user ID is required")
	}

	thread := Thread{UserID: userID, Channel: channel}
	err := s.db.QueryRowContext(
		ctx,
		`INSERT INTO coachteam.coach_threads (user_id, channel, metadata)
		 VALUES ($1, $2, '{}')
		 RETURNING id, created_at, updated_at`,
		userID,
		string(channel),
	).Scan(&thread.ID, &thread.CreatedAt, &thread.UpdatedAt)
	if err != nil {
		return Thread{}, fmt.Errorf("create thread: %w", err)
	}
	return thread, nil
}

func (s *ThreadStore) GetThread(ctx context.Context, userID, threadID string) (Thread, error) {
	var thread Thread
	var channel string
	var metadata []byte
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, channel, metadata, created_at, updated_at
		 FROM coachteam.coach_threads
		 WHERE id = $1`,
		threadID,
	).Scan(&thread.ID, &thread.UserID, &channel, &metadata, &thread.CreatedAt, &thread.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Thread{}, ErrThreadNotFound
	}
	if err != nil {
		return Thread{}, fmt.Errorf("get thread: %w", err)
	}
	if userID != "" && thread.UserID != userID {
		return Thread{}, ErrThreadForbidden
	}

	thread.Channel = routing.Role(channel)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &thread.Metadata); err != nil {
			return Thread{}, fmt.Errorf("decode thread metadata: %w", err)
		}
	}
	return thread, nil
}

// FindActiveThread returns the most recently updated thread the user has on
// the given channel, or ErrThreadNotFound.
func (s *ThreadStore) FindActiveThread(ctx context.Context, userID string, channel routing.Role) (Thread, error) {
	if userID == "" {
		return Thread{}, fmt.Errorf("user ID is required")
	}

	var thread Thread
	var ch string
	var metadata []byte
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, channel, metadata, created_at, updated_at
		 FROM coachteam.coach_threads
		 WHERE user_id = $1 AND channel = $2
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		userID,
		string(channel),
	).Scan(&thread.ID, &thread.UserID, &ch, &metadata, &thread.CreatedAt, &thread.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Thread{}, ErrThreadNotFound
	}
	if err != nil {
		return Thread{}, fmt.Errorf("find active thread: %w", err)
	}

	thread.Channel = routing.Role(ch)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &thread.Metadata); err != nil {
			return Thread{}, fmt.Errorf("decode thread metadata: %w", err)
		}
	}
	return thread, nil
}

// UpdateThreadState writes the active channel and routing metadata in one
// statement; it is called at most once per turn.
func (s *ThreadStore) UpdateThreadState(ctx context.Context, threadID string, channel routing.Role, meta ThreadMetadata) error {
	metadata, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode thread metadata: %w", err)
	}

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE coachteam.coach_threads
		 SET channel = $1, metadata = $2, updated_at = NOW()
		 WHERE id = $3`,
		string(channel),
		metadata,
		threadID,
	)
	if err != nil {
		return fmt.Errorf("update thread state: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update thread state rows: %w", err)
	}
	if rows == 0 {
		return ErrThreadNotFound
	}
	return nil
}

func (s *ThreadStore) AppendMessage(ctx context.Context, threadID string, msg Message) (Message, error) {
	metadata, err := json.Marshal(msg.Metadata)
	if err != nil {
		return Message{}, fmt.Errorf("encode message metadata: %w", err)
	}

	msg.ThreadID = threadID
	err = s.db.QueryRowContext(
		ctx,
		`INSERT INTO coachteam.coach_messages (thread_id, role, content, metadata)
		 SELECT t.id, $2, $3, $4
		 FROM coachteam.coach_threads t
		 WHERE t.id = $1
		 RETURNING id, created_at`,
		threadID,
		msg.Role,
		msg.Content,
		metadata,
	).Scan(&msg.ID, &msg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, ErrThreadNotFound
	}
	if err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}

	if _, err := s.db.ExecContext(
		ctx,
		`UPDATE coachteam.coach_threads SET updated_at = NOW() WHERE id = $1`,
		threadID,
	); err != nil {
		return Message{}, fmt.Errorf("touch thread: %w", err)
	}
	return msg, nil
}

// ListMessages returns the most recent messages in chronological order.
// limit <= 0 returns the full thread.
func (s *ThreadStore) ListMessages(ctx context.Context, threadID string, limit int) ([]Message, error) {
	query := `SELECT id, thread_id, role, content, COALESCE(metadata, '{}'), created_at
		FROM coachteam.coach_messages
		WHERE thread_id = $1`

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.QueryContext(
			ctx,
			`SELECT * FROM (`+query+` ORDER BY created_at DESC LIMIT $2) recent ORDER BY created_at ASC`,
			threadID,
			limit,
		)
	} else {
		rows, err = s.db.QueryContext(ctx, query+` ORDER BY created_at ASC`, threadID)
	}
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		var metadata []byte
		if err := rows.Scan(&msg.ID, &msg.ThreadID, &msg.Role, &msg.Content, &metadata, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &msg.Metadata); err != nil {
				return nil, fmt.Errorf("decode message metadata: %w", err)
			}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages rows: %w", err)
	}
	return messages, nil
}
