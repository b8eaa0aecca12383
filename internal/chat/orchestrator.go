package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"coachteam/internal/routing"
	"coachteam/pkg/llm"
	"coachteam/pkg/logging"

	"golang.org/x/sync/errgroup"
)

const (
	defaultHistoryLimit      = 20
	defaultCompletionTimeout = 45 * time.Second
)

// Orchestrator runs one linear pass per inbound user message: resolve the
// thread, persist the message, route it, negotiate handoffs and fan out to
// the completion service.
type Orchestrator struct {
	store    Store
	engine   *routing.Engine
	provider llm.Provider
	logger   logging.Logger

	historyLimit      int
	completionTimeout time.Duration

	// threadLocks serializes concurrent turns on the same thread. Entries
	// are reference counted so an idle thread's lock can be dropped without
	// racing a waiter that already holds the pointer. For horizontal
	// scaling, replace with pg_advisory_xact_lock.
	locksMu     sync.Mutex
	threadLocks map[string]*threadLock
}

type threadLock struct {
	mu   sync.Mutex
	refs int
}

type OrchestratorConfig struct {
	Store             Store
	Engine            *routing.Engine
	Provider          llm.Provider
	Logger            logging.Logger
	HistoryLimit      int
	CompletionTimeout time.Duration
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	timeout := cfg.CompletionTimeout
	if timeout <= 0 {
		timeout = defaultCompletionTimeout
	}
	return &Orchestrator{
		store:             cfg.Store,
		engine:            cfg.Engine,
		provider:          cfg.Provider,
		logger:            cfg.Logger,
		historyLimit:      historyLimit,
		completionTimeout: timeout,
		threadLocks:       make(map[string]*threadLock),
	}
}

func (o *Orchestrator) lockThread(threadID string) *threadLock {
	o.locksMu.Lock()
	entry, ok := o.threadLocks[threadID]
	if !ok {
		entry = &threadLock{}
		o.threadLocks[threadID] = entry
	}
	entry.refs++
	o.locksMu.Unlock()

	entry.mu.Lock()
	return entry
}

func (o *Orchestrator) unlockThread(threadID string, entry *threadLock) {
	entry.mu.Unlock()

	o.locksMu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(o.threadLocks, threadID)
	}
	o.locksMu.Unlock()
}

type SendMessageInput struct {
	UserID   string
	Channel  routing.Role
	Text     string
	ThreadID string
}

// RoleView is the display hint the UI shows while a specialist "types".
type RoleView struct {
	Role   routing.Role `json:"role"`
	Name   string       `json:"name"`
	Avatar string       `json:"avatar"`
}

type SendMessageResult struct {
	ThreadID string           `json:"thread_id"`
	Channel  routing.Role     `json:"channel"`
	Messages []Message        `json:"messages"`
	Decision routing.Decision `json:"routing"`
	Typing   []RoleView       `json:"typing"`
}

// SendMessage processes one user turn end to end. The user message is
// persisted before routing, so it survives even when every completion fails.
func (o *Orchestrator) SendMessage(ctx context.Context, in SendMessageInput) (SendMessageResult, error) {
	thread, err := o.resolveThread(ctx, in)
	if err != nil {
		return SendMessageResult{}, err
	}

	entry := o.lockThread(thread.ID)
	turnsActive.Inc()
	defer func() {
		turnsActive.Dec()
		o.unlockThread(thread.ID, entry)
	}()

	// Re-read under the lock so a concurrent turn's channel switch or
	// proposal is visible.
	thread, err = o.store.GetThread(ctx, in.UserID, thread.ID)
	if err != nil {
		return SendMessageResult{}, err
	}

	history, err := o.store.ListMessages(ctx, thread.ID, o.historyLimit)
	if err != nil {
		return SendMessageResult{}, err
	}

	if _, err := o.store.AppendMessage(ctx, thread.ID, Message{
		Role:    "user",
		Content: in.Text,
	}); err != nil {
		return SendMessageResult{}, err
	}

	decision := o.engine.Route(routing.Input{
		Text:    in.Text,
		Channel: thread.Channel,
		Pending: thread.Metadata.PendingHandoff,
	})
	routingDecisionsTotal.WithLabelValues(decision.Rule, string(decision.Mode)).Inc()
	o.logger.WithFields(logging.Fields{
		"thread_id": thread.ID,
		"channel":   thread.Channel,
		"rule":      decision.Rule,
		"mode":      decision.Mode,
		"roles":     decision.SelectedRoles,
	}).Info("Routing decision")

	result := SendMessageResult{
		ThreadID: thread.ID,
		Channel:  thread.Channel,
		Decision: decision,
	}

	switch {
	case decision.ExecuteHandoff:
		notice, err := o.executeHandoff(ctx, &thread, decision.SelectedRoles[0])
		if err != nil {
			return SendMessageResult{}, err
		}
		handoffEventsTotal.WithLabelValues("confirmed").Inc()
		result.Messages = append(result.Messages, notice)

	case decision.CancelHandoff:
		thread.Metadata.PendingHandoff = nil
		if err := o.store.UpdateThreadState(ctx, thread.ID, thread.Channel, thread.Metadata); err != nil {
			return SendMessageResult{}, err
		}
		handoffEventsTotal.WithLabelValues("rejected").Inc()

	case decision.RequireUserConfirmation:
		question, err := o.proposeHandoff(ctx, &thread, decision)
		if err != nil {
			return SendMessageResult{}, err
		}
		handoffEventsTotal.WithLabelValues("proposed").Inc()
		// The question is the whole answer for this turn: no completion call.
		result.Channel = thread.Channel
		result.Messages = append(result.Messages, question)
		return result, nil

	case decision.HandoffMode == routing.HandoffSeamless && decision.HandoffSuggestedTo != nil:
		notice, err := o.executeHandoff(ctx, &thread, *decision.HandoffSuggestedTo)
		if err != nil {
			return SendMessageResult{}, err
		}
		handoffEventsTotal.WithLabelValues("seamless").Inc()
		result.Messages = append(result.Messages, notice)
	}
	result.Channel = thread.Channel

	responses, err := o.runCompletions(ctx, thread, decision, history, in.Text)
	if err != nil {
		return SendMessageResult{}, err
	}
	result.Messages = append(result.Messages, responses...)
	for _, role := range decision.SelectedRoles {
		info := role.Info()
		result.Typing = append(result.Typing, RoleView{Role: role, Name: info.Name, Avatar: info.Avatar})
	}
	return result, nil
}

// GetThread returns a thread with its recent messages after an ownership
// check.
func (o *Orchestrator) GetThread(ctx context.Context, userID, threadID string, limit int) (Thread, []Message, error) {
	thread, err := o.store.GetThread(ctx, userID, threadID)
	if err != nil {
		return Thread{}, nil, err
	}
	messages, err := o.store.ListMessages(ctx, threadID, limit)
	if err != nil {
		return Thread{}, nil, err
	}
	return thread, messages, nil
}

func (o *Orchestrator) resolveThread(ctx context.Context, in SendMessageInput) (Thread, error) {
	if in.ThreadID != "" {
		return o.store.GetThread(ctx, in.UserID, in.ThreadID)
	}
	thread, err := o.store.FindActiveThread(ctx, in.UserID, in.Channel)
	if err == nil {
		return thread, nil
	}
	if err != ErrThreadNotFound {
		return Thread{}, err
	}
	return o.store.CreateThread(ctx, in.UserID, in.Channel)
}

// executeHandoff switches the active channel, clears the pending proposal and
// persists the visible notice.
func (o *Orchestrator) executeHandoff(ctx context.Context, thread *Thread, to routing.Role) (Message, error) {
	thread.Channel = to
	thread.Metadata.PendingHandoff = nil
	if err := o.store.UpdateThreadState(ctx, thread.ID, to, thread.Metadata); err != nil {
		return Message{}, err
	}
	return o.store.AppendMessage(ctx, thread.ID, Message{
		Role:    "assistant",
		Content: fmt.Sprintf("Подключаю %s.", to.Accusative()),
		Metadata: MessageMetadata{
			Speaker: to,
			Type:    MessageTypeHandoffNotice,
		},
	})
}

// proposeHandoff stores the pending proposal and persists the confirmation
// question the current channel asks the user.
func (o *Orchestrator) proposeHandoff(ctx context.Context, thread *Thread, decision routing.Decision) (Message, error) {
	to := *decision.HandoffSuggestedTo
	thread.Metadata.PendingHandoff = &routing.HandoffProposal{
		To:     to,
		From:   thread.Channel,
		Reason: decision.Reason,
	}
	if err := o.store.UpdateThreadState(ctx, thread.ID, thread.Channel, thread.Metadata); err != nil {
		return Message{}, err
	}
	return o.store.AppendMessage(ctx, thread.ID, Message{
		Role:    "assistant",
		Content: fmt.Sprintf("%s. Подключить %s?", decision.Reason, to.Accusative()),
		Metadata: MessageMetadata{
			Speaker:            thread.Channel,
			Rule:               decision.Rule,
			Type:               MessageTypeHandoffQuestion,
			SafetyFlags:        decision.SafetyFlags,
			HandoffSuggestedTo: &to,
			HandoffMode:        decision.HandoffMode,
		},
	})
}

// runCompletions fans out one completion call per selected role. A partial
// failure in multi mode is tolerated; the turn fails only when every call
// fails.
func (o *Orchestrator) runCompletions(ctx context.Context, thread Thread, decision routing.Decision, history []Message, userText string) ([]Message, error) {
	roles := decision.SelectedRoles
	userPrompt := renderUserPrompt(history, userText)

	contents := make([]string, len(roles))
	errs := make([]error, len(roles))
	g, gctx := errgroup.WithContext(ctx)
	for i, role := range roles {
		i, role := i, role
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, o.completionTimeout)
			defer cancel()

			started := time.Now()
			content, err := o.provider.Complete(callCtx, SystemPrompt(role), userPrompt)
			completionDuration.WithLabelValues(string(role)).Observe(time.Since(started).Seconds())
			if err != nil {
				completionCallsTotal.WithLabelValues(string(role), "error").Inc()
				o.logger.WithError(err).WithFields(logging.Fields{
					"thread_id": thread.ID,
					"role":      role,
				}).Warn("Completion call failed")
				errs[i] = err
				return nil
			}
			completionCallsTotal.WithLabelValues(string(role), "ok").Inc()
			contents[i] = content
			return nil
		})
	}
	_ = g.Wait()

	var messages []Message
	for i, role := range roles {
		if errs[i] != nil {
			continue
		}
		msg, err := o.store.AppendMessage(ctx, thread.ID, Message{
			Role:    "assistant",
			Content: contents[i],
			Metadata: MessageMetadata{
				Speaker:            role,
				Rule:               decision.Rule,
				Type:               MessageTypeResponse,
				SafetyFlags:        decision.SafetyFlags,
				HandoffSuggestedTo: decision.HandoffSuggestedTo,
				HandoffMode:        decision.HandoffMode,
			},
		})
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if len(messages) == 0 {
		for _, err := range errs {
			if err != nil {
				return nil, fmt.Errorf("completion failed: %w", err)
			}
		}
		return nil, fmt.Errorf("no roles selected")
	}
	return messages, nil
}

// renderUserPrompt flattens the recent history plus the new message into the
// completion user prompt. Speakers keep their display names so the model sees
// who said what.
func renderUserPrompt(history []Message, userText string) string {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Недавняя переписка:\n")
		for _, msg := range history {
			if msg.Content == "" {
				continue
			}
			speaker := "Пользователь"
			if msg.Role == "assistant" {
				speaker = msg.Metadata.Speaker.Info().Name
			}
			b.WriteString(speaker)
			b.WriteString(": ")
			b.WriteString(msg.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Новое сообщение пользователя:\n")
	b.WriteString(userText)
	return b.String()
}
