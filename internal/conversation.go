package internal

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Querier is the request/response side of the backend
type Querier interface {
	Ask(ctx context.Context, question, sessionToken string) (*Answer, error)
	Health(ctx context.Context) bool
}

// ConversationOptions tunes the background work started by Run
type ConversationOptions struct {
	APIURL         string        // recorded in snapshots
	HealthInterval time.Duration // 0 disables polling
}

// Conversation ties the session identity, both channels and the transcript
// together. Send is the only path that appends user and bot entries; Run's
// dispatcher is the only path that appends human entries and adopts tokens.
type Conversation struct {
	identity   *SessionIdentity
	query      Querier
	push       *PushClient
	transcript *Transcript
	opts       ConversationOptions

	busy    atomic.Bool
	healthy atomic.Bool
	checked atomic.Bool

	mu      sync.Mutex
	lastErr string
}

// NewConversation wires a conversation. push may be nil for one-shot use.
func NewConversation(identity *SessionIdentity, query Querier, push *PushClient, opts ConversationOptions) *Conversation {
	return &Conversation{
		identity:   identity,
		query:      query,
		push:       push,
		transcript: NewTranscript(),
		opts:       opts,
	}
}

// Send submits one question. The user entry is appended before the call and
// exactly one bot entry (answer or error) after it. It returns the bot
// entry, or a zero Message when the transcript was cleared while waiting.
// Empty input appends nothing and returns a *ValidationError; a second Send
// while one is in flight returns ErrBusy.
func (c *Conversation) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		err := &ValidationError{Field: "message", Reason: "must not be empty"}
		c.setLastError(UserMessage(err))
		return Message{}, err
	}

	if !c.busy.CompareAndSwap(false, true) {
		return Message{}, ErrBusy
	}
	defer c.busy.Store(false)

	c.ClearError()
	_, epoch := c.transcript.AppendInEpoch(NewUserMessage(text))

	answer, err := c.query.Ask(ctx, text, c.identity.Current())
	if err != nil {
		Logger().Warn("query failed",
			zap.String("kind", string(Classify(err).Kind)),
			zap.Error(err))
		stored, ok := c.transcript.AppendIfEpoch(epoch, NewErrorMessage(err))
		if ok {
			c.setLastError(UserMessage(err))
		}
		return stored, err
	}

	stored, ok := c.transcript.AppendIfEpoch(epoch, NewBotMessage(answer))
	if !ok {
		LogDebug("Discarding answer that arrived after the transcript was cleared")
	}
	return stored, nil
}

// Run starts the push subscription, its dispatcher and the health poller,
// and blocks until ctx is cancelled. Push failures are logged, never
// returned.
func (c *Conversation) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if c.push != nil {
		g.Go(func() error {
			if err := c.push.Run(gctx); err != nil {
				LogWarn("Push channel ended: %v", err)
			}
			return nil
		})
		g.Go(func() error {
			for ev := range c.push.Events() {
				c.dispatch(gctx, ev)
			}
			return nil
		})
	}

	if c.opts.HealthInterval > 0 {
		g.Go(func() error {
			c.pollHealth(gctx)
			return nil
		})
	}

	return g.Wait()
}

func (c *Conversation) dispatch(ctx context.Context, ev Event) {
	switch e := ev.(type) {
	case SessionEstablished:
		// Persist even when shutdown has started.
		if err := c.identity.Adopt(context.WithoutCancel(ctx), e.SessionID); err != nil {
			LogWarn("Failed to persist session token: %v", err)
		}
	case HumanReply:
		c.transcript.Append(NewHumanMessage(e))
	default:
		LogDebug("Ignoring push event of type %q", ev.EventType())
	}
}

func (c *Conversation) pollHealth(ctx context.Context) {
	ticker := time.NewTicker(c.opts.HealthInterval)
	defer ticker.Stop()

	for {
		c.CheckHealth(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// CheckHealth probes the backend once and records the result
func (c *Conversation) CheckHealth(ctx context.Context) bool {
	ok := c.query.Health(ctx)
	if ctx.Err() != nil {
		return c.healthy.Load()
	}
	if prev := c.healthy.Swap(ok); prev != ok || !c.checked.Load() {
		LogDebug("API reachable: %v", ok)
	}
	c.checked.Store(true)
	return ok
}

// Healthy returns the last health probe result and whether any probe has
// completed yet.
func (c *Conversation) Healthy() (healthy, known bool) {
	return c.healthy.Load(), c.checked.Load()
}

// Clear empties the transcript and the last error. The session token is
// kept.
func (c *Conversation) Clear() {
	c.transcript.Clear()
	c.ClearError()
}

// LastError returns the user-facing text of the last failure, or ""
func (c *Conversation) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ClearError dismisses the last error
func (c *Conversation) ClearError() {
	c.setLastError("")
}

func (c *Conversation) setLastError(msg string) {
	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()
}

// Busy reports whether a question is in flight
func (c *Conversation) Busy() bool {
	return c.busy.Load()
}

// Transcript exposes the transcript for change notifications
func (c *Conversation) Transcript() *Transcript {
	return c.transcript
}

// Identity returns the session identity
func (c *Conversation) Identity() *SessionIdentity {
	return c.identity
}

// Push returns the push client, or nil
func (c *Conversation) Push() *PushClient {
	return c.push
}

// Snapshot captures the transcript with session and export metadata
func (c *Conversation) Snapshot() *TranscriptSnapshot {
	messages := c.transcript.Snapshot()
	return &TranscriptSnapshot{
		SessionID: c.identity.Current(),
		Messages:  messages,
		Metadata: Metadata{
			ExportedAt:   Now(),
			APIURL:       c.opts.APIURL,
			MessageCount: len(messages),
		},
	}
}
