package internal

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ConnectionState is the push channel's connection status
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected" // before the first attempt
	StateConnecting   ConnectionState = "connecting"
	StateOpen         ConnectionState = "open"
	StateClosed       ConnectionState = "closed" // ended cleanly
	StateError        ConnectionState = "error"  // ended by a transport failure
)

// Connected reports whether events can currently arrive
func (s ConnectionState) Connected() bool {
	return s == StateOpen
}

// ErrAlreadyStarted is returned when Run is called twice on one client.
var ErrAlreadyStarted = errors.New("push client already started")

const sessionHintParam = "session_id"

// TokenSource supplies the last-known session token for the handshake hint
type TokenSource interface {
	Current() string
}

// PushClient maintains the WebSocket subscription to the notification
// source. Decoded events are delivered on Events(); the client never writes
// to the transcript or the session itself.
type PushClient struct {
	rawURL string
	tokens TokenSource
	policy ReconnectPolicy
	dialer *websocket.Dialer

	events  chan Event
	stateCh chan ConnectionState

	mu      sync.Mutex
	state   ConnectionState
	lastErr error
	started bool
	closed  bool
	cancel  context.CancelFunc
}

// NewPushClient creates a client for the push endpoint at rawURL
func NewPushClient(rawURL string, tokens TokenSource, policy ReconnectPolicy) *PushClient {
	return &PushClient{
		rawURL: rawURL,
		tokens: tokens,
		policy: policy,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 15 * time.Second,
		},
		events:  make(chan Event, 64),
		stateCh: make(chan ConnectionState, 1),
		state:   StateDisconnected,
	}
}

// Events delivers decoded, recognised events. It is closed when Run returns.
func (c *PushClient) Events() <-chan Event {
	return c.events
}

// StateChanges delivers the latest connection state. Intermediate states
// may be skipped by slow readers.
func (c *PushClient) StateChanges() <-chan ConnectionState {
	return c.stateCh
}

// State returns the current connection state
func (c *PushClient) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the most recent transport error, kept for diagnostics
func (c *PushClient) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Run subscribes and pumps events until ctx is cancelled, Close is called,
// or the subscription ends and the reconnect policy gives up. It returns
// nil on teardown and the last transport error otherwise. The connection
// is always closed before Run returns.
func (c *PushClient) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	if c.closed {
		c.mu.Unlock()
		close(c.events)
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	defer close(c.events)
	defer cancel()

	attempt := 0
	for {
		opened, err := c.runOnce(ctx)
		if ctx.Err() != nil {
			c.setState(StateClosed, nil)
			return nil
		}
		if opened {
			attempt = 0
		}
		if !c.policy.Enabled() || attempt >= c.policy.MaxAttempts {
			if err != nil {
				LogWarn("Push channel stopped: %v", err)
			} else {
				LogInfo("Push channel closed")
			}
			return err
		}

		attempt++
		LogInfo("Push channel reconnecting (attempt %d/%d) in %s",
			attempt, c.policy.MaxAttempts, c.policy.Delay(attempt))
		if err := c.policy.wait(ctx, attempt); err != nil {
			c.setState(StateClosed, nil)
			return nil
		}
	}
}

// Close tears the subscription down. Safe to call more than once, and
// before Run.
func (c *PushClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
}

// runOnce performs one connect-and-read cycle. opened reports whether the
// handshake succeeded; err is nil for a clean close.
func (c *PushClient) runOnce(ctx context.Context) (opened bool, err error) {
	c.setState(StateConnecting, nil)

	target, err := c.target()
	if err != nil {
		c.setState(StateError, err)
		return false, err
	}

	conn, resp, err := c.dialer.DialContext(ctx, target, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if ctx.Err() != nil {
			return false, nil
		}
		LogDebug("Push channel handshake failed: %v", err)
		c.setState(StateError, err)
		return false, err
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	c.setState(StateOpen, nil)
	LogDebug("Push channel open")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true, nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.setState(StateClosed, nil)
				return true, nil
			}
			c.setState(StateError, err)
			return true, err
		}

		ev, err := DecodeEvent(data)
		if err != nil {
			LogWarn("Dropping push frame: %v", err)
			continue
		}
		if unknown, ok := ev.(UnknownEvent); ok {
			LogDebug("Ignoring push event of type %q", unknown.Type)
			continue
		}

		select {
		case c.events <- ev:
		case <-ctx.Done():
			return true, nil
		}
	}
}

func (c *PushClient) target() (string, error) {
	u, err := url.Parse(c.rawURL)
	if err != nil {
		return "", &ConfigError{Key: "push_url", Err: err}
	}
	if c.tokens != nil {
		if hint := c.tokens.Current(); hint != "" {
			q := u.Query()
			q.Set(sessionHintParam, hint)
			u.RawQuery = q.Encode()
		}
	}
	return u.String(), nil
}

func (c *PushClient) setState(s ConnectionState, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
	if err != nil {
		c.lastErr = err
	}

	select {
	case <-c.stateCh:
	default:
	}
	select {
	case c.stateCh <- s:
	default:
	}
}
