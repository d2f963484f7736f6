package internal

import (
	"context"
	"sync"
)

// SessionKey is the fixed storage key of the session token
const SessionKey = "docs_chat.session_id"

// SessionIdentity owns the durable session token. Only the push channel
// handshake assigns tokens; everything else reads them.
type SessionIdentity struct {
	store KVStore

	mu      sync.RWMutex
	current string
}

// NewSessionIdentity creates a session identity backed by store
func NewSessionIdentity(store KVStore) *SessionIdentity {
	return &SessionIdentity{store: store}
}

// Load reads the persisted token into memory and returns it. Absence and
// storage failures both yield "".
func (s *SessionIdentity) Load(ctx context.Context) string {
	token, ok, err := s.store.Get(ctx, SessionKey)
	if err != nil {
		LogWarn("Failed to load session token: %v", err)
		return s.Current()
	}
	if !ok {
		return s.Current()
	}

	s.mu.Lock()
	s.current = token
	s.mu.Unlock()
	return token
}

// Adopt makes token current and persists it. Re-adopting the current token
// is a no-op. The in-memory token is updated even when persisting fails.
func (s *SessionIdentity) Adopt(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	s.mu.Lock()
	if s.current == token {
		s.mu.Unlock()
		return nil
	}
	previous := s.current
	s.current = token
	s.mu.Unlock()

	if previous != "" {
		LogInfo("Session token replaced by server")
	}
	LogDebug("Adopted session token %s", token)

	return s.store.Set(ctx, SessionKey, token)
}

// Current returns the current token, or "" when none is known yet
func (s *SessionIdentity) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Forget deletes the persisted token and clears the in-memory copy. This is
// the explicit "clear storage" path used by the CLI.
func (s *SessionIdentity) Forget(ctx context.Context) error {
	s.mu.Lock()
	s.current = ""
	s.mu.Unlock()
	return s.store.Delete(ctx, SessionKey)
}
