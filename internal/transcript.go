package internal

import "sync"

// Transcript is the ordered, append-only conversation. It is the single
// append point for every producer; the mutex makes each append atomic, so
// entries appear in the order Append was called.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
	epoch    uint64
	changes  chan struct{}
}

// NewTranscript creates an empty transcript
func NewTranscript() *Transcript {
	return &Transcript{
		messages: make([]Message, 0),
		changes:  make(chan struct{}, 1),
	}
}

// Append adds msg to the end, filling in ID and Timestamp when absent, and
// returns the stored copy.
func (t *Transcript) Append(msg Message) Message {
	t.mu.Lock()
	stored := t.appendLocked(msg)
	t.mu.Unlock()

	t.notify()
	return stored
}

// AppendIfEpoch appends msg only if the transcript has not been cleared
// since epoch was observed. Late answers to questions asked before a clear
// are dropped this way.
func (t *Transcript) AppendIfEpoch(epoch uint64, msg Message) (Message, bool) {
	t.mu.Lock()
	if t.epoch != epoch {
		t.mu.Unlock()
		return Message{}, false
	}
	stored := t.appendLocked(msg)
	t.mu.Unlock()

	t.notify()
	return stored, true
}

// AppendInEpoch appends msg and returns the epoch it landed in, read under
// the same lock.
func (t *Transcript) AppendInEpoch(msg Message) (Message, uint64) {
	t.mu.Lock()
	stored := t.appendLocked(msg)
	epoch := t.epoch
	t.mu.Unlock()

	t.notify()
	return stored, epoch
}

func (t *Transcript) appendLocked(msg Message) Message {
	if msg.ID == "" {
		msg.ID = NewMessageID()
	}
	if msg.Timestamp == "" {
		msg.Timestamp = Now()
	}
	if len(msg.Sources) > 0 {
		msg.Sources = append([]Source(nil), msg.Sources...)
	}
	t.messages = append(t.messages, msg)
	return msg
}

// Clear empties the transcript and starts a new epoch
func (t *Transcript) Clear() {
	t.mu.Lock()
	t.messages = make([]Message, 0)
	t.epoch++
	t.mu.Unlock()

	t.notify()
}

// Snapshot returns a copy of the current messages in order
func (t *Transcript) Snapshot() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	for i := range out {
		if len(out[i].Sources) > 0 {
			out[i].Sources = append([]Source(nil), out[i].Sources...)
		}
	}
	return out
}

// Len returns the number of messages
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// Epoch returns the current clear generation
func (t *Transcript) Epoch() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.epoch
}

// Changes signals after every mutation. Signals coalesce: a reader that
// falls behind sees one pending signal and should re-read Snapshot.
func (t *Transcript) Changes() <-chan struct{} {
	return t.changes
}

func (t *Transcript) notify() {
	select {
	case t.changes <- struct{}{}:
	default:
	}
}
