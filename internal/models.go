package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who produced a transcript entry
type Sender string

const (
	SenderUser  Sender = "user"  // typed by the local user
	SenderBot   Sender = "bot"   // answered by the query channel
	SenderHuman Sender = "human" // human operator, via the push channel
)

// Message represents one transcript entry
type Message struct {
	ID        string   `json:"id" yaml:"id"`
	Text      string   `json:"text" yaml:"text"`
	Sender    Sender   `json:"sender" yaml:"sender"`
	Timestamp string   `json:"timestamp" yaml:"timestamp"`
	Sources   []Source `json:"sources,omitempty" yaml:"sources,omitempty"`
	IsError   bool     `json:"is_error,omitempty" yaml:"is_error,omitempty"`
	ThreadRef string   `json:"thread_ref,omitempty" yaml:"thread_ref,omitempty"`
}

// Source is a citation attached to a bot answer. The backend sends either
// {"source": "..."} objects or bare strings.
type Source struct {
	Source string `json:"source" yaml:"source"`
}

// UnmarshalJSON accepts both the object and the bare string form.
func (s *Source) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &s.Source)
	}
	var obj struct {
		Source string `json:"source"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("failed to parse source: %w", err)
	}
	s.Source = obj.Source
	return nil
}

// Answer is a successful query channel response
type Answer struct {
	Text      string
	Sources   []Source
	Timestamp string
}

// TranscriptSnapshot is a point-in-time copy of the conversation, used for
// export and display.
type TranscriptSnapshot struct {
	SessionID string    `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Messages  []Message `json:"messages" yaml:"messages"`
	Metadata  Metadata  `json:"metadata" yaml:"metadata"`
}

// Metadata contains additional snapshot information
type Metadata struct {
	ExportedAt   string `json:"exported_at,omitempty" yaml:"exported_at,omitempty"`
	APIURL       string `json:"api_url,omitempty" yaml:"api_url,omitempty"`
	MessageCount int    `json:"message_count" yaml:"message_count"`
}

// NewMessageID returns a time-ordered unique ID. UUIDv7 keeps IDs unique even
// for entries created within the same millisecond.
func NewMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Now returns the current time in the transcript timestamp format
func Now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp parses a transcript timestamp, returning the zero time for
// empty or unparseable values.
func ParseTimestamp(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}
	}
	return t
}

// NewUserMessage builds the optimistic entry for a user question
func NewUserMessage(text string) Message {
	return Message{Text: text, Sender: SenderUser}
}

// NewBotMessage builds the entry for a successful answer
func NewBotMessage(a *Answer) Message {
	return Message{
		Text:      a.Text,
		Sender:    SenderBot,
		Timestamp: a.Timestamp,
		Sources:   a.Sources,
	}
}

// NewErrorMessage builds the synthesized bot entry for a failed query
func NewErrorMessage(err error) Message {
	return Message{
		Text:    "Sorry, I encountered an error: " + UserMessage(err),
		Sender:  SenderBot,
		IsError: true,
	}
}

// NewHumanMessage builds the entry for a human operator reply
func NewHumanMessage(r HumanReply) Message {
	return Message{
		Text:      r.Message,
		Sender:    SenderHuman,
		Timestamp: r.Timestamp,
		ThreadRef: r.ThreadTS,
	}
}
