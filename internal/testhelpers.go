package internal

import (
	"time"
)

// CreateTestSnapshot creates a transcript snapshot with sample data
func CreateTestSnapshot(sessionID string) *TranscriptSnapshot {
	now := time.Now().UTC().Format(time.RFC3339)
	return CreateTestSnapshotWithMessages(sessionID, []Message{
		{
			ID:        "msg-1",
			Text:      "How do I rotate an API key?",
			Sender:    SenderUser,
			Timestamp: now,
		},
		{
			ID:        "msg-2",
			Text:      "Open **Settings > Keys** and choose Rotate.",
			Sender:    SenderBot,
			Timestamp: now,
			Sources:   []Source{{Source: "docs/keys"}},
		},
	})
}

// CreateTestSnapshotWithMessages creates a snapshot with custom messages
func CreateTestSnapshotWithMessages(sessionID string, messages []Message) *TranscriptSnapshot {
	return &TranscriptSnapshot{
		SessionID: sessionID,
		Messages:  messages,
		Metadata: Metadata{
			ExportedAt:   time.Now().UTC().Format(time.RFC3339),
			APIURL:       "http://localhost:5000",
			MessageCount: len(messages),
		},
	}
}
