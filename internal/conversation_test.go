package internal

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/docs-chat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatHarness struct {
	db    *sql.DB
	query *testutil.QueryServer
	push  *testutil.PushServer
	conv  *Conversation
}

func newChatHarness(t *testing.T, withPush bool) *chatHarness {
	t.Helper()
	h := &chatHarness{
		db:    testutil.CreateInMemoryDB(t),
		query: testutil.NewQueryServer(t, "ok"),
	}
	identity := NewSessionIdentity(NewStorage(h.db, ":memory:"))
	identity.Load(context.Background())

	var push *PushClient
	if withPush {
		h.push = testutil.NewPushServer(t)
		push = NewPushClient(h.push.URL(), identity, ReconnectPolicy{})
	}
	client := NewQueryClient(h.query.URL, 5*time.Second, h.query.Client())
	h.conv = NewConversation(identity, client, push, ConversationOptions{APIURL: h.query.URL})
	return h
}

// run starts the conversation's background work and stops it on cleanup
func (h *chatHarness) run(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.conv.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("conversation did not stop")
		}
	})
	if h.push != nil {
		h.push.WaitForConnection(t, 5*time.Second)
	}
}

// waitForLen blocks until the transcript holds n entries
func waitForLen(t *testing.T, conv *Conversation, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return conv.Transcript().Len() == n
	}, 5*time.Second, 5*time.Millisecond)
}

func senders(msgs []Message) []Sender {
	out := make([]Sender, len(msgs))
	for i, m := range msgs {
		out[i] = m.Sender
	}
	return out
}

func TestConversation_SendAppendsQuestionAndAnswer(t *testing.T) {
	h := newChatHarness(t, false)
	h.query.RespondJSON(t, map[string]any{
		"answer":  "We support ACH, wire, cards.",
		"sources": []map[string]string{{"source": "docs/payments"}},
	})

	bot, err := h.conv.Send(context.Background(), "What payment methods are supported?")
	require.NoError(t, err)
	assert.Equal(t, "We support ACH, wire, cards.", bot.Text)

	msgs := h.conv.Transcript().Snapshot()
	require.Len(t, msgs, 2)
	assert.Equal(t, []Sender{SenderUser, SenderBot}, senders(msgs))
	assert.Equal(t, "What payment methods are supported?", msgs[0].Text)
	assert.Equal(t, "We support ACH, wire, cards.", msgs[1].Text)
	assert.Equal(t, []Source{{Source: "docs/payments"}}, msgs[1].Sources)
	assert.False(t, msgs[1].IsError)
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)
	assert.Empty(t, h.conv.LastError())
}

func TestConversation_SendTrimsInput(t *testing.T) {
	h := newChatHarness(t, false)

	_, err := h.conv.Send(context.Background(), "  hello \n")
	require.NoError(t, err)

	assert.Equal(t, "hello", h.query.Questions()[0].Question)
	assert.Equal(t, "hello", h.conv.Transcript().Snapshot()[0].Text)
}

func TestConversation_ServerErrorBecomesErrorEntry(t *testing.T) {
	h := newChatHarness(t, false)
	h.query.Respond(http.StatusInternalServerError, "boom")

	bot, err := h.conv.Send(context.Background(), "hello")
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)

	msgs := h.conv.Transcript().Snapshot()
	require.Len(t, msgs, 2)
	assert.Equal(t, SenderUser, msgs[0].Sender)
	assert.Equal(t, SenderBot, msgs[1].Sender)
	assert.True(t, msgs[1].IsError)
	assert.True(t, strings.HasSuffix(msgs[1].Text, "Server error. Please try again in a few moments."))
	assert.True(t, strings.HasPrefix(msgs[1].Text, "Sorry, I encountered an error: "))
	assert.Equal(t, msgs[1], bot)

	assert.Equal(t, "Server error. Please try again in a few moments.", h.conv.LastError())
}

func TestConversation_NetworkErrorBecomesErrorEntry(t *testing.T) {
	h := newChatHarness(t, false)
	h.query.Close()

	_, err := h.conv.Send(context.Background(), "hello")
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)

	msgs := h.conv.Transcript().Snapshot()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Sorry, I encountered an error: Network connection failed. Please check your internet connection.", msgs[1].Text)
}

func TestConversation_SuccessClearsLastError(t *testing.T) {
	h := newChatHarness(t, false)
	h.query.Respond(http.StatusTooManyRequests, "")
	_, err := h.conv.Send(context.Background(), "one")
	require.Error(t, err)
	require.NotEmpty(t, h.conv.LastError())

	h.query.RespondJSON(t, map[string]string{"answer": "fine"})
	_, err = h.conv.Send(context.Background(), "two")
	require.NoError(t, err)
	assert.Empty(t, h.conv.LastError())
	assert.Equal(t, 4, h.conv.Transcript().Len())
}

func TestConversation_EmptyInputIsRejected(t *testing.T) {
	h := newChatHarness(t, false)

	for _, input := range []string{"", "   ", "\n\t"} {
		_, err := h.conv.Send(context.Background(), input)
		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
	}

	assert.Equal(t, 0, h.conv.Transcript().Len())
	assert.Empty(t, h.query.Questions())
	assert.Equal(t, "Please enter a message", h.conv.LastError())

	h.conv.ClearError()
	assert.Empty(t, h.conv.LastError())
}

func TestConversation_SecondSendWhileBusy(t *testing.T) {
	h := newChatHarness(t, false)
	release := h.query.Hold()
	defer release()

	first := make(chan error, 1)
	go func() {
		_, err := h.conv.Send(context.Background(), "first")
		first <- err
	}()
	waitForLen(t, h.conv, 1)

	_, err := h.conv.Send(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 1, h.conv.Transcript().Len(), "only the first question is appended")

	release()
	require.NoError(t, <-first)
	assert.False(t, h.conv.Busy())
	assert.Equal(t, 2, h.conv.Transcript().Len())
	assert.Len(t, h.query.Questions(), 1)
}

func TestConversation_ClearDiscardsLateAnswer(t *testing.T) {
	h := newChatHarness(t, false)
	require.NoError(t, h.conv.Identity().Adopt(context.Background(), "S1"))
	release := h.query.Hold()
	defer release()

	done := make(chan Message, 1)
	go func() {
		bot, _ := h.conv.Send(context.Background(), "slow question")
		done <- bot
	}()
	waitForLen(t, h.conv, 1)

	h.conv.Clear()
	release()

	bot := <-done
	assert.Empty(t, bot.ID)
	assert.Equal(t, 0, h.conv.Transcript().Len())
	assert.Equal(t, "S1", h.conv.Identity().Current(), "clear keeps the session")
}

func TestConversation_SessionEstablishedIsAdopted(t *testing.T) {
	h := newChatHarness(t, true)
	h.push.SendOnOpen(`{"type":"session_established","sessionId":"abc123"}`)
	h.run(t)

	store := NewStorage(h.db, ":memory:")
	require.Eventually(t, func() bool {
		token, ok, err := store.Get(context.Background(), SessionKey)
		return err == nil && ok && token == "abc123"
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, "abc123", h.conv.Identity().Current())

	_, err := h.conv.Send(context.Background(), "next")
	require.NoError(t, err)
	questions := h.query.Questions()
	require.Len(t, questions, 1)
	assert.Equal(t, "abc123", questions[0].SessionID)
}

func TestConversation_HumanReplyDuringQuery(t *testing.T) {
	h := newChatHarness(t, true)
	h.run(t)
	release := h.query.Hold()
	defer release()

	done := make(chan error, 1)
	go func() {
		_, err := h.conv.Send(context.Background(), "need a person")
		done <- err
	}()
	waitForLen(t, h.conv, 1)

	h.push.Broadcast(t, `{"type":"human_reply","message":"An agent will help you.","thread_ts":"T1"}`)
	waitForLen(t, h.conv, 2)

	release()
	require.NoError(t, <-done)

	msgs := h.conv.Transcript().Snapshot()
	require.Len(t, msgs, 3)
	assert.Equal(t, []Sender{SenderUser, SenderHuman, SenderBot}, senders(msgs))
	assert.Equal(t, "An agent will help you.", msgs[1].Text)
	assert.Equal(t, "T1", msgs[1].ThreadRef)
	assert.NotEmpty(t, msgs[1].Timestamp)
}

func TestConversation_PushFailureIsNotATranscriptEntry(t *testing.T) {
	h := newChatHarness(t, true)
	h.run(t)

	h.push.DropAll()
	require.Eventually(t, func() bool {
		return h.conv.Push().State() == StateError
	}, 5*time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, h.conv.Transcript().Len())
	assert.Empty(t, h.conv.LastError())
}

func TestConversation_HealthPolling(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	srv := testutil.NewQueryServer(t, "")
	client := NewQueryClient(srv.URL, time.Second, srv.Client())
	conv := NewConversation(NewSessionIdentity(NewStorage(db, ":memory:")), client, nil,
		ConversationOptions{HealthInterval: 10 * time.Millisecond})

	_, known := conv.Healthy()
	assert.False(t, known)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- conv.Run(ctx) }()

	require.Eventually(t, func() bool {
		healthy, known := conv.Healthy()
		return healthy && known
	}, 5*time.Second, 5*time.Millisecond)

	srv.SetHealthy(false)
	require.Eventually(t, func() bool {
		healthy, _ := conv.Healthy()
		return !healthy
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestConversation_Snapshot(t *testing.T) {
	h := newChatHarness(t, false)
	require.NoError(t, h.conv.Identity().Adopt(context.Background(), "S9"))
	_, err := h.conv.Send(context.Background(), "hello")
	require.NoError(t, err)

	snap := h.conv.Snapshot()
	assert.Equal(t, "S9", snap.SessionID)
	assert.Equal(t, 2, snap.Metadata.MessageCount)
	assert.Equal(t, h.query.URL, snap.Metadata.APIURL)
	assert.NotEmpty(t, snap.Metadata.ExportedAt)
	assert.Len(t, snap.Messages, 2)
}

func TestConversation_ClearResetsError(t *testing.T) {
	h := newChatHarness(t, false)
	h.query.Respond(http.StatusServiceUnavailable, "")
	_, _ = h.conv.Send(context.Background(), "x")
	require.NotEmpty(t, h.conv.LastError())

	h.conv.Clear()
	assert.Empty(t, h.conv.LastError())
	assert.Equal(t, 0, h.conv.Transcript().Len())
}
