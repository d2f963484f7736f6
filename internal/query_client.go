package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// SessionHeader carries the session token on query calls
	SessionHeader = "X-Session-Id"

	chatPath   = "/api/chat"
	healthPath = "/health"

	noResponseText = "No response received"
	maxErrorBody   = 512
)

// QueryClient sends one question and waits for one answer. It holds no
// per-call state and never retries.
type QueryClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewQueryClient creates a client for the backend at baseURL. Every Ask is
// bounded by timeout; a zero timeout leaves only the caller's context.
func NewQueryClient(baseURL string, timeout time.Duration, httpClient *http.Client) *QueryClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &QueryClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		timeout:    timeout,
	}
}

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Answer    string   `json:"answer"`
	Message   string   `json:"message"`
	Sources   []Source `json:"sources"`
	Timestamp string   `json:"timestamp"`
}

// Ask posts question with the session token (if any) and returns the answer.
// Failures are *NetworkError, *ProtocolError or *ValidationError.
func (c *QueryClient) Ask(ctx context.Context, question, sessionToken string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, &ValidationError{Field: "question", Reason: "must not be empty"}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.baseURL + chatPath
	body, err := json.Marshal(chatRequest{Question: question})
	if err != nil {
		return nil, fmt.Errorf("failed to encode question: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &NetworkError{Op: "ask", URL: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if sessionToken != "" {
		req.Header.Set(SessionHeader, sessionToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		LogDebug("Error sending chat message: %v", err)
		return nil, &NetworkError{Op: "ask", URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		// Status line arrived but the body was cut off (timeout or reset).
		return nil, &NetworkError{Op: "ask", URL: endpoint, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProtocolError{Status: resp.StatusCode, Body: compactBody(payload)}
	}

	var parsed *chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, &ProtocolError{Err: &ParseError{Source: "query", Key: chatPath, Err: err}}
	}
	if parsed == nil {
		return nil, &ProtocolError{Err: &ParseError{Source: "query", Key: chatPath, Err: errors.New("empty response body")}}
	}

	text := parsed.Answer
	if text == "" {
		text = parsed.Message
	}
	if text == "" {
		text = noResponseText
	}

	return &Answer{
		Text:      text,
		Sources:   parsed.Sources,
		Timestamp: parsed.Timestamp,
	}, nil
}

// Health probes the liveness endpoint. Any failure means unreachable.
func (c *QueryClient) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		LogDebug("API health check failed: %v", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *QueryClient) healthTimeout() time.Duration {
	if c.timeout > 0 && c.timeout < 10*time.Second {
		return c.timeout
	}
	return 10 * time.Second
}

// BaseURL returns the backend base URL
func (c *QueryClient) BaseURL() string {
	return c.baseURL
}

func compactBody(payload []byte) string {
	s := strings.Join(strings.Fields(string(payload)), " ")
	if len(s) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
