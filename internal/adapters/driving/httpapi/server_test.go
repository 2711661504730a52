package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietpages/bookchat/internal/adapters/driven/storage/memory"
	"github.com/quietpages/bookchat/internal/core/domain"
	"github.com/quietpages/bookchat/internal/logger"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	mu    sync.Mutex
	reply domain.ChatReply
	err   error
	calls []domain.ChatRequest
}

func (m *mockChatService) Reply(_ context.Context, req domain.ChatRequest) (domain.ChatReply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	return m.reply, m.err
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHandleChat_Success(t *testing.T) {
	chat := &mockChatService{reply: domain.ChatReply{Text: "Stay with the breath."}}
	s := NewServer(chat)

	rec := do(t, s, http.MethodPost, "/api/chat", `{
		"messages": [
			{"role": "user", "content": "Hello"},
			{"role": "assistant", "content": "Welcome."}
		],
		"message": "What should I notice?"
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"reply":"Stay with the breath."}`, rec.Body.String())

	require.Len(t, chat.calls, 1)
	assert.Equal(t, "What should I notice?", chat.calls[0].Message)
	require.Len(t, chat.calls[0].Messages, 2)
	assert.Equal(t, domain.RoleAssistant, chat.calls[0].Messages[1].Role)
}

func TestHandleChat_HistoryOnly(t *testing.T) {
	chat := &mockChatService{reply: domain.ChatReply{Text: "ok"}}
	s := NewServer(chat)

	rec := do(t, s, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleChat_MethodNotAllowed(t *testing.T) {
	chat := &mockChatService{}
	s := NewServer(chat)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			rec := do(t, s, method, "/api/chat", "")
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
			assert.NotEmpty(t, decodeError(t, rec))
		})
	}
	assert.Empty(t, chat.calls)
}

func TestHandleChat_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "malformed json", body: `{"message":`},
		{name: "not an object", body: `["hi"]`},
		{name: "neither field", body: `{}`},
		{name: "message not a string", body: `{"message": 42}`},
		{name: "unknown role", body: `{"messages":[{"role":"system","content":"x"}]}`},
		{name: "missing content", body: `{"messages":[{"role":"user"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &mockChatService{}
			s := NewServer(chat)

			rec := do(t, s, http.MethodPost, "/api/chat", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec))
			assert.Empty(t, chat.calls)
		})
	}
}

func TestHandleChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "invalid request",
			err:        fmt.Errorf("%w: no query", domain.ErrInvalidRequest),
			wantStatus: http.StatusBadRequest,
			wantMsg:    msgInvalidRequest,
		},
		{
			name:       "generation unavailable",
			err:        fmt.Errorf("%w: 500 from provider: secret detail", domain.ErrGenerationUnavailable),
			wantStatus: http.StatusBadGateway,
			wantMsg:    msgUnavailable,
		},
		{
			name:       "generation timed out",
			err:        fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantMsg:    msgTimeout,
		},
		{
			name:       "unexpected",
			err:        errors.New("prompt file unreadable"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    msgInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(&mockChatService{err: tt.err})

			rec := do(t, s, http.MethodPost, "/api/chat", `{"message":"hi"}`)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeError(t, rec))
			assert.NotContains(t, rec.Body.String(), "secret detail")
			assert.NotContains(t, rec.Body.String(), "reply")
		})
	}
}

func TestHandleChat_ClientCancelledIsNotLoggedAsError(t *testing.T) {
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	logger.SetVerbose(false)
	defer logger.SetOutput(os.Stderr)

	s := NewServer(&mockChatService{
		err: fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, context.Canceled),
	})

	rec := do(t, s, http.MethodPost, "/api/chat", `{"message":"hi"}`)

	assert.Equal(t, statusClientClosedRequest, rec.Code)
	assert.Equal(t, msgCancelled, decodeError(t, rec))
	assert.Empty(t, logs.String())
}

func TestHandleChat_RecordsTranscripts(t *testing.T) {
	store := memory.NewTranscriptStore()
	chat := &mockChatService{reply: domain.ChatReply{Text: "Come back.", Grounded: true, TopScore: 0.8}}
	s := NewServer(chat, WithTranscripts(store))

	rec := do(t, s, http.MethodPost, "/api/chat", `{"message":"  How do I return?  "}`)
	require.Equal(t, http.StatusOK, rec.Code)

	transcripts, err := store.ListTranscripts(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, transcripts, 1)
	assert.NotEmpty(t, transcripts[0].ID)
	assert.Equal(t, "How do I return?", transcripts[0].Query)
	assert.Equal(t, "Come back.", transcripts[0].Reply)
	assert.True(t, transcripts[0].Grounded)
	assert.InDelta(t, 0.8, transcripts[0].TopScore, 1e-9)
	assert.False(t, transcripts[0].CreatedAt.IsZero())
}

func TestHandleChat_FailedRepliesAreNotRecorded(t *testing.T) {
	store := memory.NewTranscriptStore()
	s := NewServer(&mockChatService{err: domain.ErrGenerationUnavailable}, WithTranscripts(store))

	rec := do(t, s, http.MethodPost, "/api/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	transcripts, err := store.ListTranscripts(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, transcripts)
}

func TestHandleTranscripts(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s := NewServer(&mockChatService{})
		rec := do(t, s, http.MethodGet, "/api/transcripts", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("lists newest first with limit", func(t *testing.T) {
		store := memory.NewTranscriptStore()
		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, store.SaveTranscript(context.Background(), domain.Transcript{ID: id, Query: id}))
		}
		s := NewServer(&mockChatService{}, WithTranscripts(store))

		rec := do(t, s, http.MethodGet, "/api/transcripts?limit=2", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var got []transcriptResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "c", got[0].ID)
		assert.Equal(t, "b", got[1].ID)
	})

	t.Run("bad limit", func(t *testing.T) {
		s := NewServer(&mockChatService{}, WithTranscripts(memory.NewTranscriptStore()))
		rec := do(t, s, http.MethodGet, "/api/transcripts?limit=zero", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		s := NewServer(&mockChatService{}, WithTranscripts(memory.NewTranscriptStore()))
		rec := do(t, s, http.MethodPost, "/api/transcripts", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
	})
}

func TestHandleHealth(t *testing.T) {
	s := NewServer(&mockChatService{})

	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/healthz", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServe_GracefulShutdown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(&mockChatService{reply: domain.ChatReply{Text: "hello"}})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, listener)
	}()

	url := "http://" + listener.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	resp, err := http.Post(url+"/api/chat", "application/json", strings.NewReader(`{"message":"hi"}`))
	require.NoError(t, err)
	var body chatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, "hello", body.Reply)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestValidateChatBody(t *testing.T) {
	assert.NoError(t, validateChatBody([]byte(`{"message":"hi"}`)))
	assert.NoError(t, validateChatBody([]byte(`{"messages":[]}`)))
	assert.Error(t, validateChatBody([]byte(`{"messages":"nope"}`)))
	assert.Error(t, validateChatBody([]byte(`not json`)))
}
