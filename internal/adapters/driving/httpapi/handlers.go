package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quietpages/bookchat/internal/core/domain"
	"github.com/quietpages/bookchat/internal/logger"
)

// Client-facing error messages. Provider details stay in the logs.
const (
	msgInvalidRequest = "a non-empty message is required"
	msgUnavailable    = "the assistant could not respond right now, please try again"
	msgTimeout        = "the assistant took too long to respond, please try again"
	msgInternal       = "internal error"
	msgCancelled      = "request cancelled"
)

// statusClientClosedRequest is the non-standard status recorded when the
// client goes away before the reply is ready.
const statusClientClosedRequest = 499

// defaultTranscriptLimit is the page size of GET /api/transcripts.
const defaultTranscriptLimit = 20

// chatResponse is the success body of POST /api/chat.
type chatResponse struct {
	Reply string `json:"reply"`
}

// errorResponse is the body of every error response.
type errorResponse struct {
	Error string `json:"error"`
}

// transcriptResponse is one entry of GET /api/transcripts.
type transcriptResponse struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Reply     string    `json:"reply"`
	Grounded  bool      `json:"grounded"`
	TopScore  float64   `json:"top_score"`
	CreatedAt time.Time `json:"created_at"`
}

// handleChat handles POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "request body too large or unreadable")
		return
	}
	if err := validateChatBody(body); err != nil {
		logger.Debug("rejected chat body: %v", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	reply, err := s.chat.Reply(r.Context(), req)
	if err != nil {
		status, msg := classify(err)
		if status == statusClientClosedRequest {
			logger.Debug("chat request cancelled by client: %v", err)
		} else if status >= http.StatusInternalServerError {
			logger.Error("chat request failed: %v", err)
		}
		writeError(w, status, msg)
		return
	}

	if s.transcripts != nil {
		s.record(r.Context(), req, reply)
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply.Text})
}

// record stores a transcript. Failures are logged and never affect the reply.
func (s *Server) record(ctx context.Context, req domain.ChatRequest, reply domain.ChatReply) {
	query, _ := req.ResolveQuery()
	t := domain.Transcript{
		ID:        uuid.NewString(),
		Query:     query,
		Reply:     reply.Text,
		Grounded:  reply.Grounded,
		TopScore:  reply.TopScore,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.transcripts.SaveTranscript(context.WithoutCancel(ctx), t); err != nil {
		logger.Notice("failed to record transcript: %v", err)
	}
}

// handleTranscripts handles GET /api/transcripts.
func (s *Server) handleTranscripts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.transcripts == nil {
		writeError(w, http.StatusNotFound, "transcript recording is disabled")
		return
	}

	limit := defaultTranscriptLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	transcripts, err := s.transcripts.ListTranscripts(r.Context(), limit)
	if err != nil {
		logger.Error("listing transcripts: %v", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	out := make([]transcriptResponse, len(transcripts))
	for i, t := range transcripts {
		out[i] = transcriptResponse(t)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", strings.Join([]string{http.MethodGet, http.MethodHead}, ", "))
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// classify maps a chat error to an HTTP status and a client-safe message.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, msgInvalidRequest
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, msgCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, msgTimeout
	case errors.Is(err, domain.ErrGenerationUnavailable):
		return http.StatusBadGateway, msgUnavailable
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
