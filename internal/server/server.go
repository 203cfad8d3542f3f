package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gramcal/gramcal/internal/common"
	"github.com/gramcal/gramcal/internal/export"
	"github.com/gramcal/gramcal/internal/pipeline"
	"github.com/gramcal/gramcal/internal/repository"
)

// Server exposes the pipeline to the webhook/dashboard collaborators over
// HTTP. Authentication of those callers lives in front of this service.
type Server struct {
	processor *pipeline.Processor
	drafts    repository.DraftRepository
	exporter  *export.Service
	logger    *slog.Logger
	mux       *http.ServeMux

	messageSchema map[string]any
	commitSchema  map[string]any
}

func New(processor *pipeline.Processor, drafts repository.DraftRepository, exporter *export.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		processor:     processor,
		drafts:        drafts,
		exporter:      exporter,
		logger:        logger,
		mux:           http.NewServeMux(),
		messageSchema: BuildMessageJSONSchema(),
		commitSchema:  BuildCommitJSONSchema(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /v1/messages", s.handleMessage)
	s.mux.HandleFunc("POST /v1/commit", s.handleCommit)
	s.mux.HandleFunc("GET /v1/drafts", s.handleListDrafts)
	s.mux.HandleFunc("GET /v1/export", s.handleExport)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

type messageRequest struct {
	UserID    string `json:"user_id"`
	MessageID string `json:"message_id"`
	MediaURL  string `json:"media_url"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, common.NewValidationError("read request body"))
		return
	}
	if err := ValidateJSONAgainstSchema(s.messageSchema, body); err != nil {
		s.writeError(w, common.NewValidationError(err.Error()))
		return
	}
	var req messageRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, common.NewValidationError("decode request"))
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		s.writeError(w, common.NewValidationError("user_id must be a UUID"))
		return
	}
	messageID, err := uuid.Parse(req.MessageID)
	if err != nil {
		s.writeError(w, common.NewValidationError("message_id must be a UUID"))
		return
	}

	res, err := s.processor.ProcessMessage(r.Context(), pipeline.IngestRequest{
		UserID:    userID,
		MessageID: messageID,
		MediaURL:  req.MediaURL,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, res)
}

type commitRequest struct {
	UserID       string `json:"user_id"`
	DraftEventID string `json:"draft_event_id,omitempty"`
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, common.NewValidationError("read request body"))
		return
	}
	if err := ValidateJSONAgainstSchema(s.commitSchema, body); err != nil {
		s.writeError(w, common.NewValidationError(err.Error()))
		return
	}
	var req commitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, common.NewValidationError("decode request"))
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		s.writeError(w, common.NewValidationError("user_id must be a UUID"))
		return
	}
	var draftID *uuid.UUID
	if req.DraftEventID != "" {
		id, err := uuid.Parse(req.DraftEventID)
		if err != nil {
			s.writeError(w, common.NewValidationError("draft_event_id must be a UUID"))
			return
		}
		draftID = &id
	}

	res, err := s.processor.CommitDraft(r.Context(), userID, draftID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		s.writeError(w, common.NewValidationError("user_id must be a UUID"))
		return
	}
	drafts, err := s.drafts.ListPending(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"drafts": drafts})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		s.writeError(w, common.NewValidationError("user_id must be a UUID"))
		return
	}
	var from, to *time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			s.writeError(w, common.NewValidationError("from must be YYYY-MM-DD"))
			return
		}
		from = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			s.writeError(w, common.NewValidationError("to must be YYYY-MM-DD"))
			return
		}
		to = &t
	}

	b, err := s.exporter.ExportCommittedXLSX(r.Context(), userID, from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="events.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorPayload struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := common.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case common.CodeValidation:
		status = http.StatusBadRequest
	case common.CodeNotFound:
		status = http.StatusNotFound
	case common.CodeCredential:
		status = http.StatusUnauthorized
	case common.CodeProvider:
		status = http.StatusBadGateway
	case common.CodeTransient:
		status = http.StatusServiceUnavailable
	}

	var payload errorPayload
	payload.Error.Code = code
	payload.Error.Message = err.Error()

	// Carry the provider's own status/body through verbatim for debugging.
	var pe *common.ProviderError
	if errors.As(err, &pe) {
		payload.Error.Message = fmt.Sprintf("provider status %d: %s", pe.Status, string(pe.Body))
	}

	s.logger.Warn("http.request_failed", "code", code, "status", status, "error", err)
	s.writeJSON(w, status, payload)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("http.response_encode_error", "error", err)
	}
}
