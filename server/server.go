package server

import (
	_ "embed"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mstreet3/script-relayer/domain"
	"github.com/mstreet3/script-relayer/logging"
	"github.com/mstreet3/script-relayer/mailbox"
)

const (
	scriptAddedMessage  = "Script added to buffer"
	neverDrainedMessage = "Buffer has not been read yet"
)

//go:embed static/index.html
var indexHTML []byte

type Server struct {
	mailbox mailbox.Mailbox
	logger  *slog.Logger
	mux     *http.ServeMux
}

func NewServer(mb mailbox.Mailbox, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		mailbox: mb,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /scriptRequest", s.handleSubmit)
	// both spellings are served by one handler over the same mailbox
	s.mux.HandleFunc("GET /scriptBuffer", s.handleDrain)
	s.mux.HandleFunc("GET /scriptbuffer", s.handleDrain)
	s.mux.HandleFunc("GET /bufferCalled", s.handleLastDrain)
}

// Handler returns the routes wrapped in request ID and access log middleware.
func (s *Server) Handler() http.Handler {
	return withRequestID(withAccessLog(s.logger, s.mux))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	script, err := decodeSubmit(r.Body)
	if err != nil {
		s.logger.Warn("script_rejected", "request_id", RequestID(r.Context()), "error", err)
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: domain.ErrInvalidScript.Error()})
		return
	}

	s.mailbox.Add(script)
	s.logger.Debug("script_added", "request_id", RequestID(r.Context()), "size", len(script))
	s.writeJSON(w, http.StatusOK, SubmitResponse{Status: "ok", Message: scriptAddedMessage})
}

func (s *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	result := s.mailbox.Empty()
	ts := domain.FormatTimestamp(result.DrainedAt)

	s.logger.Info("buffer_drained", "request_id", RequestID(r.Context()), "count", len(result.Scripts), "at", ts)
	s.writeJSON(w, http.StatusOK, DrainResponse{Scripts: result.Scripts, LastBufferRead: &ts})
}

func (s *Server) handleLastDrain(w http.ResponseWriter, r *http.Request) {
	last := s.mailbox.EmptiedAt()
	if !last.Drained {
		s.writeJSON(w, http.StatusOK, LastDrainResponse{Message: neverDrainedMessage})
		return
	}

	ts := domain.FormatTimestamp(last.DrainedAt)
	epochMs := last.EpochMs()
	s.writeJSON(w, http.StatusOK, LastDrainResponse{LastDrainedAt: &ts, EpochMs: &epochMs})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		s.logger.Warn("write_response_failed", "error", err)
	}
}
