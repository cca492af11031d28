package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tgarchive/chatlog/internal/biz/domain"
	"github.com/tgarchive/chatlog/internal/biz/usecase"
	"github.com/tgarchive/chatlog/internal/logger"
)

// BufferFlusher drains every write buffer on demand
type BufferFlusher interface {
	FlushAll(ctx context.Context) map[string]int
}

// Server provides the status HTTP API used by the MCP tools
type Server struct {
	resolver *usecase.Resolver
	buffers  []usecase.Flusher
	flusher  BufferFlusher
	adminLog *usecase.AdminLogUsecase
	log      *log.Logger

	server *http.Server
	port   int
}

// MessageResponse is the resolved content of one message
type MessageResponse struct {
	ChatID    int64  `json:"chat_id"`
	MessageID int64  `json:"message_id"`
	Found     bool   `json:"found"`
	Text      string `json:"text,omitempty"`
	Source    string `json:"source,omitempty"`
}

// TitleResponse is the latest known title of a chat
type TitleResponse struct {
	ChatID int64  `json:"chat_id"`
	Title  string `json:"title"`
}

// BuffersResponse lists buffer counters in flush order
type BuffersResponse struct {
	Buffers []usecase.BufferStats `json:"buffers"`
}

// TableCount is the number of rows written to one table
type TableCount struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
}

// FlushResponse lists rows written per table in flush order
type FlushResponse struct {
	Written []TableCount `json:"written"`
}

// WatermarkResponse is the highest stored audit-log event id of a chat
type WatermarkResponse struct {
	ChatID    int64 `json:"chat_id"`
	Watermark int64 `json:"watermark"`
}

// NewServer creates a new API server
func NewServer(resolver *usecase.Resolver, buffers []usecase.Flusher, flusher BufferFlusher, adminLog *usecase.AdminLogUsecase, port int) *Server {
	s := &Server{
		resolver: resolver,
		buffers:  buffers,
		flusher:  flusher,
		adminLog: adminLog,
		log:      logger.For("API"),
		port:     port,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routes of the API
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Lookups
	mux.HandleFunc("GET /api/messages/{chat}/{msg}", s.handleMessage)
	mux.HandleFunc("GET /api/chats/{chat}/title", s.handleChatTitle)

	// Buffers
	mux.HandleFunc("GET /api/buffers", s.handleBuffers)
	mux.HandleFunc("POST /api/buffers/flush", s.handleFlush)

	// Audit log
	mux.HandleFunc("GET /api/adminlog/{chat}/watermark", s.handleWatermark)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return mux
}

// Start starts the HTTP server and blocks until it is stopped
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server", "port", s.port)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// GetPort returns the server port
func (s *Server) GetPort() int {
	return s.port
}

// ============ Lookup Handlers ============

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r, "chat")
	if !ok {
		return
	}
	msgID, ok := pathID(w, r, "msg")
	if !ok {
		return
	}

	resp := MessageResponse{ChatID: chatID, MessageID: msgID}
	if res, found := s.resolver.Resolve(r.Context(), domain.MessageKey{ChatID: chatID, MessageID: msgID}); found {
		resp.Found = true
		resp.Text = res.Text
		resp.Source = string(res.Source)
	}
	s.writeJSON(w, resp)
}

func (s *Server) handleChatTitle(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r, "chat")
	if !ok {
		return
	}
	s.writeJSON(w, TitleResponse{ChatID: chatID, Title: s.resolver.ChatTitle(r.Context(), chatID)})
}

// ============ Buffer Handlers ============

func (s *Server) handleBuffers(w http.ResponseWriter, r *http.Request) {
	stats := make([]usecase.BufferStats, 0, len(s.buffers))
	for _, b := range s.buffers {
		stats = append(stats, b.Stats())
	}
	s.writeJSON(w, BuffersResponse{Buffers: stats})
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	written := s.flusher.FlushAll(r.Context())

	resp := FlushResponse{Written: make([]TableCount, 0, len(s.buffers))}
	for _, b := range s.buffers {
		resp.Written = append(resp.Written, TableCount{Table: b.Table(), Rows: written[b.Table()]})
	}
	s.writeJSON(w, resp)
}

// ============ Audit Log Handlers ============

func (s *Server) handleWatermark(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(w, r, "chat")
	if !ok {
		return
	}
	mark, err := s.adminLog.Watermark(r.Context(), chatID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, WatermarkResponse{ChatID: chatID, Watermark: mark})
}

// ============ Helpers ============

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": fmt.Sprintf("invalid %s id %q", name, r.PathValue(name))})
		return 0, false
	}
	return id, true
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.log.Warn("Request failed", "err", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
