// Package server exposes the chat front door over HTTP and WebSocket.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
)

const requestTimeout = 5 * time.Minute

type Config struct {
	Addr       string `envconfig:"ADDR" split_words:"true" default:":8000"`
	OutputsDir string `envconfig:"OUTPUTS_DIR" split_words:"true" default:"outputs"`
}

type Server struct {
	assistant  contractx.Assistant
	outputsDir string
	now        func() time.Time
	router     chi.Router
}

func New(assistant contractx.Assistant, cfg Config) *Server {
	s := &Server{
		assistant:  assistant,
		outputsDir: cfg.OutputsDir,
		now:        func() time.Time { return time.Now().UTC() },
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/ask", s.handleAsk)
	r.Post("/api/copilot/chat", s.handleCopilotChat)
	r.Post("/api/copilot/chat/stream", s.handleCopilotStream)
	r.Get("/api/copilot/ws", s.handleCopilotWS)

	outputs := http.StripPrefix("/outputs/", http.FileServer(http.Dir(s.outputsDir)))
	r.Get("/outputs/*", outputs.ServeHTTP)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type askRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json body"})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "prompt is required"})
		return
	}

	sess := ResolveSession(r, s.now)
	reply, err := s.assistant.Respond(r.Context(), sess, req.Prompt)
	if err != nil {
		log.Error().Err(err).Str("session", sess.Key).Msg("ask failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "assistant failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"response": reply.Message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("write response failed")
	}
}
