package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	streamChunkSize = 10
	streamCadence   = 50 * time.Millisecond
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
}

// latestUserMessage walks the transcript backwards and returns the most
// recent user turn.
func latestUserMessage(messages []chatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

func (s *Server) handleCopilotChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json body"})
		return
	}

	text := latestUserMessage(req.Messages)
	if strings.TrimSpace(text) == "" {
		writeJSON(w, http.StatusOK, map[string]any{"response": "No user message found"})
		return
	}

	sess := ResolveSession(r, s.now)
	reply, err := s.assistant.Respond(r.Context(), sess, text)
	if err != nil {
		log.Error().Err(err).Str("session", sess.Key).Msg("copilot chat failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "assistant failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       fmt.Sprintf("response-%d", len(req.Messages)),
		"response": reply.Message,
		"done":     true,
	})
}

type streamEvent struct {
	ID    string `json:"id"`
	Chunk string `json:"chunk"`
	Done  bool   `json:"done"`
}

func (s *Server) handleCopilotStream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json body"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	text := latestUserMessage(req.Messages)
	if strings.TrimSpace(text) == "" {
		writeEvent(w, streamEvent{ID: "empty", Done: true})
		flusher.Flush()
		return
	}

	sess := ResolveSession(r, s.now)
	reply, err := s.assistant.Respond(r.Context(), sess, text)
	if err != nil {
		log.Error().Err(err).Str("session", sess.Key).Msg("copilot stream failed")
		writeEvent(w, streamEvent{ID: "error", Done: true})
		flusher.Flush()
		return
	}

	chunks := splitChunks(reply.Message, streamChunkSize)
	for i, chunk := range chunks {
		writeEvent(w, streamEvent{
			ID:    fmt.Sprintf("chunk-%d", i),
			Chunk: chunk,
			Done:  i == len(chunks)-1,
		})
		flusher.Flush()
		if i < len(chunks)-1 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(streamCadence):
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, ev streamEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

// splitChunks slices by runes so multi-byte characters never straddle
// two events.
func splitChunks(text string, size int) []string {
	if text == "" {
		return []string{""}
	}
	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/size+1)
	for len(runes) > size {
		chunks = append(chunks, string(runes[:size]))
		runes = runes[size:]
	}
	return append(chunks, string(runes))
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsInbound struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (s *Server) handleCopilotWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sess := ResolveSession(r, s.now)
	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("session", sess.Key).Msg("websocket read failed")
			}
			return
		}

		if strings.TrimSpace(in.Message) == "" {
			if err := conn.WriteJSON(map[string]any{"error": "No message provided"}); err != nil {
				return
			}
			continue
		}

		reply, err := s.assistant.Respond(r.Context(), sess, in.Message)
		if err != nil {
			log.Error().Err(err).Str("session", sess.Key).Msg("websocket respond failed")
			if err := conn.WriteJSON(map[string]any{"error": "assistant failed"}); err != nil {
				return
			}
			continue
		}

		id := in.ID
		if id == "" {
			id = "response"
		}
		out := map[string]any{
			"id":       id,
			"response": reply.Message,
			"done":     true,
		}
		if err := conn.WriteJSON(out); err != nil {
			return
		}
	}
}
