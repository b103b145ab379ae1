package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
)

type fakeAssistant struct {
	reply    string
	err      error
	lastSess contractx.SessionContext
	lastText string
}

func (f *fakeAssistant) Respond(_ context.Context, sess contractx.SessionContext, text string) (contractx.Reply, error) {
	f.lastSess = sess
	f.lastText = text
	if f.err != nil {
		return contractx.Reply{}, f.err
	}
	return contractx.Reply{SessionKey: sess.Key, Message: f.reply}, nil
}

func newTestServer(t *testing.T, assistant contractx.Assistant) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(assistant, Config{OutputsDir: t.TempDir()}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveSessionHeaderOrder(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/api/ask", nil)
	r.Header.Set("X-User-Id", "user-id-value")
	r.Header.Set("X-Chat-Id", "chat-id-value")

	sess := ResolveSession(r, nil)
	if sess.Key != "chat-id-" {
		t.Fatalf("session key = %q, want chat id prefix", sess.Key)
	}
}

func TestResolveSessionFallbackGenerates(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/api/ask", nil)
	sess := ResolveSession(r, nil)
	if len(sess.Key) != sessionKeyLength {
		t.Fatalf("fallback key length = %d, want %d", len(sess.Key), sessionKeyLength)
	}

	other := ResolveSession(httptest.NewRequest(http.MethodPost, "/api/ask", nil), nil)
	if sess.Key == other.Key {
		t.Fatalf("fallback keys should differ, both %q", sess.Key)
	}
}

func TestResolveSessionShortValueKeptWhole(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/api/ask", nil)
	r.Header.Set("X-Session-Id", "abc")

	if sess := ResolveSession(r, nil); sess.Key != "abc" {
		t.Fatalf("session key = %q, want abc", sess.Key)
	}
}

func TestAskEndpoint(t *testing.T) {
	t.Parallel()

	assistant := &fakeAssistant{reply: "here is your brand plan"}
	srv := newTestServer(t, assistant)

	body := bytes.NewBufferString(`{"prompt":"help me brand"}`)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/ask", body)
	req.Header.Set("X-Chat-Id", "sess-12345")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["response"] != "here is your brand plan" {
		t.Fatalf("response = %q", out["response"])
	}
	if assistant.lastSess.Key != "sess-123" {
		t.Fatalf("threaded session key = %q", assistant.lastSess.Key)
	}
	if assistant.lastText != "help me brand" {
		t.Fatalf("threaded text = %q", assistant.lastText)
	}
}

func TestAskRejectsMissingPrompt(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeAssistant{reply: "unused"})

	resp, err := http.Post(srv.URL+"/api/ask", "application/json", bytes.NewBufferString(`{}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCopilotChatUsesLatestUserTurn(t *testing.T) {
	t.Parallel()

	assistant := &fakeAssistant{reply: "done"}
	srv := newTestServer(t, assistant)

	payload := `{"messages":[
		{"role":"user","content":"first"},
		{"role":"assistant","content":"ok"},
		{"role":"user","content":"second"}
	]}`
	resp, err := http.Post(srv.URL+"/api/copilot/chat", "application/json", bytes.NewBufferString(payload))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var out struct {
		ID       string `json:"id"`
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != "response-3" {
		t.Fatalf("id = %q, want response-3", out.ID)
	}
	if out.Response != "done" || !out.Done {
		t.Fatalf("unexpected body: %+v", out)
	}
	if assistant.lastText != "second" {
		t.Fatalf("assistant got %q, want the latest user turn", assistant.lastText)
	}
}

func TestCopilotChatWithoutUserMessage(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeAssistant{reply: "unused"})

	payload := `{"messages":[{"role":"assistant","content":"hi"}]}`
	resp, err := http.Post(srv.URL+"/api/copilot/chat", "application/json", bytes.NewBufferString(payload))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["response"] != "No user message found" {
		t.Fatalf("response = %v", out["response"])
	}
}

func TestCopilotStreamChunks(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeAssistant{reply: "abcdefghijklmnopqrstuvwxy"})

	payload := `{"messages":[{"role":"user","content":"stream it"}]}`
	resp, err := http.Post(srv.URL+"/api/copilot/chat/stream", "application/json", bytes.NewBufferString(payload))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	var events []streamEvent
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("bad event %q: %v", line, err)
		}
		events = append(events, ev)
	}

	if len(events) != 3 {
		t.Fatalf("event count = %d, want 3", len(events))
	}
	var rebuilt strings.Builder
	for i, ev := range events {
		if want := "chunk-" + string(rune('0'+i)); ev.ID != want {
			t.Fatalf("event %d id = %q, want %q", i, ev.ID, want)
		}
		if ev.Done != (i == len(events)-1) {
			t.Fatalf("event %d done = %v", i, ev.Done)
		}
		rebuilt.WriteString(ev.Chunk)
	}
	if rebuilt.String() != "abcdefghijklmnopqrstuvwxy" {
		t.Fatalf("rebuilt reply = %q", rebuilt.String())
	}
}

func TestCopilotStreamEmptyTranscript(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeAssistant{reply: "unused"})

	resp, err := http.Post(srv.URL+"/api/copilot/chat/stream", "application/json", bytes.NewBufferString(`{"messages":[]}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := readSingleEvent(resp)
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	if raw.ID != "empty" || !raw.Done || raw.Chunk != "" {
		t.Fatalf("unexpected event: %+v", raw)
	}
}

func readSingleEvent(resp *http.Response) (streamEvent, error) {
	var ev streamEvent
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev)
			return ev, err
		}
	}
	return ev, scanner.Err()
}

func TestCopilotWebSocket(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeAssistant{reply: "pong"})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/copilot/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(map[string]string{"id": "msg-1", "message": "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out struct {
		ID       string `json:"id"`
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.ID != "msg-1" || out.Response != "pong" || !out.Done {
		t.Fatalf("unexpected reply: %+v", out)
	}

	if err := conn.WriteJSON(map[string]string{"message": ""}); err != nil {
		t.Fatalf("write empty: %v", err)
	}
	var errOut map[string]string
	if err := conn.ReadJSON(&errOut); err != nil {
		t.Fatalf("read error reply: %v", err)
	}
	if errOut["error"] != "No message provided" {
		t.Fatalf("error = %q", errOut["error"])
	}
}

func TestSplitChunks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want []string
	}{
		{"", []string{""}},
		{"short", []string{"short"}},
		{"abcdefghij", []string{"abcdefghij"}},
		{"abcdefghijk", []string{"abcdefghij", "k"}},
		{"ABCDEFGHI→tail", []string{"ABCDEFGHI→", "tail"}},
		{"héllo wörld, ça va bién?", []string{"héllo wörl", "d, ça va b", "ién?"}},
	}
	for _, tc := range tests {
		got := splitChunks(tc.text, streamChunkSize)
		if len(got) != len(tc.want) {
			t.Fatalf("splitChunks(%q) = %v", tc.text, got)
		}
		var rebuilt strings.Builder
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("splitChunks(%q)[%d] = %q, want %q", tc.text, i, got[i], tc.want[i])
			}
			if !utf8.ValidString(got[i]) {
				t.Fatalf("splitChunks(%q)[%d] = %q is not valid UTF-8", tc.text, i, got[i])
			}
			rebuilt.WriteString(got[i])
		}
		if rebuilt.String() != tc.text {
			t.Fatalf("chunks of %q rebuild to %q", tc.text, rebuilt.String())
		}
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeAssistant{})

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
