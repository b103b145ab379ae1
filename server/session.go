package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
)

const sessionKeyLength = 8

// sessionHeaders is checked in order; the first non-empty value wins.
// Casing variants that canonicalize to the same header key are listed
// once. Cursor and agency ids cover local development and deployment.
var sessionHeaders = []string{
	"X-Chat-Id",
	"X-User-Id",
	"X-Agent-Id",
	"X-Chatid",
	"X-Userid",
	"X-Session-Id",
	"X-Sessionid",
	"X-Conversation-Id",
	"X-Conversationid",
	"Cursor-Trace-Id",
	"Cursor-Session-Id",
	"Cursor-Chat-Id",
	"Agency-Session-Id",
	"Agency-Chat-Id",
	"Agency-User-Id",
}

// ResolveSession derives the conversation session context from request
// headers. The key partitions the on-disk cache per conversation; it is
// resolved once here and threaded through every tool call.
func ResolveSession(r *http.Request, now func() time.Time) contractx.SessionContext {
	sess := contractx.SessionContext{
		Username: strings.TrimSpace(r.Header.Get("X-User-Name")),
	}
	if now != nil {
		sess.Now = now()
	} else {
		sess.Now = time.Now().UTC()
	}

	for _, header := range sessionHeaders {
		value := strings.TrimSpace(r.Header.Get(header))
		if value == "" {
			continue
		}
		sess.Key = truncateKey(value)
		return sess
	}

	sess.Key = truncateKey(uuid.NewString())
	return sess
}

func truncateKey(value string) string {
	if len(value) > sessionKeyLength {
		return value[:sessionKeyLength]
	}
	return value
}
