package contract

import "time"

// SessionContext identifies one conversation. It is resolved once per
// request at the HTTP front door and threaded through the runtime into
// every tool invocation; tools never consult ambient process state.
type SessionContext struct {
	// Key is an 8-character cache-partitioning id derived from request
	// headers, or randomly generated. It is not a security token.
	Key      string    `json:"key"`
	Username string    `json:"username,omitempty"`
	Now      time.Time `json:"now"`
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

type Reply struct {
	SessionKey string       `json:"session_key"`
	Message    string       `json:"message"`
	ToolTrace  []ToolResult `json:"tool_trace,omitempty"`
}
