package contract

import "context"

// Assistant is the conversational surface consumed by the front door.
type Assistant interface {
	Respond(ctx context.Context, sess SessionContext, text string) (Reply, error)
}

type MemoryStore interface {
	ReadSummary(ctx context.Context, sessionKey string) (string, error)
	WriteSummary(ctx context.Context, sessionKey string, update string) error
}
