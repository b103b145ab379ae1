package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/meetkeeps15/brandbox-agent/agent/contract"
	promptx "github.com/meetkeeps15/brandbox-agent/agent/prompt"
	toolx "github.com/meetkeeps15/brandbox-agent/agent/tool"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session key is empty")
)

const (
	defaultMaxToolRounds = 4
	memorySummaryLimit   = 2000
)

type Config struct {
	MaxToolRounds int
}

// Service runs the assistant conversation loop: plan tool calls against
// the catalog, execute them, and compose a final reply.
type Service struct {
	executor toolx.Executor
	allowed  map[string]struct{}
	memory   contractx.MemoryStore

	planRunner  compose.Runnable[map[string]any, *schema.Message]
	graphRunner compose.Runnable[GraphInput, GraphOutput]

	maxToolRounds int
	now           func() time.Time
}

func New(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	catalog *toolx.Catalog,
	memory contractx.MemoryStore,
	prompts promptx.PromptSet,
	cfg Config,
) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if catalog == nil {
		return nil, errors.New("tool catalog is required")
	}
	if strings.TrimSpace(prompts.Assistant) == "" {
		return nil, fmt.Errorf("%w: assistant prompt", contractx.ErrPromptMissing)
	}
	if memory == nil {
		memory = noopMemoryStore{}
	}

	infos, executor := catalog.Build()
	toolModel, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools: %v", contractx.ErrModelInvoke, err)
	}
	planRunner, err := compilePlanningGraph(ctx, toolModel, prompts.Assistant)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	allowed := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		if info == nil || strings.TrimSpace(info.Name) == "" {
			continue
		}
		allowed[info.Name] = struct{}{}
	}

	maxRounds := cfg.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxToolRounds
	}

	s := &Service{
		executor:      executor,
		allowed:       allowed,
		memory:        memory,
		planRunner:    planRunner,
		maxToolRounds: maxRounds,
		now:           time.Now,
	}

	graphRunner, err := s.compileRespondGraph(ctx)
	if err != nil {
		return nil, err
	}
	s.graphRunner = graphRunner

	return s, nil
}

// Respond implements contract.Assistant.
func (s *Service) Respond(ctx context.Context, sess contractx.SessionContext, text string) (contractx.Reply, error) {
	out, err := s.graphRunner.Invoke(ctx, GraphInput{Sess: sess, Text: text})
	if err != nil {
		return contractx.Reply{}, err
	}
	return contractx.Reply{
		SessionKey: sess.Key,
		Message:    out.Reply,
		ToolTrace:  out.ToolTrace,
	}, nil
}

func (s *Service) readMemory(ctx context.Context, in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	summary, err := s.memory.ReadSummary(ctx, in.Sess.Key)
	if err != nil {
		// Memory is advisory; a failed read must not break the turn.
		log.Warn().Err(err).Str("session", in.Sess.Key).Msg("memory read failed")
		return in, nil
	}
	in.MemorySummary = summary
	return in, nil
}

// runToolLoop alternates between tool planning and execution until the
// model answers in plain text or the round budget runs out. The final
// round forces a text answer.
func (s *Service) runToolLoop(ctx context.Context, in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	for round := 0; round <= s.maxToolRounds; round++ {
		final := round == s.maxToolRounds

		msg, err := s.invokePlanner(ctx, in, final)
		if err != nil {
			return nil, err
		}

		requests, err := toToolRequests(msg.ToolCalls)
		if err != nil {
			return nil, err
		}
		if len(requests) == 0 || final {
			content := strings.TrimSpace(msg.Content)
			if content == "" {
				return nil, fmt.Errorf("%w: assistant returned neither text nor tool calls", contractx.ErrSchemaViolation)
			}
			in.Message = content
			return in, nil
		}

		for _, req := range requests {
			if _, ok := s.allowed[req.Tool]; !ok {
				return nil, fmt.Errorf("%w: tool=%s is not registered", contractx.ErrSchemaViolation, req.Tool)
			}
			result, err := s.executor(ctx, in.Sess, req.Tool, req.Args)
			if err != nil {
				return nil, err
			}
			in.ToolTrace = append(in.ToolTrace, result)
		}
	}

	return nil, fmt.Errorf("%w: tool loop exited without a reply", contractx.ErrSchemaViolation)
}

func (s *Service) invokePlanner(ctx context.Context, in *GraphState, final bool) (*schema.Message, error) {
	mode := "act"
	if final {
		mode = "finalize"
	}

	now := in.Sess.Now
	if now.IsZero() {
		now = s.now()
	}

	payload := map[string]any{
		"mode":           mode,
		"user_message":   in.Text,
		"memory_summary": in.MemorySummary,
		"session_key":    in.Sess.Key,
		"username":       in.Sess.Username,
		"now_utc":        now.UTC().Format(time.RFC3339),
		"tool_results":   in.ToolTrace,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal planner payload: %v", contractx.ErrValidation, err)
	}

	msg, err := s.planRunner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: planner invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: empty planner response", contractx.ErrSchemaViolation)
	}
	return msg, nil
}

func (s *Service) writeMemory(ctx context.Context, in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	update := "user: " + in.Text + "\nassistant: " + in.Message
	if len(update) > memorySummaryLimit {
		update = update[:memorySummaryLimit]
	}
	if err := s.memory.WriteSummary(ctx, in.Sess.Key, update); err != nil {
		log.Warn().Err(err).Str("session", in.Sess.Key).Msg("memory write failed")
	}
	return in, nil
}

func toToolRequests(calls []schema.ToolCall) ([]contractx.ToolRequest, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	reqs := make([]contractx.ToolRequest, 0, len(calls))
	for _, call := range calls {
		tool := strings.TrimSpace(call.Function.Name)
		if tool == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		rawArgs := strings.TrimSpace(call.Function.Arguments)
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, tool, err)
			}
		}

		reqs = append(reqs, contractx.ToolRequest{
			Tool: tool,
			Args: args,
		})
	}
	return reqs, nil
}

type noopMemoryStore struct{}

func (noopMemoryStore) ReadSummary(context.Context, string) (string, error) {
	return "", nil
}

func (noopMemoryStore) WriteSummary(context.Context, string, string) error {
	return nil
}
