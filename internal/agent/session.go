package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/xkilldash9x/otto-cli/internal/config"
	"github.com/xkilldash9x/otto-cli/internal/tools"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Progress receives short status lines while a turn is running.
type Progress func(status string)

// Session is one conversation. Turns are serialised; the history grows until
// Reset.
type Session struct {
	model        Model
	registry     *tools.Registry
	limiter      *rate.Limiter
	instructions string
	maxRounds    int
	logger       *zap.Logger

	mu      sync.Mutex
	history []Message
}

// NewSession creates a conversation driving registry through model.
func NewSession(model Model, registry *tools.Registry, cfg config.AgentConfig, logger *zap.Logger) *Session {
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60)
	}
	instructions := cfg.Instructions
	if strings.TrimSpace(instructions) == "" {
		instructions = DefaultInstructions
	}
	rounds := cfg.MaxToolRounds
	if rounds <= 0 {
		rounds = 1
	}
	return &Session{
		model:        model,
		registry:     registry,
		limiter:      rate.NewLimiter(limit, 1),
		instructions: instructions,
		maxRounds:    rounds,
		logger:       logger.Named("agent_session"),
	}
}

// History returns a copy of the conversation so far.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.history...)
}

// Reset forgets the conversation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// Send adds prompt to the conversation and runs the model, executing the
// tools it calls, until it answers with text alone. progress may be nil.
//
// On error the history is rolled back to before prompt, so a failed turn can
// simply be retried.
func (s *Session) Send(ctx context.Context, prompt string, progress Progress) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if progress == nil {
		progress = func(string) {}
	}
	mark := len(s.history)
	s.history = append(s.history, Message{Role: RoleUser, Text: prompt})
	catalog := s.registry.Tools()

	for round := 0; round <= s.maxRounds; round++ {
		if err := s.limiter.Wait(ctx); err != nil {
			s.history = s.history[:mark]
			return "", fmt.Errorf("wait for model quota: %w", err)
		}

		reply, err := s.model.Generate(ctx, Request{
			Instructions: s.instructions,
			History:      s.history,
			Tools:        catalog,
		})
		if err != nil {
			s.history = s.history[:mark]
			return "", fmt.Errorf("generate reply: %w", err)
		}
		s.history = append(s.history, Message{Role: RoleModel, Text: reply.Text, Calls: reply.Calls})

		if len(reply.Calls) == 0 {
			if strings.TrimSpace(reply.Text) == "" {
				s.history = s.history[:mark]
				return "", ErrEmptyReply
			}
			return reply.Text, nil
		}
		if round == s.maxRounds {
			break
		}
		if reply.Text != "" {
			progress(reply.Text)
		}
		s.history = append(s.history, Message{Role: RoleUser, Results: s.runCalls(ctx, reply.Calls, progress)})
	}

	s.logger.Warn("Tool round limit reached.", zap.Int("max_rounds", s.maxRounds))
	s.history = s.history[:mark]
	return "", fmt.Errorf("%w after %d rounds", ErrToolRoundsExceeded, s.maxRounds)
}

func (s *Session) runCalls(ctx context.Context, calls []ToolCall, progress Progress) []ToolResult {
	results := make([]ToolResult, 0, len(calls))
	for _, call := range calls {
		progress(fmt.Sprintf("Running %s.", call.Name))
		inv := s.registry.Invoke(ctx, call.Name, call.Args)
		s.logger.Info("Tool call finished.",
			zap.String("tool", call.Name),
			zap.String("invocation_id", inv.ID),
			zap.String("outcome", inv.Outcome))
		results = append(results, ToolResult{
			CallID: call.ID,
			Name:   call.Name,
			Report: inv.Report,
			Failed: !inv.Succeeded(),
		})
	}
	return results
}
