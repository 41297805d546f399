package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/xkilldash9x/otto-cli/internal/config"
	"github.com/xkilldash9x/otto-cli/internal/screen"
	"github.com/xkilldash9x/otto-cli/internal/tools"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiModel implements Model on the Gemini API.
type GeminiModel struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
	maxRetries  int
	logger      *zap.Logger
}

var _ Model = (*GeminiModel)(nil)

// NewGeminiModel creates a client for cfg.Model.
func NewGeminiModel(ctx context.Context, cfg config.AgentConfig, logger *zap.Logger) (*GeminiModel, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiModel{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.APITimeout,
		maxRetries:  cfg.MaxRetries,
		logger:      logger.Named("agent.gemini"),
	}, nil
}

// Generate sends the conversation and returns the model's reply, retrying
// rate-limit and server errors with exponential backoff.
func (g *GeminiModel) Generate(ctx context.Context, req Request) (Reply, error) {
	contents := toContents(req.History)
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.Instructions, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
	}
	if len(req.Tools) > 0 {
		genCfg.Tools = []*genai.Tool{{FunctionDeclarations: declarations(req.Tools)}}
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute
	b.MaxInterval = 30 * time.Second
	var policy backoff.BackOff = b
	if g.maxRetries > 0 {
		policy = backoff.WithMaxRetries(b, uint64(g.maxRetries))
	}

	var reply Reply
	operation := func() error {
		callCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}

		start := time.Now()
		resp, err := g.client.Models.GenerateContent(callCtx, g.model, contents, genCfg)
		if err != nil {
			if retryable(err) {
				g.logger.Warn("Transient model error, retrying.", zap.Error(err))
				return err
			}
			return backoff.Permanent(err)
		}
		if resp.UsageMetadata != nil {
			g.logger.Info("Model generation complete.",
				zap.Duration("duration", time.Since(start)),
				zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
				zap.Int32("completion_tokens", resp.UsageMetadata.CandidatesTokenCount),
				zap.Int32("total_tokens", resp.UsageMetadata.TotalTokenCount))
		}
		reply, err = fromResponse(resp)
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return Reply{}, err
	}
	return reply, nil
}

// retryable reports whether err is a rate-limit or server-side API error.
func retryable(err error) bool {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
}

func fromResponse(resp *genai.GenerateContentResponse) (Reply, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return Reply{}, fmt.Errorf("%w: no candidates", ErrEmptyReply)
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return Reply{}, fmt.Errorf("%w: finish reason %s", ErrEmptyReply, cand.FinishReason)
	}

	var (
		reply Reply
		text  []string
	)
	for _, p := range cand.Content.Parts {
		switch {
		case p.FunctionCall != nil:
			reply.Calls = append(reply.Calls, ToolCall{
				ID:   p.FunctionCall.ID,
				Name: p.FunctionCall.Name,
				Args: tools.Args(p.FunctionCall.Args),
			})
		case p.Text != "" && !p.Thought:
			text = append(text, p.Text)
		}
	}
	reply.Text = strings.Join(text, "")
	return reply, nil
}

func toContents(history []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		c := &genai.Content{Role: string(m.Role)}
		if m.Text != "" {
			c.Parts = append(c.Parts, genai.NewPartFromText(m.Text))
		}
		for _, call := range m.Calls {
			c.Parts = append(c.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{
				ID:   call.ID,
				Name: call.Name,
				Args: call.Args,
			}})
		}
		for _, res := range m.Results {
			c.Parts = append(c.Parts, resultParts(res)...)
		}
		if len(c.Parts) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// resultParts turns a tool report into a function response plus one inline
// image per embedded screenshot, in report order.
func resultParts(res ToolResult) []*genai.Part {
	var images [][]byte
	n := 0
	text := screen.ReplaceDataURIs(res.Report, func(uri string) string {
		data, err := screen.DataURIBytes(uri)
		if err != nil {
			return "[unreadable screenshot]"
		}
		images = append(images, data)
		n++
		return fmt.Sprintf("[screenshot %d attached]", n)
	})

	key := "output"
	if res.Failed {
		key = "error"
	}
	parts := []*genai.Part{{FunctionResponse: &genai.FunctionResponse{
		ID:       res.CallID,
		Name:     res.Name,
		Response: map[string]any{key: text},
	}}}
	for _, img := range images {
		parts = append(parts, genai.NewPartFromBytes(img, "image/png"))
	}
	return parts
}

func declarations(ts []tools.Tool) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(ts))
	for _, t := range ts {
		decl := &genai.FunctionDeclaration{Name: t.Name, Description: t.Description}
		if len(t.Params) > 0 {
			decl.Parameters = paramSchema(t.Params)
		}
		out = append(out, decl)
	}
	return out
}

func paramSchema(params []tools.Param) *genai.Schema {
	s := &genai.Schema{Type: genai.TypeObject, Properties: make(map[string]*genai.Schema, len(params))}
	for _, p := range params {
		desc := p.Description
		if p.Default != nil {
			desc = fmt.Sprintf("%s (default: %v)", desc, p.Default)
		}
		s.Properties[p.Name] = &genai.Schema{Type: schemaType(p.Type), Description: desc}
		if p.Required {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s
}

func schemaType(t tools.ParamType) genai.Type {
	switch t {
	case tools.TypeInteger:
		return genai.TypeInteger
	case tools.TypeNumber:
		return genai.TypeNumber
	case tools.TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
