// File: cmd/chat_test.go
package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/otto-cli/internal/agent"
	"github.com/xkilldash9x/otto-cli/internal/config"
	"github.com/xkilldash9x/otto-cli/internal/tools"
)

// echoModel answers every prompt with its text, or fails on "fail".
type echoModel struct {
	mu      sync.Mutex
	prompts []string
}

func (m *echoModel) Generate(_ context.Context, req agent.Request) (agent.Reply, error) {
	last := req.History[len(req.History)-1].Text
	m.mu.Lock()
	m.prompts = append(m.prompts, last)
	m.mu.Unlock()
	if last == "fail" {
		return agent.Reply{}, errors.New("quota exhausted")
	}
	return agent.Reply{Text: "ok: " + last}, nil
}

func newChatSession(t *testing.T, model agent.Model) *agent.Session {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cfg := config.NewDefaultConfig().Agent()
	cfg.RequestsPerMinute = 6000
	return agent.NewSession(model, tools.NewRegistry(nil, logger), cfg, logger)
}

func TestRunChat(t *testing.T) {
	model := &echoModel{}
	session := newChatSession(t, model)
	in := strings.NewReader("open firefox\n\nfail\n/reset\nsave it\nquit\nnever read\n")
	var out, errOut bytes.Buffer

	err := runChat(context.Background(), session, in, &out, &errOut, false, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "ok: open firefox\nConversation cleared.\nok: save it\n", out.String())
	assert.Contains(t, errOut.String(), "Error: generate reply: quota exhausted")
	assert.Equal(t, []string{"open firefox", "fail", "save it"}, model.prompts)
	assert.Len(t, session.History(), 2, "reset dropped the earlier turns")
}

func TestRunChatPrintsPromptWhenInteractive(t *testing.T) {
	session := newChatSession(t, &echoModel{})
	var out bytes.Buffer

	err := runChat(context.Background(), session, strings.NewReader("hi\n"), &out, &bytes.Buffer{}, true, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, chatPrompt+"ok: hi\n"+chatPrompt, out.String())
}

func TestRunChatStopsOnCancel(t *testing.T) {
	session := newChatSession(t, &echoModel{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runChat(ctx, session, strings.NewReader("hello\nagain\n"), &bytes.Buffer{}, &bytes.Buffer{}, false, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsInteractive(t *testing.T) {
	assert.False(t, isInteractive(strings.NewReader("")))
}
