package mcp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/otto-cli/internal/agent"
	"github.com/xkilldash9x/otto-cli/internal/config"
	"github.com/xkilldash9x/otto-cli/internal/store"
	"github.com/xkilldash9x/otto-cli/internal/tools"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeConversation struct {
	reply string
	err   error
}

func (f *fakeConversation) Send(_ context.Context, prompt string, progress agent.Progress) (string, error) {
	progress("Running press_key.")
	if f.err != nil {
		return "", f.err
	}
	return f.reply + " " + prompt, nil
}

type staticJournal struct{ recs []store.Record }

func (j staticJournal) Record(context.Context, store.Record) error { return nil }
func (j staticJournal) Recent(_ context.Context, limit int) ([]store.Record, error) {
	return j.recs[:min(limit, len(j.recs))], nil
}
func (j staticJournal) Close() error { return nil }

func newTestServer(t *testing.T, conv ConversationFactory, journal store.Journal) *httptest.Server {
	t.Helper()
	// Connection goroutines may outlive the test body by a moment, so they
	// must not log through t.
	logger := zap.NewNop()
	reg := tools.NewRegistry(nil, logger)
	reg.Register(tools.Tool{
		Name:        "press_key",
		Description: "Press a key.",
		Params:      []tools.Param{{Name: "key", Type: tools.TypeString, Required: true}},
	}, func(_ context.Context, args tools.Args) tools.Result {
		if args.String("key") == "" {
			return tools.Result{Report: "No key specified", Err: errors.New("empty key")}
		}
		return tools.Result{Report: "pressed " + args.String("key")}
	})

	cfg := config.NewDefaultConfig().Server()
	srv := NewServer(cfg, reg, journal, conv, logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postCommand(t *testing.T, url, body string) (int, CommandResponse) {
	t.Helper()
	resp, err := http.Post(url+"/api/v1/command", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out CommandResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestListTools(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	resp, err := http.Get(ts.URL + "/api/v1/tools")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Status string       `json:"status"`
		Data   []tools.Tool `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "success", out.Status)
	require.Len(t, out.Data, 1)
	assert.Equal(t, "press_key", out.Data[0].Name)
	assert.Equal(t, "key", out.Data[0].Params[0].Name)
}

func TestCommand(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	tests := []struct {
		name       string
		body       string
		wantCode   int
		wantStatus string
		wantReport string
	}{
		{"success", `{"command":"press_key","params":{"key":"ctrl+s"}}`, http.StatusOK, "success", "pressed ctrl+s"},
		{"tool failure", `{"command":"press_key","params":{"key":""}}`, http.StatusOK, "error", "No key specified"},
		{"missing argument", `{"command":"press_key","params":{}}`, http.StatusBadRequest, "error",
			"Invalid arguments for press_key: key: missing required argument"},
		{"unknown tool", `{"command":"teleport"}`, http.StatusNotFound, "error", "Unknown tool: teleport"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := postCommand(t, ts.URL, tt.body)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, out.Status)
			data, ok := out.Data.(map[string]any)
			require.True(t, ok, "data should carry the invocation")
			assert.Equal(t, tt.wantReport, data["report"])
			assert.NotEmpty(t, data["invocation_id"])
		})
	}

	code, out := postCommand(t, ts.URL, `{"command":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.True(t, strings.HasPrefix(out.Error, "Invalid request body"))
}

func TestHistory(t *testing.T) {
	journal := staticJournal{recs: []store.Record{
		{ID: "b", Tool: "press_key", Outcome: store.OutcomeSucceeded},
		{ID: "a", Tool: "type_text", Outcome: store.OutcomeFailed},
	}}
	ts := newTestServer(t, nil, journal)

	resp, err := http.Get(ts.URL + "/api/v1/history?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	var out struct {
		Data []store.Record `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Data, 1)
	assert.Equal(t, "b", out.Data[0].ID)

	bad, err := http.Get(ts.URL + "/api/v1/history?limit=zero")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/v1/interact"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func prompt(id, text string) WSMessage {
	return WSMessage{Type: MsgTypeUserPrompt, RequestID: id, Data: map[string]any{"prompt": text}}
}

func TestInteractRoundTrip(t *testing.T) {
	ts := newTestServer(t, func() (Conversation, error) {
		return &fakeConversation{reply: "Done:"}, nil
	}, nil)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(prompt("r1", "save the file")))

	var types []MessageType
	var final WSMessage
	for {
		msg := readMessage(t, conn)
		assert.Equal(t, "r1", msg.RequestID)
		types = append(types, msg.Type)
		if msg.Type != MsgTypeStatusUpdate {
			final = msg
			break
		}
	}
	assert.Equal(t, []MessageType{MsgTypeStatusUpdate, MsgTypeStatusUpdate, MsgTypeAgentResponse}, types)
	assert.Equal(t, "Done: save the file", final.Data["content"])

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
}

func TestInteractWithoutModel(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(prompt("r1", "hello")))
	msg := readMessage(t, conn)
	assert.Equal(t, MsgTypeSystemError, msg.Type)
	assert.Contains(t, msg.Data["error"], "no model is configured")
}

func TestInteractRejectsBadMessages(t *testing.T) {
	ts := newTestServer(t, func() (Conversation, error) {
		return &fakeConversation{err: errors.New("model unreachable")}, nil
	}, nil)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(prompt("", "hello")))
	assert.Equal(t, "UserPrompt message requires a valid request_id.", readMessage(t, conn).Data["error"])

	require.NoError(t, conn.WriteJSON(prompt("r2", "  ")))
	assert.Equal(t, "Invalid or empty 'prompt' provided.", readMessage(t, conn).Data["error"])

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "Shout", RequestID: "r3"}))
	assert.Equal(t, "Unknown or unsupported message type: Shout", readMessage(t, conn).Data["error"])

	require.NoError(t, conn.WriteJSON(prompt("r4", "hello")))
	var last WSMessage
	for last.Type != MsgTypeSystemError {
		last = readMessage(t, conn)
	}
	assert.Equal(t, "model unreachable", last.Data["error"])
}

func TestServeShutsDownOnCancel(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := config.NewDefaultConfig().Server()
	cfg.ShutdownGrace = time.Second
	srv := NewServer(cfg, tools.NewRegistry(nil, logger), nil, nil, logger)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client := &http.Client{}
	defer client.CloseIdleConnections()
	require.Eventually(t, func() bool {
		resp, err := client.Post("http://"+ln.Addr().String()+"/api/v1/command", "application/json",
			bytes.NewBufferString(`{"command":"nothing"}`))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNotFound
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
