// File: cmd/logs_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockedBuffer is a bytes.Buffer safe for one writer and one reader.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "otto.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestPrintLastLines(t *testing.T) {
	path := writeLog(t, "one", "two", "three", "four")

	tests := []struct {
		n    int
		want string
	}{
		{2, "three\nfour\n"},
		{10, "one\ntwo\nthree\nfour\n"},
		{0, ""},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		consumed, err := printLastLines(&buf, path, tt.n)
		require.NoError(t, err)
		assert.Equal(t, tt.want, buf.String())
		assert.Equal(t, int64(len("one\ntwo\nthree\nfour\n")), consumed)
	}
}

func TestPrintLastLinesMissingFile(t *testing.T) {
	_, err := printLastLines(&bytes.Buffer{}, filepath.Join(t.TempDir(), "absent.log"), 5)
	require.Error(t, err)
}

func TestFollowLog(t *testing.T) {
	path := writeLog(t, "old")
	var buf bytes.Buffer
	consumed, err := printLastLines(&buf, path, 5)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	out := &lockedBuffer{}
	done := make(chan error, 1)
	go func() { done <- followLog(ctx, out, path, consumed) }()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("new entry\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool {
		return out.String() == "new entry\n"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("followLog did not stop")
	}
	assert.NotContains(t, out.String(), "old")
}

func TestLogsCommand(t *testing.T) {
	env := newTestEnv(t, "")
	require.NoError(t, os.WriteFile(env.logPath, []byte("a\nb\nc\n"), 0o644))

	out, err := env.run(t, "logs", "-n", "2")
	require.NoError(t, err)
	assert.Equal(t, "b\nc\n", out)

	_, err = env.run(t, "logs", "-n", "-1")
	require.Error(t, err)
}
