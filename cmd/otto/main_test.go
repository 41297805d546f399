// File: cmd/otto/main_test.go
package main

import (
	"errors"
	"io/fs"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
}

func TestHandlePanic(t *testing.T) {
	t.Cleanup(resetMocks)

	t.Run("writes the panic log", func(t *testing.T) {
		var (
			path    string
			content string
			code    = -1
		)
		osWriteFile = func(name string, data []byte, _ fs.FileMode) error {
			path, content = name, string(data)
			return nil
		}
		osExit = func(c int) { code = c }

		func() {
			defer handlePanic()
			panic("pointer stuck in corner")
		}()

		assert.Equal(t, panicLogFile, path)
		assert.Contains(t, content, "panic: pointer stuck in corner")
		assert.Contains(t, content, "goroutine")
		assert.Equal(t, 1, code)
	})

	t.Run("exits even when the log cannot be written", func(t *testing.T) {
		code := -1
		osWriteFile = func(string, []byte, fs.FileMode) error { return errors.New("read-only fs") }
		osExit = func(c int) { code = c }

		func() {
			defer handlePanic()
			panic("boom")
		}()
		assert.Equal(t, 1, code)
	})

	t.Run("no panic is a no-op", func(t *testing.T) {
		called := false
		osExit = func(int) { called = true }
		func() {
			defer handlePanic()
		}()
		require.False(t, called)
	})
}
