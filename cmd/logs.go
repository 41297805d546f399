// File: cmd/logs.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
)

func newLogsCmd() *cobra.Command {
	var (
		follow bool
		lines  int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the tail of the log file, optionally following it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			path := cfg.Logger().LogFile
			if path == "" {
				return errors.New("no log file is configured (logger.log_file)")
			}
			if lines < 0 {
				return fmt.Errorf("invalid --lines %d", lines)
			}

			consumed, err := printLastLines(cmd.OutOrStdout(), path, lines)
			if err != nil {
				return err
			}
			if !follow {
				return nil
			}
			return followLog(cmd.Context(), cmd.OutOrStdout(), path, consumed)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing lines as they are written")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of trailing lines to print first")
	return cmd
}

// printLastLines writes the final n lines of path and returns how many bytes
// it read.
func printLastLines(w io.Writer, path string, n int) (int64, error) {
	t, err := tail.TailFile(path, tail.Config{
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer t.Cleanup()

	var (
		ring     []string
		consumed int64
	)
	for line := range t.Lines {
		if line.Err != nil {
			return consumed, fmt.Errorf("failed to read log file: %w", line.Err)
		}
		consumed += int64(len(line.Text)) + 1
		if n == 0 {
			continue
		}
		if len(ring) == n {
			ring = ring[1:]
		}
		ring = append(ring, line.Text)
	}
	for _, l := range ring {
		fmt.Fprintln(w, l)
	}
	return consumed, nil
}

// followLog prints lines appended after offset until ctx ends.
func followLog(ctx context.Context, w io.Writer, path string, offset int64) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Location:  &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to follow log file: %w", err)
	}
	defer func() {
		t.Stop()
		t.Cleanup()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				return fmt.Errorf("failed to read log file: %w", line.Err)
			}
			fmt.Fprintln(w, line.Text)
		}
	}
}
