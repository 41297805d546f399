// File: cmd/tool.go
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/otto-cli/internal/observability"
	"github.com/xkilldash9x/otto-cli/internal/screen"
	"github.com/xkilldash9x/otto-cli/internal/tools"
)

// ErrToolFailed is returned by the tool command when the invocation did not
// succeed. The report has already been printed.
var ErrToolFailed = errors.New("tool reported a failure")

func newToolCmd() *cobra.Command {
	var (
		pairs          []string
		rawJSON        string
		screenshotsDir string
		raw            bool
	)

	cmd := &cobra.Command{
		Use:   "tool <name>",
		Short: "Run a single tool and print its report",
		Example: `  otto tool press_key --arg key=ctrl+s
  otto tool click_at_position --arg x=640 --arg y=400 --screenshots ./shots
  otto tool retry_with_delay --json '{"action_type":"press_key","delay_seconds":1}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			toolArgs, err := parseToolArgs(rawJSON, pairs)
			if err != nil {
				return err
			}

			rt, err := newRuntime(cmd.Context(), cfg, observability.GetLogger())
			if err != nil {
				return err
			}
			defer rt.Close()

			inv := rt.registry.Invoke(cmd.Context(), args[0], toolArgs)

			report := inv.Report
			if !raw {
				report, err = extractScreenshots(report, screenshotsDir, inv.ID)
				if err != nil {
					return err
				}
			}
			printReport(cmd.OutOrStdout(), report)
			if !inv.Succeeded() {
				return fmt.Errorf("%w: %s", ErrToolFailed, inv.Code)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&pairs, "arg", "a", nil, "tool argument as key=value (repeatable)")
	cmd.Flags().StringVar(&rawJSON, "json", "", "tool arguments as a JSON object")
	cmd.Flags().StringVar(&screenshotsDir, "screenshots", "", "directory to save screenshots into")
	cmd.Flags().BoolVar(&raw, "raw", false, "print screenshots inline as data URIs")
	return cmd
}

// parseToolArgs merges the JSON object with key=value pairs; pairs win.
// Values stay strings and are coerced by the registry.
func parseToolArgs(rawJSON string, pairs []string) (tools.Args, error) {
	out, err := tools.DecodeArgs([]byte(rawJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid --json: %w", err)
	}
	if out == nil {
		out = tools.Args{}
	}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --arg %q: expected key=value", p)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

// extractScreenshots replaces embedded screenshots with a placeholder, or
// with the path of a saved PNG when dir is set.
func extractScreenshots(report, dir, id string) (string, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create screenshot directory: %w", err)
		}
	}
	var saveErr error
	n := 0
	out := screen.ReplaceDataURIs(report, func(uri string) string {
		n++
		if dir == "" {
			return fmt.Sprintf("[screenshot %d omitted]", n)
		}
		data, err := screen.DataURIBytes(uri)
		if err != nil {
			return "[unreadable screenshot]"
		}
		path := filepath.Join(dir, fmt.Sprintf("%s-%d.png", id, n))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			saveErr = errors.Join(saveErr, err)
			return fmt.Sprintf("[screenshot %d not saved]", n)
		}
		return path
	})
	if saveErr != nil {
		return out, fmt.Errorf("failed to save screenshots: %w", saveErr)
	}
	return out, nil
}

func printReport(w io.Writer, report string) {
	fmt.Fprintln(w, strings.TrimRight(report, "\n"))
}
