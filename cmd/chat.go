// File: cmd/chat.go
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/otto-cli/internal/agent"
	"github.com/xkilldash9x/otto-cli/internal/observability"
)

const chatPrompt = "otto > "

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the agent from the terminal",
		Long: `Reads one request per line and lets the agent act on the desktop.
Type /reset to start a new conversation and exit or quit to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := observability.GetLogger()

			rt, err := newRuntime(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			model, err := newModel(ctx, cfg.Agent(), logger)
			if err != nil {
				if errors.Is(err, agent.ErrNoAPIKey) {
					return fmt.Errorf("%w (set agent.api_key or OTTO_AGENT_API_KEY)", err)
				}
				return err
			}
			session := agent.NewSession(model, rt.registry, cfg.Agent(), logger)

			return runChat(ctx, session, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), isInteractive(cmd.InOrStdin()), logger)
		},
	}
}

func isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// runChat feeds each input line to session until EOF, an exit command or
// ctx ends. A failed turn is reported and the loop carries on.
func runChat(ctx context.Context, session *agent.Session, in io.Reader, out, errOut io.Writer, interactive bool, logger *zap.Logger) error {
	scanner := bufio.NewScanner(in)
	progress := func(status string) {
		fmt.Fprintf(errOut, "  ... %s\n", status)
	}

	for {
		if interactive {
			fmt.Fprint(out, chatPrompt)
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "/reset":
			session.Reset()
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		}

		reply, err := session.Send(ctx, line, progress)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("Chat turn failed", zap.Error(err))
			fmt.Fprintf(errOut, "Error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, reply)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}
