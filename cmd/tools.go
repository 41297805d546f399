// File: cmd/tools.go
package cmd

import (
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/otto-cli/internal/observability"
	"github.com/xkilldash9x/otto-cli/internal/tools"
)

var json = jsoniter.Config{EscapeHTML: false, SortMapKeys: true}.Froze()

func newToolsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the available tools and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			rt, err := newRuntime(cmd.Context(), cfg, observability.GetLogger())
			if err != nil {
				return err
			}
			defer rt.Close()

			list := rt.registry.Tools()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			writeToolList(cmd.OutOrStdout(), list)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tool declarations as JSON")
	return cmd
}

func writeToolList(w io.Writer, list []tools.Tool) {
	for _, t := range list {
		fmt.Fprintf(w, "%s(%s)\n    %s\n", t.Name, signature(t.Params), t.Description)
	}
}

// signature renders params as "name:type", wrapping optional ones in
// brackets with their default.
func signature(params []tools.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		s := p.Name + ":" + string(p.Type)
		switch {
		case p.Required:
		case p.Default != nil:
			s = fmt.Sprintf("[%s=%v]", s, p.Default)
		default:
			s = "[" + s + "]"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}
