// Package report renders the text returned by every tool. A paired report
// reads: intent sentence, before-image URI, blank line, result sentence,
// after-image URI.
package report

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/otto-cli/internal/screen"
)

// Pair renders a before/after report from two already-encoded data URIs.
func Pair(intro, beforeURI, outro, afterURI string) string {
	return intro + "\n" + beforeURI + "\n\n" + outro + "\n" + afterURI
}

// Observed encodes both snapshots and renders them with Pair.
func Observed(intro string, before screen.Snapshot, outro string, after screen.Snapshot) (string, error) {
	beforeURI, err := before.DataURI()
	if err != nil {
		return "", fmt.Errorf("encode before screenshot: %w", err)
	}
	afterURI, err := after.DataURI()
	if err != nil {
		return "", fmt.Errorf("encode after screenshot: %w", err)
	}
	return Pair(intro, beforeURI, outro, afterURI), nil
}

// Failure renders the uniform OS-error sentence.
func Failure(verb string, err error) string {
	return fmt.Sprintf("Failed to %s: %v", verb, err)
}

// Listing renders a titled block: the header, a rule of '=' the given
// width, then each entry as-is.
func Listing(header string, rule int, entries []string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", rule))
	b.WriteString("\n")
	for _, e := range entries {
		b.WriteString(e)
	}
	return b.String()
}

// YesNo renders a flag the way listings display it.
func YesNo(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}
