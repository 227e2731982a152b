package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// wantJSON reports whether cmd should print JSON: when asked, or when
// stdout is not a terminal.
func wantJSON(cmd *cobra.Command) bool {
	if on, _ := cmd.Flags().GetBool("json"); on {
		return true
	}
	return !term.IsTerminal(int(os.Stdout.Fd()))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table prints rows under header, clipping the last column to the
// terminal width.
func table(w io.Writer, header []string, rows [][]string) error {
	width := 0
	if cols, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = cols
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		if width > 0 && len(r) > 0 {
			r[len(r)-1] = clip(r[len(r)-1], width/2)
		}
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func clip(s string, n int) string {
	if n <= 3 || len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
