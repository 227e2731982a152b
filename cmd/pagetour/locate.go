package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/standardbeagle/pagetour/internal/tools"
)

var locateCmd = &cobra.Command{
	Use:   "locate <file.html> <query>",
	Short: "Generate locators for the elements a CSS query selects",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		pageURL, _ := cmd.Flags().GetString("url")
		limit, _ := cmd.Flags().GetInt("limit")

		out, err := tools.New(nil, newEngine(cfg)).Locate(tools.LocateInput{
			File:  args[0],
			URL:   pageURL,
			Query: args[1],
			Limit: limit,
		})
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), out)
		}

		rows := make([][]string, 0, len(out.Elements))
		for _, e := range out.Elements {
			rows = append(rows, []string{
				e.Element.Tag,
				string(e.Locator.Method),
				string(e.Locator.Confidence),
				strconv.FormatBool(e.Unique),
				e.Locator.Selector,
			})
		}
		if err := table(cmd.OutOrStdout(), []string{"TAG", "METHOD", "CONFIDENCE", "UNIQUE", "SELECTOR"}, rows); err != nil {
			return err
		}
		if out.Matches > len(out.Elements) {
			fmt.Fprintf(cmd.OutOrStdout(), "(%d of %d matches)\n", len(out.Elements), out.Matches)
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <file.html> <selector>",
	Short: "Replay a stored selector against a page",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := tools.Check(tools.CheckInput{File: args[0], Selector: args[1]})
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
		} else if out.Found {
			fmt.Fprintf(cmd.OutOrStdout(), "found <%s> (%d matches)\n", out.Element.Tag, out.Matches)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "not resolvable: %s\n", out.Reason)
		}
		if !out.Found {
			return fmt.Errorf("selector %q does not resolve", args[1])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(locateCmd, checkCmd)
	locateCmd.Flags().String("url", "", "Page URL, for page keys")
	locateCmd.Flags().Int("limit", 20, "Maximum elements to describe")
}
