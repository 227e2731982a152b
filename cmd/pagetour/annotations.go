package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/standardbeagle/pagetour/internal/annotation"
	"github.com/standardbeagle/pagetour/internal/store"
)

var annotationsCmd = &cobra.Command{
	Use:     "annotations",
	Aliases: []string{"ann"},
	Short:   "Manage stored guides and tags",
}

// withStore opens the configured store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(store.Store) error) error {
	cfg, base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg, base)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

var annotationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List annotations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		pageKey, _ := cmd.Flags().GetString("page")

		return withStore(cmd, func(st store.Store) error {
			list, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			var shown []annotation.Annotation
			for _, a := range list {
				if kind != "" && string(a.Kind) != kind {
					continue
				}
				if pageKey != "" && a.PageKey != pageKey {
					continue
				}
				shown = append(shown, a)
			}

			if wantJSON(cmd) {
				if shown == nil {
					shown = []annotation.Annotation{}
				}
				return printJSON(cmd.OutOrStdout(), shown)
			}
			rows := make([][]string, 0, len(shown))
			for _, a := range shown {
				label := a.Payload.Title
				if label == "" {
					label = a.Payload.Name
				}
				rows = append(rows, []string{a.ID, string(a.Kind), string(a.Status), a.PageKey, a.Locator.Selector, label})
			}
			return table(cmd.OutOrStdout(), []string{"ID", "KIND", "STATUS", "PAGE", "SELECTOR", "LABEL"}, rows)
		})
	},
}

var annotationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete annotations by id",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(st store.Store) error {
			for _, id := range args {
				if err := st.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			}
			return nil
		})
	},
}

var annotationsExportCmd = &cobra.Command{
	Use:   "export [file.yaml]",
	Short: "Export every annotation as YAML (stdout by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(st store.Store) error {
			if len(args) == 0 {
				return store.Export(cmd.Context(), st, cmd.OutOrStdout())
			}
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := store.Export(cmd.Context(), st, f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		})
	},
}

var annotationsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import annotations from a YAML export; matching ids are replaced",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		return withStore(cmd, func(st store.Store) error {
			n, err := store.Import(cmd.Context(), st, f)
			if err != nil {
				return fmt.Errorf("imported %d before failing: %w", n, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d annotations\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(annotationsCmd)
	annotationsCmd.AddCommand(annotationsListCmd, annotationsDeleteCmd, annotationsExportCmd, annotationsImportCmd)
	annotationsListCmd.Flags().String("kind", "", "Filter by kind: guide, page-tag, feature-tag")
	annotationsListCmd.Flags().String("page", "", "Filter by page key")
}
