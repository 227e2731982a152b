package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/standardbeagle/pagetour/internal/config"
	"github.com/standardbeagle/pagetour/internal/debug"
	"github.com/standardbeagle/pagetour/internal/locator"
	"github.com/standardbeagle/pagetour/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "pagetour",
	Short: "Author and replay in-page guides and feature tags",
	Long: `pagetour anchors tooltips and feature tags to elements of a web page
with durable CSS locators, and replays them as overlays that follow the page
as it scrolls and resizes.

Configuration is read from .pagetour.kdl in the project directory or any
parent. Environment variables may be set in a .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := loadEnv(envFile); err != nil {
			return err
		}
		if on, _ := cmd.Flags().GetBool("debug"); on {
			debug.Enable()
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("dir", ".", "Project directory; .pagetour.kdl is searched from here upward")
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file loaded before running")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (also "+debug.EnvVar+")")
	rootCmd.PersistentFlags().Bool("json", false, "Print JSON even on a terminal")
}

// loadEnv loads name into the environment without overriding variables
// already set. A missing file is not an error.
func loadEnv(name string) error {
	if name == "" {
		return nil
	}
	err := godotenv.Load(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	if debug.IsEnabled() {
		return nil
	}
	if os.Getenv(debug.EnvVar) != "" {
		debug.Enable()
	}
	return nil
}

// loadConfig returns the config and the directory relative paths resolve
// against.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	cfg, base, err := config.Load(dir)
	if err != nil {
		return nil, "", err
	}
	debug.Log("cli", "config base %s, store %s", base, cfg.Store.Backend)
	return cfg, base, nil
}

func openStore(cfg *config.Config, base string) (store.Store, error) {
	return store.Open(cfg.Store.Backend, config.ResolvePath(base, cfg.Store.Path))
}

func newEngine(cfg *config.Config) *locator.Engine {
	return locator.NewEngine(locator.Options{
		TestIDAttributes:    cfg.Locator.TestIDAttributes,
		PreferredAttributes: cfg.Locator.PreferredAttributes,
		MaxPathDepth:        cfg.Locator.MaxPathDepth,
	})
}
