package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/standardbeagle/pagetour/internal/browser"
	"github.com/standardbeagle/pagetour/internal/channel"
	"github.com/standardbeagle/pagetour/internal/config"
	"github.com/standardbeagle/pagetour/internal/debug"
	"github.com/standardbeagle/pagetour/internal/dom"
	"github.com/standardbeagle/pagetour/internal/editorserver"
	"github.com/standardbeagle/pagetour/internal/eventloop"
	"github.com/standardbeagle/pagetour/internal/geometry"
	"github.com/standardbeagle/pagetour/internal/orchestrator"
	"github.com/standardbeagle/pagetour/internal/overlay"
	"github.com/standardbeagle/pagetour/internal/session"
	"github.com/standardbeagle/pagetour/internal/store"
)

var viewCmd = &cobra.Command{
	Use:   "view <url>",
	Short: "Open a page in Chrome with its guides (and optionally the heatmap)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPage(cmd, args[0], "")
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <url>",
	Short: "Open a page in Chrome in editor mode",
	Long: `Opens the page with the editor launch parameters, so the page enters
editor mode and keeps it across reloads until the editor is exited.

Variants:
  guide        pick an element, then write a tooltip for it
  tag-page     tag the current page
  tag-feature  tag a feature element (picking starts from the editor)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _ := cmd.Flags().GetString("variant")
		if _, err := channel.ParseVariant(v); err != nil {
			return err
		}
		return runPage(cmd, args[0], v)
	},
}

func init() {
	rootCmd.AddCommand(viewCmd, editCmd)
	for _, c := range []*cobra.Command{viewCmd, editCmd} {
		c.Flags().Bool("heatmap", false, "Start with the feature heatmap shown")
		c.Flags().Bool("headless", false, "Run Chrome without a window")
		c.Flags().String("remote", "", "DevTools URL of a running Chrome instead of launching one")
	}
	editCmd.Flags().String("variant", string(channel.VariantGuide), "Editor variant: guide, tag-page, tag-feature")
}

// launchURL adds the editor launch parameters to raw.
func launchURL(raw, variant string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	q := u.Query()
	q.Set(session.ParamMode, session.ModeEditor)
	q.Set(session.ParamVariant, variant)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func runPage(cmd *cobra.Command, pageURL, variant string) error {
	ctx := cmd.Context()
	cfg, base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if variant != "" {
		if pageURL, err = launchURL(pageURL, variant); err != nil {
			return err
		}
	}

	st, err := openStore(cfg, base)
	if err != nil {
		return err
	}
	defer st.Close()
	flags := store.NewFileFlags(config.ResolvePath(base, cfg.Store.FlagsPath))

	srv := editorserver.New(editorserver.Config{
		Addr:           cfg.EditorServer.Listen,
		AllowedOrigins: cfg.EditorServer.AllowedOrigins,
	})
	if err := srv.Start(); err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}()
	editorURL := editorBase(cfg, srv.URL())

	bcfg := browser.Config{
		Bin:      cfg.Browser.Bin,
		Headless: cfg.Browser.Headless,
		Width:    cfg.Browser.Width,
		Height:   cfg.Browser.Height,
	}
	if cmd.Flags().Changed("headless") {
		bcfg.Headless, _ = cmd.Flags().GetBool("headless")
	}
	bcfg.RemoteURL, _ = cmd.Flags().GetString("remote")
	b, err := browser.Launch(ctx, bcfg)
	if err != nil {
		return err
	}
	defer b.Close()

	// The loop outlives ctx so teardown can still run on it.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loop := eventloop.New(loopCtx)
	defer loop.Close()

	page, err := b.Open(ctx, pageURL, loop)
	if err != nil {
		return err
	}
	defer page.Close()

	heatmap, _ := cmd.Flags().GetBool("heatmap")
	r := &pageRunner{
		ctx:   ctx,
		page:  page,
		flags: flags,
		opts: orchestrator.Options{
			Loop:  loop,
			Store: st,
			Channel: channel.Options{
				EditorURL:    editorURL,
				Dial:         srv.Dial,
				RetryDelay:   cfg.Channel.RetryDelayDuration(),
				ReadyTimeout: cfg.Channel.ReadyTimeoutDuration(),
			},
			Engine: newEngine(cfg),
			Guide: overlay.GuideOptions{
				Positioner: geometry.Positioner{
					Offset: float64(cfg.Positioning.Offset),
					Margin: float64(cfg.Positioning.Margin),
				},
				DefaultSize: geometry.Size{
					Width:  float64(cfg.Overlay.TooltipWidth),
					Height: float64(cfg.Overlay.TooltipHeight),
				},
			},
			Reposition: overlay.RepositionerConfig{
				ScrollDebounce: cfg.Overlay.ScrollDebounceDuration(),
				ResizeDebounce: cfg.Overlay.ResizeDebounceDuration(),
			},
			HeatmapOn: heatmap || cfg.Overlay.Heatmap,
		},
	}
	loop.Do(func() {
		page.AddEventListener(dom.EventDOMContentLoaded, r.onDocumentLoaded, dom.ListenerOptions{})
		r.start()
	})
	fmt.Fprintf(cmd.ErrOrStderr(), "pagetour running on %s (editor server %s); Ctrl-C to stop\n", pageURL, srv.URL())

	<-ctx.Done()
	loop.Do(r.stop)
	return nil
}

// pageRunner keeps one orchestrator per document loaded in the tab. Its
// methods run on the page loop.
type pageRunner struct {
	ctx   context.Context
	page  *browser.Page
	flags store.Flags
	opts  orchestrator.Options

	docID string
	orch  *orchestrator.Orchestrator
}

func (r *pageRunner) start() {
	r.stop()
	r.docID = r.page.DocumentID()

	sess, err := session.Load(r.page, r.flags)
	if err != nil {
		debug.Error("cli", "load session: %v", err)
		return
	}
	opts := r.opts
	opts.Doc = r.page
	opts.Session = sess
	o, err := orchestrator.New(opts)
	if err != nil {
		debug.Error("cli", "%v", err)
		return
	}
	r.orch = o
	if err := o.Start(r.ctx); err != nil {
		debug.Error("cli", "start: %v", err)
	}
	debug.Info("cli", "%s on %s", o.Mode(), r.page.URL())
}

func (r *pageRunner) stop() {
	if r.orch != nil {
		r.orch.Destroy()
		r.orch = nil
	}
}

// onDocumentLoaded restarts after a reload or navigation.
func (r *pageRunner) onDocumentLoaded(*dom.Event) {
	if id := r.page.DocumentID(); id != "" && id != r.docID {
		r.start()
	}
}

// editorBase is the configured editor URL, or the live server address
// when none is pinned.
func editorBase(cfg *config.Config, listening string) string {
	if cfg.Channel.EditorURL != "" {
		return cfg.Channel.EditorURL
	}
	return listening
}
