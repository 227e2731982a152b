// Package config loads pagetour settings from .pagetour.kdl.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	kdl "github.com/sblinch/kdl-go"
)

// FileName is the name of the pagetour configuration file.
const FileName = ".pagetour.kdl"

// Config represents the pagetour configuration.
type Config struct {
	Locator      *LocatorConfig      `kdl:"locator"`
	Positioning  *PositioningConfig  `kdl:"positioning"`
	Overlay      *OverlayConfig      `kdl:"overlay"`
	Channel      *ChannelConfig      `kdl:"channel"`
	EditorServer *EditorServerConfig `kdl:"editor-server"`
	Store        *StoreConfig        `kdl:"store"`
	Browser      *BrowserConfig      `kdl:"browser"`
}

// LocatorConfig tunes locator generation.
type LocatorConfig struct {
	TestIDAttributes    []string `kdl:"test-id-attributes"`
	PreferredAttributes []string `kdl:"preferred-attributes"`
	MaxPathDepth        int      `kdl:"max-path-depth"`
}

// PositioningConfig holds overlay placement distances in CSS pixels.
type PositioningConfig struct {
	Offset int `kdl:"offset"`
	Margin int `kdl:"margin"`
}

// OverlayConfig configures the renderers.
type OverlayConfig struct {
	// Fallback tooltip size when the backend reports no layout
	TooltipWidth  int `kdl:"tooltip-width"`
	TooltipHeight int `kdl:"tooltip-height"`
	// Reposition debounce in milliseconds
	ScrollDebounce int `kdl:"scroll-debounce"`
	ResizeDebounce int `kdl:"resize-debounce"`
	// Heatmap starts enabled
	Heatmap bool `kdl:"heatmap"`
}

// ChannelConfig configures the editor frame channel.
type ChannelConfig struct {
	// Base URL of the editor server; empty follows editor-server listen
	EditorURL string `kdl:"editor-url"`
	// Milliseconds between send attempts before ready
	RetryDelay int `kdl:"retry-delay"`
	// Milliseconds before an unsent message is dropped; 0 retries forever
	ReadyTimeout int `kdl:"ready-timeout"`
}

// EditorServerConfig configures the editor surface host.
type EditorServerConfig struct {
	Listen         string   `kdl:"listen"`
	AllowedOrigins []string `kdl:"allowed-origins"`
}

// StoreConfig selects the annotation backend.
type StoreConfig struct {
	// "file" or "sqlite"
	Backend string `kdl:"backend"`
	// Relative paths resolve against the config file's directory
	Path string `kdl:"path"`
	// Session flag file
	FlagsPath string `kdl:"flags-path"`
}

// BrowserConfig configures the live Chrome backend.
type BrowserConfig struct {
	Headless bool   `kdl:"headless"`
	Bin      string `kdl:"bin"`
	Width    int    `kdl:"width"`
	Height   int    `kdl:"height"`
}

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Locator: &LocatorConfig{
			TestIDAttributes:    []string{"data-testid"},
			PreferredAttributes: []string{"data-id", "data-name", "data-role", "data-component", "data-element"},
			MaxPathDepth:        5,
		},
		Positioning: &PositioningConfig{
			Offset: 12,
			Margin: 10,
		},
		Overlay: &OverlayConfig{
			TooltipWidth:   280,
			TooltipHeight:  120,
			ScrollDebounce: 50,
			ResizeDebounce: 100,
		},
		Channel: &ChannelConfig{
			RetryDelay:   100,
			ReadyTimeout: 0,
		},
		EditorServer: &EditorServerConfig{
			Listen: "127.0.0.1:7420",
		},
		Store: &StoreConfig{
			Backend:   BackendFile,
			Path:      ".pagetour/annotations.json",
			FlagsPath: ".pagetour/session.json",
		},
		Browser: &BrowserConfig{
			Headless: false,
			Width:    1280,
			Height:   800,
		},
	}
}

// Load loads configuration from dir, searching upward for .pagetour.kdl.
// The returned directory is where the file was found, or dir when none was.
func Load(dir string) (*Config, string, error) {
	path := FindFile(dir)
	if path == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			abs = dir
		}
		return DefaultConfig(), abs, nil
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, filepath.Dir(path), nil
}

// FindFile searches for .pagetour.kdl starting from dir and walking up.
func FindFile(dir string) string {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		p := filepath.Join(absDir, FileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}

		parent := filepath.Dir(absDir)
		if parent == absDir {
			break
		}
		absDir = parent
	}

	return ""
}

// LoadFile loads configuration from a specific file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(string(data))
}

// Parse parses KDL configuration data over the defaults.
func Parse(data string) (*Config, error) {
	cfg := DefaultConfig()

	if err := kdl.Unmarshal([]byte(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fillDefaults restores sections a file declared empty.
func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.Locator == nil {
		c.Locator = def.Locator
	}
	if c.Positioning == nil {
		c.Positioning = def.Positioning
	}
	if c.Overlay == nil {
		c.Overlay = def.Overlay
	}
	if c.Channel == nil {
		c.Channel = def.Channel
	}
	if c.EditorServer == nil {
		c.EditorServer = def.EditorServer
	}
	if c.Store == nil {
		c.Store = def.Store
	}
	if c.Browser == nil {
		c.Browser = def.Browser
	}
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	if c.Locator.MaxPathDepth < 1 {
		return fmt.Errorf("locator max-path-depth must be positive, got %d", c.Locator.MaxPathDepth)
	}
	if c.Positioning.Offset < 1 || c.Positioning.Margin < 1 {
		return fmt.Errorf("positioning offset and margin must be positive, got %d and %d",
			c.Positioning.Offset, c.Positioning.Margin)
	}
	if c.Overlay.ScrollDebounce < 0 || c.Overlay.ResizeDebounce < 0 {
		return fmt.Errorf("overlay debounce must not be negative")
	}
	if c.Channel.RetryDelay <= 0 {
		return fmt.Errorf("channel retry-delay must be positive, got %d", c.Channel.RetryDelay)
	}
	if c.Channel.ReadyTimeout < 0 {
		return fmt.Errorf("channel ready-timeout must not be negative, got %d", c.Channel.ReadyTimeout)
	}
	switch c.Store.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// ScrollDebounceDuration returns the scroll reposition debounce.
func (o *OverlayConfig) ScrollDebounceDuration() time.Duration {
	return time.Duration(o.ScrollDebounce) * time.Millisecond
}

// ResizeDebounceDuration returns the resize reposition debounce.
func (o *OverlayConfig) ResizeDebounceDuration() time.Duration {
	return time.Duration(o.ResizeDebounce) * time.Millisecond
}

// RetryDelayDuration returns the pre-ready resend delay.
func (c *ChannelConfig) RetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay) * time.Millisecond
}

// ReadyTimeoutDuration returns the ready timeout; zero means none.
func (c *ChannelConfig) ReadyTimeoutDuration() time.Duration {
	return time.Duration(c.ReadyTimeout) * time.Millisecond
}

// ResolvePath makes p absolute relative to base.
func ResolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// WriteDefault writes a default configuration file with documentation.
func WriteDefault(path string) error {
	defaultKDL := `// pagetour configuration

// Locator generation
locator {
    test-id-attributes "data-testid"
    preferred-attributes "data-id" "data-name" "data-role" "data-component" "data-element"
    max-path-depth 5        // Structural path segments before the walk stops
}

// Overlay placement in CSS pixels
positioning {
    offset 12               // Gap between target and tooltip
    margin 10               // Inset from the viewport edge when clamping
}

overlay {
    tooltip-width 280       // Fallback size when no layout is reported
    tooltip-height 120
    scroll-debounce 50      // ms
    resize-debounce 100     // ms
    heatmap false           // Show feature-tag heatmap in viewer mode
}

// Editor frame channel
channel {
    // editor-url "http://127.0.0.1:7420"  // Defaults to the editor-server listener
    retry-delay 100         // ms between sends before the editor is ready
    ready-timeout 0         // ms before dropping an unsent message, 0 = never
}

editor-server {
    listen "127.0.0.1:7420"
    // allowed-origins "http://localhost:3000"
}

// Annotation storage
store {
    backend "file"          // file or sqlite
    path ".pagetour/annotations.json"
    flags-path ".pagetour/session.json"
}

// Live browser
browser {
    headless false
    // bin "/usr/bin/chromium"
    width 1280
    height 800
}
`
	return os.WriteFile(path, []byte(defaultKDL), 0644)
}
