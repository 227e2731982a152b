package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse(`
locator {
    test-id-attributes "data-testid" "data-test"
    max-path-depth 3
}
channel {
    ready-timeout 5000
}
store {
    backend "sqlite"
    path "annotations.db"
}
`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got := cfg.Locator.TestIDAttributes; len(got) != 2 || got[1] != "data-test" {
		t.Errorf("TestIDAttributes = %v", got)
	}
	if cfg.Locator.MaxPathDepth != 3 {
		t.Errorf("MaxPathDepth = %d; want 3", cfg.Locator.MaxPathDepth)
	}
	if cfg.Channel.ReadyTimeoutDuration() != 5*time.Second {
		t.Errorf("ReadyTimeout = %v; want 5s", cfg.Channel.ReadyTimeoutDuration())
	}
	if cfg.Channel.RetryDelayDuration() != 100*time.Millisecond {
		t.Errorf("RetryDelay default lost: %v", cfg.Channel.RetryDelayDuration())
	}
	if cfg.Store.Backend != BackendSQLite || cfg.Store.Path != "annotations.db" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Overlay.ScrollDebounceDuration() != 50*time.Millisecond || cfg.Overlay.ResizeDebounceDuration() != 100*time.Millisecond {
		t.Errorf("debounce defaults lost: %+v", cfg.Overlay)
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"backend", `store { backend "redis"; }`},
		{"negative timeout", `channel { ready-timeout -1; }`},
		{"zero depth", `locator { max-path-depth 0; }`},
		{"zero offset", `positioning { offset 0; }`},
		{"negative margin", `positioning { margin -2; }`},
		{"syntax", `locator {`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.data); err == nil {
				t.Errorf("Parse(%q) succeeded; want error", tt.data)
			}
		})
	}
}

func TestLoadSearchesUpward(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := WriteDefault(filepath.Join(root, FileName)); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	cfg, dir, err := Load(nested)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if dir != root {
		t.Errorf("dir = %q; want %q", dir, root)
	}
	if cfg.EditorServer.Listen != "127.0.0.1:7420" {
		t.Errorf("Listen = %q", cfg.EditorServer.Listen)
	}
	if got := ResolvePath(dir, cfg.Store.Path); got != filepath.Join(root, ".pagetour", "annotations.json") {
		t.Errorf("ResolvePath = %q", got)
	}
}

func TestEditorURLFollowsListener(t *testing.T) {
	cfg, err := Parse("editor-server {\n    listen \"127.0.0.1:9100\"\n}")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.EditorServer.Listen != "127.0.0.1:9100" {
		t.Errorf("Listen = %q", cfg.EditorServer.Listen)
	}
	if cfg.Channel.EditorURL != "" {
		t.Errorf("EditorURL = %q; want empty so the live listener is used", cfg.Channel.EditorURL)
	}

	path := filepath.Join(t.TempDir(), FileName)
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err = Parse(string(data))
	if err != nil {
		t.Fatalf("Parse(default file) failed: %v", err)
	}
	if cfg.Channel.EditorURL != "" {
		t.Errorf("default file pins editor-url to %q", cfg.Channel.EditorURL)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	dir := t.TempDir()
	cfg, got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != dir {
		t.Errorf("dir = %q; want %q", got, dir)
	}
	if cfg.Store.Backend != BackendFile {
		t.Errorf("Backend = %q; want file", cfg.Store.Backend)
	}
}
