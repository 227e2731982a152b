package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/standardbeagle/pagetour/internal/annotation"
	"github.com/standardbeagle/pagetour/internal/config"
	"github.com/standardbeagle/pagetour/internal/session"
	"github.com/standardbeagle/pagetour/internal/tools"
)

// run executes the root command. Flag values persist between runs, so
// tests pass every flag they depend on.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	if _, err := run(t, "init", "--dir", dir, "--force=false"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	path := filepath.Join(dir, config.FileName)
	if _, err := config.LoadFile(path); err != nil {
		t.Fatalf("written config does not load: %v", err)
	}

	if _, err := run(t, "init", "--dir", dir, "--force=false"); err == nil {
		t.Error("second init overwrote without --force")
	}
	if _, err := run(t, "init", "--dir", dir, "--force"); err != nil {
		t.Errorf("init --force failed: %v", err)
	}
}

const importYAML = `version: 1
annotations:
  - id: g1
    kind: guide
    page_key: /checkout
    status: active
    locator:
      selector: '#buy'
      confidence: high
      method: id
    payload:
      title: Buy here
  - id: f1
    kind: feature-tag
    page_key: example.com/checkout
    status: active
    locator:
      selector: nav
      confidence: low
      method: tag
    payload:
      name: Menu
`

func TestAnnotationsCommands(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.yaml")
	if err := os.WriteFile(in, []byte(importYAML), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "annotations", "import", in, "--dir", dir)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, "imported 2") {
		t.Errorf("import output = %q", out)
	}

	out, err = run(t, "annotations", "list", "--dir", dir, "--json", "--kind", "guide", "--page", "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var list []annotation.Annotation
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("list output is not JSON: %v\n%s", err, out)
	}
	if len(list) != 1 || list[0].ID != "g1" || list[0].CreatedAt.IsZero() {
		t.Errorf("listed %+v", list)
	}

	exported := filepath.Join(dir, "out.yaml")
	if _, err := run(t, "annotations", "export", exported, "--dir", dir); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	data, err := os.ReadFile(exported)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "version: 1") || !strings.Contains(string(data), "Menu") {
		t.Errorf("export = %s", data)
	}

	if _, err := run(t, "annotations", "delete", "g1", "--dir", dir); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := run(t, "annotations", "delete", "g1", "--dir", dir); err == nil {
		t.Error("deleting a missing id succeeded")
	}

	out, err = run(t, "annotations", "list", "--dir", dir, "--json", "--kind", "", "--page", "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	list = nil
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != "f1" {
		t.Errorf("after delete listed %+v", list)
	}
}

func TestLocateAndCheck(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "page.html")
	markup := `<html><body><nav data-testid="menu">m</nav><button id="buy">Buy</button></body></html>`
	if err := os.WriteFile(page, []byte(markup), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "locate", page, "button", "--dir", dir, "--json", "--url", "https://example.com/shop/", "--limit", "20")
	if err != nil {
		t.Fatalf("locate failed: %v", err)
	}
	var loc tools.LocateOutput
	if err := json.Unmarshal([]byte(out), &loc); err != nil {
		t.Fatalf("locate output is not JSON: %v\n%s", err, out)
	}
	if len(loc.Elements) != 1 || loc.Elements[0].Locator.Selector != "#buy" || loc.PathKey != "/shop" {
		t.Errorf("locate = %+v", loc)
	}

	if _, err := run(t, "check", page, `[data-testid="menu"]`, "--dir", dir, "--json"); err != nil {
		t.Errorf("check of a resolvable selector failed: %v", err)
	}
	if _, err := run(t, "check", page, "#gone", "--dir", dir, "--json"); err == nil {
		t.Error("check of a missing selector succeeded")
	}
}

func TestEditorBase(t *testing.T) {
	cfg := config.DefaultConfig()
	if got := editorBase(cfg, "http://127.0.0.1:9100"); got != "http://127.0.0.1:9100" {
		t.Errorf("default editorBase = %q; want the live listener", got)
	}
	cfg.Channel.EditorURL = "https://editor.example"
	if got := editorBase(cfg, "http://127.0.0.1:9100"); got != "https://editor.example" {
		t.Errorf("pinned editorBase = %q", got)
	}
}

func TestLaunchURL(t *testing.T) {
	got, err := launchURL("https://example.com/shop?q=1#top", "tag-page")
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(got)
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("q") != "1" || q.Get(session.ParamMode) != session.ModeEditor || q.Get(session.ParamVariant) != "tag-page" {
		t.Errorf("query = %v", q)
	}
	if u.Fragment != "top" || u.Path != "/shop" {
		t.Errorf("url = %s", got)
	}
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PAGETOUR_TEST_VALUE=from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PAGETOUR_TEST_VALUE", "")
	os.Unsetenv("PAGETOUR_TEST_VALUE")

	if err := loadEnv(path); err != nil {
		t.Fatalf("loadEnv failed: %v", err)
	}
	if got := os.Getenv("PAGETOUR_TEST_VALUE"); got != "from-file" {
		t.Errorf("PAGETOUR_TEST_VALUE = %q", got)
	}
	if err := loadEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file: %v", err)
	}
}
