package session

import (
	"path/filepath"
	"testing"

	"github.com/standardbeagle/pagetour/internal/channel"
	"github.com/standardbeagle/pagetour/internal/dom/htmldom"
	"github.com/standardbeagle/pagetour/internal/store"
)

func page(t *testing.T, url string) *htmldom.Document {
	t.Helper()
	d, err := htmldom.ParseString("<html><body></body></html>", url)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	return d
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		flag      string
		want      State
		wantURL   string
		wantFlag  string
		wantFlagd bool
	}{
		{
			name:    "plain page",
			url:     "https://shop.test/cart?x=1",
			want:    State{},
			wantURL: "https://shop.test/cart?x=1",
		},
		{
			name:      "launch request",
			url:       "https://shop.test/cart?x=1&pagetour_mode=editor&pagetour_variant=tag-feature#top",
			want:      State{Launched: true, Variant: channel.VariantTagFeature},
			wantURL:   "https://shop.test/cart?x=1#top",
			wantFlag:  "tag-feature",
			wantFlagd: true,
		},
		{
			name:      "launch without variant",
			url:       "https://shop.test/?pagetour_mode=editor",
			want:      State{Launched: true, Variant: channel.VariantGuide},
			wantURL:   "https://shop.test/",
			wantFlag:  "guide",
			wantFlagd: true,
		},
		{
			name:      "unknown variant falls back to guide",
			url:       "https://shop.test/?pagetour_mode=editor&pagetour_variant=bogus",
			want:      State{Launched: true, Variant: channel.VariantGuide},
			wantURL:   "https://shop.test/",
			wantFlag:  "guide",
			wantFlagd: true,
		},
		{
			name:    "other mode is stripped and ignored",
			url:     "https://shop.test/?pagetour_mode=viewer",
			want:    State{},
			wantURL: "https://shop.test/",
		},
		{
			name:      "persisted flag",
			url:       "https://shop.test/cart",
			flag:      "tag-page",
			want:      State{Persisted: true, Variant: channel.VariantTagPage},
			wantURL:   "https://shop.test/cart",
			wantFlag:  "tag-page",
			wantFlagd: true,
		},
		{
			name:      "launch overrides persisted flag",
			url:       "https://shop.test/?pagetour_mode=editor&pagetour_variant=guide",
			flag:      "tag-page",
			want:      State{Launched: true, Variant: channel.VariantGuide},
			wantURL:   "https://shop.test/",
			wantFlag:  "guide",
			wantFlagd: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := page(t, tt.url)
			flags := store.NewMemoryFlags()
			if tt.flag != "" {
				flags.Set(FlagEditor, tt.flag)
			}

			s, err := Load(doc, flags)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if got := s.State(); got != tt.want {
				t.Errorf("State = %+v; want %+v", got, tt.want)
			}
			if doc.URL() != tt.wantURL {
				t.Errorf("URL = %q; want %q", doc.URL(), tt.wantURL)
			}
			v, ok, _ := flags.Get(FlagEditor)
			if ok != tt.wantFlagd || v != tt.wantFlag {
				t.Errorf("flag = %q, %v; want %q, %v", v, ok, tt.wantFlag, tt.wantFlagd)
			}
		})
	}
}

func TestLaunchConsumedOnce(t *testing.T) {
	flags := store.NewFileFlags(filepath.Join(t.TempDir(), "session.json"))

	first := page(t, "https://shop.test/?pagetour_mode=editor")
	s, err := Load(first, flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !s.State().Launched {
		t.Fatal("first load did not consume the launch request")
	}

	// A reload sees the stripped address and the persisted flag.
	reload := page(t, first.URL())
	s, err = Load(reload, flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := s.State(); got.Launched || !got.Persisted || !got.WantsEditor() {
		t.Errorf("reload State = %+v; want persisted editor", got)
	}

	if err := s.ClearEditor(); err != nil {
		t.Fatalf("ClearEditor failed: %v", err)
	}
	s, _ = Load(page(t, first.URL()), flags)
	if s.State().WantsEditor() {
		t.Error("editor requested after ClearEditor")
	}
}
