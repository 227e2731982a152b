package annotation

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/standardbeagle/pagetour/internal/locator"
)

func TestPathKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://example.com/products/123?query=test#section", "/products/123"},
		{"https://example.com/products/", "/products"},
		{"https://example.com", "/"},
		{"https://example.com/", "/"},
		{"/settings/", "/settings"},
		{"settings", "/settings"},
		{"", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := PathKey(tt.input); got != tt.expected {
				t.Errorf("PathKey(%q) = %q; want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestURLKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://example.com/products/123?query=test#section", "example.com/products/123?query=test"},
		{"https://example.com/products/?page=2", "example.com/products?page=2"},
		{"http://example.com/products/", "example.com/products"},
		{"https://example.com/a?", "example.com/a"},
		{"example.com/a/?b=1#frag", "example.com/a?b=1"},
		{"https://example.com/", "example.com"},
		{"https://example.com:8080/a", "example.com:8080/a"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := URLKey(tt.input); got != tt.expected {
				t.Errorf("URLKey(%q) = %q; want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMatchingIsExact(t *testing.T) {
	list := []Annotation{
		{ID: "a", Kind: KindGuide, PageKey: "/products", Status: StatusActive},
		{ID: "b", Kind: KindGuide, PageKey: "/products/1", Status: StatusActive},
		{ID: "c", Kind: KindGuide, PageKey: "/products", Status: StatusDraft},
		{ID: "d", Kind: KindFeatureTag, PageKey: "/products", Status: StatusActive},
		{ID: "e", Kind: KindGuide, PageKey: "/products", Status: StatusActive},
	}

	got := Matching(list, KindGuide, "/products")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "e" {
		t.Errorf("Matching = %+v; want [a e]", got)
	}
}

func TestValidate(t *testing.T) {
	good := Annotation{
		ID:      NewID(),
		Kind:    KindGuide,
		Locator: locator.Locator{Selector: "#go"},
		PageKey: "/",
		Status:  StatusActive,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if _, err := uuid.Parse(good.ID); err != nil {
		t.Errorf("NewID() is not a UUID: %v", err)
	}

	noLoc := good
	noLoc.Locator = locator.Locator{}
	if err := noLoc.Validate(); !errors.Is(err, ErrMissingLocator) {
		t.Errorf("Validate() = %v; want ErrMissingLocator", err)
	}

	pageTag := good
	pageTag.Kind = KindPageTag
	pageTag.Locator = locator.Locator{}
	if err := pageTag.Validate(); err != nil {
		t.Errorf("page tags need no locator: %v", err)
	}
	if pageTag.Renderable() {
		t.Error("page tags must not render")
	}

	noKey := good
	noKey.PageKey = ""
	if err := noKey.Validate(); !errors.Is(err, ErrMissingPageKey) {
		t.Errorf("Validate() = %v; want ErrMissingPageKey", err)
	}
}
