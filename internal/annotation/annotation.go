// Package annotation holds the guide and feature-tag records pagetour
// authors, stores and replays.
package annotation

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/standardbeagle/pagetour/internal/geometry"
	"github.com/standardbeagle/pagetour/internal/locator"
)

// Kind separates tooltips from tags.
type Kind string

const (
	KindGuide      Kind = "guide"
	KindPageTag    Kind = "page-tag"
	KindFeatureTag Kind = "feature-tag"
)

// Status is the lifecycle state. Only active annotations render.
type Status string

const (
	StatusActive   Status = "active"
	StatusDraft    Status = "draft"
	StatusArchived Status = "archived"
)

// Payload is the authored content.
type Payload struct {
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Body  string `json:"body,omitempty" yaml:"body,omitempty"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Annotation binds a locator and content to a page.
type Annotation struct {
	ID        string             `json:"id" yaml:"id"`
	Kind      Kind               `json:"kind" yaml:"kind"`
	Locator   locator.Locator    `json:"locator" yaml:"locator"`
	Placement geometry.Placement `json:"placement,omitempty" yaml:"placement,omitempty"`
	Payload   Payload            `json:"payload" yaml:"payload"`
	PageKey   string             `json:"page_key" yaml:"page_key"`
	Status    Status             `json:"status" yaml:"status"`
	CreatedAt time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" yaml:"updated_at"`
}

var (
	ErrMissingPageKey = errors.New("annotation has no page key")
	ErrMissingLocator = errors.New("annotation has no locator")
)

// NewID returns a fresh annotation id.
func NewID() string {
	return uuid.NewString()
}

// Validate checks the fields every stored annotation needs.
func (a *Annotation) Validate() error {
	if a.ID == "" {
		return errors.New("annotation has no id")
	}
	switch a.Kind {
	case KindGuide, KindFeatureTag:
		if a.Locator.Selector == "" {
			return fmt.Errorf("%s %s: %w", a.Kind, a.ID, ErrMissingLocator)
		}
	case KindPageTag:
	default:
		return fmt.Errorf("annotation %s: unknown kind %q", a.ID, a.Kind)
	}
	if a.PageKey == "" {
		return fmt.Errorf("annotation %s: %w", a.ID, ErrMissingPageKey)
	}
	switch a.Status {
	case StatusActive, StatusDraft, StatusArchived:
	default:
		return fmt.Errorf("annotation %s: unknown status %q", a.ID, a.Status)
	}
	return nil
}

// Renderable reports whether a carries an element to draw against.
func (a *Annotation) Renderable() bool {
	return a.Kind != KindPageTag && a.Locator.Selector != ""
}

// Matching returns the active annotations of kind on pageKey, in input
// order. Keys compare by exact string equality.
func Matching(list []Annotation, kind Kind, pageKey string) []Annotation {
	var out []Annotation
	for _, a := range list {
		if a.Kind == kind && a.Status == StatusActive && a.PageKey == pageKey {
			out = append(out, a)
		}
	}
	return out
}
