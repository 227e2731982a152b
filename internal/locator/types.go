// Package locator turns page elements into durable CSS locators and back.
//
// Generation walks a fixed priority cascade (id, test id, data attribute,
// ARIA role, structural path, bare tag). Resolution always queries the
// literal selector; invalid selectors resolve to "not found" rather than
// an error or panic.
package locator

import (
	"errors"

	"github.com/standardbeagle/pagetour/internal/dom"
)

var (
	// ErrSyntax marks a selector the backend refused to parse.
	ErrSyntax = errors.New("invalid selector syntax")
	// ErrNotFound marks a valid selector that matched nothing.
	ErrNotFound = errors.New("no element matches locator")
)

// Confidence is an informational stability tier. It is never consulted
// during resolution.
type Confidence string

const (
	High   Confidence = "high"
	Medium Confidence = "medium"
	Low    Confidence = "low"
)

// Method records which cascade step produced a locator.
type Method string

const (
	MethodID            Method = "id"
	MethodTestID        Method = "test-id"
	MethodDataAttribute Method = "data-attribute"
	MethodAria          Method = "aria"
	MethodPath          Method = "path"
	MethodTag           Method = "tag"
)

// Locator is an immutable, replayable element descriptor.
type Locator struct {
	Selector   string     `json:"selector" yaml:"selector"`
	Confidence Confidence `json:"confidence" yaml:"confidence"`
	Method     Method     `json:"method" yaml:"method"`
}

// ElementSnapshot is a point-in-time copy of an element taken at selection.
type ElementSnapshot struct {
	TagName     string            `json:"tag_name"`
	ID          string            `json:"id,omitempty"`
	ClassName   string            `json:"class_name,omitempty"`
	TextExcerpt string            `json:"text_excerpt,omitempty"`
	Attributes  map[string]string `json:"attributes"`
	Rect        dom.Rect          `json:"bounding_rect"`
}
