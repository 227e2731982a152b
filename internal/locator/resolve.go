package locator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/standardbeagle/pagetour/internal/debug"
	"github.com/standardbeagle/pagetour/internal/dom"
)

const textExcerptLimit = 50

// Find queries the literal selector and classifies failures as ErrSyntax
// or ErrNotFound. Backend panics are recovered as ErrSyntax.
func Find(doc dom.Document, selector string) (el dom.Element, err error) {
	defer func() {
		if r := recover(); r != nil {
			el, err = nil, fmt.Errorf("%w: %q: %v", ErrSyntax, selector, r)
		}
	}()

	if strings.TrimSpace(selector) == "" {
		return nil, fmt.Errorf("%w: empty selector", ErrSyntax)
	}

	found, qerr := doc.QuerySelector(selector)
	if qerr != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, qerr)
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, selector)
	}
	return found, nil
}

// Resolve returns the first element matching selector. Any failure is
// logged and reported as not found.
func Resolve(doc dom.Document, selector string) (dom.Element, bool) {
	el, err := Find(doc, selector)
	if err != nil {
		debug.Warn("locator", "resolve failed: %v", err)
		return nil, false
	}
	return el, true
}

// IsResolvable reports whether selector is valid and matches at least one
// element.
func IsResolvable(doc dom.Document, selector string) bool {
	_, ok := Resolve(doc, selector)
	return ok
}

// Snapshot copies el's identifying data for display in the editor surface.
func Snapshot(el dom.Element) ElementSnapshot {
	s := ElementSnapshot{
		TagName:    el.TagName(),
		ID:         el.ID(),
		ClassName:  strings.Join(el.ClassList(), " "),
		Attributes: make(map[string]string),
		Rect:       el.Rect(),
	}
	for _, a := range el.Attributes() {
		s.Attributes[a.Name] = a.Value
	}
	s.TextExcerpt = excerpt(el.Text(), textExcerptLimit)
	return s
}

func excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit])
}
