package locator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/standardbeagle/pagetour/internal/dom"
)

// Options tunes the generation cascade.
type Options struct {
	// TestIDAttributes are checked in order at step 2.
	TestIDAttributes []string
	// PreferredAttributes are checked in order at step 3, before any other
	// data-* attribute.
	PreferredAttributes []string
	// ReservedPrefix marks pagetour's own classes and ids ("pagetour-");
	// "data-" + ReservedPrefix marks its own attributes.
	ReservedPrefix string
	// MaxPathDepth caps structural path segments.
	MaxPathDepth int
	// MaxPathClasses caps class names per path segment.
	MaxPathClasses int
}

// DefaultOptions returns the stock cascade settings.
func DefaultOptions() Options {
	return Options{
		TestIDAttributes:    []string{"data-testid"},
		PreferredAttributes: []string{"data-id", "data-name", "data-role", "data-component", "data-element"},
		ReservedPrefix:      "pagetour-",
		MaxPathDepth:        5,
		MaxPathClasses:      2,
	}
}

// Engine generates locators. The zero value is not usable; use NewEngine.
type Engine struct {
	opts Options
}

// NewEngine fills unset options with defaults.
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if len(opts.TestIDAttributes) == 0 {
		opts.TestIDAttributes = def.TestIDAttributes
	}
	if len(opts.PreferredAttributes) == 0 {
		opts.PreferredAttributes = def.PreferredAttributes
	}
	if opts.ReservedPrefix == "" {
		opts.ReservedPrefix = def.ReservedPrefix
	}
	if opts.MaxPathDepth <= 0 {
		opts.MaxPathDepth = def.MaxPathDepth
	}
	if opts.MaxPathClasses <= 0 {
		opts.MaxPathClasses = def.MaxPathClasses
	}
	return &Engine{opts: opts}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Generate produces a locator for el. The first matching cascade step wins.
func (e *Engine) Generate(el dom.Element) Locator {
	if id := el.ID(); id != "" {
		return Locator{Selector: "#" + EscapeIdent(id), Confidence: High, Method: MethodID}
	}

	for _, name := range e.opts.TestIDAttributes {
		if v, ok := el.Attr(name); ok && v != "" {
			return Locator{Selector: attrSelector(name, v), Confidence: High, Method: MethodTestID}
		}
	}

	if name, v, ok := e.dataAttribute(el); ok {
		return Locator{Selector: attrSelector(name, v), Confidence: High, Method: MethodDataAttribute}
	}

	if role, ok := el.Attr("role"); ok && role != "" {
		sel := attrSelector("role", role)
		if label, ok := el.Attr("aria-label"); ok && label != "" {
			sel += attrSelector("aria-label", label)
		}
		return Locator{Selector: sel, Confidence: Medium, Method: MethodAria}
	}

	if path := e.path(el); len(path) > 0 {
		return Locator{Selector: strings.Join(path, " "), Confidence: Medium, Method: MethodPath}
	}

	return Locator{Selector: el.TagName(), Confidence: Low, Method: MethodTag}
}

func (e *Engine) dataAttribute(el dom.Element) (name, value string, ok bool) {
	for _, pref := range e.opts.PreferredAttributes {
		if v, found := el.Attr(pref); found && v != "" {
			return pref, v, true
		}
	}
	reserved := "data-" + e.opts.ReservedPrefix
	for _, a := range el.Attributes() {
		if !strings.HasPrefix(a.Name, "data-") || a.Value == "" {
			continue
		}
		if strings.HasPrefix(a.Name, reserved) || e.isTestID(a.Name) {
			continue
		}
		return a.Name, a.Value, true
	}
	return "", "", false
}

func (e *Engine) isTestID(name string) bool {
	for _, t := range e.opts.TestIDAttributes {
		if t == name {
			return true
		}
	}
	return false
}

// path builds nearest-last structural segments, walking at most
// MaxPathDepth levels and never including the document element.
func (e *Engine) path(el dom.Element) []string {
	var segments []string
	for cur := el; cur != nil && len(segments) < e.opts.MaxPathDepth; cur = cur.Parent() {
		parent := cur.Parent()
		if parent == nil {
			break
		}

		seg := cur.TagName()
		if id := cur.ID(); id != "" {
			segments = append(segments, seg+"#"+EscapeIdent(id))
			break
		}

		for _, c := range e.usableClasses(cur) {
			seg += "." + EscapeIdent(c)
		}

		if idx, total := typeIndex(parent, cur); total > 1 {
			seg += fmt.Sprintf(":nth-of-type(%d)", idx)
		}
		segments = append(segments, seg)
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return segments
}

func (e *Engine) usableClasses(el dom.Element) []string {
	var out []string
	for _, c := range el.ClassList() {
		if len(out) == e.opts.MaxPathClasses {
			break
		}
		if strings.HasPrefix(c, e.opts.ReservedPrefix) || isGeneratedClass(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// typeIndex returns el's 1-based position among same-tag siblings and the
// number of such siblings.
func typeIndex(parent, el dom.Element) (idx, total int) {
	tag := el.TagName()
	for _, c := range parent.Children() {
		if c.TagName() != tag {
			continue
		}
		total++
		if c.Same(el) {
			idx = total
		}
	}
	return idx, total
}

var (
	generatedPrefix = regexp.MustCompile(`^(css|sc|jsx|jss|emotion|styled|svelte)-`)
	hashToken       = regexp.MustCompile(`^[A-Za-z0-9]{5,}$`)
)

// isGeneratedClass reports whether c looks like a build-tool class name
// (CSS-in-JS prefixes, CSS module hashes, or hash-like tokens) that will
// not survive a rebuild.
func isGeneratedClass(c string) bool {
	if generatedPrefix.MatchString(c) {
		return true
	}
	for _, tok := range strings.FieldsFunc(c, func(r rune) bool { return r == '-' || r == '_' }) {
		if hashToken.MatchString(tok) && hasDigit(tok) && hasLetter(tok) {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}

func hasLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

var defaultEngine = NewEngine(DefaultOptions())

// Generate runs the default cascade.
func Generate(el dom.Element) Locator {
	return defaultEngine.Generate(el)
}
