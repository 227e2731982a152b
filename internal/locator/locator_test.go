package locator

import (
	"errors"
	"strings"
	"testing"

	"github.com/standardbeagle/pagetour/internal/dom"
	"github.com/standardbeagle/pagetour/internal/dom/htmldom"
)

const fixture = `<!doctype html><html><body>
<button id="go">Go</button>
<button data-testid="submit">Submit</button>
<div data-pagetour-mark="1" data-section="billing">Billing</div>
<div data-component="card" data-section="x">Card</div>
<nav role="navigation" aria-label="Primary">nav</nav>
<section>
  <ul class="menu css-1x2y3z">
    <li class="item">a</li>
    <li class="item active">b</li>
  </ul>
</section>
<main id="root"><div><span>deep</span></div></main>
<div><div><div><div><div><div><em>very deep</em></div></div></div></div></div></div>
</body></html>`

func mustDoc(t *testing.T, markup string) *htmldom.Document {
	t.Helper()
	d, err := htmldom.ParseString(markup, "https://example.com/")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	return d
}

func mustQuery(t *testing.T, d dom.Document, sel string) dom.Element {
	t.Helper()
	el, err := d.QuerySelector(sel)
	if err != nil || el == nil {
		t.Fatalf("QuerySelector(%q) = %v, %v", sel, el, err)
	}
	return el
}

func TestGenerateCascade(t *testing.T) {
	d := mustDoc(t, fixture)

	tests := []struct {
		name       string
		query      string
		wantSel    string
		wantConf   Confidence
		wantMethod Method
	}{
		{"id", "#go", "#go", High, MethodID},
		{"test id", `[data-testid="submit"]`, `[data-testid="submit"]`, High, MethodTestID},
		{"other data attribute skips reserved", `[data-section="billing"]`, `[data-section="billing"]`, High, MethodDataAttribute},
		{"preferred data attribute first", `[data-component="card"]`, `[data-component="card"]`, High, MethodDataAttribute},
		{"aria", "nav", `[role="navigation"][aria-label="Primary"]`, Medium, MethodAria},
		{"path with nth-of-type", "li.active", "body section ul.menu li.item.active:nth-of-type(2)", Medium, MethodPath},
		{"path stops at id ancestor", "span", "main#root div span", Medium, MethodPath},
		{"body falls back to path", "body", "body", Medium, MethodPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := mustQuery(t, d, tt.query)
			got := Generate(el)
			if got.Selector != tt.wantSel {
				t.Errorf("Selector = %q; want %q", got.Selector, tt.wantSel)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("Confidence = %q; want %q", got.Confidence, tt.wantConf)
			}
			if got.Method != tt.wantMethod {
				t.Errorf("Method = %q; want %q", got.Method, tt.wantMethod)
			}
		})
	}
}

func TestGenerateTagFallback(t *testing.T) {
	d := mustDoc(t, fixture)
	got := Generate(d.DocumentElement())
	if got.Selector != "html" || got.Confidence != Low || got.Method != MethodTag {
		t.Errorf("Generate(html) = %+v; want bare tag at low confidence", got)
	}
}

func TestPathDepthCapped(t *testing.T) {
	d := mustDoc(t, fixture)
	got := Generate(mustQuery(t, d, "em"))
	if n := len(strings.Fields(got.Selector)); n > 5 {
		t.Errorf("path has %d segments; want at most 5: %q", n, got.Selector)
	}
	if strings.HasPrefix(got.Selector, "html") {
		t.Errorf("path must not include the document element: %q", got.Selector)
	}
}

func TestGenerateRoundTrip(t *testing.T) {
	d := mustDoc(t, fixture)
	for _, q := range []string{"#go", `[data-testid="submit"]`, "nav", "li.active", "span", `[data-section="billing"]`} {
		el := mustQuery(t, d, q)
		loc := Generate(el)
		if loc.Method == MethodPath && strings.Count(loc.Selector, " ") >= 4 {
			// A capped path is not guaranteed unique.
			continue
		}
		got, ok := Resolve(d, loc.Selector)
		if !ok {
			t.Errorf("Resolve(%q) failed for %s", loc.Selector, q)
			continue
		}
		if !got.Same(el) {
			t.Errorf("Resolve(%q) returned a different element than %s", loc.Selector, q)
		}
		if again := Generate(got); again != loc {
			t.Errorf("Generate is not stable: %+v then %+v", loc, again)
		}
	}
}

func TestResolveIsStable(t *testing.T) {
	d := mustDoc(t, fixture)
	for _, sel := range []string{"#go", `[data-testid="submit"]`, "li.active", "span"} {
		t.Run(sel, func(t *testing.T) {
			first, ok := Resolve(d, sel)
			if !ok {
				t.Fatalf("Resolve(%q) failed", sel)
			}
			second, ok := Resolve(d, sel)
			if !ok {
				t.Fatalf("second Resolve(%q) failed", sel)
			}
			if !first.Same(second) {
				t.Errorf("Resolve(%q) returned different elements on an unchanged document", sel)
			}
		})
	}
}

func TestGenerateEscapes(t *testing.T) {
	d := mustDoc(t, `<html><body><div id="1st:item">x</div><p data-testid='say "hi"'>y</p></body></html>`)

	div := mustQuery(t, d, "div")
	loc := Generate(div)
	if loc.Selector != `#\31 st\:item` {
		t.Errorf("Selector = %q", loc.Selector)
	}
	if got, ok := Resolve(d, loc.Selector); !ok || !got.Same(div) {
		t.Errorf("escaped id did not resolve back")
	}

	p := mustQuery(t, d, "p")
	loc = Generate(p)
	if loc.Selector != `[data-testid="say \"hi\""]` {
		t.Errorf("Selector = %q", loc.Selector)
	}
	if got, ok := Resolve(d, loc.Selector); !ok || !got.Same(p) {
		t.Errorf("escaped attribute did not resolve back")
	}
}

func TestReservedClassesSkipped(t *testing.T) {
	d := mustDoc(t, `<html><body><section><b class="pagetour-highlight jsx-a1b2c3 label">x</b></section></body></html>`)
	got := Generate(mustQuery(t, d, "b"))
	if got.Selector != "body section b.label" {
		t.Errorf("Selector = %q; want %q", got.Selector, "body section b.label")
	}
}

func TestIsGeneratedClass(t *testing.T) {
	tests := []struct {
		class string
		want  bool
	}{
		{"css-1x2y3z", true},
		{"sc-bdVaJa", true},
		{"Button__root__x7Yz9", true},
		{"a1b2c3d", true},
		{"card__title", false},
		{"menu", false},
		{"btn-primary", false},
		{"h1", false},
		{"col-12", false},
	}
	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			if got := isGeneratedClass(tt.class); got != tt.want {
				t.Errorf("isGeneratedClass(%q) = %v; want %v", tt.class, got, tt.want)
			}
		})
	}
}

func TestResolveInvalidSelector(t *testing.T) {
	d := mustDoc(t, fixture)

	if IsResolvable(d, "div[data-x") {
		t.Error("IsResolvable on an invalid selector = true")
	}
	if !IsResolvable(d, "#go") {
		t.Error("IsResolvable(#go) = false")
	}
	if IsResolvable(d, "") {
		t.Error("IsResolvable on empty selector = true")
	}

	if _, err := Find(d, "div[data-x"); !errors.Is(err, ErrSyntax) {
		t.Errorf("Find invalid err = %v; want ErrSyntax", err)
	}
	if _, err := Find(d, "#nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find missing err = %v; want ErrNotFound", err)
	}
}

func TestSnapshot(t *testing.T) {
	long := strings.Repeat("word ", 30)
	d := mustDoc(t, `<html><body><a id="x" class="a b" href="/p">`+long+`</a></body></html>`)
	s := Snapshot(mustQuery(t, d, "#x"))

	if s.TagName != "a" || s.ID != "x" || s.ClassName != "a b" {
		t.Errorf("Snapshot identity = %+v", s)
	}
	if s.Attributes["href"] != "/p" {
		t.Errorf("href = %q", s.Attributes["href"])
	}
	if len([]rune(s.TextExcerpt)) != textExcerptLimit {
		t.Errorf("excerpt length = %d; want %d", len([]rune(s.TextExcerpt)), textExcerptLimit)
	}
}

func TestPathNthOfTypeAtThirdLevel(t *testing.T) {
	d := mustDoc(t, `<html><body><article><div><section>
<p>a</p><p><em><span>x</span></em></p>
</section></div></article></body></html>`)

	got := Generate(mustQuery(t, d, "span"))
	want := "div section p:nth-of-type(2) em span"
	if got.Selector != want {
		t.Errorf("Selector = %q; want %q", got.Selector, want)
	}
	if got.Method != MethodPath {
		t.Errorf("Method = %q; want %q", got.Method, MethodPath)
	}
}
