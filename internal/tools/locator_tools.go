package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/pagetour/internal/annotation"
	"github.com/standardbeagle/pagetour/internal/dom"
	"github.com/standardbeagle/pagetour/internal/dom/htmldom"
	"github.com/standardbeagle/pagetour/internal/locator"
)

const defaultLocateLimit = 20

// loadPage parses exactly one of markup and file.
func loadPage(markup, file, pageURL string) (*htmldom.Document, error) {
	switch {
	case markup != "" && file != "":
		return nil, errors.New("pass html or file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		markup = string(data)
	case markup == "":
		return nil, errors.New("html or file required")
	}
	return htmldom.ParseString(markup, pageURL)
}

// LocateInput is the input of the locate tool.
type LocateInput struct {
	HTML  string `json:"html,omitempty" jsonschema:"Page markup"`
	File  string `json:"file,omitempty" jsonschema:"Path to an HTML file"`
	URL   string `json:"url,omitempty" jsonschema:"Page URL, used for page keys"`
	Query string `json:"query,omitempty" jsonschema:"CSS selector picking the elements to describe"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum elements to describe (default 20)"`
}

// LocateOutput is the output of the locate tool.
type LocateOutput struct {
	Matches  int              `json:"matches"`
	Elements []LocatedElement `json:"elements"`
	PathKey  string           `json:"path_key,omitempty"`
	URLKey   string           `json:"url_key,omitempty"`
}

// LocatedElement pairs an element with its generated locator.
type LocatedElement struct {
	Element ElementInfo     `json:"element"`
	Locator locator.Locator `json:"locator"`
	// Unique is false when the locator also matches other elements;
	// replay then picks the first.
	Unique  bool            `json:"unique"`
	// Exact is false when the first match is a different element.
	Exact   bool            `json:"exact"`
}

// ElementInfo identifies an element without layout.
type ElementInfo struct {
	Tag        string            `json:"tag"`
	ID         string            `json:"id,omitempty"`
	Class      string            `json:"class,omitempty"`
	Text       string            `json:"text,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func describe(el dom.Element) ElementInfo {
	s := locator.Snapshot(el)
	info := ElementInfo{Tag: s.TagName, ID: s.ID, Class: s.ClassName, Text: s.TextExcerpt}
	if len(s.Attributes) > 0 {
		info.Attributes = s.Attributes
	}
	return info
}

// CheckInput is the input of the check_locator tool.
type CheckInput struct {
	HTML     string `json:"html,omitempty" jsonschema:"Page markup"`
	File     string `json:"file,omitempty" jsonschema:"Path to an HTML file"`
	Selector string `json:"selector,omitempty" jsonschema:"Stored locator selector to replay"`
}

// CheckOutput is the output of the check_locator tool.
type CheckOutput struct {
	Valid   bool         `json:"valid"`
	Found   bool         `json:"found"`
	Matches int          `json:"matches"`
	Element *ElementInfo `json:"element,omitempty"`
	Reason  string       `json:"reason,omitempty"`
}

// RegisterLocatorTools registers locate and check_locator.
func RegisterLocatorTools(server *mcp.Server, t *Tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "locate",
		Description: `Generate durable locators for elements in a page.

Picks elements with a CSS query and runs the locator cascade on each
(id, test id, data attribute, ARIA role, structural path, tag).

Examples:
  locate {html: "<button id='buy'>Buy</button>", query: "button"}
  locate {file: "./fixtures/checkout.html", url: "https://example.com/checkout", query: "form button", limit: 5}`,
	}, t.handleLocate)

	mcp.AddTool(server, &mcp.Tool{
		Name: "check_locator",
		Description: `Replay a stored selector against a page.

Reports whether the selector parses, whether it matches, how many
elements it matches, and the element replay would anchor to.

Example:
  check_locator {file: "./page.html", selector: "[data-testid=\"menu\"]"}`,
	}, t.handleCheck)
}

func (t *Tools) handleLocate(ctx context.Context, req *mcp.CallToolRequest, input LocateInput) (*mcp.CallToolResult, LocateOutput, error) {
	out, err := t.Locate(input)
	if err != nil {
		return errorResult(err.Error()), LocateOutput{}, nil
	}
	return nil, out, nil
}

func (t *Tools) handleCheck(ctx context.Context, req *mcp.CallToolRequest, input CheckInput) (*mcp.CallToolResult, CheckOutput, error) {
	out, err := Check(input)
	if err != nil {
		return errorResult(err.Error()), CheckOutput{}, nil
	}
	return nil, out, nil
}

// Locate generates a locator for each element input.Query selects.
func (t *Tools) Locate(input LocateInput) (LocateOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return LocateOutput{}, errors.New("query required")
	}
	doc, err := loadPage(input.HTML, input.File, input.URL)
	if err != nil {
		return LocateOutput{}, fmt.Errorf("failed to load page: %w", err)
	}
	els, err := doc.QuerySelectorAll(input.Query)
	if err != nil {
		return LocateOutput{}, fmt.Errorf("invalid query: %w", err)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultLocateLimit
	}
	out := LocateOutput{Matches: len(els), Elements: []LocatedElement{}}
	if input.URL != "" {
		out.PathKey = annotation.PathKey(input.URL)
		out.URLKey = annotation.URLKey(input.URL)
	}
	for i, el := range els {
		if i == limit {
			break
		}
		loc := t.engine.Generate(el)
		item := LocatedElement{Element: describe(el), Locator: loc}
		if all, err := doc.QuerySelectorAll(loc.Selector); err == nil {
			item.Unique = len(all) == 1
			item.Exact = len(all) > 0 && all[0].Same(el)
		}
		out.Elements = append(out.Elements, item)
	}
	return out, nil
}

// Check replays input.Selector. A selector that does not parse or match
// is a result, not an error; only an unreadable page is an error.
func Check(input CheckInput) (CheckOutput, error) {
	doc, err := loadPage(input.HTML, input.File, "")
	if err != nil {
		return CheckOutput{}, fmt.Errorf("failed to load page: %w", err)
	}

	el, err := locator.Find(doc, input.Selector)
	switch {
	case errors.Is(err, locator.ErrSyntax):
		return CheckOutput{Reason: err.Error()}, nil
	case errors.Is(err, locator.ErrNotFound):
		return CheckOutput{Valid: true, Reason: err.Error()}, nil
	case err != nil:
		return CheckOutput{}, err
	}

	out := CheckOutput{Valid: true, Found: true, Matches: 1}
	if all, err := doc.QuerySelectorAll(input.Selector); err == nil {
		out.Matches = len(all)
	}
	info := describe(el)
	out.Element = &info
	return out, nil
}
