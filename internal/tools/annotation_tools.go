package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/pagetour/internal/annotation"
	"github.com/standardbeagle/pagetour/internal/store"
)

// AnnotationsInput is the input of the annotations tool.
type AnnotationsInput struct {
	Action  string `json:"action,omitempty" jsonschema:"Action: list, delete, export"`
	ID      string `json:"id,omitempty" jsonschema:"Annotation id (required for delete)"`
	Kind    string `json:"kind,omitempty" jsonschema:"Filter by kind: guide, page-tag, feature-tag"`
	PageKey string `json:"page_key,omitempty" jsonschema:"Filter by page key"`
	URL     string `json:"url,omitempty" jsonschema:"Filter by page URL; matched against both page key forms"`
}

// AnnotationsOutput is the output of the annotations tool.
type AnnotationsOutput struct {
	Success     bool                `json:"success"`
	Count       int                 `json:"count"`
	Annotations []AnnotationSummary `json:"annotations,omitempty"`
	YAML        string              `json:"yaml,omitempty"`
	Message     string              `json:"message,omitempty"`
}

// AnnotationSummary is one stored annotation.
type AnnotationSummary struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	PageKey    string `json:"page_key"`
	Status     string `json:"status"`
	Selector   string `json:"selector"`
	Confidence string `json:"confidence,omitempty"`
	Placement  string `json:"placement,omitempty"`
	Title      string `json:"title,omitempty"`
	Name       string `json:"name,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

func summarize(a annotation.Annotation) AnnotationSummary {
	s := AnnotationSummary{
		ID:         a.ID,
		Kind:       string(a.Kind),
		PageKey:    a.PageKey,
		Status:     string(a.Status),
		Selector:   a.Locator.Selector,
		Confidence: string(a.Locator.Confidence),
		Placement:  string(a.Placement),
		Title:      a.Payload.Title,
		Name:       a.Payload.Name,
	}
	if !a.UpdatedAt.IsZero() {
		s.UpdatedAt = a.UpdatedAt.Format(time.RFC3339)
	}
	return s
}

// RegisterAnnotationTool registers the annotations tool.
func RegisterAnnotationTool(server *mcp.Server, t *Tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "annotations",
		Description: `Inspect and manage stored guides and tags.

Actions:
  list: List annotations, optionally filtered by kind, page_key or url
  delete: Remove one annotation by id
  export: Dump the filtered set as versioned YAML

Page keys:
  guides and page tags use the path key ("/checkout")
  feature tags use the url key ("example.com/checkout")

Examples:
  annotations {action: "list"}
  annotations {action: "list", kind: "guide", url: "https://example.com/checkout"}
  annotations {action: "delete", id: "4f1c..."}
  annotations {action: "export", kind: "feature-tag"}`,
	}, t.makeAnnotationsHandler())
}

func (t *Tools) makeAnnotationsHandler() func(context.Context, *mcp.CallToolRequest, AnnotationsInput) (*mcp.CallToolResult, AnnotationsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AnnotationsInput) (*mcp.CallToolResult, AnnotationsOutput, error) {
		switch input.Action {
		case "list":
			return t.handleList(ctx, input)
		case "delete":
			return t.handleDelete(ctx, input)
		case "export":
			return t.handleExport(ctx, input)
		default:
			return errorResult(fmt.Sprintf("unknown action: %s (use: list, delete, export)", input.Action)), AnnotationsOutput{}, nil
		}
	}
}

func (t *Tools) filtered(ctx context.Context, input AnnotationsInput) ([]annotation.Annotation, error) {
	list, err := t.store.List(ctx)
	if err != nil {
		return nil, err
	}
	var keys []string
	if input.PageKey != "" {
		keys = append(keys, input.PageKey)
	}
	if input.URL != "" {
		keys = append(keys, annotation.PathKey(input.URL), annotation.URLKey(input.URL))
	}

	out := list[:0:0]
	for _, a := range list {
		if input.Kind != "" && string(a.Kind) != input.Kind {
			continue
		}
		if len(keys) > 0 && !contains(keys, a.PageKey) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (t *Tools) handleList(ctx context.Context, input AnnotationsInput) (*mcp.CallToolResult, AnnotationsOutput, error) {
	list, err := t.filtered(ctx, input)
	if err != nil {
		return errorResult(fmt.Sprintf("list failed: %v", err)), AnnotationsOutput{}, nil
	}
	out := AnnotationsOutput{Success: true, Count: len(list)}
	for _, a := range list {
		out.Annotations = append(out.Annotations, summarize(a))
	}
	return nil, out, nil
}

func (t *Tools) handleDelete(ctx context.Context, input AnnotationsInput) (*mcp.CallToolResult, AnnotationsOutput, error) {
	if input.ID == "" {
		return errorResult("id required"), AnnotationsOutput{}, nil
	}
	err := t.store.Delete(ctx, input.ID)
	if errors.Is(err, store.ErrNotFound) {
		return errorResult(fmt.Sprintf("annotation %s not found", input.ID)), AnnotationsOutput{}, nil
	}
	if err != nil {
		return errorResult(fmt.Sprintf("delete failed: %v", err)), AnnotationsOutput{}, nil
	}
	return nil, AnnotationsOutput{Success: true, Count: 1, Message: "deleted " + input.ID}, nil
}

func (t *Tools) handleExport(ctx context.Context, input AnnotationsInput) (*mcp.CallToolResult, AnnotationsOutput, error) {
	list, err := t.filtered(ctx, input)
	if err != nil {
		return errorResult(fmt.Sprintf("export failed: %v", err)), AnnotationsOutput{}, nil
	}
	var b strings.Builder
	if err := store.Encode(&b, list); err != nil {
		return errorResult(fmt.Sprintf("export failed: %v", err)), AnnotationsOutput{}, nil
	}
	return nil, AnnotationsOutput{Success: true, Count: len(list), YAML: b.String()}, nil
}
