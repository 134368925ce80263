package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/intentdesk/internal/console"
	"github.com/hpungsan/intentdesk/internal/errors"
	"github.com/hpungsan/intentdesk/internal/intent"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	backend console.Backend
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(backend console.Backend) *Handlers {
	return &Handlers{backend: backend}
}

// Request types for each tool

// CreateRequest represents the arguments for intent_create.
type CreateRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// UpdateRequest represents the arguments for intent_update.
type UpdateRequest struct {
	ID      intent.ID `json:"id"`
	Content string    `json:"content"`
}

// IDRequest represents the arguments of tools that address one intent.
type IDRequest struct {
	ID intent.ID `json:"id"`
}

// HandleList handles the intent_list tool.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	intents, err := h.backend.List(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	if intents == nil {
		intents = []intent.Intent{}
	}
	return successResult(map[string]any{
		"intents": intents,
		"count":   len(intents),
	})
}

// HandleCreate handles the intent_create tool.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	d := intent.Draft{Author: args.Author, Content: args.Content}.Normalize()
	if err := d.Validate(); err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	created, err := h.backend.Create(ctx, d)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"created": true,
		"intent":  created,
	})
}

// HandleUpdate handles the intent_update tool.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := requireID(args.ID); err != nil {
		return errorResult(err), nil
	}

	p := intent.Patch{Content: args.Content}.Normalize()
	if err := p.Validate(); err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := h.backend.Update(ctx, args.ID, p); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"updated": true,
		"id":      args.ID,
	})
}

// HandleDelete handles the intent_delete tool.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decodeID(req)
	if err != nil {
		return errorResult(err), nil
	}
	if err := h.backend.Delete(ctx, args.ID); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"deleted": true,
		"id":      args.ID,
	})
}

// HandleReport handles the intent_report tool.
func (h *Handlers) HandleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decodeID(req)
	if err != nil {
		return errorResult(err), nil
	}
	entries, err := h.backend.Report(ctx, args.ID)
	if err != nil {
		return errorResult(err), nil
	}
	if entries == nil {
		entries = []intent.ReportEntry{}
	}
	return successResult(map[string]any{
		"id":      args.ID,
		"entries": entries,
		"count":   len(entries),
	})
}

// HandleJSONLD handles the intent_jsonld tool.
func (h *Handlers) HandleJSONLD(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decodeID(req)
	if err != nil {
		return errorResult(err), nil
	}
	doc, err := h.backend.JSONLD(ctx, args.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"id":       args.ID,
		"document": doc,
	})
}

func decodeID(req mcp.CallToolRequest) (IDRequest, error) {
	args, err := decode[IDRequest](req)
	if err != nil {
		return args, errors.NewInvalidRequest(err.Error())
	}
	return args, requireID(args.ID)
}

func requireID(id intent.ID) error {
	if strings.TrimSpace(id.String()) == "" {
		return errors.NewInvalidRequest("id is required")
	}
	return nil
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var cErr *errors.ConsoleError
	if stderrors.As(err, &cErr) {
		message := cErr.Message
		// Keep any context wrapped around the console error.
		if outer := err.Error(); outer != cErr.Error() {
			message = strings.TrimSuffix(outer, cErr.Error()) + cErr.Message
		}
		errorObj := map[string]any{
			"code":    cErr.Code,
			"message": message,
			"status":  cErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if cErr.Code != errors.ErrInternal && cErr.Details != nil {
			errorObj["details"] = cErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
