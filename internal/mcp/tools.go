package mcp

import "github.com/mark3labs/mcp-go/mcp"

var listToolDef = mcp.NewTool("intent_list",
	mcp.WithDescription("List every intent held by the backend."),
)

var createToolDef = mcp.NewTool("intent_create",
	mcp.WithDescription("Create an intent. Both author and content must be non-empty."),
	mcp.WithString("author", mcp.Required(), mcp.Description("Who states the intent")),
	mcp.WithString("content", mcp.Required(), mcp.Description("Free text of the intent")),
)

var updateToolDef = mcp.NewTool("intent_update",
	mcp.WithDescription("Replace the content of an intent. Author and timestamps are not writable."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Intent identifier")),
	mcp.WithString("content", mcp.Required(), mcp.Description("New content")),
)

var deleteToolDef = mcp.NewTool("intent_delete",
	mcp.WithDescription("Delete an intent."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Intent identifier")),
)

var reportToolDef = mcp.NewTool("intent_report",
	mcp.WithDescription("Fetch the report entries produced by agents for an intent."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Intent identifier")),
)

var jsonldToolDef = mcp.NewTool("intent_jsonld",
	mcp.WithDescription("Fetch the JSON-LD representation of an intent."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Intent identifier")),
)
