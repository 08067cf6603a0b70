// ABOUTME: MCP server assembly
// ABOUTME: Registers every tool, resource template, and prompt over the graph services
package handlers

import (
	"github.com/harperreed/kinship/audit"
	"github.com/harperreed/kinship/cascade"
	"github.com/harperreed/kinship/db"
	"github.com/harperreed/kinship/strength"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Services are the graph components the MCP surface drives.
type Services struct {
	DB       *db.DB
	Audit    *audit.Layer
	Strength *strength.Aggregator
	Cascade  *cascade.Engine
}

// NewServer builds the MCP server. Run it with server.Run.
func NewServer(svc Services, version string) *mcp.Server {
	strengthHandlers := NewStrengthHandlers(svc.Strength)
	bookmarkHandlers := NewBookmarkHandlers(svc.DB)
	relationshipHandlers := NewRelationshipHandlers(svc.DB, svc.Audit, svc.Strength)
	entityHandlers := NewEntityHandlers(svc.DB, svc.Cascade)
	vizHandlers := NewVizHandlers(svc.Cascade)
	resourceHandlers := NewResourceHandlers(svc.DB, svc.Audit, svc.Strength)
	promptHandlers := NewPromptHandlers(svc.DB, svc.Strength, svc.Cascade)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "kinship",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_user",
		Description: "Create a user",
	}, entityHandlers.CreateUser)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_entity",
		Description: "Delete a user or relationship together with its bookmarks, adjustments, and actions; dry_run lists them instead",
	}, entityHandlers.DeleteEntity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "link_users",
		Description: "Create a relationship between two users, attributed to the acting user",
	}, relationshipHandlers.LinkUsers)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_relationship",
		Description: "Set, unset, change, add to, or remove from a relationship field; every change is audited",
	}, relationshipHandlers.UpdateRelationship)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_relationship",
		Description: "Fetch a relationship with its current strength",
	}, relationshipHandlers.GetRelationship)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "strengthen",
		Description: "Record that a user considers a relationship strong (+1)",
	}, strengthHandlers.Strengthen)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "weaken",
		Description: "Record that a user considers a relationship weak (-1)",
	}, strengthHandlers.Weaken)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "unstrength",
		Description: "Withdraw a user's strength adjustment of a relationship",
	}, strengthHandlers.Unstrength)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_strength",
		Description: "Sum of every user's strength adjustment of a relationship",
	}, strengthHandlers.GetStrength)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "bookmark",
		Description: "Bookmark an entity for a user",
	}, bookmarkHandlers.Bookmark)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "unbookmark",
		Description: "Remove a user's bookmark",
	}, bookmarkHandlers.Unbookmark)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_bookmarks",
		Description: "List bookmarks made by a user or pointing at an entity",
	}, bookmarkHandlers.ListBookmarks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Render the dependents of a user or relationship as GraphViz DOT",
	}, vizHandlers.GenerateGraph)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "relationship",
		URITemplate: "kinship://relationships/{id}",
		Description: "A relationship with strength, change history, and bookmarks",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "user-bookmarks",
		URITemplate: "kinship://users/{id}/bookmarks",
		Description: "Bookmarks made by a user",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "user-actions",
		URITemplate: "kinship://users/{id}/actions",
		Description: "Audit actions attributed to a user",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "relationship-review",
		Description: "Review a relationship's history and strength",
		Arguments: []*mcp.PromptArgument{
			{Name: "relationship_id", Description: "Relationship ID", Required: true},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "cleanup-plan",
		Description: "Explain what deleting a user or relationship would remove",
		Arguments: []*mcp.PromptArgument{
			{Name: "id", Description: "Entity ID", Required: true},
			{Name: "type", Description: "user or relationship", Required: true},
		},
	}, promptHandlers.GetPrompt)

	return server
}
