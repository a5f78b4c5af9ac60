package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pixievault/pixievault/internal/logging"
	"github.com/pixievault/pixievault/internal/query"
	"github.com/pixievault/pixievault/internal/usecase"
	"github.com/pixievault/pixievault/internal/vault"
)

// Server exposes the entry use cases as MCP tools.
type Server struct {
	server  *mcp.Server
	entries *usecase.Entry
	log     logging.Logger
}

// NewServer creates a new MCP server over entries.
func NewServer(entries *usecase.Entry, log logging.Logger, version string) *Server {
	if log == nil {
		log = logging.Nop()
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "pixievault",
		Version: version,
	}, nil)

	s := &Server{
		server:  mcpServer,
		entries: entries,
		log:     log.With("component", "mcp"),
	}
	s.registerTools()
	return s
}

// Run serves tools over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info(ctx, "mcp server starting")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "vault_list",
		Description: "List entries, optionally filtered by a search term and sorted. Passwords are not included.",
	}, s.handleList)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "vault_get",
		Description: "Retrieve a full entry by id, including its password. Counts as an access.",
	}, s.handleGet)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "vault_add",
		Description: "Add a new entry",
	}, s.handleAdd)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "vault_update",
		Description: "Update an entry. Only supplied fields change.",
	}, s.handleUpdate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "vault_delete",
		Description: "Delete an entry by id",
	}, s.handleDelete)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "vault_fields",
		Description: "List the field names that can be used to restrict a search",
	}, s.handleFields)
}

type ListInput struct {
	Query string `json:"query,omitempty" jsonschema:"Case-insensitive search term"`
	Field string `json:"field,omitempty" jsonschema:"Field to search in; Any or empty searches every field"`
	Sort  string `json:"sort,omitempty" jsonschema:"Sort order: az, added, updated or used"`
}

type ListOutput struct {
	Entries []ListEntry `json:"entries"`
	Status  string      `json:"status"`
}

type ListEntry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Website      string `json:"website,omitempty"`
	Username     string `json:"username,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
	AccessCount  int64  `json:"accessCount"`
	LastAccessAt string `json:"lastAccessAt,omitempty"`
}

type GetInput struct {
	ID string `json:"id" jsonschema:"The entry id"`
}

type EntryOutput struct {
	Entry    vault.Entry `json:"entry"`
	Warnings []string    `json:"warnings,omitempty"`
}

type AddInput struct {
	Name     string            `json:"name" jsonschema:"Display name of the entry"`
	Protocol string            `json:"protocol,omitempty" jsonschema:"Protocol such as https or ssh"`
	Website  string            `json:"website,omitempty" jsonschema:"Website or host"`
	Username string            `json:"username,omitempty" jsonschema:"Account user name"`
	Password string            `json:"password,omitempty" jsonschema:"Account password"`
	Notes    string            `json:"notes,omitempty" jsonschema:"Free-form notes"`
	Custom   map[string]string `json:"custom,omitempty" jsonschema:"Additional named fields"`
}

type UpdateInput struct {
	ID       string            `json:"id" jsonschema:"The entry id"`
	Name     *string           `json:"name,omitempty" jsonschema:"New display name"`
	Protocol *string           `json:"protocol,omitempty" jsonschema:"New protocol"`
	Website  *string           `json:"website,omitempty" jsonschema:"New website or host"`
	Username *string           `json:"username,omitempty" jsonschema:"New user name"`
	Password *string           `json:"password,omitempty" jsonschema:"New password"`
	Notes    *string           `json:"notes,omitempty" jsonschema:"New notes"`
	Custom   map[string]string `json:"custom,omitempty" jsonschema:"Custom fields to add or change"`
	Unset    []string          `json:"unset,omitempty" jsonschema:"Custom field names to remove"`
}

type DeleteInput struct {
	ID string `json:"id" jsonschema:"The entry id to delete"`
}

type DeleteOutput struct {
	Message string `json:"message"`
}

type FieldsInput struct{}

type FieldsOutput struct {
	Fields []string `json:"fields"`
}

func formatUnix(ts int64) string {
	if ts == 0 {
		return ""
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

// Tool handlers

func (s *Server) handleList(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListOutput, error) {
	result := s.entries.List(ctx, usecase.ListInput{
		Term:  input.Query,
		Field: input.Field,
		Sort:  query.ParseSortMode(input.Sort),
	})

	entries := make([]ListEntry, 0, len(result.Entries))
	for _, e := range result.Entries {
		item := ListEntry{
			ID:          e.ID,
			Name:        e.Name,
			Website:     e.Website,
			Username:    e.Username,
			CreatedAt:   formatUnix(e.CreatedAt),
			UpdatedAt:   formatUnix(e.UpdatedAt),
			AccessCount: e.AccessCount,
		}
		if e.LastAccessAt != nil {
			item.LastAccessAt = formatUnix(*e.LastAccessAt)
		}
		entries = append(entries, item)
	}

	return nil, ListOutput{
		Entries: entries,
		Status:  result.Status(),
	}, nil
}

func (s *Server) handleGet(ctx context.Context, req *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, EntryOutput, error) {
	e, err := s.entries.Show(ctx, input.ID)
	if err != nil {
		return nil, EntryOutput{}, fmt.Errorf("failed to get entry: %w", err)
	}
	return nil, EntryOutput{Entry: e}, nil
}

func (s *Server) handleAdd(ctx context.Context, req *mcp.CallToolRequest, input AddInput) (*mcp.CallToolResult, EntryOutput, error) {
	result, err := s.entries.Add(ctx, usecase.AddInput{
		Base: vault.BaseFields{
			Name:     vault.String(input.Name),
			Protocol: vault.String(input.Protocol),
			Website:  vault.String(input.Website),
			Username: vault.String(input.Username),
			Password: vault.String(input.Password),
			Notes:    vault.String(input.Notes),
		},
		Custom: input.Custom,
	})
	if err != nil {
		return nil, EntryOutput{}, fmt.Errorf("failed to add entry: %w", err)
	}
	return nil, EntryOutput{Entry: result.Entry, Warnings: result.Warnings}, nil
}

func (s *Server) handleUpdate(ctx context.Context, req *mcp.CallToolRequest, input UpdateInput) (*mcp.CallToolResult, EntryOutput, error) {
	current, err := s.entries.Get(ctx, input.ID)
	if err != nil {
		return nil, EntryOutput{}, fmt.Errorf("failed to update entry: %w", err)
	}

	result, err := s.entries.Update(ctx, usecase.UpdateInput{
		ID: input.ID,
		Base: vault.BaseFields{
			Name:     input.Name,
			Protocol: input.Protocol,
			Website:  input.Website,
			Username: input.Username,
			Password: input.Password,
			Notes:    input.Notes,
		},
		Custom: usecase.MergeCustom(current.Custom, input.Custom, input.Unset),
	})
	if err != nil {
		return nil, EntryOutput{}, fmt.Errorf("failed to update entry: %w", err)
	}
	return nil, EntryOutput{Entry: result.Entry, Warnings: result.Warnings}, nil
}

func (s *Server) handleDelete(ctx context.Context, req *mcp.CallToolRequest, input DeleteInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if _, err := s.entries.Get(ctx, input.ID); err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete entry: %w", err)
	}
	if err := s.entries.Delete(ctx, input.ID); err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil, DeleteOutput{
		Message: fmt.Sprintf("Deleted entry '%s'", input.ID),
	}, nil
}

func (s *Server) handleFields(ctx context.Context, req *mcp.CallToolRequest, input FieldsInput) (*mcp.CallToolResult, FieldsOutput, error) {
	return nil, FieldsOutput{Fields: s.entries.Fields(ctx)}, nil
}
