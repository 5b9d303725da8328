// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Lectern notes, lectures and tags to LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/lectern/internal/links"
	"github.com/starford/lectern/internal/models"
	"github.com/starford/lectern/internal/persist"
	"github.com/starford/lectern/internal/richtext"
	"github.com/starford/lectern/internal/search"
	"github.com/starford/lectern/internal/session"
)

const noteFormatURI = "lectern://note-format"

// Server wraps the MCP server with Lectern tools.
type Server struct {
	mcp    *server.MCPServer
	facade *persist.Facade
	logger *slog.Logger
	userID string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger handed to edit sessions opened by tools.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithUserID sets the owner stamped on notes created through MCP.
func WithUserID(id string) Option {
	return func(s *Server) { s.userID = id }
}

// New creates a new MCP server with all Lectern tools registered.
func New(f *persist.Facade, opts ...Option) *Server {
	s := &Server{facade: f, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}

	s.mcp = server.NewMCPServer(
		"Lectern",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Case-insensitive search over note titles and text."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note with its tags, linked notes and backlinks."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes, most recently updated first."),
		mcp.WithString("tag", mcp.Description("Optional tag id to filter by")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("list_lectures",
		mcp.WithDescription("List lectures by title."),
	), s.listLectures)

	s.mcp.AddTool(mcp.NewTool("read_lecture",
		mcp.WithDescription("Read a lecture and its notes in lecture order."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Lecture id")),
	), s.readLecture)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note from plain text. The first line becomes the title. "+
			"Read the "+noteFormatURI+" resource first."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Note text, one paragraph per line")),
		mcp.WithString("lecture_id", mcp.Description("Optional lecture that gains the new note")),
		mcp.WithArray("tag_ids", mcp.WithStringItems(), mcp.Description("Optional tag ids")),
		mcp.WithArray("link_ids", mcp.WithStringItems(), mcp.Description("Optional ids of notes to link")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("create_tag",
		mcp.WithDescription("Create a tag. Names are unique regardless of case."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Tag name")),
	), s.createTag)

	s.mcp.AddResource(
		mcp.NewResource(noteFormatURI, "Note Format",
			mcp.WithResourceDescription("How Lectern stores notes and how titles, tags and links work."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

type noteRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func refs(notes []models.Note) []noteRef {
	out := make([]noteRef, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteRef{ID: n.ID, Title: n.Title})
	}
	return out
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(refs(search.Notes(s.facade.View().Notes(), query))), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view := s.facade.View()
	n, ok := view.Note(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}

	tags := make([]string, 0, len(n.TagIDs))
	for _, t := range view.TagsOf(n) {
		tags = append(tags, t.Name)
	}
	out := map[string]any{
		"id":        n.ID,
		"title":     n.Title,
		"text":      n.TextContent,
		"tags":      tags,
		"links":     refs(view.LinkedNotes(n)),
		"backlinks": refs(view.Backlinks(n.ID)),
		"created":   n.Created,
		"updated":   n.Updated,
	}
	if l, ok := view.Lecture(n.LectureID); ok {
		out["lecture"] = map[string]string{"id": l.ID, "title": l.Title}
	}
	return jsonResult(out), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view := s.facade.View()
	notes := view.Notes()
	if tag := req.GetString("tag", ""); tag != "" {
		notes = view.NotesTagged(tag)
	}

	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, n.ID+"\t"+n.Title)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listLectures(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.facade.View().Lectures()), nil
}

func (s *Server) readLecture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view := s.facade.View()
	l, ok := view.Lecture(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return jsonResult(map[string]any{
		"id":       l.ID,
		"title":    l.Title,
		"language": l.Language,
		"notes":    refs(view.LectureNotes(l)),
	}), nil
}

// createNote runs a fresh edit session so titles, timestamps and the
// lecture follow-up behave exactly as for notes written in the editor.
func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view := s.facade.View()

	lectureID := req.GetString("lecture_id", "")
	if lectureID != "" {
		if _, ok := view.Lecture(lectureID); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("lecture not found: %s", lectureID)), nil
		}
	}
	tagIDs := links.Normalize(req.GetStringSlice("tag_ids", nil))
	for _, id := range tagIDs {
		if _, ok := view.Tag(id); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("tag not found: %s", id)), nil
		}
	}
	linkIDs := links.Normalize(req.GetStringSlice("link_ids", nil))
	for _, id := range linkIDs {
		if _, ok := view.Note(id); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("note not found: %s", id)), nil
		}
	}

	sess := session.New(s.facade, session.Template(lectureID),
		session.WithLogger(s.logger),
		session.WithUserID(s.userID),
	)
	sess.Edit(richtext.FromText(text))
	for _, id := range tagIDs {
		sess.ToggleTag(id)
	}
	for _, id := range linkIDs {
		sess.ToggleLink(id)
	}
	if err := sess.Save(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	n := sess.Note()
	if n.ID == "" {
		return mcp.NewToolResultError("note text is empty"), nil
	}
	return jsonResult(noteRef{ID: n.ID, Title: n.Title}), nil
}

func (s *Server) createTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tag, err := s.facade.CreateTag(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tag), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      noteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormat,
		},
	}, nil
}
