package api

import (
	"time"

	"github.com/starford/lectern/internal/models"
	"github.com/starford/lectern/internal/richtext"
	"github.com/starford/lectern/internal/search"
	"github.com/starford/lectern/internal/session"
)

// NoteSummary is a lightweight item in a list response.
type NoteSummary struct {
	ID        string    `json:"id" example:"3f0c..." validate:"required"`
	Title     string    `json:"title" example:"Closures" validate:"required"`
	TagIDs    []string  `json:"tagIds" validate:"required"`
	LectureID string    `json:"lectureId,omitempty"`
	Updated   time.Time `json:"updated"`
}

func summarize(notes []models.Note) []NoteSummary {
	out := make([]NoteSummary, 0, len(notes))
	for _, n := range notes {
		out = append(out, NoteSummary{
			ID:        n.ID,
			Title:     n.Title,
			TagIDs:    n.TagIDs,
			LectureID: n.LectureID,
			Updated:   n.Updated,
		})
	}
	return out
}

// NoteDetail is a note with its relationships resolved.
type NoteDetail struct {
	models.Note
	Tags      []models.Tag    `json:"tags" validate:"required"`
	Links     []NoteSummary   `json:"links" validate:"required"`
	Backlinks []NoteSummary   `json:"backlinks" validate:"required"`
	Lecture   *models.Lecture `json:"lecture,omitempty"`
}

// LectureDetail is a lecture with its notes in lecture order.
type LectureDetail struct {
	models.Lecture
	Notes []NoteSummary `json:"notes" validate:"required"`
}

// LectureRequest is the body for creating or updating a lecture. NoteIDs,
// when present, replaces the lecture's note order.
type LectureRequest struct {
	Title    string          `json:"title" example:"Go basics" validate:"required"`
	Language models.Language `json:"language" example:"go"`
	NoteIDs  []string        `json:"noteIds"`
}

// TagRequest is the body for creating a tag.
type TagRequest struct {
	Name string `json:"name" example:"golang" validate:"required"`
}

// SessionResponse describes the edit session.
type SessionResponse struct {
	State string      `json:"state" example:"dirty" validate:"required"`
	Note  models.Note `json:"note" validate:"required"`
}

func sessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{State: s.State().String(), Note: s.Note()}
}

// OpenSessionRequest loads an existing note (ID) or a new empty note,
// optionally bound to a lecture (LectureID).
type OpenSessionRequest struct {
	ID        string `json:"id,omitempty"`
	LectureID string `json:"lectureId,omitempty"`
}

// ContentRequest carries editor content.
type ContentRequest struct {
	Content *richtext.Node `json:"content"`
}

// LectureRef selects a lecture; empty clears it.
type LectureRef struct {
	LectureID string `json:"lectureId"`
}

// SearchResult is a candidate for the session note's link set.
type SearchResult struct {
	ID     string `json:"id" validate:"required"`
	Title  string `json:"title" example:"Closures" validate:"required"`
	Linked bool   `json:"linked"`
}

func searchResults(cands []search.Candidate) []SearchResult {
	out := make([]SearchResult, 0, len(cands))
	for _, c := range cands {
		out = append(out, SearchResult{ID: c.Note.ID, Title: c.Note.Title, Linked: c.Linked})
	}
	return out
}
