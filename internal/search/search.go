// Package search filters notes by a free-text query and lets the user pick
// results into a link set.
package search

import (
	"strings"

	"github.com/starford/lectern/internal/links"
	"github.com/starford/lectern/internal/models"
)

// Candidate is a search hit annotated with its membership in the link set
// being edited.
type Candidate struct {
	Note   models.Note
	Linked bool
}

// Notes returns the notes whose title or text contains query, ignoring
// case, in the order given. A blank query matches nothing.
func Notes(notes []models.Note, query string) []models.Note {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.Note{}
	if q == "" {
		return out
	}
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), q) ||
			strings.Contains(strings.ToLower(n.TextContent), q) {
			out = append(out, n)
		}
	}
	return out
}

// Candidates runs Notes and marks each hit already present in linkSet. The
// note being edited (selfID) is never offered.
func Candidates(notes []models.Note, query string, linkSet []string, selfID string) []Candidate {
	out := []Candidate{}
	for _, n := range Notes(notes, query) {
		if selfID != "" && n.ID == selfID {
			continue
		}
		out = append(out, Candidate{Note: n, Linked: links.Contains(linkSet, n.ID)})
	}
	return out
}

// Select toggles the candidate in linkSet and returns the new set.
func Select(linkSet []string, c Candidate) []string {
	return links.Toggle(linkSet, c.Note.ID)
}
