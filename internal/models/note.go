// Package models defines the domain types for lectern: notes, lectures and
// tags, linked to each other only by identifier.
package models

import (
	"time"

	"github.com/starford/lectern/internal/links"
	"github.com/starford/lectern/internal/richtext"
)

// Kind names one of the persisted collections.
type Kind string

const (
	KindNote    Kind = "notes"
	KindLecture Kind = "lectures"
	KindTag     Kind = "tags"
)

// Singular returns the entity name used in logs and events ("note").
func (k Kind) Singular() string {
	switch k {
	case KindNote:
		return "note"
	case KindLecture:
		return "lecture"
	case KindTag:
		return "tag"
	}
	return string(k)
}

// LinkField selects one of a note's link sets.
type LinkField int

const (
	LinkTags LinkField = iota
	LinkNotes
)

// Note is a rich-text document. ID is empty until the note is first
// committed; Title and TextContent are derived from Content.
type Note struct {
	ID          string         `json:"id,omitempty" yaml:"id,omitempty" bson:"_id,omitempty"`
	Title       string         `json:"title" yaml:"title" bson:"title"`
	Content     *richtext.Node `json:"content,omitempty" yaml:"content,omitempty" bson:"content,omitempty"`
	TextContent string         `json:"textContent" yaml:"text_content" bson:"text_content"`
	TagIDs      []string       `json:"tagIds" yaml:"tag_ids" bson:"tag_ids"`
	NoteLinkIDs []string       `json:"noteLinkIds" yaml:"note_link_ids" bson:"note_link_ids"`
	LectureID   string         `json:"lectureId,omitempty" yaml:"lecture_id,omitempty" bson:"lecture_id,omitempty"`
	Created     time.Time      `json:"created" yaml:"created" bson:"created"`
	Updated     time.Time      `json:"updated" yaml:"updated" bson:"updated"`
	UserID      string         `json:"userId,omitempty" yaml:"user_id,omitempty" bson:"user_id,omitempty"`
}

// Identifier implements links.Identifiable.
func (n Note) Identifier() string { return n.ID }

// WithIdentifier returns a copy of n carrying id.
func (n Note) WithIdentifier(id string) Note {
	n.ID = id
	return n
}

// Persisted reports whether the note has ever been committed.
func (n Note) Persisted() bool { return n.ID != "" }

func (n Note) linkSet(field LinkField) []string {
	if field == LinkTags {
		return n.TagIDs
	}
	return n.NoteLinkIDs
}

// IsLinked reports whether id is in the selected link set.
func (n Note) IsLinked(field LinkField, id string) bool {
	return links.Contains(n.linkSet(field), id)
}

// WithToggledLink returns a copy of n with id toggled in the selected link
// set. A note never links to itself, so toggling its own id is a no-op.
func (n Note) WithToggledLink(field LinkField, id string) Note {
	out := n.Clone()
	if id == "" || (n.ID != "" && id == n.ID) {
		return out
	}
	switch field {
	case LinkTags:
		out.TagIDs = links.Toggle(n.TagIDs, id)
	case LinkNotes:
		out.NoteLinkIDs = links.Toggle(n.NoteLinkIDs, id)
	}
	return out
}

// Clone returns a copy of n that shares no slices or content with it.
func (n Note) Clone() Note {
	c := n
	c.Content = n.Content.Clone()
	c.TagIDs = cloneIDs(n.TagIDs)
	c.NoteLinkIDs = cloneIDs(n.NoteLinkIDs)
	return c
}

func cloneIDs(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append(make([]string, 0, len(in)), in...)
}
