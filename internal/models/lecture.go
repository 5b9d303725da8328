package models

import "github.com/starford/lectern/internal/links"

// Language is the category a lecture is filed under.
type Language string

const (
	LanguageCode       Language = "code"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguagePython     Language = "python"
	LanguageGo         Language = "go"
	LanguageHTML       Language = "html"
	LanguageCSS        Language = "css"
	LanguageSQL        Language = "sql"
	LanguageText       Language = "text"
)

// DefaultLanguage is used for lectures created without one.
const DefaultLanguage = LanguageCode

// Languages lists the accepted lecture languages.
func Languages() []Language {
	return []Language{
		LanguageCode, LanguageJavaScript, LanguageTypeScript, LanguagePython,
		LanguageGo, LanguageHTML, LanguageCSS, LanguageSQL, LanguageText,
	}
}

// Lecture orders a set of notes for presentation. It does not own them.
type Lecture struct {
	ID       string   `json:"id,omitempty" yaml:"id,omitempty" bson:"_id,omitempty"`
	Title    string   `json:"title" yaml:"title" bson:"title"`
	NoteIDs  []string `json:"noteIds" yaml:"note_ids" bson:"note_ids"`
	Language Language `json:"language" yaml:"language" bson:"language"`
}

// Identifier implements links.Identifiable.
func (l Lecture) Identifier() string { return l.ID }

// WithIdentifier returns a copy of l carrying id.
func (l Lecture) WithIdentifier(id string) Lecture {
	l.ID = id
	return l
}

// IsLinked reports whether the note id is part of the lecture.
func (l Lecture) IsLinked(id string) bool {
	return links.Contains(l.NoteIDs, id)
}

// WithToggledLink returns a copy of l with the note id toggled.
func (l Lecture) WithToggledLink(id string) Lecture {
	out := l.Clone()
	out.NoteIDs = links.Toggle(l.NoteIDs, id)
	return out
}

// WithNote returns a copy of l that includes the note id.
func (l Lecture) WithNote(id string) Lecture {
	out := l.Clone()
	out.NoteIDs = links.Add(l.NoteIDs, id)
	return out
}

// Clone returns a copy of l that shares no slices with it.
func (l Lecture) Clone() Lecture {
	c := l
	c.NoteIDs = cloneIDs(l.NoteIDs)
	return c
}

// Tag is a global label that any number of notes may reference.
type Tag struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty" bson:"_id,omitempty"`
	Name string `json:"name" yaml:"name" bson:"name"`
}

// Identifier implements links.Identifiable.
func (t Tag) Identifier() string { return t.ID }

// WithIdentifier returns a copy of t carrying id.
func (t Tag) WithIdentifier(id string) Tag {
	t.ID = id
	return t
}

// Record is the constraint satisfied by every persisted entity type.
type Record[T any] interface {
	Note | Lecture | Tag
	Identifier() string
	WithIdentifier(id string) T
}

// KindOf returns the collection that stores records of type T.
func KindOf[T Record[T]]() Kind {
	var zero T
	switch any(zero).(type) {
	case Note:
		return KindNote
	case Lecture:
		return KindLecture
	default:
		return KindTag
	}
}
