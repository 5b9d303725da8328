// Package workspace holds the application's single in-memory copy of every
// note, lecture and tag. The persistence façade is its only writer; every
// other component reads through View.
package workspace

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/lectern/internal/docstore"
	"github.com/starford/lectern/internal/links"
	"github.com/starford/lectern/internal/models"
)

// View is read-only access to the workspace. Returned values are copies.
type View interface {
	Notes() []models.Note
	Note(id string) (models.Note, bool)
	Lectures() []models.Lecture
	Lecture(id string) (models.Lecture, bool)
	Tags() []models.Tag
	Tag(id string) (models.Tag, bool)
	TagsOf(n models.Note) []models.Tag
	LinkedNotes(n models.Note) []models.Note
	LectureNotes(l models.Lecture) []models.Note
	Backlinks(id string) []models.Note
	NotesTagged(tagID string) []models.Note
}

// Workspace owns the collections.
type Workspace struct {
	mu       sync.RWMutex
	notes    map[string]models.Note
	lectures map[string]models.Lecture
	tags     map[string]models.Tag
}

var _ View = (*Workspace)(nil)

// New returns an empty workspace.
func New() *Workspace {
	return &Workspace{
		notes:    make(map[string]models.Note),
		lectures: make(map[string]models.Lecture),
		tags:     make(map[string]models.Tag),
	}
}

// Load replaces every collection with the store's contents. The three
// collections are fetched concurrently; on any failure nothing is replaced.
func (w *Workspace) Load(ctx context.Context, store docstore.Store) error {
	var (
		notes    []models.Note
		lectures []models.Lecture
		tags     []models.Tag
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		notes, err = store.Notes().List(gctx)
		return err
	})
	g.Go(func() (err error) {
		lectures, err = store.Lectures().List(gctx)
		return err
	})
	g.Go(func() (err error) {
		tags, err = store.Tags().List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("workspace: load: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.notes = index(notes, models.Note.Clone)
	w.lectures = index(lectures, models.Lecture.Clone)
	w.tags = index(tags, func(t models.Tag) models.Tag { return t })
	return nil
}

// Refresh reloads a single collection from the store.
func (w *Workspace) Refresh(ctx context.Context, store docstore.Store, kind models.Kind) error {
	switch kind {
	case models.KindNote:
		notes, err := store.Notes().List(ctx)
		if err != nil {
			return fmt.Errorf("workspace: refresh notes: %w", err)
		}
		w.ReplaceNotes(notes)
	case models.KindLecture:
		lectures, err := store.Lectures().List(ctx)
		if err != nil {
			return fmt.Errorf("workspace: refresh lectures: %w", err)
		}
		w.ReplaceLectures(lectures)
	case models.KindTag:
		tags, err := store.Tags().List(ctx)
		if err != nil {
			return fmt.Errorf("workspace: refresh tags: %w", err)
		}
		w.ReplaceTags(tags)
	default:
		return fmt.Errorf("workspace: unknown kind %q", kind)
	}
	return nil
}

func index[T models.Record[T]](recs []T, clone func(T) T) map[string]T {
	m := make(map[string]T, len(recs))
	for _, r := range recs {
		m[r.Identifier()] = clone(r)
	}
	return m
}

// ReplaceNotes swaps the whole note collection.
func (w *Workspace) ReplaceNotes(notes []models.Note) {
	m := index(notes, models.Note.Clone)
	w.mu.Lock()
	w.notes = m
	w.mu.Unlock()
}

// ReplaceLectures swaps the whole lecture collection.
func (w *Workspace) ReplaceLectures(lectures []models.Lecture) {
	m := index(lectures, models.Lecture.Clone)
	w.mu.Lock()
	w.lectures = m
	w.mu.Unlock()
}

// ReplaceTags swaps the whole tag collection.
func (w *Workspace) ReplaceTags(tags []models.Tag) {
	m := index(tags, func(t models.Tag) models.Tag { return t })
	w.mu.Lock()
	w.tags = m
	w.mu.Unlock()
}

// PutNote inserts or replaces n. n must carry an identifier.
func (w *Workspace) PutNote(n models.Note) {
	w.mu.Lock()
	w.notes[n.ID] = n.Clone()
	w.mu.Unlock()
}

// RemoveNote drops the note. Other records referencing it are untouched.
func (w *Workspace) RemoveNote(id string) {
	w.mu.Lock()
	delete(w.notes, id)
	w.mu.Unlock()
}

// PutLecture inserts or replaces l.
func (w *Workspace) PutLecture(l models.Lecture) {
	w.mu.Lock()
	w.lectures[l.ID] = l.Clone()
	w.mu.Unlock()
}

// RemoveLecture drops the lecture. Notes pointing at it keep their LectureID.
func (w *Workspace) RemoveLecture(id string) {
	w.mu.Lock()
	delete(w.lectures, id)
	w.mu.Unlock()
}

// PutTag inserts or replaces t.
func (w *Workspace) PutTag(t models.Tag) {
	w.mu.Lock()
	w.tags[t.ID] = t
	w.mu.Unlock()
}

// Notes returns every note, most recently updated first.
func (w *Workspace) Notes() []models.Note {
	w.mu.RLock()
	out := make([]models.Note, 0, len(w.notes))
	for _, n := range w.notes {
		out = append(out, n.Clone())
	}
	w.mu.RUnlock()
	sortNotes(out)
	return out
}

func (w *Workspace) Note(id string) (models.Note, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n, ok := w.notes[id]
	if !ok {
		return models.Note{}, false
	}
	return n.Clone(), true
}

// Lectures returns every lecture ordered by title.
func (w *Workspace) Lectures() []models.Lecture {
	w.mu.RLock()
	out := make([]models.Lecture, 0, len(w.lectures))
	for _, l := range w.lectures {
		out = append(out, l.Clone())
	}
	w.mu.RUnlock()
	slices.SortFunc(out, func(a, b models.Lecture) int {
		return cmp.Or(compareFold(a.Title, b.Title), strings.Compare(a.ID, b.ID))
	})
	return out
}

func (w *Workspace) Lecture(id string) (models.Lecture, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	l, ok := w.lectures[id]
	if !ok {
		return models.Lecture{}, false
	}
	return l.Clone(), true
}

// Tags returns every tag ordered by name.
func (w *Workspace) Tags() []models.Tag {
	w.mu.RLock()
	out := make([]models.Tag, 0, len(w.tags))
	for _, t := range w.tags {
		out = append(out, t)
	}
	w.mu.RUnlock()
	slices.SortFunc(out, func(a, b models.Tag) int {
		return cmp.Or(compareFold(a.Name, b.Name), strings.Compare(a.ID, b.ID))
	})
	return out
}

func (w *Workspace) Tag(id string) (models.Tag, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	t, ok := w.tags[id]
	return t, ok
}

// TagsOf resolves n's tag ids, alphabetically. Dangling ids are skipped.
func (w *Workspace) TagsOf(n models.Note) []models.Tag {
	return links.Resolve(w.Tags(), n.TagIDs)
}

// LinkedNotes resolves n's note links in canonical note order.
func (w *Workspace) LinkedNotes(n models.Note) []models.Note {
	return links.Resolve(w.Notes(), n.NoteLinkIDs)
}

// LectureNotes resolves a lecture's notes in the lecture's own order.
func (w *Workspace) LectureNotes(l models.Lecture) []models.Note {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := []models.Note{}
	for _, id := range l.NoteIDs {
		if n, ok := w.notes[id]; ok {
			out = append(out, n.Clone())
		}
	}
	return out
}

// Backlinks returns the notes whose link set contains id.
func (w *Workspace) Backlinks(id string) []models.Note {
	out := []models.Note{}
	for _, n := range w.Notes() {
		if n.IsLinked(models.LinkNotes, id) {
			out = append(out, n)
		}
	}
	return out
}

// NotesTagged returns the notes carrying tagID.
func (w *Workspace) NotesTagged(tagID string) []models.Note {
	out := []models.Note{}
	for _, n := range w.Notes() {
		if n.IsLinked(models.LinkTags, tagID) {
			out = append(out, n)
		}
	}
	return out
}

func sortNotes(notes []models.Note) {
	slices.SortFunc(notes, func(a, b models.Note) int {
		return cmp.Or(b.Updated.Compare(a.Updated), strings.Compare(a.ID, b.ID))
	})
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
