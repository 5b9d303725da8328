package workspace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lectern/internal/docstore"
	"github.com/starford/lectern/internal/models"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func note(id string, age time.Duration, links ...string) models.Note {
	return models.Note{ID: id, Title: id, NoteLinkIDs: links, Updated: base.Add(-age)}
}

func ids(notes []models.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}

func TestNotes_MostRecentFirst(t *testing.T) {
	w := New()
	w.PutNote(note("old", 2*time.Hour))
	w.PutNote(note("new", 0))
	w.PutNote(note("mid", time.Hour))

	assert.Equal(t, []string{"new", "mid", "old"}, ids(w.Notes()))
}

func TestTags_Alphabetical(t *testing.T) {
	w := New()
	w.PutTag(models.Tag{ID: "1", Name: "zeta"})
	w.PutTag(models.Tag{ID: "2", Name: "Alpha"})
	w.PutTag(models.Tag{ID: "3", Name: "beta"})

	var names []string
	for _, tg := range w.Tags() {
		names = append(names, tg.Name)
	}
	assert.Equal(t, []string{"Alpha", "beta", "zeta"}, names)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	w := New()
	w.PutNote(models.Note{ID: "n1", TagIDs: []string{"t1"}})

	n, ok := w.Note("n1")
	require.True(t, ok)
	n.TagIDs[0] = "changed"

	again, _ := w.Note("n1")
	assert.Equal(t, []string{"t1"}, again.TagIDs)
}

func TestBacklinks(t *testing.T) {
	w := New()
	w.PutNote(note("a", 0, "c"))
	w.PutNote(note("b", time.Hour, "c", "a"))
	w.PutNote(note("c", 2*time.Hour))

	assert.Equal(t, []string{"a", "b"}, ids(w.Backlinks("c")))
	assert.Equal(t, []string{"b"}, ids(w.Backlinks("a")))
	assert.Empty(t, w.Backlinks("b"))
}

func TestRemoveNoteDoesNotCascade(t *testing.T) {
	w := New()
	w.PutNote(note("a", 0, "b"))
	w.PutNote(note("b", time.Hour))
	w.PutLecture(models.Lecture{ID: "l1", NoteIDs: []string{"b"}})

	w.RemoveNote("b")

	a, _ := w.Note("a")
	assert.Equal(t, []string{"b"}, a.NoteLinkIDs, "dangling link kept")
	assert.Empty(t, w.LinkedNotes(a), "dangling link resolves to nothing")

	l, _ := w.Lecture("l1")
	assert.Equal(t, []string{"b"}, l.NoteIDs)
	assert.Empty(t, w.LectureNotes(l))
}

func TestLectureNotes_LectureOrder(t *testing.T) {
	w := New()
	w.PutNote(note("a", 0))
	w.PutNote(note("b", time.Hour))
	w.PutNote(note("c", 2*time.Hour))

	got := w.LectureNotes(models.Lecture{NoteIDs: []string{"c", "missing", "a"}})
	assert.Equal(t, []string{"c", "a"}, ids(got))
}

func TestTagsOfAndNotesTagged(t *testing.T) {
	w := New()
	w.PutTag(models.Tag{ID: "t1", Name: "b"})
	w.PutTag(models.Tag{ID: "t2", Name: "a"})
	w.PutNote(models.Note{ID: "n1", TagIDs: []string{"t1", "t2", "gone"}})
	w.PutNote(models.Note{ID: "n2", TagIDs: []string{"t1"}})

	n1, _ := w.Note("n1")
	var names []string
	for _, tg := range w.TagsOf(n1) {
		names = append(names, tg.Name)
	}
	assert.Equal(t, []string{"a", "b"}, names)
	assert.ElementsMatch(t, []string{"n1", "n2"}, ids(w.NotesTagged("t1")))
	assert.Equal(t, []string{"n1"}, ids(w.NotesTagged("t2")))
}

func TestLoadAndRefresh(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	nid, err := store.Notes().Create(ctx, models.Note{Title: "first"})
	require.NoError(t, err)
	_, err = store.Tags().Create(ctx, models.Tag{Name: "go"})
	require.NoError(t, err)
	_, err = store.Lectures().Create(ctx, models.Lecture{Title: "Intro", NoteIDs: []string{nid}})
	require.NoError(t, err)

	w := New()
	require.NoError(t, w.Load(ctx, store))
	assert.Len(t, w.Notes(), 1)
	assert.Len(t, w.Tags(), 1)
	assert.Len(t, w.Lectures(), 1)

	_, err = store.Tags().Create(ctx, models.Tag{Name: "sql"})
	require.NoError(t, err)
	assert.Len(t, w.Tags(), 1)

	require.NoError(t, w.Refresh(ctx, store, models.KindTag))
	assert.Len(t, w.Tags(), 2)
	assert.Error(t, w.Refresh(ctx, store, models.Kind("bogus")))
}

type failingStore struct {
	*docstore.Memory
}

type failingTags struct {
	docstore.Collection[models.Tag]
}

func (failingTags) List(context.Context) ([]models.Tag, error) {
	return nil, errors.New("boom")
}

func (f failingStore) Tags() docstore.Collection[models.Tag] {
	return failingTags{f.Memory.Tags()}
}

func TestLoadFailureKeepsPreviousState(t *testing.T) {
	w := New()
	w.PutNote(note("keep", 0))

	err := w.Load(context.Background(), failingStore{docstore.NewMemory()})
	require.Error(t, err)

	_, ok := w.Note("keep")
	assert.True(t, ok)
}
