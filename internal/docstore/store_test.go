package docstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/models"
	"github.com/starford/lectern/internal/richtext"
)

type backend struct {
	name string
	open func(t *testing.T) Store
}

func backends() []backend {
	return []backend{
		{"memory", func(t *testing.T) Store { return NewMemory() }},
		{"sqlite", func(t *testing.T) Store {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "lectern.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		}},
		{"fs", func(t *testing.T) Store {
			s, err := NewFS(t.TempDir())
			require.NoError(t, err)
			return s
		}},
	}
}

func sampleNote(text string) models.Note {
	doc := richtext.FromText(text)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return models.Note{
		Title:       richtext.Title(text),
		Content:     doc,
		TextContent: doc.PlainText(),
		TagIDs:      []string{"t1"},
		NoteLinkIDs: []string{},
		Created:     now,
		Updated:     now,
		UserID:      "u1",
	}
}

func TestStoreContract(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			t.Run("CreateIssuesDistinctIDs", func(t *testing.T) {
				s := b.open(t)
				ctx := context.Background()

				id1, err := s.Notes().Create(ctx, sampleNote("first"))
				require.NoError(t, err)
				id2, err := s.Notes().Create(ctx, sampleNote("second"))
				require.NoError(t, err)

				assert.NotEmpty(t, id1)
				assert.NotEqual(t, id1, id2)

				notes, err := s.Notes().List(ctx)
				require.NoError(t, err)
				require.Len(t, notes, 2)
				ids := []string{notes[0].ID, notes[1].ID}
				assert.ElementsMatch(t, []string{id1, id2}, ids)
			})

			t.Run("ListRoundTripsFields", func(t *testing.T) {
				s := b.open(t)
				ctx := context.Background()
				in := sampleNote("Heading\nbody")

				id, err := s.Notes().Create(ctx, in)
				require.NoError(t, err)

				notes, err := s.Notes().List(ctx)
				require.NoError(t, err)
				require.Len(t, notes, 1)
				got := notes[0]
				assert.Equal(t, id, got.ID)
				assert.Equal(t, "Heading", got.Title)
				assert.Equal(t, "Heading\nbody", got.TextContent)
				assert.Equal(t, "Heading\nbody", got.Content.PlainText())
				assert.Equal(t, []string{"t1"}, got.TagIDs)
				assert.Empty(t, got.NoteLinkIDs)
				assert.True(t, in.Created.Equal(got.Created))
				assert.Equal(t, "u1", got.UserID)
			})

			t.Run("UpdateReplacesWholeRecord", func(t *testing.T) {
				s := b.open(t)
				ctx := context.Background()

				id, err := s.Lectures().Create(ctx, models.Lecture{Title: "Go", Language: models.LanguageGo, NoteIDs: []string{"a"}})
				require.NoError(t, err)

				err = s.Lectures().Update(ctx, id, models.Lecture{Title: "Go 2", Language: models.LanguageGo, NoteIDs: []string{}})
				require.NoError(t, err)

				lectures, err := s.Lectures().List(ctx)
				require.NoError(t, err)
				require.Len(t, lectures, 1)
				assert.Equal(t, id, lectures[0].ID)
				assert.Equal(t, "Go 2", lectures[0].Title)
				assert.Empty(t, lectures[0].NoteIDs)
			})

			t.Run("UpdateMissingIsNotFound", func(t *testing.T) {
				s := b.open(t)
				err := s.Tags().Update(context.Background(), "missing", models.Tag{Name: "x"})
				assert.ErrorIs(t, err, apperr.ErrNotFound)
			})

			t.Run("DeleteRemovesRecord", func(t *testing.T) {
				s := b.open(t)
				ctx := context.Background()

				keep, err := s.Tags().Create(ctx, models.Tag{Name: "keep"})
				require.NoError(t, err)
				drop, err := s.Tags().Create(ctx, models.Tag{Name: "drop"})
				require.NoError(t, err)

				require.NoError(t, s.Tags().Delete(ctx, drop))

				tags, err := s.Tags().List(ctx)
				require.NoError(t, err)
				require.Len(t, tags, 1)
				assert.Equal(t, keep, tags[0].ID)
				assert.Equal(t, "keep", tags[0].Name)
			})

			t.Run("DeleteMissingIsNotFound", func(t *testing.T) {
				s := b.open(t)
				err := s.Notes().Delete(context.Background(), "missing")
				assert.ErrorIs(t, err, apperr.ErrNotFound)
			})

			t.Run("CollectionsAreIndependent", func(t *testing.T) {
				s := b.open(t)
				ctx := context.Background()

				_, err := s.Notes().Create(ctx, sampleNote("n"))
				require.NoError(t, err)

				tags, err := s.Tags().List(ctx)
				require.NoError(t, err)
				assert.Empty(t, tags)
				lectures, err := s.Lectures().List(ctx)
				require.NoError(t, err)
				assert.Empty(t, lectures)
			})

			t.Run("CancelledContextFails", func(t *testing.T) {
				s := b.open(t)
				ctx, cancel := context.WithCancel(context.Background())
				cancel()

				_, err := s.Notes().Create(ctx, sampleNote("late"))
				assert.Error(t, err)
			})
		})
	}
}

func TestMemory_ClosedStoreFails(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Close())

	_, err := s.Notes().Create(context.Background(), sampleNote("x"))
	assert.ErrorIs(t, err, apperr.ErrStoreClosed)
	_, err = s.Tags().List(context.Background())
	assert.ErrorIs(t, err, apperr.ErrStoreClosed)
}

func TestMemory_ListDoesNotAlias(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	_, err := s.Notes().Create(ctx, sampleNote("x"))
	require.NoError(t, err)

	first, err := s.Notes().List(ctx)
	require.NoError(t, err)
	first[0].TagIDs[0] = "mutated"

	second, err := s.Notes().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, second[0].TagIDs)
}

func TestSQLite_ListKeepsInsertionOrder(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "order.db"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	var want []string
	for _, name := range []string{"c", "a", "b"} {
		id, err := s.Tags().Create(ctx, models.Tag{Name: name})
		require.NoError(t, err)
		want = append(want, id)
	}

	tags, err := s.Tags().List(ctx)
	require.NoError(t, err)
	var got []string
	for _, tg := range tags {
		got = append(got, tg.ID)
	}
	assert.Equal(t, want, got)
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	id, err := s.Tags().Create(context.Background(), models.Tag{Name: "kept"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	tags, err := s.Tags().List(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, id, tags[0].ID)
}
