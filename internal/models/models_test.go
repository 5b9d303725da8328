package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/starford/lectern/internal/richtext"
)

func TestNote_WithToggledLink(t *testing.T) {
	n := Note{ID: "n1", TagIDs: []string{"t1"}}

	got := n.WithToggledLink(LinkTags, "t2")
	assert.Equal(t, []string{"t1", "t2"}, got.TagIDs)
	assert.Equal(t, []string{"t1"}, n.TagIDs, "original must not change")
	assert.True(t, got.IsLinked(LinkTags, "t2"))
	assert.False(t, got.IsLinked(LinkNotes, "t2"))

	back := got.WithToggledLink(LinkTags, "t2")
	assert.Equal(t, []string{"t1"}, back.TagIDs)
}

func TestNote_NeverLinksToItself(t *testing.T) {
	n := Note{ID: "n1"}
	assert.Empty(t, n.WithToggledLink(LinkNotes, "n1").NoteLinkIDs)
	assert.Empty(t, n.WithToggledLink(LinkTags, "n1").TagIDs)
	assert.Equal(t, []string{"n2"}, n.WithToggledLink(LinkNotes, "n2").NoteLinkIDs)
}

func TestNote_CloneSharesNothing(t *testing.T) {
	n := Note{ID: "n1", Content: richtext.FromText("hi"), TagIDs: []string{"a"}, NoteLinkIDs: []string{"b"}}
	c := n.Clone()
	c.TagIDs[0] = "x"
	c.NoteLinkIDs[0] = "y"
	c.Content.Content[0].Content[0].Text = "changed"

	assert.Equal(t, "a", n.TagIDs[0])
	assert.Equal(t, "b", n.NoteLinkIDs[0])
	assert.Equal(t, "hi", n.Content.PlainText())
}

func TestLecture_Links(t *testing.T) {
	l := Lecture{ID: "L1", NoteIDs: []string{"n1"}}
	assert.True(t, l.IsLinked("n1"))
	assert.Equal(t, []string{"n1", "n2"}, l.WithToggledLink("n2").NoteIDs)
	assert.Empty(t, l.WithToggledLink("n1").NoteIDs)
	assert.Equal(t, []string{"n1"}, l.WithNote("n1").NoteIDs)
	assert.Equal(t, []string{"n1", "n3"}, l.WithNote("n3").NoteIDs)
	assert.Equal(t, []string{"n1"}, l.NoteIDs)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNote, KindOf[Note]())
	assert.Equal(t, KindLecture, KindOf[Lecture]())
	assert.Equal(t, KindTag, KindOf[Tag]())
	assert.Equal(t, "lecture", KindLecture.Singular())
}
