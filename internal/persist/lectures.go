package persist

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/links"
	"github.com/starford/lectern/internal/models"
)

func validateLecture(l *models.Lecture) error {
	langs := make([]any, 0, len(models.Languages()))
	for _, lang := range models.Languages() {
		langs = append(langs, lang)
	}
	err := validation.ValidateStruct(l,
		validation.Field(&l.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&l.Language, validation.Required, validation.In(langs...)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}
	return nil
}

// CommitLecture validates and persists l, creating it when it has no id.
// An empty language defaults to models.DefaultLanguage. NoteIDs lose empty
// and repeated ids.
func (f *Facade) CommitLecture(ctx context.Context, l models.Lecture) (models.Lecture, error) {
	l = l.Clone()
	l.Title = strings.TrimSpace(l.Title)
	l.NoteIDs = links.Normalize(l.NoteIDs)
	if l.Language == "" {
		l.Language = models.DefaultLanguage
	}
	if err := validateLecture(&l); err != nil {
		return l, err
	}
	if l.ID != "" {
		return f.updateLecture(ctx, l)
	}

	done := f.metrics.TrackStore("lecture", string(apperr.OpCreate))
	id, err := f.store.Lectures().Create(ctx, l)
	done(err)
	if err != nil {
		return l, f.fail(apperr.OpCreate, models.KindLecture, "", err)
	}
	saved := l.WithIdentifier(id)
	f.ws.PutLecture(saved)
	f.succeed(apperr.OpCreate, models.KindLecture, id)
	return saved, nil
}

func (f *Facade) updateLecture(ctx context.Context, l models.Lecture) (models.Lecture, error) {
	done := f.metrics.TrackStore("lecture", string(apperr.OpUpdate))
	err := f.store.Lectures().Update(ctx, l.ID, l)
	done(err)
	if err != nil {
		return l, f.fail(apperr.OpUpdate, models.KindLecture, l.ID, err)
	}
	f.ws.PutLecture(l)
	f.succeed(apperr.OpUpdate, models.KindLecture, l.ID)
	return l, nil
}

// ToggleLectureNote adds or removes a note from a lecture's ordered set.
func (f *Facade) ToggleLectureNote(ctx context.Context, lectureID, noteID string) (models.Lecture, error) {
	lec, ok := f.ws.Lecture(lectureID)
	if !ok {
		return models.Lecture{}, fmt.Errorf("lecture %s: %w", lectureID, apperr.ErrNotFound)
	}
	return f.updateLecture(ctx, lec.WithToggledLink(noteID))
}

// DeleteLecture removes a lecture after confirm approves it. Its notes and
// their LectureID references are left in place.
func (f *Facade) DeleteLecture(ctx context.Context, id string, confirm ConfirmFunc) error {
	prompt := "Delete this lecture?"
	if l, ok := f.ws.Lecture(id); ok {
		prompt = fmt.Sprintf("Delete lecture %q?", l.Title)
	}
	if confirm == nil || !confirm(prompt) {
		return apperr.ErrNotConfirmed
	}

	done := f.metrics.TrackStore("lecture", string(apperr.OpDelete))
	err := f.store.Lectures().Delete(ctx, id)
	done(err)
	if err != nil {
		return f.fail(apperr.OpDelete, models.KindLecture, id, err)
	}
	f.ws.RemoveLecture(id)
	f.succeed(apperr.OpDelete, models.KindLecture, id)
	return nil
}

// CreateTag creates a tag. Names are unique, compared case-insensitively.
func (f *Facade) CreateTag(ctx context.Context, name string) (models.Tag, error) {
	tag := models.Tag{Name: strings.TrimSpace(name)}
	if err := validation.ValidateStruct(&tag,
		validation.Field(&tag.Name, validation.Required, validation.Length(1, 64)),
	); err != nil {
		return tag, fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}
	for _, t := range f.ws.Tags() {
		if strings.EqualFold(t.Name, tag.Name) {
			return t, fmt.Errorf("tag %q: %w", tag.Name, apperr.ErrAlreadyExists)
		}
	}

	done := f.metrics.TrackStore("tag", string(apperr.OpCreate))
	id, err := f.store.Tags().Create(ctx, tag)
	done(err)
	if err != nil {
		return tag, f.fail(apperr.OpCreate, models.KindTag, "", err)
	}
	saved := tag.WithIdentifier(id)
	f.ws.PutTag(saved)
	f.succeed(apperr.OpCreate, models.KindTag, id)
	return saved, nil
}
