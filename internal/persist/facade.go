// Package persist translates domain commits and removals into document
// store calls, keeps the workspace in step with what the store accepted and
// reports every outcome.
package persist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/docstore"
	"github.com/starford/lectern/internal/metrics"
	"github.com/starford/lectern/internal/models"
	"github.com/starford/lectern/internal/workspace"
)

// ConfirmFunc asks the user to approve a destructive action.
type ConfirmFunc func(prompt string) bool

// Confirmed approves every prompt. Use it when the caller already obtained
// consent, e.g. an explicit confirm flag on a request.
func Confirmed(string) bool { return true }

// Facade is the only writer of the workspace apart from full reloads of a
// collection after external store changes.
type Facade struct {
	store    docstore.Store
	ws       *workspace.Workspace
	logger   *slog.Logger
	reporter Reporter
	metrics  *metrics.Metrics
}

// Option configures a Facade.
type Option func(*Facade)

// WithLogger sets the logger used for failures.
func WithLogger(l *slog.Logger) Option {
	return func(f *Facade) { f.logger = l }
}

// WithReporter sets the event sink.
func WithReporter(r Reporter) Option {
	return func(f *Facade) { f.reporter = r }
}

// WithMetrics enables Prometheus accounting of store calls.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Facade) { f.metrics = m }
}

// New creates a façade over store writing into ws.
func New(store docstore.Store, ws *workspace.Workspace, opts ...Option) *Facade {
	f := &Facade{
		store:    store,
		ws:       ws,
		logger:   slog.Default(),
		reporter: discard{},
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// View returns read-only access to the workspace.
func (f *Facade) View() workspace.View { return f.ws }

// CommitNote persists n. A note without an identifier is created and the
// returned copy carries the issued id; otherwise the stored record is fully
// replaced. On failure the workspace is unchanged and the error is an
// *apperr.OpError.
//
// A created note with a LectureID is then added to that lecture in a
// separate store update. That follow-up fails independently: its failure is
// reported but does not fail the commit.
func (f *Facade) CommitNote(ctx context.Context, n models.Note) (models.Note, error) {
	if !n.Persisted() {
		done := f.metrics.TrackStore("note", string(apperr.OpCreate))
		id, err := f.store.Notes().Create(ctx, n)
		done(err)
		if err != nil {
			return n, f.fail(apperr.OpCreate, models.KindNote, "", err)
		}
		saved := n.WithIdentifier(id)
		f.ws.PutNote(saved)
		f.succeed(apperr.OpCreate, models.KindNote, id)

		if saved.LectureID != "" {
			f.addToLecture(ctx, saved.LectureID, id)
		}
		return saved, nil
	}

	done := f.metrics.TrackStore("note", string(apperr.OpUpdate))
	err := f.store.Notes().Update(ctx, n.ID, n)
	done(err)
	if err != nil {
		return n, f.fail(apperr.OpUpdate, models.KindNote, n.ID, err)
	}
	f.ws.PutNote(n)
	f.succeed(apperr.OpUpdate, models.KindNote, n.ID)
	return n, nil
}

func (f *Facade) addToLecture(ctx context.Context, lectureID, noteID string) {
	lec, ok := f.ws.Lecture(lectureID)
	if !ok {
		_ = f.fail(apperr.OpUpdate, models.KindLecture, lectureID,
			fmt.Errorf("lecture for note %s: %w", noteID, apperr.ErrNotFound))
		return
	}
	if !lec.IsLinked(noteID) {
		// failures reach the reporter through updateLecture
		_, _ = f.updateLecture(ctx, lec.WithNote(noteID))
	}
}

// DeleteNote removes a note after confirm approves it. Links to the note
// held by other notes and lectures are left in place.
func (f *Facade) DeleteNote(ctx context.Context, id string, confirm ConfirmFunc) error {
	prompt := "Delete this note?"
	if n, ok := f.ws.Note(id); ok && n.Title != "" {
		prompt = fmt.Sprintf("Delete note %q?", n.Title)
	}
	if confirm == nil || !confirm(prompt) {
		return apperr.ErrNotConfirmed
	}

	done := f.metrics.TrackStore("note", string(apperr.OpDelete))
	err := f.store.Notes().Delete(ctx, id)
	done(err)
	if err != nil {
		return f.fail(apperr.OpDelete, models.KindNote, id, err)
	}
	f.ws.RemoveNote(id)
	f.succeed(apperr.OpDelete, models.KindNote, id)
	return nil
}

func (f *Facade) fail(op apperr.Op, kind models.Kind, id string, err error) *apperr.OpError {
	oe := &apperr.OpError{Op: op, Kind: kind.Singular(), ID: id, Err: err}
	f.logger.Error("persist: "+string(op)+" failed",
		slog.String("kind", oe.Kind),
		slog.String("id", id),
		slog.String("error", err.Error()))
	f.reporter.Report(failed(oe))
	return oe
}

func (f *Facade) succeed(op apperr.Op, kind models.Kind, id string) {
	f.logger.Debug("persist: "+string(op),
		slog.String("kind", kind.Singular()),
		slog.String("id", id))
	f.reporter.Report(succeeded(op, kind, id))
}
