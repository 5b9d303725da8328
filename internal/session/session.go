// Package session implements the note edit session: a single working copy
// of the note being edited, its dirty tracking and the commit protocol that
// runs on explicit save, on blur and when switching to another note.
//
// The session is optimistic: edits are applied immediately and never wait
// for the store. Its lock is never held across a store call.
package session

import (
	"context"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/starford/lectern/internal/metrics"
	"github.com/starford/lectern/internal/models"
	"github.com/starford/lectern/internal/richtext"
)

// State of the working copy relative to the last persisted version.
type State int

const (
	Clean State = iota
	Dirty
	Saving
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case Saving:
		return "saving"
	}
	return "unknown"
}

// Commit triggers, used for metrics and logs.
const (
	TriggerSave   = "save"
	TriggerBlur   = "blur"
	TriggerSwitch = "switch"
)

// Widget is the rich-text editor the session drives.
type Widget interface {
	// SetContent replaces the editor's document.
	SetContent(doc *richtext.Node)
}

// Committer persists a note and returns it as stored (with its identifier).
type Committer interface {
	CommitNote(ctx context.Context, n models.Note) (models.Note, error)
}

type nopWidget struct{}

func (nopWidget) SetContent(*richtext.Node) {}

// flight is one in-progress commit.
type flight struct {
	done  chan struct{}
	saved models.Note
	err   error
}

// Session is safe for concurrent use.
type Session struct {
	committer Committer
	widget    Widget
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	userID    string

	mu        sync.Mutex
	note      models.Note // working copy
	snapshot  models.Note // last persisted version, or the template
	state     State
	gen       uint64 // bumped by every mutation
	savingGen uint64 // gen captured by the in-flight commit
	epoch     uint64 // bumped when another note is loaded
	inflight  *flight

	wg sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

func WithWidget(w Widget) Option {
	return func(s *Session) { s.widget = w }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithClock overrides time.Now for Created/Updated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithUserID sets the owner stamped on notes created by this session.
func WithUserID(id string) Option {
	return func(s *Session) { s.userID = id }
}

// Template returns an empty, never-persisted note, optionally pending
// membership in a lecture.
func Template(lectureID string) models.Note {
	return models.Note{
		Content:     richtext.Empty(),
		TagIDs:      []string{},
		NoteLinkIDs: []string{},
		LectureID:   lectureID,
	}
}

// New starts a Clean session on initial and loads it into the widget.
func New(c Committer, initial models.Note, opts ...Option) *Session {
	s := &Session{
		committer: c,
		widget:    nopWidget{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	initial = normalize(initial)
	s.note = initial.Clone()
	s.snapshot = initial.Clone()
	s.widget.SetContent(initial.Content.Clone())
	return s
}

func normalize(n models.Note) models.Note {
	n = n.Clone()
	if n.Content == nil {
		n.Content = richtext.Empty()
	}
	return n
}

// Note returns a copy of the working note.
func (s *Session) Note() models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.note.Clone()
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) mutate(fn func(n *models.Note)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.note)
	s.gen++
	if s.state == Clean {
		s.state = Dirty
	}
}

// Edit records new editor content.
func (s *Session) Edit(doc *richtext.Node) {
	c := doc.Clone()
	if c == nil {
		c = richtext.Empty()
	}
	s.mutate(func(n *models.Note) { n.Content = c })
}

// ToggleTag adds or removes a tag from the working note.
func (s *Session) ToggleTag(id string) {
	s.mutate(func(n *models.Note) { *n = n.WithToggledLink(models.LinkTags, id) })
}

// ToggleLink adds or removes a linked note.
func (s *Session) ToggleLink(id string) {
	s.mutate(func(n *models.Note) { *n = n.WithToggledLink(models.LinkNotes, id) })
}

// SetLecture sets the lecture the note belongs to.
func (s *Session) SetLecture(id string) {
	s.mutate(func(n *models.Note) { n.LectureID = id })
}

// Save commits the working note if it is Dirty.
func (s *Session) Save(ctx context.Context) error {
	return s.commit(ctx, TriggerSave)
}

// Blur records the editor's final content and commits. Content equal to
// the working copy does not count as a mutation.
func (s *Session) Blur(ctx context.Context, doc *richtext.Node) error {
	if doc != nil {
		s.mu.Lock()
		same := reflect.DeepEqual(doc, s.note.Content)
		s.mu.Unlock()
		if !same {
			s.Edit(doc)
		}
	}
	return s.commit(ctx, TriggerBlur)
}

func (s *Session) commit(ctx context.Context, trigger string) error {
	s.mu.Lock()
	if s.state != Dirty {
		s.mu.Unlock()
		s.metrics.SessionCommit(trigger, metrics.ResultSkipped)
		return nil
	}
	out, ok := s.prepare(s.note)
	if !ok {
		s.mu.Unlock()
		s.metrics.SessionCommit(trigger, metrics.ResultSkipped)
		return nil
	}
	f := &flight{done: make(chan struct{})}
	s.inflight = f
	s.state = Saving
	s.savingGen = s.gen
	epoch := s.epoch
	s.mu.Unlock()

	saved, err := s.committer.CommitNote(ctx, out)

	s.mu.Lock()
	f.saved, f.err = saved, err
	close(f.done)
	if s.inflight == f {
		s.inflight = nil
	}
	if epoch != s.epoch {
		// Another note was loaded meanwhile; the outcome belongs to the old one.
		s.mu.Unlock()
		s.record(trigger, saved.ID, err)
		return err
	}
	if err != nil {
		s.state = Dirty
		s.mu.Unlock()
		s.record(trigger, out.ID, err)
		return err
	}
	s.snapshot = saved.Clone()
	if s.gen == s.savingGen {
		s.note = saved.Clone()
		s.state = Clean
	} else {
		s.note.ID = saved.ID
		s.note.Created = saved.Created
		s.note.Updated = saved.Updated
		s.note.UserID = saved.UserID
		s.state = Dirty
	}
	s.mu.Unlock()
	s.record(trigger, saved.ID, nil)
	return nil
}

// prepare derives the stored fields of n. It reports false when the note
// has no text, in which case nothing must be written.
func (s *Session) prepare(n models.Note) (models.Note, bool) {
	plain := n.Content.PlainText()
	if strings.TrimSpace(plain) == "" {
		return n, false
	}
	out := n.Clone()
	now := s.now()
	out.TextContent = plain
	out.Title = richtext.Title(plain)
	out.Updated = now
	if !out.Persisted() {
		out.Created = now
		out.UserID = s.userID
	}
	return out, true
}

func (s *Session) record(trigger, id string, err error) {
	if err != nil {
		s.metrics.SessionCommit(trigger, metrics.ResultFailed)
		s.logger.Warn("session: commit failed",
			slog.String("trigger", trigger),
			slog.String("id", id),
			slog.String("error", err.Error()))
		return
	}
	s.metrics.SessionCommit(trigger, metrics.ResultOK)
	s.logger.Debug("session: committed", slog.String("trigger", trigger), slog.String("id", id))
}

// Discard drops unsaved changes, restoring the last persisted version (or
// the template) and reloading the widget. It reports whether anything was
// discarded; it does nothing unless the session is Dirty.
func (s *Session) Discard() bool {
	s.mu.Lock()
	if s.state != Dirty {
		s.mu.Unlock()
		return false
	}
	s.note = s.snapshot.Clone()
	s.state = Clean
	s.gen++
	content := s.note.Content.Clone()
	s.mu.Unlock()

	s.widget.SetContent(content)
	return true
}

// Switch loads next into the session. Unsaved changes to the outgoing note
// are committed exactly once in the background; the caller never waits for
// that commit and its failure is only reported. Switching to the note
// already loaded does nothing.
func (s *Session) Switch(ctx context.Context, next models.Note) {
	next = normalize(next)

	s.mu.Lock()
	if next.ID != "" && next.ID == s.note.ID {
		s.mu.Unlock()
		return
	}
	outgoing := s.note.Clone()
	pending := s.state == Dirty || (s.state == Saving && s.gen != s.savingGen)
	prior := s.inflight

	s.epoch++
	s.note = next.Clone()
	s.snapshot = next.Clone()
	s.state = Clean
	s.inflight = nil
	s.mu.Unlock()

	if pending {
		if prepared, ok := s.prepare(outgoing); ok {
			s.wg.Add(1)
			go s.autoCommit(context.WithoutCancel(ctx), prepared, prior)
		}
	}
	s.widget.SetContent(next.Content.Clone())
}

// autoCommit persists an outgoing note. When a commit of the same note is
// still in flight it waits for it so a first save is never issued twice.
func (s *Session) autoCommit(ctx context.Context, n models.Note, prior *flight) {
	defer s.wg.Done()
	if prior != nil {
		<-prior.done
		if prior.err == nil && !n.Persisted() {
			n.ID = prior.saved.ID
			n.Created = prior.saved.Created
			n.UserID = prior.saved.UserID
		}
	}
	saved, err := s.committer.CommitNote(ctx, n)
	if err != nil {
		s.record(TriggerSwitch, n.ID, err)
		return
	}
	s.record(TriggerSwitch, saved.ID, nil)
}

// Wait blocks until background commits started by Switch have finished.
func (s *Session) Wait() {
	s.wg.Wait()
}
