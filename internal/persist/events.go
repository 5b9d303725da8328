package persist

import (
	"errors"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/models"
)

// Event reports the outcome of one store operation issued by the façade.
// Type is "<kind>.<outcome>", e.g. "note.created" or "lecture.update_failed".
type Event struct {
	Type  string `json:"type"`
	Kind  string `json:"kind"`
	ID    string `json:"id,omitempty"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// Failed reports whether the event describes a failed operation.
func (e Event) Failed() bool { return e.Code != "" }

// Reporter receives façade events. Implementations must not block.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) { f(e) }

type discard struct{}

func (discard) Report(Event) {}

func succeeded(op apperr.Op, kind models.Kind, id string) Event {
	return Event{
		Type: kind.Singular() + "." + string(op) + "d",
		Kind: kind.Singular(),
		ID:   id,
	}
}

func failed(e *apperr.OpError) Event {
	ev := Event{
		Type: e.Kind + "." + string(e.Op) + "_failed",
		Kind: e.Kind,
		ID:   e.ID,
		Code: e.Code(),
	}
	if e.Err != nil {
		ev.Error = e.Err.Error()
	}
	return ev
}

// AsOpError extracts the typed store failure from err, if any.
func AsOpError(err error) (*apperr.OpError, bool) {
	var oe *apperr.OpError
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}
