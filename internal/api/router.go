package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lectern/internal/metrics"
	"github.com/starford/lectern/internal/persist"
	"github.com/starford/lectern/internal/session"
)

// Deps are the collaborators the API is served from.
type Deps struct {
	Facade  *persist.Facade
	Session *session.Session
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events  http.Handler
	Metrics *metrics.Metrics

	AuthEnabled bool
	Token       string
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.Facade, d.Session)

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(d.Metrics))
	r.Use(AuthMiddleware(d.AuthEnabled, d.Token))

	r.Get("/notes", h.ListNotes)
	r.Get("/notes/{id}", h.GetNote)
	r.Delete("/notes/{id}", h.DeleteNote)

	r.Get("/search", h.Search)

	r.Get("/tags", h.ListTags)
	r.Post("/tags", h.CreateTag)

	r.Route("/lectures", func(r chi.Router) {
		r.Get("/", h.ListLectures)
		r.Post("/", h.CreateLecture)
		r.Get("/{id}", h.GetLecture)
		r.Put("/{id}", h.UpdateLecture)
		r.Delete("/{id}", h.DeleteLecture)
		r.Post("/{id}/notes/{noteID}", h.ToggleLectureNote)
	})

	r.Route("/session", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Post("/open", h.OpenSession)
		r.Put("/content", h.EditContent)
		r.Post("/blur", h.Blur)
		r.Post("/tags/{id}", h.ToggleSessionTag)
		r.Post("/links/{id}", h.ToggleSessionLink)
		r.Post("/lecture", h.SetSessionLecture)
		r.Post("/save", h.SaveSession)
		r.Post("/discard", h.DiscardSession)
	})

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
