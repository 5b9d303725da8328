package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lectern/internal/models"
	"github.com/starford/lectern/internal/persist"
	"github.com/starford/lectern/internal/search"
	"github.com/starford/lectern/internal/session"
)

// Handler holds API route handlers.
type Handler struct {
	facade  *persist.Facade
	session *session.Session
}

// NewHandler creates a new Handler.
func NewHandler(f *persist.Facade, s *session.Session) *Handler {
	return &Handler{facade: f, session: s}
}

// confirmed reads the confirm query flag. Destructive endpoints pass the
// result to the façade, which refuses without it.
func confirmed(r *http.Request) persist.ConfirmFunc {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if !ok {
		return nil
	}
	return persist.Confirmed
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, most recently updated first
//	@Tags			notes
//	@Produce		json
//	@Param			tag		query		string	false	"Filter by tag id"
//	@Success		200		{array}		NoteSummary
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	view := h.facade.View()
	notes := view.Notes()
	if tag := r.URL.Query().Get("tag"); tag != "" {
		notes = view.NotesTagged(tag)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notes": summarize(notes),
		"total": len(notes),
	})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a note with tags, links and backlinks resolved
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	view := h.facade.View()
	n, ok := view.Note(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	detail := NoteDetail{
		Note:      n,
		Tags:      view.TagsOf(n),
		Links:     summarize(view.LinkedNotes(n)),
		Backlinks: summarize(view.Backlinks(n.ID)),
	}
	if l, ok := view.Lecture(n.LectureID); ok {
		detail.Lecture = &l
	}
	writeJSON(w, http.StatusOK, detail)
}

// DeleteNote handles DELETE /api/notes/{id}?confirm=true.
//
//	@Summary		Delete a note (links to it are kept)
//	@Tags			notes
//	@Param			id		path	string	true	"Note id"
//	@Param			confirm	query	bool	true	"Must be true"
//	@Success		204		"Note deleted"
//	@Failure		404		{object}	errResponse
//	@Failure		428		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.facade.DeleteNote(r.Context(), id, confirmed(r)); err != nil {
		writeError(w, err)
		return
	}
	if h.session.Note().ID == id {
		h.session.Discard()
		h.session.Switch(r.Context(), session.Template(""))
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Find notes to link from the note being edited
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Success		200	{array}		SearchResult
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	cur := h.session.Note()
	cands := search.Candidates(h.facade.View().Notes(), q, cur.NoteLinkIDs, cur.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"results": searchResults(cands),
	})
}

// ListTags handles GET /api/tags.
func (h *Handler) ListTags(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.facade.View().Tags())
}

// CreateTag handles POST /api/tags.
//
//	@Summary		Create a tag
//	@Tags			tags
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TagRequest	true	"Tag"
//	@Success		201		{object}	models.Tag
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tags [post]
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if !readJSON(w, r, &req) {
		return
	}
	tag, err := h.facade.CreateTag(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

// ListLectures handles GET /api/lectures.
func (h *Handler) ListLectures(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.facade.View().Lectures())
}

// GetLecture handles GET /api/lectures/{id}.
func (h *Handler) GetLecture(w http.ResponseWriter, r *http.Request) {
	view := h.facade.View()
	l, ok := view.Lecture(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, LectureDetail{Lecture: l, Notes: summarize(view.LectureNotes(l))})
}

// CreateLecture handles POST /api/lectures.
//
//	@Summary		Create a lecture
//	@Tags			lectures
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LectureRequest	true	"Lecture"
//	@Success		201		{object}	models.Lecture
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/lectures [post]
func (h *Handler) CreateLecture(w http.ResponseWriter, r *http.Request) {
	var req LectureRequest
	if !readJSON(w, r, &req) {
		return
	}
	l, err := h.facade.CommitLecture(r.Context(), models.Lecture{
		Title:    req.Title,
		Language: req.Language,
		NoteIDs:  req.NoteIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// UpdateLecture handles PUT /api/lectures/{id}.
func (h *Handler) UpdateLecture(w http.ResponseWriter, r *http.Request) {
	cur, ok := h.facade.View().Lecture(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	var req LectureRequest
	if !readJSON(w, r, &req) {
		return
	}
	cur.Title = req.Title
	if req.Language != "" {
		cur.Language = req.Language
	}
	if req.NoteIDs != nil {
		cur.NoteIDs = req.NoteIDs
	}
	l, err := h.facade.CommitLecture(r.Context(), cur)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// DeleteLecture handles DELETE /api/lectures/{id}?confirm=true.
func (h *Handler) DeleteLecture(w http.ResponseWriter, r *http.Request) {
	if err := h.facade.DeleteLecture(r.Context(), chi.URLParam(r, "id"), confirmed(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleLectureNote handles POST /api/lectures/{id}/notes/{noteID}.
func (h *Handler) ToggleLectureNote(w http.ResponseWriter, r *http.Request) {
	l, err := h.facade.ToggleLectureNote(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "noteID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}
