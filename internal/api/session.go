package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lectern/internal/session"
)

// GetSession handles GET /api/session.
//
//	@Summary		Current edit session
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Security		BearerAuth
//	@Router			/session [get]
func (h *Handler) GetSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, sessionResponse(h.session))
}

// OpenSession handles POST /api/session/open. Unsaved changes to the
// outgoing note are committed in the background; the response does not
// wait for them.
//
//	@Summary		Load a note (or a new empty one) into the session
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenSessionRequest	true	"Target"
//	@Success		200		{object}	SessionResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/session/open [post]
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if !readJSON(w, r, &req) {
		return
	}
	view := h.facade.View()
	next := session.Template(req.LectureID)
	if req.ID != "" {
		n, ok := view.Note(req.ID)
		if !ok {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		next = n
	} else if req.LectureID != "" {
		if _, ok := view.Lecture(req.LectureID); !ok {
			writeJSON(w, http.StatusNotFound, errorBody("lecture not found"))
			return
		}
	}
	h.session.Switch(r.Context(), next)
	writeJSON(w, http.StatusOK, sessionResponse(h.session))
}

// EditContent handles PUT /api/session/content.
func (h *Handler) EditContent(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Content == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}
	h.session.Edit(req.Content)
	writeJSON(w, http.StatusOK, sessionResponse(h.session))
}

// Blur handles POST /api/session/blur: the editor lost focus with the
// given content, which is applied and committed.
func (h *Handler) Blur(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Content == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}
	if err := h.session.Blur(r.Context(), req.Content); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(h.session))
}

// ToggleSessionTag handles POST /api/session/tags/{id}.
func (h *Handler) ToggleSessionTag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.facade.View().Tag(id); !ok {
		writeJSON(w, http.StatusNotFound, errorBody("tag not found"))
		return
	}
	h.session.ToggleTag(id)
	writeJSON(w, http.StatusOK, sessionResponse(h.session))
}

// ToggleSessionLink handles POST /api/session/links/{id}.
func (h *Handler) ToggleSessionLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.facade.View().Note(id); !ok {
		writeJSON(w, http.StatusNotFound, errorBody("note not found"))
		return
	}
	h.session.ToggleLink(id)
	writeJSON(w, http.StatusOK, sessionResponse(h.session))
}

// SetSessionLecture handles POST /api/session/lecture.
func (h *Handler) SetSessionLecture(w http.ResponseWriter, r *http.Request) {
	var req LectureRef
	if !readJSON(w, r, &req) {
		return
	}
	if req.LectureID != "" {
		if _, ok := h.facade.View().Lecture(req.LectureID); !ok {
			writeJSON(w, http.StatusNotFound, errorBody("lecture not found"))
			return
		}
	}
	h.session.SetLecture(req.LectureID)
	writeJSON(w, http.StatusOK, sessionResponse(h.session))
}

// SaveSession handles POST /api/session/save.
//
//	@Summary		Commit the session note
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Failure		502	{object}	errResponse	"Store failure; the session stays dirty"
//	@Security		BearerAuth
//	@Router			/session/save [post]
func (h *Handler) SaveSession(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Save(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(h.session))
}

// DiscardSession handles POST /api/session/discard.
func (h *Handler) DiscardSession(w http.ResponseWriter, _ *http.Request) {
	h.session.Discard()
	writeJSON(w, http.StatusOK, sessionResponse(h.session))
}
