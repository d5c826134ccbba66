package handler

import (
	"net/http"

	"github.com/cradoe/onboard/internal/flow"
	"github.com/cradoe/onboard/internal/request"

	"github.com/go-chi/chi/v5"
)

func (h *RouteHandler) document(w http.ResponseWriter, r *http.Request) (flow.Document, bool) {
	doc := flow.Document(chi.URLParam(r, "doc"))
	if !doc.Valid() {
		h.ErrHandler.NotFound(w, r)
		return "", false
	}
	return doc, true
}

func (h *RouteHandler) HandleReadingStatus(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}

	status, err := h.Stages.ReadingStatus(h.session(r), doc)
	h.respond(w, r, status, "", err)
}

// HandleViewport receives scroll and resize measurements of a document as
// the client renders it.
func (h *RouteHandler) HandleViewport(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}

	var input flow.Viewport
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	status, err := h.Stages.ObserveViewport(h.session(r), doc, input)
	h.respond(w, r, status, "", err)
}

func (h *RouteHandler) HandleReachedEnd(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}

	status, err := h.Stages.ReachedEnd(h.session(r), doc)
	h.respond(w, r, status, "", err)
}

func (h *RouteHandler) HandleAcknowledge(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}

	var input struct {
		Checked bool `json:"checked"`
	}
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	status, err := h.Stages.Acknowledge(h.session(r), doc, input.Checked)
	h.respond(w, r, status, "", err)
}

func (h *RouteHandler) HandleReadingNext(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}

	s, err := h.Stages.FinishReading(r.Context(), h.session(r), doc)
	h.respondState(w, r, s, "", err)
}
