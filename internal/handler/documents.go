package handler

import (
	"errors"
	"net/http"

	"github.com/cradoe/onboard/internal/stage"

	"github.com/go-chi/chi/v5"
)

// multipartOverhead leaves room for the form boundaries around a file of
// the largest accepted size.
const multipartOverhead = 1 << 20

func (h *RouteHandler) HandleDocuments(w http.ResponseWriter, r *http.Request) {
	view, err := h.Stages.Documents(h.session(r))
	h.respond(w, r, view, "", err)
}

func (h *RouteHandler) HandleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, stage.MaxDocumentSize+multipartOverhead)

	err := r.ParseMultipartForm(stage.MaxDocumentSize)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, errors.New("invalid request data"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.ErrHandler.BadRequest(w, r, errors.New("error retrieving the file"))
		return
	}
	defer file.Close()

	s, err := h.Stages.UploadDocument(r.Context(), h.session(r), stage.Upload{
		Slot:        chi.URLParam(r, "id"),
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	})
	h.respondState(w, r, s, "File uploaded successfully", err)
}

func (h *RouteHandler) HandleDocumentsNext(w http.ResponseWriter, r *http.Request) {
	s, err := h.Stages.FinishDocuments(r.Context(), h.session(r))
	h.respondState(w, r, s, "", err)
}
