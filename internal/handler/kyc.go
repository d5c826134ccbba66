package handler

import (
	"net/http"
	"strconv"

	"github.com/cradoe/onboard/internal/request"
	"github.com/cradoe/onboard/internal/stage"

	"github.com/go-chi/chi/v5"
)

func (h *RouteHandler) HandleKYCForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.Stages.KYCForms(h.session(r))
	h.respond(w, r, forms, "", err)
}

// HandleKYCName receives the name as per PAN while it is typed. The display
// name follows after a short quiet period.
func (h *RouteHandler) HandleKYCName(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	err := h.Stages.SyncName(r.Context(), h.session(r), input.Name)
	h.respond(w, r, nil, "Name received", err)
}

func (h *RouteHandler) HandleKYCPersonal(w http.ResponseWriter, r *http.Request) {
	var input stage.PersonalInput
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	s, err := h.Stages.SavePersonal(r.Context(), h.session(r), input)
	h.respondState(w, r, s, "Personal details saved", err)
}

func (h *RouteHandler) HandleKYCAddress(w http.ResponseWriter, r *http.Request) {
	var input stage.AddressInput
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	s, err := h.Stages.SaveAddress(r.Context(), h.session(r), input)
	h.respondState(w, r, s, "Address saved", err)
}

func (h *RouteHandler) HandleKYCProfessional(w http.ResponseWriter, r *http.Request) {
	var input stage.ProfessionalInput
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	s, err := h.Stages.SaveProfessional(r.Context(), h.session(r), input)
	h.respondState(w, r, s, "Professional details saved", err)
}

func (h *RouteHandler) HandleKYCReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.Stages.Review(h.session(r))
	h.respond(w, r, review, "", err)
}

func (h *RouteHandler) HandleKYCConfirm(w http.ResponseWriter, r *http.Request) {
	s, err := h.Stages.ConfirmReview(r.Context(), h.session(r))
	h.respondState(w, r, s, "KYC completed", err)
}

func (h *RouteHandler) HandleKYCStep(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		h.ErrHandler.NotFound(w, r)
		return
	}

	s, err := h.Stages.GoToSubStep(r.Context(), h.session(r), n)
	h.respondState(w, r, s, "", err)
}
