package handler

import (
	"net/http"

	"github.com/cradoe/onboard/internal/request"
	"github.com/cradoe/onboard/internal/stage"
)

func (h *RouteHandler) HandlePlans(w http.ResponseWriter, r *http.Request) {
	view, err := h.Stages.Plans(h.session(r))
	h.respond(w, r, view, "", err)
}

func (h *RouteHandler) HandleSelectPlan(w http.ResponseWriter, r *http.Request) {
	var input stage.PlanChoice
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	s, err := h.Stages.SelectPlan(r.Context(), h.session(r), input)
	h.respondState(w, r, s, "Plan selected", err)
}

func (h *RouteHandler) HandlePlansNext(w http.ResponseWriter, r *http.Request) {
	s, err := h.Stages.FinishPlans(r.Context(), h.session(r))
	h.respondState(w, r, s, "", err)
}

func (h *RouteHandler) HandleInvoice(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.Stages.Invoice(h.session(r))
	h.respond(w, r, invoice, "", err)
}

func (h *RouteHandler) HandlePay(w http.ResponseWriter, r *http.Request) {
	s, err := h.Stages.Pay(r.Context(), h.session(r))
	h.respondState(w, r, s, "Payment received", err)
}
