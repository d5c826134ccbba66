package handler

import (
	"encoding/json"
	"net/http"

	"github.com/cradoe/onboard/internal/models"
	"github.com/cradoe/onboard/internal/request"

	"github.com/go-chi/chi/v5"
)

func (h *RouteHandler) HandleRiskQuestions(w http.ResponseWriter, r *http.Request) {
	view, err := h.Stages.Risk(h.session(r))
	h.respond(w, r, view, "", err)
}

// HandleRiskAnswer takes {"answer": 2} for single-choice questions,
// {"answer": ["Retirement"]} for checkboxes and {"answer": null} to clear.
func (h *RouteHandler) HandleRiskAnswer(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Answer json.RawMessage `json:"answer"`
	}
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	var answer models.RiskAnswer
	if len(input.Answer) > 0 {
		if err := json.Unmarshal(input.Answer, &answer); err != nil {
			h.ErrHandler.BadRequest(w, r, err)
			return
		}
	}

	view, err := h.Stages.AnswerRisk(r.Context(), h.session(r), chi.URLParam(r, "id"), answer)
	h.respond(w, r, view, "Answer saved", err)
}

func (h *RouteHandler) HandleRiskNext(w http.ResponseWriter, r *http.Request) {
	s, err := h.Stages.FinishRisk(r.Context(), h.session(r))
	h.respondState(w, r, s, "", err)
}
