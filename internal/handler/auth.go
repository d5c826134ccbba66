package handler

import (
	"net/http"

	"github.com/cradoe/onboard/internal/draft"
	"github.com/cradoe/onboard/internal/otp"
	"github.com/cradoe/onboard/internal/request"
	"github.com/cradoe/onboard/internal/stage"

	"github.com/go-chi/chi/v5"
)

func (h *RouteHandler) HandleSignupDraft(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.Stages.SignupStatus(r.Context(), h.session(r)), "", nil)
}

// HandleSignupDraftPatch records form edits as they are typed.
func (h *RouteHandler) HandleSignupDraftPatch(w http.ResponseWriter, r *http.Request) {
	var patch draft.Patch
	if err := request.DecodeJSON(w, r, &patch); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	sess := h.session(r)
	if _, err := h.Stages.EditSignup(r.Context(), sess, patch); err != nil {
		h.ErrHandler.Handle(w, r, err)
		return
	}

	h.respond(w, r, h.Stages.SignupStatus(r.Context(), sess), "Draft saved", nil)
}

func (h *RouteHandler) HandleOTPSend(w http.ResponseWriter, r *http.Request) {
	ch := otp.Channel(chi.URLParam(r, "channel"))
	if !ch.Valid() {
		h.ErrHandler.NotFound(w, r)
		return
	}

	sess := h.session(r)
	if err := h.Stages.SendOTP(r.Context(), sess, ch); err != nil {
		h.ErrHandler.Handle(w, r, err)
		return
	}

	h.respond(w, r, h.Stages.SignupStatus(r.Context(), sess), "OTP sent", nil)
}

func (h *RouteHandler) HandleOTPVerify(w http.ResponseWriter, r *http.Request) {
	ch := otp.Channel(chi.URLParam(r, "channel"))
	if !ch.Valid() {
		h.ErrHandler.NotFound(w, r)
		return
	}

	var input struct {
		Code string `json:"code"`
	}
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	status, err := h.Stages.VerifyOTP(r.Context(), h.session(r), ch, input.Code)
	h.respond(w, r, status, "Verified", err)
}

// HandleSignup commits the signup draft, merged with any fields sent in the
// body, into a new onboarding record.
func (h *RouteHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var patch draft.Patch
	if r.ContentLength != 0 {
		if err := request.DecodeJSON(w, r, &patch); err != nil {
			h.ErrHandler.BadRequest(w, r, err)
			return
		}
	}

	s, err := h.Stages.Signup(r.Context(), h.session(r), patch)
	h.respondState(w, r, s, "Account created successfully", err)
}

func (h *RouteHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var input stage.LoginInput
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	s, err := h.Stages.Login(r.Context(), h.session(r), input)
	h.respondState(w, r, s, "Login successful", err)
}

func (h *RouteHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	s := h.Stages.Logout(r.Context(), h.session(r))
	h.respondState(w, r, s, "Logged out", nil)
}
