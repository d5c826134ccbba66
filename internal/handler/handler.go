package handler

import (
	"log/slog"
	"net/http"

	"github.com/cradoe/onboard/internal/config"
	"github.com/cradoe/onboard/internal/context"
	"github.com/cradoe/onboard/internal/device"
	"github.com/cradoe/onboard/internal/errHandler"
	"github.com/cradoe/onboard/internal/flow"
	"github.com/cradoe/onboard/internal/models"
	"github.com/cradoe/onboard/internal/response"
	"github.com/cradoe/onboard/internal/stage"
)

type RouteHandler struct {
	ErrHandler *errHandler.ErrorRepository
	Config     *config.Config
	Devices    *device.Registry
	Stages     *stage.Service
	Logger     *slog.Logger
}

func NewRouteHandler(handler *RouteHandler) *RouteHandler {
	return &RouteHandler{
		ErrHandler: handler.ErrHandler,
		Config:     handler.Config,
		Devices:    handler.Devices,
		Stages:     handler.Stages,
		Logger:     handler.Logger,
	}
}

// session returns the onboarding session of the device the request token
// names. Routes using it sit behind RequireDevice.
func (h *RouteHandler) session(r *http.Request) *stage.Session {
	return h.Devices.Session(r.Context(), context.ContextGetDevice(r))
}

// Onboarding is the shape every state-changing route answers with: the
// record plus what the progress rail shows for it.
type Onboarding struct {
	State    models.OnboardingState `json:"state"`
	Active   models.Step            `json:"active"`
	Rail     []flow.RailStep        `json:"rail"`
	SubSteps []flow.SubStep         `json:"subSteps,omitempty"`
}

func onboardingView(s models.OnboardingState) Onboarding {
	view := Onboarding{
		State:  s,
		Active: s.CurrentStep,
		Rail:   flow.Rail(s),
	}
	if s.CurrentStep == models.StepKYC {
		view.SubSteps = flow.SubSteps(s)
	}

	// the stored password never leaves the server
	view.State.UserData.Password = ""
	return view
}

// respond writes data on success and maps err through the error handler
// otherwise.
func (h *RouteHandler) respond(w http.ResponseWriter, r *http.Request, data any, message string, err error) {
	if err != nil {
		h.ErrHandler.Handle(w, r, err)
		return
	}

	if err := response.JSONOkResponse(w, data, message, nil); err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) respondState(w http.ResponseWriter, r *http.Request, s models.OnboardingState, message string, err error) {
	if err != nil {
		h.ErrHandler.Handle(w, r, err)
		return
	}
	h.respond(w, r, onboardingView(s), message, nil)
}

func (h *RouteHandler) HandleOnboarding(w http.ResponseWriter, r *http.Request) {
	h.respondState(w, r, h.session(r).Flow.State(), "", nil)
}
