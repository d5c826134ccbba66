package app

import (
	"net/http"

	"github.com/cradoe/onboard/internal/handler"
	"github.com/cradoe/onboard/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *Application) routes() http.Handler {
	mux := chi.NewRouter()

	mid := middleware.New(app.errorHandler, app.Logger, &app.Config)
	h := handler.NewRouteHandler(&handler.RouteHandler{
		ErrHandler: app.errorHandler,
		Config:     &app.Config,
		Devices:    app.Devices,
		Stages:     app.Stages,
		Logger:     app.Logger,
	})

	mux.Use(mid.LogAccess)
	mux.Use(mid.RecoverPanic)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.Config.Cors.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	mux.Use(mid.Authenticate)

	mux.NotFound(app.errorHandler.NotFound)
	mux.MethodNotAllowed(app.errorHandler.MethodNotAllowed)

	mux.Handle("/metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}))

	mux.Route("/v1", func(r chi.Router) {
		r.Get("/status", h.HandleHealthCheck)
		r.Post("/devices", h.HandleDeviceRegister)

		r.Group(func(r chi.Router) {
			r.Use(mid.RequireDevice)

			r.Get("/onboarding", h.HandleOnboarding)

			r.Get("/signup/draft", h.HandleSignupDraft)
			r.Patch("/signup/draft", h.HandleSignupDraftPatch)
			r.Post("/signup/otp/{channel}/send", h.HandleOTPSend)
			r.Post("/signup/otp/{channel}/verify", h.HandleOTPVerify)
			r.Post("/signup", h.HandleSignup)
			r.Post("/login", h.HandleLogin)
			r.Post("/logout", h.HandleLogout)

			r.Get("/kyc", h.HandleKYCForms)
			r.Put("/kyc/name", h.HandleKYCName)
			r.Post("/kyc/personal", h.HandleKYCPersonal)
			r.Post("/kyc/address", h.HandleKYCAddress)
			r.Post("/kyc/professional", h.HandleKYCProfessional)
			r.Get("/kyc/review", h.HandleKYCReview)
			r.Post("/kyc/confirm", h.HandleKYCConfirm)
			r.Post("/kyc/steps/{n}", h.HandleKYCStep)

			r.Get("/risk/questions", h.HandleRiskQuestions)
			r.Put("/risk/answers/{id}", h.HandleRiskAnswer)
			r.Post("/risk/next", h.HandleRiskNext)

			r.Get("/documents", h.HandleDocuments)
			r.Put("/documents/{id}", h.HandleUploadDocument)
			r.Post("/documents/next", h.HandleDocumentsNext)

			r.Get("/plans", h.HandlePlans)
			r.Post("/plans/select", h.HandleSelectPlan)
			r.Post("/plans/next", h.HandlePlansNext)

			r.Get("/payment/invoice", h.HandleInvoice)
			r.Post("/payment", h.HandlePay)

			r.Get("/{doc}", h.HandleReadingStatus)
			r.Post("/{doc}/viewport", h.HandleViewport)
			r.Post("/{doc}/end", h.HandleReachedEnd)
			r.Post("/{doc}/ack", h.HandleAcknowledge)
			r.Post("/{doc}/next", h.HandleReadingNext)
		})
	})

	return mux
}
