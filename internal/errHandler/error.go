package errHandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/cradoe/onboard/internal/flow"
	"github.com/cradoe/onboard/internal/helper"
	"github.com/cradoe/onboard/internal/response"
	"github.com/cradoe/onboard/internal/smtp"
)

type ErrorRepository struct {
	notificationEmail string
	logger            *slog.Logger
	help              *helper.HelperRepository
	mailer            smtp.MailerInterface
}

func New(notificationEmail string, mailer smtp.MailerInterface, logger *slog.Logger, help *helper.HelperRepository) *ErrorRepository {
	return &ErrorRepository{
		notificationEmail: notificationEmail,
		logger:            logger,
		help:              help,
		mailer:            mailer,
	}
}

func (e *ErrorRepository) ReportServerError(r *http.Request, err error) {
	var (
		message = err.Error()
		method  = r.Method
		url     = r.URL.String()
		trace   = string(debug.Stack())
	)

	requestAttrs := slog.Group("request", "method", method, "url", url)
	e.logger.Error(message, requestAttrs, "trace", trace)

	// server errors are not mailed unless NOTIFICATIONS_EMAIL is set
	if e.notificationEmail == "" || e.mailer == nil {
		return
	}

	data := e.help.NewEmailData()
	data["Message"] = message
	data["RequestMethod"] = method
	data["RequestURL"] = url
	data["Trace"] = trace

	e.help.BackgroundTask(func() error {
		return e.mailer.Send(context.Background(), e.notificationEmail, data, "error-notification.tmpl")
	})
}

type Error struct {
	w       http.ResponseWriter
	r       *http.Request
	errors  any
	status  int
	message string
	headers http.Header
}

func (e *ErrorRepository) ErrorMessage(d *Error) {
	if d.message != "" {
		d.message = strings.ToUpper(d.message[:1]) + d.message[1:]
	}

	err := response.JSONErrorResponse(d.w, d.errors, d.message, d.status, d.headers)
	if err != nil {
		e.ReportServerError(d.r, err)
		d.w.WriteHeader(http.StatusInternalServerError)
	}
}

// Handle writes the response for an error returned by a stage operation.
// Domain errors map onto client statuses; anything else is a server error.
func (e *ErrorRepository) Handle(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *flow.ValidationError
		conflictErr   *flow.IdentityConflictError
		authErr       *flow.AuthenticationError
		transitionErr *flow.TransitionError
		stageErr      *flow.StageError
	)

	switch {
	case errors.As(err, &validationErr):
		e.FailedValidation(w, r, validationErr.Fields)

	case errors.As(err, &conflictErr):
		e.ErrorMessage(&Error{
			w:       w,
			r:       r,
			status:  http.StatusConflict,
			message: "Account already exists",
			errors:  conflictErr.Fields,
		})

	case errors.As(err, &authErr):
		e.ErrorMessage(&Error{
			w:       w,
			r:       r,
			status:  http.StatusUnauthorized,
			message: authErr.Message,
			errors:  map[string]string{authErr.Field: authErr.Message},
		})

	case errors.As(err, &transitionErr):
		e.ErrorMessage(&Error{
			w:       w,
			r:       r,
			status:  http.StatusConflict,
			message: transitionErr.Error(),
			errors:  map[string]string{"from": string(transitionErr.From), "to": string(transitionErr.To)},
		})

	case errors.As(err, &stageErr):
		e.ErrorMessage(&Error{
			w:       w,
			r:       r,
			status:  http.StatusConflict,
			message: stageErr.Error(),
			errors:  map[string]string{"expected": string(stageErr.Expected), "current": string(stageErr.Current)},
		})

	case errors.Is(err, flow.ErrNoSession):
		e.AuthenticationRequired(w, r)

	default:
		e.ServerError(w, r, err)
	}
}

func (e *ErrorRepository) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	e.ReportServerError(r, err)

	message := "The server encountered a problem and could not process your request"
	e.ErrorMessage(&Error{
		w:       w,
		r:       r,
		status:  http.StatusInternalServerError,
		message: message,
	})
}

func (e *ErrorRepository) NotFound(w http.ResponseWriter, r *http.Request) {
	message := "The requested resource could not be found"
	e.ErrorMessage(&Error{
		w:       w,
		r:       r,
		status:  http.StatusNotFound,
		message: message,
	})
}

func (e *ErrorRepository) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("The %s method is not supported for this resource", r.Method)
	e.ErrorMessage(&Error{
		w:       w,
		r:       r,
		status:  http.StatusMethodNotAllowed,
		message: message,
	})
}

func (e *ErrorRepository) BadRequest(w http.ResponseWriter, r *http.Request, err error) {
	e.ErrorMessage(&Error{
		w:       w,
		r:       r,
		status:  http.StatusBadRequest,
		message: err.Error(),
	})
}

func (e *ErrorRepository) FailedValidation(w http.ResponseWriter, r *http.Request, v any) {
	message := "Validation failed"

	e.ErrorMessage(&Error{
		w:       w,
		r:       r,
		status:  http.StatusUnprocessableEntity,
		message: message,
		errors:  v,
	})
}

func (e *ErrorRepository) InvalidAuthenticationToken(w http.ResponseWriter, r *http.Request) {
	headers := make(http.Header)
	headers.Set("WWW-Authenticate", "Bearer")

	e.ErrorMessage(&Error{
		w:       w,
		r:       r,
		status:  http.StatusUnauthorized,
		message: "Invalid authentication token",
		headers: headers,
	})
}

func (e *ErrorRepository) AuthenticationRequired(w http.ResponseWriter, r *http.Request) {
	headers := make(http.Header)
	headers.Set("WWW-Authenticate", "Bearer")

	message := "A device token is required to access this resource"
	e.ErrorMessage(&Error{
		w:       w,
		r:       r,
		status:  http.StatusUnauthorized,
		message: message,
		headers: headers,
	})
}
