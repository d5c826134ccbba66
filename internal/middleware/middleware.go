package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cradoe/onboard/internal/config"
	"github.com/cradoe/onboard/internal/context"
	"github.com/cradoe/onboard/internal/errHandler"
	"github.com/cradoe/onboard/internal/response"

	"github.com/google/uuid"
	"github.com/pascaldekloe/jwt"
	"github.com/tomasen/realip"
)

type Middleware struct {
	errHandler *errHandler.ErrorRepository
	logger     *slog.Logger
	config     *config.Config
}

func New(errHandler *errHandler.ErrorRepository, logger *slog.Logger, config *config.Config) *Middleware {
	return &Middleware{
		errHandler: errHandler,
		logger:     logger,
		config:     config,
	}
}

func (mid *Middleware) RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err != nil {
				mid.errHandler.ServerError(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (mid *Middleware) LogAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		mw := response.NewMetricsResponseWriter(w)
		next.ServeHTTP(mw, r)

		var (
			ip     = realip.FromRequest(r)
			method = r.Method
			url    = r.URL.String()
			proto  = r.Proto
		)

		deviceAttrs := slog.Group("device", "ip", ip, "id", context.ContextGetDevice(r))
		requestAttrs := slog.Group("request", "method", method, "url", url, "proto", proto)
		responseAttrs := slog.Group("response", "status", mw.StatusCode, "size", mw.BytesCount, "duration", time.Since(start).String())

		mid.logger.Info("access", deviceAttrs, requestAttrs, responseAttrs)
	})
}

// Authenticate reads a device token from the Authorization header and puts
// the device id it was issued to on the request context. Requests without a
// header pass through unauthenticated.
func (mid *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authorizationHeader := r.Header.Get("Authorization")

		if authorizationHeader != "" {
			headerParts := strings.Split(authorizationHeader, " ")

			if len(headerParts) != 2 || headerParts[0] != "Bearer" {
				mid.errHandler.InvalidAuthenticationToken(w, r)
				return
			}

			device, ok := mid.deviceFromToken(headerParts[1])
			if !ok {
				mid.errHandler.InvalidAuthenticationToken(w, r)
				return
			}

			r = context.ContextSetDevice(r, device)
		}

		next.ServeHTTP(w, r)
	})
}

func (mid *Middleware) deviceFromToken(token string) (string, bool) {
	claims, err := jwt.HMACCheck([]byte(token), []byte(mid.config.Jwt.SecretKey))
	if err != nil {
		return "", false
	}

	if !claims.Valid(time.Now()) {
		return "", false
	}

	if claims.Issuer != mid.config.BaseURL {
		return "", false
	}

	if !claims.AcceptAudience(mid.config.BaseURL) {
		return "", false
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", false
	}

	return claims.Subject, true
}

func (mid *Middleware) RequireDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if context.ContextGetDevice(r) == "" {
			mid.errHandler.AuthenticationRequired(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
