package context

import (
	"context"
	"net/http"
)

type contextKey string

const (
	deviceContextKey = contextKey("device")
)

func ContextSetDevice(r *http.Request, device string) *http.Request {
	ctx := context.WithValue(r.Context(), deviceContextKey, device)
	return r.WithContext(ctx)
}

// ContextGetDevice returns the device id the request token was issued to, or
// an empty string for unauthenticated requests.
func ContextGetDevice(r *http.Request) string {
	device, ok := r.Context().Value(deviceContextKey).(string)
	if !ok {
		return ""
	}

	return device
}
