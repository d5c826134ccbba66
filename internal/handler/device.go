package handler

import (
	"net/http"
	"time"

	"github.com/cradoe/onboard/internal/response"

	"github.com/google/uuid"
	"github.com/pascaldekloe/jwt"
)

// HandleDeviceRegister mints a device id and a token bound to it. Every
// other onboarding route is scoped to the device the token names.
func (h *RouteHandler) HandleDeviceRegister(w http.ResponseWriter, r *http.Request) {
	deviceID := uuid.NewString()

	var claims jwt.Claims
	claims.Subject = deviceID

	expiry := time.Now().Add(h.Config.Jwt.TTL)
	claims.Issued = jwt.NewNumericTime(time.Now())
	claims.NotBefore = jwt.NewNumericTime(time.Now())
	claims.Expires = jwt.NewNumericTime(expiry)

	claims.Issuer = h.Config.BaseURL
	claims.Audiences = []string{h.Config.BaseURL}

	jwtBytes, err := claims.HMACSign(jwt.HS256, []byte(h.Config.Jwt.SecretKey))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Logger.Info("device registered", "device", deviceID)

	data := map[string]any{
		"deviceId":    deviceID,
		"token":       string(jwtBytes),
		"tokenExpiry": expiry.Format(time.RFC3339),
	}
	err = response.JSONCreatedResponse(w, data, "Device registered")
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
