package handler

import (
	"net/http"

	"github.com/cradoe/onboard/internal/response"
	"github.com/cradoe/onboard/internal/version"
)

func (h *RouteHandler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	message := "Up and grateful"

	data := map[string]any{
		"version":        version.Get(),
		"storageDriver":  h.Config.Storage.Driver,
		"activeSessions": h.Devices.Len(),
	}

	err := response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
