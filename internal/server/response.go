package server

import (
	"encoding/json"
	"log/slog"

	"github.com/flamego/flamego"

	"github.com/secondview/labextract/internal/common"
)

// Every response is wrapped in the same envelope so the frontend can
// branch on success plus a stable error code.

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

func writeJSON(c flamego.Context, status int, payload any) {
	c.ResponseWriter().Header().Set("Content-Type", "application/json")
	c.ResponseWriter().WriteHeader(status)

	if err := json.NewEncoder(c.ResponseWriter()).Encode(payload); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

func writeSuccess(c flamego.Context, data any) {
	writeJSON(c, 200, envelope{Success: true, Data: data})
}

func writeError(c flamego.Context, code, message string) {
	writeJSON(c, common.HTTPStatus(code), envelope{Success: false, Error: &errorBody{Code: code, Message: message}})
}
