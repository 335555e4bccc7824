package web

import (
	"encoding/json"
	"net/http"

	"github.com/JonMunkholm/csvnorm/internal/logging"
)

// ErrorResponse is the JSON body of every API error.
// Code is machine-readable; Message and Action are for people.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error with the request ID and writes the
// mapped user message as JSON.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	writeJSONStatus(w, statusCode, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// writeJSON encodes v as a 200 JSON response.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	if err := writeJSONStatus(w, http.StatusOK, v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
