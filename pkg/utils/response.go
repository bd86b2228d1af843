package utils

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Response is the failure envelope shared by every endpoint.
type Response struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error,omitempty" example:"Transaction already processed"`
}

func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, Response{Success: false, Error: message})
}

// RespondWithFailure reports a business rule failure. Those are delivered
// with 200 so clients branch on the success flag only.
func RespondWithFailure(w http.ResponseWriter, message string) {
	RespondWithError(w, http.StatusOK, message)
}
