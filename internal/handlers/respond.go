package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/friendloop/backend/internal/apperr"
	"github.com/friendloop/backend/internal/logging"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

type errorBody struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Internal(err)
	}
	if ae.Status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed", "error", err)
	}
	respondJSON(w, ae.Status, errorBody{Message: ae.Message, Data: ae.Data})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("Some input data is missing.")
	}
	return nil
}
