package utils

import (
	"encoding/json"
	"net/http"

	"project-camp/api/logging"
)

type ApiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

type ErrorResponse struct {
	StatusCode int                 `json:"statusCode"`
	Message    string              `json:"message"`
	Success    bool                `json:"success"`
	Errors     []map[string]string `json:"errors,omitempty"`
}

// WriteJSON writes the success envelope.
func WriteJSON(w http.ResponseWriter, statusCode int, data any, message string) {
	writeEnvelope(w, statusCode, ApiResponse{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    statusCode < http.StatusBadRequest,
	})
}

// WriteError writes the failure envelope for err.
func WriteError(w http.ResponseWriter, err error) {
	apiErr := AsApiError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		logging.Logger.Errorf("Event ID: REQUEST_FAILED, Description: %v", err)
	}
	writeEnvelope(w, apiErr.StatusCode, ErrorResponse{
		StatusCode: apiErr.StatusCode,
		Message:    apiErr.Message,
		Success:    false,
		Errors:     apiErr.Errors,
	})
}

func writeEnvelope(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: %v", err)
	}
}
