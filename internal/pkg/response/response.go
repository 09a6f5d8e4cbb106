package response

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// AckResponse is returned to Telegram once an update has been consumed
type AckResponse struct {
	OK bool `json:"ok"`
}

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		// Headers are already written, nothing useful left to report
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error writes an error response
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// Ack writes the 200 acknowledgement for a consumed update
func Ack(w http.ResponseWriter) {
	JSON(w, http.StatusOK, AckResponse{OK: true})
}
