package httpapi

import (
	"encoding/json"
	"net/http"

	"cardvault/internal/logging"
	"cardvault/internal/services"
)

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

// writeError maps err onto a status through its services marker. Server
// faults are logged and reported with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	resp := errorResponse{Message: statusMessage(status), Error: err.Error()}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "request failed", "api_request_failed",
			logging.String("path", r.URL.Path),
			logging.Error(err),
		)
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeMessage(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Message: message})
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Invalid request."
	case http.StatusUnauthorized:
		return "Authentication required."
	case http.StatusForbidden:
		return "Admin privileges required."
	case http.StatusNotFound:
		return "Not found."
	case http.StatusRequestEntityTooLarge:
		return "Upload too large."
	case http.StatusServiceUnavailable:
		return "Service not configured."
	case http.StatusGatewayTimeout:
		return "Timed out waiting for storage."
	default:
		return "An internal error occurred."
	}
}
