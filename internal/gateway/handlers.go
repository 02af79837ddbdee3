package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/reecen30/BotConnectorAPI/internal/directline"
)

// errorResponse is the structured error envelope for JSON callers.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// sendResponse is the success envelope for the send-only entry point.
type sendResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}

// parseWebhook validates the carrier's form payload. Both From and
// Body are required; a missing field is rejected with 400 before any
// relay logic runs.
func (s *Server) parseWebhook(w http.ResponseWriter, r *http.Request) (sender, body string, ok bool) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed form payload"})
		return "", "", false
	}
	sender = r.PostFormValue("From")
	body = r.PostFormValue("Body")
	if sender == "" || body == "" {
		s.log.Warn().Str("path", r.URL.Path).Msg("missing required fields")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
		return "", "", false
	}
	return sender, body, true
}

// handleStartBot relays an inbound SMS and answers with the TwiML
// envelope the carrier turns back into a text message.
func (s *Server) handleStartBot(w http.ResponseWriter, r *http.Request) {
	sender, body, ok := s.parseWebhook(w, r)
	if !ok {
		return
	}

	reply, err := s.relayer.Relay(r.Context(), sender, body)
	if err != nil {
		s.writeRelayError(w, err)
		return
	}

	writeTwiML(w, reply)
}

// handleSendMessage relays an inbound message and answers with a JSON
// envelope instead of TwiML, for non-carrier callers.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sender, body, ok := s.parseWebhook(w, r)
	if !ok {
		return
	}

	reply, err := s.relayer.Relay(r.Context(), sender, body)
	if err != nil {
		s.writeRelayError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sendResponse{Success: true, Response: reply})
}

// writeRelayError maps relay failures to the structured error
// envelope. Token acquisition failures surface as an unavailable
// upstream; everything else is a plain relay failure. Raw stack
// details never leak past the error string.
func (s *Server) writeRelayError(w http.ResponseWriter, err error) {
	var authErr *directline.AuthError
	if errors.As(err, &authErr) {
		s.log.Error().Err(err).Msg("bot token acquisition failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Message: "Failed to retrieve bot token",
			Error:   err.Error(),
		})
		return
	}

	s.log.Error().Err(err).Msg("relay failed")
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Message: "Failed to start conversation with bot",
		Error:   err.Error(),
	})
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
