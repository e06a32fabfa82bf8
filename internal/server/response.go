package server

import (
	"encoding/json"
	"net/http"

	"github.com/desertthunder/tunex/internal/shared"
)

// Envelope is the body of every response.
//
// Successful responses set Data; failures set StatusCode, Error and Message.
type Envelope struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Error      string `json:"error,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

func (s *Server) ok(w http.ResponseWriter, data any) {
	s.writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// fail writes err as an error envelope. Only the safe message leaves the process.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := shared.StatusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", RequestIDFrom(r.Context()), "err", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "err", err)
	}

	s.writeJSON(w, status, Envelope{
		Success:    false,
		StatusCode: status,
		Error:      shared.KindOf(err).String(),
		Message:    shared.SafeMessageOf(err),
	})
}

// reply writes data, or the error when err is set.
func (s *Server) reply(w http.ResponseWriter, r *http.Request, data any, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, data)
}
