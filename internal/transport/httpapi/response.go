package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Warn("Failed to write JSON response")
	}
}

func (s *Server) success(w http.ResponseWriter, r *http.Request, data any) {
	s.writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data, RequestID: middleware.GetReqID(r.Context())})
}

func (s *Server) created(w http.ResponseWriter, r *http.Request, data any) {
	s.writeJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, RequestID: middleware.GetReqID(r.Context())})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	s.writeJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message}, RequestID: middleware.GetReqID(r.Context())})
}

// requestLogger logs one line per request through logrus.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := s.clock()
		next.ServeHTTP(ww, r)
		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": s.clock().Sub(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}
