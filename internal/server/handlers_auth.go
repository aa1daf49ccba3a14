package server

import (
	"net/http"
	"time"

	"filesmanager/internal/api"
)

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	clientKey := connectClientKey(r)
	if s.connectLimiter.Blocked(clientKey, now) {
		s.writeServiceError(w, r, tooManyAttempts())
		return
	}

	token, err := s.auth.Login(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		if httpStatusFromError(err) == http.StatusUnauthorized {
			s.connectLimiter.Fail(clientKey, now)
		}
		s.writeServiceError(w, r, err)
		return
	}
	s.connectLimiter.Succeed(clientKey)
	s.writeJSON(w, http.StatusOK, api.TokenResponse{Token: token})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), tokenFromRequest(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
