package server

import (
	"net/http"

	"filesmanager/internal/api"
)

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req api.CreateUserRequest
	if !s.decodeJSONReq(w, r, &req, defaultJSONMaxBody) {
		return
	}

	user, err := s.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.UserResponse{ID: user.ID, Email: user.Email})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.CurrentUser(r.Context(), callerFromContext(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.UserResponse{ID: user.ID, Email: user.Email})
}
