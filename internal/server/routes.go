package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Liveness and counters.
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /stats", s.handleStats)

	// Sessions.
	mux.HandleFunc("GET /connect", s.handleConnect)
	mux.HandleFunc("GET /disconnect", s.handleDisconnect)

	// Users.
	mux.HandleFunc("POST /users", s.handleCreateUser)
	mux.HandleFunc("GET /users/me", s.requireCaller(s.handleGetMe))

	// Files.
	mux.HandleFunc("POST /files", s.requireCaller(s.handleCreateFile))
	mux.HandleFunc("GET /files", s.requireCaller(s.handleListFiles))
	mux.HandleFunc("GET /files/{id}", s.requireCaller(s.handleGetFile))
	mux.HandleFunc("PUT /files/{id}/publish", s.requireCaller(s.handlePublish))
	mux.HandleFunc("PUT /files/{id}/unpublish", s.requireCaller(s.handleUnpublish))

	// Content is readable anonymously when the file is public.
	mux.HandleFunc("GET /files/{id}/data", s.optionalCaller(s.handleGetFileData))

	return s.withRequestLogging(mux)
}
