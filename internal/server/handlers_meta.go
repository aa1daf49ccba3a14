package server

import (
	"net/http"

	"filesmanager/internal/api"
)

// handleStatus reports whether each backing store answers.
// The session store shares the database, so it follows the db check.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	dbAlive := s.store.Ping(r.Context()) == nil
	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		DB:       dbAlive,
		Sessions: dbAlive,
		Blobs:    s.blobs.Ping(r.Context()) == nil,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.CountUsers(r.Context())
	if err != nil {
		s.writeServiceError(w, r, storeFailure(err))
		return
	}
	files, err := s.store.CountFiles(r.Context())
	if err != nil {
		s.writeServiceError(w, r, storeFailure(err))
		return
	}

	resp := api.StatsResponse{Users: users, Files: files}
	if s.queue != nil {
		counts, err := s.queue.Stats(r.Context())
		if err != nil {
			s.writeServiceError(w, r, storeFailure(err))
			return
		}
		resp.Jobs = make(map[string]int, len(counts))
		for status, n := range counts {
			resp.Jobs[string(status)] = n
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}
