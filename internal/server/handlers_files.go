package server

import (
	"io"
	"net/http"

	"filesmanager/internal/api"
	"filesmanager/internal/models"
	"filesmanager/internal/thumbnail"
)

func (s *Server) handleCreateFile(w http.ResponseWriter, r *http.Request) {
	var req api.CreateFileRequest
	if !s.decodeJSONReq(w, r, &req, s.uploadMaxBytes) {
		return
	}

	file, err := s.files.Create(r.Context(), callerFromContext(r.Context()), CreateFileInput{
		Name:     req.Name,
		Type:     req.Type,
		ParentID: req.ParentID,
		IsPublic: req.IsPublic,
		Data:     req.Data,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.NewFile(*file))
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	file, err := s.files.Get(r.Context(), callerFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.NewFile(*file))
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	parent := models.ParseParentID(r.URL.Query().Get("parentId"))

	files, err := s.files.List(r.Context(), callerFromContext(r.Context()), parent, page)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.NewFiles(files))
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	s.setPublic(w, r, true)
}

func (s *Server) handleUnpublish(w http.ResponseWriter, r *http.Request) {
	s.setPublic(w, r, false)
}

func (s *Server) setPublic(w http.ResponseWriter, r *http.Request, isPublic bool) {
	file, err := s.files.SetPublic(r.Context(), callerFromContext(r.Context()), r.PathValue("id"), isPublic)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.NewFile(*file))
}

func (s *Server) handleGetFileData(w http.ResponseWriter, r *http.Request) {
	size := thumbnail.ParseSize(r.URL.Query().Get("size"))
	content, err := s.files.OpenContent(r.Context(), callerFromContext(r.Context()), r.PathValue("id"), size)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer content.Body.Close()

	w.Header().Set("Content-Type", content.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, content.Body); err != nil {
		s.log().Warn("stream file content", "file_id", content.File.ID, "error", err)
	}
}
