package api

import "filesmanager/internal/models"

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// TokenResponse is returned by GET /connect.
type TokenResponse struct {
	Token string `json:"token"`
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CreateFileRequest is the body of POST /files. Data is base64 and required unless Type is folder.
type CreateFileRequest struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	ParentID models.ParentID `json:"parentId,omitempty"`
	IsPublic bool            `json:"isPublic,omitempty"`
	Data     string          `json:"data,omitempty"`
}

// File is the metadata view of a stored entry.
type File struct {
	ID       string          `json:"id"`
	UserID   string          `json:"userId"`
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	IsPublic bool            `json:"isPublic"`
	ParentID models.ParentID `json:"parentId"`
}

// StatusResponse reports per-store liveness.
type StatusResponse struct {
	DB       bool `json:"db"`
	Sessions bool `json:"sessions"`
	Blobs    bool `json:"blobs"`
}

// StatsResponse reports record counts.
type StatsResponse struct {
	Users int            `json:"users"`
	Files int            `json:"files"`
	Jobs  map[string]int `json:"jobs,omitempty"`
}

// NewFile maps a stored record to its wire form.
func NewFile(file models.File) File {
	return File{
		ID:       file.ID,
		UserID:   file.UserID,
		Name:     file.Name,
		Type:     string(file.Type),
		IsPublic: file.IsPublic,
		ParentID: file.ParentID,
	}
}

// NewFiles maps a slice of records; the result is never nil.
func NewFiles(files []models.File) []File {
	out := make([]File, 0, len(files))
	for _, file := range files {
		out = append(out, NewFile(file))
	}
	return out
}
