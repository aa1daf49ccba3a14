package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"math"
	"mime"
	"path/filepath"
	"strings"

	"filesmanager/internal/blobstore"
	"filesmanager/internal/models"
	"filesmanager/internal/store"
	"filesmanager/internal/thumbnail"
)

// ListPageSize is the fixed number of files per listing page.
const ListPageSize = 20

const defaultContentType = "application/octet-stream"

// FileService owns file metadata, content and thumbnail scheduling.
type FileService struct {
	files  store.FileStore
	blobs  blobstore.BlobStore
	queue  JobQueue
	logger *slog.Logger
}

// CreateFileInput carries an upload. Data is base64 and ignored for folders.
type CreateFileInput struct {
	Name     string
	Type     string
	ParentID models.ParentID
	IsPublic bool
	Data     string
}

// Content is an open file body ready to stream.
type Content struct {
	File        *models.File
	ContentType string
	Body        io.ReadCloser
}

func NewFileService(files store.FileStore, blobs blobstore.BlobStore, queue JobQueue, logger *slog.Logger) *FileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileService{files: files, blobs: blobs, queue: queue, logger: logger}
}

// Create validates and stores a new entry owned by userID.
// Content reaches the blob store before the record is inserted.
func (f *FileService) Create(ctx context.Context, userID string, in CreateFileInput) (*models.File, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, badRequestMsg(msgMissingName, ErrCodeMissingName)
	}
	fileType, err := models.ParseFileType(in.Type)
	if err != nil {
		return nil, badRequestMsg(msgMissingType, ErrCodeMissingType)
	}
	if fileType.HasContent() && in.Data == "" {
		return nil, badRequestMsg(msgMissingData, ErrCodeMissingData)
	}
	if err := f.checkParent(ctx, userID, in.ParentID); err != nil {
		return nil, err
	}

	file := &models.File{
		UserID:   userID,
		Name:     in.Name,
		Type:     fileType,
		IsPublic: in.IsPublic,
		ParentID: in.ParentID,
	}

	if fileType.HasContent() {
		content, err := decodeBase64(in.Data)
		if err != nil {
			return nil, badRequestMsg(msgInvalidData, ErrCodeInvalidData)
		}
		key := blobstore.NewKey()
		if err := f.blobs.Write(ctx, key, bytes.NewReader(content)); err != nil {
			return nil, blobFailure(err)
		}
		file.LocalPath = key
	}

	if err := f.files.CreateFile(ctx, file); err != nil {
		if file.LocalPath != "" {
			if delErr := f.blobs.Delete(context.WithoutCancel(ctx), file.LocalPath); delErr != nil {
				f.logger.Warn("remove orphaned blob", "key", file.LocalPath, "error", delErr)
			}
		}
		return nil, storeFailure(err)
	}

	if fileType == models.TypeImage {
		f.scheduleThumbnails(ctx, file)
	}
	return file, nil
}

func (f *FileService) checkParent(ctx context.Context, userID string, parentID models.ParentID) error {
	if parentID.IsRoot() {
		return nil
	}
	if !models.ValidID(string(parentID)) {
		return badRequestMsg(msgParentNotFound, ErrCodeParentNotFound)
	}
	parent, err := f.files.GetOwnedFile(ctx, string(parentID), userID)
	if err != nil {
		return storeFailure(err)
	}
	if parent == nil {
		return badRequestMsg(msgParentNotFound, ErrCodeParentNotFound)
	}
	if parent.Type != models.TypeFolder {
		return badRequestMsg(msgParentNotFolder, ErrCodeParentNotFolder)
	}
	return nil
}

func (f *FileService) scheduleThumbnails(ctx context.Context, file *models.File) {
	if f.queue == nil {
		f.logger.Warn("thumbnail queue unavailable", "file_id", file.ID)
		return
	}
	job, err := f.queue.Enqueue(ctx, models.ThumbnailJob{UserID: file.UserID, FileID: file.ID})
	if err != nil {
		f.logger.Warn("enqueue thumbnail job", "file_id", file.ID, "error", err)
		return
	}
	f.logger.Debug("thumbnail job queued", "job_id", job.ID, "file_id", file.ID)
}

// Get returns a file owned by userID.
func (f *FileService) Get(ctx context.Context, userID, id string) (*models.File, error) {
	if !models.ValidID(id) {
		return nil, notFoundCode(ErrCodeFileNotFound)
	}
	file, err := f.files.GetOwnedFile(ctx, id, userID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if file == nil {
		return nil, notFoundCode(ErrCodeFileNotFound)
	}
	return file, nil
}

// List returns one page of the caller's files under parent.
func (f *FileService) List(ctx context.Context, userID string, parent models.ParentID, page int) ([]models.File, error) {
	if !parent.IsRoot() && !models.ValidID(string(parent)) {
		return []models.File{}, nil
	}
	// Pages whose offset does not fit an int are past any real listing.
	if page < 0 || page > math.MaxInt/ListPageSize {
		return []models.File{}, nil
	}
	files, err := f.files.ListFiles(ctx, store.ListFilesFilter{
		UserID:   userID,
		ParentID: parent,
		Limit:    ListPageSize,
		Offset:   page * ListPageSize,
	})
	if err != nil {
		return nil, storeFailure(err)
	}
	return files, nil
}

// SetPublic flips visibility on a file owned by userID.
func (f *FileService) SetPublic(ctx context.Context, userID, id string, isPublic bool) (*models.File, error) {
	if !models.ValidID(id) {
		return nil, notFoundCode(ErrCodeFileNotFound)
	}
	file, err := f.files.SetFilePublic(ctx, id, userID, isPublic)
	if err != nil {
		return nil, storeFailure(err)
	}
	if file == nil {
		return nil, notFoundCode(ErrCodeFileNotFound)
	}
	return file, nil
}

// OpenContent opens the original bytes, or a thumbnail when size is a known width.
// callerID may be empty; only public files are readable then.
func (f *FileService) OpenContent(ctx context.Context, callerID, id string, size int) (*Content, error) {
	if !models.ValidID(id) {
		return nil, notFoundCode(ErrCodeFileNotFound)
	}
	file, err := f.files.GetFile(ctx, id)
	if err != nil {
		return nil, storeFailure(err)
	}
	if file == nil || (!file.IsPublic && (callerID == "" || file.UserID != callerID)) {
		return nil, notFoundCode(ErrCodeFileNotFound)
	}
	if file.Type == models.TypeFolder {
		return nil, badRequestMsg(msgFolderHasNoContent, ErrCodeFolderHasNoContent)
	}
	if file.LocalPath == "" {
		return nil, notFoundCode(ErrCodeContentNotFound)
	}

	key := file.LocalPath
	if thumbnail.ValidSize(size) {
		key = thumbnail.VariantKey(key, size)
	}
	body, err := f.blobs.Open(ctx, key)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, notFoundCode(ErrCodeContentNotFound)
		}
		return nil, blobFailure(err)
	}

	return &Content{File: file, ContentType: contentTypeFor(file.Name), Body: body}, nil
}

func contentTypeFor(name string) string {
	if contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); contentType != "" {
		return contentType
	}
	return defaultContentType
}

// decodeBase64 accepts padded and unpadded standard encodings.
func decodeBase64(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if decoded, err := base64.StdEncoding.DecodeString(data); err == nil {
		return decoded, nil
	}
	return base64.RawStdEncoding.DecodeString(data)
}
