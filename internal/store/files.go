package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"filesmanager/internal/models"
)

const fileColumns = "id, user_id, name, type, is_public, parent_id, local_path, created_at"

// ListFilesFilter scopes a file listing to one owner and parent.
type ListFilesFilter struct {
	UserID   string
	ParentID models.ParentID
	Limit    int
	Offset   int
}

// CreateFile inserts a file record and assigns its ID when empty.
func (s *Store) CreateFile(ctx context.Context, file *models.File) error {
	if file == nil {
		return fmt.Errorf("file is required")
	}
	if strings.TrimSpace(file.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if file.Type == models.TypeFolder && file.LocalPath != "" {
		return fmt.Errorf("folder cannot reference a blob")
	}
	if file.ID == "" {
		id, err := GenerateID()
		if err != nil {
			return err
		}
		file.ID = id
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now().UTC()
	}

	_, err := s.exec(ctx, `
		INSERT INTO files (id, user_id, name, type, is_public, parent_id, local_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, file.ID, file.UserID, file.Name, string(file.Type), file.IsPublic, string(file.ParentID), file.LocalPath, dbFormatTime(file.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create file %s: %w", file.ID, ErrDuplicate)
		}
		return err
	}
	return nil
}

// GetFile returns one file by id regardless of owner, or nil when absent.
func (s *Store) GetFile(ctx context.Context, id string) (*models.File, error) {
	row := s.queryRow(ctx, "SELECT "+fileColumns+" FROM files WHERE id = ? LIMIT 1", id)
	return scanFile(row)
}

// GetOwnedFile returns one file owned by userID, or nil when absent or owned by someone else.
func (s *Store) GetOwnedFile(ctx context.Context, id, userID string) (*models.File, error) {
	row := s.queryRow(ctx, "SELECT "+fileColumns+" FROM files WHERE id = ? AND user_id = ? LIMIT 1", id, userID)
	return scanFile(row)
}

// ListFiles returns one page of a user's files under a parent in insertion order.
func (s *Store) ListFiles(ctx context.Context, filter ListFilesFilter) ([]models.File, error) {
	query := "SELECT " + fileColumns + " FROM files WHERE user_id = ? AND parent_id = ? ORDER BY seq ASC"
	args := []any{filter.UserID, string(filter.ParentID)}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := make([]models.File, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		if file == nil {
			continue
		}
		files = append(files, *file)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return files, nil
}

// SetFilePublic flips visibility on a file owned by userID.
// It returns nil when no such owned file exists.
func (s *Store) SetFilePublic(ctx context.Context, id, userID string, isPublic bool) (*models.File, error) {
	result, err := s.exec(ctx, "UPDATE files SET is_public = ? WHERE id = ? AND user_id = ?", isPublic, id, userID)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}
	return s.GetOwnedFile(ctx, id, userID)
}

// CountFiles returns the number of stored files of every type.
func (s *Store) CountFiles(ctx context.Context) (int, error) {
	var count int
	if err := s.queryRow(ctx, "SELECT COUNT(*) FROM files").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanFile(scanner interface {
	Scan(dest ...any) error
}) (*models.File, error) {
	var file models.File
	var fileType string
	var parentID string
	var createdAt string
	if err := scanner.Scan(&file.ID, &file.UserID, &file.Name, &fileType, &file.IsPublic, &parentID, &file.LocalPath, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	file.Type = models.FileType(fileType)
	file.ParentID = models.ParentID(parentID)
	parsed, err := dbParseTime(createdAt)
	if err != nil {
		return nil, err
	}
	file.CreatedAt = parsed
	return &file, nil
}
