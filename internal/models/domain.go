package models

import (
	"fmt"
	"regexp"
	"strings"
)

// FileType defines the allowed kinds of stored entries.
type FileType string

const (
	TypeFolder FileType = "folder"
	TypeFile   FileType = "file"
	TypeImage  FileType = "image"
)

var validFileTypes = map[FileType]struct{}{
	TypeFolder: {},
	TypeFile:   {},
	TypeImage:  {},
}

var idRegex = regexp.MustCompile(`^[0-9a-f]{24}$`)

// IDLength is the length of a canonical document identifier.
const IDLength = 24

func IsValidFileType(fileType FileType) bool {
	_, ok := validFileTypes[fileType]
	return ok
}

// ParseFileType validates a raw type value. Matching is case-sensitive.
func ParseFileType(raw string) (FileType, error) {
	value := FileType(strings.TrimSpace(raw))
	if value == "" {
		return "", fmt.Errorf("type is required")
	}
	if !IsValidFileType(value) {
		return "", fmt.Errorf("invalid type: %s", value)
	}
	return value, nil
}

// HasContent reports whether entries of this type carry blob bytes.
func (t FileType) HasContent() bool {
	return t == TypeFile || t == TypeImage
}

// ValidID reports whether id has the canonical document identifier shape.
func ValidID(id string) bool {
	return idRegex.MatchString(id)
}
