package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// File is one stored entry: a folder, a plain file or an image.
type File struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Type      FileType  `json:"type"`
	IsPublic  bool      `json:"isPublic"`
	ParentID  ParentID  `json:"parentId"`
	LocalPath string    `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// ParentID references the folder that contains a file. The zero value is the root.
//
// On the wire the root is the number 0 and any other parent is its id string.
type ParentID string

// RootParentID is the parent of top-level entries.
const RootParentID ParentID = ""

// IsRoot reports whether p is the root.
func (p ParentID) IsRoot() bool {
	return p == RootParentID
}

func (p ParentID) String() string {
	if p.IsRoot() {
		return "0"
	}
	return string(p)
}

// ParseParentID maps a query or form value to a ParentID; "", "0" and whitespace mean root.
func ParseParentID(raw string) ParentID {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return RootParentID
	}
	return ParentID(raw)
}

func (p ParentID) MarshalJSON() ([]byte, error) {
	if p.IsRoot() {
		return []byte("0"), nil
	}
	return json.Marshal(string(p))
}

func (p *ParentID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = RootParentID
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*p = ParseParentID(raw)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*p = ParseParentID(number.String())
	return nil
}
