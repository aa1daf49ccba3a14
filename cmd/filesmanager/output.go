package main

import (
	"fmt"
	"io"
	"strings"

	"filesmanager/internal/api"
)

// write renders payload with the structured formatter, or with text when none is selected.
func (s *cliState) write(payload any, text func(w io.Writer) error) error {
	if s.formatter != nil {
		return s.formatter.Write(s.stdout, payload)
	}
	return text(s.stdout)
}

func writeLines(w io.Writer, lines ...string) error {
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func formatFileLine(file api.File) string {
	visibility := "private"
	if file.IsPublic {
		visibility = "public"
	}
	return fmt.Sprintf("%s  %-6s  %-7s  %s", file.ID, file.Type, visibility, file.Name)
}

func writeFileList(w io.Writer, files []api.File) error {
	for _, file := range files {
		if _, err := fmt.Fprintln(w, formatFileLine(file)); err != nil {
			return err
		}
	}
	return nil
}

func writeFileDetail(w io.Writer, file api.File) error {
	return writeLines(w,
		fmt.Sprintf("id: %s", file.ID),
		fmt.Sprintf("name: %s", file.Name),
		fmt.Sprintf("type: %s", file.Type),
		fmt.Sprintf("public: %t", file.IsPublic),
		fmt.Sprintf("parent_id: %s", file.ParentID),
		fmt.Sprintf("user_id: %s", file.UserID),
	)
}
