package main

import (
	"context"
	"errors"
	"net"

	"filesmanager/internal/api"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.SessionRejected():
			lines = append(lines, "hint: the session token is missing or expired; run `filesmanager connect` again.")
		case apiErr.Throttled():
			lines = append(lines, "hint: too many failed logins from this address; wait before retrying.")
		}
		if !apiErr.FromFilesManager() {
			lines = append(lines, "hint: verify --api-url points to a filesmanager server.")
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase FILES_MANAGER_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a filesmanager server is reachable at --api-url or API_URL.",
			"hint: start a local server with: filesmanager srv",
		)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
