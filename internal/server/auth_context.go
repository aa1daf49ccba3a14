package server

import (
	"context"
	"net/http"
	"strings"

	"filesmanager/internal/api"
)

type callerContextKey struct{}

func contextWithCaller(ctx context.Context, userID string) context.Context {
	if entry := requestLogFromContext(ctx); entry != nil {
		entry.userID = userID
	}
	return context.WithValue(ctx, callerContextKey{}, userID)
}

// callerFromContext returns the resolved user id, or "" for anonymous requests.
func callerFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	userID, _ := ctx.Value(callerContextKey{}).(string)
	return userID
}

func tokenFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(api.TokenHeader))
}

// requireCaller rejects requests whose X-Token does not resolve to a user.
func (s *Server) requireCaller(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.auth.ResolveCaller(r.Context(), tokenFromRequest(r))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		next(w, r.WithContext(contextWithCaller(r.Context(), userID)))
	}
}

// optionalCaller resolves X-Token when it is valid and otherwise continues anonymously.
func (s *Server) optionalCaller(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			next(w, r)
			return
		}
		userID, err := s.auth.ResolveCaller(r.Context(), token)
		if err != nil {
			if httpStatusFromError(err) != http.StatusUnauthorized {
				s.writeServiceError(w, r, err)
				return
			}
			next(w, r)
			return
		}
		next(w, r.WithContext(contextWithCaller(r.Context(), userID)))
	}
}
