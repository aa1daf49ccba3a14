package server

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	internalauth "filesmanager/internal/auth"
	"filesmanager/internal/models"
	"filesmanager/internal/store"
)

// SessionTTL is the fixed lifetime of a login token. Reads do not extend it.
const SessionTTL = 86400 * time.Second

const sessionTokenBytes = 32

// AuthService handles registration, login and token resolution.
type AuthService struct {
	users    store.UserStore
	sessions store.SessionStore
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthService(users store.UserStore, sessions store.SessionStore, now func() time.Time) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{users: users, sessions: sessions, ttl: SessionTTL, now: now}
}

// Register creates a user from an email and a plain password.
func (a *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = internalauth.NormalizeEmail(email)
	if email == "" {
		return nil, badRequestMsg(msgMissingEmail, ErrCodeMissingEmail)
	}
	if password == "" {
		return nil, badRequestMsg(msgMissingPassword, ErrCodeMissingPassword)
	}
	if err := internalauth.ValidatePassword(password); err != nil {
		return nil, badRequestCode(err, ErrCodeInvalidArgument)
	}

	existing, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, storeFailure(err)
	}
	if existing != nil {
		return nil, badRequestMsg(msgAlreadyExist, ErrCodeUserExists)
	}

	hash, err := internalauth.HashPassword(password)
	if err != nil {
		return nil, internalError(err)
	}
	user, err := a.users.CreateUser(ctx, email, hash, a.now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, badRequestMsg(msgAlreadyExist, ErrCodeUserExists)
		}
		return nil, storeFailure(err)
	}
	return user, nil
}

// Login checks Basic credentials and mints a session token.
func (a *AuthService) Login(ctx context.Context, authorization string) (string, error) {
	email, password, err := internalauth.ParseBasicCredentials(authorization)
	if err != nil {
		return "", badRequestMsg(msgBadCredentials, ErrCodeInvalidCredentials)
	}

	user, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", storeFailure(err)
	}
	if user == nil || !internalauth.VerifyPassword(user.PasswordHash, password) {
		return "", unauthorized()
	}

	token, err := generateSessionToken()
	if err != nil {
		return "", internalError(err)
	}
	now := a.now().UTC()
	if err := a.sessions.SetSession(ctx, hashSessionToken(token), user.ID, now.Add(a.ttl), now); err != nil {
		return "", storeFailure(err)
	}
	return token, nil
}

// Logout deletes the session behind token. Unknown or expired tokens are unauthorized.
func (a *AuthService) Logout(ctx context.Context, token string) error {
	if _, err := a.ResolveCaller(ctx, token); err != nil {
		return err
	}
	deleted, err := a.sessions.DeleteSession(ctx, hashSessionToken(strings.TrimSpace(token)))
	if err != nil {
		return storeFailure(err)
	}
	if !deleted {
		return unauthorized()
	}
	return nil
}

// ResolveCaller maps a token to its user id.
func (a *AuthService) ResolveCaller(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", unauthorized()
	}
	userID, err := a.sessions.GetSession(ctx, hashSessionToken(token), a.now().UTC())
	if err != nil {
		return "", storeFailure(err)
	}
	if userID == "" {
		return "", unauthorized()
	}
	return userID, nil
}

// CurrentUser loads the user for an already resolved caller.
func (a *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := a.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if user == nil {
		return nil, unauthorized()
	}
	return user, nil
}

// PurgeExpired removes sessions past their expiry.
func (a *AuthService) PurgeExpired(ctx context.Context) (int, error) {
	return a.sessions.PurgeExpiredSessions(ctx, a.now().UTC())
}

// RunPurge calls PurgeExpired every interval until ctx ends.
func (a *AuthService) RunPurge(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := a.PurgeExpired(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Error("purge expired sessions", "error", err)
				}
				continue
			}
			if purged > 0 {
				logger.Debug("purged expired sessions", "count", purged)
			}
		}
	}
}

func hashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
