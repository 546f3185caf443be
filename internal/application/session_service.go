package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/example/marketplace-booking/internal/persistence"
)

// BlobStore persists opaque blobs under fixed keys.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// SessionService loads and stores the signed-in user's profile blob. Token
// expiry is read from the JWT "exp" claim without verifying the signature;
// the marketplace remains the authority on token validity.
type SessionService struct {
	store  BlobStore
	key    string
	now    func() time.Time
	parser *jwt.Parser
	logger *zap.Logger
}

// NewSessionService wires dependencies for session operations.
func NewSessionService(store BlobStore, profile string, now func() time.Time) *SessionService {
	return NewSessionServiceWithLogger(store, profile, now, nil)
}

// NewSessionServiceWithLogger wires dependencies for session operations with a specified logger.
func NewSessionServiceWithLogger(store BlobStore, profile string, now func() time.Time, logger *zap.Logger) *SessionService {
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		store:  store,
		key:    persistence.ProfileKey(profile, persistence.KeyUser),
		now:    now,
		parser: jwt.NewParser(),
		logger: defaultLogger(logger),
	}
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return serviceLogger(ctx, s.logger, "SessionService", operation, fields...)
}

// Load returns the stored session. A missing blob yields ErrUnauthorized; an
// expired token clears the blob and yields ErrSessionExpired.
func (s *SessionService) Load(ctx context.Context) (Session, error) {
	raw, err := s.store.Get(ctx, s.key)
	if errors.Is(err, persistence.ErrNotFound) {
		return Session{}, ErrUnauthorized
	}
	if errors.Is(err, persistence.ErrSealed) {
		s.loggerWith(ctx, "Load").Warn("discarding session sealed with another secret")
		_ = s.store.Delete(ctx, s.key)
		return Session{}, ErrUnauthorized
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil || session.UserID == "" || session.Token == "" {
		s.loggerWith(ctx, "Load").Warn("discarding unreadable session blob")
		_ = s.store.Delete(ctx, s.key)
		return Session{}, ErrUnauthorized
	}

	if expiresAt, ok := s.tokenExpiry(session.Token); ok {
		session.ExpiresAt = expiresAt
	}
	if !session.ExpiresAt.IsZero() && !s.now().Before(session.ExpiresAt) {
		s.loggerWith(ctx, "Load", zap.String("user_id", session.UserID)).Info("session expired")
		if err := s.store.Delete(ctx, s.key); err != nil {
			return Session{}, fmt.Errorf("clear expired session: %w", err)
		}
		return Session{}, ErrSessionExpired
	}
	return session, nil
}

// Save validates and stores session.
func (s *SessionService) Save(ctx context.Context, session Session) (saved Session, err error) {
	logger := s.loggerWith(ctx, "Save", zap.String("user_id", session.UserID))
	defer func() {
		logResult(logger, err, "failed to save session", "session saved")
	}()

	session.UserID = strings.TrimSpace(session.UserID)
	session.Token = strings.TrimSpace(session.Token)
	session.Name = strings.TrimSpace(session.Name)
	session.Email = strings.TrimSpace(session.Email)

	vErr := &ValidationError{}
	if session.Token == "" {
		vErr.add("token", "token is required")
	}
	if session.Token != "" {
		if claims, ok := s.claims(session.Token); ok {
			if session.UserID == "" {
				session.UserID = claims.Subject
			}
			if claims.ExpiresAt != nil {
				session.ExpiresAt = claims.ExpiresAt.Time
			}
		}
	}
	if session.UserID == "" {
		vErr.add("id", "user id is required")
	}
	if vErr.HasErrors() {
		return Session{}, vErr
	}
	if !session.ExpiresAt.IsZero() && !s.now().Before(session.ExpiresAt) {
		return Session{}, ErrSessionExpired
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return Session{}, err
	}
	if err = s.store.Put(ctx, s.key, raw); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Clear removes the stored session.
func (s *SessionService) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.loggerWith(ctx, "Clear").Info("session cleared")
	return nil
}

// Principal returns the acting principal of the stored session.
func (s *SessionService) Principal(ctx context.Context) (Principal, error) {
	session, err := s.Load(ctx)
	if err != nil {
		return Principal{}, err
	}
	return session.Principal(), nil
}

// Token returns the stored bearer token, or "" when nobody is signed in.
func (s *SessionService) Token(ctx context.Context) (string, error) {
	session, err := s.Load(ctx)
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrSessionExpired) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return session.Token, nil
}

// claims parses token as an unverified JWT. Opaque tokens report false.
func (s *SessionService) claims(token string) (*jwt.RegisteredClaims, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := s.parser.ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

func (s *SessionService) tokenExpiry(token string) (time.Time, bool) {
	claims, ok := s.claims(token)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
