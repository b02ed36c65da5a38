// Package auth owns sign-up, sign-in and the session lookup behind every protected route.
// A session token is a signed JWT naming a session row; the row decides whether it is still valid.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/suteetoe/ekklesia/internal/apperr"
	"github.com/suteetoe/ekklesia/internal/model"
	"github.com/suteetoe/ekklesia/internal/repository"
	"github.com/suteetoe/ekklesia/internal/validation"
	"github.com/suteetoe/ekklesia/pkg/config"
	"github.com/suteetoe/ekklesia/pkg/jwtutil"
	"github.com/suteetoe/ekklesia/pkg/logger"
	"github.com/suteetoe/ekklesia/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Principal is the authenticated caller of a request
type Principal struct {
	User    *model.User
	Session *model.Session
}

// Provider resolves the caller of a request. A nil principal with a nil error means
// the request carries no valid session.
type Provider interface {
	CurrentUser(r *http.Request) (*Principal, error)
}

// Issued is a freshly created session together with its signed token
type Issued struct {
	Token   string
	Session *model.Session
}

// ClientMeta describes the client opening a session
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

type Service struct {
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	jwt      *jwtutil.JWTUtil
	cfg      config.AuthConfig
	cost     int
	now      func() time.Time
}

func NewService(users *repository.UserRepository, sessions *repository.SessionRepository, cfg config.AuthConfig) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		jwt:      jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: cfg.SigningKey}),
		cfg:      cfg,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// CookieName is the name of the session cookie
func (s *Service) CookieName() string {
	return s.cfg.CookieName
}

// SecureCookie reports whether the session cookie is restricted to HTTPS
func (s *Service) SecureCookie() bool {
	return s.cfg.SecureCookie
}

// SignUp registers a user and opens a first session
func (s *Service) SignUp(ctx context.Context, req validation.SignUp, meta ClientMeta) (*model.User, *Issued, error) {
	prometheus.RecordAuthAttempt("sign_up")

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		prometheus.RecordAuthError("password_hash_failed")
		return nil, nil, apperr.Internal("Failed to register user", err)
	}

	user := &model.User{
		Email:        normalizeEmail(req.Email),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			prometheus.RecordAuthError("email_already_exists")
		}
		return nil, nil, err
	}

	issued, err := s.openSession(ctx, user, meta)
	if err != nil {
		return nil, nil, err
	}
	return user, issued, nil
}

// SignIn checks the credentials and opens a new session
func (s *Service) SignIn(ctx context.Context, req validation.SignIn, meta ClientMeta) (*model.User, *Issued, error) {
	log := logger.FromContext(ctx)
	prometheus.RecordAuthAttempt("sign_in")

	email := normalizeEmail(req.Email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		log.Warn("Sign-in for unknown email", zap.String("email", email))
		prometheus.RecordAuthError("user_not_found")
		return nil, nil, apperr.Unauthorized("Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("user_id", user.ID))
		prometheus.RecordAuthError("invalid_password")
		return nil, nil, apperr.Unauthorized("Invalid email or password")
	}

	issued, err := s.openSession(ctx, user, meta)
	if err != nil {
		return nil, nil, err
	}
	return user, issued, nil
}

// SignOut ends the caller's current session
func (s *Service) SignOut(ctx context.Context, principal *Principal) error {
	found, err := s.sessions.Delete(ctx, principal.Session.ID, principal.User.ID)
	if err != nil {
		return err
	}
	if found {
		prometheus.SessionEnded()
	}
	return nil
}

// CurrentUser reads the session token from the cookie or a bearer header
func (s *Service) CurrentUser(r *http.Request) (*Principal, error) {
	token := s.tokenFrom(r)
	if token == "" {
		return nil, nil
	}

	ctx := r.Context()
	log := logger.FromContext(ctx)

	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		log.Debug("Rejected session token", zap.Error(err))
		prometheus.RecordAuthError("invalid_token")
		return nil, nil
	}

	session, err := s.sessions.GetActive(ctx, claims.SessionID, claims.UserID, s.now())
	if err != nil {
		return nil, err
	}
	if session == nil {
		prometheus.RecordAuthError("session_expired")
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil || user == nil {
		return nil, err
	}
	return &Principal{User: user, Session: session}, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, req validation.ProfileUpdate) (*model.User, error) {
	user, err := s.users.UpdateName(ctx, userID, strings.TrimSpace(req.Name))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("User not found")
	}
	return user, nil
}

// Sessions lists the caller's unexpired sessions
func (s *Service) Sessions(ctx context.Context, userID string) ([]model.Session, error) {
	return s.sessions.ListActive(ctx, userID, s.now())
}

// RevokeSession ends one of the caller's sessions; other users' sessions are reported as missing
func (s *Service) RevokeSession(ctx context.Context, id, userID string) error {
	found, err := s.sessions.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("Session not found")
	}
	prometheus.SessionEnded()
	return nil
}

// PurgeExpired deletes sessions that can no longer be used
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

func (s *Service) openSession(ctx context.Context, user *model.User, meta ClientMeta) (*Issued, error) {
	session := &model.Session{
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.cfg.SessionTTL()),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateToken(session.ID, user.ID, user.Email, session.ExpiresAt)
	if err != nil {
		prometheus.RecordAuthError("token_generation_failed")
		return nil, apperr.Internal("Failed to issue session token", err)
	}

	prometheus.SessionStarted()
	logger.FromContext(ctx).Info("Session opened",
		zap.String("user_id", user.ID),
		zap.String("session_id", session.ID))
	return &Issued{Token: token, Session: session}, nil
}

func (s *Service) tokenFrom(r *http.Request) string {
	if cookie, err := r.Cookie(s.cfg.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
