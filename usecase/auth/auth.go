package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/claritytasks/backend/domain"
	"github.com/claritytasks/backend/repository"
)

// UseCase handles registration, login and session upkeep. Identity is
// deliberately thin: an email plus a bcrypt hash, enough to hand the task
// engine an owner key.
type UseCase struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func New(users repository.UserRepository, sessions repository.SessionRepository, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &UseCase{
		users:     users,
		sessions:  sessions,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// Credentials is the login/registration payload.
type Credentials struct {
	Email    string
	Password string
}

// Grant is what a successful login returns: a signed token plus the backing
// session record.
type Grant struct {
	Token   string          `json:"token"`
	Session *domain.Session `json:"session"`
}

func (uc *UseCase) Register(ctx context.Context, creds Credentials) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.NewError(domain.ErrCodeInvalid, "a valid email is required")
	}
	if len(creds.Password) < 8 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to hash password", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *UseCase) Login(ctx context.Context, creds Credentials) (*Grant, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		return nil, domain.ErrUnauthorized
	}

	now := time.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		Owner:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.tokenTTL),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	token, err := uc.signToken(user.Email, session.ID, session.ExpiresAt)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to sign token", err)
	}
	return &Grant{Token: token, Session: session}, nil
}

func (uc *UseCase) Refresh(ctx context.Context, sessionID string) (*Grant, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}

	session.ExpiresAt = time.Now().Add(uc.tokenTTL)
	if err := uc.sessions.Extend(ctx, sessionID, int(uc.tokenTTL.Seconds())); err != nil {
		return nil, err
	}

	token, err := uc.signToken(session.Owner, session.ID, session.ExpiresAt)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to sign token", err)
	}
	return &Grant{Token: token, Session: session}, nil
}

// Logout revokes the session. Background work keyed to the session (live
// subscriptions, timers) is released by the owning service on teardown.
func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

func (uc *UseCase) signToken(owner, sessionID string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"owner":      owner,
		"session_id": sessionID,
		"exp":        expiresAt.Unix(),
		"iat":        time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(uc.jwtSecret)
}
