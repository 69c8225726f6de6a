package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patshala/patshala-backend/internal/config"
	"github.com/patshala/patshala-backend/internal/model"
	"github.com/patshala/patshala-backend/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// Auth errors.
var (
	// ErrInvalidCredentials is returned when phone or password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionRevoked is returned for a structurally valid JWT whose
	// login session no longer exists or was superseded by a newer login.
	ErrSessionRevoked = errors.New("login session revoked")
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	Role   model.Role `json:"role"`
	UserID uuid.UUID  `json:"user_id"`
}

// AuthService handles password hashing, JWT issuing/validation and the
// login-session registry. One session per user: every login overwrites
// the stored JTI, revoking earlier tokens.
type AuthService struct {
	cfg      *config.Config
	sessions SessionKV
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, sessions SessionKV) *AuthService {
	return &AuthService{cfg: cfg, sessions: sessions}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateToken creates a JWT for a user and registers the login session
// in Redis so logout can invalidate it server-side.
func (s *AuthService) GenerateToken(ctx context.Context, userID uuid.UUID, role model.Role) (string, error) {
	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		Role:   role,
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	sessionKey := config.CacheKey.LoginSessionKey(userID.String())
	if err := s.sessions.SetWithTTL(ctx, sessionKey, jti, s.cfg.JWTExpiry); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return signed, nil
}

// ValidateSession checks that the claims' JTI is still the user's active
// login session. Fails after logout or after a newer login replaced it.
func (s *AuthService) ValidateSession(ctx context.Context, claims *Claims) error {
	stored, err := s.sessions.Get(ctx, config.CacheKey.LoginSessionKey(claims.UserID.String()))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrSessionRevoked
		}
		return fmt.Errorf("read session: %w", err)
	}
	if stored != claims.ID {
		return ErrSessionRevoked
	}
	return nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// Logout removes the user's login session, revoking their current JWT.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.sessions.Remove(ctx, config.CacheKey.LoginSessionKey(userID.String()))
}
