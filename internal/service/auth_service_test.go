package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/patshala/patshala-backend/internal/config"
	"github.com/patshala/patshala-backend/internal/model"
	"github.com/patshala/patshala-backend/internal/service"
	"github.com/patshala/patshala-backend/internal/storage"
)

type fakeSessionKV struct {
	data map[string]string
}

func newFakeSessionKV() *fakeSessionKV {
	return &fakeSessionKV{data: make(map[string]string)}
}

func (f *fakeSessionKV) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (f *fakeSessionKV) SetWithTTL(_ context.Context, key, value string, _ time.Duration) error {
	f.data[key] = value
	return nil
}

func (f *fakeSessionKV) Remove(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func authFixture() (*service.AuthService, *fakeSessionKV) {
	cfg := &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4,
	}
	kv := newFakeSessionKV()
	return service.NewAuthService(cfg, kv), kv
}

func login(t *testing.T, svc *service.AuthService, userID uuid.UUID) *service.Claims {
	t.Helper()
	signed, err := svc.GenerateToken(context.Background(), userID, model.RoleStudent)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := svc.ValidateToken(signed)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	return claims
}

func TestGenerateTokenRegistersSession(t *testing.T) {
	svc, kv := authFixture()
	userID := uuid.New()

	claims := login(t, svc, userID)

	if claims.UserID != userID {
		t.Fatalf("claims user = %s, want %s", claims.UserID, userID)
	}
	if len(kv.data) != 1 {
		t.Fatalf("session entries = %d, want 1", len(kv.data))
	}
	if err := svc.ValidateSession(context.Background(), claims); err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _ := authFixture()
	userID := uuid.New()

	claims := login(t, svc, userID)

	if err := svc.Logout(context.Background(), userID); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	err := svc.ValidateSession(context.Background(), claims)
	if !errors.Is(err, service.ErrSessionRevoked) {
		t.Fatalf("ValidateSession after logout = %v, want ErrSessionRevoked", err)
	}
}

func TestNewLoginRevokesPreviousToken(t *testing.T) {
	svc, _ := authFixture()
	userID := uuid.New()

	first := login(t, svc, userID)
	second := login(t, svc, userID)

	err := svc.ValidateSession(context.Background(), first)
	if !errors.Is(err, service.ErrSessionRevoked) {
		t.Fatalf("old session = %v, want ErrSessionRevoked", err)
	}
	if err := svc.ValidateSession(context.Background(), second); err != nil {
		t.Fatalf("new session: %v", err)
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := authFixture()
	other := &config.Config{JWTSecret: "other-secret", JWTExpiry: time.Hour, BcryptCost: 4}
	otherSvc := service.NewAuthService(other, newFakeSessionKV())

	signed, err := otherSvc.GenerateToken(context.Background(), uuid.New(), model.RoleStudent)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := svc.ValidateToken(signed); err == nil {
		t.Fatal("token signed with a different secret was accepted")
	}
}
