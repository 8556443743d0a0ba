package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gracepoint-chapel/church-backend/internal/models"
)

func newAuthFixture(t *testing.T) (*AuthService, *models.User) {
	t.Helper()
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	user := &models.User{
		Email:    "admin@gracepoint.example",
		Password: hash,
		Role:     models.RoleAdmin,
	}
	repo := &fakeUserRepo{}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("storing user: %v", err)
	}
	return NewAuthService(repo, "test-secret", time.Hour), user
}

func TestLoginIssuesSignedToken(t *testing.T) {
	svc, user := newAuthFixture(t)

	tokenString, got, err := svc.Login(context.Background(), "admin@gracepoint.example", "correct horse battery staple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected the stored user back")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("expected a valid token, got %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["sub"] != user.ID.Hex() {
		t.Errorf("expected sub claim %s, got %v", user.ID.Hex(), claims["sub"])
	}
	if claims["role"] != models.RoleAdmin {
		t.Errorf("expected role claim ADMIN, got %v", claims["role"])
	}
}

func TestLoginNormalizesEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	if _, _, err := svc.Login(context.Background(), "  Admin@Gracepoint.example ", "correct horse battery staple"); err != nil {
		t.Errorf("expected case and whitespace to be normalized, got %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, _, err := svc.Login(context.Background(), "admin@gracepoint.example", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}

	_, _, err = svc.Login(context.Background(), "nobody@gracepoint.example", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user must look like a bad password, got %v", err)
	}
}
