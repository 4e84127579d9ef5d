package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tenzinsgym/pos/internal/domain"

	"github.com/golang-jwt/jwt/v4"
)

func TestBootstrapAdminThenLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.auth.EnsureBootstrapAdmin(ctx, "owner@tenzins.gym", "s3cret-pass"); err != nil {
		t.Fatalf("EnsureBootstrapAdmin: %v", err)
	}
	// A second call is a no-op once anyone exists.
	if err := env.auth.EnsureBootstrapAdmin(ctx, "other@tenzins.gym", "pw"); err != nil {
		t.Fatal(err)
	}
	users, err := env.auth.ListUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 {
		t.Fatalf("users = %d, want 1", len(users))
	}

	token, user, err := env.auth.Login(ctx, "owner@tenzins.gym", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.PasswordHash != "" {
		t.Error("login leaked the password hash")
	}
	session, err := env.auth.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if session.Role != domain.RoleAdmin || session.Email != "owner@tenzins.gym" || session.UserID != user.ID.Hex() {
		t.Errorf("session = %+v", session)
	}
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.auth.EnsureBootstrapAdmin(ctx, "owner@tenzins.gym", "s3cret-pass"); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name            string
		email, password string
		want            error
	}{
		{"wrong password", "owner@tenzins.gym", "guess", ErrAuthenticationFailed},
		{"unknown email", "nobody@tenzins.gym", "s3cret-pass", ErrAuthenticationFailed},
		{"empty password", "owner@tenzins.gym", "", ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := env.auth.Login(ctx, tc.email, tc.password); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.auth.CreateUser(ctx, staffSession, "Desk", "desk@tenzins.gym", "pw", domain.RoleStaff); !errors.Is(err, ErrForbidden) {
		t.Errorf("staff creating users: err = %v, want ErrForbidden", err)
	}
	user, err := env.auth.CreateUser(ctx, adminSession, "Desk", "desk@tenzins.gym", "pw", domain.RoleStaff)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Role != domain.RoleStaff || user.PasswordHash != "" {
		t.Errorf("user = %+v", user)
	}
	if _, err := env.auth.CreateUser(ctx, adminSession, "Desk 2", "desk@tenzins.gym", "pw", domain.RoleStaff); !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("duplicate email: err = %v, want ErrUserAlreadyExists", err)
	}
	if _, err := env.auth.CreateUser(ctx, adminSession, "Root", "root@tenzins.gym", "pw", "superuser"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown role: err = %v, want ErrInvalidInput", err)
	}
}

func TestParseTokenRejects(t *testing.T) {
	env := newTestEnv(t)
	sign := func(method jwt.SigningMethod, key interface{}, claims jwtClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	valid := jwtClaims{
		UserID: "u1", Email: "desk@tenzins.gym", Role: domain.RoleStaff,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noRole := valid
	noRole.Role = ""

	tests := map[string]string{
		"garbage":        "not-a-token",
		"other secret":   sign(jwt.SigningMethodHS256, []byte("someone-else"), valid),
		"expired":        sign(jwt.SigningMethodHS256, []byte("test-secret"), expired),
		"unknown role":   sign(jwt.SigningMethodHS256, []byte("test-secret"), noRole),
		"other hs usage": sign(jwt.SigningMethodHS512, []byte("test-secret"), valid),
	}
	for name, token := range tests {
		if _, err := env.auth.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: err = %v, want ErrInvalidToken", name, err)
		}
	}
	if _, err := env.auth.ParseToken(sign(jwt.SigningMethodHS256, []byte("test-secret"), valid)); err != nil {
		t.Errorf("valid token rejected: %v", err)
	}
}
