package auth

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"iamercado/pkg/models"
)

type memUserRepo struct {
	users map[string]*models.User
}

func (r *memUserRepo) GetByEmail(email string) (*models.User, error) {
	if u, ok := r.users[email]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func (r *memUserRepo) GetByID(id uuid.UUID) (*models.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *memUserRepo) Create(user *models.User) error { r.users[user.Email] = user; return nil }
func (r *memUserRepo) Update(user *models.User) error { return nil }

func newTestService(t *testing.T, password string) (*Service, *models.User) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	user := &models.User{
		Email:    "ana@mercado.com",
		Password: string(hash),
		Role:     "admin",
		IsActive: true,
	}
	user.ID = uuid.New()

	repo := &memUserRepo{users: map[string]*models.User{user.Email: user}}
	return NewService(repo), user
}

func TestLoginAndValidate(t *testing.T) {
	svc, user := newTestService(t, "segredo123")

	resp, err := svc.Login(LoginRequest{Email: user.Email, Password: "segredo123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("tokens missing from login response")
	}

	claims, err := svc.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != "admin" || claims.Type != "access" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, user := newTestService(t, "segredo123")

	if _, err := svc.Login(LoginRequest{Email: user.Email, Password: "errada"}); err == nil {
		t.Fatal("wrong password must not authenticate")
	}
	if _, err := svc.Login(LoginRequest{Email: "nao@existe.com", Password: "x"}); err == nil {
		t.Fatal("unknown email must not authenticate")
	}
}

func TestLoginInactiveUser(t *testing.T) {
	svc, user := newTestService(t, "segredo123")
	user.IsActive = false

	if _, err := svc.Login(LoginRequest{Email: user.Email, Password: "segredo123"}); err == nil {
		t.Fatal("inactive user must not authenticate")
	}
}

func TestRefreshToken(t *testing.T) {
	svc, user := newTestService(t, "segredo123")

	resp, err := svc.Login(LoginRequest{Email: user.Email, Password: "segredo123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	refreshed, err := svc.Refresh(resp.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	claims, err := svc.ValidateToken(refreshed.AccessToken)
	if err != nil || claims.Type != "access" {
		t.Fatalf("refreshed token invalid: %v", err)
	}

	// an access token must not pass as a refresh token
	if _, err := svc.Refresh(resp.AccessToken); err == nil {
		t.Fatal("access token accepted as refresh token")
	}
}
