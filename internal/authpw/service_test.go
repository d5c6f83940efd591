package authpw

import (
	"context"
	"errors"
	"testing"

	"plantpal/api/internal/store"
)

type fakeUserStore struct {
	users map[string]store.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]store.User{}}
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	user, ok := f.users[email]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) CreateUser(_ context.Context, user store.User) (store.User, error) {
	f.users[user.Email] = user
	return user, nil
}

func TestSignUpAndSignIn(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	user, err := svc.SignUp(ctx, SignUpRequest{
		Name:     "Ann",
		Email:    "Ann@Example.com",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if user.Email != "ann@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.PasswordHash == "hunter2hunter2" {
		t.Error("password stored in plaintext")
	}

	signedIn, err := svc.SignIn(ctx, "ann@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if signedIn.Name != "Ann" {
		t.Errorf("expected Ann, got %q", signedIn.Name)
	}
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	req := SignUpRequest{Name: "Ann", Email: "ann@example.com", Password: "hunter2hunter2"}
	if _, err := svc.SignUp(ctx, req); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}
	if _, err := svc.SignUp(ctx, req); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignUpRejectsShortPassword(t *testing.T) {
	svc := NewService(newFakeUserStore())
	if _, err := svc.SignUp(context.Background(), SignUpRequest{
		Name: "Ann", Email: "ann@example.com", Password: "short",
	}); err == nil {
		t.Fatal("expected error for short password")
	}
}

func TestSignInRejectsWrongPassword(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{
		Name: "Ann", Email: "ann@example.com", Password: "hunter2hunter2",
	}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	if _, err := svc.SignIn(ctx, "ann@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.SignIn(ctx, "nobody@example.com", "hunter2hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}
