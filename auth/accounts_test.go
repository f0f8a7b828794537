package auth

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

type memAccounts struct {
	byID map[string]Account
	next int
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: make(map[string]Account), next: 1}
}

func (m *memAccounts) AccountByEmail(_ context.Context, email string) (Account, error) {
	for _, a := range m.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (m *memAccounts) AccountByID(_ context.Context, id string) (Account, error) {
	a, ok := m.byID[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return a, nil
}

func (m *memAccounts) CreateAccount(_ context.Context, account Account) (Account, error) {
	account.ID = strconv.Itoa(m.next)
	m.next++
	m.byID[account.ID] = account
	return account, nil
}

func TestSignupThenLogin(t *testing.T) {
	svc := NewService(newMemAccounts(), []byte("test-secret"))
	ctx := context.Background()

	created, err := svc.Signup(ctx, "ada@example.com", "hunter2", "ada")
	if err != nil {
		t.Fatal(err)
	}
	if created.Token == "" || created.UserID == "" {
		t.Fatalf("signup returned incomplete session: %+v", created)
	}

	logged, err := svc.Login(ctx, "ada@example.com", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if logged.UserID != created.UserID {
		t.Errorf("login userId = %s, expected %s", logged.UserID, created.UserID)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := NewService(newMemAccounts(), []byte("test-secret"))
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "ada@example.com", "hunter2", "ada"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Signup(ctx, "ada@example.com", "other", "ada2"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, expected ErrEmailTaken", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewService(newMemAccounts(), []byte("test-secret"))
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "ada@example.com", "hunter2", "ada"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, expected ErrUnauthorized", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "hunter2"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("unknown email err = %v, expected ErrUnauthorized", err)
	}
}

func TestResolveToken(t *testing.T) {
	store := newMemAccounts()
	svc := NewService(store, []byte("test-secret"))
	ctx := context.Background()

	session, err := svc.Signup(ctx, "ada@example.com", "hunter2", "ada")
	if err != nil {
		t.Fatal(err)
	}

	identity, err := svc.Resolve(ctx, session.Token)
	if err != nil {
		t.Fatal(err)
	}
	if identity.UserID != session.UserID || identity.Username != "ada" {
		t.Errorf("resolved identity = %+v", identity)
	}
}

func TestResolveGarbageToken(t *testing.T) {
	svc := NewService(newMemAccounts(), []byte("test-secret"))

	if _, err := svc.Resolve(context.Background(), "not.a.token"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, expected ErrUnauthorized", err)
	}
}

func TestResolveStaleVersion(t *testing.T) {
	store := newMemAccounts()
	svc := NewService(store, []byte("test-secret"))
	ctx := context.Background()

	session, err := svc.Signup(ctx, "ada@example.com", "hunter2", "ada")
	if err != nil {
		t.Fatal(err)
	}

	// simulate password change: version bump invalidates older tokens
	account := store.byID[session.UserID]
	hash, _ := bcrypt.GenerateFromPassword([]byte("newpass"), bcrypt.MinCost)
	account.PasswordHash = string(hash)
	account.Version++
	store.byID[session.UserID] = account

	if _, err := svc.Resolve(ctx, session.Token); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, expected ErrUnauthorized for stale token", err)
	}
}
