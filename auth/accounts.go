package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Account is the credential-bearing view of a user. The chat domain has its
// own User type; only this package sees password hashes.
type Account struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Version      int
}

// ErrAccountNotFound is returned by AccountStore lookups.
var ErrAccountNotFound = errors.New("account not found")

var ErrEmailTaken = errors.New("email already exists")

type AccountStore interface {
	AccountByEmail(ctx context.Context, email string) (Account, error)
	AccountByID(ctx context.Context, id string) (Account, error)
	// CreateAccount persists account and returns it with the store-assigned ID.
	CreateAccount(ctx context.Context, account Account) (Account, error)
}

// Session is the result of a successful signup or login.
type Session struct {
	Identity
	Token string `json:"jwt"`
}

type Service struct {
	store  AccountStore
	secret []byte
}

func NewService(store AccountStore, secret []byte) *Service {
	return &Service{store: store, secret: secret}
}

func (s *Service) Signup(ctx context.Context, email, password, username string) (Session, error) {
	_, err := s.store.AccountByEmail(ctx, email)
	if err == nil {
		return Session{}, ErrEmailTaken
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("can't hash password: %w", err)
	}

	if username == "" {
		username = email
	}

	account, err := s.store.CreateAccount(ctx, Account{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Version:      1,
	})
	if err != nil {
		return Session{}, err
	}

	return s.newSession(account)
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	account, err := s.store.AccountByEmail(ctx, email)
	if errors.Is(err, ErrAccountNotFound) {
		return Session{}, ErrUnauthorized
	}
	if err != nil {
		return Session{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrUnauthorized
	}

	return s.newSession(account)
}

// Resolve turns a session token into an identity. It re-reads the account so
// a stale token (older password version, deleted user) is rejected.
func (s *Service) Resolve(ctx context.Context, token string) (Identity, error) {
	claims, err := verifyToken(s.secret, token)
	if err != nil {
		return Identity{}, err
	}

	account, err := s.store.AccountByID(ctx, claims.UserID)
	if errors.Is(err, ErrAccountNotFound) {
		return Identity{}, ErrUnauthorized
	}
	if err != nil {
		return Identity{}, err
	}

	if account.Version != claims.Version {
		return Identity{}, ErrUnauthorized
	}

	return identityOf(account), nil
}

func (s *Service) newSession(account Account) (Session, error) {
	token, err := mintToken(s.secret, account)
	if err != nil {
		return Session{}, err
	}
	return Session{Identity: identityOf(account), Token: token}, nil
}

func identityOf(account Account) Identity {
	return Identity{UserID: account.ID, Email: account.Email, Username: account.Username}
}
