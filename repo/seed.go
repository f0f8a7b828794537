package repo

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"group-chat/auth"
)

var seedAccounts = []auth.Account{
	{Email: "alice@example.com", Username: "alice"},
	{Email: "bob@example.com", Username: "bob"},
	{Email: "carol@example.com", Username: "carol"},
}

// Seed fills a fresh local database with demo accounts (password "password")
// and one shared group. A database that already holds any of the demo
// accounts is left untouched.
func Seed(ctx context.Context, store *Store) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		return err
	}

	memberIDs := make([]string, 0, len(seedAccounts))
	for _, acc := range seedAccounts {
		acc.PasswordHash = string(hash)
		acc.Version = 1

		created, err := store.CreateAccount(ctx, acc)
		if errors.Is(err, auth.ErrEmailTaken) {
			return nil
		}
		if err != nil {
			return err
		}
		memberIDs = append(memberIDs, created.ID)
	}

	group, err := store.CreateGroup(ctx, "general", memberIDs[0], memberIDs)
	if err != nil {
		return err
	}

	_, err = store.CreateMessage(ctx, group.ID, memberIDs[0], "welcome to general")
	return err
}
