package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFutureWaitSuspendsUntilComplete(t *testing.T) {
	f := NewFuture()

	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Complete(Identity{UserID: "9"}, nil)
	}()

	identity, err := f.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if identity.UserID != "9" {
		t.Errorf("identity = %+v", identity)
	}
}

func TestFutureCompleteIsSingleAssignment(t *testing.T) {
	f := NewFuture()
	f.Complete(Identity{UserID: "first"}, nil)
	f.Complete(Identity{UserID: "second"}, nil)

	identity, err := f.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if identity.UserID != "first" {
		t.Errorf("identity = %+v, expected the first completion to win", identity)
	}
}

func TestFutureWaitHonorsContext(t *testing.T) {
	f := NewFuture()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := f.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, expected deadline exceeded", err)
	}
}

func TestFutureErr(t *testing.T) {
	f := NewFuture()
	if f.Err() != nil {
		t.Error("Err should be nil before completion")
	}

	f.Complete(Identity{}, ErrUnauthorized)
	if !errors.Is(f.Err(), ErrUnauthorized) {
		t.Errorf("Err = %v", f.Err())
	}
}
