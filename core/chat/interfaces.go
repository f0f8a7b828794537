package chat

import (
	"context"
)

// Store is the persistence collaborator. Implementations must make a
// created record visible to subsequent reads before returning, so a
// subscriber notified of a message never fetches history that lacks it.
type Store interface {
	CreateMessage(ctx context.Context, groupID, authorID, text string) (Message, error)
	// ListMessages returns the group's messages ordered oldest first.
	ListMessages(ctx context.Context, groupID string) ([]Message, error)

	CreateGroup(ctx context.Context, name, creatorID string, memberIDs []string) (Group, error)
	GroupByID(ctx context.Context, id string) (Group, error)
	UpdateGroup(ctx context.Context, id, name string, memberIDs []string) (Group, error)
	RemoveMember(ctx context.Context, groupID, userID string) (Group, error)
	DeleteGroup(ctx context.Context, id string) error

	UserByID(ctx context.Context, id string) (User, error)
}

// Notifier receives successfully committed mutations. The notif package
// implements it on top of the broker.
type Notifier interface {
	MessageCreated(m Message)
	GroupCreated(g Group)
}
