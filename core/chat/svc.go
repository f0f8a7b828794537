package chat

import (
	"context"
	"slices"

	"group-chat/auth"
	"group-chat/core/page"
)

func NewService(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

type Service struct {
	store    Store
	notifier Notifier
}

// SendMessage persists a message from the current user and, only after the
// write committed, hands it to the notifier. A failed write never publishes.
func (s *Service) SendMessage(ctx context.Context, groupID, text string) (Message, error) {
	user, err := s.member(ctx, groupID)
	if err != nil {
		return Message{}, err
	}

	msg, err := s.store.CreateMessage(ctx, groupID, user.UserID, text)
	if err != nil {
		return Message{}, err
	}

	s.notifier.MessageCreated(msg)
	return msg, nil
}

// ListMessages pages through a group's history, oldest first.
func (s *Service) ListMessages(ctx context.Context, groupID string, sel page.Selection) (page.Connection[Message], error) {
	if _, err := s.member(ctx, groupID); err != nil {
		return page.Connection[Message]{}, err
	}

	msgs, err := s.store.ListMessages(ctx, groupID)
	if err != nil {
		return page.Connection[Message]{}, err
	}

	return page.Build(msgs, func(m Message) string { return m.ID }, sel)
}

// CreateGroup creates a group with the current user as creator and member,
// then publishes the member snapshot.
func (s *Service) CreateGroup(ctx context.Context, name string, memberIDs []string) (Group, error) {
	user, ok := auth.IdentityFromCtx(ctx)
	if !ok {
		return Group{}, ErrNotAuthorized
	}

	if !slices.Contains(memberIDs, user.UserID) {
		memberIDs = append(memberIDs, user.UserID)
	}

	group, err := s.store.CreateGroup(ctx, name, user.UserID, memberIDs)
	if err != nil {
		return Group{}, err
	}

	s.notifier.GroupCreated(group)
	return group, nil
}

func (s *Service) GroupByID(ctx context.Context, groupID string) (Group, error) {
	user, ok := auth.IdentityFromCtx(ctx)
	if !ok {
		return Group{}, ErrNotAuthorized
	}

	group, err := s.store.GroupByID(ctx, groupID)
	if err != nil {
		return Group{}, err
	}
	if !group.HasMember(user.UserID) {
		return Group{}, ErrNotAuthorized
	}
	return group, nil
}

func (s *Service) UpdateGroup(ctx context.Context, groupID, name string, memberIDs []string) (Group, error) {
	if _, err := s.member(ctx, groupID); err != nil {
		return Group{}, err
	}
	return s.store.UpdateGroup(ctx, groupID, name, memberIDs)
}

// LeaveGroup removes the current user; the last member leaving deletes the
// group entirely.
func (s *Service) LeaveGroup(ctx context.Context, groupID string) (Group, error) {
	user, err := s.member(ctx, groupID)
	if err != nil {
		return Group{}, err
	}

	group, err := s.store.RemoveMember(ctx, groupID, user.UserID)
	if err != nil {
		return Group{}, err
	}

	if len(group.MemberIDs) == 0 {
		if err := s.store.DeleteGroup(ctx, groupID); err != nil {
			return Group{}, err
		}
	}
	return group, nil
}

func (s *Service) DeleteGroup(ctx context.Context, groupID string) error {
	if _, err := s.member(ctx, groupID); err != nil {
		return err
	}
	return s.store.DeleteGroup(ctx, groupID)
}

func (s *Service) Me(ctx context.Context) (User, error) {
	user, ok := auth.IdentityFromCtx(ctx)
	if !ok {
		return User{}, ErrNotAuthorized
	}
	return s.store.UserByID(ctx, user.UserID)
}

func (s *Service) UserByID(ctx context.Context, userID string) (User, error) {
	if _, ok := auth.IdentityFromCtx(ctx); !ok {
		return User{}, ErrNotAuthorized
	}
	return s.store.UserByID(ctx, userID)
}

// member returns the current identity if it belongs to the group.
func (s *Service) member(ctx context.Context, groupID string) (auth.Identity, error) {
	user, ok := auth.IdentityFromCtx(ctx)
	if !ok {
		return auth.Identity{}, ErrNotAuthorized
	}

	group, err := s.store.GroupByID(ctx, groupID)
	if err != nil {
		return auth.Identity{}, err
	}
	if !group.HasMember(user.UserID) {
		return auth.Identity{}, ErrNotAuthorized
	}
	return user, nil
}
