package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"group-chat/auth"
	"group-chat/core/chat"
	"group-chat/core/page"
)

type ChatService interface {
	SendMessage(ctx context.Context, groupID, text string) (chat.Message, error)
	ListMessages(ctx context.Context, groupID string, sel page.Selection) (page.Connection[chat.Message], error)
	CreateGroup(ctx context.Context, name string, memberIDs []string) (chat.Group, error)
	GroupByID(ctx context.Context, groupID string) (chat.Group, error)
	UpdateGroup(ctx context.Context, groupID, name string, memberIDs []string) (chat.Group, error)
	LeaveGroup(ctx context.Context, groupID string) (chat.Group, error)
	DeleteGroup(ctx context.Context, groupID string) error
	Me(ctx context.Context) (chat.User, error)
	UserByID(ctx context.Context, userID string) (chat.User, error)
}

type AccountService interface {
	Signup(ctx context.Context, email, password, username string) (auth.Session, error)
	Login(ctx context.Context, email, password string) (auth.Session, error)
}

type Handler struct {
	chat     ChatService
	accounts AccountService
}

func (h *Handler) signup(ctx context.Context, in *signupInput) (*ResBody[auth.Session], error) {
	session, err := h.accounts.Signup(ctx, in.Body.Email, in.Body.Password, in.Body.Username)
	if err != nil {
		return nil, humaErr(err)
	}
	return &ResBody[auth.Session]{Body: session}, nil
}

func (h *Handler) login(ctx context.Context, in *loginInput) (*ResBody[auth.Session], error) {
	session, err := h.accounts.Login(ctx, in.Body.Email, in.Body.Password)
	if err != nil {
		return nil, humaErr(err)
	}
	return &ResBody[auth.Session]{Body: session}, nil
}

func (h *Handler) me(ctx context.Context, _ *struct{}) (*ResBody[chat.User], error) {
	user, err := h.chat.Me(ctx)
	if err != nil {
		return nil, humaErr(err)
	}
	return &ResBody[chat.User]{Body: user}, nil
}

func (h *Handler) getUser(ctx context.Context, in *userIDInput) (*ResBody[chat.User], error) {
	user, err := h.chat.UserByID(ctx, in.UserID)
	if err != nil {
		return nil, humaErr(err)
	}
	return &ResBody[chat.User]{Body: user}, nil
}

func (h *Handler) createGroup(ctx context.Context, in *createGroupInput) (*ResBody[chat.Group], error) {
	group, err := h.chat.CreateGroup(ctx, in.Body.Name, in.Body.MemberIDs)
	if err != nil {
		return nil, humaErr(err)
	}
	return &ResBody[chat.Group]{Body: group}, nil
}

func (h *Handler) getGroup(ctx context.Context, in *groupIDInput) (*ResBody[chat.Group], error) {
	group, err := h.chat.GroupByID(ctx, in.GroupID)
	if err != nil {
		return nil, humaErr(err)
	}
	return &ResBody[chat.Group]{Body: group}, nil
}

func (h *Handler) updateGroup(ctx context.Context, in *updateGroupInput) (*ResBody[chat.Group], error) {
	group, err := h.chat.UpdateGroup(ctx, in.GroupID, in.Body.Name, in.Body.MemberIDs)
	if err != nil {
		return nil, humaErr(err)
	}
	return &ResBody[chat.Group]{Body: group}, nil
}

func (h *Handler) deleteGroup(ctx context.Context, in *groupIDInput) (*emptyOutput, error) {
	if err := h.chat.DeleteGroup(ctx, in.GroupID); err != nil {
		return nil, humaErr(err)
	}
	return &emptyOutput{}, nil
}

func (h *Handler) leaveGroup(ctx context.Context, in *groupIDInput) (*ResBody[chat.Group], error) {
	group, err := h.chat.LeaveGroup(ctx, in.GroupID)
	if err != nil {
		return nil, humaErr(err)
	}
	return &ResBody[chat.Group]{Body: group}, nil
}

func (h *Handler) listMessages(ctx context.Context, in *getMessagesInput) (*getMessagesOutput, error) {
	conn, err := h.chat.ListMessages(ctx, in.GroupID, in.selection())
	if err != nil {
		return nil, humaErr(err)
	}
	return &getMessagesOutput{Body: conn}, nil
}

func (h *Handler) sendMessage(ctx context.Context, in *sendMessageInput) (*ResBody[chat.Message], error) {
	msg, err := h.chat.SendMessage(ctx, in.GroupID, in.Body.Text)
	if err != nil {
		return nil, humaErr(err)
	}
	return &ResBody[chat.Message]{Body: msg}, nil
}

func humaErr(err error) error {
	var notFound chat.ErrNotFound

	switch {
	case errors.Is(err, chat.ErrNotAuthorized):
		return huma.Error403Forbidden("not authorized")
	case errors.Is(err, auth.ErrUnauthorized):
		return huma.Error401Unauthorized("unauthorized")
	case errors.Is(err, auth.ErrEmailTaken):
		return huma.Error409Conflict("email already exists")
	case errors.Is(err, page.ErrInvalidCursor):
		return huma.Error400BadRequest("invalid cursor")
	case errors.As(err, &notFound):
		return huma.Error404NotFound(notFound.Error())
	}

	return err
}
