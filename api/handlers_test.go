package api

import (
	"context"
	"errors"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"

	"group-chat/auth"
	"group-chat/core/chat"
	"group-chat/core/page"
)

type mockChat struct {
	err   error
	msg   chat.Message
	group chat.Group
}

func (s *mockChat) SendMessage(ctx context.Context, groupID, text string) (chat.Message, error) {
	return s.msg, s.err
}
func (s *mockChat) ListMessages(ctx context.Context, groupID string, sel page.Selection) (page.Connection[chat.Message], error) {
	if s.err != nil {
		return page.Connection[chat.Message]{}, s.err
	}
	return page.Build([]chat.Message{{ID: "id_test", GroupID: groupID}},
		func(m chat.Message) string { return m.ID }, sel)
}
func (s *mockChat) CreateGroup(ctx context.Context, name string, memberIDs []string) (chat.Group, error) {
	return s.group, s.err
}
func (s *mockChat) GroupByID(ctx context.Context, groupID string) (chat.Group, error) {
	return s.group, s.err
}
func (s *mockChat) UpdateGroup(ctx context.Context, groupID, name string, memberIDs []string) (chat.Group, error) {
	return s.group, s.err
}
func (s *mockChat) LeaveGroup(ctx context.Context, groupID string) (chat.Group, error) {
	return s.group, s.err
}
func (s *mockChat) DeleteGroup(ctx context.Context, groupID string) error { return s.err }
func (s *mockChat) Me(ctx context.Context) (chat.User, error)             { return chat.User{ID: "id_test"}, s.err }
func (s *mockChat) UserByID(ctx context.Context, userID string) (chat.User, error) {
	return chat.User{ID: userID}, s.err
}

type mockAccounts struct {
	err     error
	session auth.Session
}

func (s *mockAccounts) Signup(ctx context.Context, email, password, username string) (auth.Session, error) {
	return s.session, s.err
}
func (s *mockAccounts) Login(ctx context.Context, email, password string) (auth.Session, error) {
	return s.session, s.err
}

func TestHandler_listMessages(t *testing.T) {
	_, api := humatest.New(t)
	mockSvc := &mockChat{}
	h := Handler{chat: mockSvc, accounts: &mockAccounts{}}

	registerEndpoints(api, h)

	tests := []struct {
		name       string
		svcErr     error
		wantStatus int
	}{
		{"not a member", chat.ErrNotAuthorized, 403},
		{"unknown group", chat.ErrNotFound{Type: "group", ID: "456"}, 404},
		{"bad cursor", page.ErrInvalidCursor, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc.err = tt.svcErr

			_, err := h.listMessages(context.Background(), &getMessagesInput{GroupID: "456"})
			if err == nil {
				t.Fatal("listMessages() expected an error")
			}
			var errModel huma.StatusError
			errors.As(err, &errModel)
			if errModel.GetStatus() != tt.wantStatus {
				t.Errorf("listMessages() error = %v, expected status %v", err, tt.wantStatus)
			}
		})
	}
}

func TestHandler_listMessagesPagesEdges(t *testing.T) {
	mockSvc := &mockChat{}
	h := Handler{chat: mockSvc, accounts: &mockAccounts{}}

	first := 5
	out, err := h.listMessages(context.Background(), &getMessagesInput{GroupID: "456", First: &first})
	if err != nil {
		t.Fatalf("listMessages() error = %v", err)
	}
	if len(out.Body.Edges) != 1 || out.Body.Edges[0].Node.ID != "id_test" {
		t.Errorf("unexpected connection %+v", out.Body)
	}
	if out.Body.Edges[0].Cursor == "" {
		t.Error("edge should carry an opaque cursor")
	}
}

func TestHandler_sendMessage(t *testing.T) {
	mockSvc := &mockChat{msg: chat.Message{ID: "id_test"}}
	h := Handler{chat: mockSvc, accounts: &mockAccounts{}}

	in := &sendMessageInput{GroupID: "456"}
	in.Body.Text = "hi"

	got, err := h.sendMessage(context.Background(), in)
	if err != nil {
		t.Fatalf("sendMessage() error = %v", err)
	}
	if got.Body.ID != "id_test" {
		t.Errorf("sendMessage() = %+v", got.Body)
	}

	mockSvc.err = chat.ErrNotAuthorized
	_, err = h.sendMessage(context.Background(), in)
	var errModel huma.StatusError
	if !errors.As(err, &errModel) || errModel.GetStatus() != 403 {
		t.Errorf("sendMessage() error = %v, expected 403", err)
	}
}

func TestHandler_signup(t *testing.T) {
	mockAcc := &mockAccounts{session: auth.Session{Token: "jwt_test"}}
	h := Handler{chat: &mockChat{}, accounts: mockAcc}

	in := &signupInput{}
	in.Body.Email = "a@example.com"
	in.Body.Password = "secret-pass"

	got, err := h.signup(context.Background(), in)
	if err != nil {
		t.Fatalf("signup() error = %v", err)
	}
	if got.Body.Token != "jwt_test" {
		t.Errorf("signup() = %+v", got.Body)
	}

	mockAcc.err = auth.ErrEmailTaken
	_, err = h.signup(context.Background(), in)
	var errModel huma.StatusError
	if !errors.As(err, &errModel) || errModel.GetStatus() != 409 {
		t.Errorf("signup() error = %v, expected 409", err)
	}
}

func TestHandler_loginUnauthorized(t *testing.T) {
	mockAcc := &mockAccounts{err: auth.ErrUnauthorized}
	h := Handler{chat: &mockChat{}, accounts: mockAcc}

	in := &loginInput{}
	in.Body.Email = "a@example.com"
	in.Body.Password = "wrong"

	_, err := h.login(context.Background(), in)
	var errModel huma.StatusError
	if !errors.As(err, &errModel) || errModel.GetStatus() != 401 {
		t.Errorf("login() error = %v, expected 401", err)
	}
}

func TestRegisteredRoutes(t *testing.T) {
	_, api := humatest.New(t)
	h := Handler{chat: &mockChat{group: chat.Group{ID: "g1"}}, accounts: &mockAccounts{}}

	registerEndpoints(api, h)

	resp := api.Get("/groups/g1/messages?first=2")
	if resp.Code != 200 {
		t.Errorf("GET messages status = %d, body %s", resp.Code, resp.Body.String())
	}

	resp = api.Post("/groups", map[string]any{"name": "fun group"})
	if resp.Code != 201 {
		t.Errorf("POST /groups status = %d, body %s", resp.Code, resp.Body.String())
	}

	resp = api.Delete("/groups/g1")
	if resp.Code != 204 {
		t.Errorf("DELETE /groups/g1 status = %d, body %s", resp.Code, resp.Body.String())
	}
}
