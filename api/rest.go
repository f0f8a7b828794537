package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humafiber"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	fiberRecover "github.com/gofiber/fiber/v2/middleware/recover"

	"group-chat/auth"
	"group-chat/core/chat"
	"group-chat/core/page"
)

type signupInput struct {
	Body struct {
		Email    string `json:"email" format:"email" maxLength:"100" required:"true"`
		Password string `json:"password" minLength:"8" maxLength:"72" required:"true"`
		Username string `json:"username" maxLength:"50"`
	}
}

type loginInput struct {
	Body struct {
		Email    string `json:"email" format:"email" maxLength:"100" required:"true"`
		Password string `json:"password" maxLength:"72" required:"true"`
	}
}

type createGroupInput struct {
	Body struct {
		Name      string   `json:"name" minLength:"1" maxLength:"100" required:"true"`
		MemberIDs []string `json:"memberIds" maxItems:"100"`
	}
}

type groupIDInput struct {
	GroupID string `path:"GroupID" maxLength:"30" example:"456" required:"true"`
}

type userIDInput struct {
	UserID string `path:"UserID" maxLength:"30" example:"123" required:"true"`
}

type updateGroupInput struct {
	GroupID string `path:"GroupID" maxLength:"30" required:"true"`
	Body    struct {
		Name      string   `json:"name" maxLength:"100"`
		MemberIDs []string `json:"memberIds" maxItems:"100"`
	}
}

type sendMessageInput struct {
	GroupID string `path:"GroupID" maxLength:"30" example:"456" required:"true"`
	Body    struct {
		Text string `json:"text" minLength:"1" maxLength:"300" required:"true"`
	}
}

type getMessagesInput struct {
	GroupID string `path:"GroupID" maxLength:"30" example:"456" required:"true"`
	First   *int   `query:"first" minimum:"0" maximum:"50"`
	After   string `query:"after" maxLength:"64"`
	Last    *int   `query:"last" minimum:"0" maximum:"50"`
	Before  string `query:"before" maxLength:"64"`
}

func (in *getMessagesInput) selection() page.Selection {
	return page.Selection{First: in.First, After: in.After, Last: in.Last, Before: in.Before}
}

type getMessagesOutput struct {
	Body page.Connection[chat.Message]
}

type ResBody[T any] struct {
	Body T
}

type emptyOutput struct{}

func setFiberMiddleWares(app *fiber.App, resolver auth.TokenResolver) {
	app.Use(pprof.New())
	app.Use(fiberRecover.New())
	app.Use(auth.NewFiberMiddleware(resolver))
	app.Use(otelfiber.Middleware(otelfiber.WithTracerProvider(otel.GetTracerProvider())))
}

func registerEndpoints(api huma.API, handler Handler) {
	huma.Register(api, huma.Operation{
		OperationID:   "signup",
		Method:        "POST",
		Path:          "/signup",
		DefaultStatus: 201,
	}, handler.signup)

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      "POST",
		Path:        "/login",
	}, handler.login)

	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      "GET",
		Path:        "/users/me",
	}, handler.me)

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      "GET",
		Path:        "/users/{UserID}",
	}, handler.getUser)

	huma.Register(api, huma.Operation{
		OperationID:   "create-group",
		Method:        "POST",
		Path:          "/groups",
		DefaultStatus: 201,
	}, handler.createGroup)

	huma.Register(api, huma.Operation{
		OperationID: "get-group",
		Method:      "GET",
		Path:        "/groups/{GroupID}",
	}, handler.getGroup)

	huma.Register(api, huma.Operation{
		OperationID: "update-group",
		Method:      "PATCH",
		Path:        "/groups/{GroupID}",
	}, handler.updateGroup)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-group",
		Method:        "DELETE",
		Path:          "/groups/{GroupID}",
		DefaultStatus: 204,
	}, handler.deleteGroup)

	huma.Register(api, huma.Operation{
		OperationID: "leave-group",
		Method:      "POST",
		Path:        "/groups/{GroupID}/leave",
	}, handler.leaveGroup)

	huma.Register(api, huma.Operation{
		OperationID: "list-messages",
		Method:      "GET",
		Path:        "/groups/{GroupID}/messages",
	}, handler.listMessages)

	huma.Register(api, huma.Operation{
		OperationID:   "send-message",
		Summary:       "Sending new message",
		Method:        "POST",
		Path:          "/groups/{GroupID}/messages",
		DefaultStatus: 201,
	}, handler.sendMessage)
}

func Initialize(chatSVC ChatService, accountSVC AccountService, resolver auth.TokenResolver) (*fiber.App, error) {
	app := fiber.New()

	setFiberMiddleWares(app, resolver)

	api := humafiber.New(app, huma.DefaultConfig("Group Chat API", "0.0.0-alpha-0"))

	api.UseMiddleware(func(ctx huma.Context, next func(huma.Context)) {
		next(fiberHumaCtx{ctx}) // to use fiber's Ctx.Context() and Ctx.UserContext()
	})

	handler := Handler{chat: chatSVC, accounts: accountSVC}

	registerEndpoints(api, handler)

	return app, nil
}

type humaCtx = huma.Context
type fiberHumaCtx struct {
	humaCtx
}

func (c fiberHumaCtx) Context() context.Context {
	return ctx{c.humaCtx.Context()}
}

// Overrides Value function to merge values from fiber's UserContext() and context.Context
type ctx struct {
	context.Context
}

func (c ctx) Value(key any) any {
	// userContextKey define the key name for storing context.Context in *fasthttp.RequestCtx
	const userContextKey = "__local_user_context__"

	v := c.Context.Value(key)
	if v != nil {
		return v
	}

	fiberUserCtx, ok := c.Context.Value(userContextKey).(context.Context)
	if ok {
		return fiberUserCtx.Value(key)
	}

	return nil
}
