package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"

	"group-chat/api"
	"group-chat/auth"
	"group-chat/config"
	"group-chat/core/chat"
	"group-chat/core/notif"
	"group-chat/core/pubsub"
	"group-chat/pkg/observe"
	"group-chat/repo"
	"group-chat/ws"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	conf, err := config.New()
	if err != nil {
		panic(err)
	}

	observeOpts := observe.Options().
		WithService("group-chat", "chatting").
		EnableMeterProvider()

	otelShutdown, err := observe.SetupOTelSDK(context.TODO(), observeOpts)
	if err != nil {
		panic(fmt.Errorf("can't setup opentelementry: %w", err))
	}
	defer otelShutdown(context.Background())

	mongoCli := repo.NewInsecureMongoCli(&repo.MongoConf{
		MongoHost: conf.MongoHost,
		MongoUser: conf.MongoUser,
		MongoPass: conf.MongoPass,
		MongoPort: conf.MongoPort,
	})
	defer mongoCli.Disconnect(context.Background())

	store, err := repo.NewMongoStore(mongoCli)
	if err != nil {
		panic(fmt.Errorf("can't create mongodb store: %w", err))
	}

	if conf.SeedDev {
		if err := repo.Seed(context.Background(), store); err != nil {
			panic(fmt.Errorf("can't seed dev data: %w", err))
		}
	}

	broker := pubsub.NewBroker()
	dispatcher := notif.NewDispatcher(broker)

	accounts := auth.NewService(store, []byte(conf.JWTSecret))
	chatSVC := chat.NewService(store, dispatcher)

	app, err := api.Initialize(chatSVC, accounts, accounts)
	if err != nil {
		panic(err)
	}

	observe.ServeFiberPromMetrics("/metrics", app)

	app.Use("/ws", ws.UpgradeRequired)
	app.Get("/ws", ws.NewHandler(dispatcher, accounts))

	app.Use(healthcheck.New(healthcheck.Config{
		ReadinessProbe: func(c *fiber.Ctx) bool {
			ctx, cancel := context.WithTimeout(context.Background(), 700*time.Millisecond)
			defer cancel()
			return mongoCli.Ping(ctx, nil) == nil
		},
	}))

	go func() {
		if err := app.Listen(":" + strconv.Itoa(conf.HTTPPort)); err != nil {
			slog.Error("server stopped", "err", err)
		}
	}()

	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGTERM, syscall.SIGINT)
	<-s

	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		slog.Error("shutdown", "err", err)
	}
}
