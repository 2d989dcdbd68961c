package main

import (
	"assistbot/app/api"
	"assistbot/app/client/google"
	"assistbot/app/client/llm"
	"assistbot/app/client/mailer"
	"assistbot/app/client/telegram"
	"assistbot/app/config"
	"assistbot/app/service/buttons"
	"assistbot/app/service/catalog"
	"assistbot/app/service/dialog"
	"assistbot/app/service/engine"
	"assistbot/app/service/examples"
	"assistbot/app/service/history"
	"assistbot/app/service/order"
	"assistbot/app/service/prompt"
	"assistbot/app/service/queue"
	"assistbot/app/util/mylog"
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, google.NewClient)
	do.Provide(di, telegram.NewClient)
	do.Provide(di, mailer.NewClient)
	do.Provide(di, llm.NewClient)
	do.Provide(di, history.New)
	do.Provide(di, prompt.New)
	do.Provide(di, catalog.New)
	do.Provide(di, prompt.NewFromLoader)
	do.Provide(di, buttons.New)
	do.Provide(di, order.NewStore)
	do.Provide(di, order.NewNotifiers)
	do.Provide(di, order.New)
	do.Provide(di, examples.New)
	do.Provide(di, dialog.New)
	do.Provide(di, queue.New)
	do.Provide(di, engine.New)
	do.Provide(di, api.New)

	queueSvc := do.MustInvoke[*queue.Service](di)
	tgClient := do.MustInvoke[*telegram.Client](di)
	tgClient.SetListener(func(event telegram.Event) {
		queueSvc.Add(event)
	})

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	go runOrCancel(appCtx, cancel, "telegram", tgClient.Run)
	go runOrCancel(appCtx, cancel, "engine", do.MustInvoke[*engine.Service](di).Run)
	go runOrCancel(appCtx, cancel, "http", do.MustInvoke[*api.Server](di).Run)

	<-appCtx.Done()
}

func runOrCancel(ctx context.Context, cancel context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		slog.Error("Component stopped", "component", name, "error", err)
		cancel()
	}
}
