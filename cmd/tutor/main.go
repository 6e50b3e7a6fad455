package main

import (
	"TigrignaTutor/internal/app/bootstrap"
	"TigrignaTutor/internal/app/tutor"
	"TigrignaTutor/internal/config"
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// Интерактивный урок тигринья в терминале: буквы, числа, словарь, слова, квизы и произношение.
func main() {
	cfg := config.NewConfig()

	// создаём регистратор zap
	logger, err := bootstrap.NewLogger(cfg.DebugMode)
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	//сброс буфера логгера
	defer func() {
		_ = logger.Sync()
	}()

	// Ctrl+C / SIGTERM завершают урок
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, sugar)
	if err != nil {
		sugar.Errorw("Failed to start tutor", "error", err)
		return
	}
	defer func() {
		if err := app.Close(); err != nil {
			sugar.Errorw("Failed to close credential store", "error", err)
		}
	}()

	if !app.Service.HasCredential() {
		sugar.Infow("ElevenLabs API key is not set, use \"key set <value>\" to enable pronunciation")
	}

	sess := tutor.NewSession(app.Catalog, app.Service, app.Sounds, os.Stdout, sugar)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// выход из урока отменяет gctx и запускает дослушивание
		defer stop()
		return sess.Run(gctx, os.Stdin)
	})
	// Дослушиваем начатое произношение, но не бесконечно
	g.Go(func() error {
		return bootstrap.Drain(gctx, app.Service, 5*time.Second, sugar)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		sugar.Errorw("Tutor stopped with error", "error", err)
	}
	sugar.Infow("Tutor stopped")
}
