package main

import (
	"TigrignaTutor/internal/app/bootstrap"
	"TigrignaTutor/internal/config"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"
)

// Произносит одно слово и ждёт окончания воспроизведения. Также задаёт или удаляет ключ API.
func main() {
	var (
		text     = flag.String("text", "", "текст для произношения (геэз)")
		hint     = flag.String("hint", "", "подсказка произношения латиницей, уходит в синтез вместо текста")
		setKey   = flag.String("set-key", "", "сохранить ключ ElevenLabs API")
		clearKey = flag.Bool("clear-key", false, "удалить сохранённый ключ ElevenLabs API")
		wait     = flag.Duration("wait", time.Minute, "сколько максимум ждать окончания воспроизведения")
	)
	// Флаги объявлены до NewConfig: там выполняется flag.Parse
	cfg := config.NewConfig()

	logger, err := bootstrap.NewLogger(cfg.DebugMode)
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()
	app, err := bootstrap.New(ctx, cfg, sugar)
	if err != nil {
		sugar.Errorw("Failed to start", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			sugar.Errorw("Failed to close credential store", "error", err)
		}
	}()

	switch {
	case *clearKey:
		if err := app.Service.ClearCredential(ctx); err != nil {
			sugar.Errorw("Failed to clear API key", "error", err)
			return
		}
		fmt.Println("API key removed")
	case *setKey != "":
		if err := app.Service.SetCredential(ctx, *setKey); err != nil {
			sugar.Errorw("Failed to save API key", "error", err)
			return
		}
		fmt.Println("API key saved")
	}

	if *text == "" {
		if !*clearKey && *setKey == "" {
			flag.Usage()
		}
		return
	}

	task := app.Service.Speak(ctx, *text, *hint)

	waitCtx, cancel := context.WithTimeoutCause(ctx, *wait, errors.New("playback wait timeout"))
	defer cancel()
	select {
	case <-task.Done():
	case <-waitCtx.Done():
	}
	// Ждём и сам звук, иначе процесс завершится раньше
	if err := app.Service.Wait(waitCtx); err != nil {
		sugar.Warnw("Playback did not finish", "error", err)
	}
	sugar.Infow("Done", "task", task.ID, "outcome", task.Outcome().String(), "reason", task.Err())
}
