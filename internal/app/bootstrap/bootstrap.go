package bootstrap

import (
	"TigrignaTutor/internal/config"
	"TigrignaTutor/internal/credential"
	"TigrignaTutor/internal/lesson"
	"TigrignaTutor/internal/service/notify"
	"TigrignaTutor/internal/service/pronunciation"
	"TigrignaTutor/internal/service/tts"
	"TigrignaTutor/internal/service/tts/elevenlabs"
	"TigrignaTutor/internal/service/tts/fallback"
	"TigrignaTutor/internal/service/tts/player"
	"TigrignaTutor/internal/storage/bolt"
	"TigrignaTutor/internal/storage/sqlite"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

// Store хранилище настроек, которое нужно закрыть при выходе.
type Store interface {
	credential.Store
	io.Closer
}

// App собранные зависимости утилит.
type App struct {
	Config  *config.Config
	Logger  *zap.SugaredLogger
	Store   Store
	Service *pronunciation.Service
	Sounds  *notify.SoundNotifier
	Catalog *lesson.Catalog
}

// NewLogger в режиме дебага: development-логгер, иначе production.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// OpenStore открывает хранилище ключа по конфигурации.
func OpenStore(cfg config.CredentialStoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreBolt, "":
		s, err := bolt.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown credential store %q", cfg.Backend)
	}
}

// New собирает сервис произношения, звуки квиза и уроки.
func New(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	store, err := OpenStore(cfg.CredentialStore)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open credential store: %w", err)
	}

	catalog, err := lesson.Load()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("bootstrap: load lessons: %w", err)
	}

	keeper := credential.NewKeeper(ctx, store, cfg.ElevenLabs.APIKey, logger)
	ply := player.NewWithVolume(cfg.PlayerVolumeDB)

	svc := pronunciation.New(keeper, pronunciation.Config{
		Remote:   elevenlabs.New(cfg.ElevenLabs.BaseURL, cfg.ElevenLabs.Timeout, logger),
		Player:   ply,
		Fallback: detectFallback(cfg.Fallback, logger),
		Rate:     cfg.Fallback.Rate,
		Pitch:    cfg.Fallback.Pitch,
		Logger:   logger,
	})

	logger.Infow("Tutor ready",
		"store", cfg.CredentialStore.Backend,
		"storePath", cfg.CredentialStore.Path,
		"credential", keeper.Has(),
	)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Service: svc,
		Sounds:  notify.NewSoundNotifier(logger, ply, cfg.SoundCorrectPath, cfg.SoundWrongPath),
		Catalog: catalog,
	}, nil
}

// detectFallback возвращает nil-интерфейс, если синтезатор выключен или не найден.
func detectFallback(cfg config.FallbackConfig, logger *zap.SugaredLogger) tts.Fallback {
	if !cfg.Enabled {
		logger.Infow("Fallback synthesizer disabled")
		return nil
	}
	e, ok := fallback.Detect(cfg.Binary, cfg.Voice, logger)
	if !ok {
		logger.Warnw("Fallback synthesizer not found", "binary", cfg.Binary)
		return nil
	}
	logger.Infow("Fallback synthesizer selected", "path", e.Path())
	return e
}

// Waiter ждёт завершения начатого воспроизведения.
type Waiter interface {
	Wait(ctx context.Context) error
}

// ErrShutdownTimeout звук не доиграл за отведённое на выход время.
var ErrShutdownTimeout = errors.New("shutdown timeout")

// Drain дожидается отмены ctx, затем не дольше timeout ждёт, пока w доиграет.
// Тайм-аут только логируется: выход из программы он не задерживает.
func Drain(ctx context.Context, w Waiter, timeout time.Duration, logger *zap.SugaredLogger) error {
	<-ctx.Done()
	waitCtx, cancel := context.WithTimeoutCause(context.Background(), timeout, ErrShutdownTimeout)
	defer cancel()
	if err := w.Wait(waitCtx); err != nil {
		logger.Warnw("Playback still running at shutdown", "error", err, "cause", context.Cause(waitCtx))
		return nil
	}
	logger.Debugw("Playback drained")
	return nil
}

func (a *App) Close() error {
	return a.Store.Close()
}
