package pronunciation

import (
	"TigrignaTutor/internal/credential"
	"TigrignaTutor/internal/service/tts"
	"TigrignaTutor/internal/service/tts/player"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Request что показать и что произнести. Hint (латиница/фонетика) приоритетнее Text для удалённого синтеза.
type Request struct {
	Text string
	Hint string
}

// SpeakText текст, который уходит в удалённый синтез: Hint без пробелов по краям,
// а если он пустой, то Text как есть.
func (r Request) SpeakText() string {
	if h := strings.TrimSpace(r.Hint); h != "" {
		return h
	}
	return r.Text
}

type Config struct {
	Remote   tts.Synthesizer
	Player   player.Player
	Fallback tts.Fallback // nil синтезатора на устройстве нет
	Rate     float64      // скорость локального синтезатора, 1.0: обычная
	Pitch    float64      // тон локального синтезатора, 1.0: нейтральный
	Logger   *zap.SugaredLogger
}

// Service произносит слова уроков: удалённый синтез, а при ошибке синтезатор на устройстве.
// Ошибки наружу не отдаются, только в лог и в Task.
type Service struct {
	keeper *credential.Keeper
	cfg    Config
	logger *zap.SugaredLogger

	inflight inflight // незавершённые задачи и недоигранные клипы

	// вызывается после освобождения клипа; используется в тестах
	onRelease func(t *Task, clip *player.Clip)
}

func New(keeper *credential.Keeper, cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 0.8
	}
	if cfg.Pitch <= 0 {
		cfg.Pitch = 1
	}
	return &Service{keeper: keeper, cfg: cfg, logger: logger}
}

// Speak произносит text (или hint, если он задан) и сразу возвращает управление.
// Отмена ctx вызов не прерывает: начатое произношение довершается.
func (s *Service) Speak(ctx context.Context, text, hint string) *Task {
	t := newTask(uuid.NewString(), Request{Text: text, Hint: hint})
	s.inflight.add()
	go func() {
		defer s.inflight.done()
		s.run(context.WithoutCancel(ctx), t)
	}()
	return t
}

func (s *Service) run(ctx context.Context, t *Task) {
	log := s.logger.With("task", t.ID)

	apiKey, ok := s.keeper.Resolve(ctx)
	if !ok {
		log.Warnw("ElevenLabs API key not found. Please add your API key in the audio settings.")
		t.finish(NotConfigured, tts.ErrCredentialMissing)
		return
	}

	spoken := t.Request.SpeakText()
	if strings.TrimSpace(spoken) == "" {
		log.Warnw("Пустой текст для произношения, пропускаем")
		t.finish(Silent, errors.New("pronunciation: empty text"))
		return
	}

	started := time.Now()
	audio, err := s.cfg.Remote.Synthesize(ctx, apiKey, spoken)
	if err != nil {
		var rejected *tts.RejectedError
		if errors.As(err, &rejected) {
			log.Errorw("Error playing pronunciation", "status", rejected.StatusCode, "error", err)
		} else {
			log.Errorw("Error playing pronunciation", "error", err)
		}
		s.fallback(ctx, log, t, err)
		return
	}
	log.Debugw("Синтез получен", "bytes", len(audio), "took", time.Since(started).String())

	if err := s.play(log, t, audio); err != nil {
		log.Errorw("Error playing pronunciation", "error", err)
		s.fallback(ctx, log, t, err)
		return
	}
	t.finish(Played, nil)
}

// play запускает воспроизведение. Клип освобождается в колбэке окончания,
// а если старт не удался, то сразу здесь.
func (s *Service) play(log *zap.SugaredLogger, t *Task, audio []byte) error {
	clip := player.NewClip(audio)
	s.inflight.add()
	release := func() {
		if !clip.Release() {
			return
		}
		if s.onRelease != nil {
			s.onRelease(t, clip)
		}
		s.inflight.done()
	}

	if err := s.cfg.Player.Play("mp3", clip.Reader(), func() {
		release()
		log.Debugw("Воспроизведение завершено", "bytes", clip.Size())
	}); err != nil {
		release()
		return err
	}
	return nil
}

// fallback произносит исходный текст (не подсказку) локальным синтезатором.
func (s *Service) fallback(ctx context.Context, log *zap.SugaredLogger, t *Task, cause error) {
	if s.cfg.Fallback == nil {
		log.Warnw("Speech synthesis not supported on this device")
		t.finish(Silent, errors.Join(cause, tts.ErrFallbackUnavailable))
		return
	}
	if err := s.cfg.Fallback.Speak(ctx, t.Request.Text, s.cfg.Rate, s.cfg.Pitch); err != nil {
		log.Warnw("Локальный синтезатор не смог произнести текст", "error", err)
		t.finish(Silent, errors.Join(cause, err))
		return
	}
	t.finish(Fallback, cause)
}

// SetCredential сохраняет ключ API. Пустое значение игнорируется.
func (s *Service) SetCredential(ctx context.Context, value string) error {
	return s.keeper.Set(ctx, value)
}

// ClearCredential удаляет ключ API из памяти и из хранилища.
func (s *Service) ClearCredential(ctx context.Context) error {
	return s.keeper.Clear(ctx)
}

func (s *Service) HasCredential() bool {
	return s.keeper.Has()
}

// Wait ждёт, пока не останется незавершённых задач и воспроизведений, либо отмены ctx.
// Можно звать одновременно со Speak.
func (s *Service) Wait(ctx context.Context) error {
	return s.inflight.wait(ctx)
}
