package notify

import (
	ttsplayer "TigrignaTutor/internal/service/tts/player"
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// SoundNotifier проигрывает короткие звуки после ответа в квизе.
type SoundNotifier struct {
	logger      *zap.SugaredLogger
	pathCorrect string
	pathWrong   string
	ply         ttsplayer.Player
}

// NewSoundNotifier создаёт нотификатор. Относительные пути сначала ищем рядом с бинарём,
// затем от текущей рабочей директории.
func NewSoundNotifier(logger *zap.SugaredLogger, ply ttsplayer.Player, pathCorrect, pathWrong string) *SoundNotifier {
	return &SoundNotifier{
		logger:      logger,
		pathCorrect: resolve(pathCorrect),
		pathWrong:   resolve(pathWrong),
		ply:         ply,
	}
}

func resolve(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if exe, err := os.Executable(); err == nil {
		cand := filepath.Join(filepath.Dir(exe), p)
		if _, statErr := os.Stat(cand); statErr == nil {
			return cand
		}
	}
	return filepath.FromSlash(p)
}

// play запускает звук и не ждёт его окончания. Файл закрывается по окончании воспроизведения.
// Ошибки логируются и возвращаются, чтобы вызывающий мог их проигнорировать.
func (n *SoundNotifier) play(ctx context.Context, path string) error {
	if err := context.Cause(ctx); err != nil {
		return err
	}
	if path == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		if n.logger != nil {
			n.logger.Warnw("Не удалось открыть звуковой файл", "path", path, "error", err)
		}
		return err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		ext = "mp3" // по умолчанию
	}

	// При ошибке плеер сам закрывает поток.
	if err := n.ply.Play(ext, f, func() { _ = f.Close() }); err != nil {
		if n.logger != nil {
			n.logger.Warnw("Не удалось воспроизвести звук", "path", path, "error", err)
		}
		return err
	}
	return nil
}

// PlayResult проигрывает звук правильного или неправильного ответа.
func (n *SoundNotifier) PlayResult(ctx context.Context, correct bool) error {
	if correct {
		return n.play(ctx, n.pathCorrect)
	}
	return n.play(ctx, n.pathWrong)
}
