package fallback

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Базовые значения espeak: 175 слов в минуту и тон 50 из 0..99.
const (
	espeakWPM   = 175
	espeakPitch = 50
)

// Кандидаты в порядке предпочтения, если бинарь не указан явно.
var defaultBinaries = []string{"espeak-ng", "espeak"}

// Espeak синтезатор речи на устройстве поверх espeak-ng/espeak.
type Espeak struct {
	path   string
	voice  string
	logger *zap.SugaredLogger

	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// Detect ищет синтезатор в PATH. Если binary пустой, пробует espeak-ng, затем espeak.
// Второе значение false означает, что на устройстве синтезатора нет.
func Detect(binary, voice string, logger *zap.SugaredLogger) (*Espeak, bool) {
	return detect(exec.LookPath, binary, voice, logger)
}

func detect(lookPath func(string) (string, error), binary, voice string, logger *zap.SugaredLogger) (*Espeak, bool) {
	candidates := defaultBinaries
	if b := strings.TrimSpace(binary); b != "" {
		candidates = []string{b}
	}
	for _, name := range candidates {
		path, err := lookPath(name)
		if err != nil {
			continue
		}
		return &Espeak{path: path, voice: strings.TrimSpace(voice), logger: logger, command: exec.CommandContext}, true
	}
	return nil, false
}

// Path путь к найденному бинарю.
func (e *Espeak) Path() string { return e.path }

// Speak запускает произношение и не ждёт его окончания; процесс дожидается фоновая горутина.
func (e *Espeak) Speak(ctx context.Context, text string, rate, pitch float64) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("espeak: empty text")
	}
	cmd := e.command(context.WithoutCancel(ctx), e.path, e.args(text, rate, pitch)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("espeak: start: %w", err)
	}
	go func() {
		if err := cmd.Wait(); err != nil && e.logger != nil {
			e.logger.Warnw("Локальный синтезатор завершился с ошибкой", "binary", e.path, "error", err)
		}
	}()
	return nil
}

// args собирает аргументы командной строки. Текст идёт последним и отделён "--",
// чтобы слово, начинающееся с дефиса, не приняли за флаг.
func (e *Espeak) args(text string, rate, pitch float64) []string {
	if rate <= 0 {
		rate = 1
	}
	if pitch < 0 {
		pitch = 1
	}
	wpm := int(math.Round(espeakWPM * rate))
	p := int(math.Round(espeakPitch * pitch))
	p = max(0, min(99, p))

	args := []string{"-s", strconv.Itoa(wpm), "-p", strconv.Itoa(p)}
	if e.voice != "" {
		args = append(args, "-v", e.voice)
	}
	return append(args, "--", text)
}
