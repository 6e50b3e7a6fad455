package tts

import (
	"context"
	"errors"
	"fmt"
)

// Synthesizer абстракция удалённого TTS. Возвращает готовое аудио (mp3) и ничего не воспроизводит.
// apiKey передаётся на каждый вызов: ключ может смениться между вызовами.
type Synthesizer interface {
	Synthesize(ctx context.Context, apiKey string, text string) ([]byte, error)
}

// Fallback синтезатор на устройстве. Запускает речь и не сообщает о её завершении.
// rate и pitch относительные, 1.0 соответствует значениям по умолчанию.
type Fallback interface {
	Speak(ctx context.Context, text string, rate, pitch float64) error
}

var (
	// ErrCredentialMissing ключ API не настроен; удалённый синтез даже не пробуем.
	ErrCredentialMissing = errors.New("tts: credential not configured")
	// ErrFallbackUnavailable на устройстве нет синтезатора речи.
	ErrFallbackUnavailable = errors.New("tts: on-device synthesizer unavailable")
	// ErrEmptyAudio сервис ответил успехом, но без аудио.
	ErrEmptyAudio = errors.New("tts: empty audio payload")
)

// RejectedError сервис синтеза ответил статусом вне 2xx.
type RejectedError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s tts error: status=%d, body=%s", e.Provider, e.StatusCode, e.Body)
}

// NetworkError запрос не ушёл или ответ не удалось дочитать (включая таймаут).
type NetworkError struct {
	Provider string
	Op       string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s tts: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
