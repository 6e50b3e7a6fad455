package elevenlabs

import (
	"TigrignaTutor/internal/service/tts"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	provider        = "elevenlabs"
	defaultBaseURL  = "https://api.elevenlabs.io"
	maxAudioBytes   = 10 << 20 // до 10 МБ mp3
	maxErrBodyBytes = 4096
)

// VoiceProfile голос и параметры синтеза. Постоянная конфигурация, пользователь её не меняет.
type VoiceProfile struct {
	VoiceID         string
	ModelID         string
	Stability       float64
	SimilarityBoost float64
}

// DefaultVoice Aria, мультиязычный голос, который справляется с тигринья.
var DefaultVoice = VoiceProfile{
	VoiceID:         "9BWtsMINqrJLrRacOk9x",
	ModelID:         "eleven_multilingual_v2",
	Stability:       0.5,
	SimilarityBoost: 0.5,
}

type requestPayload struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Client реализует tts.Synthesizer поверх ElevenLabs text-to-speech.
type Client struct {
	http    *http.Client
	baseURL string
	voice   VoiceProfile
	logger  *zap.SugaredLogger
}

// New создаёт клиента. Пустой baseURL означает публичный API, timeout <= 0 отключает собственный таймаут.
func New(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	hc := &http.Client{}
	if timeout > 0 {
		hc.Timeout = timeout
	}
	return &Client{http: hc, baseURL: baseURL, voice: DefaultVoice, logger: logger}
}

// Synthesize отправляет текст в ElevenLabs и возвращает mp3.
// Ключ уходит только в заголовке xi-api-key и нигде не логируется.
func (c *Client) Synthesize(ctx context.Context, apiKey string, text string) ([]byte, error) {
	body, err := json.Marshal(&requestPayload{
		Text:    text,
		ModelID: c.voice.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       c.voice.Stability,
			SimilarityBoost: c.voice.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/v1/text-to-speech/" + c.voice.VoiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", apiKey)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &tts.NetworkError{Provider: provider, Op: "send request", Err: err}
	}
	defer resp.Body.Close()

	if c.logger != nil {
		c.logger.Debugw("ElevenLabs request completed", "status", resp.StatusCode, "took", time.Since(started).String())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBodyBytes))
		if len(b) == 0 {
			b = []byte(resp.Status)
		}
		return nil, &tts.RejectedError{Provider: provider, StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return nil, &tts.NetworkError{Provider: provider, Op: "read audio", Err: err}
	}
	if len(audio) > maxAudioBytes {
		return nil, fmt.Errorf("elevenlabs tts: audio payload exceeds %d bytes", maxAudioBytes)
	}
	if len(audio) == 0 {
		return nil, tts.ErrEmptyAudio
	}
	return audio, nil
}
