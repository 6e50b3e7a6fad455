package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	DebugMode       bool                  `env:"DEBUG_MODE"` //Режим дебага
	CredentialStore CredentialStoreConfig // Где хранится ключ API между запусками
	ElevenLabs      ElevenLabsConfig      // Удалённый синтез речи (ElevenLabs)
	Fallback        FallbackConfig        // Локальный синтезатор на случай ошибок удалённого
	PlayerVolumeDB  float64               `env:"PLAYER_VOLUME_DB"` // Громкость плеера в dB, отрицательные: тише

	// Короткие звуки после ответа в квизе
	SoundCorrectPath string `env:"SOUND_CORRECT_PATH"`
	SoundWrongPath   string `env:"SOUND_WRONG_PATH"`
}

// CredentialStoreConfig конфигурация локального хранилища ключа.
type CredentialStoreConfig struct {
	Backend string `env:"CREDENTIAL_STORE"`      // bolt|sqlite, по умолчанию bolt
	Path    string `env:"CREDENTIAL_STORE_PATH"` // Путь к файлу базы
}

// ElevenLabsConfig конфигурация обращения к ElevenLabs.
// Голос и модель зафиксированы в пакете elevenlabs и через конфиг не меняются.
type ElevenLabsConfig struct {
	APIKey  string        `env:"ELEVENLABS_API_KEY"`  // Ключ на сессию, если в хранилище пусто. В хранилище не пишется
	BaseURL string        `env:"ELEVENLABS_BASE_URL"` // Базовый адрес API
	Timeout time.Duration `env:"ELEVENLABS_TIMEOUT"`  // Таймаут HTTP-клиента; истечение считается сетевой ошибкой
}

// FallbackConfig конфигурация локального синтезатора (espeak-ng/espeak).
type FallbackConfig struct {
	Enabled bool    `env:"FALLBACK_ENABLED"` // Выключение эквивалентно отсутствию синтезатора на устройстве
	Binary  string  `env:"FALLBACK_BINARY"`  // Пусто ищем espeak-ng, затем espeak в PATH
	Voice   string  `env:"FALLBACK_VOICE"`   // Голос espeak; пусто: голос по умолчанию
	Rate    float64 `env:"FALLBACK_RATE"`    // Относительная скорость, 1.0: обычная
	Pitch   float64 `env:"FALLBACK_PITCH"`   // Относительный тон, 1.0: нейтральный
}

const (
	StoreBolt   = "bolt"
	StoreSQLite = "sqlite"
)

// Defaults возвращает конфигурацию с предустановленными значениями по умолчанию.
// Эти значения перекрываются .env, переменными окружения и флагами CLI.
func Defaults() *Config {
	return &Config{
		DebugMode: false,
		CredentialStore: CredentialStoreConfig{
			Backend: StoreBolt,
			Path:    defaultStorePath(),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:  "", // обычно ключ вводится пользователем и лежит в хранилище
			BaseURL: "https://api.elevenlabs.io",
			Timeout: 30 * time.Second,
		},
		Fallback: FallbackConfig{
			Enabled: true,
			Rate:    0.8, // чуть медленнее обычного, так понятнее для ученика
			Pitch:   1.0,
		},
		PlayerVolumeDB:   0,
		SoundCorrectPath: filepath.Join("sound", "correct.mp3"),
		SoundWrongPath:   filepath.Join("sound", "wrong.mp3"),
	}
}

// NewConfig загружает конфигурацию приложения из .env, окружения и флагов командной строки.
// Флаги утилиты нужно объявить до вызова: здесь выполняется flag.Parse.
func NewConfig() *Config {
	cfg, err := Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load собирает конфигурацию: дефолты, затем .env/окружение, затем флаги из args.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	fs.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "включить режим дебага (подробные логи)")
	// Хранилище ключа
	fs.StringVar(&cfg.CredentialStore.Backend, "credential-store", cfg.CredentialStore.Backend, "хранилище ключа API: bolt|sqlite")
	fs.StringVar(&cfg.CredentialStore.Path, "credential-store-path", cfg.CredentialStore.Path, "путь к файлу хранилища ключа")
	// ElevenLabs
	fs.StringVar(&cfg.ElevenLabs.BaseURL, "elevenlabs-base-url", cfg.ElevenLabs.BaseURL, "базовый адрес ElevenLabs API")
	fs.DurationVar(&cfg.ElevenLabs.Timeout, "elevenlabs-timeout", cfg.ElevenLabs.Timeout, "таймаут запроса к ElevenLabs, напр. 30s")
	// Локальный синтезатор
	fs.BoolVar(&cfg.Fallback.Enabled, "fallback-enabled", cfg.Fallback.Enabled, "использовать локальный синтезатор при ошибках удалённого")
	fs.StringVar(&cfg.Fallback.Binary, "fallback-binary", cfg.Fallback.Binary, "исполняемый файл локального синтезатора (по умолчанию espeak-ng или espeak)")
	fs.StringVar(&cfg.Fallback.Voice, "fallback-voice", cfg.Fallback.Voice, "голос локального синтезатора")
	fs.Float64Var(&cfg.Fallback.Rate, "fallback-rate", cfg.Fallback.Rate, "относительная скорость локального синтезатора (1.0: обычная)")
	fs.Float64Var(&cfg.Fallback.Pitch, "fallback-pitch", cfg.Fallback.Pitch, "относительный тон локального синтезатора (1.0: нейтральный)")
	// Плеер и звуки
	fs.Float64Var(&cfg.PlayerVolumeDB, "player-volume-db", cfg.PlayerVolumeDB, "громкость воспроизведения в dB (отрицательные: тише)")
	fs.StringVar(&cfg.SoundCorrectPath, "sound-correct-path", cfg.SoundCorrectPath, "звук правильного ответа (mp3 или wav)")
	fs.StringVar(&cfg.SoundWrongPath, "sound-wrong-path", cfg.SoundWrongPath, "звук неправильного ответа (mp3 или wav)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.CredentialStore.Backend = strings.ToLower(strings.TrimSpace(c.CredentialStore.Backend))
	switch c.CredentialStore.Backend {
	case StoreBolt, StoreSQLite:
	default:
		return fmt.Errorf("config: неизвестное хранилище ключа %q, ожидается bolt или sqlite", c.CredentialStore.Backend)
	}
	if strings.TrimSpace(c.CredentialStore.Path) == "" {
		return fmt.Errorf("config: не задан путь к хранилищу ключа")
	}
	if c.Fallback.Rate <= 0 {
		return fmt.Errorf("config: скорость локального синтезатора должна быть больше нуля, получено %v", c.Fallback.Rate)
	}
	if c.Fallback.Pitch <= 0 {
		return fmt.Errorf("config: тон локального синтезатора должен быть больше нуля, получено %v", c.Fallback.Pitch)
	}
	c.ElevenLabs.BaseURL = strings.TrimRight(strings.TrimSpace(c.ElevenLabs.BaseURL), "/")
	if c.ElevenLabs.BaseURL == "" {
		return fmt.Errorf("config: не задан адрес ElevenLabs API")
	}
	return nil
}

// defaultStorePath кладёт базу в пользовательский каталог настроек, иначе рядом с рабочей директорией.
func defaultStorePath() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "tigrigna-tutor", "settings.db")
	}
	return filepath.Join("data", "settings.db")
}
