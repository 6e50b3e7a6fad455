package player

import (
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// ErrUnsupportedFormat формат нельзя проиграть напрямую.
var ErrUnsupportedFormat = errors.New("unsupported format for direct playback; use mp3 or wav")

// Player запускает воспроизведение и сразу возвращает управление.
// done вызывается один раз, когда звук доиграл до конца. При ошибке done не вызывается.
type Player interface {
	Play(format string, r io.ReadCloser, done func()) error
}

// Частота, на которой работает динамик. Всё остальное ресемплим, чтобы несколько
// одновременных воспроизведений смешивались, а не переинициализировали динамик.
const outputRate = beep.SampleRate(44100)

// Default реализует Player на beep и поддерживает mp3 и wav.
type Default struct {
	volumeDB float64

	initOnce sync.Once
	initErr  error
}

// New создаёт плеер без изменения громкости (0 dB).
func New() *Default { return &Default{volumeDB: 0} }

// NewWithVolume создаёт плеер с предустановленной громкостью в dB (отрицательные: тише).
func NewWithVolume(db float64) *Default { return &Default{volumeDB: db} }

func (d *Default) Play(format string, r io.ReadCloser, done func()) error {
	var (
		streamer beep.StreamSeekCloser
		f        beep.Format
		err      error
	)
	switch strings.ToLower(format) {
	case "wav":
		streamer, f, err = wav.Decode(r)
	case "mp3":
		streamer, f, err = mp3.Decode(r)
	default:
		_ = r.Close()
		return ErrUnsupportedFormat
	}
	if err != nil {
		_ = r.Close()
		return err
	}

	if err := d.init(); err != nil {
		_ = streamer.Close()
		return err
	}

	var s beep.Streamer = streamer
	if f.SampleRate != outputRate {
		s = beep.Resample(4, f.SampleRate, outputRate, streamer)
	}
	vol := &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   d.volumeDB,
		Silent:   false,
	}
	// Callback выполняется в горутине динамика под его блокировкой: внутри нельзя звать speaker.*
	speaker.Play(beep.Seq(vol, beep.Callback(func() {
		_ = streamer.Close()
		if done != nil {
			done()
		}
	})))
	return nil
}

func (d *Default) init() error {
	d.initOnce.Do(func() {
		d.initErr = speaker.Init(outputRate, outputRate.N(time.Second/10))
	})
	return d.initErr
}
