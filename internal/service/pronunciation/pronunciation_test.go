package pronunciation

import (
	"TigrignaTutor/internal/credential"
	"TigrignaTutor/internal/service/tts"
	"TigrignaTutor/internal/service/tts/elevenlabs"
	"TigrignaTutor/internal/service/tts/player"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

type mapStore struct {
	mu sync.Mutex
	m  map[string]string
}

func (s *mapStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *mapStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *mapStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

type fakeSynth struct {
	mu    sync.Mutex
	calls []string
	keys  []string
	audio []byte
	err   error
}

func (f *fakeSynth) Synthesize(_ context.Context, apiKey, text string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	f.keys = append(f.keys, apiKey)
	if f.err != nil {
		return nil, f.err
	}
	return append([]byte(nil), f.audio...), nil
}

func (f *fakeSynth) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type playback struct {
	data []byte
	done func()
}

type fakePlayer struct {
	mu    sync.Mutex
	plays []playback
	err   error
}

func (p *fakePlayer) Play(format string, r io.ReadCloser, done func()) error {
	if p.err != nil {
		return p.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays = append(p.plays, playback{data: b, done: done})
	return nil
}

func (p *fakePlayer) get(i int) playback {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plays[i]
}

type spoken struct {
	text        string
	rate, pitch float64
}

type fakeFallback struct {
	mu    sync.Mutex
	calls []spoken
	err   error
}

func (f *fakeFallback) Speak(_ context.Context, text string, rate, pitch float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, spoken{text: text, rate: rate, pitch: pitch})
	return f.err
}

func (f *fakeFallback) snapshot() []spoken {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]spoken(nil), f.calls...)
}

func newKeeper(t *testing.T, key string) *credential.Keeper {
	t.Helper()
	store := &mapStore{m: map[string]string{}}
	if key != "" {
		store.m[credential.Key] = key
	}
	return credential.NewKeeper(context.Background(), store, "", nil)
}

func waitTask(t *testing.T, task *Task) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(waitTimeout):
		t.Fatalf("task %s did not finish", task.ID)
	}
}

func TestRequest_SpeakText(t *testing.T) {
	assert.Equal(t, "selam", Request{Text: "ሰላም", Hint: "selam"}.SpeakText())
	assert.Equal(t, "ሰላም", Request{Text: "ሰላም"}.SpeakText())
	assert.Equal(t, "ሰላም", Request{Text: "ሰላም", Hint: "  "}.SpeakText())
	assert.Equal(t, "selam", Request{Text: "ሰላም", Hint: " \tselam\n"}.SpeakText())
	assert.Equal(t, " ሰላም ", Request{Text: " ሰላም "}.SpeakText())
}

func TestSpeak_RemoteRequest(t *testing.T) {
	var (
		mu      sync.Mutex
		apiKey  string
		payload map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		apiKey = r.Header.Get("xi-api-key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_, _ = w.Write([]byte("mp3"))
	}))
	defer srv.Close()

	pl := &fakePlayer{}
	fb := &fakeFallback{}
	s := New(newKeeper(t, "abc123"), Config{
		Remote:   elevenlabs.New(srv.URL, time.Second, nil),
		Player:   pl,
		Fallback: fb,
	})

	task := s.Speak(context.Background(), "ገዛ", "geza")
	waitTask(t, task)
	require.Equal(t, Played, task.Outcome())
	require.NoError(t, task.Err())

	mu.Lock()
	assert.Equal(t, "abc123", apiKey)
	assert.Equal(t, map[string]any{
		"text":     "geza",
		"model_id": "eleven_multilingual_v2",
		"voice_settings": map[string]any{
			"stability":        0.5,
			"similarity_boost": 0.5,
		},
	}, payload)
	mu.Unlock()

	assert.Equal(t, []byte("mp3"), pl.get(0).data)
	assert.Empty(t, fb.snapshot())
}

func TestSpeak_HintPrecedence(t *testing.T) {
	synth := &fakeSynth{audio: []byte("a")}
	s := New(newKeeper(t, "k"), Config{Remote: synth, Player: &fakePlayer{}})

	waitTask(t, s.Speak(context.Background(), "ሰላም", "selam"))
	waitTask(t, s.Speak(context.Background(), "ሰላም", ""))

	synth.mu.Lock()
	defer synth.mu.Unlock()
	assert.ElementsMatch(t, []string{"selam", "ሰላም"}, synth.calls)
	assert.Equal(t, []string{"k", "k"}, synth.keys)
}

func TestSpeak_FallbackOnRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	pl := &fakePlayer{}
	fb := &fakeFallback{}
	s := New(newKeeper(t, "abc123"), Config{
		Remote:   elevenlabs.New(srv.URL, time.Second, nil),
		Player:   pl,
		Fallback: fb,
	})

	task := s.Speak(context.Background(), "ሰላም", "selam")
	waitTask(t, task)

	assert.Equal(t, Fallback, task.Outcome())
	var rejected *tts.RejectedError
	require.ErrorAs(t, task.Err(), &rejected)
	assert.Equal(t, http.StatusTooManyRequests, rejected.StatusCode)

	assert.Equal(t, []spoken{{text: "ሰላም", rate: 0.8, pitch: 1}}, fb.snapshot())
	assert.Empty(t, pl.plays)
}

func TestSpeak_FallbackOnNetworkFailure(t *testing.T) {
	synth := &fakeSynth{err: &tts.NetworkError{Provider: "elevenlabs", Op: "send request", Err: errors.New("connection refused")}}
	fb := &fakeFallback{}
	s := New(newKeeper(t, "k"), Config{Remote: synth, Player: &fakePlayer{}, Fallback: fb, Rate: 0.8, Pitch: 1})

	task := s.Speak(context.Background(), "ማይ", "may")
	waitTask(t, task)

	assert.Equal(t, Fallback, task.Outcome())
	assert.Equal(t, []spoken{{text: "ማይ", rate: 0.8, pitch: 1}}, fb.snapshot())
}

func TestSpeak_NotConfigured(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer srv.Close()

	fb := &fakeFallback{}
	s := New(newKeeper(t, ""), Config{
		Remote:   elevenlabs.New(srv.URL, time.Second, nil),
		Player:   &fakePlayer{},
		Fallback: fb,
	})

	task := s.Speak(context.Background(), "ማይ", "")
	waitTask(t, task)

	assert.Equal(t, NotConfigured, task.Outcome())
	assert.ErrorIs(t, task.Err(), tts.ErrCredentialMissing)
	assert.Zero(t, requests.Load())
	assert.Empty(t, fb.snapshot())
}

func TestSpeak_FallbackUnavailable(t *testing.T) {
	synth := &fakeSynth{err: &tts.RejectedError{Provider: "elevenlabs", StatusCode: 500}}
	s := New(newKeeper(t, "k"), Config{Remote: synth, Player: &fakePlayer{}})

	task := s.Speak(context.Background(), "ሰላም", "selam")
	waitTask(t, task)

	assert.Equal(t, Silent, task.Outcome())
	assert.ErrorIs(t, task.Err(), tts.ErrFallbackUnavailable)
}

func TestSpeak_FallbackFails(t *testing.T) {
	synth := &fakeSynth{err: tts.ErrEmptyAudio}
	fb := &fakeFallback{err: errors.New("espeak: start: exec format error")}
	s := New(newKeeper(t, "k"), Config{Remote: synth, Player: &fakePlayer{}, Fallback: fb})

	task := s.Speak(context.Background(), "ሰላም", "")
	waitTask(t, task)

	assert.Equal(t, Silent, task.Outcome())
	assert.ErrorIs(t, task.Err(), tts.ErrEmptyAudio)
}

func TestSpeak_ReleaseExactlyOnceAtEnd(t *testing.T) {
	var releases atomic.Int32
	pl := &fakePlayer{}
	s := New(newKeeper(t, "k"), Config{Remote: &fakeSynth{audio: []byte("abc")}, Player: pl})
	s.onRelease = func(_ *Task, clip *player.Clip) {
		releases.Add(1)
		assert.True(t, clip.Released())
		assert.Equal(t, 3, clip.Size())
	}

	task := s.Speak(context.Background(), "ሰላም", "selam")
	waitTask(t, task)
	require.Equal(t, Played, task.Outcome())

	// Воспроизведение ещё идёт: клип не освобождён.
	assert.Zero(t, releases.Load())

	pb := pl.get(0)
	pb.done()
	pb.done()
	assert.Equal(t, int32(1), releases.Load())

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	assert.NoError(t, s.Wait(ctx))
}

func TestSpeak_PlaybackStartFailureFallsBack(t *testing.T) {
	var releases atomic.Int32
	fb := &fakeFallback{}
	s := New(newKeeper(t, "k"), Config{
		Remote:   &fakeSynth{audio: []byte("not mp3")},
		Player:   &fakePlayer{err: errors.New("mp3: decode failed")},
		Fallback: fb,
	})
	s.onRelease = func(*Task, *player.Clip) { releases.Add(1) }

	task := s.Speak(context.Background(), "ቡን", "bun")
	waitTask(t, task)

	assert.Equal(t, Fallback, task.Outcome())
	assert.Equal(t, int32(1), releases.Load())
	assert.Equal(t, []spoken{{text: "ቡን", rate: 0.8, pitch: 1}}, fb.snapshot())
}

func TestSpeak_ConcurrentCallsAreIndependent(t *testing.T) {
	var (
		mu       sync.Mutex
		released = map[string]int{}
	)
	pl := &fakePlayer{}
	s := New(newKeeper(t, "k"), Config{Remote: &echoSynth{}, Player: pl})
	s.onRelease = func(task *Task, _ *player.Clip) {
		mu.Lock()
		defer mu.Unlock()
		released[task.Request.SpeakText()]++
	}

	t1 := s.Speak(context.Background(), "ሰላም", "selam")
	t2 := s.Speak(context.Background(), "ማይ", "may")
	waitTask(t, t1)
	waitTask(t, t2)

	byText := map[string]playback{}
	for i := 0; i < 2; i++ {
		pb := pl.get(i)
		byText[string(pb.data)] = pb
	}
	require.Len(t, byText, 2)

	byText["selam"].done()
	mu.Lock()
	assert.Equal(t, map[string]int{"selam": 1}, released)
	mu.Unlock()

	byText["may"].done()
	mu.Lock()
	assert.Equal(t, map[string]int{"selam": 1, "may": 1}, released)
	mu.Unlock()
}

type echoSynth struct{}

func (echoSynth) Synthesize(_ context.Context, _, text string) ([]byte, error) {
	return []byte(text), nil
}

func TestSpeak_CallerCancelDoesNotAbort(t *testing.T) {
	synth := &fakeSynth{audio: []byte("a")}
	s := New(newKeeper(t, "k"), Config{Remote: synth, Player: &fakePlayer{}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	task := s.Speak(ctx, "ሰላም", "")
	waitTask(t, task)
	assert.Equal(t, Played, task.Outcome())
}

func TestSpeak_EmptyText(t *testing.T) {
	synth := &fakeSynth{audio: []byte("a")}
	s := New(newKeeper(t, "k"), Config{Remote: synth, Player: &fakePlayer{}})

	task := s.Speak(context.Background(), " ", "")
	waitTask(t, task)
	assert.Equal(t, Silent, task.Outcome())
	assert.Zero(t, synth.callCount())
}

func TestCredentialOperations(t *testing.T) {
	ctx := context.Background()
	synth := &fakeSynth{audio: []byte("a")}
	s := New(newKeeper(t, ""), Config{Remote: synth, Player: &fakePlayer{}})

	assert.False(t, s.HasCredential())
	require.NoError(t, s.SetCredential(ctx, "  "))
	assert.False(t, s.HasCredential())

	require.NoError(t, s.SetCredential(ctx, " abc123 "))
	assert.True(t, s.HasCredential())
	waitTask(t, s.Speak(ctx, "ገዛ", "geza"))
	synth.mu.Lock()
	assert.Equal(t, []string{"abc123"}, synth.keys)
	synth.mu.Unlock()

	require.NoError(t, s.ClearCredential(ctx))
	assert.False(t, s.HasCredential())
	task := s.Speak(ctx, "ገዛ", "geza")
	waitTask(t, task)
	assert.Equal(t, NotConfigured, task.Outcome())
	assert.Equal(t, 1, synth.callCount())
}

func TestWait_Timeout(t *testing.T) {
	s := New(newKeeper(t, "k"), Config{Remote: &fakeSynth{audio: []byte("a")}, Player: &fakePlayer{}})
	waitTask(t, s.Speak(context.Background(), "ሰላም", ""))

	// Воспроизведение не закончено, Wait должен отвалиться по контексту.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)
}

// autoPlayer доигрывает мгновенно.
type autoPlayer struct{}

func (autoPlayer) Play(_ string, r io.ReadCloser, done func()) error {
	_, _ = io.Copy(io.Discard, r)
	go done()
	return nil
}

func TestWait_ConcurrentWithSpeak(t *testing.T) {
	s := New(newKeeper(t, "k"), Config{Remote: echoSynth{}, Player: autoPlayer{}})
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	const n = 50
	tasks := make(chan *Task, n)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			tasks <- s.Speak(context.Background(), "ሰላም", "selam")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			assert.NoError(t, s.Wait(ctx))
		}
	}()
	wg.Wait()
	close(tasks)

	for task := range tasks {
		waitTask(t, task)
		assert.Equal(t, Played, task.Outcome())
	}
	require.NoError(t, s.Wait(ctx))
	assert.Zero(t, s.inflight.count())
}
