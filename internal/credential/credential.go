package credential

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Key под которым ключ ElevenLabs лежит в локальном хранилище.
const Key = "elevenlabs_api_key"

// Store долговременное строковое хранилище (bolt или sqlite).
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Keeper держит ключ API в памяти и синхронизирует его с хранилищем.
// Копия в памяти и значение в хранилище совпадают всегда, когда есть обе.
type Keeper struct {
	store  Store
	logger *zap.SugaredLogger

	mu      sync.RWMutex
	mirror  string
	cleared bool // после Clear хранилище не читаем до следующего Set
}

// NewKeeper создаёт Keeper и сразу подтягивает ключ из хранилища.
// seed (например, из ENV) используется только на эту сессию, если в хранилище пусто.
func NewKeeper(ctx context.Context, store Store, seed string, logger *zap.SugaredLogger) *Keeper {
	k := &Keeper{store: store, logger: logger}
	if v, ok := k.load(ctx); ok {
		k.mirror = v
		return k
	}
	k.mirror = strings.TrimSpace(seed)
	return k
}

// Set сохраняет ключ. Пустое значение (после trim) игнорируется и ничего не очищает.
func (k *Keeper) Set(ctx context.Context, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.store != nil {
		// Сначала хранилище: если запись не удалась, копия в памяти остаётся прежней.
		if err := k.store.Set(ctx, Key, value); err != nil {
			return fmt.Errorf("credential: save: %w", err)
		}
	}
	k.mirror = value
	k.cleared = false
	return nil
}

// Clear удаляет ключ из памяти и из хранилища.
func (k *Keeper) Clear(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.mirror = ""
	k.cleared = true
	if k.store == nil {
		return nil
	}
	if err := k.store.Delete(ctx, Key); err != nil {
		return fmt.Errorf("credential: delete: %w", err)
	}
	return nil
}

// Has сообщает, есть ли ключ в памяти. Хранилище не читается.
func (k *Keeper) Has() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.mirror != ""
}

// Resolve возвращает ключ: сначала из памяти, затем из хранилища.
// ok=false означает «не настроено», это не ошибка.
func (k *Keeper) Resolve(ctx context.Context) (string, bool) {
	k.mu.RLock()
	v, cleared := k.mirror, k.cleared
	k.mu.RUnlock()
	if v != "" {
		return v, true
	}
	if cleared {
		return "", false
	}

	v, ok := k.load(ctx)
	if !ok {
		return "", false
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	// Пока читали хранилище, ключ могли задать или очистить.
	if k.cleared {
		return "", false
	}
	if k.mirror == "" {
		k.mirror = v
	}
	return k.mirror, true
}

func (k *Keeper) load(ctx context.Context) (string, bool) {
	if k.store == nil {
		return "", false
	}
	v, ok, err := k.store.Get(ctx, Key)
	if err != nil {
		if k.logger != nil {
			k.logger.Warnw("Не удалось прочитать ключ из хранилища", "error", err)
		}
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
