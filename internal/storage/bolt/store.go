package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var settingsBucket = []byte("settings")

// Store строковое key-value хранилище настроек в файле Bolt.
type Store struct {
	db *bolt.DB

	Path string
}

// Open открывает (или создаёт) базу по пути path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt: empty db path")
	}
	// Каталог и файл доступны только владельцу.
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("bolt: creating dir: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(settingsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("bolt: create bucket: %w", err)
	}

	return &Store{db: db, Path: path}, nil
}

// Close закрывает базу.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get возвращает значение по ключу; ok=false, если ключа нет.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	var (
		value string
		ok    bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		// Срез валиден только внутри транзакции, копируем через string().
		if v := tx.Bucket(settingsBucket).Get([]byte(key)); v != nil {
			value, ok = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("bolt: get %q: %w", key, err)
	}
	return value, ok, nil
}

// Set записывает значение.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(settingsBucket).Put([]byte(key), []byte(value))
	}); err != nil {
		return fmt.Errorf("bolt: set %q: %w", key, err)
	}
	return nil
}

// Delete удаляет ключ. Отсутствие ключа не ошибка.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(settingsBucket).Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("bolt: delete %q: %w", key, err)
	}
	return nil
}
