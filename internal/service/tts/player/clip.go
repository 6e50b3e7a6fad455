package player

import (
	"bytes"
	"io"
	"sync"
)

// Clip синтезированное аудио одного вызова. Принадлежит только этому вызову
// и освобождается ровно один раз, по окончании воспроизведения.
type Clip struct {
	mu       sync.Mutex
	data     []byte
	size     int
	released bool
}

func NewClip(data []byte) *Clip {
	return &Clip{data: data, size: len(data)}
}

// Reader отдаёт поток для плеера. Close у него ничего не освобождает:
// за освобождение отвечает Release.
func (c *Clip) Reader() io.ReadCloser {
	c.mu.Lock()
	defer c.mu.Unlock()
	return io.NopCloser(bytes.NewReader(c.data))
}

// Release отпускает буфер. Возвращает true только для вызова, который его действительно освободил.
func (c *Clip) Release() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return false
	}
	c.released = true
	c.data = nil
	return true
}

func (c *Clip) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

// Size размер аудио в байтах на момент создания.
func (c *Clip) Size() int { return c.size }
