package history

import "sync"

// Entry произнесённое слово: текст и подсказка.
type Entry struct {
	Text string
	Hint string
}

// History потокобезопасный буфер фиксированной ёмкости с последними произнесёнными словами.
type History struct {
	cap     int
	entries []Entry
	mu      sync.Mutex
}

func New(capacity int) *History {
	if capacity <= 0 {
		capacity = 20
	}
	return &History{cap: capacity, entries: make([]Entry, 0, capacity)}
}

// Add добавляет слово, при переполнении удаляет самое старое.
// Повтор последнего слова не дублируется.
func (h *History) Add(e Entry) {
	if e.Text == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if n := len(h.entries); n > 0 && h.entries[n-1] == e {
		return
	}
	if len(h.entries) == h.cap {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:h.cap-1]
	}
	h.entries = append(h.entries, e)
}

// Recent копия буфера, от новых к старым.
func (h *History) Recent() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Entry, len(h.entries))
	for i, e := range h.entries {
		out[len(h.entries)-1-i] = e
	}
	return out
}

// Last последнее слово; false, если история пуста.
func (h *History) Last() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return Entry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

func (h *History) Len() int {
	h.mu.Lock()
	l := len(h.entries)
	h.mu.Unlock()
	return l
}
