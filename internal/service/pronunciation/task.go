package pronunciation

import "sync"

// Outcome итог одного вызова Speak.
type Outcome int

const (
	Pending       Outcome = iota
	Played                // удалённый синтез, воспроизведение запущено
	Fallback              // произнёс локальный синтезатор
	NotConfigured         // ключа нет, ничего не делали
	Silent                // ни удалённый, ни локальный синтез не сработали
)

func (o Outcome) String() string {
	switch o {
	case Played:
		return "played"
	case Fallback:
		return "fallback"
	case NotConfigured:
		return "not_configured"
	case Silent:
		return "silent"
	default:
		return "pending"
	}
}

// Task наблюдаемый результат Speak. Ждать его не обязательно.
type Task struct {
	ID      string
	Request Request

	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	outcome Outcome
	err     error
}

func newTask(id string, req Request) *Task {
	return &Task{ID: id, Request: req, done: make(chan struct{})}
}

// Done закрывается, когда воспроизведение запущено или вызов завершился иначе.
// Окончания самого звука Done не ждёт.
func (t *Task) Done() <-chan struct{} { return t.done }

func (t *Task) Outcome() Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

// Err причина для логов: ошибка удалённого синтеза при Fallback, итоговая ошибка при Silent.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Task) finish(o Outcome, err error) {
	t.once.Do(func() {
		t.mu.Lock()
		t.outcome, t.err = o, err
		t.mu.Unlock()
		close(t.done)
	})
}
