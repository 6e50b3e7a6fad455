package lesson

import "errors"

var (
	ErrAlreadyAnswered = errors.New("quiz: question already answered")
	ErrNoSuchOption    = errors.New("quiz: no such option")
	ErrQuizCompleted   = errors.New("quiz: completed")
	ErrNotAnswered     = errors.New("quiz: answer the current question first")
)

// Quiz состояние прохождения одного квиза.
type Quiz struct {
	questions []Question
	index     int
	selected  int // -1: ответа на текущий вопрос ещё нет
	answered  []bool
	score     int
	completed bool
}

func NewQuiz(questions []Question) *Quiz {
	q := &Quiz{questions: questions}
	q.Reset()
	return q
}

func (q *Quiz) Reset() {
	q.index = 0
	q.selected = -1
	q.answered = make([]bool, len(q.questions))
	q.score = 0
	q.completed = len(q.questions) == 0
}

func (q *Quiz) Current() Question { return q.questions[q.index] }

// Position номер текущего вопроса (с единицы) и их общее число.
func (q *Quiz) Position() (int, int) { return q.index + 1, len(q.questions) }

// Select отвечает на текущий вопрос. Балл начисляется не больше одного раза за вопрос.
func (q *Quiz) Select(option int) (bool, error) {
	if q.completed {
		return false, ErrQuizCompleted
	}
	if q.selected >= 0 {
		return false, ErrAlreadyAnswered
	}
	cur := q.questions[q.index]
	if option < 0 || option >= len(cur.Options) {
		return false, ErrNoSuchOption
	}
	q.selected = option
	correct := option == cur.Correct
	if correct && !q.answered[q.index] {
		q.score++
	}
	q.answered[q.index] = true
	return correct, nil
}

// Next переходит к следующему вопросу; после последнего квиз завершается.
// Пропустить вопрос без ответа нельзя.
func (q *Quiz) Next() error {
	if q.completed {
		return nil
	}
	if q.selected < 0 {
		return ErrNotAnswered
	}
	if q.index < len(q.questions)-1 {
		q.index++
		q.selected = -1
		return nil
	}
	q.completed = true
	return nil
}

func (q *Quiz) Completed() bool { return q.completed }

func (q *Quiz) Score() int { return q.score }

// Answered сколько вопросов уже отвечено.
func (q *Quiz) Answered() int {
	n := 0
	for _, a := range q.answered {
		if a {
			n++
		}
	}
	return n
}

// Progress процент пройденного: отвеченный текущий вопрос тоже засчитывается.
func (q *Quiz) Progress() float64 {
	if len(q.questions) == 0 {
		return 100
	}
	if q.completed {
		return 100
	}
	done := q.index
	if q.selected >= 0 {
		done++
	}
	return float64(done) / float64(len(q.questions)) * 100
}

// ScoreMessage итоговая оценка по доле правильных ответов.
func (q *Quiz) ScoreMessage() string {
	if len(q.questions) == 0 {
		return "Keep practicing! 💪"
	}
	pct := float64(q.score) / float64(len(q.questions)) * 100
	switch {
	case pct >= 90:
		return "Excellent! 🌟"
	case pct >= 70:
		return "Great job! 👏"
	case pct >= 50:
		return "Good effort! 👍"
	default:
		return "Keep practicing! 💪"
	}
}

// MathDrill перебирает примеры на счёт по кругу.
type MathDrill struct {
	examples []MathExample
	index    int
	revealed bool
}

func NewMathDrill(examples []MathExample) *MathDrill {
	return &MathDrill{examples: examples}
}

func (m *MathDrill) Current() MathExample { return m.examples[m.index] }

func (m *MathDrill) Reveal() MathExample {
	m.revealed = true
	return m.examples[m.index]
}

func (m *MathDrill) Revealed() bool { return m.revealed }

func (m *MathDrill) Next() MathExample {
	m.index = (m.index + 1) % len(m.examples)
	m.revealed = false
	return m.examples[m.index]
}
