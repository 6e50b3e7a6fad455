package tutor

import (
	"TigrignaTutor/internal/lesson"
	"TigrignaTutor/internal/service/history"
	"TigrignaTutor/internal/service/pronunciation"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Speaker то, что нужно сессии от сервиса произношения.
type Speaker interface {
	Speak(ctx context.Context, text, hint string) *pronunciation.Task
	SetCredential(ctx context.Context, value string) error
	ClearCredential(ctx context.Context) error
	HasCredential() bool
}

// Feedback звук после ответа в квизе.
type Feedback interface {
	PlayResult(ctx context.Context, correct bool) error
}

// Session текстовый урок: команды из строки, ответы в out.
type Session struct {
	speaker Speaker
	sounds  Feedback
	catalog *lesson.Catalog
	out     io.Writer
	logger  *zap.SugaredLogger

	dict  *lesson.Dictionary
	vocab *lesson.Vocabulary
	math  *lesson.MathDrill
	quiz  *lesson.Quiz

	recent *history.History
}

const historySize = 20

// ErrQuit команда выхода.
var ErrQuit = errors.New("tutor: quit")

// NewSession создаёт сессию. sounds может быть nil.
func NewSession(catalog *lesson.Catalog, speaker Speaker, sounds Feedback, out io.Writer, logger *zap.SugaredLogger) *Session {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Session{
		speaker: speaker,
		sounds:  sounds,
		catalog: catalog,
		out:     out,
		logger:  logger,
		dict:    lesson.NewDictionary(catalog.Dictionary),
		vocab:   lesson.NewVocabulary(catalog.Vocabulary),
		math:    lesson.NewMathDrill(catalog.Math),
		recent:  history.New(historySize),
	}
}

// Run читает команды построчно до EOF, quit или отмены ctx.
// Чтение stdin не прерывается, поэтому строки читает отдельная горутина.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
		close(lines)
	}()

	s.printf("Selam! Type \"help\" for commands.\n")
	for {
		s.printf("> ")
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}
			if err := s.Exec(ctx, line); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				s.printf("error: %v\n", err)
			}
		}
	}
}

// Exec выполняет одну команду.
func (s *Session) Exec(ctx context.Context, line string) error {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "":
		return nil
	case "help", "?":
		s.help()
		return nil
	case "quit", "exit", "q":
		return ErrQuit
	case "alphabet":
		return s.alphabet(ctx, rest)
	case "numbers":
		return s.numbers(ctx, rest)
	case "math":
		return s.mathDrill(ctx, rest)
	case "dict":
		return s.dictionary(ctx, rest)
	case "fav":
		return s.favorite(rest)
	case "vocab":
		return s.vocabulary(ctx, rest)
	case "quiz":
		return s.runQuiz(ctx, rest)
	case "say":
		return s.say(ctx, rest)
	case "again":
		return s.again(ctx)
	case "history":
		s.showHistory()
		return nil
	case "key":
		return s.key(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (s *Session) help() {
	s.printf(`Commands:
  alphabet [letter]          list letters or pronounce one (ሀ or "ha")
  numbers [n] [f]            list numbers or pronounce one (f: feminine form)
  math [reveal|next]         counting exercises
  dict <term> [@category]    search the dictionary, "dict @" lists categories
  fav [word]                 toggle a favorite or list favorites
  vocab [list|words]         progress by category or words of the current one
  vocab word|next|learned    repeat, advance or mark the current word
  vocab <category>           switch category and pronounce its current word
  quiz <category>            start a quiz; then "quiz <option>" and "quiz next" after answering
  say <text> [| hint]        pronounce any text
  again                      repeat the last word
  history                    recently pronounced words
  key set <value> | key clear | key status
  quit
`)
}

// speak запускает произношение и не ждёт его.
func (s *Session) speak(ctx context.Context, text, hint string) {
	s.recent.Add(history.Entry{Text: text, Hint: hint})
	t := s.speaker.Speak(ctx, text, hint)
	s.logger.Debugw("Speak requested", "task", t.ID, "text", text)
}

func (s *Session) alphabet(ctx context.Context, arg string) error {
	if arg == "" {
		var b strings.Builder
		for i, l := range s.catalog.Alphabet {
			fmt.Fprintf(&b, "%s %-4s", l.Geez, l.Latin)
			if (i+1)%8 == 0 {
				b.WriteByte('\n')
			}
		}
		s.printf("%s\n", strings.TrimRight(b.String(), "\n"))
		return nil
	}
	for _, l := range s.catalog.Alphabet {
		if l.Geez == arg || strings.EqualFold(l.Latin, arg) || strings.EqualFold(l.Sound, arg) {
			s.printf("%s  %s [%s]  %s: %s\n", l.Geez, l.Latin, l.Sound, l.Example, l.Meaning)
			text, hint := l.Speech()
			s.speak(ctx, text, hint)
			return nil
		}
	}
	return fmt.Errorf("no letter %q", arg)
}

func (s *Session) numbers(ctx context.Context, arg string) error {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		for _, n := range s.catalog.Numbers {
			s.printf("%4d  %s (%s)  %s (%s)\n", n.Value, n.Tigrigna, n.Pronunciation, n.Feminine, n.FemininePronunciation)
		}
		return nil
	}
	v, err := strconv.Atoi(fields[0])
	if err != nil {
		return fmt.Errorf("bad number %q", fields[0])
	}
	feminine := len(fields) > 1 && strings.EqualFold(fields[1], "f")
	for _, n := range s.catalog.Numbers {
		if n.Value != v {
			continue
		}
		text, hint := n.Speech(feminine)
		s.printf("%d  %s (%s)\n", n.Value, text, hint)
		s.speak(ctx, text, hint)
		return nil
	}
	return fmt.Errorf("no number %d in the lesson", v)
}

func (s *Session) mathDrill(ctx context.Context, arg string) error {
	switch strings.ToLower(arg) {
	case "":
		ex := s.math.Current()
		if s.math.Revealed() {
			s.printf("%s  %s  (%s)\n", ex.Question, ex.Answer, ex.Calculation)
		} else {
			s.printf("%s\n", ex.Question)
		}
	case "reveal":
		ex := s.math.Reveal()
		s.printf("%s  (%s)\n", ex.Answer, ex.Calculation)
		s.speak(ctx, ex.Answer, "")
	case "next":
		s.printf("%s\n", s.math.Next().Question)
	default:
		return fmt.Errorf("math: unknown action %q", arg)
	}
	return nil
}

func (s *Session) dictionary(ctx context.Context, arg string) error {
	term, category := arg, lesson.AllCategories
	if i := strings.LastIndex(arg, "@"); i >= 0 {
		term, category = strings.TrimSpace(arg[:i]), strings.TrimSpace(arg[i+1:])
	}
	if category == "" {
		s.printf("%s\n", strings.Join(s.dict.Categories(), ", "))
		return nil
	}

	lang := lesson.English
	if !isLatin(term) {
		lang = lesson.Tigrigna
	}
	words := s.dict.Search(term, lang, category)
	if len(words) == 0 {
		s.printf("No words found\n")
		return nil
	}
	for _, w := range words {
		s.printf("%s  %s [%s]  (%s)\n", w.Tigrigna, w.English, w.Pronunciation, w.Category)
	}
	// Одно совпадение сразу произносим.
	if len(words) == 1 {
		text, hint := words[0].Speech()
		s.speak(ctx, text, hint)
	}
	return nil
}

func (s *Session) favorite(arg string) error {
	if arg == "" {
		favs := s.dict.Favorites()
		if len(favs) == 0 {
			s.printf("No favorites yet\n")
			return nil
		}
		s.printf("%s\n", strings.Join(favs, ", "))
		return nil
	}
	if s.dict.ToggleFavorite(arg) {
		s.printf("Added %s to favorites\n", arg)
	} else {
		s.printf("Removed %s from favorites\n", arg)
	}
	return nil
}

func (s *Session) vocabulary(ctx context.Context, arg string) error {
	switch strings.ToLower(arg) {
	case "", "list":
		s.vocabOverview()
		return nil
	case "words":
		s.vocabWords()
		return nil
	case "word":
	case "next":
		s.vocab.Next()
	case "learned":
		s.vocab.MarkLearned()
		learned, total, pct := s.vocab.Progress()
		s.printf("Progress: %d/%d (%.0f%%)\n", learned, total, pct)
		return nil
	default:
		if err := s.vocab.Select(arg); err != nil {
			return err
		}
	}
	c := s.vocab.Category()
	w := s.vocab.Current()
	learned, total, _ := s.vocab.Progress()
	mark := ""
	if w.Learned {
		mark = " ✓"
	}
	s.printf("[%s %d/%d] %s  %s [%s]%s\n", c.Name, learned, total, w.Tigrigna, w.English, w.Pronunciation, mark)
	text, hint := w.Speech()
	s.speak(ctx, text, hint)
	return nil
}

// vocabOverview прогресс по всем наборам; текущий отмечен звёздочкой.
func (s *Session) vocabOverview() {
	current := s.vocab.Category().Key
	for _, c := range s.vocab.Categories() {
		learned, total, pct := lesson.CategoryProgress(c)
		mark := " "
		if c.Key == current {
			mark = "*"
		}
		s.printf("%s %-8s %-18s %d/%d (%.0f%%)\n", mark, c.Key, c.Name, learned, total, pct)
	}
}

func (s *Session) vocabWords() {
	learned, remaining := s.vocab.Split()
	s.printf("Learned (%d):\n", len(learned))
	for _, w := range learned {
		s.printf("  %s  %s [%s]\n", w.Tigrigna, w.English, w.Pronunciation)
	}
	s.printf("Still learning (%d):\n", len(remaining))
	for _, w := range remaining {
		s.printf("  %s  %s [%s]\n", w.Tigrigna, w.English, w.Pronunciation)
	}
}

func (s *Session) runQuiz(ctx context.Context, arg string) error {
	switch {
	case arg == "":
		if s.quiz == nil {
			return errors.New("quiz: pick a category: " + strings.Join(s.quizKeys(), ", "))
		}
		s.showQuestion()
		return nil
	case strings.EqualFold(arg, "next"):
		if s.quiz == nil {
			return errors.New("quiz: not started")
		}
		if err := s.quiz.Next(); err != nil {
			return err
		}
		if s.quiz.Completed() {
			_, total := s.quiz.Position()
			s.printf("Score: %d/%d. %s\n", s.quiz.Score(), total, s.quiz.ScoreMessage())
			return nil
		}
		s.showQuestion()
		return nil
	}

	if n, err := strconv.Atoi(arg); err == nil {
		return s.answer(ctx, n-1)
	}

	qs, ok := s.catalog.Quiz(arg)
	if !ok {
		return fmt.Errorf("quiz: unknown category %q", arg)
	}
	s.quiz = lesson.NewQuiz(qs)
	s.showQuestion()
	return nil
}

func (s *Session) answer(ctx context.Context, option int) error {
	if s.quiz == nil {
		return errors.New("quiz: not started")
	}
	q := s.quiz.Current()
	correct, err := s.quiz.Select(option)
	if err != nil {
		return err
	}
	if s.sounds != nil {
		// Звук необязателен: ошибку уже залогировал нотификатор.
		_ = s.sounds.PlayResult(ctx, correct)
	}
	if correct {
		s.printf("Correct! %s\n", q.Explanation)
	} else {
		s.printf("Wrong. Answer: %s. %s\n", q.Options[q.Correct], q.Explanation)
	}
	s.printf("Score: %d/%d\n", s.quiz.Score(), s.quiz.Answered())
	return nil
}

func (s *Session) showQuestion() {
	if s.quiz.Completed() {
		s.printf("Quiz completed. %s\n", s.quiz.ScoreMessage())
		return
	}
	pos, total := s.quiz.Position()
	q := s.quiz.Current()
	s.printf("(%d/%d, %.0f%%) %s\n", pos, total, s.quiz.Progress(), q.Question)
	for i, o := range q.Options {
		s.printf("  %d) %s\n", i+1, o)
	}
}

func (s *Session) quizKeys() []string {
	keys := make([]string, 0, len(s.catalog.Quizzes))
	for _, q := range s.catalog.Quizzes {
		keys = append(keys, q.Key)
	}
	return keys
}

// say: "текст | подсказка".
func (s *Session) say(ctx context.Context, arg string) error {
	text, hint, _ := strings.Cut(arg, "|")
	text, hint = strings.TrimSpace(text), strings.TrimSpace(hint)
	if text == "" {
		return errors.New("say: empty text")
	}
	s.speak(ctx, text, hint)
	return nil
}

func (s *Session) again(ctx context.Context) error {
	e, ok := s.recent.Last()
	if !ok {
		return errors.New("nothing to repeat yet")
	}
	s.speak(ctx, e.Text, e.Hint)
	return nil
}

func (s *Session) showHistory() {
	entries := s.recent.Recent()
	if len(entries) == 0 {
		s.printf("Nothing pronounced yet\n")
		return
	}
	for _, e := range entries {
		if e.Hint != "" {
			s.printf("%s (%s)\n", e.Text, e.Hint)
		} else {
			s.printf("%s\n", e.Text)
		}
	}
}

func (s *Session) key(ctx context.Context, arg string) error {
	action, value, _ := strings.Cut(arg, " ")
	switch strings.ToLower(action) {
	case "set":
		if strings.TrimSpace(value) == "" {
			return errors.New("key: empty value")
		}
		if err := s.speaker.SetCredential(ctx, value); err != nil {
			return err
		}
		s.printf("API key saved\n")
	case "clear":
		if err := s.speaker.ClearCredential(ctx); err != nil {
			return err
		}
		s.printf("API key removed\n")
	case "status", "":
		if s.speaker.HasCredential() {
			s.printf("API key is set\n")
		} else {
			s.printf("API key is not set\n")
		}
	default:
		return fmt.Errorf("key: unknown action %q", action)
	}
	return nil
}

func (s *Session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

func isLatin(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
