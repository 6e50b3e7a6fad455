package lesson

import (
	"embed"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

//go:embed data/*.toml
var dataFS embed.FS

// Letter буква геэз с примером слова.
type Letter struct {
	Geez    string `toml:"geez"`
	Latin   string `toml:"latin"`
	Sound   string `toml:"sound"`
	Example string `toml:"example"`
	Meaning string `toml:"meaning"`
}

// Speech пара (текст, подсказка произношения) для Speak.
func (l Letter) Speech() (string, string) { return l.Geez, l.Sound }

type Number struct {
	Value                 int    `toml:"value"`
	Tigrigna              string `toml:"tigrigna"`
	Pronunciation         string `toml:"pronunciation"`
	Feminine              string `toml:"feminine"`
	FemininePronunciation string `toml:"feminine_pronunciation"`
}

func (n Number) Speech(feminine bool) (string, string) {
	if feminine {
		return n.Feminine, n.FemininePronunciation
	}
	return n.Tigrigna, n.Pronunciation
}

// MathExample пример на счёт: вопрос и ответ словами.
type MathExample struct {
	Question    string `toml:"question"`
	Answer      string `toml:"answer"`
	Calculation string `toml:"calculation"`
}

type Word struct {
	Tigrigna      string `toml:"tigrigna"`
	English       string `toml:"english"`
	Pronunciation string `toml:"pronunciation"`
	Category      string `toml:"category"`
}

func (w Word) Speech() (string, string) { return w.Tigrigna, w.Pronunciation }

type VocabWord struct {
	Tigrigna      string `toml:"tigrigna"`
	English       string `toml:"english"`
	Pronunciation string `toml:"pronunciation"`
	Learned       bool   `toml:"learned"`
}

func (w VocabWord) Speech() (string, string) { return w.Tigrigna, w.Pronunciation }

type VocabCategory struct {
	Key   string      `toml:"key"`
	Name  string      `toml:"name"`
	Words []VocabWord `toml:"word"`
}

type Question struct {
	Question    string   `toml:"question"`
	Options     []string `toml:"options"`
	Correct     int      `toml:"correct"`
	Explanation string   `toml:"explanation"`
}

type QuizCategory struct {
	Key       string     `toml:"key"`
	Questions []Question `toml:"question"`
}

// Catalog все наборы данных уроков.
type Catalog struct {
	Alphabet   []Letter
	Numbers    []Number
	Math       []MathExample
	Dictionary []Word
	Vocabulary []VocabCategory
	Quizzes    []QuizCategory
}

// Load разбирает встроенные наборы данных.
func Load() (*Catalog, error) {
	var (
		alphabet struct {
			Letters []Letter `toml:"letter"`
		}
		numbers struct {
			Numbers []Number      `toml:"number"`
			Math    []MathExample `toml:"math"`
		}
		dictionary struct {
			Words []Word `toml:"word"`
		}
		vocabulary struct {
			Categories []VocabCategory `toml:"category"`
		}
		quiz struct {
			Quizzes []QuizCategory `toml:"quiz"`
		}
	)
	files := []struct {
		name string
		dst  any
	}{
		{"data/alphabet.toml", &alphabet},
		{"data/numbers.toml", &numbers},
		{"data/dictionary.toml", &dictionary},
		{"data/vocabulary.toml", &vocabulary},
		{"data/quiz.toml", &quiz},
	}
	for _, f := range files {
		b, err := dataFS.ReadFile(f.name)
		if err != nil {
			return nil, fmt.Errorf("lesson: read %s: %w", f.name, err)
		}
		if err := toml.Unmarshal(b, f.dst); err != nil {
			return nil, fmt.Errorf("lesson: parse %s: %w", f.name, err)
		}
	}

	c := &Catalog{
		Alphabet:   alphabet.Letters,
		Numbers:    numbers.Numbers,
		Math:       numbers.Math,
		Dictionary: dictionary.Words,
		Vocabulary: vocabulary.Categories,
		Quizzes:    quiz.Quizzes,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) validate() error {
	for _, qc := range c.Quizzes {
		for i, q := range qc.Questions {
			if q.Correct < 0 || q.Correct >= len(q.Options) {
				return fmt.Errorf("lesson: quiz %s question %d: correct index %d out of range", qc.Key, i, q.Correct)
			}
		}
	}
	for _, vc := range c.Vocabulary {
		if len(vc.Words) == 0 {
			return fmt.Errorf("lesson: vocabulary %s is empty", vc.Key)
		}
	}
	return nil
}

// Quiz возвращает вопросы квиза по ключу раздела.
func (c *Catalog) Quiz(key string) ([]Question, bool) {
	for _, qc := range c.Quizzes {
		if qc.Key == key {
			return qc.Questions, true
		}
	}
	return nil, false
}
