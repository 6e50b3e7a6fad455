package lesson

import (
	"fmt"
	"slices"
	"strings"
)

// Vocabulary прогресс изучения слов по тематическим наборам. Живёт только в памяти.
type Vocabulary struct {
	categories []VocabCategory
	current    int
	index      int
}

func NewVocabulary(categories []VocabCategory) *Vocabulary {
	cp := make([]VocabCategory, len(categories))
	for i, c := range categories {
		cp[i] = VocabCategory{Key: c.Key, Name: c.Name, Words: slices.Clone(c.Words)}
	}
	return &Vocabulary{categories: cp}
}

// Select переключает набор и начинает его с первого слова.
func (v *Vocabulary) Select(key string) error {
	keys := make([]string, 0, len(v.categories))
	for i, c := range v.categories {
		if c.Key == key {
			v.current, v.index = i, 0
			return nil
		}
		keys = append(keys, c.Key)
	}
	return fmt.Errorf("vocabulary: unknown category %q, available: %s", key, strings.Join(keys, ", "))
}

func (v *Vocabulary) Category() VocabCategory { return v.categories[v.current] }

func (v *Vocabulary) Categories() []VocabCategory { return v.categories }

func (v *Vocabulary) Current() VocabWord {
	return v.categories[v.current].Words[v.index]
}

// Next переходит к следующему слову, после последнего снова к первому.
func (v *Vocabulary) Next() VocabWord {
	words := v.categories[v.current].Words
	v.index = (v.index + 1) % len(words)
	return words[v.index]
}

func (v *Vocabulary) MarkLearned() {
	v.categories[v.current].Words[v.index].Learned = true
}

// Progress число выученных слов, всего слов и процент по текущему набору.
func (v *Vocabulary) Progress() (learned, total int, percent float64) {
	return CategoryProgress(v.categories[v.current])
}

// CategoryProgress число выученных слов, всего слов и процент по набору c.
func CategoryProgress(c VocabCategory) (learned, total int, percent float64) {
	total = len(c.Words)
	for _, w := range c.Words {
		if w.Learned {
			learned++
		}
	}
	if total > 0 {
		percent = float64(learned) / float64(total) * 100
	}
	return learned, total, percent
}

// Split делит слова текущего набора на выученные и остальные.
func (v *Vocabulary) Split() (learned, remaining []VocabWord) {
	for _, w := range v.categories[v.current].Words {
		if w.Learned {
			learned = append(learned, w)
		} else {
			remaining = append(remaining, w)
		}
	}
	return learned, remaining
}
