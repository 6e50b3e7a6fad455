package lesson

import (
	"slices"
	"strings"
)

// Language язык поиска по словарю.
type Language string

const (
	English  Language = "english"
	Tigrigna Language = "tigrigna"
)

// AllCategories категория, которой соответствует любое слово.
const AllCategories = "all"

// Dictionary поиск по словарю и избранное.
type Dictionary struct {
	words     []Word
	favorites []string
}

func NewDictionary(words []Word) *Dictionary {
	return &Dictionary{words: slices.Clone(words)}
}

// Search фильтрует слова по категории и подстроке. Английский: без учёта регистра,
// тигринья как есть. Пустой term подходит под всё.
func (d *Dictionary) Search(term string, lang Language, category string) []Word {
	lower := strings.ToLower(term)
	var out []Word
	for _, w := range d.words {
		if category != "" && category != AllCategories && w.Category != category {
			continue
		}
		var match bool
		if lang == Tigrigna {
			match = strings.Contains(w.Tigrigna, term)
		} else {
			match = strings.Contains(strings.ToLower(w.English), lower)
		}
		if match {
			out = append(out, w)
		}
	}
	return out
}

// Categories "all" и категории в порядке первого появления.
func (d *Dictionary) Categories() []string {
	out := []string{AllCategories}
	for _, w := range d.words {
		if !slices.Contains(out, w.Category) {
			out = append(out, w.Category)
		}
	}
	return out
}

// ToggleFavorite добавляет слово в избранное или убирает его. Возвращает новое состояние.
func (d *Dictionary) ToggleFavorite(tigrigna string) bool {
	if i := slices.Index(d.favorites, tigrigna); i >= 0 {
		d.favorites = slices.Delete(d.favorites, i, i+1)
		return false
	}
	d.favorites = append(d.favorites, tigrigna)
	return true
}

func (d *Dictionary) Favorites() []string { return slices.Clone(d.favorites) }
