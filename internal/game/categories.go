package game

import "strings"

// Category представляет категорию карточки персонажа
type Category string

const (
	CategoryBio     Category = "bio"
	CategoryProf    Category = "prof"
	CategoryHealth  Category = "health"
	CategoryHobby   Category = "hobby"
	CategoryLuggage Category = "luggage"
	CategoryFact    Category = "fact"
	CategorySpecial Category = "special"
)

// AllCategories — все категории в порядке карточки
var AllCategories = []Category{
	CategoryBio,
	CategoryProf,
	CategoryHealth,
	CategoryHobby,
	CategoryLuggage,
	CategoryFact,
	CategorySpecial,
}

// AdminCategories — категории, доступные в админских диалогах
// (особое условие не изменяется и не раскрывается через диалоги)
var AdminCategories = []Category{
	CategoryBio,
	CategoryProf,
	CategoryHealth,
	CategoryHobby,
	CategoryLuggage,
	CategoryFact,
}

var categoryTitles = map[Category]string{
	CategoryBio:     "Биология",
	CategoryProf:    "Профессия",
	CategoryHealth:  "Здоровье",
	CategoryHobby:   "Хобби",
	CategoryLuggage: "Багаж",
	CategoryFact:    "Факт",
	CategorySpecial: "Особое условие",
}

var categoryEmojis = map[Category]string{
	CategoryBio:     "🧬",
	CategoryProf:    "💼",
	CategoryHealth:  "❤️",
	CategoryHobby:   "🎨",
	CategoryLuggage: "🎒",
	CategoryFact:    "📜",
	CategorySpecial: "🔮",
}

// ParseCategory сопоставляет введённый текст с категорией.
// Сравнение идёт по точному совпадению в нижнем регистре.
func ParseCategory(text string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(text))
	for cat, title := range categoryTitles {
		if name == strings.ToLower(title) {
			return cat, nil
		}
	}
	return "", ErrInvalidInput
}

// Title возвращает русское название категории
func (c Category) Title() string {
	return categoryTitles[c]
}

// Emoji возвращает эмодзи категории для карточки
func (c Category) Emoji() string {
	return categoryEmojis[c]
}

// Slots возвращает число слотов категории (багаж и особое условие — по два)
func (c Category) Slots() int {
	if c == CategoryLuggage || c == CategorySpecial {
		return 2
	}
	return 1
}

// Key возвращает ключ категории для БД и состояния диалога
func (c Category) Key() string {
	return string(c)
}
