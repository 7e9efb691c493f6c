package order

// Lounge menu presets offered as buttons. Free text is accepted for every
// field as well.
var (
	StrengthChoices = [][]string{
		{"Легкий", "Легкий+", "Легкий-Средний"},
		{"Безопасный Дарк", "Средний"},
		{"Средний+", "Выше среднего", "Крепкий"},
	}

	BowlChoices = [][]string{
		{"Прямоток", "Фанел"},
		{"Фольга", "Грейпфрут"},
		{"Гранат"},
	}

	DraftChoices = []string{"Union", "Yapona", "Wookah"}
)
