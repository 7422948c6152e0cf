package formatting

// pluralize выбирает форму слова для числа: одна, две-четыре, пять и больше
func pluralize(count int, one, few, many string) string {
	if count%10 == 1 && count%100 != 11 {
		return one
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return few
	}
	return many
}

// PluralizeEvents возвращает правильное склонение слова "событие"
func PluralizeEvents(count int) string {
	return pluralize(count, "событие", "события", "событий")
}

// PluralizeLessons возвращает правильное склонение слова "занятие"
func PluralizeLessons(count int) string {
	return pluralize(count, "занятие", "занятия", "занятий")
}

// PluralizeSlots возвращает правильное склонение слова "окно"
func PluralizeSlots(count int) string {
	return pluralize(count, "окно", "окна", "окон")
}
