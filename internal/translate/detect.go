package translate

import "unicode"

// DetectLanguage classifies text as Chinese ("zh") or not ("en") by the
// share of Han runes. The relay only cares about one language boundary, so
// a heuristic beats shipping a classifier: anything that is not mostly
// Chinese is treated as the remote user's own language and tagged "en" for
// translation purposes.
func DetectLanguage(text string) string {
	var han, letters int
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			han++
			letters++
		} else if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters == 0 {
		return ""
	}
	if han*2 >= letters {
		return "zh"
	}
	return "en"
}
