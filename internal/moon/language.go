package moon

// Language is a key into a moon's localized-name table. The values match the
// field names of the moon list.
type Language string

const (
	English             Language = "english"
	ChineseSimplified   Language = "chinese_simplified"
	ChineseTraditional  Language = "chinese_traditional"
	Dutch               Language = "dutch"
	FrenchFrance        Language = "french_france"
	FrenchCanada        Language = "french_canada"
	German              Language = "german"
	Italian             Language = "italian"
	Japanese            Language = "japanese"
	Korean              Language = "korean"
	Russian             Language = "russian"
	SpanishSpain        Language = "spanish_spain"
	SpanishLatinAmerica Language = "spanish_latin_america"
)

var languageLabels = map[Language]string{
	English:             "English",
	ChineseSimplified:   "Simplified Chinese",
	ChineseTraditional:  "Traditional Chinese",
	Dutch:               "Dutch",
	FrenchFrance:        "French",
	FrenchCanada:        "French (Canadian)",
	German:              "German",
	Italian:             "Italian",
	Japanese:            "Japanese",
	Korean:              "Korean",
	Russian:             "Russian",
	SpanishSpain:        "Spanish",
	SpanishLatinAmerica: "Spanish (Latin America)",
}

// Languages returns the supported languages in display order.
func Languages() []Language {
	return []Language{
		English, ChineseSimplified, ChineseTraditional, Dutch,
		FrenchFrance, FrenchCanada, German, Italian, Japanese,
		Korean, Russian, SpanishSpain, SpanishLatinAmerica,
	}
}

// Valid reports whether l is a supported language key.
func (l Language) Valid() bool {
	_, ok := languageLabels[l]
	return ok
}

// Label returns the human-readable language name, or the raw key when unknown.
func (l Language) Label() string {
	if label, ok := languageLabels[l]; ok {
		return label
	}
	return string(l)
}
