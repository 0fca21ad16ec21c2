// Package validator decides whether free text looks like a yes/no question.
package validator

import (
	"strings"

	"golang.org/x/text/language"
)

// starters maps each supported language to the words that open a yes/no question.
var starters = map[language.Tag][]string{
	language.English: {
		"is", "are", "do", "does", "can", "will", "should", "did",
		"has", "have", "was", "were", "would", "could",
	},
	language.Danish: {
		"er", "kan", "vil", "gør", "har", "var", "ville", "kunne",
		"må", "bør", "skal", "skulle",
	},
	language.Spanish: {
		"es", "son", "hace", "puede", "debe", "hará", "está", "están",
		"hizo", "será", "pueden", "deben", "tiene", "tienen",
	},
}

// lookupOrder keeps classification deterministic when a word is shared between languages.
var lookupOrder = []language.Tag{language.English, language.Danish, language.Spanish}

var copulas = map[string]bool{"is": true, "are": true, "was": true, "were": true}

var determiners = map[string]bool{
	"the": true, "a": true, "an": true, "this": true,
	"that": true, "these": true, "those": true,
}

// IsValidYesNoQuestion reports whether text opens like a yes/no question
// in English, Danish or Spanish.
func IsValidYesNoQuestion(text string) bool {
	_, ok := Classify(text)
	return ok
}

// Classify returns the language whose starter list matched the question.
// It returns language.Und and false when the text is rejected.
func Classify(text string) (language.Tag, bool) {
	words := Tokens(text)
	if len(words) == 0 {
		return language.Und, false
	}

	first := words[0]
	for _, tag := range lookupOrder {
		for _, starter := range starters[tag] {
			if first == starter {
				return tag, true
			}
		}
	}

	// "is the ...", "were those ..."
	if len(words) > 1 && copulas[first] && determiners[words[1]] {
		return language.English, true
	}

	return language.Und, false
}

// Tokens normalizes text and splits it into whitespace-delimited words.
// The leading inverted question mark and the trailing question mark are dropped.
func Tokens(text string) []string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.TrimSpace(strings.TrimPrefix(normalized, "¿"))
	normalized = strings.TrimSpace(strings.TrimSuffix(normalized, "?"))
	return strings.Fields(normalized)
}
