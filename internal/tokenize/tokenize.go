// Package tokenize turns track names into stemmed search tokens.
package tokenize

import (
	"strings"

	"github.com/kljensen/snowball/english"
	"github.com/rivo/uniseg"
)

// Tokenize lowercases text, splits it on Unicode word boundaries and returns
// the stemmed form of every unit that is ASCII alphanumeric, not purely
// numeric and not a hex literal. Order and duplicates are preserved.
func Tokenize(text string) []string {
	var tokens []string
	for _, unit := range Words(strings.ToLower(text)) {
		if keep(unit) {
			tokens = append(tokens, english.Stem(unit, true))
		}
	}
	return tokens
}

// Words segments text into word-like units, dropping whitespace and
// splitting English contractions ("don't" -> "do", "n't").
func Words(text string) []string {
	var units []string
	state := -1
	for len(text) > 0 {
		var word string
		word, text, state = uniseg.FirstWordInString(text, state)
		if strings.TrimSpace(word) == "" {
			continue
		}
		units = append(units, splitContraction(word)...)
	}
	return units
}

// Clitics split off the end of a word. Any other apostrophe keeps the word
// whole, and keep later drops it.
var clitics = []string{"n't", "'s", "'re", "'ve", "'ll", "'d", "'m"}

func splitContraction(word string) []string {
	for _, c := range clitics {
		if len(word) > len(c) && strings.HasSuffix(word, c) {
			head := word[:len(word)-len(c)]
			if strings.IndexByte(head, '\'') >= 0 {
				break
			}
			return []string{head, c}
		}
	}
	return []string{word}
}

func keep(unit string) bool {
	if unit == "" || unit[0] == '\'' || strings.HasPrefix(unit, "0x") {
		return false
	}
	digits := true
	for i := 0; i < len(unit); i++ {
		c := unit[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			digits = false
		default:
			// Non-ASCII bytes and punctuation both land here.
			return false
		}
	}
	return !digits
}
