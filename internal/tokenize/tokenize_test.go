package tokenize

import (
	"slices"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"two words", "Bohemian Rhapsody", []string{"bohemian", "rhapsodi"}},
		{"stemming", "Running Dancing", []string{"run", "danc"}},
		{"hex literal", "0x1A", nil},
		{"pure number", "2023", nil},
		{"mixed alnum", "Blink 182 Mix2", []string{"blink", "mix2"}},
		{"empty", "", nil},
		{"whitespace", "   \t ", nil},
		{"punctuation dropped", "Hello, World!", []string{"hello", "world"}},
		{"contraction", "Don't Stop", []string{"do", "stop"}},
		{"possessive", "Lover's Rock", []string{"lover", "rock"}},
		{"inner apostrophes dropped", "Rock'n'Roll Star", []string{"star"}},
		{"clitic after inner apostrophe", "rock'n'roll's", nil},
		{"non ascii dropped", "Café del Mar", []string{"del", "mar"}},
		{"duplicates kept", "la la land", []string{"la", "la", "land"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWordsSplitsContractions(t *testing.T) {
	got := Words("can't won't i'm we'll o'clock")
	want := []string{"ca", "n't", "wo", "n't", "i", "'m", "we", "'ll", "o'clock"}
	if !slices.Equal(got, want) {
		t.Errorf("Words() = %q, want %q", got, want)
	}
}
