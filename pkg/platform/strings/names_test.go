package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"lower-cases", "JOHN", "john"},
		{"strips acute accent", "Seán", "sean"},
		{"strips apostrophe", "O'Brien", "obrien"},
		{"strips hyphen and space", "Mary-Jane Van Dyke", "maryjanevandyke"},
		{"strips digits and punctuation", " J0hn. ", "jhn"},
		{"strips umlaut and cedilla", "Zoë Françoise", "zoefrancoise"},
		{"keeps non-decomposable letters", "Søren", "søren"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.input))
		})
	}
}

func TestNamesEqual(t *testing.T) {
	assert.True(t, NamesEqual("Seán O'Brien", "SEAN OBRIEN"))
	assert.True(t, NamesEqual("seán", "SEAN"))
	assert.True(t, NamesEqual("o'brien", "OBRIEN"))
	assert.False(t, NamesEqual("Sean", "Shaun"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "booker@example.com", NormalizeEmail("  Booker@Example.COM "))
}
