package month

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Key
	}{
		{"abbreviated name", "Mar 2024", "2024-03"},
		{"full name", "March 2024", "2024-03"},
		{"dash", "2024-03", "2024-03"},
		{"slash", "2024/03", "2024-03"},
		{"single digit month with dash", "2024-3", "2024-03"},
		{"single digit month with slash", "2024/3", "2024-03"},
		{"lowercase name", "mar 2024", "2024-03"},
		{"surrounding whitespace", "  Dec 2023 \n", "2023-12"},
		{"september", "September 2025", "2025-09"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSameMonthAllFormats(t *testing.T) {
	inputs := []string{"Jan 2024", "January 2024", "2024-01", "2024/01"}
	for _, in := range inputs {
		got, err := Parse(in)
		assert.NoError(t, err, in)
		assert.Equal(t, Key("2024-01"), got, in)
	}
}

func TestParseRejects(t *testing.T) {
	inputs := []string{
		"",
		"2024",
		"03/2024",
		"2024-13",
		"2024-00",
		"Foo 2024",
		"2024-03-01",
		"Janu 2024",
		"24-03",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			assert.Error(t, err)

			var fe *FormatError
			assert.True(t, errors.As(err, &fe), "should be FormatError")
			assert.Equal(t, in, fe.Text)
		})
	}
}

func TestKeyNavigation(t *testing.T) {
	k := MustParse("2024-12")
	assert.Equal(t, Key("2025-01"), k.Next())
	assert.Equal(t, Key("2024-11"), k.Prev())
	assert.Equal(t, Key("2024-12"), k.Next().Prev())
}

func TestKeyValid(t *testing.T) {
	assert.True(t, Key("2024-01").Valid())
	assert.False(t, Key("2024-1").Valid())
	assert.False(t, Key("Jan 2024").Valid())
	assert.False(t, Key("").Valid())
}
