package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractIndexNumber(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"plain eight digits", "INDEX 12345678 JOHN DOE", "12345678", true},
		{"twelve digits", "ID 123456789012", "123456789012", true},
		{"leftmost run wins", "12345678 THEN 87654321", "12345678", true},
		{"seven digits is too short", "NO 1234567 HERE", "", false},
		{"longer run matches its first twelve digits", "1234567890123", "123456789012", true},
		{"empty text", "", "", false},
		{"no digits at all", "KENYA CERTIFICATE", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, found := extractIndexNumber(tc.text)
			assert.Equal(t, tc.found, found)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFoundKeywords(t *testing.T) {
	vocab := []string{"KENYA", "CERTIFICATE", "EXAMINATION"}

	assert.Equal(t, []string{"KENYA", "CERTIFICATE", "EXAMINATION"},
		foundKeywords("KENYA CERTIFICATE OF SECONDARY EXAMINATION", vocab))

	assert.Equal(t, []string{"KENYA"}, foundKeywords("REPUBLIC OF KENYA", vocab))

	assert.Empty(t, foundKeywords("", vocab))
	assert.Empty(t, foundKeywords("UNRELATED DOCUMENT", vocab))
}
