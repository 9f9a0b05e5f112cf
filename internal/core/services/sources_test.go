package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		answer  string
		sources string
	}{
		{"marker", "Rates rose.\nSOURCES: https://a", "Rates rose.", "https://a"},
		{"lowercase marker", "Rates rose.\nsources: https://a", "Rates rose.", "https://a"},
		{"no marker", "Just an answer.", "Just an answer.", ""},
		{"last marker wins", "Sources: vary.\nSOURCES: https://a", "Sources: vary.", "https://a"},
		{"empty sources", "Answer.\nSOURCES:", "Answer.", ""},
		{"resources is not a marker",
			"Rates rose in 2024. See additional resources: the Fed site.",
			"Rates rose in 2024. See additional resources: the Fed site.", ""},
		{"mid-line sources is not a marker",
			"See these sources: the Fed site.", "See these sources: the Fed site.", ""},
		{"resources before the marker line",
			"Check the resources: below.\nSOURCES: https://a", "Check the resources: below.", "https://a"},
		{"indented marker", "Answer.\n  Sources: https://a", "Answer.", "https://a"},
		{"bold marker", "Answer.\n**SOURCES:** https://a, https://b", "Answer.", "https://a, https://b"},
		{"marker on first line", "SOURCES: https://a", "", "https://a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, sources := ParseAnswer(tt.reply)
			assert.Equal(t, tt.answer, answer)
			assert.Equal(t, tt.sources, sources)
		})
	}
}

func TestParseSources(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", []string{}},
		{"commas", "https://a, https://b", []string{"https://a", "https://b"}},
		{"newlines", "https://a\nhttps://b\n", []string{"https://a", "https://b"}},
		{"duplicates keep first order", "https://b https://a https://b", []string{"https://b", "https://a"}},
		{"mixed separators", " https://a ,\n, https://b ", []string{"https://a", "https://b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSources(tt.raw)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanLocators(t *testing.T) {
	got := CleanLocators([]string{" https://a ", "", "\t", "https://b", "https://a"})
	assert.Equal(t, []string{"https://a", "https://b", "https://a"}, got)
	assert.Empty(t, CleanLocators(nil))
}
