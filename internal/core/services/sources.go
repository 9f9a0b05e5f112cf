package services

import (
	"regexp"
	"strings"
)

var (
	// sourcesMarker matches SOURCES: at the start of a line, optionally
	// indented or wrapped in markdown emphasis. Mid-line text such as
	// "resources:" or "see these sources:" is part of the answer.
	sourcesMarker   = regexp.MustCompile(`(?im)^[ \t]*(?:[*_]{1,2})?sources:(?:[*_]{1,2})?`)
	sourceSeparator = regexp.MustCompile(`[\n, ]+`)
)

// ParseAnswer splits a model reply at the last line starting with
// "SOURCES:". A reply without such a line is all answer and no sources.
func ParseAnswer(reply string) (answer, rawSources string) {
	locs := sourcesMarker.FindAllStringIndex(reply, -1)
	if len(locs) == 0 {
		return strings.TrimSpace(reply), ""
	}
	last := locs[len(locs)-1]
	return strings.TrimSpace(reply[:last[0]]), strings.TrimSpace(reply[last[1]:])
}

// ParseSources splits a raw sources string on newlines, commas and spaces,
// dropping empty tokens and repeats while keeping first-appearance order.
// It never returns nil.
func ParseSources(raw string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, tok := range sourceSeparator.Split(strings.TrimSpace(raw), -1) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// CleanLocators trims the input and drops blank entries. Order and
// duplicates are kept.
func CleanLocators(locators []string) []string {
	out := make([]string, 0, len(locators))
	for _, l := range locators {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
