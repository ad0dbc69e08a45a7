// Package sanitize removes placeholder markup that Transifex returns for
// search terms nobody has really translated.
//
// Untranslated preset terms come back as "<translate with synonyms ...>"
// and untranslated field terms as "[translate with synonyms ...]". Such
// values must not ship as if they were translations.
package sanitize

import (
	"regexp"
	"strings"
)

// The match runs from the first opening delimiter to the last closing one,
// across line breaks, so nothing a second pass could match is left behind.
var (
	presetPlaceholder = regexp.MustCompile(`(?s)<.*>`)
	fieldPlaceholder  = regexp.MustCompile(`(?s)\[.*\]`)
)

// Locale scrubs the terms of content["presets"]["presets"] and
// content["presets"]["fields"] in place. Only the first placeholder match
// of each value is removed. A terms value left empty is deleted, and so is
// an entry left without fields. Locale is idempotent.
func Locale(content map[string]any) {
	presets, ok := content["presets"].(map[string]any)
	if !ok {
		return
	}
	if entries, ok := presets["presets"].(map[string]any); ok {
		Terms(entries, presetPlaceholder)
	}
	if entries, ok := presets["fields"].(map[string]any); ok {
		Terms(entries, fieldPlaceholder)
	}
}

// Terms strips the first match of placeholder from the "terms" value of
// every entry. Entries that are not mappings, and terms that are not
// strings, are left alone.
func Terms(entries map[string]any, placeholder *regexp.Regexp) {
	for key, v := range entries {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		terms, ok := entry["terms"].(string)
		if !ok {
			continue
		}

		terms = strings.TrimSpace(replaceFirst(placeholder, terms))
		if terms != "" {
			entry["terms"] = terms
			continue
		}

		delete(entry, "terms")
		if len(entry) == 0 {
			delete(entries, key)
		}
	}
}

func replaceFirst(re *regexp.Regexp, s string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}
