// Package locale handles locale codes as used by txsync and by Transifex.
//
// txsync names locales in hyphen form ("pt-BR"); the Transifex API uses the
// underscore form ("pt_BR"). Conversion between the two is a plain character
// swap, so it round-trips for every code.
//
// The package also carries a small registry of native language names used
// by the status command.
package locale

import "strings"

// Code is a locale code in hyphen form.
type Code string

// String implements fmt.Stringer.
func (c Code) String() string { return string(c) }

// ToRemote converts a hyphen-form code to the underscore form Transifex uses.
func ToRemote(c Code) string {
	return strings.ReplaceAll(string(c), "-", "_")
}

// FromRemote converts an underscore-form Transifex code to hyphen form.
func FromRemote(s string) Code {
	return Code(strings.ReplaceAll(s, "_", "-"))
}

// Equal reports whether two codes name the same locale, ignoring the
// separator style.
func Equal(a, b string) bool {
	return FromRemote(a) == FromRemote(b)
}

// Meta describes language display metadata.
type Meta struct {
	Name string
	Flag string
}

// names maps canonical codes to native language names. Region flags are
// derived from the code itself, the base-language entries carry a default
// region for the flag.
var names = map[string]struct {
	name   string
	region string
}{
	"ar":    {"العربية", "SA"},
	"bg":    {"Български", "BG"},
	"ca":    {"Català", "ES"},
	"cs":    {"Čeština", "CZ"},
	"da":    {"Dansk", "DK"},
	"de":    {"Deutsch", "DE"},
	"el":    {"Ελληνικά", "GR"},
	"en":    {"English", "US"},
	"en-GB": {"English (UK)", ""},
	"es":    {"Español", "ES"},
	"fa":    {"فارسی", "IR"},
	"fi":    {"Suomi", "FI"},
	"fr":    {"Français", "FR"},
	"he":    {"עברית", "IL"},
	"hr":    {"Hrvatski", "HR"},
	"hu":    {"Magyar", "HU"},
	"id":    {"Bahasa Indonesia", "ID"},
	"it":    {"Italiano", "IT"},
	"ja":    {"日本語", "JP"},
	"ko":    {"한국어", "KR"},
	"lt":    {"Lietuvių", "LT"},
	"nl":    {"Nederlands", "NL"},
	"nb":    {"Norsk bokmål", "NO"},
	"pl":    {"Polski", "PL"},
	"pt":    {"Português", "PT"},
	"pt-BR": {"Português (Brasil)", ""},
	"ro":    {"Română", "RO"},
	"ru":    {"Русский", "RU"},
	"sk":    {"Slovenčina", "SK"},
	"sl":    {"Slovenščina", "SI"},
	"sr":    {"Српски", "RS"},
	"sv":    {"Svenska", "SE"},
	"tr":    {"Türkçe", "TR"},
	"uk":    {"Українська", "UA"},
	"vi":    {"Tiếng Việt", "VN"},
	"zh-CN": {"简体中文", ""},
	"zh-TW": {"繁體中文", ""},
}

// Canonicalize normalizes case and separators: "pt_br" becomes "pt-BR".
// Script subtags ("zh-Hant") keep their case.
func Canonicalize(lang string) Code {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 && len(parts[1]) == 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return Code(strings.Join(parts, "-"))
}

// Resolve returns best-effort metadata for a locale code, falling back to
// the base language and finally to the code itself.
func Resolve(lang string) Meta {
	code := string(Canonicalize(lang))
	region := regionOf(code)

	if n, ok := names[code]; ok {
		if region == "" {
			region = n.region
		}
		return Meta{Name: n.name, Flag: FlagFromRegion(region)}
	}
	if base, _, ok := strings.Cut(code, "-"); ok {
		if n, ok := names[base]; ok {
			if region == "" {
				region = n.region
			}
			return Meta{Name: n.name, Flag: FlagFromRegion(region)}
		}
	}
	return Meta{Name: lang, Flag: FlagFromRegion(region)}
}

// regionOf returns the two-letter region subtag of a canonical code, if any.
func regionOf(code string) string {
	for _, part := range strings.Split(code, "-")[1:] {
		if len(part) == 2 {
			return part
		}
	}
	return ""
}

// FlagFromRegion builds the emoji flag for a two-letter region code.
// Anything else yields an empty string.
func FlagFromRegion(region string) string {
	if len(region) != 2 {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(region) {
		if r < 'A' || r > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (r - 'A'))
	}
	return b.String()
}
