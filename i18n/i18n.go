// Package i18n translates txsync's own user-facing messages.
//
// Catalogs are gettext .po files embedded from locales/{lang}/LC_MESSAGES/
// and read with gotext. Untranslated messages pass through unchanged, so T
// and N are safe to call before Init.
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

//go:embed all:locales
var locales embed.FS

const domain = "txsync"

// catalog is the part of *gotext.Locale that T and N use. Messages are
// looked up as-is and never formatted here; callers format the result.
type catalog interface {
	Get(str string, vars ...any) string
	GetN(str, plural string, n int, vars ...any) string
}

var po catalog

// Init loads the catalog for lang. An empty lang is taken from the
// environment the way GNU gettext does it. The resolved language is
// returned.
func Init(lang string) string {
	if lang == "" {
		lang = detectLanguage()
	}

	l := gotext.NewLocaleFSWithPath(lang, locales, "locales")
	l.AddDomain(domain)
	l.SetDomain(domain)
	po = l
	return lang
}

// T translates msgid.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a message with plural forms for count n.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// detectLanguage checks LANGUAGE, LC_ALL, LC_MESSAGES and LANG in that
// order and falls back to "en".
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		if lang := normalize(val); lang != "" {
			return lang
		}
	}
	return "en"
}

// normalize strips the codeset and modifier ("ru_RU.UTF-8@euro" becomes
// "ru_RU"). C and POSIX mean no translation and yield "".
func normalize(val string) string {
	val, _, _ = strings.Cut(val, "@")
	val, _, _ = strings.Cut(val, ".")
	if val == "C" || val == "POSIX" {
		return ""
	}
	return val
}
