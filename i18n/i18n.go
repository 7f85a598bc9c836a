// Package i18n provides internationalization support for trlaunch itself.
//
// It wraps the gotext library to provide simple T() and N() functions
// for translating the rows and messages trlaunch shows to the user.
// Translations are embedded in the binary via //go:embed and loaded at
// startup via Init().
//
// Usage:
//
//	import "github.com/minios-linux/trlaunch/i18n"
//
//	func main() {
//	    i18n.Init("")  // auto-detect from LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	    fmt.Println(i18n.T("Hello, world!"))
//	    fmt.Println(i18n.N("%d translation", "%d translations", count))
//	}
package i18n

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the compiled .po/.mo translation files.
// Directory structure: locales/{lang}/LC_MESSAGES/trlaunch.po
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name for trlaunch.
const domain = "trlaunch"

// mu guards po and lang, which Init may replace while other goroutines
// translate.
var mu sync.RWMutex

// po is the gotext locale object used for translations.
var po *gotext.Locale

// lang is the language Init settled on.
var lang = "en"

// Init initializes the i18n system. If language is empty, it auto-detects
// from the environment variables LANGUAGE, LC_ALL, LC_MESSAGES, LANG
// (in that order, matching GNU gettext behavior).
//
// Init is called at program startup, before any T() or N() calls, and
// again whenever the user switches the UI language.
func Init(language string) {
	if language == "" {
		language = detectLanguage()
	}

	l := gotext.NewLocaleFSWithPath(language, locales, "locales")
	l.AddDomain(domain)
	l.SetDomain(domain)

	mu.Lock()
	po, lang = l, language
	mu.Unlock()
}

// Language returns the language passed to (or detected by) Init.
func Language() string {
	mu.RLock()
	defer mu.RUnlock()
	return lang
}

func locale() *gotext.Locale {
	mu.RLock()
	defer mu.RUnlock()
	return po
}

// Tf translates format and then formats it with args.
func Tf(format string, args ...any) string {
	return fmt.Sprintf(T(format), args...)
}

// T translates a string. If no translation is available, returns the
// original string unchanged (standard gettext passthrough behavior).
func T(msgid string) string {
	l := locale()
	if l == nil {
		return msgid
	}
	return l.Get(msgid)
}

// N translates a string with plural forms. The singular form is used
// when n == 1, the plural form otherwise (exact rules depend on the
// target language's plural formula).
func N(singular, plural string, n int) string {
	l := locale()
	if l == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return l.GetN(singular, plural, n)
}

// detectLanguage reads environment variables to determine the user's
// preferred language, following GNU gettext conventions.
func detectLanguage() string {
	// GNU gettext priority: LANGUAGE > LC_ALL > LC_MESSAGES > LANG
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if val := os.Getenv(env); val != "" {
			// LANGUAGE can be a colon-separated list; take the first
			if env == "LANGUAGE" {
				parts := strings.SplitN(val, ":", 2)
				val = parts[0]
			}
			// Strip encoding suffix (e.g. "ru_RU.UTF-8" -> "ru_RU")
			if idx := strings.IndexByte(val, '.'); idx >= 0 {
				val = val[:idx]
			}
			// Skip "C" and "POSIX": these mean no translation
			if val == "C" || val == "POSIX" || val == "" {
				continue
			}
			return val
		}
	}
	return "en"
}
