// Package render turns translation results into launcher rows.
package render

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/go-wordwrap"

	"github.com/minios-linux/trlaunch/i18n"
	"github.com/minios-linux/trlaunch/langmeta"
	"github.com/minios-linux/trlaunch/launcher"
	"github.com/minios-linux/trlaunch/translate"
)

// webURL is the Google Translate page opened on Enter.
const webURL = "https://translate.google.com/"

// Options controls row formatting.
type Options struct {
	// Icon is attached to every row.
	Icon string
	// Wrap is the description width in characters.
	Wrap int
}

// Title formats the row name: the query on one line followed by the
// language pair, e.g. "hello  [en🇺🇸 → de🇩🇪]".
func Title(query, src, dst string) string {
	return strings.ReplaceAll(query, "\n", "") +
		fmt.Sprintf("  [%s%s → %s%s]", src, langmeta.Flag(src), dst, langmeta.Flag(dst))
}

// Description formats the translated text. The pronunciation is appended
// in quotes when it adds something and the whole line still fits;
// otherwise the text is wrapped at wrap characters (see Wrap).
func Description(query string, r translate.Result, wrap int) string {
	pron := r.Pronunciation
	if pron != "" && pron != r.Text && pron != query &&
		utf8.RuneCountInString(pron+r.Text)+4 <= wrap {
		return fmt.Sprintf("%s  \"%s\"", r.Text, pron)
	}
	return Wrap(r.Text, wrap)
}

// Wrap folds line breaks and tabs into spaces and wraps s at width
// characters. Words longer than width are cut into width-sized pieces,
// so text written without spaces (Chinese, Japanese) wraps too.
func Wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune("\t\n\v\f\r", r) {
			return ' '
		}
		return r
	}, s)

	words := strings.Split(s, " ")
	for i, w := range words {
		words[i] = splitLongWord(w, width)
	}
	return wordwrap.WrapString(strings.Join(words, " "), uint(width))
}

// splitLongWord inserts a space after every width runes of word.
func splitLongWord(word string, width int) string {
	runes := []rune(word)
	if len(runes) <= width {
		return word
	}
	var parts []string
	for len(runes) > width {
		parts = append(parts, string(runes[:width]))
		runes = runes[width:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return strings.Join(parts, " ")
}

// WebURL links to the same translation on the Google Translate site.
func WebURL(query, src, dst string) string {
	q := url.Values{}
	q.Set("sl", src)
	q.Set("tl", dst)
	q.Set("text", query)
	q.Set("op", "translate")
	return webURL + "?" + q.Encode()
}

// Results renders one row per result. Enter opens the translation on the
// web, Alt+Enter copies it.
func Results(query string, results []translate.Result, opts Options) *launcher.Action {
	items := make([]launcher.Item, 0, len(results))
	for _, r := range results {
		items = append(items, launcher.Item{
			Icon:        opts.Icon,
			Name:        Title(query, r.Source, r.Target),
			Description: Description(query, r, opts.Wrap),
			OnEnter:     launcher.OpenURL(WebURL(query, r.Source, r.Target)),
			OnAltEnter:  launcher.CopyToClipboard(r.Text),
		})
	}
	return launcher.RenderResultList(items...)
}

// NoInput is shown while the query is empty.
func NoInput(opts Options) *launcher.Action {
	return launcher.RenderResultList(launcher.Item{
		Icon:        opts.Icon,
		Name:        i18n.T("No input"),
		Description: i18n.T("Type text to translate, optionally with a src:dst hint"),
		OnEnter:     launcher.HideWindow(),
	})
}

// Error renders a failed translation as a single row. Invalid language
// codes are reported as "<reason> '<code>'".
func Error(query string, err error, opts Options) *launcher.Action {
	var desc string
	var ile *translate.InvalidLanguageError
	if errors.As(err, &ile) {
		desc = fmt.Sprintf("%s '%s'", ile.Error(), ile.Lang)
	} else {
		desc = i18n.Tf("Translation failed: %v", err)
	}
	return launcher.RenderResultList(launcher.Item{
		Icon:        opts.Icon,
		Name:        strings.ReplaceAll(query, "\n", ""),
		Description: desc,
		OnEnter:     launcher.HideWindow(),
	})
}
