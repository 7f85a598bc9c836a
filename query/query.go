// Package query parses launcher input into the text to translate and the
// source/target languages, honoring an inline "src:dst" hint.
//
// The hint may trail or lead the text:
//
//	hello world en:de    translate from English to German
//	:fr bonjour          auto-detect source, translate to French
//	ru: привет           from Russian to the default target languages
package query

import (
	"errors"
	"regexp"
	"strings"

	"github.com/minios-linux/trlaunch/langmeta"
)

// ErrEmpty is returned when there is nothing left to translate.
var ErrEmpty = errors.New("empty query")

const hintPattern = `([a-zA-Z-]{2,})?:([a-zA-Z]{2})?`

var (
	// A trailing hint may be followed by one final newline.
	trailingHint = regexp.MustCompile(hintPattern + `\n?$`)
	leadingHint  = regexp.MustCompile(`^` + hintPattern)
)

// Defaults are the preference-provided languages used when the input
// carries no hint (or only half of one).
type Defaults struct {
	// MainLangs is the comma-separated list of target languages.
	MainLangs string
	// OtherLang is the source language used without a hint.
	OtherLang string
}

// Request is a parsed query.
type Request struct {
	Text string
	From string
	To   []string
}

// Parse splits raw launcher input into a Request.
func Parse(input string, defaults Defaults) (Request, error) {
	if strings.TrimSpace(input) == "" {
		return Request{}, ErrEmpty
	}

	var req Request
	loc := trailingHint.FindStringSubmatchIndex(input)
	if loc == nil {
		loc = leadingHint.FindStringSubmatchIndex(input)
	}

	if loc != nil {
		req.From = group(input, loc, 1)
		if req.From == "" {
			req.From = langmeta.Auto
		}
		if to := group(input, loc, 2); to != "" {
			req.To = []string{to}
		} else {
			req.To = splitLangs(defaults.MainLangs)
		}
		if loc[0] > 0 {
			req.Text = strings.TrimSpace(input[:loc[0]])
		} else {
			req.Text = strings.TrimSpace(input[loc[1]:])
		}
	} else {
		req.From = defaults.OtherLang
		req.To = splitLangs(defaults.MainLangs)
		req.Text = input
	}

	if strings.TrimSpace(req.Text) == "" {
		return Request{}, ErrEmpty
	}

	req.From = langmeta.Normalize(req.From)
	if req.From == "" {
		req.From = langmeta.Auto
	}
	for i, l := range req.To {
		req.To[i] = langmeta.Normalize(l)
	}
	return req, nil
}

func group(s string, loc []int, n int) string {
	start, end := loc[2*n], loc[2*n+1]
	if start < 0 {
		return ""
	}
	return s[start:end]
}

func splitLangs(list string) []string {
	var out []string
	for _, l := range strings.Split(list, ",") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
