// Package translate contains tests for the translation engine.
package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"
	"testing"

	"golang.org/x/net/http2"
)

// fakeBackend answers lookups from a table keyed by target language.
type fakeBackend struct {
	mu      sync.Mutex
	answers map[string]*Lookup
	fail    map[string]error
	calls   map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		answers: map[string]*Lookup{},
		fail:    map[string]error{},
		calls:   map[string]int{},
	}
}

func (f *fakeBackend) Lookup(_ context.Context, text, from, to string) (*Lookup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[to]++
	if err, ok := f.fail[to]; ok {
		delete(f.fail, to)
		return nil, err
	}
	if lk, ok := f.answers[to]; ok {
		cp := *lk
		return &cp, nil
	}
	return &Lookup{Text: text + "@" + to, Source: "en", Target: to}, nil
}

func (f *fakeBackend) callCount(to string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[to]
}

func newTestTranslator(t *testing.T, b Backend, opts Options) *Translator {
	t.Helper()
	tr, err := New(b, opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return tr
}

// ---------------------------------------------------------------------------
// Translate
// ---------------------------------------------------------------------------

func TestTranslate_PrimaryThenDistinctAlternatives(t *testing.T) {
	b := newFakeBackend()
	b.answers["de"] = &Lookup{
		Text:          "Hallo",
		Source:        "EN",
		Pronunciation: "ha-lo",
		Alternatives:  []string{"Hallo", "Servus", "Grüß Gott", "Servus"},
	}
	tr := newTestTranslator(t, b, Options{})

	got, err := tr.Translate(context.Background(), "hello", "DE", "auto")
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}
	want := []Result{
		{Text: "Hallo", Source: "en", Target: "de", Pronunciation: "ha-lo", Primary: true},
		{Text: "Servus", Source: "en", Target: "de"},
		{Text: "Grüß Gott", Source: "en", Target: "de"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Translate = %#v\nwant %#v", got, want)
	}
}

func TestTranslate_SameLanguageYieldsNothing(t *testing.T) {
	b := newFakeBackend()
	b.answers["en"] = &Lookup{Text: "hello", Source: "en"}
	tr := newTestTranslator(t, b, Options{})

	got, err := tr.Translate(context.Background(), "hello", "en", "auto")
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Translate = %#v, want no results", got)
	}
}

func TestTranslate_InvalidLanguages(t *testing.T) {
	tr := newTestTranslator(t, newFakeBackend(), Options{})

	tests := []struct {
		to, from string
		kind     string
		lang     string
		msg      string
	}{
		{to: "xx", from: "auto", kind: "destination", lang: "xx", msg: "invalid destination language"},
		{to: "auto", from: "en", kind: "destination", lang: "auto", msg: "invalid destination language"},
		{to: "de", from: "qq", kind: "source", lang: "qq", msg: "invalid source language"},
	}
	for _, tc := range tests {
		_, err := tr.Translate(context.Background(), "x", tc.to, tc.from)
		var ile *InvalidLanguageError
		if !errors.As(err, &ile) {
			t.Fatalf("Translate(%s→%s) error = %v, want InvalidLanguageError", tc.from, tc.to, err)
		}
		if ile.Kind != tc.kind || ile.Lang != tc.lang || ile.Error() != tc.msg {
			t.Errorf("got %+v (%q), want kind=%s lang=%s msg=%q", ile, ile.Error(), tc.kind, tc.lang, tc.msg)
		}
	}
}

func TestTranslate_Memoized(t *testing.T) {
	b := newFakeBackend()
	tr := newTestTranslator(t, b, Options{CacheSize: 4})

	for i := 0; i < 3; i++ {
		if _, err := tr.Translate(context.Background(), "hello", "fr", "en"); err != nil {
			t.Fatalf("Translate error: %v", err)
		}
	}
	if n := b.callCount("fr"); n != 1 {
		t.Fatalf("backend called %d times, want 1", n)
	}
}

func TestTranslate_ErrorsNotCached(t *testing.T) {
	b := newFakeBackend()
	b.fail["fr"] = errors.New("boom")
	tr := newTestTranslator(t, b, Options{})

	if _, err := tr.Translate(context.Background(), "hello", "fr", "en"); err == nil {
		t.Fatal("expected first call to fail")
	}
	if _, err := tr.Translate(context.Background(), "hello", "fr", "en"); err != nil {
		t.Fatalf("second call error: %v", err)
	}
	if n := b.callCount("fr"); n != 2 {
		t.Fatalf("backend called %d times, want 2", n)
	}
}

// ---------------------------------------------------------------------------
// TranslateMulti
// ---------------------------------------------------------------------------

func TestTranslateMulti_Ordering(t *testing.T) {
	b := newFakeBackend()
	b.answers["de"] = &Lookup{Text: "Hallo", Source: "en", Alternatives: []string{"Servus"}}
	b.answers["fr"] = &Lookup{Text: "Bonjour", Source: "en", Alternatives: []string{"Salut", "Bonjour"}}
	b.answers["it"] = &Lookup{Text: "Ciao", Source: "en"}
	tr := newTestTranslator(t, b, Options{})

	got, err := tr.TranslateMulti(context.Background(), "hello", []string{"de", "fr", "it"}, "en")
	if err != nil {
		t.Fatalf("TranslateMulti error: %v", err)
	}
	var texts []string
	for _, r := range got {
		texts = append(texts, r.Text)
	}
	want := []string{"Hallo", "Bonjour", "Ciao", "Servus", "Salut"}
	if !reflect.DeepEqual(texts, want) {
		t.Fatalf("texts = %v, want %v", texts, want)
	}
}

func TestTranslateMulti_DropsSourceFromTargets(t *testing.T) {
	b := newFakeBackend()
	tr := newTestTranslator(t, b, Options{})

	got, err := tr.TranslateMulti(context.Background(), "hello", []string{"en", "de"}, "en")
	if err != nil {
		t.Fatalf("TranslateMulti error: %v", err)
	}
	if len(got) != 1 || got[0].Target != "de" {
		t.Fatalf("got %#v, want a single German result", got)
	}
	if n := b.callCount("en"); n != 0 {
		t.Fatalf("source language was looked up %d times", n)
	}
}

func TestTranslateMulti_MaxResults(t *testing.T) {
	b := newFakeBackend()
	b.answers["de"] = &Lookup{Text: "a", Source: "en", Alternatives: []string{"b", "c", "d"}}
	b.answers["fr"] = &Lookup{Text: "e", Source: "en", Alternatives: []string{"f"}}
	tr := newTestTranslator(t, b, Options{MaxResults: 3})

	got, err := tr.TranslateMulti(context.Background(), "x", []string{"de", "fr"}, "en")
	if err != nil {
		t.Fatalf("TranslateMulti error: %v", err)
	}
	if len(got) != 3 || got[0].Text != "a" || got[1].Text != "e" || got[2].Text != "b" {
		t.Fatalf("got %#v", got)
	}
}

func TestTranslateMulti_RetriesTransientErrors(t *testing.T) {
	b := newFakeBackend()
	b.fail["fr"] = fmt.Errorf("API request failed: %w", http2.StreamError{StreamID: 1, Code: http2.ErrCodeProtocol})
	tr := newTestTranslator(t, b, Options{})

	got, err := tr.TranslateMulti(context.Background(), "hello", []string{"de", "fr"}, "en")
	if err != nil {
		t.Fatalf("TranslateMulti error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if n := b.callCount("fr"); n != 2 {
		t.Fatalf("fr looked up %d times, want 2", n)
	}
	if n := b.callCount("de"); n != 1 {
		t.Fatalf("de looked up %d times, want 1 (cached on retry)", n)
	}
}

func TestTranslateMulti_PermanentErrorPropagates(t *testing.T) {
	b := newFakeBackend()
	tr := newTestTranslator(t, b, Options{})

	_, err := tr.TranslateMulti(context.Background(), "hello", []string{"de", "xx"}, "en")
	var ile *InvalidLanguageError
	if !errors.As(err, &ile) || ile.Lang != "xx" {
		t.Fatalf("error = %v, want invalid destination xx", err)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("plain"), false},
		{fmt.Errorf("wrapped: %w", http2.GoAwayError{}), true},
		{http2.ConnectionError(http2.ErrCodeProtocol), true},
		{fmt.Errorf("read: %w", io.ErrUnexpectedEOF), true},
	}
	for i, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Errorf("case %d: IsTransient(%v) = %v, want %v", i, tc.err, got, tc.want)
		}
	}
}

func TestTargetsWithout(t *testing.T) {
	cases := []struct {
		to   []string
		from string
		want []string
	}{
		{[]string{"en"}, "en", []string{"en"}},
		{[]string{"en", "de"}, "EN", []string{"de"}},
		{[]string{"en", "en"}, "en", []string{"en"}},
		{[]string{"de", "fr"}, "auto", []string{"de", "fr"}},
	}
	for _, tc := range cases {
		if got := targetsWithout(tc.to, tc.from); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("targetsWithout(%v, %q) = %v, want %v", tc.to, tc.from, got, tc.want)
		}
	}
}

func TestNewBackend(t *testing.T) {
	provs := DefaultProviders()
	for _, id := range []string{ProviderGoogle, ProviderGoogleText} {
		if _, err := NewBackend(provs[id], Options{}); err != nil {
			t.Errorf("NewBackend(%s) error: %v", id, err)
		}
	}
	if _, err := NewBackend(Provider{ID: "nope"}, Options{}); err == nil {
		t.Error("NewBackend(nope) succeeded, want error")
	}
}
