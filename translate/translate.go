// Package translate looks up translations through an external translation
// service. It validates language codes, memoizes lookups, fans out one
// request per target language and orders the primary translations ahead
// of their alternatives.
package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/net/http2"
	"golang.org/x/sync/errgroup"

	"github.com/minios-linux/trlaunch/langmeta"
)

// ---------------------------------------------------------------------------
// Provider IDs
// ---------------------------------------------------------------------------

const (
	ProviderGoogle     = "google"
	ProviderGoogleText = "google-text"
)

// DefaultUserAgent is sent to the web endpoint, which serves richer
// responses (transliteration, alternatives) to browsers.
const DefaultUserAgent = "Mozilla/5.0 (Android 9; Mobile; rv:67.0.3) Gecko/67.0.3 Firefox/67.0.3"

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// Provider holds the configuration for a translation service.
type Provider struct {
	// ID is the provider identifier (google, google-text).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL.
	BaseURL string
	// UserAgent is sent with every request.
	UserAgent string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the request timeout.
	Timeout time.Duration
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderGoogle: {
			ID:        ProviderGoogle,
			Name:      "Google Translate (web)",
			BaseURL:   "https://translate.googleapis.com",
			UserAgent: DefaultUserAgent,
			Timeout:   10 * time.Second,
		},
		ProviderGoogleText: {
			ID:        ProviderGoogleText,
			Name:      "Google Translate (text only)",
			BaseURL:   "https://translate.googleapis.com",
			UserAgent: DefaultUserAgent,
			Timeout:   10 * time.Second,
		},
	}
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Options controls the translation behavior.
type Options struct {
	// CacheSize is the number of memoized lookups. Default: 10000.
	CacheSize int
	// MaxConcurrent caps parallel lookups per query. Default: 8.
	MaxConcurrent int
	// MaxResults caps the rows returned by TranslateMulti. Default: 100.
	MaxResults int
	// MaxRetries is the number of retries on 429/5xx responses. Default: 2.
	MaxRetries int
	// RetryAttempts is how many times TranslateMulti re-runs after a
	// transient protocol error. Default: 10.
	RetryAttempts int
	// RetryDelay is the pause before such a re-run. Default: 10ms.
	RetryDelay time.Duration
	// OnLog emits log messages during translation.
	OnLog func(format string, args ...any)
	// Verbose enables detailed logging.
	Verbose bool
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) debug(format string, args ...any) {
	if o.Verbose {
		o.log("[DEBUG] "+format, args...)
	}
}

func (o *Options) effectiveCacheSize() int {
	if o.CacheSize > 0 {
		return o.CacheSize
	}
	return 10_000
}

func (o *Options) effectiveMaxConcurrent() int {
	if o.MaxConcurrent > 0 {
		return o.MaxConcurrent
	}
	return 8
}

func (o *Options) effectiveMaxResults() int {
	if o.MaxResults > 0 {
		return o.MaxResults
	}
	return 100
}

func (o *Options) effectiveMaxRetries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return 2
}

func (o *Options) effectiveRetryAttempts() int {
	if o.RetryAttempts > 0 {
		return o.RetryAttempts
	}
	return 10
}

func (o *Options) effectiveRetryDelay() time.Duration {
	if o.RetryDelay > 0 {
		return o.RetryDelay
	}
	return 10 * time.Millisecond
}

// ---------------------------------------------------------------------------
// Results and errors
// ---------------------------------------------------------------------------

// Lookup is the raw answer of a backend for one (text, from, to) triple.
type Lookup struct {
	// Text is the primary translation.
	Text string
	// Source is the source language, as detected by the service when
	// the request asked for auto detection. Empty if unknown.
	Source string
	// Target is the target language.
	Target string
	// Pronunciation is the transliteration of Text, if any.
	Pronunciation string
	// Alternatives are other possible translations, in service order.
	Alternatives []string
}

// Result is one displayable translation.
type Result struct {
	Text          string
	Source        string
	Target        string
	Pronunciation string
	// Primary is false for alternative translations.
	Primary bool
}

// Backend performs a single lookup against a translation service.
type Backend interface {
	Lookup(ctx context.Context, text, from, to string) (*Lookup, error)
}

// InvalidLanguageError reports a language code the service does not accept.
type InvalidLanguageError struct {
	// Kind is "source" or "destination".
	Kind string
	// Lang is the offending code.
	Lang string
}

func (e *InvalidLanguageError) Error() string {
	return "invalid " + e.Kind + " language"
}

// IsTransient reports whether err is a protocol-level hiccup worth an
// immediate retry: HTTP/2 stream resets, GOAWAYs and truncated bodies.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var streamErr http2.StreamError
	var goAway http2.GoAwayError
	var connErr http2.ConnectionError
	switch {
	case errors.As(err, &streamErr), errors.As(err, &goAway), errors.As(err, &connErr):
		return true
	case errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	return false
}

// NewBackend builds the backend for a provider.
func NewBackend(prov Provider, opts Options) (Backend, error) {
	switch prov.ID {
	case ProviderGoogle:
		return newGoogleBackend(prov, opts), nil
	case ProviderGoogleText:
		return newGoogleTextBackend(prov, opts), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", prov.ID)
	}
}

// ---------------------------------------------------------------------------
// Translator
// ---------------------------------------------------------------------------

type cacheKey struct {
	text, from, to string
}

// Translator validates, memoizes and fans out lookups.
type Translator struct {
	backend Backend
	opts    Options
	cache   *lru.Cache[cacheKey, []Result]
}

// New creates a Translator on top of backend.
func New(backend Backend, opts Options) (*Translator, error) {
	cache, err := lru.New[cacheKey, []Result](opts.effectiveCacheSize())
	if err != nil {
		return nil, fmt.Errorf("creating lookup cache: %w", err)
	}
	return &Translator{backend: backend, opts: opts, cache: cache}, nil
}

// Translate translates text into a single target language. The primary
// translation comes first, followed by alternatives that differ from it.
// It returns no results when the (detected) source equals the target.
func (t *Translator) Translate(ctx context.Context, text, to, from string) ([]Result, error) {
	to = langmeta.Normalize(to)
	from = langmeta.Normalize(from)
	if !langmeta.Supported(to) {
		return nil, &InvalidLanguageError{Kind: "destination", Lang: to}
	}
	if !langmeta.SupportedSource(from) {
		return nil, &InvalidLanguageError{Kind: "source", Lang: from}
	}

	key := cacheKey{text: text, from: from, to: to}
	if cached, ok := t.cache.Get(key); ok {
		return cached, nil
	}

	t.opts.debug("lookup %s → %s: %q", from, to, text)
	lk, err := t.backend.Lookup(ctx, text, from, to)
	if err != nil {
		return nil, err
	}

	src := from
	if lk.Source != "" {
		src = langmeta.Normalize(lk.Source)
	}
	dst := to
	if lk.Target != "" {
		dst = langmeta.Normalize(lk.Target)
	}

	var results []Result
	if src != dst {
		results = append(results, Result{
			Text:          lk.Text,
			Source:        src,
			Target:        dst,
			Pronunciation: lk.Pronunciation,
			Primary:       true,
		})
		seen := map[string]bool{lk.Text: true}
		for _, alt := range lk.Alternatives {
			if seen[alt] {
				continue
			}
			seen[alt] = true
			results = append(results, Result{Text: alt, Source: src, Target: dst})
		}
	}

	t.cache.Add(key, results)
	return results, nil
}

// TranslateMulti translates text into every language in to. The source
// language is dropped from the targets when other targets remain. The
// primary translation of each target comes first, in target order, then
// all alternatives. A transient protocol error re-runs the whole batch
// after a short pause; lookups that already succeeded come from cache.
func (t *Translator) TranslateMulti(ctx context.Context, text string, to []string, from string) ([]Result, error) {
	targets := targetsWithout(to, from)

	var (
		perTarget [][]Result
		err       error
	)
	attempts := t.opts.effectiveRetryAttempts()
	for attempt := 0; attempt < attempts; attempt++ {
		perTarget, err = t.fanOut(ctx, text, targets, from)
		if err == nil || !IsTransient(err) {
			break
		}
		t.opts.log("transient error, retrying in %v: %v", t.opts.effectiveRetryDelay(), err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(t.opts.effectiveRetryDelay()):
		}
	}
	if err != nil {
		return nil, err
	}

	limit := t.opts.effectiveMaxResults()
	var out []Result
	for _, res := range perTarget {
		if len(res) > 0 && len(out) < limit {
			out = append(out, res[0])
		}
	}
	for _, res := range perTarget {
		for _, r := range res[min(1, len(res)):] {
			if len(out) >= limit {
				return out, nil
			}
			out = append(out, r)
		}
	}
	return out, nil
}

func (t *Translator) fanOut(ctx context.Context, text string, targets []string, from string) ([][]Result, error) {
	perTarget := make([][]Result, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.opts.effectiveMaxConcurrent())
	for i, to := range targets {
		i, to := i, to
		g.Go(func() error {
			res, err := t.Translate(gctx, text, to, from)
			if err != nil {
				return err
			}
			perTarget[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return perTarget, nil
}

// targetsWithout returns to minus from, unless that would leave it empty.
func targetsWithout(to []string, from string) []string {
	if len(to) <= 1 {
		return to
	}
	from = langmeta.Normalize(from)
	out := make([]string, 0, len(to))
	for _, l := range to {
		if langmeta.Normalize(l) != from {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return to[:1]
	}
	return out
}
