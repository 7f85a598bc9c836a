package translate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/tidwall/gjson"

	"github.com/minios-linux/trlaunch/langmeta"
)

// googleBackend talks to the translate_a/single endpoint used by the
// Google Translate web widget (client=gtx). It needs no API key.
//
// In text-only mode it asks for the sentences alone. There is no
// pronunciation or alternatives then, and a source the service did not
// report is detected offline.
type googleBackend struct {
	prov       Provider
	opts       Options
	client     *http.Client
	maxRetries int
	textOnly   bool
}

func newGoogleBackend(prov Provider, opts Options) *googleBackend {
	return &googleBackend{
		prov:       prov,
		opts:       opts,
		client:     makeHTTPClient(prov.Proxy, prov.Timeout),
		maxRetries: opts.effectiveMaxRetries(),
	}
}

func newGoogleTextBackend(prov Provider, opts Options) *googleBackend {
	b := newGoogleBackend(prov, opts)
	b.textOnly = true
	return b
}

func (b *googleBackend) endpoint(text, from, to string) string {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", from)
	q.Set("tl", to)
	q.Set("hl", to)
	q.Set("ie", "UTF-8")
	q.Set("oe", "UTF-8")
	// t: sentences, rm: transliteration, at: alternative translations
	q.Add("dt", "t")
	if !b.textOnly {
		q.Add("dt", "rm")
		q.Add("dt", "at")
	}
	q.Set("q", text)
	return strings.TrimRight(b.prov.BaseURL, "/") + "/translate_a/single?" + q.Encode()
}

func (b *googleBackend) Lookup(ctx context.Context, text, from, to string) (*Lookup, error) {
	endpoint := b.endpoint(text, from, to)

	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept-Encoding", "gzip, br")
		if b.prov.UserAgent != "" {
			req.Header.Set("User-Agent", b.prov.UserAgent)
		}

		b.opts.debug("%s attempt %d: GET %s", b.prov.Name, attempt+1, truncate(endpoint, 200))

		resp, err := b.client.Do(req)
		if err != nil {
			if IsTransient(err) || ctx.Err() != nil || attempt == b.maxRetries {
				return nil, fmt.Errorf("API request failed: %w", err)
			}
			if err := b.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		body, err := readBody(resp)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			if attempt < b.maxRetries {
				b.opts.log("[WARN] %s returned %d, retrying (attempt %d/%d)", b.prov.Name, resp.StatusCode, attempt+1, b.maxRetries)
				if err := b.backoff(ctx, attempt); err != nil {
					return nil, err
				}
				continue
			}
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(body), 300))
		}

		lk, err := parseSingleResponse(body)
		if err != nil {
			return nil, err
		}
		lk.Target = to
		if b.textOnly {
			lk.Pronunciation, lk.Alternatives = "", nil
			if lk.Source == "" && from == langmeta.Auto {
				lk.Source = detectLanguage(text)
				b.opts.debug("detected source %q for %q", lk.Source, text)
			}
		}
		return lk, nil
	}

	return nil, fmt.Errorf("exhausted all %d retries", b.maxRetries)
}

func (b *googleBackend) backoff(ctx context.Context, attempt int) error {
	wait := time.Duration(math.Pow(2, float64(attempt))) * 100 * time.Millisecond
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// parseSingleResponse decodes the positional array returned by
// translate_a/single:
//
//	[0]        sentences: [translated, original, ...] plus one
//	           [null, null, translit, source_translit] entry for dt=rm
//	[2]        detected source language
//	[5][0][2]  alternatives: [[text, score, ...], ...]
func parseSingleResponse(body []byte) (*Lookup, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("invalid JSON in translation response")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("unexpected translation response: %s", truncate(root.Raw, 200))
	}

	lk := &Lookup{}
	var text strings.Builder
	root.Get("0").ForEach(func(_, seg gjson.Result) bool {
		if first := seg.Get("0"); first.Type == gjson.String {
			text.WriteString(first.String())
		} else if tr := seg.Get("2"); tr.Type == gjson.String && lk.Pronunciation == "" {
			lk.Pronunciation = tr.String()
		}
		return true
	})
	lk.Text = text.String()
	lk.Source = root.Get("2").String()

	root.Get("5.0.2").ForEach(func(_, alt gjson.Result) bool {
		if s := alt.Get("0"); s.Type == gjson.String {
			lk.Alternatives = append(lk.Alternatives, s.String())
		}
		return true
	})

	return lk, nil
}

// detectLanguage guesses the language of text. It returns "" when the
// guess is not reliable, which leaves the source as "auto".
func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return langmeta.Normalize(info.Lang.Iso6391())
}
