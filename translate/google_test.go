package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
)

const sampleResponse = `[
	[["Привет, ","Hello, ",null,null,10],["мир","world",null,null,10],[null,null,"Privet, mir","Hello, world"]],
	null,
	"en",
	null,
	null,
	[["Hello, world",null,[["Привет, мир",1000,true,false],["Здравствуй, мир",0,true,false]],[[0,12]],"Hello, world",0,0]],
	1,
	[],
	[["en"],null,[1],["en"]]
]`

func TestParseSingleResponse(t *testing.T) {
	lk, err := parseSingleResponse([]byte(sampleResponse))
	if err != nil {
		t.Fatalf("parseSingleResponse error: %v", err)
	}
	if lk.Text != "Привет, мир" {
		t.Errorf("Text = %q", lk.Text)
	}
	if lk.Source != "en" {
		t.Errorf("Source = %q", lk.Source)
	}
	if lk.Pronunciation != "Privet, mir" {
		t.Errorf("Pronunciation = %q", lk.Pronunciation)
	}
	want := []string{"Привет, мир", "Здравствуй, мир"}
	if !reflect.DeepEqual(lk.Alternatives, want) {
		t.Errorf("Alternatives = %v, want %v", lk.Alternatives, want)
	}
}

func TestParseSingleResponse_Minimal(t *testing.T) {
	lk, err := parseSingleResponse([]byte(`[[["Hallo","Hello",null,null,1]],null,"en"]`))
	if err != nil {
		t.Fatalf("parseSingleResponse error: %v", err)
	}
	if lk.Text != "Hallo" || lk.Pronunciation != "" || len(lk.Alternatives) != 0 {
		t.Fatalf("unexpected lookup: %#v", lk)
	}
}

func TestParseSingleResponse_Invalid(t *testing.T) {
	for _, body := range []string{`not json`, `{"error":"x"}`} {
		if _, err := parseSingleResponse([]byte(body)); err == nil {
			t.Errorf("parseSingleResponse(%q) succeeded, want error", body)
		}
	}
}

func newTestGoogle(t *testing.T, h http.HandlerFunc) *googleBackend {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	prov := DefaultProviders()[ProviderGoogle]
	prov.BaseURL = srv.URL
	prov.Timeout = 5 * time.Second
	return newGoogleBackend(prov, Options{})
}

func TestGoogleLookup_RequestAndBrotli(t *testing.T) {
	b := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate_a/single" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("client") != "gtx" || q.Get("sl") != "auto" || q.Get("tl") != "ru" || q.Get("q") != "Hello, world" {
			t.Errorf("unexpected query: %v", q)
		}
		if got := q["dt"]; !reflect.DeepEqual(got, []string{"t", "rm", "at"}) {
			t.Errorf("dt = %v", got)
		}
		if ua := r.Header.Get("User-Agent"); ua != DefaultUserAgent {
			t.Errorf("User-Agent = %q", ua)
		}
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "br") {
			t.Errorf("Accept-Encoding = %q", r.Header.Get("Accept-Encoding"))
		}
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		bw.Write([]byte(sampleResponse))
		bw.Close()
	})

	lk, err := b.Lookup(context.Background(), "Hello, world", "auto", "ru")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if lk.Text != "Привет, мир" || lk.Target != "ru" || lk.Source != "en" {
		t.Fatalf("unexpected lookup: %#v", lk)
	}
}

func TestGoogleLookup_RetriesServerErrors(t *testing.T) {
	var hits int32
	b := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[[["Hallo","Hello"]],null,"en"]`))
	})

	lk, err := b.Lookup(context.Background(), "Hello", "en", "de")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if lk.Text != "Hallo" {
		t.Fatalf("Text = %q", lk.Text)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("server hit %d times, want 2", n)
	}
}

func TestGoogleLookup_ClientErrorNotRetried(t *testing.T) {
	var hits int32
	b := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	_, err := b.Lookup(context.Background(), "Hello", "en", "de")
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Fatalf("error = %v, want status 400", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("server hit %d times, want 1", n)
	}
}

func TestGoogleLookup_ContextCanceled(t *testing.T) {
	b := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusTooManyRequests)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.Lookup(ctx, "Hello", "en", "de"); err == nil {
		t.Fatal("Lookup succeeded on canceled context")
	}
}

func newTestGoogleText(t *testing.T, h http.HandlerFunc) *googleBackend {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	prov := DefaultProviders()[ProviderGoogleText]
	prov.BaseURL = srv.URL
	prov.Timeout = 5 * time.Second
	return newGoogleTextBackend(prov, Options{})
}

func TestGoogleTextLookup_SentencesOnly(t *testing.T) {
	b := newTestGoogleText(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query()["dt"]; !reflect.DeepEqual(got, []string{"t"}) {
			t.Errorf("dt = %v, want [t]", got)
		}
		w.Write([]byte(sampleResponse))
	})

	lk, err := b.Lookup(context.Background(), "Hello, world", "auto", "ru")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if lk.Text != "Привет, мир" || lk.Source != "en" || lk.Target != "ru" {
		t.Fatalf("unexpected lookup: %#v", lk)
	}
	if lk.Pronunciation != "" || len(lk.Alternatives) != 0 {
		t.Fatalf("text-only lookup carries extras: %#v", lk)
	}
}

func TestGoogleTextLookup_DetectsMissingSource(t *testing.T) {
	b := newTestGoogleText(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[["Hello, how are you today?","x"]]]`))
	})

	src := "Dies ist ein ziemlich langer deutscher Satz, damit die Erkennung sicher funktioniert."
	lk, err := b.Lookup(context.Background(), src, "auto", "en")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if lk.Source != "de" {
		t.Fatalf("Source = %q, want de", lk.Source)
	}

	lk, err = b.Lookup(context.Background(), src, "fr", "en")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if lk.Source != "" {
		t.Fatalf("Source = %q, want empty for an explicit source", lk.Source)
	}
}
