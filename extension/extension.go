// Package extension wires query parsing, translation and rendering into
// a launcher event handler.
package extension

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/minios-linux/trlaunch/config"
	"github.com/minios-linux/trlaunch/i18n"
	"github.com/minios-linux/trlaunch/launcher"
	"github.com/minios-linux/trlaunch/query"
	"github.com/minios-linux/trlaunch/render"
	"github.com/minios-linux/trlaunch/translate"
)

// BackendFactory builds the translation backend for a set of preferences.
type BackendFactory func(prefs config.Preferences, opts translate.Options) (translate.Backend, error)

// DefaultBackendFactory picks the provider named in the preferences.
func DefaultBackendFactory(prefs config.Preferences, opts translate.Options) (translate.Backend, error) {
	prov, ok := translate.DefaultProviders()[prefs.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", prefs.Provider)
	}
	if prefs.UserAgent != "" {
		prov.UserAgent = prefs.UserAgent
	}
	prov.Proxy = prefs.Proxy
	prov.Timeout = prefs.TimeoutDuration()
	return translate.NewBackend(prov, opts)
}

// Extension answers launcher events with translations.
type Extension struct {
	newBackend BackendFactory
	baseOpts   translate.Options

	mu         sync.RWMutex
	prefs      config.Preferences
	translator *translate.Translator
}

// New creates an Extension. A nil factory means DefaultBackendFactory.
func New(prefs config.Preferences, factory BackendFactory, opts translate.Options) (*Extension, error) {
	if factory == nil {
		factory = DefaultBackendFactory
	}
	e := &Extension{newBackend: factory, baseOpts: opts}
	if err := e.setPreferences(prefs); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Extension) setPreferences(prefs config.Preferences) error {
	opts := e.baseOpts
	opts.CacheSize = prefs.CacheSize
	opts.MaxResults = prefs.MaxResults

	backend, err := e.newBackend(prefs, opts)
	if err != nil {
		return err
	}
	tr, err := translate.New(backend, opts)
	if err != nil {
		return err
	}

	e.mu.Lock()
	// The UI language is set up by the caller at startup; only a
	// runtime change re-initializes it.
	uiChanged := e.translator != nil && prefs.UILanguage != e.prefs.UILanguage
	e.prefs = prefs
	e.translator = tr
	e.mu.Unlock()

	if uiChanged {
		i18n.Init(prefs.UILanguage)
	}
	return nil
}

// Preferences returns the preferences currently in effect.
func (e *Extension) Preferences() config.Preferences {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.prefs
}

// UpdatePreferences applies changed preference values. The backend and
// lookup cache are rebuilt so new settings take effect immediately.
func (e *Extension) UpdatePreferences(values map[string]string) error {
	prefs := e.Preferences()
	prefs.Apply(values)
	return e.setPreferences(prefs)
}

// HandleQuery translates the text typed after the keyword.
func (e *Extension) HandleQuery(ctx context.Context, argument string) *launcher.Action {
	e.mu.RLock()
	prefs, tr := e.prefs, e.translator
	e.mu.RUnlock()

	opts := render.Options{Icon: prefs.Icon, Wrap: prefs.WrapWidth()}

	req, err := query.Parse(argument, query.Defaults{
		MainLangs: prefs.MainLang,
		OtherLang: prefs.OtherLang,
	})
	if errors.Is(err, query.ErrEmpty) {
		return render.NoInput(opts)
	}
	if err != nil {
		return render.Error(argument, err, opts)
	}

	if len(req.To) == 0 {
		return render.Error(req.Text, &translate.InvalidLanguageError{Kind: "destination"}, opts)
	}

	results, err := tr.TranslateMulti(ctx, req.Text, req.To, req.From)
	if err != nil {
		if ctx.Err() == nil {
			e.log("[WARN] translating %q: %v", req.Text, err)
		}
		return render.Error(req.Text, err, opts)
	}
	return render.Results(req.Text, results, opts)
}

func (e *Extension) log(format string, args ...any) {
	if e.baseOpts.OnLog != nil {
		e.baseOpts.OnLog(format, args...)
	}
}

// HandleEvent implements launcher.Handler.
func (e *Extension) HandleEvent(ctx context.Context, ev launcher.Event) (*launcher.Action, error) {
	switch ev.Type {
	case launcher.EventQuery:
		action := e.HandleQuery(ctx, ev.Argument)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return action, nil
	case launcher.EventPreferences:
		return nil, e.UpdatePreferences(ev.Preferences)
	default:
		return nil, nil
	}
}
