// Package config loads and saves trlaunch preferences.
//
// Preferences are read from the XDG config directory:
//
//	$XDG_CONFIG_HOME/trlaunch/preferences.yaml  (default: ~/.config/trlaunch/)
//
// A preferences.toml next to it is used when no YAML file exists.
// Values are then overridden, in order, by:
//  1. TRLAUNCH_* environment variables (a .env file in the working
//     directory is loaded first, if present)
//  2. command-line flags
//  3. preference updates pushed by the launcher at runtime (Apply)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	configDirName = "trlaunch"
	yamlFileName  = "preferences.yaml"
	tomlFileName  = "preferences.toml"

	// envPrefix prefixes every environment override (TRLAUNCH_MAINLANG, ...).
	envPrefix = "TRLAUNCH_"

	// DefaultWrap is the wrap width used when "wrap" is not a number.
	DefaultWrap = 80
)

// Preferences mirrors the settings a user can change in the launcher's
// extension preferences dialog.
type Preferences struct {
	// Keyword triggers the extension in the launcher.
	Keyword string `yaml:"keyword" toml:"keyword"`
	// MainLang is the comma-separated list of target languages.
	MainLang string `yaml:"mainlang" toml:"mainlang"`
	// OtherLang is the source language used when the query has no hint.
	OtherLang string `yaml:"otherlang" toml:"otherlang"`
	// Wrap is the description wrap width. Kept as a string because the
	// launcher stores free-form input; see WrapWidth.
	Wrap string `yaml:"wrap" toml:"wrap"`
	// Provider selects the translation backend (google, google-text).
	Provider string `yaml:"provider" toml:"provider"`
	// UserAgent overrides the User-Agent sent to the web endpoint.
	UserAgent string `yaml:"user_agent,omitempty" toml:"user_agent,omitempty"`
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string `yaml:"proxy,omitempty" toml:"proxy,omitempty"`
	// Timeout is the per-request timeout, e.g. "10s".
	Timeout string `yaml:"timeout" toml:"timeout"`
	// CacheSize is the number of memoized lookups.
	CacheSize int `yaml:"cache_size" toml:"cache_size"`
	// MaxResults caps the rows shown per query.
	MaxResults int `yaml:"max_results" toml:"max_results"`
	// Icon is the item icon path, relative to the extension directory.
	Icon string `yaml:"icon" toml:"icon"`
	// UILanguage forces the language of trlaunch's own messages.
	UILanguage string `yaml:"ui_language,omitempty" toml:"ui_language,omitempty"`
}

// Defaults returns the built-in preferences.
func Defaults() Preferences {
	return Preferences{
		Keyword:    "tr",
		MainLang:   "en",
		OtherLang:  "auto",
		Wrap:       strconv.Itoa(DefaultWrap),
		Provider:   "google",
		Timeout:    "10s",
		CacheSize:  10_000,
		MaxResults: 100,
		Icon:       "images/icon.png",
	}
}

// WrapWidth parses Wrap, falling back to DefaultWrap.
func (p Preferences) WrapWidth() int {
	n, err := strconv.Atoi(strings.TrimSpace(p.Wrap))
	if err != nil || n <= 0 {
		return DefaultWrap
	}
	return n
}

// TimeoutDuration parses Timeout, falling back to 10s.
func (p Preferences) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(p.Timeout))
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// configDir returns the XDG config directory for trlaunch.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, configDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", configDirName), nil
}

// DefaultPath returns the preferences file that Load reads when given no
// explicit path: the YAML file, or the TOML one if only that exists.
func DefaultPath() string {
	dir, err := configDir()
	if err != nil {
		return ""
	}
	yamlPath := filepath.Join(dir, yamlFileName)
	if _, err := os.Stat(yamlPath); err != nil {
		tomlPath := filepath.Join(dir, tomlFileName)
		if _, err := os.Stat(tomlPath); err == nil {
			return tomlPath
		}
	}
	return yamlPath
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads preferences from path (DefaultPath if empty) on top of the
// defaults, then applies environment overrides. A missing file is not
// an error.
func Load(path string) (Preferences, error) {
	prefs := Defaults()

	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		if err := loadFile(path, &prefs); err != nil {
			return prefs, err
		}
	}

	// .env is optional; variables may come from the real environment.
	_ = godotenv.Load()
	applyEnv(&prefs)

	return prefs, nil
}

func loadFile(path string, prefs *Preferences) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, prefs)
	} else {
		err = yaml.Unmarshal(data, prefs)
	}
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Save writes preferences as YAML to path (DefaultPath if empty).
func Save(path string, prefs Preferences) error {
	if path == "" {
		path = DefaultPath()
		if path == "" {
			return fmt.Errorf("cannot determine preferences path")
		}
	}

	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		data, err = toml.Marshal(prefs)
	} else {
		data, err = yaml.Marshal(prefs)
	}
	if err != nil {
		return fmt.Errorf("marshaling preferences: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func applyEnv(prefs *Preferences) {
	values := map[string]string{}
	for _, key := range Keys() {
		if v, ok := os.LookupEnv(envPrefix + strings.ToUpper(key)); ok {
			values[key] = v
		}
	}
	prefs.Apply(values)
}

// ---------------------------------------------------------------------------
// Runtime updates
// ---------------------------------------------------------------------------

// Keys returns the preference keys accepted by Apply.
func Keys() []string {
	return []string{
		"keyword", "mainlang", "otherlang", "wrap", "provider", "user_agent",
		"proxy", "timeout", "cache_size", "max_results", "icon", "ui_language",
	}
}

// Apply sets preferences from key/value pairs, as sent by the launcher
// when the user edits the extension preferences. Unknown keys and
// unparsable numbers are ignored.
func (p *Preferences) Apply(values map[string]string) {
	for key, v := range values {
		switch key {
		case "keyword":
			p.Keyword = v
		case "mainlang":
			p.MainLang = v
		case "otherlang":
			p.OtherLang = v
		case "wrap":
			p.Wrap = v
		case "provider":
			p.Provider = v
		case "user_agent":
			p.UserAgent = v
		case "proxy":
			p.Proxy = v
		case "timeout":
			p.Timeout = v
		case "cache_size":
			if n, err := strconv.Atoi(v); err == nil {
				p.CacheSize = n
			}
		case "max_results":
			if n, err := strconv.Atoi(v); err == nil {
				p.MaxResults = n
			}
		case "icon":
			p.Icon = v
		case "ui_language":
			p.UILanguage = v
		}
	}
}

// ---------------------------------------------------------------------------
// Command-line overrides
// ---------------------------------------------------------------------------

// Flags holds command-line overrides registered on a flag set.
type Flags struct {
	fs     *pflag.FlagSet
	values map[string]*string
}

// RegisterFlags adds one string flag per preference key to fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs, values: map[string]*string{}}
	usage := map[string]string{
		"keyword":     "Launcher keyword",
		"mainlang":    "Comma-separated target languages",
		"otherlang":   "Source language when the query has no hint",
		"wrap":        "Description wrap width",
		"provider":    "Translation provider (google, google-text)",
		"user_agent":  "User-Agent sent to the translation endpoint",
		"proxy":       "HTTP/HTTPS proxy URL",
		"timeout":     "Per-request timeout (e.g. 10s)",
		"cache_size":  "Number of memoized lookups",
		"max_results": "Maximum rows per query",
		"icon":        "Item icon path",
		"ui_language": "Language of trlaunch's own messages",
	}
	for _, key := range Keys() {
		name := strings.ReplaceAll(key, "_", "-")
		f.values[key] = fs.String(name, "", usage[key])
	}
	return f
}

// Apply copies every flag the user actually set onto prefs.
func (f *Flags) Apply(prefs *Preferences) {
	values := map[string]string{}
	for key, v := range f.values {
		if f.fs.Changed(strings.ReplaceAll(key, "_", "-")) {
			values[key] = *v
		}
	}
	prefs.Apply(values)
}
