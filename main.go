// trlaunch: Google Translate extension for keyboard launchers.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/trlaunch/config"
	"github.com/minios-linux/trlaunch/extension"
	"github.com/minios-linux/trlaunch/i18n"
	"github.com/minios-linux/trlaunch/langmeta"
	"github.com/minios-linux/trlaunch/launcher"
	"github.com/minios-linux/trlaunch/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
	colorGray   = "\033[0;90m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// logLibrary forwards library log lines, which carry their own
// "[LEVEL] " prefix, to the matching colored helper.
func logLibrary(format string, args ...any) {
	switch {
	case strings.HasPrefix(format, "[WARN] "):
		logWarning(strings.TrimPrefix(format, "[WARN] "), args...)
	case strings.HasPrefix(format, "[ERROR] "):
		logError(strings.TrimPrefix(format, "[ERROR] "), args...)
	case strings.HasPrefix(format, "[DEBUG] "):
		fmt.Fprintf(os.Stderr, colorGray+"[DEBUG]"+colorReset+" "+strings.TrimPrefix(format, "[DEBUG] ")+"\n", args...)
	default:
		logInfo(strings.TrimPrefix(format, "[INFO] "), args...)
	}
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	configPath string
	verbose    bool
	prefFlags  *config.Flags
)

// loadPreferences reads the preferences file and applies command-line
// overrides on top of it.
func loadPreferences() (config.Preferences, error) {
	prefs, err := config.Load(configPath)
	if err != nil {
		return prefs, err
	}
	if prefFlags != nil {
		prefFlags.Apply(&prefs)
	}
	return prefs, nil
}

func newExtension(prefs config.Preferences) (*extension.Extension, error) {
	return extension.New(prefs, nil, translate.Options{
		OnLog:   logLibrary,
		Verbose: verbose,
	})
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "trlaunch",
		Short: "Google Translate extension for keyboard launchers",
		Long: `trlaunch: Google Translate extension for keyboard launchers.

Type text after the keyword to translate it into your main languages.
A language hint selects the pair explicitly:

  tr hello world en:de     translate from English to German
  tr de: Guten Morgen      translate from German to your main languages
  tr :fr good night        translate into French

Commands:
  serve     Run as a launcher extension (stdio or websocket)
  query     Translate text from the command line
  langs     List supported languages
  prefs     Show or save the effective preferences`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			prefs, err := loadPreferences()
			if err != nil {
				return err
			}
			i18n.Init(prefs.UILanguage)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Preferences file (default: $XDG_CONFIG_HOME/trlaunch/preferences.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and retries")
	prefFlags = config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newServeCmd(),
		newQueryCmd(),
		newLangsCmd(),
		newPrefsCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("trlaunch version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// serve
// ---------------------------------------------------------------------------

func newServeCmd() *cobra.Command {
	var (
		wsURL       string
		extensionID string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as a launcher extension",
		Long: `Answer launcher events until the connection closes.

Without --ws, events are read from stdin and responses written to stdout,
one JSON object per line. With --ws (or $TRLAUNCH_WS_API), trlaunch dials
the launcher's extension websocket instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, err := loadPreferences()
			if err != nil {
				return err
			}
			ext, err := newExtension(prefs)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var conn launcher.Conn
			if wsURL != "" {
				if extensionID == "" {
					extensionID = uuid.NewString()
				}
				logInfo("Connecting to %s as %s", wsURL, extensionID)
				conn, err = launcher.DialWebSocket(ctx, wsURL, extensionID)
				if err != nil {
					return err
				}
			} else {
				conn = launcher.NewStdioConn(os.Stdin, os.Stdout)
			}
			logInfo("Serving keyword %q (provider: %s, languages: %s)", prefs.Keyword, prefs.Provider, prefs.MainLang)

			err = launcher.Serve(ctx, conn, ext, launcher.ServeOptions{OnLog: logLibrary})
			if err != nil && ctx.Err() == nil {
				return err
			}
			logSuccess("Extension stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&wsURL, "ws", os.Getenv("TRLAUNCH_WS_API"), "Launcher websocket URL")
	cmd.Flags().StringVar(&extensionID, "extension-id", os.Getenv("TRLAUNCH_EXTENSION_ID"), "Extension id sent to the launcher (default: random)")

	return cmd
}

// ---------------------------------------------------------------------------
// query
// ---------------------------------------------------------------------------

func newQueryCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "query TEXT...",
		Short: "Translate text from the command line",
		Long: `Translate TEXT the same way the launcher would and print the rows.

The text may carry a language hint at its start or end, e.g.
"hello en:de" or "ru: привет".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, err := loadPreferences()
			if err != nil {
				return err
			}
			ext, err := newExtension(prefs)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			action := ext.HandleQuery(ctx, strings.Join(args, " "))
			if asJSON {
				return writeJSON(os.Stdout, action)
			}
			printAction(os.Stdout, action)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the launcher action as JSON")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printAction prints rows as "name" followed by the indented description.
func printAction(w io.Writer, action *launcher.Action) {
	if action == nil || len(action.Items) == 0 {
		fmt.Fprintln(w, i18n.T("No translations"))
		return
	}
	for _, item := range action.Items {
		fmt.Fprintf(w, "%s\n", item.Name)
		for _, line := range strings.Split(item.Description, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	if n := countResults(action); n > 0 {
		fmt.Fprintf(w, "\n"+i18n.N("%d translation", "%d translations", n)+"\n", n)
	}
}

// countResults counts rows that carry a translation to copy.
func countResults(action *launcher.Action) int {
	n := 0
	for _, item := range action.Items {
		if item.OnAltEnter != nil && item.OnAltEnter.Type == launcher.ActionCopyToClipboard {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// langs
// ---------------------------------------------------------------------------

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List supported languages",
		Run: func(cmd *cobra.Command, args []string) {
			langs := langmeta.Languages()
			width := langColumnWidth(langs)
			for _, code := range langs {
				fmt.Printf("  %s  %s\n", langCell(code, width), langmeta.Resolve(code).Name)
			}
		},
	}
}

// langColumnWidth returns the width of the widest language code.
func langColumnWidth(langs []string) int {
	width := 0
	for _, l := range langs {
		if n := utf8.RuneCountInString(l); n > width {
			width = n
		}
	}
	return width
}

// langCell pads code to width and puts its flag in front. Codes without
// a flag get blank space so columns stay aligned.
func langCell(code string, width int) string {
	flag := langmeta.Flag(code)
	if flag == "" {
		flag = "  "
	}
	return fmt.Sprintf("%s %-*s", flag, width, code)
}

// ---------------------------------------------------------------------------
// prefs
// ---------------------------------------------------------------------------

func newPrefsCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or save the effective preferences",
		Long: `Print the preferences after applying the file, TRLAUNCH_* environment
variables and flags. With --save, write them back to the preferences file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, err := loadPreferences()
			if err != nil {
				return err
			}
			if save {
				path := configPath
				if path == "" {
					path = config.DefaultPath()
				}
				if err := config.Save(path, prefs); err != nil {
					return err
				}
				logSuccess("Saved %s", path)
				return nil
			}
			data, err := yaml.Marshal(prefs)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Write the effective preferences to the preferences file")

	return cmd
}
