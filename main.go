// txsync pulls translations from Transifex and writes them as per-locale
// JSON files plus a coverage index.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/minios-linux/txsync/config"
	"github.com/minios-linux/txsync/coverage"
	"github.com/minios-linux/txsync/i18n"
	"github.com/minios-linux/txsync/locale"
	"github.com/minios-linux/txsync/localefile"
	"github.com/minios-linux/txsync/lockfile"
	"github.com/minios-linux/txsync/settings"
	"github.com/minios-linux/txsync/syncer"
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
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+i18n.T(format)+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+i18n.T(format)+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+i18n.T(format)+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+i18n.T(format)+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	configPath string
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "txsync",
		Short: "Pull translations from Transifex into JSON locale files",
		Long: `txsync: Transifex translation sync.

Downloads every locale of the configured resources, strips untranslated
search-term placeholders, merges the resources into one JSON file per
locale and writes a coverage index (index.json) next to them.

Commands:
  pull        Download translations and coverage
  status      Show the coverage of the last pull
  auth        Manage Transifex credentials

Configuration is read from .txsync.yaml in the project root and TX_*
environment variables; command-line flags win over both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			i18n.Init("")
		},
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <root>/"+config.FileName+")")

	root.AddCommand(
		newPullCmd(),
		newStatusCmd(),
		newAuthCmd(),
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
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("txsync version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// pull
// ---------------------------------------------------------------------------

type pullArgs struct {
	org             string
	project         string
	resources       []string
	sourceLocale    string
	out             string
	reviewedOnly    bool
	reviewedLocales []string
	user            string
	token           string
	interval        time.Duration
	timeout         time.Duration
	verbose         bool
}

func newPullCmd() *cobra.Command {
	var a pullArgs

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Download translations and coverage from Transifex",
		Long: `Download translations and coverage from Transifex.

Two independent jobs run side by side:
  coverage    per-locale completion averaged over all resources -> index.json
  content     every non-source locale of every resource -> <locale>.json

If one job fails the other still writes its output; the command then exits
with status 1. Files are only rewritten when their content changed.

Examples:
  txsync pull
  txsync pull --resource core --resource presets
  txsync pull --reviewed-only
  txsync pull --reviewed-locale vi --reviewed-locale pt-BR`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPull(cmd.Context(), cmd.Flags(), a)
		},
	}

	bindPullFlags(cmd.Flags(), &a)

	return cmd
}

func bindPullFlags(f *pflag.FlagSet, a *pullArgs) {
	f.StringVar(&a.org, "org", "", "Transifex organization")
	f.StringVar(&a.project, "project", "", "Transifex project")
	f.StringArrayVar(&a.resources, "resource", nil, "Resource to pull (repeatable, order sets merge priority)")
	f.StringVar(&a.sourceLocale, "source-locale", "", "Source locale, never downloaded")
	f.StringVar(&a.out, "out", "", "Output directory (translations/ is created inside)")
	f.BoolVar(&a.reviewedOnly, "reviewed-only", false, "Use only reviewed strings for every locale")
	f.StringArrayVar(&a.reviewedLocales, "reviewed-locale", nil, "Use only reviewed strings for this locale (repeatable)")
	f.StringVar(&a.user, "user", "", "Transifex user (default: "+settings.DefaultUser+")")
	f.StringVar(&a.token, "token", "", "Transifex password or API token")
	f.DurationVar(&a.interval, "interval", 0, "Delay between two requests of a batch (default 200ms)")
	f.DurationVar(&a.timeout, "timeout", 0, "HTTP request timeout (default 60s)")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging")
}

// applyPullFlags copies the flags given on the command line over cfg.
// Flags left at their default do not touch the loaded value.
func applyPullFlags(fs *pflag.FlagSet, cfg *config.Config, a pullArgs) {
	if fs.Changed("org") {
		cfg.Organization = a.org
	}
	if fs.Changed("project") {
		cfg.Project = a.project
	}
	if fs.Changed("resource") {
		cfg.Resources = a.resources
	}
	if fs.Changed("source-locale") {
		cfg.SourceLocale = a.sourceLocale
	}
	if fs.Changed("out") {
		cfg.OutDir = a.out
	}
	if fs.Changed("reviewed-locale") {
		cfg.ReviewedOnly = config.ReviewLocales(a.reviewedLocales...)
	}
	if fs.Changed("reviewed-only") {
		if a.reviewedOnly {
			cfg.ReviewedOnly = config.ReviewAll()
		} else if !fs.Changed("reviewed-locale") {
			cfg.ReviewedOnly = nil
		}
	}
	if fs.Changed("interval") {
		cfg.RequestInterval = a.interval
	}
	if fs.Changed("timeout") {
		cfg.Timeout = a.timeout
	}
}

func runPull(ctx context.Context, fs *pflag.FlagSet, a pullArgs) error {
	cfg, err := config.Load(rootDir, configPath)
	if err != nil {
		return err
	}
	applyPullFlags(fs, cfg, a)
	if err := cfg.Validate(); err != nil {
		return err
	}

	creds, err := settings.Resolve(rootDir, a.user, a.token)
	if err != nil {
		return err
	}
	if creds.Empty() {
		logWarning("No Transifex token configured. Run 'txsync auth login' or set %s.", settings.EnvToken)
	}

	logger, err := newLogger(cfg.Log, a.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	logInfo("Pulling %s/%s: %s", cfg.Organization, cfg.Project, strings.Join(cfg.Resources, ", "))
	if cfg.ReviewedOnly.Enabled() {
		logInfo("Reviewed strings only: %s", cfg.ReviewedOnly.String())
	}

	lock, err := lockfile.Load(rootDir)
	if err != nil {
		return err
	}

	start := time.Now()
	report, err := syncer.FromConfig(cfg, creds, lock, logger).Run(ctx)
	printReport(report, cfg.TranslationsDir())
	// Checksums of whatever was written are kept even when the run failed.
	if saveErr := lock.Save(); saveErr != nil {
		logWarning("Failed to update %s: %v", lockfile.LockFileName, saveErr)
	}
	if err != nil {
		return errors.New(i18n.T("pull failed"))
	}

	logSuccess("Done in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

func printReport(r *syncer.Report, dir string) {
	if r == nil {
		return
	}

	if r.CoverageErr != nil {
		logError("Coverage: %v", r.CoverageErr)
	} else {
		state := i18n.T("unchanged")
		if r.CoverageChanged {
			state = i18n.T("updated")
		}
		logSuccess("Coverage index %s (%d locales): %s", state, len(r.Coverage), filepath.Join(dir, localefile.IndexName))
	}

	if r.ContentErr != nil {
		logError("Content: %v", r.ContentErr)
		return
	}
	logSuccess("Locale files: %d written, %d changed", len(r.Locales), len(r.ChangedLocales))
	if len(r.ChangedLocales) > 0 {
		codes := make([]string, len(r.ChangedLocales))
		for i, c := range r.ChangedLocales {
			codes[i] = string(c)
		}
		fmt.Fprintf(os.Stderr, "  %s\n", strings.Join(codes, ", "))
	}
}

// newLogger builds the pipeline logger. Output goes to stderr so it does
// not mix with command output.
func newLogger(lc config.LogConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Sampling = nil
	zc.DisableStacktrace = true

	if lc.Format == "console" {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	if lc.Level != "" {
		level, err := zap.ParseAtomicLevel(lc.Level)
		if err != nil {
			return nil, &config.ConfigError{Err: fmt.Errorf("log level: %w", err)}
		}
		zc.Level = level
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the coverage of the last pull",
		Long: `Show the coverage index written by the last pull, one line per locale
with its native name, completion and whether a locale file exists.
Does not contact Transifex.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(os.Stderr)
		},
	}
}

func runStatus(w io.Writer) error {
	cfg, err := config.Load(rootDir, configPath)
	if err != nil {
		return err
	}
	dir := cfg.TranslationsDir()

	idx, err := coverage.Read(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logInfo("No coverage index in %s. Run 'txsync pull' first.", dir)
			return nil
		}
		return err
	}

	files, err := localefile.List(dir)
	if err != nil {
		return err
	}

	lock, err := lockfile.Load(rootDir)
	if err != nil {
		return err
	}
	edited, _, err := lock.Modified(dir)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n  %s %s\n", i18n.T("Last pull:"), lock.Summary())
	printStatus(w, idx, files, cfg.Source(), edited)
	return nil
}

// printStatus prints one row per index entry. edited lists artifact names
// changed on disk since the last pull.
func printStatus(w io.Writer, idx coverage.Index, files []locale.Code, source locale.Code, edited []string) {
	fmt.Fprintf(w, "\n%s%s%s\n", colorBlue, i18n.T("Translation Coverage"), colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 64))

	for _, code := range idx.Keys() {
		meta := locale.Resolve(string(code))
		percent := int(math.Round(idx[code].Pct * 100))

		file := i18n.T("missing")
		switch {
		case code == source:
			file = i18n.T("source")
		case slices.Contains(files, code):
			file = filepath.Base(localefile.Path("", code))
			if slices.Contains(edited, file) {
				file += " " + colorYellow + i18n.T("(edited)") + colorReset
			}
		}

		fmt.Fprintf(w, "  %-3s %-8s %-22s %s  %s\n", meta.Flag, code, meta.Name, progressBar(percent, 20), file)
	}

	var orphans []string
	for _, code := range files {
		if _, ok := idx[code]; !ok {
			orphans = append(orphans, string(code))
		}
	}

	fmt.Fprintln(w, strings.Repeat("─", 64))
	fmt.Fprintf(w, i18n.N("%d locale", "%d locales", len(idx))+"\n", len(idx))
	if len(orphans) > 0 {
		fmt.Fprintf(w, "%s: %s\n", i18n.T("Files without coverage"), strings.Join(orphans, ", "))
	}
	if slices.Contains(edited, localefile.IndexName) {
		fmt.Fprintf(w, "%s%s%s\n", colorYellow, i18n.T("index.json was edited since the last pull"), colorReset)
	}
	fmt.Fprintln(w)
}

// progressBar renders percent as a coloured bar of width cells followed by
// the number. Values outside 0..100 are clamped.
func progressBar(percent, width int) string {
	percent = max(0, min(100, percent))
	filled := percent * width / 100

	color := colorRed
	switch {
	case percent >= 90:
		color = colorGreen
	case percent >= 50:
		color = colorYellow
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s%s%s %3d%%", color, bar, colorReset, percent)
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Transifex credentials",
		Long: `Manage the Transifex credentials stored in ` + settings.FileName + ` in the
project root (file mode 0600).

Credentials are looked up in this order:
  --user / --token flags
  ` + settings.EnvUser + ` / ` + settings.EnvToken + ` environment variables
  ` + settings.FileName + `
  user "` + settings.DefaultUser + `" with an empty password

Examples:
  txsync auth login                    Prompt for a token
  txsync auth login --token 1/abc...   Store a token without prompting
  txsync auth logout                   Remove the stored credentials
  txsync auth show                     Show what pull would use`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthShowCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var user, token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store Transifex credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogin(os.Stdin, user, token)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Transifex user (default: "+settings.DefaultUser+")")
	cmd.Flags().StringVar(&token, "token", "", "Transifex password or API token (prompted if empty)")

	return cmd
}

func runAuthLogin(in io.Reader, user, token string) error {
	existing, ok, err := settings.Load(rootDir)
	if err != nil {
		return err
	}

	if token == "" {
		fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Transifex API Token Setup"), colorReset)
		fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
		fmt.Fprintf(os.Stderr, "  %s: %shttps://www.transifex.com/user/settings/api/%s\n\n",
			i18n.T("Get your token from"), colorGreen, colorReset)

		if ok && existing.Password != "" {
			fmt.Fprintf(os.Stderr, "  %s: %s%s%s\n", i18n.T("Current token"), colorYellow, settings.MaskKey(existing.Password), colorReset)
			fmt.Fprintf(os.Stderr, "  %s: ", i18n.T("Enter new token to replace, or press Enter to keep"))
		} else {
			fmt.Fprintf(os.Stderr, "  %s: ", i18n.T("Enter API token"))
		}

		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			return errors.New(i18n.T("no input received"))
		}
		token = strings.TrimSpace(scanner.Text())
		fmt.Fprintln(os.Stderr)

		if token == "" {
			if ok && existing.Password != "" {
				logInfo("Keeping existing token")
				return nil
			}
			return errors.New(i18n.T("no token provided"))
		}
	}

	if user == "" {
		user = existing.User
	}
	if user == "" {
		user = settings.DefaultUser
	}

	if err := settings.Save(rootDir, settings.Credentials{User: user, Password: token}); err != nil {
		return err
	}
	logSuccess("Credentials saved to %s", settings.FilePath(rootDir))
	return nil
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored Transifex credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.Remove(rootDir); err != nil {
				return err
			}
			logSuccess("Stored credentials removed")
			return nil
		},
	}
}

func newAuthShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the credentials pull would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthShow(os.Stderr)
		},
	}
}

func runAuthShow(w io.Writer) error {
	creds, err := settings.Resolve(rootDir, "", "")
	if err != nil {
		return err
	}
	_, stored, err := settings.Load(rootDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s%s%s\n", colorBlue, i18n.T("Transifex Credentials"), colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 60))

	fmt.Fprintf(w, "  %-14s %s\n", i18n.T("User:"), creds.User)
	if creds.Empty() {
		fmt.Fprintf(w, "  %-14s %s%s%s\n", i18n.T("Token:"), colorRed, i18n.T("not configured"), colorReset)
	} else {
		fmt.Fprintf(w, "  %-14s %s%s%s\n", i18n.T("Token:"), colorGreen, settings.MaskKey(creds.Password), colorReset)
	}

	file := i18n.T("not found")
	if stored {
		file = settings.FilePath(rootDir)
	}
	fmt.Fprintf(w, "  %-14s %s\n", i18n.T("Auth file:"), file)

	for _, env := range []string{settings.EnvUser, settings.EnvToken} {
		state := colorRed + i18n.T("not set") + colorReset
		if os.Getenv(env) != "" {
			state = colorGreen + i18n.T("set") + colorReset + " " + i18n.T("(overrides the auth file)")
		}
		fmt.Fprintf(w, "  %-14s %s\n", env+":", state)
	}
	fmt.Fprintln(w)
	return nil
}
