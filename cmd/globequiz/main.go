// Package main provides the CLI entrypoint for globequiz.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/globequiz/internal/config"
	"github.com/verte-zerg/globequiz/internal/countries"
	"github.com/verte-zerg/globequiz/internal/generator"
	"github.com/verte-zerg/globequiz/internal/logger"
	"github.com/verte-zerg/globequiz/internal/model"
	"github.com/verte-zerg/globequiz/internal/quiz"
	"github.com/verte-zerg/globequiz/internal/stats"
	"github.com/verte-zerg/globequiz/internal/statsui"
	"github.com/verte-zerg/globequiz/internal/store"
	"github.com/verte-zerg/globequiz/internal/tui"
)

const (
	defaultMissedTop    = 10
	defaultMissedFactor = 2.0
	defaultMissedWindow = 20
	defaultCurveWindow  = 20
	defaultLogLevel     = "info"
	fetchTimeout        = 30 * time.Second
	historyLimit        = 10
)

var (
	quizCategory      string
	quizQuestions     int
	quizTimerSeconds  int
	quizSourceURL     string
	quizCountriesFile string
	quizFocusMissed   bool
	quizMissedTop     int
	quizMissedFactor  float64
	quizMissedWindow  int
	logLevel          string

	statsCategory    string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool

	countriesSourceURL string
	countriesFile      string
	countriesRegion    string
	countriesSort      string
	countriesSave      string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "globequiz",
		Short:         "Country quiz in the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runQuizCmd,
	}

	rootCmd.Flags().StringVar(&quizCategory, "category", "", "preselected category (capitals, flags, geography, population)")
	rootCmd.Flags().IntVar(&quizQuestions, "questions", quiz.DefaultQuestions, "questions per quiz")
	rootCmd.Flags().IntVar(&quizTimerSeconds, "timer", quiz.DefaultTimerSeconds, "seconds per question")
	rootCmd.Flags().StringVar(&quizSourceURL, "source-url", countries.DefaultSourceURL, "country dataset URL")
	rootCmd.Flags().StringVar(&quizCountriesFile, "countries-file", "", "load countries from a local JSON file instead of the URL")
	rootCmd.Flags().BoolVar(&quizFocusMissed, "focus-missed", false, "bias questions toward recently missed countries")
	rootCmd.Flags().IntVar(&quizMissedTop, "missed-top", defaultMissedTop, "number of missed countries to focus on")
	rootCmd.Flags().Float64Var(&quizMissedFactor, "missed-factor", defaultMissedFactor, "extra weight for missed countries")
	rootCmd.Flags().IntVar(&quizMissedWindow, "missed-window", defaultMissedWindow, "number of recent quizzes to compute missed countries")
	rootCmd.Flags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newCountriesCmd())

	return rootCmd
}

func runQuizCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "category", &quizCategory, fileCfg.Quiz.Category)
	applyIntConfig(cmd, "questions", &quizQuestions, fileCfg.Quiz.Questions)
	applyIntConfig(cmd, "timer", &quizTimerSeconds, fileCfg.Quiz.TimerSeconds)
	applyStringConfig(cmd, "source-url", &quizSourceURL, fileCfg.Quiz.SourceURL)
	applyStringConfig(cmd, "countries-file", &quizCountriesFile, fileCfg.Quiz.CountriesFile)
	applyBoolConfig(cmd, "focus-missed", &quizFocusMissed, fileCfg.Quiz.FocusMissed)
	applyIntConfig(cmd, "missed-top", &quizMissedTop, fileCfg.Quiz.MissedTop)
	applyFloatConfig(cmd, "missed-factor", &quizMissedFactor, fileCfg.Quiz.MissedFactor)
	applyIntConfig(cmd, "missed-window", &quizMissedWindow, fileCfg.Quiz.MissedWindow)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)

	cfg := model.Config{
		Questions:     quizQuestions,
		TimerSeconds:  quizTimerSeconds,
		SourceURL:     quizSourceURL,
		CountriesFile: quizCountriesFile,
		FocusMissed:   quizFocusMissed,
		MissedTop:     quizMissedTop,
		MissedFactor:  quizMissedFactor,
		MissedWindow:  quizMissedWindow,
	}
	if quizCategory != "" {
		category, err := model.ParseCategory(quizCategory)
		if err != nil {
			return fmt.Errorf("invalid --category: %w", err)
		}
		cfg.Category = category
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	log, err := newLogger(fileCfg)
	if err != nil {
		return err
	}
	defer func() {
		if serr := log.Sync(); serr != nil {
			// Best-effort flush of buffered log entries.
			_ = serr
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	pool, err := loadCountries(ctx, cfg.CountriesFile, cfg.SourceURL, log)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	focus := &generator.Focus{Gen: generator.New(), Factor: cfg.MissedFactor}
	if cfg.FocusMissed {
		aggs, err := st.GetMissedCountries(ctx, cfg.MissedWindow, "")
		if err != nil {
			logErrf("failed to load missed countries: %v\n", err)
		} else {
			focus.Missed = stats.SelectMissed(aggs, cfg.MissedTop)
			if len(focus.Missed) == 0 {
				logErrln("no missed countries recorded yet; using uniform questions")
			}
		}
	}

	m := tui.NewModel(cfg, st, focus, pool.All(), log)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newLogger(fileCfg config.FileConfig) (*zap.Logger, error) {
	path := config.DefaultLogPath()
	if fileCfg.Log.File != nil && *fileCfg.Log.File != "" {
		path = *fileCfg.Log.File
	}
	log, err := logger.New(path, logLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

// loadCountries reads the dataset from file when given, otherwise from url.
func loadCountries(ctx context.Context, file, url string, log *zap.Logger) (*countries.Pool, error) {
	var (
		list   []model.Country
		decode countries.DecodeStats
		err    error
	)
	if file != "" {
		list, decode, err = countries.LoadFile(file)
	} else {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		list, decode, err = countries.Fetch(ctx, url)
	}
	if err != nil {
		log.Error("country data unavailable", zap.String("file", file), zap.String("url", url), zap.Error(err))
		if errors.Is(err, countries.ErrEmptyDataset) {
			return nil, fmt.Errorf("country dataset has no usable countries: %w", err)
		}
		return nil, fmt.Errorf("failed to load country data: %w\nCheck your connection or pass --countries-file", err)
	}
	log.Info("countries loaded",
		zap.Int("read", decode.Read),
		zap.Int("kept", decode.Kept),
		zap.Int("incomplete", decode.Incomplete),
		zap.Int("invalid", decode.Invalid),
		zap.Int("duplicate", decode.Duplicate),
	)
	return countries.NewPool(list), nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show quiz stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsCategory, "category", "", "category filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N quizzes")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print plain text instead of the interactive viewer")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildStatsConfig(statsCategory, statsSince, statsLast, statsCurveWindow)
	if err != nil {
		return err
	}

	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	names := countryNames(fileCfg)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsPlain {
		return printStats(cmd, st, cfg, names)
	}
	program := tea.NewProgram(statsui.NewModel(st, cfg, names), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func buildStatsConfig(category, since string, last, window int) (model.StatsConfig, error) {
	cfg := model.StatsConfig{Last: last, CurveWindow: window}
	if category != "" {
		parsed, err := model.ParseCategory(category)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --category: %w", err)
		}
		cfg.Category = parsed
	}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	if last < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if window <= 0 {
		return model.StatsConfig{}, fmt.Errorf("--curve-window must be > 0")
	}
	return cfg, nil
}

func printStats(cmd *cobra.Command, st *store.Store, cfg model.StatsConfig, names map[string]string) error {
	report, err := stats.BuildReport(cmd.Context(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report.Sessions); err != nil {
		return err
	}
	if len(report.Sessions) == 0 {
		return nil
	}
	if err := stats.RenderTrend(out, report.Sessions, cfg.CurveWindow, stats.TerminalWidth()); err != nil {
		return err
	}
	if err := stats.RenderCategoryTable(out, report.Categories); err != nil {
		return err
	}
	if err := stats.RenderMissedTable(out, report.Missed, names, defaultMissedTop); err != nil {
		return err
	}
	return stats.RenderHistory(out, report.Sessions, time.Now(), historyLimit)
}

// countryNames resolves codes to names only from a local dataset; stats never hit the network.
func countryNames(fileCfg config.FileConfig) map[string]string {
	if fileCfg.Quiz.CountriesFile == nil || *fileCfg.Quiz.CountriesFile == "" {
		return nil
	}
	list, _, err := countries.LoadFile(*fileCfg.Quiz.CountriesFile)
	if err != nil {
		logErrf("failed to load country names: %v\n", err)
		return nil
	}
	names := make(map[string]string, len(list))
	for _, c := range list {
		names[c.Code] = c.CommonName
	}
	return names
}

func newCountriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "countries",
		Short: "Fetch and list the country pool",
		Args:  cobra.NoArgs,
		RunE:  runCountriesCmd,
	}
	cmd.Flags().StringVar(&countriesSourceURL, "source-url", countries.DefaultSourceURL, "country dataset URL")
	cmd.Flags().StringVar(&countriesFile, "countries-file", "", "load countries from a local JSON file instead of the URL")
	cmd.Flags().StringVar(&countriesRegion, "region", "", "region filter (Africa, Americas, Asia, Europe, Oceania)")
	cmd.Flags().StringVar(&countriesSort, "sort", "name", "sort by name or population")
	cmd.Flags().StringVar(&countriesSave, "save", "", "write the filtered dataset to a file usable as --countries-file")
	return cmd
}

func runCountriesCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "source-url", &countriesSourceURL, fileCfg.Quiz.SourceURL)
	applyStringConfig(cmd, "countries-file", &countriesFile, fileCfg.Quiz.CountriesFile)

	var region model.Region
	if countriesRegion != "" {
		parsed, ok := model.ParseRegion(countriesRegion)
		if !ok {
			return fmt.Errorf("unknown region %q", countriesRegion)
		}
		region = parsed
	}
	if countriesSort != "name" && countriesSort != "population" {
		return fmt.Errorf("--sort must be name or population")
	}

	pool, err := loadCountries(cmd.Context(), countriesFile, countriesSourceURL, logger.Nop())
	if err != nil {
		return err
	}
	if countriesSave != "" {
		if err := countries.Save(countriesSave, pool.Sorted()); err != nil {
			return err
		}
		logErrf("Wrote %s\n", countriesSave)
	}
	rows := countryRows(pool, region, countriesSort)
	out := cmd.OutOrStdout()
	if err := stats.WriteTable(out, []string{"Code", "Country", "Capital", "Region", "Population"}, rows, map[int]bool{4: true}); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%d countries\n", len(rows))
	return err
}

func countryRows(pool *countries.Pool, region model.Region, sortBy string) [][]string {
	list := pool.Sorted()
	if sortBy == "population" {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Population > list[j].Population
		})
	}
	rows := make([][]string, 0, len(list))
	for _, c := range list {
		if region != "" && c.Region != region {
			continue
		}
		rows = append(rows, []string{c.Code, c.CommonName, c.CapitalName, string(c.Region), humanize.Comma(c.Population)})
	}
	return rows
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# globequiz configuration
# Uncomment a value to enable it. CLI flags override config values.

[quiz]
# category = "capitals"     # Preselected category: capitals, flags, geography, population
# questions = %d             # Questions per quiz
# timer-seconds = %d        # Seconds per question
# source-url = %q
# countries-file = ""       # Local JSON dataset used instead of source-url
# focus-missed = false      # Bias questions toward recently missed countries
# missed-top = %d           # Number of missed countries to focus on
# missed-factor = %.1f      # Extra weight for missed countries
# missed-window = %d        # Number of recent quizzes to compute missed countries

[log]
# level = %q            # debug, info, warn, error
# file = ""                 # Defaults to the XDG state directory
`,
		quiz.DefaultQuestions,
		quiz.DefaultTimerSeconds,
		countries.DefaultSourceURL,
		defaultMissedTop,
		defaultMissedFactor,
		defaultMissedWindow,
		defaultLogLevel,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Questions <= 0 {
		return fmt.Errorf("--questions must be > 0")
	}
	if cfg.TimerSeconds <= 0 {
		return fmt.Errorf("--timer must be > 0")
	}
	if cfg.CountriesFile == "" && cfg.SourceURL == "" {
		return fmt.Errorf("--source-url must not be empty")
	}
	if cfg.MissedTop < 0 {
		return fmt.Errorf("--missed-top must be >= 0")
	}
	if cfg.MissedFactor < 0 {
		return fmt.Errorf("--missed-factor must be >= 0")
	}
	if cfg.MissedWindow < 0 {
		return fmt.Errorf("--missed-window must be >= 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
