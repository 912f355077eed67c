package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-githubactions"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/prquiz/internal/config"
	"github.com/pavelanni/prquiz/internal/handler"
	appI18n "github.com/pavelanni/prquiz/internal/i18n"
	"github.com/pavelanni/prquiz/internal/llm"
	"github.com/pavelanni/prquiz/internal/model"
	"github.com/pavelanni/prquiz/internal/pullrequest"
	"github.com/pavelanni/prquiz/internal/quiz"
	"github.com/pavelanni/prquiz/internal/run"
	"github.com/pavelanni/prquiz/internal/server"
	"github.com/pavelanni/prquiz/internal/store"
	"github.com/pavelanni/prquiz/internal/tunnel"
)

// errNotPassed makes the process exit non-zero after the outcome has
// already been reported.
var errNotPassed = errors.New("quiz not passed")

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "prquiz",
		Short:         "Gate pull request approval on a generated comprehension quiz",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runC := runCmd()
	root.AddCommand(runC, generateCmd())

	// Make "run" the default when no subcommand is given.
	root.RunE = runC.RunE
	root.Flags().AddFlagSet(runC.Flags())

	return root
}

// sourceFlags are shared by every command that fetches a pull request and
// generates a quiz.
func sourceFlags(f *pflag.FlagSet) {
	f.String("github-token", "", "GitHub token used to read the pull request")
	f.String("github-api-url", "", "GitHub API base URL for GitHub Enterprise")
	f.String("repository", "", "Repository as owner/name (default: from the workflow event)")
	f.Int("pull-number", 0, "Pull request number (default: from the workflow event)")
	f.String("exclude-file-patterns", "", "Globs of files to leave out, as a JSON array or comma list")
	f.String("provider", llm.ProviderOpenAI, "LLM provider (openai, anthropic, gemini)")
	f.String("api-key", "", "API key for the LLM provider")
	f.String("model", "", "Model name (default depends on provider)")
	f.String("base-url", "", "OpenAI-compatible API base URL, e.g. GitHub Models")
	f.String("system-prompt", "", "Custom system prompt for quiz generation")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a quiz and serve it until it is passed, failed or timed out",
		RunE:  runQuiz,
	}
	f := cmd.Flags()
	sourceFlags(f)
	f.String("ngrok-authtoken", "", "ngrok authtoken for the public tunnel")
	f.Bool("local", false, "Serve on localhost only, without a tunnel")
	f.Int("lines-changed-threshold", config.DefaultLinesChangedThreshold, "Skip pull requests that change fewer lines")
	f.Int("max-attempts", config.DefaultMaxAttempts, "Attempts allowed per reviewer (0 = unlimited)")
	f.Int("time-limit-minutes", config.DefaultTimeLimitMinutes, "Minutes before the quiz times out")
	f.StringP("addr", "a", config.DefaultAddr, "HTTP listen address")
	f.String("public-dir", "", "Directory of static files served under /public/ instead of the built-in assets")
	f.Bool("secure-cookies", false, "Set Secure flag on session cookies")
	f.String("dump-snapshot", "", "Write the fetched pull request as JSON to this file")
	return cmd
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a quiz for a pull request and print it as JSON",
		RunE:  runGenerate,
	}
	f := cmd.Flags()
	sourceFlags(f)
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
// Composite actions pass inputs as INPUT_<NAME> variables.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("INPUT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("prquiz")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/prquiz")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// prepared is the state shared by run and generate once a quiz exists.
type prepared struct {
	runID    string
	cfg      *config.Config
	snapshot *pullrequest.Snapshot
	quiz     *quiz.Quiz
}

// setup loads configuration and the pull request. It returns a nil quiz and
// no error when the pull request is below the threshold. Without serving,
// only the inputs needed to generate are required.
func setup(ctx context.Context, cmd *cobra.Command, action *githubactions.Action, reporter *run.ActionsReporter, serving bool) (*prepared, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("error reading .env file", "error", err)
	}
	setupLogging(cmd)
	runID := uuid.NewString()
	slog.SetDefault(slog.Default().With("run_id", runID))
	v := viperForCmd(cmd)
	if !serving {
		v.Set("local", true)
		v.Set("lines-changed-threshold", 0)
		v.Set("time-limit-minutes", config.DefaultTimeLimitMinutes)
	}

	gh, err := action.Context()
	if err != nil {
		slog.Debug("no workflow context", "error", err)
		gh = nil
	}
	cfg, err := config.Load(v, gh)
	if err != nil {
		return nil, err
	}

	fetcher := pullrequest.NewGitHubFetcher(ctx, cfg.GitHubToken, cfg.ExcludeFilePatterns)
	if cfg.GitHubAPIURL != "" {
		if fetcher, err = fetcher.WithBaseURL(cfg.GitHubAPIURL); err != nil {
			return nil, &config.ConfigurationError{Field: "github-api-url", Reason: err.Error()}
		}
	}
	snap, err := fetcher.Fetch(ctx, cfg.Owner, cfg.Repo, cfg.PullNumber)
	if err != nil {
		return nil, fmt.Errorf("fetch pull request: %w", err)
	}
	slog.Info("fetched pull request",
		"repository", cfg.Owner+"/"+cfg.Repo,
		"number", snap.Number(),
		"files", len(snap.Files()),
		"comments", len(snap.Comments()),
		"lines_changed", snap.LinesChanged(),
	)

	if path := v.GetString("dump-snapshot"); path != "" {
		if err := writeJSON(path, snap); err != nil {
			slog.Warn("failed to dump snapshot", "path", path, "error", err)
		}
	}

	p := &prepared{runID: runID, cfg: cfg, snapshot: snap}
	if err := run.Admit(snap, cfg.LinesChangedThreshold); err != nil {
		if errors.Is(err, run.ErrBelowThreshold) {
			reporter.Skipped(snap.LinesChanged(), cfg.LinesChangedThreshold)
			return p, nil
		}
		return nil, err
	}

	provider, err := llm.NewProvider(ctx, llm.Config{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
	})
	if err != nil {
		return nil, &config.ConfigurationError{Field: "provider", Reason: err.Error()}
	}

	reporter.Info("Generating quiz...")
	gen := quiz.NewGenerator(provider, quiz.WithSystemPrompt(cfg.SystemPrompt))
	q, usage, err := gen.GenerateFor(ctx, snap)
	if err != nil {
		return nil, err
	}
	reporter.Info(quiz.UsageTable(usage))
	p.quiz = q
	return p, nil
}

func runQuiz(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	action := githubactions.New()
	if err := appI18n.Init(appI18n.DefaultLanguage); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	v := viperForCmd(cmd)
	reporter := run.NewActionsReporter(action, time.Duration(v.GetInt("time-limit-minutes"))*time.Minute)

	p, err := setup(ctx, cmd, action, reporter, true)
	if err != nil {
		reporter.Error(err)
		return err
	}
	if p.quiz == nil {
		return nil
	}
	cfg := p.cfg

	db, err := store.New(store.InMemory)
	if err != nil {
		reporter.Error(err)
		return fmt.Errorf("open session store: %w", err)
	}
	defer db.Close()

	latch := run.NewLatch()
	h := handler.New(db, p.quiz, latch, handler.Config{
		PullRequestNumber: p.snapshot.Number(),
		PullRequestTitle:  p.snapshot.Title(),
		PullRequestURL:    p.snapshot.URL(),
		MaxAttempts:       cfg.MaxAttempts,
		SecureCookies:     cfg.SecureCookies,
		PublicDir:         v.GetString("public-dir"),
	})

	var opener tunnel.Opener
	if !cfg.Local {
		opener = tunnel.Ngrok{Authtoken: cfg.NgrokAuthtoken}
	}
	srv := server.New(h.Router(), cfg.Addr, opener)

	started := time.Now()
	outcome, err := run.NewCoordinator(srv, latch, reporter, cfg.TimeLimit).Run(ctx)
	if err != nil {
		reporter.Error(err)
		return err
	}

	submissions, err := db.SubmissionCount()
	if err != nil {
		slog.Warn("failed to count submissions", "error", err)
	}
	subs, err := db.ListSubmissions()
	if err != nil {
		slog.Warn("failed to list submissions", "error", err)
	}
	reporter.Summary(model.RunSummary{
		RunID:       p.runID,
		PullRequest: p.snapshot.URL(),
		Outcome:     outcome.Kind,
		Attempts:    outcome.Attempts,
		Questions:   len(p.quiz.Questions),
		Submissions: submissions,
		Elapsed:     time.Since(started),
		Sessions:    run.SummarizeSessions(subs),
	})

	if !outcome.Passed() {
		return errNotPassed
	}
	return nil
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	if err := appI18n.Init(appI18n.DefaultLanguage); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	action := githubactions.New(githubactions.WithWriter(os.Stderr))
	reporter := run.NewActionsReporter(action, 0)

	p, err := setup(cmd.Context(), cmd, action, reporter, false)
	if err != nil {
		reporter.Error(err)
		return err
	}

	out := viperForCmd(cmd).GetString("output")
	if out == "" || out == "-" {
		return encodeJSON(os.Stdout, p.quiz)
	}
	return writeJSON(out, p.quiz)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()
	return encodeJSON(f, v)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
