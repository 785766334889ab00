package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/jira-data-client/pkg/client"
	"github.com/Sternrassler/jira-data-client/pkg/config"
	"github.com/Sternrassler/jira-data-client/pkg/credentials"
	"github.com/Sternrassler/jira-data-client/pkg/jira"
	"github.com/Sternrassler/jira-data-client/pkg/logging"
	"github.com/Sternrassler/jira-data-client/pkg/metrics"
)

// Output formats for --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// TokenStore persists API tokens per account. *credentials.Keyring
// implements it.
type TokenStore interface {
	Token(email string) (string, error)
	SetToken(email, token string) error
	DeleteToken(email string) error
	Description() string
}

// Deps holds the process-level collaborators of the commands.
type Deps struct {
	Getenv     func(string) string
	Tokens     TokenStore
	ReadSecret func(prompt string) (string, error)
	Now        func() time.Time
}

// DefaultDeps returns the dependencies for production use.
func DefaultDeps() *Deps {
	return &Deps{
		Getenv:     os.Getenv,
		Tokens:     credentials.NewKeyring(),
		ReadSecret: readSecret,
		Now:        time.Now,
	}
}

// app is the state shared by all commands of one invocation.
type app struct {
	deps *Deps

	configFile  string
	envFile     string
	logLevel    string
	logPretty   bool
	output      string
	metricsAddr string

	cfg    config.Config
	logger zerolog.Logger
}

// NewRootCommand builds the jira-query command tree.
func NewRootCommand(deps *Deps) *cobra.Command {
	a := &app{deps: deps}

	root := &cobra.Command{
		Use:           "jira-query",
		Short:         "Query, export and analyze Jira issues",
		Long:          "jira-query runs JQL searches against Jira Cloud and exports or summarizes the results.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "YAML config file")
	flags.StringVar(&a.envFile, "env-file", config.DefaultEnvFile, "dotenv file (ignored when missing)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error, disabled")
	flags.BoolVar(&a.logPretty, "log-pretty", false, "human-readable log output")
	flags.StringVarP(&a.output, "output", "o", outputText, "output format: text, json, yaml")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	root.AddCommand(
		newSearchCommand(a),
		newExportCommand(a),
		newAnalyzeCommand(a),
		newFieldsCommand(a),
		newProjectsCommand(a),
		newStatusesCommand(a),
		newIssueCommand(a),
		newChangelogCommand(a),
		newAuthCommand(a),
		newVersionCommand(),
	)
	return root
}

// setup loads configuration and configures logging. Credentials are not
// validated here so that auth and version work without them.
func (a *app) setup(cmd *cobra.Command) error {
	switch a.output {
	case outputText, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unsupported output format %q", a.output)
	}

	cfg, err := config.Load(config.LoadOptions{
		File:    a.configFile,
		EnvFile: a.envFile,
		Tokens:  a.deps.Tokens,
		Getenv:  a.deps.Getenv,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg

	levelName := a.logLevel
	if levelName == "" {
		levelName = cfg.LogLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	logging.Setup(logging.Config{
		Level:  level,
		Pretty: a.logPretty,
		Output: cmd.ErrOrStderr(),
	})
	a.logger = logging.NewLogger("jira-query")

	if a.metricsAddr != "" {
		a.serveMetrics(cmd.Context())
	}
	return nil
}

func (a *app) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: a.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.logger.Info().Str("addr", a.metricsAddr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	if ctx != nil {
		go func() {
			<-ctx.Done()
			srv.Close()
		}()
	}
}

// api validates the configuration and returns the Jira helpers.
func (a *app) api() (*jira.API, error) {
	c, err := client.New(a.cfg)
	if err != nil {
		return nil, err
	}
	return jira.New(c), nil
}

// pageSize returns flagValue, or the configured default when unset.
func (a *app) pageSize(flagValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return a.cfg.PageSize
}

// render writes v as JSON or YAML, or calls text for the text format.
func (a *app) render(w io.Writer, v any, text func(io.Writer) error) error {
	switch a.output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}

// splitList splits comma-separated flag values and drops empty entries.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
