// Package cli implements brefctl: the dashboard server, offline views of the
// pollutant data, a chat turn through the proxy and the preprocessing tool.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/turtacn/bref-insight/internal/config"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Output formats.
const (
	OutputText  = "text"
	OutputJSON  = "json"
	OutputTable = "table"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	DataSource   string
	DataRoot     string
	BaseURL      string
	NoColor      bool
	Timeout      time.Duration
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	NoColor      bool
	Timeout      time.Duration
}

// NewRootCommand creates the root command with all global flags and
// subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "brefctl",
		Short: "BREF pollutant relevance dashboard",
		Long: "brefctl serves the BREF pollutant dashboard and explores its data from the\n" +
			"terminal: pollutant lists, the relevance tree with badges, cumulative counts,\n" +
			"ranked patents, chat turns and the offline fixture preprocessing.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./bref.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", OutputText, "output format (text, json, table)")
	pf.StringVar(&opts.DataSource, "data-source", "", "fixture source (fs, http, minio)")
	pf.StringVar(&opts.DataRoot, "data-root", "", "fixture directory for the fs source")
	pf.StringVar(&opts.BaseURL, "base-url", "", "server root for the http source and the chat proxy")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "global operation timeout")

	cmd.AddCommand(
		NewServeCmd(),
		NewPollutantsCmd(),
		NewTreeCmd(),
		NewCountsCmd(),
		NewPatentsCmd(),
		NewChatCmd(),
		NewPreprocessCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// persistentPreRun initializes config and logger, then stores CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	switch strings.ToLower(opts.OutputFormat) {
	case OutputText, OutputJSON, OutputTable:
	default:
		return errors.New(errors.ErrCodeValidation, "output must be one of text, json, table").WithDetail(opts.OutputFormat)
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "config initialization failed")
	}

	logger, err := initLogger(cfg, opts, cmd.ErrOrStderr())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "logger initialization failed")
	}

	if opts.NoColor {
		color.NoColor = true
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		NoColor:      opts.NoColor,
		Timeout:      opts.Timeout,
	}
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	cmd.SetContext(context.WithValue(parent, cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads configuration with priority: flags > env > file > defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	path := opts.ConfigPath
	if path == "" {
		searchPaths := []string{"./bref.yaml"}
		if home, err := os.UserHomeDir(); err == nil {
			searchPaths = append(searchPaths, filepath.Join(home, ".bref", "config.yaml"))
		}
		searchPaths = append(searchPaths, "/etc/bref/config.yaml")
		for _, p := range searchPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if !applyOverrides(cfg, opts) {
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverrides copies data flags into cfg and reports whether any was set.
func applyOverrides(cfg *config.Config, opts *RootOptions) bool {
	changed := false
	if opts.DataSource != "" {
		cfg.Data.Source = strings.ToLower(opts.DataSource)
		changed = true
	}
	if opts.DataRoot != "" {
		cfg.Data.Root = opts.DataRoot
		changed = true
	}
	if opts.BaseURL != "" {
		cfg.Data.BaseURL = opts.BaseURL
		cfg.LLM.ProxyURL = opts.BaseURL
		changed = true
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = strings.ToLower(opts.LogLevel)
		changed = true
	}
	return changed
}

// initLogger creates a console logger writing to stderr.
func initLogger(cfg *config.Config, opts *RootOptions, stderr io.Writer) (logging.Logger, error) {
	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = strings.ToLower(opts.LogLevel)
	}
	if stderr != os.Stderr {
		return logging.NewLoggerTo(logging.LogConfig{Level: level, Format: "console"}, stderr)
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeValidation, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeValidation, "CLIContext not found in command context")
	}
	return cliCtx, nil
}

// commandContext returns the command context bounded by --timeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cliCtx, err := GetCLIContext(cmd); err == nil && cliCtx.Timeout > 0 {
		return context.WithTimeout(ctx, cliCtx.Timeout)
	}
	return context.WithCancel(ctx)
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Output
// ─────────────────────────────────────────────────────────────────────────────

// tableProvider is implemented by results that render as a table.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

// PrintResult outputs data in the format specified by CLIContext.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return printJSON(cmd.OutOrStdout(), data)
	}

	switch cliCtx.OutputFormat {
	case OutputJSON:
		return printJSON(cmd.OutOrStdout(), data)
	case OutputTable:
		return printTable(cmd.OutOrStdout(), data)
	default:
		return printText(cmd.OutOrStdout(), data)
	}
}

func printJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printText(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case string:
		fmt.Fprintln(w, v)
	case fmt.Stringer:
		fmt.Fprint(w, v.String())
	case tableProvider:
		return printTable(w, v)
	default:
		fmt.Fprintf(w, "%+v\n", v)
	}
	return nil
}

// printTable renders a tableProvider; other values fall back to text.
func printTable(w io.Writer, data interface{}) error {
	tp, ok := data.(tableProvider)
	if !ok {
		return printText(w, data)
	}
	return renderTable(w, tp.TableHeaders(), tp.TableRows())
}

// renderTable writes headers and rows as a borderless table.
func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "render table")
	}
	if err := table.Render(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "render table")
	}
	return nil
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.RedString("Error:"), err.Error())
}

// PrintSuccess writes a formatted success message to stdout.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("OK:"), msg)
}

//Personal.AI order the ending
