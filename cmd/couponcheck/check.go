package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/couponcheck/internal/config"
	"github.com/nao1215/couponcheck/internal/fetch"
	clog "github.com/nao1215/couponcheck/internal/log"
	"github.com/nao1215/couponcheck/internal/match"
	"github.com/nao1215/couponcheck/internal/model"
	"github.com/nao1215/couponcheck/internal/pipeline"
	"github.com/nao1215/couponcheck/internal/progress"
	"github.com/nao1215/couponcheck/internal/report"
	"github.com/nao1215/couponcheck/internal/scrape"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare the live coupons with the database",
		Long: `Check downloads the coupon database and the live coupons, compares them,
and saves every live coupon missing from the database.

Examples:
  # Run with the built-in sources
  couponcheck check

  # Save missing coupons elsewhere and print a JSON report
  couponcheck check -o ~/missing-coupons --json

  # Write a Markdown report to a file
  couponcheck check --markdown -r report.md

  # Go through a SOCKS5 proxy with a longer timeout
  couponcheck check --proxy 127.0.0.1:9050 -t 1m

  # Keep the console window open when started by double-click
  couponcheck check --pause`,
		Args: cobra.NoArgs,
		RunE: runCheckCmd,
	}

	addCheckFlags(cmd)
	return cmd
}

// addCheckFlags registers the flags of the check command on cmd.
func addCheckFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringP("output-dir", "o", config.DefaultOutputDir,
		"Directory receiving missing coupons (deleted at the start of every run)")
	flags.DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	flags.IntP("workers", "w", config.DefaultWorkers,
		"Concurrent downloads per source")
	flags.IntP("match-workers", "m", 0,
		"Goroutines comparing images (default: number of usable CPUs)")

	flags.StringP("config", "c", "",
		"Configuration file path (default: .couponcheck in current, XDG config or home directory)")

	flags.String("proxy", "",
		"SOCKS5 proxy address (host:port or socks5://host:port)")

	flags.BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	flags.Bool("markdown", false,
		"Output Markdown report (mutually exclusive with --json)")
	flags.StringP("report-file", "r", "",
		"Write report to specified file path (creates directories if needed)")

	flags.Bool("progress", false,
		"Show progress bars on stderr when it is a terminal")
	flags.Bool("pause", false,
		"Wait for ENTER before exiting")
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Pause {
		defer waitForEnter(cmd.InOrStdin(), cmd.OutOrStdout())
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := clog.NewLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.JSONLog)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCheck(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildConfig merges defaults, the config file and the flags the user set.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit config path must exist. Without one, a missing file just
	// means built-in defaults.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		f, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.Apply(f)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if flags.Changed("output-dir") {
		if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("match-workers") {
		if cfg.MatchWorkers, err = flags.GetInt("match-workers"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report-file"); err != nil {
		return nil, err
	}
	if cfg.Progress, err = flags.GetBool("progress"); err != nil {
		return nil, err
	}
	if cfg.Pause, err = flags.GetBool("pause"); err != nil {
		return nil, err
	}

	cfg.Verbose = getPersistentBool(cmd, "verbose")
	cfg.JSONLog = getPersistentBool(cmd, "json-log")

	return cfg, nil
}

// getPersistentBool reads a persistent flag from the command or its parents.
func getPersistentBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// runCheck executes one reconciliation and writes the report. An interrupted
// run still reports what it had collected.
func runCheck(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	client, err := fetch.NewHTTPClient(fetch.ClientConfig{
		Timeout:   cfg.Timeout,
		Proxy:     cfg.Proxy,
		UserAgent: cfg.UserAgent,
		Headers:   cfg.Headers,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	p := newPipeline(cfg, client, logger, stderr)

	run := pipeline.NewRun()
	run.Report.DatabaseLabel = cfg.Labels.Database
	run.Report.LiveLabel = cfg.Labels.Live
	run.Report.SubmitURL = cfg.Labels.SubmitURL

	logger.Info("starting check",
		"sources", len(cfg.Sources),
		"outputDir", cfg.OutputDir,
		"workers", cfg.Workers,
		"matchWorkers", cfg.MatchWorkers,
	)

	runErr := p.Execute(ctx, run)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("check failed: %w", runErr)
	}

	if err := outputReport(cfg, run.Report, stdout); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return runErr
}

// newPipeline wires the scraper, fetcher and match engine into the three
// steps of a run.
func newPipeline(cfg *config.Config, client *http.Client, logger *slog.Logger, stderr io.Writer) *pipeline.Pipeline {
	scraper := scrape.New(client,
		scrape.WithMaxBodySize(cfg.MaxBodySize),
		scrape.WithLogger(logger),
	)
	fetcher := fetch.New(client,
		fetch.WithWorkers(cfg.Workers),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithLogger(logger),
	)
	engine := match.New(
		match.WithWorkers(cfg.MatchWorkers),
		match.WithLogger(logger),
	)

	var prog pipeline.Progress = pipeline.NopProgress{}
	if cfg.Progress && progress.IsTerminal(stderr) {
		prog = progress.New(stderr)
	}

	stepOpts := []pipeline.StepOption{
		pipeline.WithStepLogger(logger),
		pipeline.WithProgress(prog),
		pipeline.WithMatchWorkers(cfg.MatchWorkers),
	}

	return pipeline.New([]pipeline.Step{
		pipeline.NewResetStep(cfg.OutputDir),
		pipeline.NewDatabaseStep(scraper, fetcher, engine, cfg.SourcesByRole(model.RoleDatabase), stepOpts...),
		pipeline.NewLiveStep(scraper, fetcher, engine, cfg.SourcesByRole(model.RoleLive), cfg.OutputDir, stepOpts...),
	}, pipeline.WithLogger(logger))
}

// outputReport writes the report in the requested format.
func outputReport(cfg *config.Config, runReport *model.RunReport, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := w.Write(runReport)
	return err
}

// waitForEnter blocks until a line is read from in.
func waitForEnter(in io.Reader, out io.Writer) {
	fmt.Fprint(out, "Press ENTER key to exit")
	_, _ = bufio.NewReader(in).ReadString('\n')
}
