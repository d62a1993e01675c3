package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/go-scripts/tplmirror/internal/config"
	"github.com/go-scripts/tplmirror/internal/crawler"
	"github.com/go-scripts/tplmirror/internal/extract"
	"github.com/go-scripts/tplmirror/internal/fetch"
	"github.com/go-scripts/tplmirror/internal/logging"
	"github.com/go-scripts/tplmirror/internal/progress"
	"github.com/go-scripts/tplmirror/internal/writer"
	"github.com/go-scripts/tplmirror/ui"
)

// CLIFlags are the command line options. Zero values leave the config file
// (or the defaults) in charge.
type CLIFlags struct {
	URL        string        `help:"Entry page of the template to mirror" short:"u"`
	Output     string        `help:"Directory the mirror is written to" short:"o" type:"path"`
	ConfigFile string        `help:"Path to a YAML configuration file" name:"config" type:"path"`
	LogDir     string        `help:"Directory for the rotating log file (default: output directory)" type:"path"`
	Workers    int           `help:"Parallel static downloads per page" short:"w"`
	RateLimit  float64       `help:"Maximum requests per second, 0 for unlimited"`
	Timeout    time.Duration `help:"Per-request timeout"`
	UserAgent  string        `help:"User-Agent header sent with every request"`
	Extractor  string        `help:"Reference extractor: regex or tokenizer"`
	Strict     bool          `help:"Drop references that climb above the site root"`
	Verbose    bool          `help:"Log debug output to the terminal" short:"v"`
	Quiet      bool          `help:"No spinner and no summary" short:"q"`
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Unexpected error", "panic", r, "stack", string(debug.Stack()))
			os.Exit(1)
		}
	}()

	var flags CLIFlags
	kong.Parse(&flags,
		kong.Name("tplmirror"),
		kong.Description("Mirror a website template: pages, scripts, styles and images."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flags, os.Stdout); err != nil {
		log.Error("Mirror failed", "err", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the command line overrides.
func loadConfig(flags CLIFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return nil, err
	}

	if flags.URL != "" {
		cfg.EntryURL = flags.URL
	}
	if flags.Output != "" {
		cfg.OutputDir = flags.Output
	}
	if flags.LogDir != "" {
		cfg.LogDir = flags.LogDir
	}
	if flags.Workers != 0 {
		cfg.Workers = flags.Workers
	}
	if flags.RateLimit != 0 {
		cfg.RateLimit = flags.RateLimit
	}
	if flags.Timeout != 0 {
		cfg.Timeout = flags.Timeout
	}
	if flags.UserAgent != "" {
		cfg.UserAgent = flags.UserAgent
	}
	if flags.Extractor != "" {
		cfg.Extractor = flags.Extractor
	}
	if flags.Strict {
		cfg.StrictResolve = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// logFailure is deferred by run so a panic or a returned error is written to
// the run log while the file is still open. A panic becomes the returned error.
func logFailure(logger *log.Logger, err *error) {
	if r := recover(); r != nil {
		logger.Error("Unexpected error", "panic", r, "stack", string(debug.Stack()))
		*err = fmt.Errorf("panic: %v", r)
	}
	if *err != nil {
		logger.Error("Mirror failed", "err", *err)
	}
}

// run performs one mirror and prints the summary to out.
func run(ctx context.Context, flags CLIFlags, out io.Writer) (err error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	level := log.InfoLevel
	if flags.Verbose {
		level = log.DebugLevel
	}
	logger, closer, err := logging.New(logging.Options{
		Dir:     cfg.LogDirectory(),
		File:    cfg.LogFile,
		Backups: cfg.LogBackups,
		Console: flags.Verbose,
		Level:   level,
	})
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closer.Close()
	prev := log.Default()
	log.SetDefault(logger)
	defer log.SetDefault(prev)
	defer logFailure(logger, &err)

	fw, err := writer.New(cfg.OutputDir, logger)
	if err != nil {
		return err
	}

	var resolve extract.Resolver
	if cfg.StrictResolve {
		resolve = crawler.StrictResolver(logger)
	}
	ex, err := extract.New(cfg.Extractor, resolve)
	if err != nil {
		return err
	}

	tracker := progress.New(os.Stderr, !flags.Quiet && !flags.Verbose)

	session, err := crawler.New(crawler.Configuration{
		Fetcher: fetch.New(fetch.Config{
			Timeout:   cfg.Timeout,
			MaxBytes:  cfg.MaxBodyBytes,
			UserAgent: cfg.UserAgent,
			RateLimit: cfg.RateLimit,
		}),
		Sink:      fw,
		Extractor: ex,
		Logger:    logger,
		Observer:  tracker,
		Groups: extract.Groups{
			Static: cfg.StaticSuffixes,
			Pages:  cfg.PageSuffixes,
		},
		EntryFilename: cfg.EntryFilename,
		Workers:       cfg.Workers,
	})
	if err != nil {
		return err
	}

	tracker.Start()
	defer tracker.Stop()
	stats, err := session.Run(ctx, cfg.EntryURL)
	tracker.Stop()

	if !flags.Quiet {
		fmt.Fprintln(out, ui.Summary(stats, fw.Dir()))
	}
	return err
}
