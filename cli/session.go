package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/mininab/config"
	"github.com/robinvdvleuten/mininab/logging"
	"github.com/robinvdvleuten/mininab/storage"
	"github.com/robinvdvleuten/mininab/telemetry"
)

// session bundles what every command needs: resolved config, a logger
// carried by ctx, the store and optional telemetry.
type session struct {
	ctx    context.Context
	cfg    *config.Config
	store  storage.Store
	stderr io.Writer

	logCloser io.Closer
	collector telemetry.Collector
	rootTimer telemetry.Timer
}

// resolveConfig loads the config file and environment, then applies flags.
func resolveConfig(globals *Globals) (*config.Config, error) {
	cfg, err := config.Load(globals.Config)
	if err != nil {
		return nil, err
	}
	if globals.Ledger != "" {
		cfg.Ledger = globals.Ledger
	}
	if globals.Backend != "" {
		cfg.Backend = globals.Backend
	}
	if globals.LogFile != "" {
		cfg.Log.File = globals.LogFile
	}
	if globals.LogLevel != "" {
		cfg.Log.Level = globals.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openSession(kctx *kong.Context, globals *Globals) (*session, error) {
	cfg, err := resolveConfig(globals)
	if err != nil {
		return nil, err
	}

	opts := logging.Options{File: cfg.Log.File, Level: cfg.Log.Level}
	if globals.Verbose {
		opts.Console = kctx.Stderr
	}
	logger, logCloser, err := logging.New(opts)
	if err != nil {
		return nil, err
	}

	s := &session{
		ctx:       logger.WithContext(context.Background()),
		cfg:       cfg,
		stderr:    kctx.Stderr,
		logCloser: logCloser,
	}

	if globals.Telemetry {
		collector := telemetry.NewTimingCollector()
		s.collector = collector
		s.ctx = telemetry.WithCollector(s.ctx, collector)
		s.rootTimer = collector.Start(strings.Join(append([]string{"mininab"}, kctx.Args...), " "))
	}

	logger.Info().Str("command", kctx.Command()).Strs("args", kctx.Args).Msg("cli command")

	store, err := storage.Open(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.store = store
	return s, nil
}

func (s *session) log() *zerolog.Logger {
	return zerolog.Ctx(s.ctx)
}

// Close releases the store and the log file and prints telemetry.
func (s *session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log().Warn().Err(err).Msg("failed to close store")
		}
	}
	if s.collector != nil {
		s.rootTimer.End()
		_, _ = fmt.Fprintln(s.stderr)
		s.collector.Report(s.stderr)
	}
	_ = s.logCloser.Close()
}
