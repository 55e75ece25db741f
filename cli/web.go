package cli

import (
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/mininab/config"
	"github.com/robinvdvleuten/mininab/web"
)

type WebCmd struct {
	Port     int    `help:"Port to listen on (overrides config)."`
	Host     string `help:"Host to bind (overrides config)."`
	Watch    bool   `help:"Reload when another process rewrites the JSON ledger file." short:"w"`
	ReadOnly bool   `help:"Enable read-only mode (no write operations allowed)." short:"r"`
}

func (cmd *WebCmd) Run(ctx *kong.Context, globals *Globals) error {
	s, err := openSession(ctx, globals)
	if err != nil {
		printError(ctx.Stderr, sentence(err.Error()))
		return NewCommandError(1)
	}
	defer s.Close()

	port := s.cfg.Web.Port
	if cmd.Port != 0 {
		port = cmd.Port
	}
	host := s.cfg.Web.Host
	if cmd.Host != "" {
		host = cmd.Host
	}

	version := Version
	if version == "" {
		version = "dev"
	}
	commitSHA := CommitSHA
	if commitSHA == "" {
		commitSHA = "local"
	}

	server := web.NewWithVersion(port, s.store, version, commitSHA)
	server.Host = host
	server.ReadOnly = cmd.ReadOnly || s.cfg.Web.ReadOnly
	server.WatchEnabled = cmd.Watch || s.cfg.Web.Watch

	if server.WatchEnabled && s.cfg.Backend != config.BackendJSON {
		printInfof(ctx.Stdout, "File watching only applies to the json backend; disabled")
		server.WatchEnabled = false
	}

	printInfof(ctx.Stdout, "Starting server on %s:%d", server.Host, port)
	printInfof(ctx.Stdout, "Serving ledger: %s", pathStyle.Render(s.store.Path()))

	if server.ReadOnly {
		printInfof(ctx.Stdout, "Server running in READ-ONLY mode")
	}

	runCtx, stop := signal.NotifyContext(s.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(runCtx); err != nil && runCtx.Err() == nil {
		return s.fail(err).AsError()
	}
	return nil
}
