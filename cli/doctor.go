package cli

import (
	"io"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/robinvdvleuten/mininab/ledger"
)

// DoctorCmd provides doctor utilities for debugging ledger state.
type DoctorCmd struct {
	Dump DumpCmd `cmd:"" help:"Dump the persisted ledger state as Go values."`
}

// DumpCmd prints the ledger snapshot with repr.
type DumpCmd struct {
	Omit bool `help:"Omit zero-valued fields." default:"true" negatable:""`
}

// Run executes the dump command.
func (cmd *DumpCmd) Run(ctx *kong.Context, globals *Globals) error {
	return runQuery(ctx, globals, func(w io.Writer, l *ledger.Ledger) {
		opts := []repr.Option{repr.Indent("  ")}
		if cmd.Omit {
			opts = append(opts, repr.OmitEmpty(true))
		}
		repr.New(w, opts...).Println(l.Snapshot())
	})
}
