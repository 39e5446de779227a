package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/hxshowcase/cmd/hxshowcase/commands"
	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
	"git.home.luguber.info/inful/hxshowcase/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{Out: os.Stdout}

	parser := kong.Must(cli,
		kong.Name("hxshowcase"),
		kong.Description("htmx examples server and Tailwind build configuration tooling"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := kctx.Run(global, cli); err != nil {
		derrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
