package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var cli struct {
	Debug  bool      `help:"Enable debug logging." env:"TASKTRAIL_DEBUG"`
	Server ServerCmd `cmd:"" default:"withargs" help:"Start the tasktrail server."`
}

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("tasktrail"),
		kong.Description("Personal task tracker with a session-based auth gateway."),
		kong.BindTo(ctx, (*context.Context)(nil)))

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cli.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cmd.FatalIfErrorf(cmd.Run())
}
