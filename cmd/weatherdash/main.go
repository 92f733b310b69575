package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"github.com/lox/weatherdash/internal/config"
	"github.com/lox/weatherdash/internal/render"
	"github.com/lox/weatherdash/internal/weather"
)

type CLI struct {
	config.Config `embed:""`

	Forecast ForecastCmd `cmd:"" help:"Show the daily forecast, stat cards and summary for a city."`
	Current  CurrentCmd  `cmd:"" help:"Show current conditions for a city."`
	Search   SearchCmd   `cmd:"" help:"Search for cities by name."`
	Compare  CompareCmd  `cmd:"" help:"Compare summary statistics across cities."`
	Watch    WatchCmd    `cmd:"" help:"Keep a city's dashboard on screen and refresh it periodically."`
	Repl     ReplCmd     `cmd:"" help:"Read \"city [range]\" selections from stdin; only the newest is shown."`
	Serve    ServeCmd    `cmd:"" help:"Serve the JSON API for the dashboard front end."`
}

func main() {
	config.LoadDotEnv()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("weatherdash"),
		kong.Description("Forecasts, summary statistics and comparisons from public weather APIs."),
		kong.UsageOnError(),
		kong.Vars(config.Vars()),
	)

	cli.SetupLogging()
	kctx.FatalIfErrorf(cli.Check())

	svc, err := cli.Service()
	kctx.FatalIfErrorf(err)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kctx.BindTo(ctx, (*context.Context)(nil))
	err = kctx.Run(svc, &cli.Config)
	if err != nil {
		cancel()
		log.Debug().Err(err).Str("kind", weather.Kind(err)).Msg("command failed")
		kctx.Errorf("%s", render.ErrorMessage(err))
		os.Exit(exitCode(err))
	}
}

// exitCode separates user-correctable failures (2) from everything else (1).
func exitCode(err error) int {
	switch weather.Kind(err) {
	case weather.KindNotFound, weather.KindInvalid:
		return 2
	default:
		return 1
	}
}
