package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version     kong.VersionFlag `short:"v" help:"Show version"`
	Run         RunCmd           `cmd:"" help:"Run the benchmark tournaments"`
	HealthCheck HealthCheckCmd   `cmd:"health-check" help:"Verify the configuration and environment before running"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pokerbench"),
		kong.Description("LLM poker benchmark: No-Limit Hold'em tournaments between language models"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
