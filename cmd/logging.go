package cmd

import (
	"github.com/achilleasa/raycore/config"
	"github.com/achilleasa/raycore/log"
	"github.com/urfave/cli"
)

var logger = log.New("raycore")

func setupLogging(ctx *cli.Context, cfg *config.Config) {
	log.SetLevel(cfg.Level())

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}

// Load the environment configuration, apply any global flag overrides and
// setup logging.
func setup(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if ctx.GlobalIsSet("bins") {
		cfg.BvhBins = ctx.GlobalInt("bins")
	}
	if ctx.GlobalIsSet("max-depth") {
		cfg.BvhMaxDepth = ctx.GlobalInt("max-depth")
	}
	if ctx.GlobalIsSet("workers") {
		cfg.Workers = ctx.GlobalInt("workers")
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	setupLogging(ctx, cfg)
	return cfg, nil
}
