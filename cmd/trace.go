package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/achilleasa/raycore/asset/reader"
	"github.com/achilleasa/raycore/tracer"
	"github.com/urfave/cli"
)

// Cast an orthographic grid of rays through a scene.
func TraceScene(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	width, height := ctx.Int("width"), ctx.Int("height")
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}

	axis, err := parseAxis(ctx.String("axis"))
	if err != nil {
		return err
	}

	query := tracer.ClosestHitQuery
	if ctx.Bool("any-hit") {
		query = tracer.AnyHitQuery
	}

	sc, err := reader.ReadScene(ctx.Args().First(), cfg.BvhOptions())
	if err != nil {
		return err
	}

	frame, err := tracer.NewOrthographicFrame(sc.Bounds(), uint32(width), uint32(height), axis, query)
	if err != nil {
		return err
	}

	batch, err := tracer.NewBatch(cfg.WorkerCount(), tracer.PerfectScheduler())
	if err != nil {
		return err
	}

	runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	frames := ctx.Int("frames")
	for frameIndex := 0; frameIndex < frames; frameIndex++ {
		if err = batch.Run(runCtx, sc, frame); err != nil {
			return err
		}
		logger.Noticef("frame %d statistics\n%s", frameIndex, batch.Stats())
	}

	return nil
}

func parseAxis(name string) (int, error) {
	switch strings.ToLower(name) {
	case "x":
		return 0, nil
	case "y":
		return 1, nil
	case "z":
		return 2, nil
	}
	return 0, fmt.Errorf("unsupported axis %q; expected one of x, y or z", name)
}
