package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/achilleasa/raycore/asset/reader"
	"github.com/achilleasa/raycore/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Spin all meshes about the Y axis, refitting their BVH every frame, and
// compare the refitted trees against a fresh rebuild.
func AnimateScene(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	sc, err := reader.ReadScene(ctx.Args().First(), cfg.BvhOptions())
	if err != nil {
		return err
	}

	frames := ctx.Int("frames")
	step := float32(ctx.Float64("step") * math.Pi / 180.0)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Frame", "Refit time", "Rebuild time", "Refit SAH", "Rebuild SAH"})

	var totalRefit, totalRebuild time.Duration
	for frame := 1; frame <= frames; frame++ {
		yaw := step * float32(frame)

		var refitTime time.Duration
		var verifyErr error
		sc.Update(func(sc *scene.Scene) {
			start := time.Now()
			for _, m := range sc.Meshes {
				m.RotateY(yaw)
				m.UpdateTransforms()
			}
			refitTime = time.Since(start)

			for _, m := range sc.Meshes {
				if verifyErr = m.Validate(); verifyErr != nil {
					return
				}
			}
		})
		if verifyErr != nil {
			return fmt.Errorf("frame %d: %w", frame, verifyErr)
		}

		// Rebuild copies of the meshes to measure the quality loss of refitting
		var refitCost, rebuildCost float64
		var rebuildTime time.Duration
		for _, m := range sc.Meshes {
			if !m.UsesBVH() {
				continue
			}
			refitCost += m.Tree().Stats().SAHCost

			clone := m.Clone()
			start := time.Now()
			clone.Rebuild()
			rebuildTime += time.Since(start)
			rebuildCost += clone.Tree().Stats().SAHCost
		}

		totalRefit += refitTime
		totalRebuild += rebuildTime
		table.Append([]string{
			fmt.Sprintf("%d", frame),
			refitTime.String(),
			rebuildTime.String(),
			fmt.Sprintf("%.2f", refitCost),
			fmt.Sprintf("%.2f", rebuildCost),
		})
	}
	table.SetFooter([]string{"TOTAL", totalRefit.String(), totalRebuild.String(), "", ""})
	table.Render()

	logger.Noticef("animation statistics\n%s", buf.String())
	return nil
}
