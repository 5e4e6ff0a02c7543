package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/achilleasa/raycore/asset/reader"
	"github.com/achilleasa/raycore/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Display scene and BVH information.
func ShowSceneInfo(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() == 0 {
		return errors.New("missing scene file argument")
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		sceneFile := ctx.Args().Get(idx)
		sc, err := reader.ReadScene(sceneFile, cfg.BvhOptions())
		if err != nil {
			return err
		}

		logger.Noticef("scene information for %s:\n%s", sceneFile, sceneStats(sc))
		for _, m := range sc.Meshes {
			if !m.UsesBVH() {
				continue
			}
			logger.Noticef("BVH statistics for mesh %q:\n%s", m.Name, m.Tree().Stats())
		}
	}

	return nil
}

// Build a tabular representation of scene contents.
func sceneStats(sc *scene.Scene) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Primitive", "Name", "Count", "Accel"})

	spheres, planes, meshes, triangles := sc.Counts()
	table.Append([]string{"Spheres", "---", fmt.Sprintf("%d", spheres), ""})
	table.Append([]string{"Planes", "---", fmt.Sprintf("%d", planes), ""})
	table.Append([]string{"Meshes", "---", fmt.Sprintf("%d", meshes), ""})
	for _, m := range sc.Meshes {
		accel := "aabb"
		if m.UsesBVH() {
			accel = "bvh"
		}
		table.Append([]string{"", m.Name, fmt.Sprintf("%d", len(m.Triangles)), accel})
	}
	table.SetFooter([]string{"Triangles", "", fmt.Sprintf("%d", triangles), ""})

	table.Render()
	return buf.String()
}
