package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/raycore/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "raycore"
	app.Usage = "build BVHs and run ray queries against scenes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.IntFlag{
			Name:  "bins",
			Usage: "number of SAH bins per axis (overrides RAYCORE_BVH_BINS)",
		},
		cli.IntFlag{
			Name:  "max-depth",
			Usage: "max BVH depth (overrides RAYCORE_BVH_MAX_DEPTH)",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "number of query workers; 0 uses all CPUs (overrides RAYCORE_WORKERS)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "info",
			Usage: "display scene contents and BVH statistics",
			Description: `
Parse one or more scene definitions from wavefront obj files, build a BVH for
each mesh that requests one and print the scene contents together with the
statistics of every BVH.`,
			ArgsUsage: "scene_file1.obj scene_file2.obj ...",
			Action:    cmd.ShowSceneInfo,
		},
		{
			Name:  "trace",
			Usage: "cast an orthographic grid of rays through a scene",
			Description: `
Cast a grid of parallel rays along the selected axis through the scene bounds
using a pool of workers and report hit counts and timing per worker.`,
			ArgsUsage: "scene_file.obj",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 512,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 512,
					Usage: "frame height",
				},
				cli.StringFlag{
					Name:  "axis",
					Value: "z",
					Usage: "ray direction axis (x, y or z)",
				},
				cli.IntFlag{
					Name:  "frames",
					Value: 1,
					Usage: "number of frames to trace",
				},
				cli.BoolFlag{
					Name:  "any-hit",
					Usage: "run any-hit instead of closest-hit queries",
				},
			},
			Action: cmd.TraceScene,
		},
		{
			Name:  "animate",
			Usage: "rotate scene meshes and refit their BVH every frame",
			Description: `
Rotate all meshes about the Y axis, refit their BVH after each step, validate
the refitted trees and compare their SAH cost against a fresh rebuild.`,
			ArgsUsage: "scene_file.obj",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "frames",
					Value: 10,
					Usage: "number of frames to animate",
				},
				cli.Float64Flag{
					Name:  "step",
					Value: 15,
					Usage: "rotation per frame in degrees",
				},
			},
			Action: cmd.AnimateScene,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
