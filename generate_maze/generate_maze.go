// This defines a headless executable that generates a maze and prints it.
package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/beka-birhanu/vinom-mazegen/maze"
	"github.com/beka-birhanu/vinom-mazegen/render"
)

func run(args []string, stdout, stderr io.Writer) int {
	var rows, cols, cellPixels int
	var seed int64
	var animate bool
	var outFilename string

	flags := flag.NewFlagSet("generate_maze", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.IntVar(&rows, "rows", 10, "The height of the maze, in cells.")
	flags.IntVar(&cols, "cols", 10, "The width of the maze, in cells.")
	flags.Int64Var(&seed, "seed", -1, "If non-negative, specifies the random seed to use.")
	flags.StringVar(&outFilename, "png", "", "If set, the .png file to which the maze will be saved.")
	flags.IntVar(&cellPixels, "cell", 0, "Cell size of the .png image in pixels. 0 picks one from the dimensions.")
	flags.BoolVar(&animate, "animate", false, "If set, prints every generation step.")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	grid, err := maze.NewWithLimit(rows, cols, maze.DefaultMaxDimension)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid dimensions: %s\n", err)
		return 1
	}
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	gen := maze.NewGenerator(grid, rand.New(rand.NewSource(seed)))

	var observe func(maze.StepResult)
	if animate {
		observe = func(res maze.StepResult) {
			printStep(stdout, res)
		}
	}
	final, err := gen.RunToCompletion(observe)
	if err != nil {
		fmt.Fprintf(stderr, "Failed generating maze: %s\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Generated %dx%d maze with seed %d in %d steps.\n", rows, cols, seed, final.StepIndex)
	fmt.Fprint(stdout, grid.String())

	if outFilename == "" {
		return 0
	}
	f, err := os.Create(outFilename)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating output file %s: %s\n", outFilename, err)
		return 1
	}
	defer f.Close()
	if err := render.PNG(f, gen.Snapshot(), cellPixels); err != nil {
		fmt.Fprintf(stderr, "Error writing image to %s: %s\n", outFilename, err)
		return 1
	}
	fmt.Fprintf(stdout, "Image %s written OK.\n", outFilename)
	return 0
}

func printStep(w io.Writer, res maze.StepResult) {
	switch res.Event {
	case maze.EventAdvance:
		fmt.Fprintf(w, "%4d advance   %s -> %s (%s wall removed)\n",
			res.StepIndex, res.WallRemoved.From, res.WallRemoved.To, res.WallRemoved.Direction)
	default:
		fmt.Fprintf(w, "%4d %-9s %s\n", res.StepIndex, res.Event, res.Current)
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
