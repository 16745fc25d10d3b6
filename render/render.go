// Package render draws maze snapshots as raster images.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/beka-birhanu/vinom-mazegen/maze"
	"github.com/yalue/image_utils"
)

const (
	// fitPixels is the side of the square a maze is scaled to when no cell size is given.
	fitPixels = 500

	minCellPixels = 6
	wallPixels    = 2
	arrowPixels   = 12
)

var (
	BackgroundColor = color.RGBA{0, 0, 0, 255}
	VisitedColor    = color.RGBA{0x00, 0x1F, 0x2E, 255}
	GoalColor       = color.RGBA{209, 100, 0, 255}
	CurrentColor    = color.RGBA{128, 0, 128, 255}
	WallColor       = color.RGBA{255, 255, 255, 255}
	StartColor      = color.RGBA{40, 180, 70, 255}
	EndColor        = color.RGBA{100, 120, 255, 255}

	ErrEmptySnapshot = errors.New("snapshot has no cells")
)

// CellPixels returns the cell side used when the caller leaves it to the renderer.
func CellPixels(rows, cols int) int {
	return max(fitPixels/max(rows, cols, 1), minCellPixels)
}

// Image draws every cell of snap, its walls, and entry and exit arrows. While the
// generation is running the current cell is highlighted. A non-positive cellPixels
// fits the maze into a 500 pixel square.
func Image(snap maze.Snapshot, cellPixels int) (*image.RGBA, error) {
	if snap.Rows < 1 || snap.Cols < 1 || len(snap.Cells) != snap.Rows {
		return nil, ErrEmptySnapshot
	}
	if cellPixels <= 0 {
		cellPixels = CellPixels(snap.Rows, snap.Cols)
	}

	grid := drawGrid(snap, cellPixels)

	canvas := image_utils.NewCompositeImage()
	if err := canvas.AddImage(grid, image.Pt(arrowPixels, arrowPixels)); err != nil {
		return nil, fmt.Errorf("adding maze image: %w", err)
	}

	// Entry arrow left of the start cell, exit arrow below the goal cell.
	startPos := image.Pt(0, arrowPixels+(cellPixels-arrowPixels)/2)
	startArrow := image_utils.ResizeImage(image_utils.RightArrow(StartColor), arrowPixels, arrowPixels)
	if err := canvas.AddImage(startArrow, startPos); err != nil {
		return nil, fmt.Errorf("adding start arrow: %w", err)
	}

	endPos := image.Pt(arrowPixels+(snap.Cols-1)*cellPixels+(cellPixels-arrowPixels)/2, arrowPixels+snap.Rows*cellPixels)
	endArrow := image_utils.ResizeImage(image_utils.DownArrow(EndColor), arrowPixels, arrowPixels)
	if err := canvas.AddImage(endArrow, endPos); err != nil {
		return nil, fmt.Errorf("adding end arrow: %w", err)
	}

	return image_utils.ToRGBA(canvas), nil
}

// PNG encodes Image(snap, cellPixels) to w.
func PNG(w io.Writer, snap maze.Snapshot, cellPixels int) error {
	pic, err := Image(snap, cellPixels)
	if err != nil {
		return err
	}
	return png.Encode(w, pic)
}

func drawGrid(snap maze.Snapshot, size int) *image.RGBA {
	bounds := image.Rect(0, 0, snap.Cols*size+wallPixels, snap.Rows*size+wallPixels)
	pic := image.NewRGBA(bounds)
	fill(pic, bounds, BackgroundColor)

	for r, row := range snap.Cells {
		for c, cell := range row {
			x, y := c*size, r*size
			inner := image.Rect(x+wallPixels, y+wallPixels, x+size, y+size)

			switch {
			case snap.State == maze.Running && cell.Position == snap.Current:
				fill(pic, inner, CurrentColor)
			case cell.Goal:
				fill(pic, inner, GoalColor)
			case cell.Visited:
				fill(pic, inner, VisitedColor)
			}

			if cell.NorthWall {
				fill(pic, image.Rect(x, y, x+size+wallPixels, y+wallPixels), WallColor)
			}
			if cell.SouthWall {
				fill(pic, image.Rect(x, y+size, x+size+wallPixels, y+size+wallPixels), WallColor)
			}
			if cell.WestWall {
				fill(pic, image.Rect(x, y, x+wallPixels, y+size+wallPixels), WallColor)
			}
			if cell.EastWall {
				fill(pic, image.Rect(x+size, y, x+size+wallPixels, y+size+wallPixels), WallColor)
			}
		}
	}

	return pic
}

func fill(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}
