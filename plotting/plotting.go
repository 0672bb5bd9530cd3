// Package plotting renders metric curves as plots and composes them into a
// single combined artifact.
package plotting

import (
	"fmt"
	"image/color"
	"os"

	"github.com/relab/experimenttools/metric"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	tileCols   = 2
	tileWidth  = 6 * vg.Inch
	tileHeight = 4 * vg.Inch
)

// Save renders one line plot per curve, composes them into a tiled layout, and
// writes the layout as a PNG image to the given path, overwriting any previous
// artifact. With no curves an empty artifact is still written, so the path
// exists after every call.
func Save(path string, curves ...metric.Curve) error {
	rows := (len(curves) + tileCols - 1) / tileCols
	if rows == 0 {
		rows = 1
	}

	plots := make([][]*plot.Plot, rows)
	i := 0
	for r := range plots {
		plots[r] = make([]*plot.Plot, tileCols)
		for c := 0; c < tileCols && i < len(curves); c++ {
			plt, err := linePlot(curves[i])
			if err != nil {
				return err
			}
			plots[r][c] = plt
			i++
		}
	}

	img := vgimg.New(tileCols*tileWidth, vg.Length(rows)*tileHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows,
		Cols: tileCols,
		PadX: vg.Millimeter,
		PadY: vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, dc)
	for r := range plots {
		for c := range plots[r] {
			if plots[r][c] != nil {
				plots[r][c].Draw(canvases[r][c])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return f.Close()
}

func linePlot(curve metric.Curve) (*plot.Plot, error) {
	plt := plot.New()

	grid := plotter.NewGrid()
	grid.Horizontal.Color = color.Gray{Y: 200}
	grid.Horizontal.Dashes = plotutil.Dashes(2)
	grid.Vertical.Color = color.Gray{Y: 200}
	grid.Vertical.Dashes = plotutil.Dashes(2)
	plt.Add(grid)

	plt.Title.Text = curve.Name
	plt.X.Label.Text = curve.XLabel
	plt.X.Tick.Marker = hplot.Ticks{N: 10}
	plt.Y.Label.Text = curve.Name
	plt.Y.Tick.Marker = hplot.Ticks{N: 10}

	if err := plotutil.AddLinePoints(plt, curveXYs(curve)); err != nil {
		return nil, fmt.Errorf("failed to add line plot for %s: %w", curve.Name, err)
	}
	return plt, nil
}

type curveXYs metric.Curve

// Len returns the number of x, y pairs.
func (c curveXYs) Len() int {
	return len(c.X)
}

// XY returns an x, y pair.
func (c curveXYs) XY(i int) (x, y float64) {
	return c.X[i], c.Y[i]
}
