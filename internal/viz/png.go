package viz

import (
	"fmt"
	"image/color"
	"io"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/dimersim/internal/sim"
)

var particleColors = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
}

// PositionsPlot builds a figure of every particle's position against time.
func PositionsPlot(tr *sim.Trajectory, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t [s]"
	p.Y.Label.Text = "x [um]"
	p.Add(plotter.NewGrid())

	times := tr.Times()
	for i := 0; i < tr.Particles(); i++ {
		x := tr.Positions(i)
		pts := make(plotter.XYs, len(x))
		for j := range x {
			pts[j].X = times[j]
			pts[j].Y = x[j]
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("particle %d: %w", i+1, err)
		}
		line.LineStyle.Width = vg.Points(1)
		line.LineStyle.Color = particleColors[i%len(particleColors)]
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("x%d", i+1), line)
	}
	p.Legend.Top = true
	return p, nil
}

// WritePNG encodes the positions figure as an 8x4 inch PNG.
func WritePNG(w io.Writer, tr *sim.Trajectory, title string) error {
	p, err := PositionsPlot(tr, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

func SavePNG(path string, tr *sim.Trajectory, title string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	if err := WritePNG(f, tr, title); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
