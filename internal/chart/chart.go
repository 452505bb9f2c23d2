// Package chart draws the price series as SVG or PNG.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"

	"quotechart/internal/series"
)

// ErrEmpty is returned when there is nothing to plot.
var ErrEmpty = errors.New("chart: series is empty")

type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

// ContentType is the HTTP media type of f.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Options describe the fixed parts of the chart.
type Options struct {
	Title  string
	XLabel string
	YLabel string
	Width  int
	Height int

	// Fixed y range, used when AutoRange is false.
	YMin  float64
	YMax  float64
	YStep float64

	AutoRange bool
}

// Render draws snap in the given format.
func Render(snap series.Snapshot, f Format, opts Options) ([]byte, error) {
	if len(snap.Points) == 0 {
		return nil, ErrEmpty
	}

	xs := make([]float64, len(snap.Points))
	ys := make([]float64, len(snap.Points))
	for i, p := range snap.Points {
		xs[i] = float64(p.Index)
		ys[i] = p.Value
	}

	c := gochart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Name:           opts.XLabel,
			Range:          &gochart.ContinuousRange{Min: 0, Max: float64(snap.Summary.LastIndex + 1)},
			ValueFormatter: formatIndex,
		},
		YAxis: yAxis(snap.Summary, opts),
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name: snap.Name,
				Style: gochart.Style{
					StrokeWidth: 2,
					DotWidth:    3,
				},
				XValues: xs,
				YValues: ys,
			},
		},
	}

	var buf bytes.Buffer
	if err := c.Render(rendererFor(f), &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", f, err)
	}
	return buf.Bytes(), nil
}

func rendererFor(f Format) gochart.RendererProvider {
	if f == PNG {
		return gochart.PNG
	}
	return gochart.SVG
}

func yAxis(sum series.Summary, opts Options) gochart.YAxis {
	ax := gochart.YAxis{
		Name:           opts.YLabel,
		ValueFormatter: formatPrice,
	}
	if opts.AutoRange || opts.YMax <= opts.YMin {
		lo, hi := sum.Range(0.05)
		ax.Range = &gochart.ContinuousRange{Min: lo, Max: hi}
		return ax
	}
	ax.Range = &gochart.ContinuousRange{Min: opts.YMin, Max: opts.YMax}
	ax.Ticks = ticks(opts.YMin, opts.YMax, opts.YStep)
	return ax
}

// ticks lays out labels from lo to hi every step. A missing or too fine step
// leaves tick placement to the library.
func ticks(lo, hi, step float64) []gochart.Tick {
	if step <= 0 || (hi-lo)/step > 200 {
		return nil
	}
	n := int(math.Round((hi - lo) / step))
	out := make([]gochart.Tick, 0, n+1)
	for i := 0; i <= n; i++ {
		v := lo + float64(i)*step
		out = append(out, gochart.Tick{Value: v, Label: formatPrice(v)})
	}
	return out
}

func formatIndex(v any) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f", f)
	}
	return ""
}

func formatPrice(v any) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.2f", f)
	}
	return ""
}
