// Package export renders stored runs as standalone SVG documents.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/pitchctl/internal/analysis"
)

const background = "#0a0a0a"

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

func path(sb *strings.Builder, xs, ys []float64, stroke string) {
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, stroke)
	for i := range xs {
		if i == 0 {
			fmt.Fprintf(sb, "M%.1f,%.1f", xs[i], ys[i])
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", xs[i], ys[i])
		}
	}
	sb.WriteString("\"/>\n")
}

func bounds(v []float64) (lo, hi float64) {
	lo, hi = v[0], v[0]
	for _, x := range v {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return lo - span*0.1, hi + span*0.1
}

// SeriesSVG draws values against times as a single polyline. It returns ""
// when there are fewer than two points.
func SeriesSVG(times, values []float64, width, height int, stroke string) string {
	n := len(values)
	if len(times) < n {
		n = len(times)
	}
	if n < 2 {
		return ""
	}
	times, values = times[:n], values[:n]

	minX, maxX := bounds(times)
	minY, maxY := bounds(values)

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = (times[i] - minX) / (maxX - minX) * float64(width)
		ys[i] = float64(height) - (values[i]-minY)/(maxY-minY)*float64(height)
	}

	var sb strings.Builder
	header(&sb, width, height)
	path(&sb, xs, ys, stroke)
	sb.WriteString("</svg>")
	return sb.String()
}

// LocusSVG draws the loop output locus on square axes centred on the origin,
// with the saturation circle in grey.
func LocusSVG(l *analysis.Locus, size int) string {
	if l == nil || len(l.Points) == 0 {
		return ""
	}

	extent := l.Radius
	for _, p := range l.Points {
		extent = math.Max(extent, math.Max(math.Abs(p.X), math.Abs(p.Y)))
	}
	if extent == 0 {
		extent = 1
	}
	extent *= 1.1

	half := float64(size) / 2
	scale := half / extent

	var sb strings.Builder
	header(&sb, size, size)
	fmt.Fprintf(&sb, `<g stroke="#444444" stroke-width="1">
<line x1="0" y1="%.1f" x2="%d" y2="%.1f"/>
<line x1="%.1f" y1="0" x2="%.1f" y2="%d"/>
</g>
`, half, size, half, half, half, size)
	if l.Radius > 0 {
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="#888888" stroke-dasharray="4 4"/>
`, half, half, l.Radius*scale)
	}

	xs := make([]float64, len(l.Points))
	ys := make([]float64, len(l.Points))
	for i, p := range l.Points {
		xs[i] = half + p.X*scale
		ys[i] = half - p.Y*scale
	}
	path(&sb, xs, ys, "#00ff00")

	last := len(xs) - 1
	fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="#ff5555"/>
`, xs[last], ys[last])
	sb.WriteString("</svg>")
	return sb.String()
}
