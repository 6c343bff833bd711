package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/pitchctl/internal/ipc"
	"github.com/san-kum/pitchctl/internal/sim"
)

// Locus is the trajectory of the two loop outputs in the fixed frame
// together with the largest saturation radius seen.
type Locus struct {
	Points []struct{ X, Y float64 }
	Radius float64
}

// NewLocus pairs the My_out and Mz_out histories. limit is the max_increment
// history; its peak magnitude becomes the drawn circle.
func NewLocus(my, mz, limit []float64) *Locus {
	n := len(my)
	if len(mz) < n {
		n = len(mz)
	}
	l := &Locus{Points: make([]struct{ X, Y float64 }, 0, n)}
	for i := 0; i < n; i++ {
		l.Points = append(l.Points, struct{ X, Y float64 }{X: my[i], Y: mz[i]})
	}
	for _, v := range limit {
		l.Radius = math.Max(l.Radius, math.Abs(v))
	}
	return l
}

// ResultLocus collects the locus of a run still in memory.
func ResultLocus(res *sim.Result) *Locus {
	return NewLocus(res.Column(ipc.SignalMyOutput), res.Column(ipc.SignalMzOutput), res.Column(ipc.SignalMaxIncrement))
}

// ASCII renders the locus with the saturation circle and the axes. The plot
// is square in data units and always contains the circle.
func (l *Locus) ASCII(width, height int) string {
	if l == nil || len(l.Points) == 0 || width < 3 || height < 3 {
		return ""
	}

	r := l.Radius
	for _, p := range l.Points {
		r = math.Max(r, math.Max(math.Abs(p.X), math.Abs(p.Y)))
	}
	if r == 0 {
		r = 1
	}
	r *= 1.1

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	toCell := func(x, y float64) (int, int) {
		col := int(math.Round((x + r) / (2 * r) * float64(width-1)))
		row := height - 1 - int(math.Round((y+r)/(2*r)*float64(height-1)))
		return row, col
	}
	put := func(row, col int, c rune) {
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = c
		}
	}

	row0, col0 := toCell(0, 0)
	for col := 0; col < width; col++ {
		put(row0, col, '─')
	}
	for row := 0; row < height; row++ {
		put(row, col0, '│')
	}
	put(row0, col0, '┼')

	if l.Radius > 0 {
		steps := 4 * (width + height)
		for i := 0; i < steps; i++ {
			a := 2 * math.Pi * float64(i) / float64(steps)
			row, col := toCell(l.Radius*math.Cos(a), l.Radius*math.Sin(a))
			put(row, col, '·')
		}
	}

	for _, p := range l.Points {
		row, col := toCell(p.X, p.Y)
		put(row, col, '•')
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
