package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/pitchctl/internal/ipc"
	"github.com/san-kum/pitchctl/internal/sim"
)

func tone(n int, dt, f, amp, offset float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = offset + amp*math.Sin(2*math.Pi*f*float64(i)*dt)
	}
	return x
}

func TestNextPow2(t *testing.T) {
	tests := []struct{ in, want int }{{1, 1}, {2, 2}, {3, 4}, {1000, 1024}, {1024, 1024}}
	for _, tt := range tests {
		if got := nextPow2(tt.in); got != tt.want {
			t.Errorf("nextPow2(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSpectrumOnBin(t *testing.T) {
	const (
		n  = 1024
		dt = 0.01
	)
	f := 50 / (n * dt)
	freqs, amps := Spectrum(tone(n, dt, f, 3, 100), dt)

	if len(freqs) != n/2+1 {
		t.Fatalf("expected %d bins, got %d", n/2+1, len(freqs))
	}
	if math.Abs(freqs[50]-f) > 1e-9 {
		t.Errorf("bin 50 at %f, want %f", freqs[50], f)
	}
	if math.Abs(amps[50]-3) > 1e-6 {
		t.Errorf("expected amplitude 3, got %f", amps[50])
	}
	if amps[0] > 1e-6 {
		t.Errorf("mean not removed: %f", amps[0])
	}
}

func TestDominantFrequency(t *testing.T) {
	const dt = 0.01
	x := tone(1000, dt, 0.2, 1, 0)
	y := tone(1000, dt, 3, 0.1, 0)
	for i := range x {
		x[i] += y[i]
	}

	got := DominantFrequency(x, dt)
	if math.Abs(got-0.2) > 0.11 {
		t.Errorf("expected ~0.2 Hz, got %f", got)
	}
	if a := AmplitudeAt(x, dt, 3); a < 0.03 {
		t.Errorf("3 Hz component lost: %f", a)
	}
}

func TestWindowedSpectrum(t *testing.T) {
	const dt = 0.01
	freqs, amps := WindowedSpectrum(tone(1000, dt, 5.3, 1, 2), dt)
	k := 0
	for i := range amps {
		if amps[i] > amps[k] {
			k = i
		}
	}
	if math.Abs(freqs[k]-5.3) > 0.1 {
		t.Errorf("windowed peak at %f, want ~5.3", freqs[k])
	}
}

func TestWindowedSpectrumAmplitude(t *testing.T) {
	const (
		n  = 1024
		dt = 0.01
	)
	f := 50 / (n * dt)
	x := tone(n, dt, f, 3, 100)

	_, plain := Spectrum(x, dt)
	_, windowed := WindowedSpectrum(x, dt)
	if math.Abs(windowed[50]-plain[50]) > 0.05*plain[50] {
		t.Errorf("windowed amplitude %f, plain %f: coherent gain not corrected", windowed[50], plain[50])
	}
	if math.Abs(windowed[50]-3) > 0.1 {
		t.Errorf("expected ~3, got %f", windowed[50])
	}

	if f, a := WindowedSpectrum([]float64{1}, dt); f != nil || a != nil {
		t.Error("expected nil for a single sample")
	}
}

func TestLocusNegativeLimit(t *testing.T) {
	l := NewLocus([]float64{1}, []float64{0}, []float64{-3, -2})
	if l.Radius != 3 {
		t.Errorf("expected radius 3, got %f", l.Radius)
	}
}

func TestSpectrumDegenerate(t *testing.T) {
	if f, a := Spectrum([]float64{1}, 0.1); f != nil || a != nil {
		t.Error("expected nil for a single sample")
	}
	if DominantFrequency(nil, 0.1) != 0 {
		t.Error("expected 0 for no data")
	}
}

func TestLocusASCII(t *testing.T) {
	res := &sim.Result{}
	for i := 0; i < 20; i++ {
		row := make([]float64, len(ipc.Signals()))
		a := float64(i) / 20 * math.Pi
		row[ipc.SignalMyOutput] = 2 * math.Cos(a)
		row[ipc.SignalMzOutput] = 2 * math.Sin(a)
		row[ipc.SignalMaxIncrement] = 3
		res.Signals = append(res.Signals, row)
	}

	l := ResultLocus(res)
	if len(l.Points) != 20 {
		t.Fatalf("expected 20 points, got %d", len(l.Points))
	}
	if l.Radius != 3 {
		t.Errorf("expected radius 3, got %f", l.Radius)
	}

	out := l.ASCII(41, 21)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 21 {
		t.Fatalf("expected 21 rows, got %d", len(lines))
	}
	for _, c := range []string{"•", "·", "┼"} {
		if !strings.Contains(out, c) {
			t.Errorf("missing %q in plot", c)
		}
	}

	if (&Locus{}).ASCII(10, 10) != "" {
		t.Error("expected empty plot for empty locus")
	}
}
