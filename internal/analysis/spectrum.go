package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Spectrum returns the single-sided amplitude spectrum of data sampled every
// dt seconds. The mean is removed and the record zero-padded to a power of
// two.
func Spectrum(data []float64, dt float64) (freqs, amps []float64) {
	if len(data) < 2 || dt <= 0 {
		return nil, nil
	}

	x := make([]float64, len(data))
	mean := stat.Mean(data, nil)
	for i, v := range data {
		x[i] = v - mean
	}
	return amplitudes(x, dt, 2/float64(len(data)))
}

// WindowedSpectrum applies a Hann window before transforming. Peaks are
// broader but leakage from off-bin tones is much lower. Amplitudes are
// divided by the window's coherent gain, so a tone reads the same as in
// Spectrum.
func WindowedSpectrum(data []float64, dt float64) (freqs, amps []float64) {
	if len(data) < 2 || dt <= 0 {
		return nil, nil
	}

	win := window.Hann(len(data))
	x := make([]float64, len(data))
	mean := stat.Mean(data, nil)
	for i, v := range data {
		x[i] = (v - mean) * win[i]
	}
	return amplitudes(x, dt, 2/floats.Sum(win))
}

// amplitudes zero-pads x to a power of two and returns |X[k]|·scale for the
// non-negative frequencies, with the DC line halved.
func amplitudes(x []float64, dt, scale float64) (freqs, amps []float64) {
	n := nextPow2(len(x))
	padded := make([]float64, n)
	copy(padded, x)

	X := fft.FFTReal(padded)
	half := n/2 + 1
	freqs = make([]float64, half)
	amps = make([]float64, half)
	for k := 0; k < half; k++ {
		freqs[k] = float64(k) / (float64(n) * dt)
		amps[k] = cmplx.Abs(X[k]) * scale
	}
	amps[0] /= 2
	return freqs, amps
}

// DominantFrequency returns the frequency of the largest non-DC spectral
// line, or 0 if there is none.
func DominantFrequency(data []float64, dt float64) float64 {
	freqs, amps := Spectrum(data, dt)
	if len(amps) < 2 {
		return 0
	}
	return freqs[1+floats.MaxIdx(amps[1:])]
}

// AmplitudeAt returns the spectral amplitude at the bin nearest f.
func AmplitudeAt(data []float64, dt, f float64) float64 {
	freqs, amps := Spectrum(data, dt)
	if len(freqs) < 2 {
		return 0
	}
	k := int(math.Round(f / freqs[1]))
	if k < 0 || k >= len(amps) {
		return 0
	}
	return amps[k]
}
