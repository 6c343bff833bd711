// Package analysis inspects recorded IPC runs.
//
//   - [Spectrum]: amplitude spectrum of a signal, for spotting residual 1P
//     and 3P content in the blade or fixed-frame moments
//   - [DominantFrequency]: the strongest non-DC component
//   - [ResultLocus], [NewLocus]: the (My_out, Mz_out) trajectory drawn against the shared
//     saturation circle
//
// # Example
//
//	freqs, amps := analysis.Spectrum(res.Column(ipc.SignalMy), cfg.Dt)
//	f := analysis.DominantFrequency(res.Column(ipc.SignalDeltaPitch1), cfg.Dt)
//	fmt.Print(analysis.ResultLocus(res).ASCII(60, 30))
package analysis
