// Package viz provides the live terminal view of a closed-loop IPC run.
//
// [Model] is a Bubble Tea model that steps a sim.Simulator in real time,
// draws the rotor on a braille [Canvas] and plots the fixed-frame moments
// with asciigraph.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset simulator and rotor parameters
//	Tab   - Select rotor parameter
//	↑/↓   - Tune selected parameter by ±5%
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
