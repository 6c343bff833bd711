// Package metrics provides sim.Metric implementations for judging an IPC
// run: residual fixed-frame moments, pitch actuator activity and envelope
// violations.
//
// # Usage
//
//	s := sim.New(blk, rotor)
//	for _, m := range metrics.Standard(2) {
//	    s.AddMetric(m)
//	}
package metrics
