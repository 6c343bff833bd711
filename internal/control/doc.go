// Package control provides the saturated feedback loops driven by the pitch
// controller.
//
// [SaturatedPI] wraps a [pid.Controller] with per-call output limits and
// conditional-integration anti-windup:
//
//	loop, err := control.New(control.Config{Name: "My control", Kp: 1e-3, Ki: 5e-3, SampleTime: 10 * time.Millisecond})
//	u := loop.Update(setpoint, measurement, -limit, limit)
//
// Loop internals are exposed by name through [SaturatedPI.Lookup] for
// telemetry.
package control
