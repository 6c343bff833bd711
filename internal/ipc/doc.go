// Package ipc implements the individual pitch control block of a
// three-bladed rotor.
//
// Each cycle the block
//
//  1. rotates the three blade root moments from the rotating frame into the
//     fixed frame and sums them ([Block.Step] via the frame transform),
//  2. runs the My and Mz loops inside a shared circular envelope, the My
//     bound using the previous cycle's Mz output,
//  3. projects the fixed-frame pitch correction back onto each blade's pitch
//     axis and adds it to the collective pitch.
//
// The block is not safe for concurrent use. It is driven once per control
// tick by an external scheduler.
//
// # Example
//
//	blk, err := ipc.New(ipc.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	out := blk.Step(in)
//	my, _ := blk.Lookup("My")
package ipc
