package ipc

import (
	"fmt"
	"strings"
)

// Signal identifies a value published by the block after each Step.
type Signal int

const (
	SignalMy Signal = iota
	SignalMz
	SignalMyOutput
	SignalMzOutput
	SignalPitchY
	SignalPitchZ
	SignalDeltaPitch1
	SignalDeltaPitch2
	SignalDeltaPitch3
	SignalMaxIncrement
	SignalBoundZ
	SignalBoundY
	numSignals
)

// BlockSeparator splits "<loop name>><loop signal>" lookups.
const BlockSeparator = ">"

var signalNames = [numSignals]string{
	SignalMy:           "My",
	SignalMz:           "Mz",
	SignalMyOutput:     "My_out",
	SignalMzOutput:     "Mz_out",
	SignalPitchY:       "pitch_y",
	SignalPitchZ:       "pitch_z",
	SignalDeltaPitch1:  "dpitch_1",
	SignalDeltaPitch2:  "dpitch_2",
	SignalDeltaPitch3:  "dpitch_3",
	SignalMaxIncrement: "max_increment",
	SignalBoundZ:       "bound_z",
	SignalBoundY:       "bound_y",
}

func (s Signal) String() string {
	if s < 0 || s >= numSignals {
		return fmt.Sprintf("Signal(%d)", int(s))
	}
	return signalNames[s]
}

// ParseSignal maps a direct signal name to its identifier.
func ParseSignal(name string) (Signal, bool) {
	for i, n := range signalNames {
		if n == name {
			return Signal(i), true
		}
	}
	return 0, false
}

// Signals lists every direct signal in publication order.
func Signals() []Signal {
	out := make([]Signal, numSignals)
	for i := range out {
		out[i] = Signal(i)
	}
	return out
}

// Signal returns the last computed value of s, or 0 for an unknown s.
func (b *Block) Signal(s Signal) float64 {
	switch s {
	case SignalMy:
		return b.moment.Y
	case SignalMz:
		return b.moment.Z
	case SignalMyOutput:
		return b.myOut
	case SignalMzOutput:
		return b.mzOut
	case SignalPitchY:
		return b.correction.Y
	case SignalPitchZ:
		return b.correction.Z
	case SignalDeltaPitch1:
		return b.dpitch[0]
	case SignalDeltaPitch2:
		return b.dpitch[1]
	case SignalDeltaPitch3:
		return b.dpitch[2]
	case SignalMaxIncrement:
		return b.maxIncrement
	case SignalBoundZ:
		return b.boundZ
	case SignalBoundY:
		return b.boundY
	}
	return 0
}

// Lookup resolves a direct signal name, or forwards "<loop>><signal>" to the
// loop with that exact name. Failures are *LookupError wrapping
// ErrUnknownSignal or ErrUnknownBlock.
func (b *Block) Lookup(name string) (float64, error) {
	if s, ok := ParseSignal(name); ok {
		return b.Signal(s), nil
	}

	prefix, sub, found := strings.Cut(name, BlockSeparator)
	if !found {
		return 0, &LookupError{Name: name, Wrapped: ErrUnknownSignal}
	}

	for _, l := range []Loop{b.my, b.mz} {
		if l.Name() != prefix {
			continue
		}
		v, err := l.Lookup(sub)
		if err != nil {
			return 0, &LookupError{Name: name, Wrapped: fmt.Errorf("%w: %w", ErrUnknownBlock, err)}
		}
		return v, nil
	}
	return 0, &LookupError{Name: name, Wrapped: ErrUnknownBlock}
}

// LoopNames returns the names of the My and Mz loops.
func (b *Block) LoopNames() [2]string {
	return [2]string{b.my.Name(), b.mz.Name()}
}
