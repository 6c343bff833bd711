package ipc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/san-kum/pitchctl/internal/control"
)

// Loop is a saturating control loop. Update must return a value within
// [lo, hi] and advance the loop's own state.
type Loop interface {
	Name() string
	Update(setpoint, measurement, lo, hi float64) float64
	Lookup(name string) (float64, error)
}

// Tunable is a loop whose gains can be changed between cycles.
type Tunable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Inputs are supplied fresh every cycle. Angles are in degrees.
type Inputs struct {
	Azimuth            float64
	CollectivePitch    float64
	MinPitch           float64
	MaxPitch           float64
	RootMoments        [3]r3.Vector
	DemandMy           float64
	DemandMz           float64
	MaxIndividualPitch float64
	PitchBiasY         float64
	PitchBiasZ         float64
}

// Outputs holds the blade pitch commands in degrees.
type Outputs struct {
	Pitch [3]float64
}

type Block struct {
	offsets [3]float64
	my, mz  Loop

	moment       r3.Vector
	myOut, mzOut float64
	correction   r3.Vector
	dpitch       [3]float64

	maxIncrement float64
	boundZ       float64
	boundY       float64
}

// New builds a block with two SaturatedPI loops. A loop that rejects its
// configuration is reported as a *ConfigError naming LoopMy or LoopMz.
func New(cfg Config) (*Block, error) {
	my, err := control.New(cfg.MyControl)
	if err != nil {
		return nil, &ConfigError{Loop: LoopMy, Wrapped: err}
	}
	mz, err := control.New(cfg.MzControl)
	if err != nil {
		return nil, &ConfigError{Loop: LoopMz, Wrapped: err}
	}
	return NewWithLoops(cfg, my, mz), nil
}

// NewWithLoops builds a block around caller-supplied loops. The loop fields
// of cfg are ignored.
func NewWithLoops(cfg Config, my, mz Loop) *Block {
	return &Block{
		offsets: bladeOffsets(cfg.AzimuthOffset, cfg.BladeOrder),
		my:      my,
		mz:      mz,
	}
}

// Step runs one control cycle. It never fails.
func (b *Block) Step(in Inputs) Outputs {
	moment, axes := toFixedFrame(in.Azimuth, b.offsets, in.RootMoments)
	b.moment = moment
	b.correction = b.allocate(in)
	return b.blend(in.CollectivePitch, b.correction, axes)
}

// Offsets returns the blade azimuth offsets in radians.
func (b *Block) Offsets() [3]float64 {
	return b.offsets
}

// Reset clears the published signals and the previous-cycle Mz output, and
// resets any loop that has a Reset method.
func (b *Block) Reset() {
	*b = Block{offsets: b.offsets, my: b.my, mz: b.mz}
	for _, l := range []Loop{b.my, b.mz} {
		if r, ok := l.(interface{ Reset() }); ok {
			r.Reset()
		}
	}
}

// LoopParams returns the gains of every Tunable loop keyed
// "<loop name>><gain>". With duplicate loop names the My loop wins.
func (b *Block) LoopParams() map[string]float64 {
	out := make(map[string]float64)
	for _, l := range []Loop{b.my, b.mz} {
		t, ok := l.(Tunable)
		if !ok {
			continue
		}
		for k, v := range t.GetParams() {
			key := l.Name() + BlockSeparator + k
			if _, dup := out[key]; !dup {
				out[key] = v
			}
		}
	}
	return out
}

// LoopParamNames returns the keys of LoopParams sorted.
func (b *Block) LoopParamNames() []string {
	params := b.LoopParams()
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetLoopParam sets a gain addressed as "<loop name>><gain>", resolving the
// loop the same way Lookup does.
func (b *Block) SetLoopParam(name string, value float64) error {
	prefix, sub, found := strings.Cut(name, BlockSeparator)
	if !found {
		return &LookupError{Name: name, Wrapped: ErrUnknownSignal}
	}
	for _, l := range []Loop{b.my, b.mz} {
		if l.Name() != prefix {
			continue
		}
		t, ok := l.(Tunable)
		if !ok {
			return &LookupError{Name: name, Wrapped: fmt.Errorf("%w: loop is not tunable", ErrUnknownBlock)}
		}
		if err := t.SetParam(sub, value); err != nil {
			return &LookupError{Name: name, Wrapped: fmt.Errorf("%w: %w", ErrUnknownBlock, err)}
		}
		return nil
	}
	return &LookupError{Name: name, Wrapped: ErrUnknownBlock}
}
