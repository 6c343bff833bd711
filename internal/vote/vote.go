// Package vote selects one value from three redundant sensors.
//
// Every sensor pair is compared with hysteresis: a pair starts disagreeing
// when its difference exceeds Threshold and only agrees again once the
// difference falls below Threshold-Hysteresis. A sensor that disagrees with
// both others is faulty.
package vote

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrInvalidConfig = errors.New("vote: invalid config")
	ErrNoQuorum      = errors.New("vote: no two sensors agree")
)

type Config struct {
	Threshold  float64 `yaml:"threshold"`
	Hysteresis float64 `yaml:"hysteresis"`
}

func (c Config) Validate() error {
	if !(c.Threshold > 0) {
		return fmt.Errorf("%w: threshold must be positive, got %v", ErrInvalidConfig, c.Threshold)
	}
	if !(c.Hysteresis >= 0 && c.Hysteresis < c.Threshold) {
		return fmt.Errorf("%w: hysteresis must be in [0, threshold), got %v", ErrInvalidConfig, c.Hysteresis)
	}
	return nil
}

var pairs = [3][2]int{{0, 1}, {0, 2}, {1, 2}}

type Voter struct {
	cfg      Config
	disagree [3]bool
}

func New(cfg Config) (*Voter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Voter{cfg: cfg}, nil
}

// Update compares the three readings and returns the voted value: the median
// when all agree, the mean of the healthy pair when one sensor is faulty.
func (v *Voter) Update(x [3]float64) (float64, error) {
	release := v.cfg.Threshold - v.cfg.Hysteresis
	for p, ij := range pairs {
		d := math.Abs(x[ij[0]] - x[ij[1]])
		switch {
		case math.IsNaN(d):
			v.disagree[p] = true
		case v.disagree[p]:
			v.disagree[p] = d >= release
		default:
			v.disagree[p] = d > v.cfg.Threshold
		}
	}

	faulty := v.Faulty()
	healthy := make([]float64, 0, 3)
	for i, f := range faulty {
		if !f {
			healthy = append(healthy, x[i])
		}
	}

	switch len(healthy) {
	case 3:
		sort.Float64s(healthy)
		return healthy[1], nil
	case 2:
		return (healthy[0] + healthy[1]) / 2, nil
	}
	return math.NaN(), ErrNoQuorum
}

// Faulty reports which sensors disagree with both others.
func (v *Voter) Faulty() [3]bool {
	var f [3]bool
	for i := range f {
		n := 0
		for p, ij := range pairs {
			if (ij[0] == i || ij[1] == i) && v.disagree[p] {
				n++
			}
		}
		f[i] = n == 2
	}
	return f
}

func (v *Voter) Reset() {
	v.disagree = [3]bool{}
}
