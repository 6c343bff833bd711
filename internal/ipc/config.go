package ipc

import (
	"time"

	"github.com/san-kum/pitchctl/internal/control"
)

const (
	DefaultMyLoopName = "My control"
	DefaultMzLoopName = "Mz control"
	DefaultSampleTime = 10 * time.Millisecond
)

// Which loop a ConfigError refers to.
const (
	LoopMy = "my"
	LoopMz = "mz"
)

type Config struct {
	// AzimuthOffset is added to every blade's azimuth, in degrees.
	AzimuthOffset float64 `yaml:"azimuth_offset"`
	// BladeOrder sets the blade spacing to BladeOrder·120°. -1 reverses
	// the blade numbering.
	BladeOrder int            `yaml:"blade_order"`
	MyControl  control.Config `yaml:"my_control"`
	MzControl  control.Config `yaml:"mz_control"`
}

func DefaultConfig() Config {
	return Config{
		AzimuthOffset: 0,
		BladeOrder:    1,
		MyControl: control.Config{
			Name:       DefaultMyLoopName,
			Kp:         5e-4,
			Ki:         5e-3,
			SampleTime: DefaultSampleTime,
		},
		MzControl: control.Config{
			Name:       DefaultMzLoopName,
			Kp:         5e-4,
			Ki:         5e-3,
			SampleTime: DefaultSampleTime,
		},
	}
}
