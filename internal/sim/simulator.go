package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/golang/glog"
	"github.com/san-kum/pitchctl/internal/ipc"
	"github.com/san-kum/pitchctl/internal/physics"
	"github.com/san-kum/pitchctl/internal/vote"
)

// Simulator closes the loop between an ipc.Block and a physics.Rotor. The
// controller never sees the true azimuth: it integrates the speed voted
// from three noisy sensors.
type Simulator struct {
	block     *ipc.Block
	rotor     *physics.Rotor
	metrics   []Metric
	observers []Observer

	voter    *vote.Voter
	sensors  vote.Config
	rng      *rand.Rand
	seed     int64
	t        float64
	pitch    [3]float64
	speed    float64
	estAz    float64
	startAz  float64
	noQuorum bool
	primed   bool
}

func New(block *ipc.Block, rotor *physics.Rotor) *Simulator {
	return &Simulator{
		block:     block,
		rotor:     rotor,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		startAz:   rotor.Azimuth(),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Block() *ipc.Block     { return s.block }
func (s *Simulator) Rotor() *physics.Rotor { return s.rotor }
func (s *Simulator) Time() float64         { return s.t }

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	s.Reset()

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	names := make([]string, 0, len(ipc.Signals()))
	for _, sig := range ipc.Signals() {
		names = append(names, sig.String())
	}
	result := &Result{
		Times:   make([]float64, 0, steps),
		Azimuth: make([]float64, 0, steps),
		Pitch:   make([][3]float64, 0, steps),
		Names:   names,
		Signals: make([][]float64, 0, steps),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		sample, err := s.Step(cfg)
		if err != nil {
			return result, err
		}
		if !sample.Quorum {
			result.QuorumLost++
		}

		if invalid(sample.Pitch) {
			return result, SimError{Time: sample.Time, Step: i, Message: "non-finite pitch command"}
		}

		result.StepsTaken++
		result.Times = append(result.Times, sample.Time)
		result.Azimuth = append(result.Azimuth, sample.Azimuth)
		result.Pitch = append(result.Pitch, sample.Pitch)
		result.Signals = append(result.Signals, sample.Signals)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	if result.QuorumLost > 0 {
		glog.Warningf("speed voter had no quorum on %d of %d steps", result.QuorumLost, result.StepsTaken)
	}

	return result, nil
}

// Step advances the closed loop by one tick of cfg.Dt. Moments are computed
// from the pitch commanded on the previous tick.
func (s *Simulator) Step(cfg Config) (Sample, error) {
	if cfg.Dt <= 0 {
		return Sample{}, fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if err := s.prime(cfg); err != nil {
		return Sample{}, err
	}

	speed, err := s.voter.Update(s.readings(cfg.Sensors))
	quorum := err == nil
	if quorum {
		s.speed = speed
		if s.noQuorum {
			glog.Infof("t=%.3f: speed voter regained quorum", s.t)
		}
	} else if !s.noQuorum {
		glog.Warningf("t=%.3f: %v, holding %.3f rpm", s.t, err, s.speed)
	}
	s.noQuorum = !quorum

	var dpitch [3]float64
	for i := range dpitch {
		dpitch[i] = s.pitch[i] - cfg.Collective
	}

	out := s.block.Step(ipc.Inputs{
		Azimuth:            s.estAz,
		CollectivePitch:    cfg.Collective,
		MinPitch:           cfg.MinPitch,
		MaxPitch:           cfg.MaxPitch,
		RootMoments:        s.rotor.Moments(dpitch),
		DemandMy:           cfg.DemandMy,
		DemandMz:           cfg.DemandMz,
		MaxIndividualPitch: cfg.MaxIndividualPitch,
		PitchBiasY:         cfg.BiasY,
		PitchBiasZ:         cfg.BiasZ,
	})

	sample := Sample{
		Time:             s.t,
		Azimuth:          s.rotor.Azimuth(),
		EstimatedAzimuth: s.estAz,
		Speed:            s.speed,
		Quorum:           quorum,
		Pitch:            out.Pitch,
		Signals:          make([]float64, 0, len(ipc.Signals())),
	}
	for _, sig := range ipc.Signals() {
		sample.Signals = append(sample.Signals, s.block.Signal(sig))
	}

	for _, m := range s.metrics {
		m.Observe(sample)
	}
	for _, obs := range s.observers {
		obs.OnStep(sample)
	}

	s.pitch = out.Pitch
	s.rotor.Advance(cfg.Dt)
	s.estAz = math.Mod(s.estAz+s.speed*6*cfg.Dt, 360)
	s.t += cfg.Dt

	return sample, nil
}

// Reset returns the rotor to its starting azimuth and clears the block,
// the voter and the time. The noise sequence restarts on the next Step.
func (s *Simulator) Reset() {
	s.block.Reset()
	s.rotor.SetAzimuth(s.startAz)
	s.voter = nil
	s.primed = false
	s.noQuorum = false
	s.t = 0
}

// prime lazily builds the voter and the noise source, and rebuilds the voter
// whenever the sensor thresholds change.
func (s *Simulator) prime(cfg Config) error {
	vc := cfg.Sensors.voteConfig()
	if s.voter == nil || vc != s.sensors {
		v, err := vote.New(vc)
		if err != nil {
			return fmt.Errorf("speed sensors: %w", err)
		}
		s.voter = v
		s.sensors = vc
	}
	if !s.primed || cfg.Seed != s.seed {
		s.rng = rand.New(rand.NewSource(cfg.Seed))
		s.seed = cfg.Seed
	}
	if !s.primed {
		s.speed = s.rotor.Speed
		s.estAz = s.rotor.Azimuth()
		for i := range s.pitch {
			s.pitch[i] = cfg.Collective
		}
		s.primed = true
	}
	return nil
}

func (s *Simulator) readings(cfg Sensors) [3]float64 {
	var r [3]float64
	for i := range r {
		r[i] = s.rotor.Speed + s.rng.NormFloat64()*cfg.Noise
	}
	if f := cfg.Fault; f != nil && f.Sensor >= 0 && f.Sensor < len(r) && s.t >= f.Time {
		r[f.Sensor] = f.Value
	}
	return r
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Sensors.Noise < 0 {
		return fmt.Errorf("sensor noise must not be negative, got %f", cfg.Sensors.Noise)
	}
	if err := cfg.Sensors.voteConfig().Validate(); err != nil {
		return fmt.Errorf("speed sensors: %w", err)
	}
	return nil
}

func invalid(p [3]float64) bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
