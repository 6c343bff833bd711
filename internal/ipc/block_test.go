package ipc_test

import (
	"errors"
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pitchctl/internal/control"
	"github.com/san-kum/pitchctl/internal/ipc"
)

// propLoop is a proportional loop with gain 1 and no state beyond a call
// counter, so block outputs are fully determined by the inputs.
type propLoop struct {
	name   string
	calls  int
	lo, hi float64
}

func (p *propLoop) Name() string { return p.name }

func (p *propLoop) Update(setpoint, measurement, lo, hi float64) float64 {
	p.calls++
	p.lo, p.hi = lo, hi
	return math.Max(lo, math.Min(hi, setpoint-measurement))
}

func (p *propLoop) Lookup(name string) (float64, error) {
	if name == "calls" {
		return float64(p.calls), nil
	}
	return 0, errors.New("propLoop: unknown signal")
}

// onBladeZero puts (0, my, mz) on blade 0 only. At azimuth 0 blade 0 is not
// rotated, so the aggregate moment equals it exactly.
func onBladeZero(my, mz float64) [3]r3.Vector {
	return [3]r3.Vector{{Y: my, Z: mz}, {}, {}}
}

func ample(moments [3]r3.Vector) ipc.Inputs {
	return ipc.Inputs{
		CollectivePitch:    10,
		MinPitch:           -5,
		MaxPitch:           90,
		MaxIndividualPitch: 100,
		RootMoments:        moments,
	}
}

var _ = Describe("Block", func() {
	var (
		my, mz *propLoop
		blk    *ipc.Block
	)

	BeforeEach(func() {
		my = &propLoop{name: ipc.DefaultMyLoopName}
		mz = &propLoop{name: ipc.DefaultMzLoopName}
		blk = ipc.NewWithLoops(ipc.DefaultConfig(), my, mz)
	})

	Describe("construction", func() {
		It("spaces blades by 120° times the blade order", func() {
			cfg := ipc.DefaultConfig()
			cfg.BladeOrder = -1
			cfg.AzimuthOffset = 90
			off := ipc.NewWithLoops(cfg, my, mz).Offsets()
			Expect(off[0]).To(BeNumerically("~", math.Pi/2, 1e-12))
			Expect(off[1]).To(BeNumerically("~", math.Pi/2-2*math.Pi/3, 1e-12))
			Expect(off[2]).To(BeNumerically("~", math.Pi/2-4*math.Pi/3, 1e-12))
		})

		It("reports which loop rejected its config", func() {
			cfg := ipc.DefaultConfig()
			cfg.MzControl.SampleTime = 0
			_, err := ipc.New(cfg)

			var cerr *ipc.ConfigError
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Loop).To(Equal(ipc.LoopMz))
			Expect(err).To(MatchError(control.ErrInvalidConfig))

			cfg = ipc.DefaultConfig()
			cfg.MyControl.Name = ""
			_, err = ipc.New(cfg)
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Loop).To(Equal(ipc.LoopMy))
		})
	})

	Describe("symmetric rotor", func() {
		It("cancels equal moments on blades 120° apart", func() {
			m := r3.Vector{Y: 5}
			out := blk.Step(ample([3]r3.Vector{m, m, m}))

			Expect(blk.Signal(ipc.SignalMy)).To(BeNumerically("~", 0, 1e-12))
			Expect(blk.Signal(ipc.SignalMz)).To(BeNumerically("~", 0, 1e-12))
			Expect(blk.Signal(ipc.SignalMyOutput)).To(BeNumerically("~", 0, 1e-12))
			Expect(blk.Signal(ipc.SignalMzOutput)).To(BeNumerically("~", 0, 1e-12))
			for i := range out.Pitch {
				Expect(out.Pitch[i]).To(BeNumerically("~", 10, 1e-12))
			}
		})
	})

	Describe("single loaded blade", func() {
		It("maps a pure Mz error onto the y pitch axis with inverted sign", func() {
			in := ample([3]r3.Vector{{Y: 10}, {}, {}})
			in.Azimuth = 90
			out := blk.Step(in)

			Expect(blk.Signal(ipc.SignalMz)).To(BeNumerically("~", 10, 1e-12))
			Expect(blk.Signal(ipc.SignalMzOutput)).To(BeNumerically("~", -10, 1e-12))
			Expect(blk.Signal(ipc.SignalPitchY)).To(BeNumerically("~", 10, 1e-12))
			Expect(blk.Signal(ipc.SignalPitchZ)).To(BeNumerically("~", 0, 1e-12))

			Expect(out.Pitch[0]).To(BeNumerically("~", 0, 1e-9))
			Expect(out.Pitch[1]).To(BeNumerically("~", 15, 1e-9))
			Expect(out.Pitch[2]).To(BeNumerically("~", 15, 1e-9))
		})

		It("adds external biases with opposite sign conventions", func() {
			in := ample(onBladeZero(-2, 3))
			in.PitchBiasY = 0.5
			in.PitchBiasZ = 0.25
			blk.Step(in)

			Expect(blk.Signal(ipc.SignalMyOutput)).To(Equal(2.0))
			Expect(blk.Signal(ipc.SignalMzOutput)).To(Equal(-3.0))
			Expect(blk.Signal(ipc.SignalPitchZ)).To(Equal(0.25 + 2.0))
			Expect(blk.Signal(ipc.SignalPitchY)).To(Equal(0.5 + 3.0))
		})
	})

	Describe("saturation envelope", func() {
		It("bounds the My loop by last cycle's Mz output", func() {
			in := ample(onBladeZero(0, 100))
			in.MaxIndividualPitch = 5

			blk.Step(in)
			Expect(blk.Signal(ipc.SignalBoundZ)).To(Equal(5.0))
			Expect(blk.Signal(ipc.SignalMzOutput)).To(Equal(-5.0))

			in.RootMoments = onBladeZero(-100, 0)
			blk.Step(in)
			Expect(blk.Signal(ipc.SignalBoundZ)).To(Equal(0.0))
			Expect(blk.Signal(ipc.SignalMyOutput)).To(Equal(0.0))
			Expect(blk.Signal(ipc.SignalBoundY)).To(Equal(5.0))
			Expect(blk.Signal(ipc.SignalMzOutput)).To(Equal(0.0))

			blk.Step(in)
			Expect(blk.Signal(ipc.SignalBoundZ)).To(Equal(5.0))
			Expect(blk.Signal(ipc.SignalMyOutput)).To(Equal(5.0))
			Expect(blk.Signal(ipc.SignalBoundY)).To(Equal(0.0))
		})

		It("shares the circle between axes within one cycle", func() {
			in := ample(onBladeZero(-3, 100))
			in.MaxIndividualPitch = 5
			blk.Step(in)

			Expect(blk.Signal(ipc.SignalMyOutput)).To(Equal(3.0))
			Expect(blk.Signal(ipc.SignalBoundY)).To(Equal(4.0))
			Expect(blk.Signal(ipc.SignalMzOutput)).To(Equal(-4.0))
		})

		It("forces both loops to zero without pitch margin but still runs them", func() {
			in := ample(onBladeZero(1e4, -1e4))
			in.CollectivePitch, in.MinPitch, in.MaxPitch = 7, 7, 7
			in.DemandMy, in.DemandMz = 50, -50

			for i := 0; i < 3; i++ {
				out := blk.Step(in)
				Expect(out.Pitch).To(Equal([3]float64{7, 7, 7}))
			}
			Expect(blk.Signal(ipc.SignalMaxIncrement)).To(Equal(0.0))
			Expect(blk.Signal(ipc.SignalMyOutput)).To(BeZero())
			Expect(blk.Signal(ipc.SignalMzOutput)).To(BeZero())
			Expect(my.calls).To(Equal(3))
			Expect(mz.calls).To(Equal(3))
		})

		It("uses the magnitude of a negative ceiling as the envelope radius", func() {
			in := ample(onBladeZero(-100, 0))
			in.MinPitch, in.MaxPitch = 0, 90
			in.MaxIndividualPitch = -3
			blk.Step(in)

			Expect(blk.Signal(ipc.SignalMaxIncrement)).To(Equal(-3.0))
			Expect(blk.Signal(ipc.SignalBoundZ)).To(Equal(3.0))
			Expect(blk.Signal(ipc.SignalMyOutput)).To(Equal(3.0))
			Expect(blk.Signal(ipc.SignalBoundY)).To(Equal(0.0))
		})

		It("keeps both outputs inside their bounds every cycle", func() {
			cfg := ipc.DefaultConfig()
			cfg.MyControl.Kp, cfg.MyControl.Ki = 0.05, 0.5
			cfg.MzControl.Kp, cfg.MzControl.Ki = 0.05, 0.5
			withPI, err := ipc.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			rng := rand.New(rand.NewSource(7))
			prevMz := 0.0
			for i := 0; i < 2000; i++ {
				var moments [3]r3.Vector
				for j := range moments {
					moments[j] = r3.Vector{X: rng.NormFloat64() * 50, Y: rng.NormFloat64() * 500, Z: rng.NormFloat64() * 50}
				}
				collective := rng.Float64() * 30
				in := ipc.Inputs{
					Azimuth:            rng.Float64()*720 - 360,
					CollectivePitch:    collective,
					MinPitch:           collective - rng.Float64()*6,
					MaxPitch:           collective + rng.Float64()*6,
					RootMoments:        moments,
					DemandMy:           rng.NormFloat64() * 100,
					DemandMz:           rng.NormFloat64() * 100,
					MaxIndividualPitch: rng.Float64() * 5,
				}
				withPI.Step(in)

				limit := withPI.Signal(ipc.SignalMaxIncrement)
				bz := withPI.Signal(ipc.SignalBoundZ)
				by := withPI.Signal(ipc.SignalBoundY)
				myOut := withPI.Signal(ipc.SignalMyOutput)
				mzOut := withPI.Signal(ipc.SignalMzOutput)

				Expect(bz).To(Equal(math.Sqrt(math.Max(0, limit*limit-prevMz*prevMz))))
				Expect(math.Abs(myOut)).To(BeNumerically("<=", bz))
				Expect(math.Abs(mzOut)).To(BeNumerically("<=", by))
				prevMz = mzOut
			}
		})

		It("does not re-clamp outputs to the pitch limits", func() {
			in := ample([3]r3.Vector{})
			in.CollectivePitch, in.MinPitch, in.MaxPitch = 10, 0, 20
			in.PitchBiasZ = 30
			out := blk.Step(in)

			Expect(out.Pitch[0]).To(BeNumerically("~", 40, 1e-12))
			Expect(out.Pitch[0]).To(BeNumerically(">", in.MaxPitch))
		})
	})

	Describe("signal lookup", func() {
		BeforeEach(func() {
			blk.Step(ample(onBladeZero(4, -6)))
		})

		It("returns direct signals as computed", func() {
			v, err := blk.Lookup("My")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(4.0))
			Expect(v).To(Equal(blk.Signal(ipc.SignalMy)))

			for _, s := range ipc.Signals() {
				v, err := blk.Lookup(s.String())
				Expect(err).NotTo(HaveOccurred())
				Expect(v).To(Equal(blk.Signal(s)))
			}
		})

		It("delegates prefixed names to the matching loop", func() {
			v, err := blk.Lookup("My control>calls")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(1.0))

			v, err = blk.Lookup("Mz control>calls")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(1.0))
		})

		It("rejects unknown names without a separator", func() {
			_, err := blk.Lookup("bogus")
			Expect(err).To(MatchError(ipc.ErrUnknownSignal))

			var lerr *ipc.LookupError
			Expect(errors.As(err, &lerr)).To(BeTrue())
			Expect(lerr.Name).To(Equal("bogus"))
		})

		It("rejects unknown loops and unknown loop signals", func() {
			_, err := blk.Lookup("Pitch control>calls")
			Expect(err).To(MatchError(ipc.ErrUnknownBlock))

			_, err = blk.Lookup("My control>bogus")
			Expect(err).To(MatchError(ipc.ErrUnknownBlock))
			Expect(err).NotTo(MatchError(ipc.ErrUnknownSignal))

			_, err = blk.Lookup("My control")
			Expect(err).To(MatchError(ipc.ErrUnknownSignal))
		})

		It("forwards to SaturatedPI signals", func() {
			withPI, err := ipc.New(ipc.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			withPI.Step(ample(onBladeZero(4, -6)))

			e, err := withPI.Lookup("My control>error")
			Expect(err).NotTo(HaveOccurred())
			Expect(e).To(Equal(-4.0))

			_, err = withPI.Lookup("Mz control>bogus")
			Expect(err).To(MatchError(ipc.ErrUnknownBlock))
			Expect(err).To(MatchError(control.ErrUnknownSignal))
		})
	})

	Describe("loop gains", func() {
		It("lists and sets SaturatedPI gains by prefixed name", func() {
			withPI, err := ipc.New(ipc.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			params := withPI.LoopParams()
			Expect(params).To(HaveKeyWithValue("My control>Kp", 5e-4))
			Expect(params).To(HaveKeyWithValue("Mz control>Ki", 5e-3))
			Expect(withPI.LoopParamNames()).To(HaveLen(6))
			Expect(withPI.LoopParamNames()[0]).To(Equal("My control>Kd"))

			Expect(withPI.SetLoopParam("Mz control>Kp", 1)).To(Succeed())
			Expect(withPI.LoopParams()).To(HaveKeyWithValue("Mz control>Kp", 1.0))
			Expect(withPI.LoopParams()).To(HaveKeyWithValue("My control>Kp", 5e-4))

			withPI.Step(ample(onBladeZero(0, 2)))
			u, err := withPI.Lookup("Mz control>unsaturated")
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(BeNumerically("<", -1.9))
		})

		It("rejects unknown loops, gains and loops without gains", func() {
			withPI, err := ipc.New(ipc.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			Expect(withPI.SetLoopParam("Kp", 1)).To(MatchError(ipc.ErrUnknownSignal))
			Expect(withPI.SetLoopParam("nope>Kp", 1)).To(MatchError(ipc.ErrUnknownBlock))
			Expect(withPI.SetLoopParam("My control>bogus", 1)).To(MatchError(ipc.ErrUnknownBlock))

			Expect(blk.LoopParams()).To(BeEmpty())
			Expect(blk.SetLoopParam(ipc.DefaultMyLoopName+">Kp", 1)).To(MatchError(ipc.ErrUnknownBlock))
		})
	})

	Describe("reset", func() {
		It("clears published signals and loop state", func() {
			withPI, err := ipc.New(ipc.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			withPI.Step(ample(onBladeZero(4, -6)))
			Expect(withPI.Signal(ipc.SignalMy)).NotTo(BeZero())

			withPI.Reset()
			for _, s := range ipc.Signals() {
				Expect(withPI.Signal(s)).To(BeZero(), s.String())
			}
			i, err := withPI.Lookup("My control>integral")
			Expect(err).NotTo(HaveOccurred())
			Expect(i).To(BeZero())
			Expect(withPI.LoopNames()[0]).To(Equal(ipc.DefaultMyLoopName))
		})
	})
})
