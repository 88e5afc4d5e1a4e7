package mission_test

import (
	"context"
	"errors"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/lunarover/internal/energy"
	"github.com/san-kum/lunarover/internal/mission"
	"github.com/san-kum/lunarover/internal/perception"
	"github.com/san-kum/lunarover/internal/planner"
	"github.com/san-kum/lunarover/internal/rover"
	"github.com/san-kum/lunarover/internal/terrain"
)

var everywhere = terrain.Region{MinRow: -1000, MinCol: -1000, MaxRow: 1000, MaxCol: 1000}

var _ = Describe("Clock", func() {
	It("starts at zero and exhausts at the limit", func() {
		c := mission.NewClock(2)
		Expect(c.Tick()).To(BeZero())
		Expect(c.Exhausted()).To(BeFalse())
		c.Advance()
		c.Advance()
		Expect(c.Tick()).To(Equal(uint64(2)))
		Expect(c.Exhausted()).To(BeTrue())
	})
})

var _ = Describe("Fault", func() {
	It("unwraps to the underlying error", func() {
		f := &mission.Fault{Kind: mission.ActuationRejected, Tick: 4, Err: mission.ErrActuationRejected}
		Expect(errors.Is(f, mission.ErrActuationRejected)).To(BeTrue())
		Expect(f.Error()).To(ContainSubstring("actuation_rejected"))
	})

	It("treats only energy underflow as fatal", func() {
		Expect(mission.EnergyUnderflow.Fatal()).To(BeTrue())
		Expect(mission.Stuck.Fatal()).To(BeFalse())
		Expect(mission.SensorFault.Fatal()).To(BeFalse())
	})
})

var _ = Describe("Driver", func() {
	var (
		ctx context.Context
		cfg setup
		sim *worldSim
	)

	BeforeEach(func() {
		ctx = context.Background()
		cfg = defaultSetup()
		sim = newWorldSim()
	})

	mustBuild := func() built {
		b, err := build(cfg, sim)
		Expect(err).NotTo(HaveOccurred())
		return b
	}

	It("rejects missing dependencies", func() {
		_, err := mission.New(mission.Deps{Config: mission.DefaultConfig()})
		Expect(err).To(HaveOccurred())
	})

	Context("exploring flat terrain with unlimited energy", func() {
		var (
			res     *mission.Result
			counter *tickCounter
			b       built
		)

		BeforeEach(func() {
			b = mustBuild()
			counter = &tickCounter{}
			b.driver.AddObserver(counter)

			var err error
			res, err = b.driver.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
		})

		It("covers the target and parks at the safe zone", func() {
			Expect(res.Reason).To(Equal(mission.ReasonParked))
			Expect(res.Phase).To(Equal(planner.Parked))
			Expect(res.Coverage).To(BeNumerically(">=", cfg.planner.CoverageTarget))
			Expect(res.Pose.DistanceTo(0, 0)).To(BeNumerically("<=", cfg.planner.SafeZone.Tolerance))

			last := res.Records[len(res.Records)-1]
			Expect(last.Action.Kind).To(Equal(rover.Park))
			Expect(counter.n).To(Equal(len(res.Records)))
		})

		It("never leaves the return phase once entered", func() {
			returned := false
			for _, rec := range res.Records {
				if rec.Phase == planner.Return {
					if !returned {
						Expect(rec.Coverage).To(BeNumerically(">=", cfg.planner.CoverageTarget))
					}
					returned = true
				}
				if returned {
					Expect(rec.Phase).To(BeElementOf(planner.Return, planner.Parked))
				}
			}
			Expect(returned).To(BeTrue())
		})

		It("only executes candidates under the hazard ceiling", func() {
			for _, rec := range res.Records {
				if rec.Action.Moves() {
					Expect(rec.Hazard).To(BeNumerically("<=", rec.Ceiling), "tick %d", rec.Tick)
				}
			}
		})

		It("charges each tick exactly once", func() {
			prev := cfg.energy.Initial
			sum := 0.0
			for _, rec := range res.Records {
				Expect(rec.Remaining).To(BeNumerically("<=", prev))
				prev = rec.Remaining
				sum += rec.Cost
			}
			Expect(res.Energy.Used).To(BeNumerically("~", sum, 1e-6))
			Expect(sim.actions).To(HaveLen(len(res.Records)))
		})

		It("refuses to step a finished mission", func() {
			_, err := b.driver.Step(ctx)
			Expect(err).To(MatchError(mission.ErrFinished))
		})
	})

	Context("when the budget falls below the return reserve", func() {
		BeforeEach(func() {
			// Park cost from 30 m is 90, so the hard reserve is 135.
			cfg.planner.SafeZone = planner.SafeZone{X: 30, Y: 0, Tolerance: 0.75}
			cfg.energy.Capacity = 1000
			cfg.energy.Initial = 136
			cfg.terrain.Boundary = terrain.Region{MinRow: -5, MinCol: -5, MaxRow: 5, MaxCol: 35}
			sim.fixedCost = 20
		})

		It("forces the return phase and heads for the safe zone", func() {
			b := mustBuild()

			first, err := b.driver.Step(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Policy).To(Equal(energy.Conserve))
			Expect(first.Phase).To(Equal(planner.ConserveExplore))

			second, err := b.driver.Step(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Policy).To(Equal(energy.ReturnOnly))
			Expect(second.Phase).To(Equal(planner.Return))

			dec := second.Decision
			Expect(dec).NotTo(BeNil())
			Expect(dec.Chosen).To(BeNumerically(">=", 0))
			chosen := dec.Candidates[dec.Chosen]
			Expect(chosen.End.DistanceTo(30, 0)).To(BeNumerically("<", second.Pose.DistanceTo(30, 0)))
			for _, c := range dec.Candidates {
				if c.Eligible {
					Expect(chosen.Cost + chosen.CostToGo).To(BeNumerically("<=", c.Cost+c.CostToGo+1e-9))
				}
			}
		})
	})

	Context("when an actuation exceeds the remaining budget", func() {
		BeforeEach(func() {
			cfg.planner.SafeZone = planner.SafeZone{X: 30, Y: 0, Tolerance: 0.75}
			cfg.energy.Capacity = 100
			cfg.energy.Initial = 5
			sim.fixedCost = 20
		})

		It("drains the budget and halts further actuation", func() {
			b := mustBuild()
			res, err := b.driver.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Reason).To(Equal(mission.ReasonEnergyUnderflow))
			Expect(res.Phase).To(Equal(planner.Parked))
			Expect(res.Energy.Remaining).To(BeZero())
			Expect(res.Ticks).To(Equal(uint64(1)))
			Expect(sim.actions).To(HaveLen(1))
			Expect(res.Records[0].HasFault(mission.EnergyUnderflow)).To(BeTrue())
		})
	})

	Context("when every candidate is hazardous", func() {
		BeforeEach(func() {
			sim.cues = []perception.ObstacleCue{{Radius: 4, Confidence: 0.95}}
		})

		It("relaxes the ceiling and then parks", func() {
			b := mustBuild()
			res, err := b.driver.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Reason).To(Equal(mission.ReasonStuck))
			Expect(res.Phase).To(Equal(planner.Parked))
			Expect(res.Records).To(HaveLen(cfg.planner.MaxStuckRetries))

			ceilings := []float64{0.6, 0.7, 0.8}
			for i, rec := range res.Records {
				Expect(rec.HasFault(mission.Stuck)).To(BeTrue())
				Expect(rec.Ceiling).To(BeNumerically("~", ceilings[i], 1e-9))
				Expect(rec.Rejected).To(Equal(rec.Candidates))
			}
			Expect(res.Records[0].Action.Kind).To(Equal(rover.Halt))
			Expect(res.Records[2].Action.Kind).To(Equal(rover.Park))
			Expect(sim.actions[len(sim.actions)-1].Kind).To(Equal(rover.Park))
		})
	})

	Context("when a frame is malformed", func() {
		BeforeEach(func() {
			sim.badFrames[3] = true
		})

		It("keeps the map and pose and carries on", func() {
			b := mustBuild()
			for i := 0; i < 3; i++ {
				_, err := b.driver.Step(ctx)
				Expect(err).NotTo(HaveOccurred())
			}
			before := b.driver.Map().Query(everywhere)

			rec, err := b.driver.Step(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.HasFault(mission.SensorFault)).To(BeTrue())
			Expect(rec.HasTelemetry).To(BeFalse())
			Expect(b.driver.Clock().Tick()).To(Equal(uint64(4)))
			Expect(b.driver.Finished()).To(BeFalse())

			after := b.driver.Map().Query(everywhere)
			Expect(after.Version()).To(Equal(before.Version()))
			Expect(cmp.Diff(before.Cells(), after.Cells())).To(BeEmpty())

			// the next valid frame carries the motion from both ticks
			rec, err = b.driver.Step(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Faults).To(BeEmpty())
			Expect(rec.HasTelemetry).To(BeTrue())
			Expect(rec.BatteryDrift).To(BeNumerically("~", 100-(rec.Remaining+rec.Cost), 1e-9))
			Expect(rec.Pose.X).To(BeNumerically("~", sim.observed.X, 1e-9))
			Expect(rec.Pose.Y).To(BeNumerically("~", sim.observed.Y, 1e-9))
			Expect(b.driver.Map().Version()).To(BeNumerically(">", before.Version()))
		})
	})

	Context("when the simulation rejects an action", func() {
		BeforeEach(func() {
			sim.rejects[1] = true
		})

		It("records the fault and still charges the cost", func() {
			b := mustBuild()
			_, err := b.driver.Step(ctx)
			Expect(err).NotTo(HaveOccurred())
			rec, err := b.driver.Step(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(rec.Executed).To(BeFalse())
			Expect(rec.HasFault(mission.ActuationRejected)).To(BeTrue())
			Expect(rec.Cost).To(BeNumerically(">", 0))
			Expect(b.energy.State().Used).To(BeNumerically(">=", rec.Cost))
		})
	})

	Context("with a short clock", func() {
		BeforeEach(func() {
			cfg.mission.MaxTicks = 3
			cfg.planner.CoverageTarget = 1
		})

		It("ends when the clock is exhausted", func() {
			b := mustBuild()
			res, err := b.driver.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Reason).To(Equal(mission.ReasonClockExhausted))
			Expect(res.Ticks).To(Equal(uint64(3)))
			Expect(res.Phase).To(Equal(planner.Explore))
		})
	})

	It("stops on a canceled context", func() {
		b := mustBuild()
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		res, err := b.driver.Run(cctx)
		Expect(err).To(MatchError(context.Canceled))
		Expect(res.Reason).To(Equal(mission.ReasonCanceled))
		Expect(res.Ticks).To(BeZero())
		Expect(sim.actions).To(BeEmpty())
	})
})
