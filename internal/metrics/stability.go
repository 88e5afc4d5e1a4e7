package metrics

import "github.com/san-kum/lunarover/internal/mission"

// FaultFree is the fraction of ticks that raised no fault.
type FaultFree struct {
	name    string
	faulted int
	samples int
}

func NewFaultFree() *FaultFree {
	return &FaultFree{
		name: "fault_free",
	}
}

func (s *FaultFree) Name() string {
	return s.name
}

func (s *FaultFree) Observe(rec mission.TickRecord) {
	s.samples++
	if len(rec.Faults) > 0 {
		s.faulted++
	}
}

func (s *FaultFree) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.faulted)/float64(s.samples)
}

func (s *FaultFree) Reset() {
	s.faulted = 0
	s.samples = 0
}

// RejectionRate is the share of enumerated candidates the hazard gate
// turned away.
type RejectionRate struct {
	name       string
	rejected   int
	candidates int
}

func NewRejectionRate() *RejectionRate {
	return &RejectionRate{name: "rejection_rate"}
}

func (r *RejectionRate) Name() string { return r.name }

func (r *RejectionRate) Observe(rec mission.TickRecord) {
	r.rejected += rec.Rejected
	r.candidates += rec.Candidates
}

func (r *RejectionRate) Value() float64 {
	if r.candidates == 0 {
		return 0
	}
	return float64(r.rejected) / float64(r.candidates)
}

func (r *RejectionRate) Reset() {
	r.rejected = 0
	r.candidates = 0
}

// PeakHazard is the highest hazard score of any executed candidate.
type PeakHazard struct {
	name string
	peak float64
}

func NewPeakHazard() *PeakHazard { return &PeakHazard{name: "peak_hazard"} }

func (p *PeakHazard) Name() string { return p.name }

func (p *PeakHazard) Observe(rec mission.TickRecord) {
	if rec.Executed && rec.Hazard > p.peak {
		p.peak = rec.Hazard
	}
}

func (p *PeakHazard) Value() float64 { return p.peak }

func (p *PeakHazard) Reset() { p.peak = 0 }
