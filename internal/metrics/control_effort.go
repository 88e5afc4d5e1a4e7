package metrics

import (
	"math"

	"github.com/san-kum/lunarover/internal/mission"
)

// TurnEffort is the mean absolute heading change commanded per tick.
type TurnEffort struct {
	name    string
	sum     float64
	samples int
}

func NewTurnEffort() *TurnEffort {
	return &TurnEffort{
		name: "turn_effort",
	}
}

func (c *TurnEffort) Name() string {
	return c.name
}

func (c *TurnEffort) Observe(rec mission.TickRecord) {
	c.sum += math.Abs(rec.Action.Turn)
	c.samples++
}

func (c *TurnEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *TurnEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
