package mission

// Clock is the mission tick counter. Ticks start at zero.
type Clock struct {
	tick  uint64
	limit uint64
}

func NewClock(limit uint64) *Clock { return &Clock{limit: limit} }

func (c *Clock) Tick() uint64 { return c.tick }

func (c *Clock) Limit() uint64 { return c.limit }

func (c *Clock) Advance() { c.tick++ }

func (c *Clock) Exhausted() bool { return c.tick >= c.limit }
