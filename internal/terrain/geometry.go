package terrain

import "math"

// KeyFor returns the cell containing the world point (x, y). Cell centres
// sit at Origin + index*Resolution.
func (c Config) KeyFor(x, y float64) Key {
	return Key{
		Row: int(math.Floor((y-c.OriginY)/c.Resolution + 0.5)),
		Col: int(math.Floor((x-c.OriginX)/c.Resolution + 0.5)),
	}
}

// Center returns the world coordinates of the centre of k.
func (c Config) Center(k Key) (x, y float64) {
	return c.OriginX + float64(k.Col)*c.Resolution, c.OriginY + float64(k.Row)*c.Resolution
}

// Trace lists the cells crossed by the segment (x0,y0)-(x1,y1) in travel
// order, starting with the cell containing the start point.
func (c Config) Trace(x0, y0, x1, y1 float64) []Key {
	length := math.Hypot(x1-x0, y1-y0)
	step := c.Resolution / 4
	n := int(math.Ceil(length / step))
	if n < 1 {
		n = 1
	}

	keys := make([]Key, 0, n/2+2)
	seen := make(map[Key]struct{}, n/2+2)
	for i := 0; i <= n; i++ {
		f := float64(i) / float64(n)
		k := c.KeyFor(x0+f*(x1-x0), y0+f*(y1-y0))
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// Neighbors4 returns the edge-adjacent cells of k.
func Neighbors4(k Key) [4]Key {
	return [4]Key{
		{Row: k.Row - 1, Col: k.Col},
		{Row: k.Row + 1, Col: k.Col},
		{Row: k.Row, Col: k.Col - 1},
		{Row: k.Row, Col: k.Col + 1},
	}
}
