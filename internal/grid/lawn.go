// Lawn growth using layered simplex noise.
// Each grass cell carries a length in [0,1]; some patches grow faster than
// others, which is what gives gardeners uneven work.
package grid

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Lawn tracks grass length per cell alongside a Grid.
type Lawn struct {
	width, height int
	length        []float64
	growth        []float64 // per-cell growth multiplier, 0.5–1.5
}

// NewLawn seeds an initial grass field. Seed 0 picks a random seed.
func NewLawn(width, height int, seed int64) *Lawn {
	if seed == 0 {
		seed = rand.Int63()
	}
	lengthNoise := opensimplex.NewNormalized(seed)
	growthNoise := opensimplex.NewNormalized(seed + 1)

	l := &Lawn{
		width:  width,
		height: height,
		length: make([]float64, width*height),
		growth: make([]float64, width*height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			fx, fy := float64(x), float64(y)
			l.length[i] = octaveNoise(lengthNoise, fx, fy, 3, 0.12, 0.5) * 0.6
			l.growth[i] = 0.5 + octaveNoise(growthNoise, fx, fy, 2, 0.08, 0.5)
		}
	}
	return l
}

// octaveNoise samples multi-octave normalized noise in [0,1].
func octaveNoise(n opensimplex.Noise, x, y float64, octaves int, freq, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxAmp := 0.0
	for i := 0; i < octaves; i++ {
		total += n.Eval2(x*freq, y*freq) * amplitude
		maxAmp += amplitude
		amplitude *= persistence
		freq *= 2
	}
	return total / maxAmp
}

func (l *Lawn) index(p Point) (int, bool) {
	if p.X < 0 || p.Y < 0 || p.X >= l.width || p.Y >= l.height {
		return 0, false
	}
	return p.Y*l.width + p.X, true
}

// Length returns the grass length at p (0 out of bounds).
func (l *Lawn) Length(p Point) float64 {
	i, ok := l.index(p)
	if !ok {
		return 0
	}
	return l.length[i]
}

// Mow cuts the grass at p and reports whether there was anything to cut.
func (l *Lawn) Mow(p Point) bool {
	i, ok := l.index(p)
	if !ok || l.length[i] == 0 {
		return false
	}
	l.length[i] = 0
	return true
}

// Grow lengthens grass on every grass cell of g by dt*rate, scaled per cell.
func (l *Lawn) Grow(g *Grid, dt, rate float64) {
	g.ForEach(func(p Point, t TileType) {
		if t != TileGrass {
			return
		}
		i, ok := l.index(p)
		if !ok {
			return
		}
		v := l.length[i] + dt*rate*l.growth[i]
		if v > 1 {
			v = 1
		}
		l.length[i] = v
	})
}

// Average returns the mean grass length over the grass cells of g.
func (l *Lawn) Average(g *Grid) float64 {
	total, n := 0.0, 0
	g.ForEach(func(p Point, t TileType) {
		if t != TileGrass {
			return
		}
		total += l.Length(p)
		n++
	})
	if n == 0 {
		return 0
	}
	return total / float64(n)
}
