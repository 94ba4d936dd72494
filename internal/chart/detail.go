package chart

import (
	"strings"

	"dexscan/internal/model"
	"dexscan/internal/rng"
)

// Volatility is the full width of the per-step multiplicative move; each
// step draws from 1 ± Volatility/2.
const Volatility = 0.02

// Detail chart box is 100x100 with a 10 unit top margin.
const (
	DetailSize   = 100.0
	DetailSpread = 90.0
)

// Synthesize builds a fresh random-walk series of tf.Points() values that
// starts at startPrice.
func Synthesize(src rng.Source, startPrice float64, tf model.Timeframe) []float64 {
	n := tf.Points()
	out := make([]float64, n)
	p := startPrice
	out[0] = p
	for i := 1; i < n; i++ {
		p *= 1 + rng.Uniform(src, -Volatility/2, Volatility/2)
		out[i] = p
	}
	return out
}

// Detail is a normalized detail-chart series with its geometry.
type Detail struct {
	Values     []float64 `json:"values"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	Range      float64   `json:"range"`
	Path       []Point   `json:"path"`
	Area       []Point   `json:"area"`
	IsPositive bool      `json:"isPositive"`
}

// Normalize computes extrema and plot geometry for values. IsPositive is true
// only when the last value is strictly above the first. An empty input yields
// a zero Detail with Range 1.
func Normalize(values []float64) Detail {
	min, max, span := Extrema(values)
	d := Detail{Values: values, Min: min, Max: max, Range: span}
	if len(values) == 0 {
		return d
	}

	d.Path = make([]Point, len(values))
	for i, v := range values {
		d.Path[i] = Point{
			X: xAt(i, len(values), DetailSize),
			Y: DetailSize - (v-min)/span*DetailSpread,
		}
	}
	d.Area = make([]Point, 0, len(d.Path)+2)
	d.Area = append(d.Area, d.Path...)
	d.Area = append(d.Area, Point{DetailSize, DetailSize}, Point{0, DetailSize})
	d.IsPositive = values[len(values)-1] > values[0]
	return d
}

// PathD renders the line as an SVG path "d" attribute.
func (d Detail) PathD() string {
	var b strings.Builder
	for i, p := range d.Path {
		if i == 0 {
			b.WriteString("M ")
		} else {
			b.WriteString(" L ")
		}
		b.WriteString(coord(p.X))
		b.WriteByte(' ')
		b.WriteString(coord(p.Y))
	}
	return b.String()
}

// AreaD renders the fill polygon: the line closed down to the bottom edge.
func (d Detail) AreaD() string {
	if len(d.Path) == 0 {
		return ""
	}
	return d.PathD() + " L 100 100 L 0 100 Z"
}

// Series synthesizes and normalizes a detail chart for t over tf.
func Series(src rng.Source, t *model.Token, tf model.Timeframe) Detail {
	return Normalize(Synthesize(src, t.Price, tf))
}
