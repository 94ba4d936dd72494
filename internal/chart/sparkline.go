// Package chart turns price sequences into plot geometry: the compact row
// sparkline and the synthesized detail chart.
package chart

import (
	"strconv"
	"strings"
)

// Sparkline box: 60 wide, 20 tall, values spread over the bottom 18 units.
const (
	SparkWidth  = 60.0
	SparkHeight = 20.0
	SparkInset  = 18.0
)

// Point is one vertex in plot space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Extrema returns min, max and the normalization range of values. Range falls
// back to 1 when every value is equal. An empty slice yields (0, 0, 1).
func Extrema(values []float64) (min, max, span float64) {
	if len(values) == 0 {
		return 0, 0, 1
	}
	min, max = values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	span = max - min
	if span == 0 {
		span = 1
	}
	return min, max, span
}

// xAt spreads index i of n points over [0, width]. A lone point sits at 0.
func xAt(i, n int, width float64) float64 {
	if n < 2 {
		return 0
	}
	return float64(i) / float64(n-1) * width
}

// Spark is the row mini-chart geometry.
type Spark struct {
	Points []Point `json:"points"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Sparkline maps values into the default sparkline box.
func Sparkline(values []float64) Spark {
	return SparklineIn(values, SparkWidth, SparkHeight, SparkInset)
}

// SparklineIn maps values into a width x height box, y growing downwards,
// with the value range spread over inset units from the bottom edge.
func SparklineIn(values []float64, width, height, inset float64) Spark {
	min, max, span := Extrema(values)
	pts := make([]Point, len(values))
	for i, v := range values {
		pts[i] = Point{
			X: xAt(i, len(values), width),
			Y: height - (v-min)/span*inset,
		}
	}
	return Spark{Points: pts, Min: min, Max: max}
}

// Polyline renders the points as an SVG polyline "points" attribute.
func (s Spark) Polyline() string {
	var b strings.Builder
	for i, p := range s.Points {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(coord(p.X))
		b.WriteByte(',')
		b.WriteString(coord(p.Y))
	}
	return b.String()
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
