package chart

import (
	"math"
	"testing"

	"dexscan/internal/model"
	"dexscan/internal/rng"
)

func TestExtrema_ConstantSeries(t *testing.T) {
	min, max, r := Extrema([]float64{3, 3, 3})
	if min != 3 || max != 3 || r != 1 {
		t.Errorf("Extrema(constant) = %v %v %v, want 3 3 1", min, max, r)
	}
}

func TestSparkline_Geometry(t *testing.T) {
	s := Sparkline([]float64{1, 3, 2})
	want := []Point{{0, 20}, {30, 2}, {60, 11}}
	if len(s.Points) != len(want) {
		t.Fatalf("got %d points", len(s.Points))
	}
	for i, p := range s.Points {
		if math.Abs(p.X-want[i].X) > 1e-9 || math.Abs(p.Y-want[i].Y) > 1e-9 {
			t.Errorf("point %d = %+v, want %+v", i, p, want[i])
		}
	}
	if got := s.Polyline(); got != "0,20 30,2 60,11" {
		t.Errorf("Polyline = %q", got)
	}
}

func TestSparkline_ConstantIsFlatAtBottom(t *testing.T) {
	s := Sparkline([]float64{5, 5, 5, 5})
	for i, p := range s.Points {
		if p.Y != SparkHeight || math.IsNaN(p.Y) {
			t.Errorf("point %d y = %v, want %v", i, p.Y, SparkHeight)
		}
	}
}

func TestSparkline_Degenerate(t *testing.T) {
	if s := Sparkline(nil); len(s.Points) != 0 || s.Polyline() != "" {
		t.Errorf("empty sparkline = %+v", s)
	}
	s := Sparkline([]float64{7})
	if len(s.Points) != 1 || s.Points[0].X != 0 {
		t.Errorf("single point = %+v", s.Points)
	}
}

func TestNormalize_Bounds(t *testing.T) {
	src := rng.New(9)
	for _, tf := range model.Timeframes {
		d := Normalize(Synthesize(src, 0.0042, tf))
		for i, v := range d.Values {
			if v < d.Min || v > d.Max {
				t.Errorf("%s: value %d (%v) outside [%v,%v]", tf, i, v, d.Min, d.Max)
			}
		}
		for i, p := range d.Path {
			if p.Y < DetailSize-DetailSpread-1e-9 || p.Y > DetailSize+1e-9 {
				t.Errorf("%s: y[%d] = %v outside [10,100]", tf, i, p.Y)
			}
		}
		if d.IsPositive != (d.Values[len(d.Values)-1] > d.Values[0]) {
			t.Errorf("%s: IsPositive mismatch", tf)
		}
	}
}

func TestNormalize_Constant(t *testing.T) {
	d := Normalize([]float64{2, 2, 2})
	if d.Range != 1 {
		t.Errorf("Range = %v, want 1", d.Range)
	}
	if d.IsPositive {
		t.Error("flat series must not be positive")
	}
	for _, p := range d.Path {
		if p.Y != 100 {
			t.Errorf("flat series y = %v, want 100", p.Y)
		}
	}
}

func TestNormalize_IsPositiveStrict(t *testing.T) {
	if Normalize([]float64{1, 5, 1}).IsPositive {
		t.Error("equal endpoints must not be positive")
	}
	if !Normalize([]float64{1, 0.5, 1.0001}).IsPositive {
		t.Error("rising endpoints must be positive")
	}
	if Normalize([]float64{2, 3, 1}).IsPositive {
		t.Error("falling endpoints must not be positive")
	}
}

func TestSynthesize_24H(t *testing.T) {
	const price = 0.00123
	series := Synthesize(rng.New(4), price, model.TF24H)
	if len(series) != 24 {
		t.Fatalf("24H series has %d points", len(series))
	}
	if series[0] != price {
		t.Errorf("series starts at %v, want %v", series[0], price)
	}
	for i := 1; i < len(series); i++ {
		step := series[i] / series[i-1]
		if step < 0.99-1e-12 || step > 1.01+1e-12 {
			t.Errorf("step %d ratio %v outside [0.99,1.01]", i, step)
		}
	}

	d := Normalize(series)
	if d.Path[0].X != 0 || d.Path[len(d.Path)-1].X != 100 {
		t.Errorf("x span = [%v,%v], want [0,100]", d.Path[0].X, d.Path[len(d.Path)-1].X)
	}
}

func TestSynthesize_PointCounts(t *testing.T) {
	want := map[model.Timeframe]int{model.TF5M: 60, model.TF1H: 60, model.TF4H: 48, model.TF24H: 24}
	for tf, n := range want {
		if got := len(Synthesize(rng.New(1), 1, tf)); got != n {
			t.Errorf("%s: %d points, want %d", tf, got, n)
		}
	}
}

func TestDetail_SVG(t *testing.T) {
	d := Normalize([]float64{1, 2})
	if got := d.PathD(); got != "M 0 100 L 100 10" {
		t.Errorf("PathD = %q", got)
	}
	if got := d.AreaD(); got != "M 0 100 L 100 10 L 100 100 L 0 100 Z" {
		t.Errorf("AreaD = %q", got)
	}
	if len(d.Area) != 4 {
		t.Errorf("area has %d vertices, want 4", len(d.Area))
	}
	if Normalize(nil).AreaD() != "" {
		t.Error("empty detail should render no area")
	}
}
