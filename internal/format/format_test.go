package format

import "testing"

func TestNumber(t *testing.T) {
	cases := []struct {
		v        float64
		decimals int
		want     string
	}{
		{1_500_000, 2, "1.50M"},
		{999, 2, "999.00"},
		{2_500_000_000, 2, "2.50B"},
		{1_234.5, 2, "1.23K"},
		{12_345, 0, "12K"},
		{0, 2, "0.00"},
		{-1_500, 2, "-1500.00"},
		{1_000, 1, "1.0K"},
	}
	for _, tc := range cases {
		if got := Number(tc.v, tc.decimals); got != tc.want {
			t.Errorf("Number(%v, %d) = %q, want %q", tc.v, tc.decimals, got, tc.want)
		}
	}
	if got := Compact(42_000_000); got != "42.00M" {
		t.Errorf("Compact = %q", got)
	}
	if got := Count(4_321); got != "4K" {
		t.Errorf("Count = %q", got)
	}
}

func TestRowPrice(t *testing.T) {
	cases := map[float64]string{
		0.000003: "3.00e-6",
		0.005:    "0.005000",
		0.5:      "0.5000",
		12.25:    "12.25",
	}
	for v, want := range cases {
		if got := RowPrice(v); got != want {
			t.Errorf("RowPrice(%v) = %q, want %q", v, got, want)
		}
	}
}

func TestDetailPrice(t *testing.T) {
	cases := map[float64]string{
		0.000003: "3.0000e-6",
		0.005:    "0.00500000",
		0.5:      "0.500000",
		12.25:    "12.2500",
	}
	for v, want := range cases {
		if got := DetailPrice(v); got != want {
			t.Errorf("DetailPrice(%v) = %q, want %q", v, got, want)
		}
	}
}

func TestPricePrecisionDiffersByContext(t *testing.T) {
	if RowPrice(0.5) == DetailPrice(0.5) {
		t.Fatal("row and detail price formats must differ")
	}
}

func TestChange(t *testing.T) {
	cases := []struct {
		got, want string
	}{
		{RowChange(3.21), "+3.2%"},
		{RowChange(-0.47), "-0.5%"},
		{RowChange(0), "+0.0%"},
		{DetailChange(-12.345), "-12.35%"},
		{DetailChange(7), "+7.00%"},
	}
	for i, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("case %d: got %q, want %q", i, tc.got, tc.want)
		}
	}
}

func TestExponential(t *testing.T) {
	cases := map[float64]string{
		0.000003:  "3.00e-6",
		1.5e-10:   "1.50e-10",
		0:         "0.00e+0",
		123456789: "1.23e+8",
	}
	for v, want := range cases {
		if got := exponential(v, 2); got != want {
			t.Errorf("exponential(%v) = %q, want %q", v, got, want)
		}
	}
}
