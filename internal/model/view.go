package model

import (
	"errors"
	"fmt"
	"strings"
)

// SortField is a closed set of numeric token attributes the view can be ordered by.
type SortField int

const (
	SortPrice SortField = iota
	SortChange5m
	SortChange1h
	SortChange6h
	SortChange24h
	SortVolume
	SortLiquidity
	SortMarketCap
	SortTxns
	SortBuys
	SortSells
	SortMakers

	numSortFields
)

var sortFieldNames = [numSortFields]string{
	SortPrice:     "price",
	SortChange5m:  "priceChange5m",
	SortChange1h:  "priceChange1h",
	SortChange6h:  "priceChange6h",
	SortChange24h: "priceChange24h",
	SortVolume:    "volume24h",
	SortLiquidity: "liquidity",
	SortMarketCap: "marketCap",
	SortTxns:      "txns24h",
	SortBuys:      "buys24h",
	SortSells:     "sells24h",
	SortMakers:    "makers",
}

var sortFieldAccessors = [numSortFields]func(*Token) float64{
	SortPrice:     func(t *Token) float64 { return t.Price },
	SortChange5m:  func(t *Token) float64 { return t.PriceChange5m },
	SortChange1h:  func(t *Token) float64 { return t.PriceChange1h },
	SortChange6h:  func(t *Token) float64 { return t.PriceChange6h },
	SortChange24h: func(t *Token) float64 { return t.PriceChange24h },
	SortVolume:    func(t *Token) float64 { return t.Volume24h },
	SortLiquidity: func(t *Token) float64 { return t.Liquidity },
	SortMarketCap: func(t *Token) float64 { return t.MarketCap },
	SortTxns:      func(t *Token) float64 { return float64(t.Txns24h) },
	SortBuys:      func(t *Token) float64 { return float64(t.Buys24h) },
	SortSells:     func(t *Token) float64 { return float64(t.Sells24h) },
	SortMakers:    func(t *Token) float64 { return float64(t.Makers) },
}

// ErrUnknownSortField is returned by ParseSortField for names outside the closed set.
var ErrUnknownSortField = errors.New("unknown sort field")

// SortFields returns every sortable field in declaration order.
func SortFields() []SortField {
	out := make([]SortField, 0, numSortFields)
	for f := SortField(0); f < numSortFields; f++ {
		out = append(out, f)
	}
	return out
}

// ParseSortField maps a wire name such as "volume24h" to its SortField.
func ParseSortField(s string) (SortField, error) {
	for f, name := range sortFieldNames {
		if name == s {
			return SortField(f), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSortField, s)
}

// Valid reports whether f is one of the declared fields.
func (f SortField) Valid() bool {
	return f >= 0 && f < numSortFields
}

func (f SortField) String() string {
	if !f.Valid() {
		return fmt.Sprintf("SortField(%d)", int(f))
	}
	return sortFieldNames[f]
}

// Value reads the field from t. An undeclared field is a programming error and panics.
func (f SortField) Value(t *Token) float64 {
	if !f.Valid() {
		panic(fmt.Sprintf("model: sort by undeclared field %d", int(f)))
	}
	return sortFieldAccessors[f](t)
}

// MarshalText implements encoding.TextMarshaler.
func (f SortField) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSortField, int(f))
	}
	return []byte(sortFieldNames[f]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *SortField) UnmarshalText(b []byte) error {
	v, err := ParseSortField(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// SortOrder is the view direction.
type SortOrder string

const (
	Desc SortOrder = "desc"
	Asc  SortOrder = "asc"
)

// ErrUnknownSortOrder is returned for directions other than asc/desc.
var ErrUnknownSortOrder = errors.New("unknown sort order")

// ParseSortOrder accepts "asc" or "desc", case-insensitively.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc":
		return Desc, nil
	case "asc":
		return Asc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSortOrder, s)
}

// Flip returns the opposite direction.
func (o SortOrder) Flip() SortOrder {
	if o == Asc {
		return Desc
	}
	return Asc
}

// Timeframe selects the span of the synthesized detail chart.
type Timeframe string

const (
	TF5M  Timeframe = "5M"
	TF1H  Timeframe = "1H"
	TF4H  Timeframe = "4H"
	TF24H Timeframe = "24H"
)

// Timeframes lists the selectable timeframes in display order.
var Timeframes = []Timeframe{TF5M, TF1H, TF4H, TF24H}

// ErrUnknownTimeframe is returned by ParseTimeframe for labels outside the closed set.
var ErrUnknownTimeframe = errors.New("unknown timeframe")

// ParseTimeframe accepts "5M", "1H", "4H" or "24H", case-insensitively.
func ParseTimeframe(s string) (Timeframe, error) {
	for _, tf := range Timeframes {
		if strings.EqualFold(s, string(tf)) {
			return tf, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTimeframe, s)
}

// Points is the number of values in a detail series for this timeframe.
func (tf Timeframe) Points() int {
	switch tf {
	case TF5M, TF1H:
		return 60
	case TF4H:
		return 48
	case TF24H:
		return 24
	}
	panic(fmt.Sprintf("model: undeclared timeframe %q", string(tf)))
}

// Intent holds the user-controlled view parameters of one session.
type Intent struct {
	Search     string    `json:"search"`
	Chain      Chain     `json:"chain"`
	SortField  SortField `json:"sortField"`
	SortOrder  SortOrder `json:"sortOrder"`
	SelectedID string    `json:"selectedId,omitempty"`
	Timeframe  Timeframe `json:"timeframe"`
}

// DefaultIntent is the state of a fresh session: all chains, volume descending, 1H.
func DefaultIntent() Intent {
	return Intent{
		Chain:     ChainAll,
		SortField: SortVolume,
		SortOrder: Desc,
		Timeframe: TF1H,
	}
}
