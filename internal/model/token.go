package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Chain identifies the network an instrument trades on.
type Chain string

const (
	ChainETH  Chain = "ETH"
	ChainSOL  Chain = "SOL"
	ChainBSC  Chain = "BSC"
	ChainBASE Chain = "BASE"
	ChainARB  Chain = "ARB"

	// ChainAll is the filter value that matches every chain.
	ChainAll Chain = "all"
)

// Chains lists the supported networks in round-robin assignment order.
var Chains = []Chain{ChainETH, ChainSOL, ChainBSC, ChainBASE, ChainARB}

// ChainNames maps each network to its display name.
var ChainNames = map[Chain]string{
	ChainAll:  "All Chains",
	ChainETH:  "Ethereum",
	ChainSOL:  "Solana",
	ChainBSC:  "BNB Chain",
	ChainBASE: "Base",
	ChainARB:  "Arbitrum",
}

// ErrUnknownChain is returned when a chain filter is not "all" or a supported network.
var ErrUnknownChain = errors.New("unknown chain")

// ParseChain accepts "all" or one of the supported networks, case-insensitively.
func ParseChain(s string) (Chain, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(ChainAll)) {
		return ChainAll, nil
	}
	for _, c := range Chains {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", ErrUnknownChain
}

// Token is one tracked market instrument.
// Identity and classification fields never change after creation; market state
// is mutated by ticks.
type Token struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`

	Chain Chain  `json:"chain"`
	Dex   string `json:"dex"`
	Age   string `json:"age"`

	Price          float64 `json:"price"`
	PriceChange5m  float64 `json:"priceChange5m"`
	PriceChange1h  float64 `json:"priceChange1h"`
	PriceChange6h  float64 `json:"priceChange6h"`
	PriceChange24h float64 `json:"priceChange24h"`
	Volume24h      float64 `json:"volume24h"`
	Liquidity      float64 `json:"liquidity"`
	MarketCap      float64 `json:"marketCap"`
	Txns24h        int64   `json:"txns24h"`
	Buys24h        int64   `json:"buys24h"`
	Sells24h       int64   `json:"sells24h"`
	Makers         int64   `json:"makers"`

	// PriceHistory feeds the sparkline only; its length is fixed at creation.
	PriceHistory []float64 `json:"priceHistory"`
}

// Clone returns a deep copy of the token.
func (t *Token) Clone() Token {
	cp := *t
	cp.PriceHistory = make([]float64, len(t.PriceHistory))
	copy(cp.PriceHistory, t.PriceHistory)
	return cp
}

// Snapshot is an immutable copy of the whole store taken after a tick.
// Seq is 0 for the seed state and increments once per tick.
type Snapshot struct {
	Seq    int64     `json:"seq"`
	TS     time.Time `json:"ts"`
	Tokens []Token   `json:"tokens"`
}

// Find returns the token with the given id.
func (s *Snapshot) Find(id string) (Token, bool) {
	for i := range s.Tokens {
		if s.Tokens[i].ID == id {
			return s.Tokens[i], true
		}
	}
	return Token{}, false
}

// JSON returns the JSON-encoded snapshot (ignoring errors for hot-path usage).
func (s *Snapshot) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}
