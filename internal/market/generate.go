package market

import (
	"fmt"
	"strings"

	"dexscan/internal/model"
	"dexscan/internal/rng"
)

// HistoryLen is the fixed number of points in every token's PriceHistory.
const HistoryLen = 24

// Dexes are assigned round-robin alongside chains.
var Dexes = []string{"Uniswap", "Raydium", "PancakeSwap", "Aerodrome", "Camelot"}

// AgeBuckets are the display ages a seeded token can be given.
var AgeBuckets = []string{"2m", "15m", "1h", "4h", "12h", "1d", "3d", "7d", "14d", "30d"}

// Generate creates one token per catalog entry. Draws are taken from src in a
// fixed order per token, so a seeded source reproduces the same set.
func Generate(catalog Catalog, src rng.Source) []model.Token {
	tokens := make([]model.Token, len(catalog))
	for i, l := range catalog {
		// (0, 0.01]: price must stay strictly positive.
		basePrice := 0.01 * (1 - src.Float64())

		history := make([]float64, HistoryLen)
		for j := range history {
			history[j] = basePrice * rng.Uniform(src, 0.8, 1.2)
		}

		tokens[i] = model.Token{
			ID:             fmt.Sprintf("%s-%d", strings.ToLower(l.Symbol), i),
			Symbol:         l.Symbol,
			Name:           l.Name,
			Price:          basePrice,
			PriceChange5m:  rng.Uniform(src, -10, 10),
			PriceChange1h:  rng.Uniform(src, -20, 20),
			PriceChange6h:  rng.Uniform(src, -40, 40),
			PriceChange24h: rng.Uniform(src, -50, 50),
			Volume24h:      rng.Uniform(src, 0, 10_000_000),
			Liquidity:      rng.Uniform(src, 0, 5_000_000),
			MarketCap:      rng.Uniform(src, 0, 50_000_000),
			Txns24h:        rng.Floor(src, 50_000),
			Buys24h:        rng.Floor(src, 25_000),
			Sells24h:       rng.Floor(src, 25_000),
			Makers:         rng.Floor(src, 5_000),
			Age:            AgeBuckets[rng.Floor(src, len(AgeBuckets))],
			Chain:          model.Chains[i%len(model.Chains)],
			Dex:            Dexes[i%len(Dexes)],
			PriceHistory:   history,
		}
	}
	return tokens
}

// ApplyTick mutates every token in place with one simulated feed update.
// Only price, 5m change, 24h volume and 24h txns move; every other field is
// left as it was.
func ApplyTick(tokens []model.Token, src rng.Source) {
	for i := range tokens {
		t := &tokens[i]
		t.Price *= rng.Uniform(src, 0.995, 1.005)
		t.PriceChange5m += rng.Uniform(src, -1, 1)
		t.Volume24h *= rng.Uniform(src, 0.99, 1.01)
		t.Txns24h += rng.Floor(src, 10)
	}
}
