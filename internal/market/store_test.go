package market

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dexscan/internal/rng"
)

func TestStore_TickAdvancesSeq(t *testing.T) {
	s := NewStore(DefaultCatalog(), rng.New(1))
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.Now = func() time.Time { return fixed }

	if s.Seq() != 0 {
		t.Fatalf("fresh store seq = %d", s.Seq())
	}
	snap := s.Tick()
	if snap.Seq != 1 || s.Seq() != 1 {
		t.Errorf("seq after one tick: snap=%d store=%d", snap.Seq, s.Seq())
	}
	if !snap.TS.Equal(fixed) {
		t.Errorf("snapshot ts = %v, want %v", snap.TS, fixed)
	}
	if len(snap.Tokens) != s.Len() || s.Len() != 20 {
		t.Errorf("snapshot has %d tokens, store %d", len(snap.Tokens), s.Len())
	}
}

func TestStore_SnapshotIsDetached(t *testing.T) {
	s := NewStore(DefaultCatalog(), rng.New(2))
	snap := s.Snapshot()
	price := snap.Tokens[0].Price
	hist := snap.Tokens[0].PriceHistory[0]

	snap.Tokens[0].Price = -1
	snap.Tokens[0].PriceHistory[0] = -1

	got, ok := s.Get(snap.Tokens[0].ID)
	if !ok {
		t.Fatal("token missing from store")
	}
	if got.Price != price || got.PriceHistory[0] != hist {
		t.Error("mutating a snapshot leaked into the store")
	}

	// Ticks must not rewrite snapshots already handed out.
	before := s.Snapshot()
	s.Tick()
	if before.Tokens[0].Price != price {
		t.Error("tick mutated an earlier snapshot")
	}
}

func TestStore_TicksKeepInvariants(t *testing.T) {
	s := NewStore(DefaultCatalog(), rng.New(11))
	prev := s.Snapshot()
	for n := 0; n < 200; n++ {
		cur := s.Tick()
		for i := range cur.Tokens {
			if cur.Tokens[i].ID != prev.Tokens[i].ID {
				t.Fatalf("tick %d reordered tokens", n)
			}
			if cur.Tokens[i].Price <= 0 {
				t.Fatalf("tick %d: non-positive price for %s", n, cur.Tokens[i].ID)
			}
			if cur.Tokens[i].Txns24h < prev.Tokens[i].Txns24h {
				t.Fatalf("tick %d: txns decreased for %s", n, cur.Tokens[i].ID)
			}
		}
		prev = cur
	}
}

func TestStore_GetUnknown(t *testing.T) {
	s := NewStore(DefaultCatalog(), rng.New(1))
	if _, ok := s.Get("nope-99"); ok {
		t.Error("expected unknown id to miss")
	}
	if _, ok := s.Get("pepe-0"); !ok {
		t.Error("expected pepe-0 to exist")
	}
}

func TestParseCatalog(t *testing.T) {
	good := []byte("tokens:\n  - symbol: AAA\n    name: Alpha\n  - symbol: BBB\n    name: Beta\n")
	c, err := ParseCatalog(good)
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if len(c) != 2 || c[1].Symbol != "BBB" || c[1].Name != "Beta" {
		t.Errorf("unexpected catalog: %+v", c)
	}

	bad := map[string]string{
		"empty":     "tokens: []\n",
		"blank":     "tokens:\n  - symbol: AAA\n    name: \"\"\n",
		"duplicate": "tokens:\n  - symbol: AAA\n    name: A\n  - symbol: aaa\n    name: B\n",
	}
	for name, doc := range bad {
		if _, err := ParseCatalog([]byte(doc)); !errors.Is(err, ErrInvalidCatalog) {
			t.Errorf("%s: expected ErrInvalidCatalog, got %v", name, err)
		}
	}

	if _, err := ParseCatalog([]byte("tokens: [")); err == nil {
		t.Error("expected YAML syntax error")
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("tokens:\n  - symbol: ZZZ\n    name: Zed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	s := NewStore(c, rng.New(1))
	if tok, ok := s.Get("zzz-0"); !ok || tok.Name != "Zed" {
		t.Errorf("store seeded from file: %+v ok=%v", tok, ok)
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaultCatalogValid(t *testing.T) {
	if err := DefaultCatalog().Validate(); err != nil {
		t.Fatal(err)
	}
}
