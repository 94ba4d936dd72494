package screener

import (
	"testing"

	"dexscan/internal/market"
	"dexscan/internal/model"
	"dexscan/internal/rng"
)

func seeded(t *testing.T) []model.Token {
	t.Helper()
	return market.NewStore(market.DefaultCatalog(), rng.New(2024)).Snapshot().Tokens
}

func TestDeriveView_ChainFilterDefaultSort(t *testing.T) {
	tokens := seeded(t)
	intent := model.DefaultIntent()
	intent.Chain = model.ChainSOL

	view := DeriveView(tokens, intent)

	want := 0
	for _, tok := range tokens {
		if tok.Chain == model.ChainSOL {
			want++
		}
	}
	if len(view) != want || want != 4 {
		t.Fatalf("SOL view has %d records, want %d (of 20)", len(view), want)
	}
	for i, tok := range view {
		if tok.Chain != model.ChainSOL {
			t.Errorf("view[%d] is on %s", i, tok.Chain)
		}
		if i > 0 && view[i-1].Volume24h < tok.Volume24h {
			t.Errorf("volume not descending at %d: %v < %v", i, view[i-1].Volume24h, tok.Volume24h)
		}
	}
}

func TestDeriveView_Search(t *testing.T) {
	tokens := seeded(t)
	intent := model.DefaultIntent()

	cases := []struct {
		query string
		want  []string
	}{
		{"pepe", []string{"PEPE"}},
		{"DOG", []string{"DOGE", "WIF"}}, // Dogecoin, dogwifhat
		{"meme", []string{"MEME", "BOME"}},
		{"zzzz", nil},
	}
	for _, tc := range cases {
		intent.Search = tc.query
		view := DeriveView(tokens, intent)
		got := make(map[string]bool)
		for _, tok := range view {
			got[tok.Symbol] = true
		}
		if len(got) != len(tc.want) {
			t.Errorf("%q: got %v, want %v", tc.query, got, tc.want)
			continue
		}
		for _, s := range tc.want {
			if !got[s] {
				t.Errorf("%q: missing %s in %v", tc.query, s, got)
			}
		}
	}
}

func TestDeriveView_EverySortField(t *testing.T) {
	tokens := seeded(t)
	for _, f := range model.SortFields() {
		for _, o := range []model.SortOrder{model.Desc, model.Asc} {
			intent := model.DefaultIntent()
			intent.SortField, intent.SortOrder = f, o
			view := DeriveView(tokens, intent)
			if len(view) != len(tokens) {
				t.Fatalf("%s/%s dropped records", f, o)
			}
			for i := 1; i < len(view); i++ {
				a, b := f.Value(&view[i-1]), f.Value(&view[i])
				if o == model.Desc && a < b {
					t.Errorf("%s desc broken at %d: %v < %v", f, i, a, b)
				}
				if o == model.Asc && a > b {
					t.Errorf("%s asc broken at %d: %v > %v", f, i, a, b)
				}
			}
		}
	}
}

func TestDeriveView_StableTies(t *testing.T) {
	tokens := []model.Token{
		{ID: "a", Chain: model.ChainETH, Volume24h: 5},
		{ID: "b", Chain: model.ChainETH, Volume24h: 7},
		{ID: "c", Chain: model.ChainETH, Volume24h: 5},
		{ID: "d", Chain: model.ChainETH, Volume24h: 5},
	}
	for _, o := range []model.SortOrder{model.Desc, model.Asc} {
		intent := model.DefaultIntent()
		intent.SortOrder = o
		view := DeriveView(tokens, intent)
		var ties []string
		for _, tok := range view {
			if tok.Volume24h == 5 {
				ties = append(ties, tok.ID)
			}
		}
		if len(ties) != 3 || ties[0] != "a" || ties[1] != "c" || ties[2] != "d" {
			t.Errorf("%s: tie order %v, want [a c d]", o, ties)
		}
	}
}

func TestDeriveView_DoesNotMutateInput(t *testing.T) {
	tokens := seeded(t)
	first := tokens[0].ID
	intent := model.DefaultIntent()
	intent.SortOrder = model.Asc
	_ = DeriveView(tokens, intent)
	if tokens[0].ID != first {
		t.Error("DeriveView reordered its input")
	}
}

func TestDeriveView_Empty(t *testing.T) {
	if v := DeriveView(nil, model.DefaultIntent()); len(v) != 0 {
		t.Errorf("expected empty view, got %d", len(v))
	}
}

func TestTrending(t *testing.T) {
	tokens := seeded(t)
	tr := Trending(tokens, 0)
	if len(tr) != DefaultTrendingCount {
		t.Fatalf("len = %d, want %d", len(tr), DefaultTrendingCount)
	}
	for i := range tr {
		if tr[i].ID != tokens[i].ID {
			t.Errorf("trending[%d] = %s, want store order %s", i, tr[i].ID, tokens[i].ID)
		}
	}
	if got := Trending(tokens[:3], 8); len(got) != 3 {
		t.Errorf("short input: len = %d", len(got))
	}
}
