// Package session holds one viewer's intent and recomputes the derived view
// and chart state against the latest market snapshot.
package session

import (
	"errors"
	"fmt"
	"sync"

	"dexscan/internal/chart"
	"dexscan/internal/model"
	"dexscan/internal/rng"
	"dexscan/internal/screener"
)

// ErrUnknownToken is returned when selecting an id absent from the latest snapshot.
var ErrUnknownToken = errors.New("unknown token")

// Coordinator is the sole owner of a session's intent. Every read derives
// from the most recent snapshot passed to Update. Safe for concurrent use.
type Coordinator struct {
	mu        sync.Mutex
	intent    model.Intent
	snap      model.Snapshot
	src       rng.Source
	trendingN int

	// selected is the record as it was when chosen; the detail series is
	// synthesized from its price.
	selected model.Token
	detail   *chart.Detail
}

// New returns a coordinator with the default intent. src feeds detail-chart
// synthesis; trendingN <= 0 selects the default strip length.
func New(src rng.Source, trendingN int) *Coordinator {
	if src == nil {
		src = rng.NewTimeSeeded()
	}
	return &Coordinator{
		intent:    model.DefaultIntent(),
		src:       src,
		trendingN: trendingN,
	}
}

// Update replaces the snapshot reads derive from. The cached detail series is
// kept: it only changes with selection or timeframe.
func (c *Coordinator) Update(snap model.Snapshot) {
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
}

// Seq returns the sequence number of the snapshot currently held.
func (c *Coordinator) Seq() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.Seq
}

// Intent returns a copy of the current intent.
func (c *Coordinator) Intent() model.Intent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intent
}

func (c *Coordinator) SetSearch(q string) {
	c.mu.Lock()
	c.intent.Search = q
	c.mu.Unlock()
}

// SetChain filters by network; model.ChainAll clears the filter.
func (c *Coordinator) SetChain(ch model.Chain) error {
	parsed, err := model.ParseChain(string(ch))
	if err != nil {
		return fmt.Errorf("set chain %q: %w", ch, err)
	}
	c.mu.Lock()
	c.intent.Chain = parsed
	c.mu.Unlock()
	return nil
}

// SetSort flips the direction when f is already the active field. Otherwise it
// makes f active and resets the direction to descending.
func (c *Coordinator) SetSort(f model.SortField) error {
	if !f.Valid() {
		return fmt.Errorf("set sort: %w", model.ErrUnknownSortField)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.intent.SortField == f {
		c.intent.SortOrder = c.intent.SortOrder.Flip()
		return nil
	}
	c.intent.SortField = f
	c.intent.SortOrder = model.Desc
	return nil
}

// SetOrder sets the direction explicitly without touching the field.
func (c *Coordinator) SetOrder(o model.SortOrder) error {
	if o != model.Asc && o != model.Desc {
		return fmt.Errorf("set order: %w", model.ErrUnknownSortOrder)
	}
	c.mu.Lock()
	c.intent.SortOrder = o
	c.mu.Unlock()
	return nil
}

// SelectToken opens the detail view for id and synthesizes a fresh series.
func (c *Coordinator) SelectToken(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, ok := c.snap.Find(id)
	if !ok {
		return fmt.Errorf("select %q: %w", id, ErrUnknownToken)
	}
	c.intent.SelectedID = id
	c.selected = tok
	c.rebuildDetailLocked()
	return nil
}

// ClearSelection closes the detail view. The timeframe is kept.
func (c *Coordinator) ClearSelection() {
	c.mu.Lock()
	c.intent.SelectedID = ""
	c.selected = model.Token{}
	c.detail = nil
	c.mu.Unlock()
}

// SetTimeframe switches the detail span. With a selection active the series
// is resynthesized; setting the current timeframe again is a no-op.
func (c *Coordinator) SetTimeframe(tf model.Timeframe) error {
	parsed, err := model.ParseTimeframe(string(tf))
	if err != nil {
		return fmt.Errorf("set timeframe: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.intent.Timeframe == parsed {
		return nil
	}
	c.intent.Timeframe = parsed
	if c.intent.SelectedID != "" {
		c.rebuildDetailLocked()
	}
	return nil
}

func (c *Coordinator) rebuildDetailLocked() {
	d := chart.Series(c.src, &c.selected, c.intent.Timeframe)
	c.detail = &d
}

// CurrentView filters and sorts the latest snapshot by the current intent.
func (c *Coordinator) CurrentView() []model.Token {
	c.mu.Lock()
	tokens, intent := c.snap.Tokens, c.intent
	c.mu.Unlock()
	return screener.DeriveView(tokens, intent)
}

// Trending returns the leading records of the latest snapshot, unfiltered.
func (c *Coordinator) Trending() []model.Token {
	c.mu.Lock()
	tokens, n := c.snap.Tokens, c.trendingN
	c.mu.Unlock()
	return screener.Trending(tokens, n)
}

// Selected returns the live record for the current selection, falling back
// to the copy taken at selection time.
func (c *Coordinator) Selected() (model.Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.intent.SelectedID == "" {
		return model.Token{}, false
	}
	if tok, ok := c.snap.Find(c.intent.SelectedID); ok {
		return tok, true
	}
	return c.selected.Clone(), true
}

// Detail returns the cached detail series for the selection.
func (c *Coordinator) Detail() (chart.Detail, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detail == nil {
		return chart.Detail{}, false
	}
	return *c.detail, true
}

// Sparkline returns the row mini-chart for id from the latest snapshot.
func (c *Coordinator) Sparkline(id string) (chart.Spark, error) {
	c.mu.Lock()
	tok, ok := c.snap.Find(id)
	c.mu.Unlock()
	if !ok {
		return chart.Spark{}, fmt.Errorf("sparkline %q: %w", id, ErrUnknownToken)
	}
	return chart.Sparkline(tok.PriceHistory), nil
}
