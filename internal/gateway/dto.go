package gateway

import (
	"dexscan/internal/chart"
	"dexscan/internal/format"
	"dexscan/internal/model"
)

// TokenRow is one table row: raw values plus their display strings.
type TokenRow struct {
	model.Token

	PriceText     string `json:"priceText"`
	Change5mText  string `json:"change5mText"`
	Change1hText  string `json:"change1hText"`
	Change24hText string `json:"change24hText"`
	VolumeText    string `json:"volumeText"`
	LiquidityText string `json:"liquidityText"`
	MarketCapText string `json:"marketCapText"`
	TxnsText      string `json:"txnsText"`
	BuysText      string `json:"buysText"`
	SellsText     string `json:"sellsText"`
	MakersText    string `json:"makersText"`
	Sparkline     string `json:"sparkline"`
	SparkUp       bool   `json:"sparkUp"`
}

// NewTokenRow formats t for the table view.
func NewTokenRow(t model.Token) TokenRow {
	return TokenRow{
		Token:         t,
		PriceText:     format.RowPrice(t.Price),
		Change5mText:  format.RowChange(t.PriceChange5m),
		Change1hText:  format.RowChange(t.PriceChange1h),
		Change24hText: format.RowChange(t.PriceChange24h),
		VolumeText:    format.Compact(t.Volume24h),
		LiquidityText: format.Compact(t.Liquidity),
		MarketCapText: format.Compact(t.MarketCap),
		TxnsText:      format.Count(t.Txns24h),
		BuysText:      format.Count(t.Buys24h),
		SellsText:     format.Count(t.Sells24h),
		MakersText:    format.Count(t.Makers),
		Sparkline:     chart.Sparkline(t.PriceHistory).Polyline(),
		SparkUp:       t.PriceChange24h >= 0,
	}
}

// TrendingItem is one entry of the ticker strip.
type TrendingItem struct {
	ID         string      `json:"id"`
	Symbol     string      `json:"symbol"`
	Chain      model.Chain `json:"chain"`
	Change24h  float64     `json:"priceChange24h"`
	ChangeText string      `json:"changeText"`
}

// NewTrendingItem formats t for the ticker strip.
func NewTrendingItem(t model.Token) TrendingItem {
	return TrendingItem{
		ID:         t.ID,
		Symbol:     t.Symbol,
		Chain:      t.Chain,
		Change24h:  t.PriceChange24h,
		ChangeText: format.RowChange(t.PriceChange24h),
	}
}

// DetailOut is the drill-down panel: live stats plus the synthesized chart.
type DetailOut struct {
	Token         model.Token     `json:"token"`
	Timeframe     model.Timeframe `json:"timeframe"`
	PriceText     string          `json:"priceText"`
	Change5mText  string          `json:"change5mText"`
	Change1hText  string          `json:"change1hText"`
	Change6hText  string          `json:"change6hText"`
	Change24hText string          `json:"change24hText"`
	MarketCapText string          `json:"marketCapText"`
	LiquidityText string          `json:"liquidityText"`
	VolumeText    string          `json:"volumeText"`
	TxnsText      string          `json:"txnsText"`
	BuysText      string          `json:"buysText"`
	SellsText     string          `json:"sellsText"`
	MakersText    string          `json:"makersText"`
	Chart         ChartOut        `json:"chart"`
}

// ChartOut is a normalized detail series with SVG-ready strings and labels.
type ChartOut struct {
	chart.Detail
	PathD     string `json:"pathD"`
	AreaD     string `json:"areaD"`
	HighLabel string `json:"highLabel"`
	LowLabel  string `json:"lowLabel"`
}

// NewChartOut renders d with detail-context price labels.
func NewChartOut(d chart.Detail) ChartOut {
	return ChartOut{
		Detail:    d,
		PathD:     d.PathD(),
		AreaD:     d.AreaD(),
		HighLabel: format.DetailPrice(d.Max),
		LowLabel:  format.DetailPrice(d.Min),
	}
}

// NewDetailOut formats the live record t with chart d over tf.
func NewDetailOut(t model.Token, tf model.Timeframe, d chart.Detail) DetailOut {
	return DetailOut{
		Token:         t,
		Timeframe:     tf,
		PriceText:     format.DetailPrice(t.Price),
		Change5mText:  format.DetailChange(t.PriceChange5m),
		Change1hText:  format.DetailChange(t.PriceChange1h),
		Change6hText:  format.DetailChange(t.PriceChange6h),
		Change24hText: format.DetailChange(t.PriceChange24h),
		MarketCapText: format.Compact(t.MarketCap),
		LiquidityText: format.Compact(t.Liquidity),
		VolumeText:    format.Compact(t.Volume24h),
		TxnsText:      format.Count(t.Txns24h),
		BuysText:      format.Count(t.Buys24h),
		SellsText:     format.Count(t.Sells24h),
		MakersText:    format.Count(t.Makers),
		Chart:         NewChartOut(d),
	}
}

// SparkOut is the REST body for a single sparkline.
type SparkOut struct {
	chart.Spark
	Polyline string `json:"polyline"`
	Up       bool   `json:"up"`
}

// ViewPayload is the data of a "view" envelope: everything a viewer renders.
type ViewPayload struct {
	Intent   model.Intent   `json:"intent"`
	Rows     []TokenRow     `json:"rows"`
	Total    int            `json:"total"`
	Trending []TrendingItem `json:"trending"`
	Detail   *DetailOut     `json:"detail,omitempty"`
}

// ChainInfo is the REST response type for /api/chains.
type ChainInfo struct {
	ID   model.Chain `json:"id"`
	Name string      `json:"name"`
}

// TimeframeInfo is the REST response type for /api/timeframes.
type TimeframeInfo struct {
	Label  model.Timeframe `json:"label"`
	Points int             `json:"points"`
}

// IntentMsg is the client -> server message. Value carries the argument for
// every type except CLEAR_SELECTION.
type IntentMsg struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
	ReqID string `json:"reqId,omitempty"`
	Ping  int64  `json:"ping,omitempty"`
}

// Intent message types.
const (
	MsgSetSearch      = "SET_SEARCH"
	MsgSetChain       = "SET_CHAIN"
	MsgSetSort        = "SET_SORT"
	MsgSetOrder       = "SET_ORDER"
	MsgSelect         = "SELECT"
	MsgClearSelection = "CLEAR_SELECTION"
	MsgSetTimeframe   = "SET_TIMEFRAME"
)

// ErrorResponse is the server -> client ERROR message.
type ErrorResponse struct {
	Type  string `json:"type"` // "ERROR"
	ReqID string `json:"reqId,omitempty"`
	Error string `json:"error"`
}
