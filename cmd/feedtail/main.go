// cmd/feedtail prints the top rows of a screener view as it updates.
//
// By default it follows the gateway WebSocket and lets the server derive the
// view from the flags. With -redis it subscribes to the snapshot channel
// instead and derives the view locally.
//
//	feedtail -url ws://localhost:8080/ws -chain SOL -sort priceChange24h -rows 5
//	feedtail -redis localhost:6379 -search pepe
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"dexscan/internal/broker/redis"
	"dexscan/internal/feedclient"
	"dexscan/internal/gateway"
	"dexscan/internal/metrics"
	"dexscan/internal/model"
	"dexscan/internal/session"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "Screener WebSocket URL")
	redisAddr := flag.String("redis", "", "Redis address; when set, tail the snapshot channel instead of the WebSocket")
	channel := flag.String("channel", redis.DefaultChannel, "Redis channel to subscribe to")
	chain := flag.String("chain", "all", "Chain filter: all, ETH, SOL, BSC, BASE, ARB")
	search := flag.String("search", "", "Case-insensitive name/symbol filter")
	sortBy := flag.String("sort", "volume24h", "Sort field")
	order := flag.String("order", "desc", "Sort order: asc or desc")
	rows := flag.Int("rows", 10, "Rows to print per update")
	metricsAddr := flag.String("metrics", "", "Serve /metrics and /healthz on this address")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	intents, err := buildIntents(*chain, *search, *sortBy, *order)
	if err != nil {
		log.Fatalf("[feedtail] %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	var prom *metrics.Metrics
	var health *metrics.HealthStatus
	if *metricsAddr != "" {
		prom = metrics.NewMetrics(nil)
		health = metrics.NewHealthStatus(30 * time.Second)
		srv := metrics.NewServer(*metricsAddr, health, nil)
		srv.Start()
		defer srv.Stop(context.Background())
	}

	if *redisAddr != "" {
		tailRedis(ctx, *redisAddr, *channel, intents, *rows, health)
		return
	}
	tailWS(ctx, *url, intents, *rows, prom, health)
}

// buildIntents validates the flags and turns them into the intents a fresh
// session needs to reach the requested view.
func buildIntents(chain, search, sortBy, order string) ([]gateway.IntentMsg, error) {
	if _, err := model.ParseChain(chain); err != nil {
		return nil, fmt.Errorf("-chain %q: %w", chain, err)
	}
	f, err := model.ParseSortField(sortBy)
	if err != nil {
		return nil, fmt.Errorf("-sort: %w", err)
	}
	if _, err := model.ParseSortOrder(order); err != nil {
		return nil, fmt.Errorf("-order: %w", err)
	}

	out := []gateway.IntentMsg{
		{Type: gateway.MsgSetChain, Value: chain},
		{Type: gateway.MsgSetSearch, Value: search},
	}
	if f != model.DefaultIntent().SortField {
		out = append(out, gateway.IntentMsg{Type: gateway.MsgSetSort, Value: f.String()})
	}
	return append(out, gateway.IntentMsg{Type: gateway.MsgSetOrder, Value: order}), nil
}

func tailWS(ctx context.Context, url string, intents []gateway.IntentMsg, rows int, prom *metrics.Metrics, health *metrics.HealthStatus) {
	client, err := feedclient.New(feedclient.Config{URL: url, Intents: intents})
	if err != nil {
		log.Fatalf("[feedtail] %v", err)
	}
	client.OnReconnect = func() {
		if prom != nil {
			prom.FeedReconnects.Inc()
		}
		if health != nil {
			health.SetWSConnected(false)
		}
	}

	msgs := make(chan feedclient.Message, 16)
	go client.Start(ctx, msgs)

	// Only print once every intent has been applied.
	want := len(intents) + 1
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-msgs:
			switch msg.Type {
			case "ERROR":
				log.Printf("[feedtail] server rejected intent: %s", msg.Error)
			case "view":
				if msg.Seq < int64(want) {
					continue
				}
				if health != nil {
					health.SetWSConnected(true)
					health.SetTick(msg.Tick, time.Now())
				}
				view, err := msg.View()
				if err != nil {
					log.Printf("[feedtail] bad view: %v", err)
					continue
				}
				printRows(msg.Tick, view.Rows, view.Total, rows)
			}
		}
	}
}

func tailRedis(ctx context.Context, addr, channel string, intents []gateway.IntentMsg, rows int, health *metrics.HealthStatus) {
	client, err := redis.Dial(redis.Config{Addr: addr, Channel: channel})
	if err != nil {
		log.Fatalf("[feedtail] %v", err)
	}
	defer client.Close()
	if health != nil {
		health.SetRedisEnabled(true)
		health.StartLivenessChecker(ctx, client, 10*time.Second)
	}

	s := session.New(nil, 0)
	for _, in := range intents {
		if err := applyLocal(s, in); err != nil {
			log.Fatalf("[feedtail] %v", err)
		}
	}

	snaps := make(chan model.Snapshot, 4)
	go func() {
		if err := redis.Subscribe(ctx, client, channel, snaps); err != nil {
			log.Printf("[feedtail] %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-snaps:
			if health != nil {
				health.SetRedisConnected(true)
				health.SetTick(snap.Seq, snap.TS)
			}
			s.Update(snap)
			view := s.CurrentView()
			out := make([]gateway.TokenRow, len(view))
			for i, t := range view {
				out[i] = gateway.NewTokenRow(t)
			}
			printRows(snap.Seq, out, len(out), rows)
		}
	}
}

func applyLocal(s *session.Coordinator, in gateway.IntentMsg) error {
	switch in.Type {
	case gateway.MsgSetChain:
		return s.SetChain(model.Chain(in.Value))
	case gateway.MsgSetSearch:
		s.SetSearch(in.Value)
		return nil
	case gateway.MsgSetSort:
		f, err := model.ParseSortField(in.Value)
		if err != nil {
			return err
		}
		return s.SetSort(f)
	case gateway.MsgSetOrder:
		o, err := model.ParseSortOrder(in.Value)
		if err != nil {
			return err
		}
		return s.SetOrder(o)
	}
	return fmt.Errorf("unsupported intent %s", in.Type)
}

func printRows(tick int64, rows []gateway.TokenRow, total, limit int) {
	if limit > len(rows) {
		limit = len(rows)
	}
	fmt.Printf("\n── tick %d · %d tokens ──\n", tick, total)
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTOKEN\tCHAIN\tPRICE\t5M\t1H\t24H\tVOLUME\tLIQ\tMCAP\tTXNS")
	for i, r := range rows[:limit] {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1, r.Symbol, r.Chain, r.PriceText, r.Change5mText, r.Change1hText, r.Change24hText,
			r.VolumeText, r.LiquidityText, r.MarketCapText, r.TxnsText)
	}
	tw.Flush()
}
