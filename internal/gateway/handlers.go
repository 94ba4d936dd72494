package gateway

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"dexscan/internal/model"
	"dexscan/internal/screener"
	"dexscan/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TokensResponse is the body of GET /api/tokens.
type TokensResponse struct {
	Seq    int64        `json:"seq"`
	Intent model.Intent `json:"intent"`
	Rows   []TokenRow   `json:"rows"`
	Total  int          `json:"total"`
}

// NewRouter returns the gateway's HTTP handler with every route mounted.
func NewRouter(hub *Hub, processStart time.Time) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	RegisterRoutes(r, hub, processStart)
	return r
}

// RegisterRoutes registers the WebSocket endpoint and the REST API on r.
func RegisterRoutes(r chi.Router, hub *Hub, processStart time.Time) {
	// WebSocket endpoint
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		lastSeq, _ := strconv.ParseInt(req.URL.Query().Get("last_seq"), 10, 64)
		hub.HandleWSRequest(conn, req.RemoteAddr, lastSeq)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors)

		r.Get("/tokens", func(w http.ResponseWriter, req *http.Request) {
			s := hub.NewSession()
			if err := applyQuery(s, req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			view := s.CurrentView()
			rows := make([]TokenRow, len(view))
			for i, t := range view {
				rows[i] = NewTokenRow(t)
			}
			writeJSON(w, http.StatusOK, TokensResponse{
				Seq:    s.Seq(),
				Intent: s.Intent(),
				Rows:   rows,
				Total:  len(rows),
			})
		})

		r.Get("/tokens/{id}", func(w http.ResponseWriter, req *http.Request) {
			latest := hub.Latest()
			tok, ok := latest.Find(chi.URLParam(req, "id"))
			if !ok {
				writeError(w, http.StatusNotFound, session.ErrUnknownToken)
				return
			}
			writeJSON(w, http.StatusOK, NewTokenRow(tok))
		})

		r.Get("/tokens/{id}/sparkline", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "id")
			sp, err := hub.NewSession().Sparkline(id)
			if err != nil {
				writeError(w, http.StatusNotFound, err)
				return
			}
			latest := hub.Latest()
			tok, _ := latest.Find(id)
			writeJSON(w, http.StatusOK, SparkOut{
				Spark:    sp,
				Polyline: sp.Polyline(),
				Up:       tok.PriceChange24h >= 0,
			})
		})

		r.Get("/tokens/{id}/chart", func(w http.ResponseWriter, req *http.Request) {
			s := hub.NewSession()
			if tf := req.URL.Query().Get("tf"); tf != "" {
				if err := s.SetTimeframe(model.Timeframe(tf)); err != nil {
					writeError(w, http.StatusBadRequest, err)
					return
				}
			}
			if err := s.SelectToken(chi.URLParam(req, "id")); err != nil {
				writeError(w, http.StatusNotFound, err)
				return
			}
			tok, _ := s.Selected()
			d, _ := s.Detail()
			writeJSON(w, http.StatusOK, NewDetailOut(tok, s.Intent().Timeframe, d))
		})

		r.Get("/trending", func(w http.ResponseWriter, req *http.Request) {
			n := hub.TrendingN
			if v := req.URL.Query().Get("n"); v != "" {
				parsed, err := strconv.Atoi(v)
				if err != nil || parsed <= 0 {
					writeError(w, http.StatusBadRequest, errors.New("n must be a positive integer"))
					return
				}
				n = parsed
			}
			latest := hub.Latest()
			trending := screener.Trending(latest.Tokens, n)
			items := make([]TrendingItem, len(trending))
			for i, t := range trending {
				items[i] = NewTrendingItem(t)
			}
			writeJSON(w, http.StatusOK, items)
		})

		r.Get("/chains", func(w http.ResponseWriter, req *http.Request) {
			out := []ChainInfo{{ID: model.ChainAll, Name: model.ChainNames[model.ChainAll]}}
			for _, c := range model.Chains {
				out = append(out, ChainInfo{ID: c, Name: model.ChainNames[c]})
			}
			writeJSON(w, http.StatusOK, out)
		})

		r.Get("/timeframes", func(w http.ResponseWriter, req *http.Request) {
			out := make([]TimeframeInfo, len(model.Timeframes))
			for i, tf := range model.Timeframes {
				out[i] = TimeframeInfo{Label: tf, Points: tf.Points()}
			}
			writeJSON(w, http.StatusOK, out)
		})

		r.Get("/sort-fields", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, model.SortFields())
		})

		// Gap backfill: tick envelopes with seq in [from, to].
		r.Get("/missed", func(w http.ResponseWriter, req *http.Request) {
			q := req.URL.Query()
			from, err1 := strconv.ParseInt(q.Get("from"), 10, 64)
			to, err2 := strconv.ParseInt(q.Get("to"), 10, 64)
			if err1 != nil || err2 != nil || from > to {
				writeError(w, http.StatusBadRequest, errors.New("from and to must be integers with from <= to"))
				return
			}
			writeJSON(w, http.StatusOK, hub.GetReplayRange(from, to))
		})

		r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, CollectStats(hub, processStart))
		})

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			latest := hub.Latest()
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"status":     "ok",
				"ws_clients": hub.ClientCount(),
				"tick_seq":   latest.Seq,
				"tokens":     len(latest.Tokens),
				"uptime_sec": int64(time.Since(processStart).Seconds()),
				"ts":         time.Now().UTC().Format(time.RFC3339Nano),
			})
		})
	})
}

// applyQuery maps the /api/tokens query string onto a fresh session.
func applyQuery(s *session.Coordinator, req *http.Request) error {
	q := req.URL.Query()
	search := q.Get("q")
	if search == "" {
		search = q.Get("search")
	}
	s.SetSearch(search)

	if v := q.Get("chain"); v != "" {
		if err := s.SetChain(model.Chain(v)); err != nil {
			return err
		}
	}
	if v := q.Get("sort"); v != "" {
		f, err := model.ParseSortField(v)
		if err != nil {
			return err
		}
		// A fresh session already sorts by volume; re-setting it would flip.
		if f != s.Intent().SortField {
			if err := s.SetSort(f); err != nil {
				return err
			}
		}
	}
	if v := q.Get("order"); v != "" {
		o, err := model.ParseSortOrder(v)
		if err != nil {
			return err
		}
		if err := s.SetOrder(o); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
