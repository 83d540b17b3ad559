// Package exchange is the market-data client for a TradeOgre-style public
// REST API, plus an optional websocket tick stream. The core treats every
// failure here as transient; retry policy stays with the caller's schedule.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/makoshark2001/trading-bot-core/internal/model"
)

const (
	defaultTimeout = 7 * time.Second
	defaultQuote   = "USDT"
)

// Config configures the REST client.
type Config struct {
	BaseURL string        // e.g. "https://tradeogre.com/api/v1"
	Quote   string        // market quote currency, default USDT
	Timeout time.Duration // default 7s
}

// Client talks to the exchange REST API. It implements model.FeedSource.
type Client struct {
	baseURL string
	quote   string
	http    *http.Client
}

// NewClient creates a REST client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Quote == "" {
		cfg.Quote = defaultQuote
	}
	return &Client{
		baseURL: cfg.BaseURL,
		quote:   cfg.Quote,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// market maps a bare symbol to the exchange market name, e.g. BTC-USDT.
func (c *Client) market(symbol string) string {
	return symbol + "-" + c.quote
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", model.ErrFeedUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: GET %s: status %d", model.ErrFeedUnavailable, path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", model.ErrFeedUnavailable, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", model.ErrFeedUnavailable, path, err)
	}
	return nil
}

// tickerResponse is the exchange ticker payload. Numeric fields arrive as
// strings.
type tickerResponse struct {
	Success bool   `json:"success"`
	Price   string `json:"price"`
	High    string `json:"high"`
	Low     string `json:"low"`
	Volume  string `json:"volume"`
}

func parseNum(field, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad %s %q", model.ErrFeedUnavailable, field, s)
	}
	return f, nil
}

// LatestTick fetches the current ticker for one symbol.
func (c *Client) LatestTick(ctx context.Context, symbol string) (model.Tick, error) {
	var tr tickerResponse
	if err := c.get(ctx, "/ticker/"+c.market(symbol), &tr); err != nil {
		return model.Tick{}, err
	}
	if !tr.Success {
		return model.Tick{}, fmt.Errorf("%w: ticker %s rejected", model.ErrFeedUnavailable, symbol)
	}

	price, err := parseNum("price", tr.Price)
	if err != nil {
		return model.Tick{}, err
	}
	high, err := parseNum("high", tr.High)
	if err != nil {
		return model.Tick{}, err
	}
	low, err := parseNum("low", tr.Low)
	if err != nil {
		return model.Tick{}, err
	}
	volume, err := parseNum("volume", tr.Volume)
	if err != nil {
		return model.Tick{}, err
	}

	return model.Tick{
		Symbol: symbol,
		Price:  price,
		High:   high,
		Low:    low,
		Volume: volume,
		TS:     time.Now().UTC(),
	}, nil
}

// HistoricalBars fetches up to count bars at resolution seconds per bar,
// oldest first. Bars arrive as [ts, open, high, low, close, volume] arrays.
func (c *Client) HistoricalBars(ctx context.Context, symbol string, resolution, count int) ([]model.Observation, error) {
	var raw [][]float64
	path := fmt.Sprintf("/chart/%d/%s", resolution, c.market(symbol))
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, err
	}

	out := make([]model.Observation, 0, len(raw))
	for _, bar := range raw {
		if len(bar) < 6 {
			continue
		}
		out = append(out, model.Observation{
			Timestamp: int64(bar[0]) * 1000, // exchange sends seconds
			High:      bar[2],
			Low:       bar[3],
			Close:     bar[4],
			Volume:    bar[5],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	if len(out) > count {
		out = out[len(out)-count:]
	}
	return out, nil
}

// AvailableSymbols lists markets for the configured quote currency.
func (c *Client) AvailableSymbols(ctx context.Context) ([]model.SymbolInfo, error) {
	// The markets endpoint returns a list of {"BTC-USDT": {...}} entries.
	var raw []map[string]json.RawMessage
	if err := c.get(ctx, "/markets", &raw); err != nil {
		return nil, err
	}

	suffix := "-" + c.quote
	var out []model.SymbolInfo
	for _, entry := range raw {
		for market := range entry {
			if len(market) <= len(suffix) || market[len(market)-len(suffix):] != suffix {
				continue
			}
			base := market[:len(market)-len(suffix)]
			out = append(out, model.SymbolInfo{
				Symbol:    base,
				Base:      base,
				Quote:     c.quote,
				Tradeable: true,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}
