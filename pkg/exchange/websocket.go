package exchange

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/makoshark2001/trading-bot-core/internal/model"
	"github.com/makoshark2001/trading-bot-core/internal/ringbuf"
)

const (
	wsPingInterval   = 30 * time.Second
	wsReadTimeout    = 90 * time.Second
	wsMaxBackoff     = 60 * time.Second
	wsInitialBackoff = 2 * time.Second
)

// TickStream subscribes to live trade updates over a websocket and pushes
// them into a ring buffer for the collector to drain. The stream reconnects
// with exponential backoff until its context is cancelled.
type TickStream struct {
	url     string
	quote   string
	symbols []string
	ring    *ringbuf.Ring

	onReconnect func() // optional, for metrics
}

// NewTickStream creates a stream for the given symbols.
func NewTickStream(url, quote string, symbols []string, ring *ringbuf.Ring) *TickStream {
	if quote == "" {
		quote = defaultQuote
	}
	return &TickStream{
		url:     url,
		quote:   quote,
		symbols: symbols,
		ring:    ring,
	}
}

// OnReconnect registers a callback fired on every reconnection attempt.
func (s *TickStream) OnReconnect(fn func()) { s.onReconnect = fn }

// Run blocks until ctx is cancelled, reconnecting on every failure.
func (s *TickStream) Run(ctx context.Context) {
	backoff := wsInitialBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		err := s.connectAndRead(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Printf("[ws] connection lost: %v, retrying in %v", err, backoff)
		if s.onReconnect != nil {
			s.onReconnect()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > wsMaxBackoff {
			backoff = wsMaxBackoff
		}
	}
}

// subscribeMsg asks the server for trade events on one market.
type subscribeMsg struct {
	Type   string `json:"a"`
	Market string `json:"e"`
}

// tradeEvent is one pushed trade update.
type tradeEvent struct {
	Type   string `json:"a"`
	Market string `json:"e"`
	Price  string `json:"p"`
	Qty    string `json:"q"`
}

func (s *TickStream) connectAndRead(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[ws] connected to %s", s.url)

	for _, symbol := range s.symbols {
		msg := subscribeMsg{Type: "subscribe", Market: symbol + "-" + s.quote}
		if err := conn.WriteJSON(msg); err != nil {
			return err
		}
	}

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	go s.pingLoop(ctx, conn)

	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		s.handleMessage(data)
	}
}

func (s *TickStream) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func (s *TickStream) handleMessage(data []byte) {
	var ev tradeEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.Type != "trade" {
		return
	}

	price, err := strconv.ParseFloat(ev.Price, 64)
	if err != nil || price <= 0 {
		return
	}
	qty, err := strconv.ParseFloat(ev.Qty, 64)
	if err != nil || qty <= 0 {
		return
	}

	symbol, ok := strings.CutSuffix(ev.Market, "-"+s.quote)
	if !ok {
		return
	}

	// A trade carries no session high/low; the observation collapses to the
	// trade price, which still satisfies low <= close <= high.
	s.ring.Push(model.Tick{
		Symbol: symbol,
		Price:  price,
		High:   price,
		Low:    price,
		Volume: qty,
		TS:     time.Now().UTC(),
	})
}
