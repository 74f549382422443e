package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"SignalPulse/internal/domain/models"
	drepo "SignalPulse/internal/domain/repository"
	"SignalPulse/pkg/logger"

	"github.com/gorilla/websocket"
)

// BinanceStream implements a MarketStream backed by the Binance trade
// WebSocket.
type BinanceStream struct {
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	conn *websocket.Conn

	// read by the HTTP health handler while the collector connects and
	// closes, so it must be atomic
	connected atomic.Bool
}

// NewBinance creates a new Binance MarketStream.
func NewBinance(websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) drepo.MarketStream {
	return &BinanceStream{
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
	}
}

// Connect establishes the WebSocket connection.
func (c *BinanceStream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}
	c.conn = conn
	c.connected.Store(true)
	if c.log != nil {
		c.log.Info("binance stream connected", logger.String("url", c.websocketURL))
	}
	return nil
}

type subscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

// Subscribe subscribes to trade streams for configured symbols.
func (c *BinanceStream) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected.Load() {
		return fmt.Errorf("binance not connected")
	}
	params := make([]string, 0, len(c.symbols))
	for _, s := range c.symbols {
		params = append(params, strings.ToLower(s)+"@trade")
	}
	req := subscribeRequest{Method: "SUBSCRIBE", Params: params, ID: 1}
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("binance subscribe: %w", err)
	}
	if c.log != nil {
		c.log.Info("binance streams subscribed", logger.Strings("streams", params))
	}
	return nil
}

type binanceTrade struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	TradeTime int64  `json:"T"` // ms
}

// Read streams ticks and errors. A read error terminates both channels;
// the caller decides whether to reconnect.
func (c *BinanceStream) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("binance conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("binance read: %w", err)
					return
				}
				var m binanceTrade
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-trade frames
					continue
				}
				if m.EventType != "trade" {
					continue
				}
				price, err := strconv.ParseFloat(m.Price, 64)
				if err != nil {
					continue
				}
				tick := &models.Tick{
					Symbol:    m.Symbol,
					Price:     price,
					Timestamp: time.UnixMilli(m.TradeTime),
				}
				select {
				case ticks <- tick:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return ticks, errs
}

// Reconnect closes and reconnects. The caller spaces attempts.
func (c *BinanceStream) Reconnect(ctx context.Context) error {
	_ = c.Close()
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *BinanceStream) Close() error {
	c.connected.Store(false)
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *BinanceStream) IsConnected() bool { return c.connected.Load() }
