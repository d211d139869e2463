// Package ingestion feeds bar data into the bar stores, either live
// over a kline WebSocket stream or from CSV files on disk.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/observability"
)

// KlineClientConfig configures WebSocket client behavior.
type KlineClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultKlineConfig returns default WebSocket configuration.
func DefaultKlineConfig() KlineClientConfig {
	return KlineClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// ClosedKline is one finished candle received from the stream.
type ClosedKline struct {
	Symbol   string
	Interval string
	Bar      domain.Bar
}

// KlineClient streams closed candles for a set of symbols from a
// Binance-style combined kline stream. Open (still forming) candles
// are dropped; only the final print of each bar is delivered.
type KlineClient struct {
	endpoint string
	config   KlineClientConfig
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	out chan ClosedKline

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// StreamURL builds the combined-stream URL for a set of symbols and
// one interval against a base endpoint such as
// wss://stream.binance.com:9443.
func StreamURL(base string, symbols []string, interval string) string {
	streams := make([]string, 0, len(symbols))
	for _, s := range symbols {
		streams = append(streams, fmt.Sprintf("%s@kline_%s", strings.ToLower(s), interval))
	}
	return strings.TrimRight(base, "/") + "/stream?streams=" + strings.Join(streams, "/")
}

// NewKlineClient connects to the endpoint and starts the read and ping
// loops. The endpoint must be a full stream URL (see StreamURL).
func NewKlineClient(ctx context.Context, endpoint string, config *KlineClientConfig, logger *log.Logger) (*KlineClient, error) {
	cfg := DefaultKlineConfig()
	if config != nil {
		cfg = *config
	}

	c := &KlineClient{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		out:      make(chan ClosedKline, 1024),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// Klines returns the channel of closed candles. The channel is closed
// when the client shuts down.
func (c *KlineClient) Klines() <-chan ClosedKline {
	return c.out
}

// connect establishes the WebSocket connection.
func (c *KlineClient) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// Close closes the WebSocket connection and the kline channel.
func (c *KlineClient) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	close(c.out)
	return nil
}

// readLoop reads stream messages and dispatches closed candles.
func (c *KlineClient) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			// Connection error, reconnect with exponential backoff
			if !c.reconnecting.Swap(true) {
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Reset delay on successful read
		reconnectDelay = c.config.ReconnectDelay

		c.handleMessage(message)
	}
}

// reconnect waits out the backoff delay and dials again. The stream
// subscription lives in the URL, so no resubscribe step is needed.
func (c *KlineClient) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		if c.logger != nil {
			c.logger.Printf("[kline] reconnect failed: %v", err)
		}
		return
	}
}

// handleMessage parses a combined-stream envelope and forwards the
// candle when it is closed.
func (c *KlineClient) handleMessage(message []byte) {
	var env streamEnvelope
	if err := json.Unmarshal(message, &env); err != nil || env.Data == nil {
		return
	}
	if env.Data.Kline == nil || !env.Data.Kline.Closed {
		return
	}
	observability.RecordKlineReceived()

	k := env.Data.Kline
	bar := domain.Bar{
		Timestamp: time.UnixMilli(k.OpenTime).UTC(),
		Open:      parsePrice(k.Open),
		High:      parsePrice(k.High),
		Low:       parsePrice(k.Low),
		Close:     parsePrice(k.Close),
		Volume:    parsePrice(k.Volume),
	}

	ck := ClosedKline{
		Symbol:   env.Data.Symbol,
		Interval: k.Interval,
		Bar:      bar,
	}

	// Block until the consumer takes it, never drop closed candles
	select {
	case c.out <- ck:
	case <-c.done:
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *KlineClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			c.connMu.Unlock()
		}
	}
}

func parsePrice(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Stream message types

type streamEnvelope struct {
	Stream string       `json:"stream"`
	Data   *klineUpdate `json:"data"`
}

type klineUpdate struct {
	EventType string       `json:"e"`
	Symbol    string       `json:"s"`
	Kline     *klinePrints `json:"k"`
}

type klinePrints struct {
	OpenTime int64  `json:"t"`
	Interval string `json:"i"`
	Open     string `json:"o"`
	High     string `json:"h"`
	Low      string `json:"l"`
	Close    string `json:"c"`
	Volume   string `json:"v"`
	Closed   bool   `json:"x"`
}
