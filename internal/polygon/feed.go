// Package polygon streams live trades and quotes for one instrument from the
// Polygon stocks websocket cluster into the engine inbox. Reconnect and
// backoff live here; the engine never sees the connection.
package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"volume_follower/internal/engine"
	"volume_follower/internal/models"
	"volume_follower/internal/symbols"
)

const DefaultEndpoint = "wss://socket.polygon.io/stocks"

type Feed struct {
	endpoint string
	apiKey   string
	symbol   string
	log      zerolog.Logger
}

func NewFeed(endpoint, apiKey, symbol string, log zerolog.Logger) *Feed {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Feed{
		endpoint: endpoint,
		apiKey:   apiKey,
		symbol:   symbols.Normalize(symbol),
		log:      log.With().Str("feed", "polygon").Logger(),
	}
}

type controlMessage struct {
	Action string `json:"action"`
	Params string `json:"params"`
}

// Run pushes events onto out until the context is canceled, reconnecting
// forever with capped exponential backoff.
func (f *Feed) Run(ctx context.Context, out chan<- engine.Event) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := f.consume(ctx, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.log.Warn().Err(err).Dur("backoff", backoff).Msg("feed disconnected, retrying")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
	}
}

func (f *Feed) consume(ctx context.Context, out chan<- engine.Event) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	})

	if err := conn.WriteJSON(controlMessage{Action: "auth", Params: f.apiKey}); err != nil {
		return fmt.Errorf("auth write: %w", err)
	}
	subs := symbols.TradeChannel(f.symbol) + "," + symbols.QuoteChannel(f.symbol)
	if err := conn.WriteJSON(controlMessage{Action: "subscribe", Params: subs}); err != nil {
		return fmt.Errorf("subscribe write: %w", err)
	}
	f.log.Info().Str("subscriptions", subs).Msg("connected")

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if err := f.dispatch(ctx, message, out); err != nil {
			return err
		}
	}
}

// dispatch decodes one websocket frame (an array of heterogeneous events)
// and pushes trades and quotes into the engine inbox.
func (f *Feed) dispatch(ctx context.Context, message []byte, out chan<- engine.Event) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(message, &raws); err != nil {
		f.log.Warn().Err(err).Msg("undecodable frame")
		return nil
	}
	for _, raw := range raws {
		var head struct {
			Event string `json:"ev"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			continue
		}
		switch head.Event {
		case "T":
			var wt models.PolygonTrade
			if err := json.Unmarshal(raw, &wt); err != nil {
				f.log.Warn().Err(err).Msg("bad trade event")
				continue
			}
			t := wt.Trade()
			select {
			case out <- engine.Event{Trade: &t}:
			case <-ctx.Done():
				return ctx.Err()
			}
		case "Q":
			var wq models.PolygonQuote
			if err := json.Unmarshal(raw, &wq); err != nil {
				f.log.Warn().Err(err).Msg("bad quote event")
				continue
			}
			q := wq.Quote()
			select {
			case out <- engine.Event{Quote: &q}:
			case <-ctx.Done():
				return ctx.Err()
			}
		case "status":
			var st models.PolygonStatus
			if err := json.Unmarshal(raw, &st); err != nil {
				continue
			}
			if st.Status == "auth_failed" {
				return fmt.Errorf("polygon auth failed: %s", st.Message)
			}
			f.log.Info().Str("status", st.Status).Str("message", st.Message).Msg("feed status")
		}
	}
	return nil
}
