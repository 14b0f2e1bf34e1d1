// delta-replay feeds a recorded JSONL sequence of Polygon trade/quote events
// through the engine with no network dependency and prints the finalized
// windows. Useful for verifying classification and window behavior against a
// captured tape.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"volume_follower/internal/engine"
	"volume_follower/internal/models"
	"volume_follower/internal/symbols"
	"volume_follower/internal/util"
	"volume_follower/internal/window"
)

var (
	inputFlag       = flag.String("input", "", "JSONL file of Polygon T/Q events")
	symbolFlag      = flag.String("symbol", symbols.FromEnv("SPY"), "stock ticker (e.g. SPY)")
	windowFlag      = flag.Duration("window", 5*time.Second, "aggregation window length")
	minNotionalFlag = flag.Float64("min-notional", 90000, "drop trades below this notional")
	bigNotionalFlag = flag.Float64("big-notional", 490000, "tag trades at or above this notional as large")
	epsFlag         = flag.Float64("eps", 0.001, "price comparison tolerance")
	logLevelFlag    = flag.String("log-level", "warn", "log level")
)

func main() {
	flag.Parse()
	log := util.NewLogger(*logLevelFlag)

	if *inputFlag == "" {
		log.Fatal().Msg("-input is required")
	}
	symbol := symbols.Normalize(*symbolFlag)

	f, err := os.Open(*inputFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("open input")
	}
	defer f.Close()

	var lines [][]byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		lines = append(lines, append([]byte(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		log.Fatal().Err(err).Msg("read input")
	}

	cfg := engine.DefaultConfig(symbol)
	cfg.Window = *windowFlag
	cfg.MinNotional = *minNotionalFlag
	cfg.BigNotional = *bigNotionalFlag
	cfg.PriceTolerance = *epsFlag
	eng, err := engine.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("bad configuration")
	}

	var windows int
	eng.SetResultHandler(func(r window.Result) {
		windows++
		fmt.Printf("%s  ask=%d bid=%d delta=%+d unclassified=%d trades=%d large=%d spike=%.0f\n",
			r.Start.UTC().Format("15:04:05"), r.AskVolume, r.BidVolume, r.Delta(),
			r.Unclassified, r.Trades, r.LargeTrades, r.Spike)
	})

	bar := progressbar.Default(int64(len(lines)), "replaying")
	for _, line := range lines {
		if ev, ok := decode(line); ok {
			eng.Process(ev)
		}
		_ = bar.Add(1)
	}
	fmt.Printf("replayed %d events, emitted %d windows (open window discarded)\n", len(lines), windows)
}

func decode(line []byte) (engine.Event, bool) {
	var head struct {
		Event string `json:"ev"`
	}
	if err := json.Unmarshal(line, &head); err != nil {
		return engine.Event{}, false
	}
	switch head.Event {
	case "T":
		var wt models.PolygonTrade
		if err := json.Unmarshal(line, &wt); err != nil {
			return engine.Event{}, false
		}
		t := wt.Trade()
		return engine.Event{Trade: &t}, true
	case "Q":
		var wq models.PolygonQuote
		if err := json.Unmarshal(line, &wq); err != nil {
			return engine.Event{}, false
		}
		q := wq.Quote()
		return engine.Event{Quote: &q}, true
	}
	return engine.Event{}, false
}
