package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/rivo/tview"

	"volume_follower/internal/engine"
	"volume_follower/internal/polygon"
	"volume_follower/internal/symbols"
	"volume_follower/internal/util"
	"volume_follower/internal/window"
)

var (
	symbolFlag      = flag.String("symbol", symbols.FromEnv("SPY"), "stock ticker (e.g. SPY)")
	endpointFlag    = flag.String("endpoint", polygon.DefaultEndpoint, "Polygon websocket endpoint")
	windowFlag      = flag.Duration("window", 5*time.Second, "aggregation window length")
	minNotionalFlag = flag.Float64("min-notional", 90000, "drop trades below this notional")
	bigNotionalFlag = flag.Float64("big-notional", 490000, "tag trades at or above this notional as large")
	epsFlag         = flag.Float64("eps", 0.001, "price comparison tolerance")
	logLevelFlag    = flag.String("log-level", "warn", "log level")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()
	log := util.NewLogger(*logLevelFlag)

	symbol := symbols.Normalize(*symbolFlag)
	if symbol == "" {
		log.Fatal().Msg("symbol is required")
	}
	apiKey := strings.TrimSpace(os.Getenv("POLYGON_API_KEY"))
	if apiKey == "" {
		log.Fatal().Msg("POLYGON_API_KEY is required")
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := polygon.NewFeed(*endpointFlag, apiKey, symbol, log)
	go func() { _ = feed.Run(ctx, eng.In()) }()
	go func() { _ = eng.Run(ctx) }()

	app := tview.NewApplication()
	view := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	view.SetBorder(true).SetTitle(fmt.Sprintf(" %s volume delta (q to quit) ", symbol))
	view.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyEscape || ev.Rune() == 'q' {
			app.Stop()
			return nil
		}
		return ev
	})

	go func() {
		for res := range eng.Results() {
			line := formatLine(res)
			app.QueueUpdateDraw(func() {
				fmt.Fprintln(view, line)
				view.ScrollToEnd()
			})
		}
		app.Stop()
	}()

	if err := app.SetRoot(view, true).Run(); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("tui failed")
	}
	cancel()
}

func formatLine(r window.Result) string {
	label := r.Start.Format("(04:05)")
	delta := r.Delta()
	ds := fmt.Sprintf("%10s", comma(delta))
	switch {
	case delta > 0:
		ds = "[yellow]" + ds + "[-]"
	case delta < 0:
		ds = "[red]" + ds + "[-]"
	}
	return fmt.Sprintf("vd %s:%s  |  Buy:%10s  |  Sell:%10s  |  spk:%8.0f",
		label, ds, comma(r.AskVolume), comma(r.BidVolume), r.Spike)
}

// comma renders n with thousands separators.
func comma(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(s[i])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
