package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"volume_follower/internal/barlog"
	"volume_follower/internal/engine"
	"volume_follower/internal/kafka"
	"volume_follower/internal/metrics"
	"volume_follower/internal/nats"
	"volume_follower/internal/polygon"
	"volume_follower/internal/symbols"
	"volume_follower/internal/util"
)

var (
	brokersFlag     = flag.String("brokers", "localhost:9092", "Kafka brokers or NATS servers (comma separated)")
	topicFlag       = flag.String("topic", "", "output topic/subject (default delta_<symbol>)")
	symbolFlag      = flag.String("symbol", symbols.FromEnv("SPY"), "stock ticker (e.g. SPY)")
	sinkFlag        = flag.String("sink", "kafka", "bar sink: kafka, nats or stdout")
	endpointFlag    = flag.String("endpoint", polygon.DefaultEndpoint, "Polygon websocket endpoint")
	windowFlag      = flag.Duration("window", 5*time.Second, "aggregation window length")
	minNotionalFlag = flag.Float64("min-notional", 90000, "drop trades below this notional")
	bigNotionalFlag = flag.Float64("big-notional", 490000, "tag trades at or above this notional as large")
	epsFlag         = flag.Float64("eps", 0.001, "price comparison tolerance")
	recordDirFlag   = flag.String("record-dir", "", "optional directory for JSONL bar recording")
	metricsFlag     = flag.String("metrics-addr", "", "optional Prometheus listen address")
	logLevelFlag    = flag.String("log-level", "info", "log level")
)

type sink interface {
	WriteMessage(key, value []byte) error
	Close() error
}

type stdoutSink struct{}

func (stdoutSink) WriteMessage(_, value []byte) error {
	_, err := os.Stdout.Write(append(value, '\n'))
	return err
}

func (stdoutSink) Close() error { return nil }

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
	topic := *topicFlag
	if topic == "" {
		topic = symbols.DeltaTopic(symbol)
	}
	servers := strings.Split(*brokersFlag, ",")

	cfg := engine.DefaultConfig(symbol)
	cfg.Window = *windowFlag
	cfg.MinNotional = *minNotionalFlag
	cfg.BigNotional = *bigNotionalFlag
	cfg.PriceTolerance = *epsFlag
	eng, err := engine.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("bad configuration")
	}

	var out sink
	switch *sinkFlag {
	case "kafka":
		out = kafka.NewProducer(servers, topic)
	case "nats":
		p, err := nats.NewProducer(servers, topic)
		if err != nil {
			log.Fatal().Err(err).Msg("nats connect failed")
		}
		out = p
	case "stdout":
		out = stdoutSink{}
	default:
		log.Fatal().Str("sink", *sinkFlag).Msg("unknown sink")
	}
	defer out.Close()

	if *metricsFlag != "" {
		metrics.Serve(*metricsFlag)
	}
	recorder := barlog.New(*recordDirFlag, symbol)
	defer recorder.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info().
		Str("symbol", symbol).
		Str("topic", topic).
		Str("sink", *sinkFlag).
		Dur("window", cfg.Window).
		Msg("starting volume delta follower")

	feed := polygon.NewFeed(*endpointFlag, apiKey, symbol, log)
	go func() {
		if err := feed.Run(ctx, eng.In()); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("feed stopped")
		}
	}()
	go func() {
		_ = eng.Run(ctx)
	}()

	for res := range eng.Results() {
		bar := res.Output(symbol)
		b, err := json.Marshal(bar)
		if err != nil {
			log.Error().Err(err).Msg("marshal bar")
			continue
		}
		if err := out.WriteMessage([]byte(symbol), b); err != nil {
			log.Error().Err(err).Msg("sink write failed")
		}
		recorder.Record(bar)
	}
	log.Info().Msg("shut down")
}
