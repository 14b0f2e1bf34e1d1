// delta-tail follows a published volume-delta topic and pretty-prints the
// bars as they arrive.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"volume_follower/internal/models"
	"volume_follower/internal/symbols"
	"volume_follower/internal/util"
)

var (
	brokersFlag  = flag.String("brokers", "localhost:9092", "Kafka brokers (comma separated)")
	topicFlag    = flag.String("topic", "", "topic to tail (default delta_<symbol>)")
	symbolFlag   = flag.String("symbol", symbols.FromEnv("SPY"), "stock ticker, used for the default topic")
	fromStart    = flag.Bool("from-beginning", false, "consume from the earliest offset")
	logLevelFlag = flag.String("log-level", "info", "log level")
)

func main() {
	flag.Parse()
	log := util.NewLogger(*logLevelFlag)

	topic := *topicFlag
	if topic == "" {
		topic = symbols.DeltaTopic(*symbolFlag)
	}
	offset := kgo.NewOffset().AtEnd()
	if *fromStart {
		offset = kgo.NewOffset().AtStart()
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(*brokersFlag, ",")...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(offset),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("kafka client")
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info().Str("topic", topic).Msg("tailing delta bars")
	for ctx.Err() == nil {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return
		}
		fetches.EachError(func(t string, p int32, err error) {
			log.Error().Str("topic", t).Int32("partition", p).Err(err).Msg("fetch error")
		})
		fetches.EachRecord(func(rec *kgo.Record) {
			var bar models.DeltaOutput
			if err := json.Unmarshal(rec.Value, &bar); err != nil {
				log.Warn().Err(err).Msg("bad bar record")
				return
			}
			start := time.UnixMilli(bar.WindowStart).UTC()
			fmt.Printf("%s %s  ask=%d bid=%d delta=%+d trades=%d large=%d spike=%.0f\n",
				bar.Symbol, start.Format("15:04:05"), bar.AskVolume, bar.BidVolume,
				bar.Delta, bar.Trades, bar.LargeTrades, bar.Spike)
		})
	}
}
