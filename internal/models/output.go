package models

// DeltaOutput is the finalized window record published to Kafka/NATS and
// written to bar logs.
type DeltaOutput struct {
	Symbol       string  `json:"s"`
	WindowStart  int64   `json:"ws"` // unix ms, inclusive
	WindowEnd    int64   `json:"we"` // unix ms, exclusive
	AskVolume    int64   `json:"av"`
	BidVolume    int64   `json:"bv"`
	Delta        int64   `json:"d"`
	Unclassified int64   `json:"uv"`
	Trades       int64   `json:"n"`
	LargeTrades  int64   `json:"ln"`
	LastPrice    float64 `json:"lp"`
	Spike        float64 `json:"spk"`
}
