package symbols

import (
	"fmt"
	"os"
	"strings"
)

const (
	envTicker    = "TICKER"
	envTickerAlt = "VD_TICKER"
)

// FromEnv resolves the instrument from the environment, falling back to the
// given default.
func FromEnv(defaultTicker string) string {
	if v := strings.TrimSpace(os.Getenv(envTicker)); v != "" {
		return Normalize(v)
	}
	if v := strings.TrimSpace(os.Getenv(envTickerAlt)); v != "" {
		return Normalize(v)
	}
	return Normalize(defaultTicker)
}

// Normalize uppercases and strips whitespace from an equity ticker. Class
// share dots (BRK.B) are kept as-is.
func Normalize(ticker string) string {
	return strings.ToUpper(strings.Join(strings.Fields(ticker), ""))
}

func Lower(ticker string) string {
	return strings.ToLower(Normalize(ticker))
}

// DeltaTopic is the default output topic for a ticker's volume-delta bars.
func DeltaTopic(ticker string) string {
	t := Normalize(ticker)
	if t == "" {
		return "volume_delta"
	}
	return fmt.Sprintf("delta_%s", strings.ToLower(strings.ReplaceAll(t, ".", "_")))
}

// TradeChannel and QuoteChannel are the Polygon subscription names.
func TradeChannel(ticker string) string {
	return "T." + Normalize(ticker)
}

func QuoteChannel(ticker string) string {
	return "Q." + Normalize(ticker)
}
