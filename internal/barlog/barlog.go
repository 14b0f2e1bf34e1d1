// Package barlog records finalized windows to hourly-rotated JSONL files for
// offline inspection.
package barlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"volume_follower/internal/models"
)

type Recorder struct {
	dir    string
	symbol string

	mu   sync.Mutex
	file *os.File
	hour string
}

// New returns nil when dir or symbol is empty; a nil Recorder is a no-op.
func New(dir, symbol string) *Recorder {
	dir = strings.TrimSpace(dir)
	symbol = strings.TrimSpace(symbol)
	if dir == "" || symbol == "" {
		return nil
	}
	_ = os.MkdirAll(dir, 0o755)
	return &Recorder{dir: dir, symbol: symbol}
}

func (r *Recorder) Close() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		_ = r.file.Close()
		r.file = nil
	}
}

// Record appends one finalized bar as a JSON line, rotating the file when
// the UTC hour changes.
func (r *Recorder) Record(out models.DeltaOutput) {
	if r == nil {
		return
	}
	hour := time.Now().UTC().Format("20060102-15")

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil || r.hour != hour {
		if r.file != nil {
			_ = r.file.Close()
			r.file = nil
		}
		path := filepath.Join(r.dir, fmt.Sprintf("%s-%s.jsonl", strings.ToLower(r.symbol), hour))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return
		}
		r.file = f
		r.hour = hour
	}

	b, err := json.Marshal(out)
	if err != nil || r.file == nil {
		return
	}
	_, _ = r.file.Write(append(b, '\n'))
}
