// Package timex contains time helpers shared by config loaders and models.
package timex

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration wraps time.Duration so JSON can carry either a Go duration
// string ("3s", "1m30s") or an integer number of nanoseconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration type %T", v)
	}
}

// NowMillis returns the current wall-clock time in unix milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// NextMillis returns a timestamp strictly greater than prev, based on the
// wall clock. Used to keep updatedAt monotonic per record even when two
// edits land in the same millisecond.
func NextMillis(prev int64) int64 {
	now := NowMillis()
	if now <= prev {
		return prev + 1
	}
	return now
}
