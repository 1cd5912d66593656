package domain

import (
	"errors"
	"time"
)

// TimestampLayout renders drain times as UTC RFC 3339 with milliseconds,
// e.g. 2025-08-20T10:21:34.123Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var ErrInvalidScript = errors.New(`Missing or invalid "script" field`)

// DrainResult is every script that was pending at a drain, oldest first,
// along with the time of that drain.
type DrainResult struct {
	Scripts   []string
	DrainedAt time.Time
}

type LastDrain struct {
	DrainedAt time.Time
	Drained   bool
}

func (ld LastDrain) EpochMs() int64 {
	return ld.DrainedAt.UnixMilli()
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
