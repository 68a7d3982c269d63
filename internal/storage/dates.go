// Package storage reads and writes article corpora in SQLite and JSONL form.
package storage

import (
	"fmt"
	"math"
	"time"

	"github.com/jiekaitao/litmap/internal/article"
)

// julianUnixEpoch is the Julian day number of 1970-01-01T00:00:00Z.
const julianUnixEpoch = 2440587.5

// dateValue converts a publication_date column value to a time.
//
// SQLite has no date type, so values arrive as text, blobs, integers (Unix
// seconds), reals (Julian day numbers) or, for declared DATE/TIMESTAMP
// columns, as time.Time from the driver.
func dateValue(v any) (*time.Time, error) {
	switch d := v.(type) {
	case nil:
		return nil, nil
	case string:
		return article.ParseDate(d)
	case []byte:
		return article.ParseDate(string(d))
	case time.Time:
		t := d.UTC()
		return &t, nil
	case int64:
		t := time.Unix(d, 0).UTC()
		return &t, nil
	case float64:
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, fmt.Errorf("%w: julian day %v", article.ErrInvalidDate, d)
		}
		t := julianTime(d)
		return &t, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", article.ErrInvalidDate, v)
	}
}

// julianTime converts a Julian day number to UTC. Whole seconds and the
// fractional part are split before conversion so dates centuries away from
// 1970 do not saturate time.Duration.
func julianTime(jd float64) time.Time {
	secs := (jd - julianUnixEpoch) * 86400
	whole := math.Floor(secs)
	nanos := math.Round((secs - whole) * 1e9)
	if nanos >= 1e9 {
		whole++
		nanos -= 1e9
	}
	return time.Unix(int64(whole), int64(nanos)).UTC()
}

// formatDate renders a date the way it is stored: a plain calendar date when
// there is no time-of-day component, RFC 3339 otherwise.
func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	u := t.UTC()
	var s string
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		s = u.Format(time.DateOnly)
	} else {
		s = u.Format(time.RFC3339Nano)
	}
	return &s
}
