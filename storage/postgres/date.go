package postgres

import (
	"fmt"
	"strings"
	"time"
)

// Layouts tried for date columns stored as text.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	time.RFC1123,
	"2006-01-02",
}

// dateValue scans a date column that may be a timestamp or text.
// NULL and unparsable text leave the zero time.
type dateValue struct {
	Time time.Time
}

func (d *dateValue) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Time = time.Time{}
	case time.Time:
		d.Time = v.UTC()
	case []byte:
		d.Time = parseDate(string(v))
	case string:
		d.Time = parseDate(v)
	default:
		return fmt.Errorf("unsupported date type %T", src)
	}
	return nil
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
