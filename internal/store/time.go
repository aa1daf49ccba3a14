package store

import "time"

// dbTimeLayout is fixed-width so stored values compare lexically in time order.
const dbTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func dbFormatTime(t time.Time) string {
	return t.UTC().Format(dbTimeLayout)
}

func dbParseTime(raw string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}
