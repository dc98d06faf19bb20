package types

import "time"

// ISO8601 formats t with a colon-separated numeric zone offset, e.g.
// "2025-02-26T11:16:28+01:00", matching the wire format used throughout the
// envelope and job-record fields.
func ISO8601(t time.Time) string {
	return t.Format("2006-01-02T15:04:05-07:00")
}

// ParseNaiveLocal parses a scheduler timestamp that carries no zone offset
// ("2025-02-26T11:16:28" or "2025-02-26 11:16:28") as wall-clock time in loc.
func ParseNaiveLocal(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errBadTimestamp(s)
}

type badTimestampError string

func (e badTimestampError) Error() string { return "bad timestamp: " + string(e) }

func errBadTimestamp(s string) error { return badTimestampError(s) }
