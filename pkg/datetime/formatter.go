package datetime

import (
	"time"

	"github.com/rs/zerolog/log"
)

type Formatter struct {
	now func() time.Time
	loc *time.Location
}

func NewFormatter() *Formatter {
	return &Formatter{now: time.Now, loc: time.Local}
}

// NewFormatterAt pins the clock and zone, for deterministic output.
func NewFormatterAt(now time.Time, loc *time.Location) *Formatter {
	return &Formatter{now: func() time.Time { return now }, loc: loc}
}

var feedDateFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	"January 2, 2006 15:04:05",
	"Jan 2, 2006 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02",
}

// ParseFeedDate parses the date formats seen in RSS and Atom feeds. ok is false
// when nothing matched; the returned time is then the zero value.
func (f *Formatter) ParseFeedDate(dateStr string) (time.Time, bool) {
	if dateStr == "" {
		return time.Time{}, false
	}

	for _, format := range feedDateFormats {
		if parsedTime, err := time.Parse(format, dateStr); err == nil {
			return parsedTime.UTC(), true
		}
	}

	log.Debug().Str("date", dateStr).Msg("Could not parse feed date with any known format")
	return time.Time{}, false
}

// FormatForDisplay renders t relative to now: Today, Yesterday, a weekday
// within the last week, then "January 2" or "January 2, 2006".
func (f *Formatter) FormatForDisplay(t time.Time) string {
	local := t.In(f.loc)
	now := f.now().In(f.loc)

	if isSameDay(local, now) {
		return "Today"
	}

	yesterday := now.AddDate(0, 0, -1)
	if isSameDay(local, yesterday) {
		return "Yesterday"
	}

	weekAgo := now.AddDate(0, 0, -7)
	if local.After(weekAgo) {
		return local.Format("Monday")
	}

	if local.Year() == now.Year() {
		return local.Format("January 2")
	}

	return local.Format("January 2, 2006")
}

func isSameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
