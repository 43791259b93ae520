package reports

import (
	"log/slog"
	"strings"
	"time"
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// DateParser reads ISO-8601 filter values and re-anchors their wall clock
// to the store timezone.
type DateParser struct {
	loc    *time.Location
	logger *slog.Logger
}

// NewDateParser returns a parser for loc.
func NewDateParser(loc *time.Location, logger *slog.Logger) DateParser {
	if loc == nil {
		loc = time.UTC
	}
	return DateParser{loc: loc, logger: logger}
}

// ParsedDate is a filter instant plus whether only a calendar day was given.
type ParsedDate struct {
	Time     time.Time
	DateOnly bool
}

// Parse returns nil for empty or malformed input. Malformed input is logged.
// A trailing Z reads as +00:00; whatever the offset, the wall clock is kept
// and placed in the store timezone.
func (p DateParser) Parse(field, raw string) *ParsedDate {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasSuffix(raw, "Z") {
		raw = strings.TrimSuffix(raw, "Z") + "+00:00"
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return &ParsedDate{Time: p.anchor(t), DateOnly: true}
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &ParsedDate{Time: p.anchor(t)}
		}
	}
	if p.logger != nil {
		p.logger.Warn("ignoring invalid date filter", slog.String("field", field), slog.String("value", raw))
	}
	return nil
}

// Instant is Parse without the date-only marker.
func (p DateParser) Instant(field, raw string) *time.Time {
	parsed := p.Parse(field, raw)
	if parsed == nil {
		return nil
	}
	return &parsed.Time
}

func (p DateParser) anchor(t time.Time) time.Time {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, mo, d, h, mi, s, t.Nanosecond(), p.loc)
}

// nextDay is the exclusive end-of-day bound for t.
func nextDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1)
}
