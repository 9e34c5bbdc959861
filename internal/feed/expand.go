package feed

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	applog "gridclock/internal/log"
	"gridclock/internal/model"
)

// expandRecurring expands a recurring entry into concrete sessions within
// [cfg.Now, cfg.Now+cfg.Horizon], honoring EXDATE. Race feeds are normally
// flat, but feeds are untrusted calendar text and a recurring entry must
// not collapse into a single stale instance.
func expandRecurring(ve *ical.VEvent, src Source, summary string, start time.Time, rawRule string, cfg ExtractConfig) []model.Session {
	logger := applog.WithComponent("feed")

	r, err := rrule.StrToRRule(rawRule)
	if err != nil {
		logger.Debug().Err(err).
			Str("series", string(src.Series)).
			Str("summary", summary).
			Msg("entry dropped: bad recurrence rule")
		return nil
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)

	for _, ex := range exDates(ve, start.Location()) {
		set.ExDate(ex)
	}

	rangeStart := cfg.Now.In(start.Location())
	rangeEnd := cfg.Now.Add(cfg.Horizon).In(start.Location())

	times := set.Between(rangeStart, rangeEnd, true)
	if len(times) > cfg.MaxPerEvent {
		times = times[:cfg.MaxPerEvent]
		logger.Info().
			Str("series", string(src.Series)).
			Str("summary", summary).
			Int("cap", cfg.MaxPerEvent).
			Msg("recurrence expansion truncated")
	}

	out := make([]model.Session, 0, len(times))
	for _, t := range times {
		out = append(out, model.Session{
			Series:  src.Series,
			Summary: summary,
			Start:   t,
		})
	}
	return out
}

// exDates collects EXDATE values from a VEVENT, best effort. Values that
// fail to parse are skipped.
func exDates(ve *ical.VEvent, loc *time.Location) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part, loc); err == nil {
				out = append(out, t.In(loc))
			}
		}
	}
	return out
}

// parseICSTime parses a basic ICS date or date-time string.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
