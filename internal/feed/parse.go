package feed

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	applog "gridclock/internal/log"
	"gridclock/internal/model"
)

// ExtractConfig controls session extraction from a feed body.
type ExtractConfig struct {
	// Now anchors recurrence expansion; recurring entries are only
	// expanded into [Now, Now+Horizon].
	Now time.Time
	// Horizon bounds how far ahead recurring entries are expanded.
	Horizon time.Duration
	// MaxPerEvent caps occurrences expanded from a single recurring
	// entry. Zero means defaultMaxPerEvent.
	MaxPerEvent int
}

const defaultMaxPerEvent = 500

// ExtractSessions parses a feed body into session entries.
//
// A structurally malformed body fails the whole feed (the caller degrades
// it to a FeedError). Individual entries missing a summary or start time
// are dropped silently, logged at debug level only.
func ExtractSessions(src Source, body []byte, cfg ExtractConfig) ([]model.Session, error) {
	logger := applog.WithComponent("feed")

	if len(body) == 0 {
		return nil, errors.New("empty feed body")
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = 120 * 24 * time.Hour
	}
	if cfg.MaxPerEvent <= 0 {
		cfg.MaxPerEvent = defaultMaxPerEvent
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	sessions := make([]model.Session, 0)
	dropped := 0

	for _, ve := range cal.Events() {
		summary := ""
		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
			summary = strings.TrimSpace(p.Value)
		}
		if summary == "" {
			dropped++
			logger.Debug().Str("series", string(src.Series)).Msg("entry dropped: no summary")
			continue
		}

		start, err := ve.GetStartAt()
		if err != nil || start.IsZero() {
			dropped++
			logger.Debug().
				Str("series", string(src.Series)).
				Str("summary", summary).
				Msg("entry dropped: no start time")
			continue
		}

		if rr := ve.GetProperty(ical.ComponentPropertyRrule); rr != nil && rr.Value != "" {
			sessions = append(sessions, expandRecurring(ve, src, summary, start, rr.Value, cfg)...)
			continue
		}

		sessions = append(sessions, model.Session{
			Series:  src.Series,
			Summary: summary,
			Start:   start,
		})
	}

	logger.Info().
		Str("series", string(src.Series)).
		Int("sessions", len(sessions)).
		Int("dropped", dropped).
		Msg("feed parse completed")

	return sessions, nil
}
