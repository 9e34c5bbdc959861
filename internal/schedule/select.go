// Package schedule turns the raw session collection into the ordered,
// bounded, annotated display selection.
package schedule

import (
	"sort"
	"strings"
	"time"

	"gridclock/internal/model"
)

// Options controls one selection pass.
type Options struct {
	// Now is the sampled current time; only sessions strictly after it
	// are kept.
	Now time.Time
	// MaxSessions bounds the selection, applied after ordering.
	MaxSessions int
	// FantasyLock enables the fantasy-lock warning classification.
	FantasyLock bool
}

// Select filters the collection to future sessions, orders it
// chronologically (stable, so feed order breaks ties), truncates it to
// MaxSessions and, when enabled, flags the fantasy-lock session of each F1
// race weekend. The input slice is not modified.
func Select(sessions []model.Session, opts Options) []model.Session {
	work := make([]model.Session, len(sessions))
	copy(work, sessions)

	if opts.FantasyLock {
		flagFantasyLock(work, opts.Now)
	}

	upcoming := work[:0:0]
	for _, s := range work {
		if s.Start.After(opts.Now) {
			upcoming = append(upcoming, s)
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].Start.Before(upcoming[j].Start)
	})

	if opts.MaxSessions > 0 && len(upcoming) > opts.MaxSessions {
		upcoming = upcoming[:opts.MaxSessions]
	}
	return upcoming
}

// weekendKey clusters sessions into a race weekend by (year, month,
// day-of-month/7). Known limitation: a weekend spanning a month boundary
// splits into two keys. That is the source behavior and is kept as is.
type weekendKey struct {
	year  int
	month time.Month
	slot  int
}

func keyFor(t time.Time) weekendKey {
	return weekendKey{year: t.Year(), month: t.Month(), slot: t.Day() / 7}
}

// isLockCandidate reports whether a summary names a session that locks
// fantasy lineups: qualifying or sprint, but never sprint qualifying.
func isLockCandidate(summary string) bool {
	s := strings.ToLower(summary)
	if strings.Contains(s, "sprint qualifying") {
		return false
	}
	return strings.Contains(s, "qualifying") || strings.Contains(s, "sprint")
}

// flagFantasyLock marks, per F1 race weekend, the earliest qualifying-or-
// sprint session as the fantasy-lock session. Sessions already in the past
// are never flagged. Only F1 entries participate; other series never carry
// the warning.
func flagFantasyLock(sessions []model.Session, now time.Time) {
	earliest := make(map[weekendKey]int)

	for i, s := range sessions {
		if s.Series != model.SeriesF1 || !isLockCandidate(s.Summary) {
			continue
		}
		k := keyFor(s.Start)
		if j, ok := earliest[k]; !ok || s.Start.Before(sessions[j].Start) {
			earliest[k] = i
		}
	}

	for _, i := range earliest {
		if sessions[i].Start.After(now) {
			sessions[i].FantasyWarning = true
		}
	}
}
