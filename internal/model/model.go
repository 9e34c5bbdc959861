package model

import "time"

// Series identifies one of the supported race series.
type Series string

const (
	SeriesF1 Series = "F1"
	SeriesF2 Series = "F2"
	SeriesF3 Series = "F3"
)

// AllSeries lists the supported series in display precedence order.
var AllSeries = []Series{SeriesF1, SeriesF2, SeriesF3}

// Session is one race-weekend activity (practice, qualifying, sprint, race)
// extracted from a calendar feed. Sessions live for a single fetch cycle and
// are replaced wholesale on the next one.
type Session struct {
	// Series is the feed the session came from.
	Series Series
	// Summary is the session title exactly as the feed provided it.
	Summary string
	// Start is the absolute session start time.
	Start time.Time
	// FantasyWarning marks the session after which a fantasy-game lineup
	// is presumed locked. Set during classification, never by extraction.
	FantasyWarning bool
}

// Key returns a stable per-cycle identity for the session, used to address
// countdown handles and scheduled alarms.
func (s Session) Key() string {
	return string(s.Series) + "/" + s.Start.UTC().Format(time.RFC3339) + "/" + s.Summary
}

// FeedError records the failure of a single series feed within a cycle.
// It is carried in the display set as a partial-failure indicator rather
// than aborting the whole cycle.
type FeedError struct {
	Series  Series `json:"series"`
	Stage   string `json:"stage"` // "fetch" or "parse"
	Message string `json:"message"`
}

// Remaining is the countdown breakdown for one session at a sampled instant.
// Once the session has started the component fields are zero and Started is
// true; components are never negative.
type Remaining struct {
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Seconds int  `json:"seconds"`
	Started bool `json:"started"`
}

// DisplayItem is one ready-to-render entry of the display set.
type DisplayItem struct {
	Key            string    `json:"key"`
	Series         Series    `json:"series"`
	Title          string    `json:"title"`
	When           string    `json:"when"`
	Start          time.Time `json:"start"`
	Color          string    `json:"color"`
	FantasyWarning bool      `json:"fantasyWarning"`
	Countdown      Remaining `json:"countdown"`
}

// DisplaySet is the complete output of one fetch cycle.
type DisplaySet struct {
	Items       []DisplayItem `json:"items"`
	FeedErrors  []FeedError   `json:"feedErrors,omitempty"`
	FetchedAt   time.Time     `json:"fetchedAt"`
	ShowSeconds bool          `json:"showSeconds"`
}
