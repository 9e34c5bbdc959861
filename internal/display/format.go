package display

import (
	"time"

	"gridclock/internal/config"
	"gridclock/internal/model"
)

// whenLayout is the localized timestamp shown under each title.
const whenLayout = "Mon, 02 Jan 2006 15:04 MST"

// Build derives the display items for a classified, ordered, bounded
// session selection. Pure: the input sessions are read only.
func Build(sessions []model.Session, snap config.Snapshot, now time.Time) []model.DisplayItem {
	colors := AssignColors(sessions)

	items := make([]model.DisplayItem, 0, len(sessions))
	for i, s := range sessions {
		items = append(items, model.DisplayItem{
			Key:    s.Key(),
			Series: s.Series,
			Title: CleanTitle(s.Summary, TitleOptions{
				YearToken: snap.YearToken,
				OnlyF1:    snap.OnlyF1,
				Series:    s.Series,
			}),
			When:           s.Start.In(snap.Location).Format(whenLayout),
			Start:          s.Start,
			Color:          colors[i],
			FantasyWarning: s.FantasyWarning,
			Countdown:      Until(s.Start, now),
		})
	}
	return items
}
