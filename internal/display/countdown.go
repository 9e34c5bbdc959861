package display

import (
	"time"

	"gridclock/internal/model"
)

// Until computes the whole days, hours, minutes and seconds remaining from
// now until start. A session that has already started yields the terminal
// state instead of negative components.
func Until(start, now time.Time) model.Remaining {
	d := start.Sub(now)
	if d <= 0 {
		return model.Remaining{Started: true}
	}
	return model.Remaining{
		Days:    int(d / (24 * time.Hour)),
		Hours:   int(d % (24 * time.Hour) / time.Hour),
		Minutes: int(d % time.Hour / time.Minute),
		Seconds: int(d % time.Minute / time.Second),
	}
}
