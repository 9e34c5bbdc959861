package display

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridclock/internal/config"
	"gridclock/internal/model"
)

func TestBuild(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	sessions := []model.Session{
		{
			Series:         model.SeriesF1,
			Summary:        "FORMULA 1 AUSTRALIAN GRAND PRIX 2025 - QUALIFYING",
			Start:          now.Add(26 * time.Hour),
			FantasyWarning: true,
		},
		{
			Series:  model.SeriesF1,
			Summary: "FORMULA 1 AUSTRALIAN GRAND PRIX 2025 - RACE",
			Start:   now.Add(50 * time.Hour),
		},
	}
	snap := config.Snapshot{
		YearToken: "2025",
		OnlyF1:    true,
		Location:  time.UTC,
	}

	items := Build(sessions, snap, now)

	require.Len(t, items, 2)
	assert.Equal(t, "Australian Race - Qualifying", items[0].Title)
	assert.Equal(t, "Sat, 15 Mar 2025 14:00 UTC", items[0].When)
	assert.True(t, items[0].FantasyWarning)
	assert.Equal(t, Palette[0], items[0].Color)
	assert.Equal(t, Palette[0], items[1].Color)
	assert.Equal(t, model.Remaining{Days: 1, Hours: 2}, items[0].Countdown)

	// Input sessions are read-only for the formatter.
	assert.Equal(t, "FORMULA 1 AUSTRALIAN GRAND PRIX 2025 - QUALIFYING", sessions[0].Summary)
}
