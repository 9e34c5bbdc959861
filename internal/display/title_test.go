package display

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gridclock/internal/model"
)

func TestCleanTitle_StripsSeriesAndYear(t *testing.T) {
	got := CleanTitle("FORMULA 1 AUSTRALIAN GRAND PRIX 2025 - QUALIFYING", TitleOptions{
		YearToken: "2025",
		OnlyF1:    true,
		Series:    model.SeriesF1,
	})

	assert.Equal(t, "Australian Race - Qualifying", got)
	assert.NotContains(t, got, "2025")
	assert.NotContains(t, got, "Formula 1")
}

func TestCleanTitle_Deterministic(t *testing.T) {
	opts := TitleOptions{YearToken: "2025", Series: model.SeriesF1}
	first := CleanTitle("FORMULA 1 MONACO GRAND PRIX 2025 - RACE", opts)
	second := CleanTitle("FORMULA 1 MONACO GRAND PRIX 2025 - RACE", opts)
	assert.Equal(t, first, second)
}

func TestCleanTitle_F1PrefixOnlyWhenOtherSeriesDisabled(t *testing.T) {
	summary := "F1: Monaco Grand Prix - Race"

	only := CleanTitle(summary, TitleOptions{OnlyF1: true, Series: model.SeriesF1})
	assert.Equal(t, "Monaco Race - Race", only)

	mixed := CleanTitle(summary, TitleOptions{OnlyF1: false, Series: model.SeriesF1})
	assert.Equal(t, "F1: Monaco Race - Race", mixed)
}

func TestCleanTitle_GrandPrixInsideParensPreserved(t *testing.T) {
	got := CleanTitle("FORMULA 1 Grand Prix (Monaco Grand Prix)", TitleOptions{Series: model.SeriesF1})
	assert.Equal(t, "Race (Monaco Grand Prix)", got)
}

func TestCleanTitle_TrimsLeadingNonWord(t *testing.T) {
	got := CleanTitle("- Qualifying", TitleOptions{Series: model.SeriesF1})
	assert.Equal(t, "Qualifying", got)
}

func TestCleanTitle_ParentheticalPunctuation(t *testing.T) {
	got := CleanTitle("Race( Melbourne )", TitleOptions{Series: model.SeriesF1})
	assert.Equal(t, "Race (Melbourne)", got)
}

func TestCleanTitle_NonF1GetsGPSuffix(t *testing.T) {
	got := CleanTitle("F2 Sprint Race (Bahrain)", TitleOptions{Series: model.SeriesF2})
	assert.Equal(t, "F2 Sprint Race (Bahrain Gp)", got)
}

func TestCleanTitle_NonF1ExistingGPSuffixKept(t *testing.T) {
	got := CleanTitle("F3 Feature Race (Bahrain GP)", TitleOptions{Series: model.SeriesF3})
	assert.Equal(t, "F3 Feature Race (Bahrain Gp)", got)
}

func TestCleanTitle_NonF1WithoutParenUnchanged(t *testing.T) {
	got := CleanTitle("F2 Feature Race", TitleOptions{Series: model.SeriesF2})
	assert.Equal(t, "F2 Feature Race", got)
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Australian Grand Prix", titleCase("AUSTRALIAN GRAND PRIX"))
	assert.Equal(t, "F1 Qualifying", titleCase("f1 qualifying"))
}
