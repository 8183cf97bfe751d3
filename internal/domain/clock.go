package domain

import "fmt"

// Season represents one quarter of the in-game year
type Season string

const (
	SeasonSpring Season = "SPRING"
	SeasonSummer Season = "SUMMER"
	SeasonFall   Season = "FALL"
	SeasonWinter Season = "WINTER"
)

const (
	// WeeksPerSeason is the length of one season on the game calendar
	WeeksPerSeason = 12

	// SeasonsPerYear is the number of seasons in one game year
	SeasonsPerYear = 4

	// WeeksPerYear is the length of one game year (the trailing window used
	// by share metrics and the share-price grace period)
	WeeksPerYear = WeeksPerSeason * SeasonsPerYear
)

// seasonOrder maps each season to its position within the year
var seasonOrder = map[Season]int{
	SeasonSpring: 0,
	SeasonSummer: 1,
	SeasonFall:   2,
	SeasonWinter: 3,
}

// GameDate is a point on the shared game calendar.
// All decay and trend math is driven by this calendar, never by wall-clock time.
type GameDate struct {
	Week   int // 1-based week within the season
	Season Season
	Year   int // 1-based game year
}

// Validate ensures the date is a real position on the game calendar
func (d GameDate) Validate() error {
	if d.Week < 1 || d.Week > WeeksPerSeason {
		return fmt.Errorf("week must be between 1 and %d, got %d", WeeksPerSeason, d.Week)
	}
	if _, ok := seasonOrder[d.Season]; !ok {
		return fmt.Errorf("unknown season: %s", d.Season)
	}
	if d.Year < 1 {
		return fmt.Errorf("year must be >= 1, got %d", d.Year)
	}
	return nil
}

// AbsoluteWeek converts the date to a monotonically increasing week count
// since the start of the game (week 1 of spring, year 1 => 0).
// Event timestamps and "weeks elapsed" math use this value.
func (d GameDate) AbsoluteWeek() int {
	return (d.Year-1)*WeeksPerYear + seasonOrder[d.Season]*WeeksPerSeason + (d.Week - 1)
}

// WeeksSince returns the number of whole game weeks elapsed since other.
// Negative when other is in the future.
func (d GameDate) WeeksSince(other GameDate) int {
	return d.AbsoluteWeek() - other.AbsoluteWeek()
}

// seasonByOrder is the inverse of seasonOrder
var seasonByOrder = [SeasonsPerYear]Season{SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter}

// DateFromAbsoluteWeek converts a monotonic week count back to a calendar
// date. Negative weeks clamp to the start of the game.
func DateFromAbsoluteWeek(week int) GameDate {
	if week < 0 {
		week = 0
	}
	return GameDate{
		Week:   week%WeeksPerSeason + 1,
		Season: seasonByOrder[(week/WeeksPerSeason)%SeasonsPerYear],
		Year:   week/WeeksPerYear + 1,
	}
}
