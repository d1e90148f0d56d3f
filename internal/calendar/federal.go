// Package calendar provides holiday sets and business-day arithmetic for
// deadline calculations. Holidays are the union of a compiled-in US federal
// table and per-project overrides.
package calendar

import "time"

// federalHolidays lists US federal holidays by year, with observed-day
// adjustments where the holiday falls on a weekend.
var federalHolidays = map[int][]time.Time{
	2025: {
		date(2025, 1, 1),   // New Year's Day
		date(2025, 1, 20),  // MLK Jr. Day
		date(2025, 2, 17),  // Presidents' Day
		date(2025, 5, 26),  // Memorial Day
		date(2025, 6, 19),  // Juneteenth
		date(2025, 7, 4),   // Independence Day
		date(2025, 9, 1),   // Labor Day
		date(2025, 10, 13), // Columbus Day
		date(2025, 11, 11), // Veterans Day
		date(2025, 11, 27), // Thanksgiving
		date(2025, 12, 25), // Christmas
	},
	2026: {
		date(2026, 1, 1),   // New Year's Day
		date(2026, 1, 19),  // MLK Jr. Day
		date(2026, 2, 16),  // Presidents' Day
		date(2026, 5, 25),  // Memorial Day
		date(2026, 6, 19),  // Juneteenth
		date(2026, 7, 3),   // Independence Day (observed)
		date(2026, 9, 7),   // Labor Day
		date(2026, 10, 12), // Columbus Day
		date(2026, 11, 11), // Veterans Day
		date(2026, 11, 26), // Thanksgiving
		date(2026, 12, 25), // Christmas
	},
	2027: {
		date(2027, 1, 1),   // New Year's Day
		date(2027, 1, 18),  // MLK Jr. Day
		date(2027, 2, 15),  // Presidents' Day
		date(2027, 5, 31),  // Memorial Day
		date(2027, 6, 18),  // Juneteenth (observed)
		date(2027, 7, 5),   // Independence Day (observed)
		date(2027, 9, 6),   // Labor Day
		date(2027, 10, 11), // Columbus Day
		date(2027, 11, 11), // Veterans Day
		date(2027, 11, 25), // Thanksgiving
		date(2027, 12, 24), // Christmas (observed)
	},
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FederalHolidays returns the federal holidays for a year. Years outside
// the compiled table return an empty slice.
func FederalHolidays(year int) []time.Time {
	return federalHolidays[year]
}
