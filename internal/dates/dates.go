// Package dates translates (year, month) query parameters into the half-open
// date interval the repositories filter on.
package dates

import "time"

const dateLayout = "2006-01-02"

// Range is a half-open interval [Start, End): Start is included, End is
// excluded. Using the first day of the next month as the exclusive bound
// avoids any off-by-one reasoning about month lengths or leap years.
//
// StartDate and EndDate carry the same bounds as zero-padded ISO date
// strings, ready to compare against the events table's TEXT date column.
type Range struct {
	Start     time.Time
	End       time.Time
	StartDate string
	EndDate   string
}

// MonthRange plans the date filter for a month query.
//
// When both year and month are supplied it returns
// [first-of-month, first-of-next-month). December rolls over into January of
// the following year: time.Date normalizes month 13 for us.
//
// When either value is missing (zero) or month is out of range, it returns
// ok=false, meaning no date filter at all. Supplying only a year is
// deliberately identical to supplying neither — callers scope by both or get
// everything.
func MonthRange(year, month int) (Range, bool) {
	if year <= 0 || month < 1 || month > 12 {
		return Range{}, false
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)

	return Range{
		Start:     start,
		End:       end,
		StartDate: start.Format(dateLayout),
		EndDate:   end.Format(dateLayout),
	}, true
}
