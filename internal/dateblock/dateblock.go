// Package dateblock computes the civil-date spans requested from the
// climate API and partitions them into yearly request blocks.
package dateblock

import (
	"fmt"
	"time"
)

// DateFormat is the wire format for civil dates accepted by the API.
const DateFormat = "2006-01-02"

// Block is a closed interval of civil dates, at most one year long.
type Block struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StartDate returns the block start in wire format.
func (b Block) StartDate() string {
	return b.Start.Format(DateFormat)
}

// EndDate returns the block end in wire format.
func (b Block) EndDate() string {
	return b.End.Format(DateFormat)
}

// Days returns the number of civil dates the block covers.
func (b Block) Days() int {
	return int(b.End.Sub(b.Start).Hours()/24) + 1
}

func (b Block) String() string {
	return b.StartDate() + ".." + b.EndDate()
}

// Date strips the clock from t and pins the civil date to UTC midnight.
// All calendar math happens on these instants so DST shifts in the
// reporting timezone cannot skew block boundaries.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Yesterday returns the civil date preceding now as observed in loc.
func Yesterday(now time.Time, loc *time.Location) time.Time {
	return Date(now.In(loc)).AddDate(0, 0, -1)
}

// SpanEndingYesterday returns the start and end dates of a span covering
// the given number of years and ending on yesterday's date in loc.
func SpanEndingYesterday(now time.Time, loc *time.Location, years int) (time.Time, time.Time) {
	end := Yesterday(now, loc)
	return end.AddDate(-years, 0, 0), end
}

// ParseDate parses a wire-format civil date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateFormat, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// Partition splits [start, end] into consecutive yearly blocks. Blocks are
// contiguous and non-overlapping: each block ends the day before the next
// one starts, and the final block is truncated at end.
func Partition(start, end time.Time) ([]Block, error) {
	start, end = Date(start), Date(end)
	if start.After(end) {
		return nil, fmt.Errorf("span start %s is after end %s", start.Format(DateFormat), end.Format(DateFormat))
	}

	var blocks []Block
	for cursor := start; !cursor.After(end); {
		// One calendar year minus a day; AddDate normalizes leap days.
		blockEnd := cursor.AddDate(1, 0, 0).AddDate(0, 0, -1)
		if blockEnd.After(end) {
			blockEnd = end
		}
		blocks = append(blocks, Block{Start: cursor, End: blockEnd})
		cursor = blockEnd.AddDate(0, 0, 1)
	}
	return blocks, nil
}
