package dateblock

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestPartitionCoversSpanExactly walks ten-year spans ending on a set of
// reference dates and verifies the partition covers every date exactly
// once, with contiguous year boundaries and no block longer than a year.
func TestPartitionCoversSpanExactly(t *testing.T) {
	refs := []time.Time{
		date(2024, time.March, 14),
		date(2024, time.February, 29), // span ends on a leap day
		date(2021, time.February, 28), // leap days inside the span only
		date(2023, time.December, 31),
		date(2024, time.January, 1),
		date(2020, time.June, 30),
	}

	for _, end := range refs {
		start := end.AddDate(-10, 0, 0)
		blocks, err := Partition(start, end)
		if err != nil {
			t.Fatalf("Partition(%s, %s): %v", start, end, err)
		}
		if len(blocks) == 0 {
			t.Fatalf("Partition(%s, %s): no blocks", start, end)
		}

		if !blocks[0].Start.Equal(start) {
			t.Errorf("first block starts %s, want %s", blocks[0].Start, start)
		}
		if !blocks[len(blocks)-1].End.Equal(end) {
			t.Errorf("last block ends %s, want %s", blocks[len(blocks)-1].End, end)
		}

		for i, b := range blocks {
			if b.Start.After(b.End) {
				t.Errorf("block %d inverted: %s", i, b)
			}
			// No block may span more than one calendar year.
			if b.End.After(b.Start.AddDate(1, 0, 0).AddDate(0, 0, -1)) {
				t.Errorf("block %d longer than a year: %s", i, b)
			}
			if i == 0 {
				continue
			}
			want := blocks[i-1].End.AddDate(0, 0, 1)
			if !b.Start.Equal(want) {
				t.Errorf("block %d starts %s, want %s (gap or overlap at year boundary)", i, b.StartDate(), want.Format(DateFormat))
			}
		}

		// Exhaustive coverage: every date in the span belongs to exactly
		// one block.
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			hits := 0
			for _, b := range blocks {
				if !d.Before(b.Start) && !d.After(b.End) {
					hits++
				}
			}
			if hits != 1 {
				t.Fatalf("date %s covered by %d blocks, want 1", d.Format(DateFormat), hits)
			}
		}
	}
}

func TestPartitionLeapDayBoundaries(t *testing.T) {
	// A block starting on Feb 29 must end on the following Feb 28, not
	// spill into March.
	blocks, err := Partition(date(2016, time.February, 29), date(2018, time.March, 1))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := blocks[0].EndDate(), "2017-02-28"; got != want {
		t.Errorf("leap start block ends %s, want %s", got, want)
	}
	if got, want := blocks[1].StartDate(), "2017-03-01"; got != want {
		t.Errorf("second block starts %s, want %s", got, want)
	}
}

func TestPartitionSingleDay(t *testing.T) {
	d := date(2022, time.July, 4)
	blocks, err := Partition(d, d)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if blocks[0].Days() != 1 {
		t.Errorf("got %d days, want 1", blocks[0].Days())
	}
}

func TestPartitionRejectsInvertedSpan(t *testing.T) {
	if _, err := Partition(date(2023, time.May, 2), date(2023, time.May, 1)); err == nil {
		t.Fatal("expected error for inverted span")
	}
}

func TestYesterdayUsesLocation(t *testing.T) {
	bogota := time.FixedZone("America/Bogota", -5*3600)
	// 03:00 UTC on March 10 is still March 9 in Bogota, so "yesterday"
	// differs between the two zones.
	now := time.Date(2024, time.March, 10, 3, 0, 0, 0, time.UTC)

	if got, want := Yesterday(now, time.UTC), date(2024, time.March, 9); !got.Equal(want) {
		t.Errorf("UTC yesterday = %s, want %s", got, want)
	}
	if got, want := Yesterday(now, bogota), date(2024, time.March, 8); !got.Equal(want) {
		t.Errorf("Bogota yesterday = %s, want %s", got, want)
	}
}

func TestSpanEndingYesterday(t *testing.T) {
	now := time.Date(2024, time.March, 14, 12, 0, 0, 0, time.UTC)
	start, end := SpanEndingYesterday(now, time.UTC, 10)
	if got, want := end, date(2024, time.March, 13); !got.Equal(want) {
		t.Errorf("end = %s, want %s", got, want)
	}
	if got, want := start, date(2014, time.March, 13); !got.Equal(want) {
		t.Errorf("start = %s, want %s", got, want)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2019-11-30")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(date(2019, time.November, 30)) {
		t.Errorf("ParseDate = %s", got)
	}

	for _, bad := range []string{"", "30-11-2019", "2019/11/30", "2019-13-01"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q): expected error", bad)
		}
	}
}
