package advisory

import (
	"fmt"
	"time"
)

// Bucket names the time slot a feed's date parameter is taken from.
type Bucket int

const (
	BucketNone Bucket = iota
	BucketCurrent
	BucketOutlook
	BucketAirmet0
	BucketAirmet1
	BucketAirmet2
	BucketAirmet3
)

func (b Bucket) String() string {
	switch b {
	case BucketNone:
		return "none"
	case BucketCurrent:
		return "current"
	case BucketOutlook:
		return "outlook"
	case BucketAirmet0, BucketAirmet1, BucketAirmet2, BucketAirmet3:
		return fmt.Sprintf("airmet%d", int(b-BucketAirmet0))
	default:
		return fmt.Sprintf("bucket(%d)", int(b))
	}
}

// Buckets holds every snapshot time derived from one reading of the clock.
type Buckets struct {
	Current time.Time
	Outlook time.Time
	Airmet  [4]time.Time
}

const airmetStep = 3 * time.Hour

// ComputeBuckets derives the upstream snapshot times for now, in UTC:
// current is the next top of hour, outlook is the top of hour plus three
// hours, and the airmets walk forward in 3-hour steps from the latest 3-hour
// boundary at or before now.
func ComputeBuckets(now time.Time) Buckets {
	now = now.UTC()
	hour := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, time.UTC)
	base := hour.Add(-time.Duration(now.Hour()%3) * time.Hour)

	b := Buckets{
		Current: hour.Add(time.Hour),
		Outlook: hour.Add(3 * time.Hour),
	}
	for i := range b.Airmet {
		b.Airmet[i] = base.Add(time.Duration(i) * airmetStep)
	}
	return b
}

// At returns the time for bucket k; ok is false for BucketNone.
func (b Buckets) At(k Bucket) (t time.Time, ok bool) {
	switch k {
	case BucketCurrent:
		return b.Current, true
	case BucketOutlook:
		return b.Outlook, true
	case BucketAirmet0, BucketAirmet1, BucketAirmet2, BucketAirmet3:
		return b.Airmet[k-BucketAirmet0], true
	default:
		return time.Time{}, false
	}
}

// FormatDate renders t as the upstream's YYYYMMDDHH00 in UTC. Minutes are
// always "00".
func FormatDate(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%04d%02d%02d%02d00", t.Year(), int(t.Month()), t.Day(), t.Hour())
}
