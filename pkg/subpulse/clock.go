package subpulse

import "time"

// Clock provides the wall-clock time used to resolve the current reporting
// date. A fixed implementation makes day-boundary behavior testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

const dateLayout = "2006-01-02"

var jakarta = loadJakarta()

func loadJakarta() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		// No tzdata available: Jakarta has no DST, a fixed UTC+7 is exact.
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

// JakartaDate formats t as a Jakarta-local calendar date (YYYY-MM-DD).
// All aggregate records are keyed by this date.
func JakartaDate(t time.Time) string {
	return t.In(jakarta).Format(dateLayout)
}

func jakartaTimestamp(t time.Time) string {
	return t.In(jakarta).Format("2006-01-02 15:04:05")
}
