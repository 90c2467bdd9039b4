package shower

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// RunMetadata carries the static, run-level descriptors an EventSource
// reports once per run: an identifier, the producing software's version
// string, and the run's reference (start) time.
type RunMetadata struct {
	ObservationID   int
	SoftwareVersion string
	ReferenceTime   time.Time
}

// ParseReferenceTime parses a run reference time in "yyyy/ddd hh:mm:ss" form
// (day-of-year, as array-control software commonly logs run start times)
// into a time.Time, resolving the day-of-year against the Gregorian
// leap-year rule for the given year.
func ParseReferenceTime(s string) (time.Time, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("%w: expected \"yyyy/ddd hh:mm:ss\", got %q", ErrBadReferenceTime, s)
	}

	datePart := strings.SplitN(parts[0], "/", 2)
	if len(datePart) != 2 {
		return time.Time{}, fmt.Errorf("%w: expected yyyy/ddd, got %q", ErrBadReferenceTime, parts[0])
	}
	year, err := strconv.Atoi(datePart[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: year %q: %v", ErrBadReferenceTime, datePart[0], err)
	}
	doy, err := strconv.Atoi(datePart[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: day-of-year %q: %v", ErrBadReferenceTime, datePart[1], err)
	}
	month, day := julian.DayOfYearToCalendar(doy, julian.LeapYearGregorian(year))

	hms := strings.Split(parts[1], ":")
	if len(hms) != 3 {
		return time.Time{}, fmt.Errorf("%w: expected hh:mm:ss, got %q", ErrBadReferenceTime, parts[1])
	}
	clock := make([]int, 3)
	for i, v := range hms {
		clock[i], err = strconv.Atoi(v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: clock field %q: %v", ErrBadReferenceTime, v, err)
		}
	}

	return time.Date(year, time.Month(month), day, clock[0], clock[1], clock[2], 0, time.UTC), nil
}
