// Package isptime places ISP indices of a calendar day on the time line, taking the day's
// length in the message's time zone into account (23h and 25h days around DST transitions).
package isptime

import (
	"errors"
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/morezero/uftp-compliance/pkg/message"
)

const logPrefix = "isptime:calendar"

// ErrEmptyIspList is returned when a maximum index is asked of a message without intervals.
// Upstream schema validation guarantees at least one interval, so this is a fault, not a rejection.
var ErrEmptyIspList = errors.New("isptime: empty ISP list")

var (
	locMu     sync.RWMutex
	locations = map[string]*time.Location{}
)

// Location loads an IANA time zone, caching the result.
func Location(name string) (*time.Location, error) {
	locMu.RLock()
	loc, ok := locations[name]
	locMu.RUnlock()
	if ok {
		return loc, nil
	}
	if name == "" {
		return nil, fmt.Errorf("%s - empty time zone", logPrefix)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%s - unknown time zone %q: %w", logPrefix, name, err)
	}
	locMu.Lock()
	locations[name] = loc
	locMu.Unlock()
	return loc, nil
}

// DayLength returns the wall-clock length of period in the named zone: the time between local
// midnight of the period and local midnight of the next day.
func DayLength(period message.Period, timeZone string) (time.Duration, error) {
	loc, err := Location(timeZone)
	if err != nil {
		return 0, err
	}
	start := period.Midnight(loc)
	end := period.AddDays(1).Midnight(loc)
	return end.Sub(start), nil
}

// IspCount returns the number of ISPs of length ispDuration on period in the named zone,
// e.g. 92, 96 or 100 for 15 minute ISPs.
func IspCount(period message.Period, timeZone string, ispDuration time.Duration) (uint64, error) {
	if ispDuration <= 0 {
		return 0, fmt.Errorf("%s - ISP duration must be positive, got %v", logPrefix, ispDuration)
	}
	length, err := DayLength(period, timeZone)
	if err != nil {
		return 0, err
	}
	return uint64(length / ispDuration), nil
}

// IspEnd returns the instant ISP index ends: local midnight of period plus index ISP durations.
func IspEnd(period message.Period, timeZone string, ispDuration time.Duration, index uint64) (time.Time, error) {
	loc, err := Location(timeZone)
	if err != nil {
		return time.Time{}, err
	}
	return period.Midnight(loc).Add(time.Duration(index) * ispDuration), nil
}

// IspStart returns the instant ISP index starts.
func IspStart(period message.Period, timeZone string, ispDuration time.Duration, index uint64) (time.Time, error) {
	if index == 0 {
		return time.Time{}, fmt.Errorf("%s - ISP indices start at 1", logPrefix)
	}
	return IspEnd(period, timeZone, ispDuration, index-1)
}

// MaxIndex returns the highest index covered by any interval of any list. It fails with
// ErrEmptyIspList when there is no interval at all.
func MaxIndex(lists [][]message.IspInfo) (uint64, error) {
	found := false
	var highest uint64
	for _, list := range lists {
		for _, isp := range list {
			found = true
			if end := isp.End(); end > highest {
				highest = end
			}
		}
	}
	if !found {
		return 0, ErrEmptyIspList
	}
	return highest, nil
}

// MaxForDay returns the highest valid ISP index for the calendar of a message.
func MaxForDay(cal message.Calendar) (uint64, error) {
	return IspCount(cal.Period, cal.TimeZone, cal.ISPDuration.Std())
}

// LastIspEnd returns the end of the highest ISP any list of the message covers. The maximum is
// taken across all sub-lists, so for a FlexOffer it is the end of the longest option.
func LastIspEnd(cal message.Calendar, lists [][]message.IspInfo) (time.Time, error) {
	highest, err := MaxIndex(lists)
	if err != nil {
		return time.Time{}, err
	}
	return IspEnd(cal.Period, cal.TimeZone, cal.ISPDuration.Std(), highest)
}
