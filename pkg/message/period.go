package message

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const periodLayout = "2006-01-02"

// Period is a calendar date without a zone; a message's time zone gives it an absolute meaning.
type Period struct {
	Year  int
	Month time.Month
	Day   int
}

// ParsePeriod parses an ISO-8601 calendar date (YYYY-MM-DD).
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse(periodLayout, s)
	if err != nil {
		return Period{}, fmt.Errorf("message:period - invalid period %q: %w", s, err)
	}
	return Period{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// MustPeriod is ParsePeriod for literals known to be valid.
func MustPeriod(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

// PeriodOf returns the calendar date of t in t's location.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0 && p.Day == 0
}

// AddDays returns the period n calendar days later.
func (p Period) AddDays(n int) Period {
	return PeriodOf(time.Date(p.Year, p.Month, p.Day+n, 0, 0, 0, 0, time.UTC))
}

// Before reports whether p is an earlier calendar date than o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	if p.Month != o.Month {
		return p.Month < o.Month
	}
	return p.Day < o.Day
}

// Midnight returns the start of the period in loc.
func (p Period) Midnight(loc *time.Location) time.Time {
	return time.Date(p.Year, p.Month, p.Day, 0, 0, 0, 0, loc)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", p.Year, int(p.Month), p.Day)
}

func (p Period) MarshalJSON() ([]byte, error) {
	if p.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(p.String())
}

func (p *Period) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*p = Period{}
		return nil
	}
	parsed, err := ParsePeriod(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Duration is an ISP length, serialized as an ISO-8601 duration (e.g. "PT15M").
type Duration time.Duration

var isoDuration = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDuration parses the time-only subset of ISO-8601 durations UFTP uses for ISP lengths.
func ParseDuration(s string) (Duration, error) {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "PT" {
		return 0, fmt.Errorf("message:period - invalid ISO-8601 duration %q", s)
	}
	var d time.Duration
	for i, unit := range []time.Duration{time.Hour, time.Minute, time.Second} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("message:period - invalid ISO-8601 duration %q: %w", s, err)
		}
		d += time.Duration(n) * unit
	}
	return Duration(d), nil
}

// Minutes builds a Duration of n minutes.
func Minutes(n int) Duration {
	return Duration(time.Duration(n) * time.Minute)
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	td := time.Duration(d)
	if td <= 0 {
		return "PT0S"
	}
	h := td / time.Hour
	td -= h * time.Hour
	m := td / time.Minute
	td -= m * time.Minute
	s := td / time.Second
	out := "PT"
	if h > 0 {
		out += strconv.Itoa(int(h)) + "H"
	}
	if m > 0 {
		out += strconv.Itoa(int(m)) + "M"
	}
	if s > 0 {
		out += strconv.Itoa(int(s)) + "S"
	}
	return out
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
