package model

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	secondsInADay            = 24 * 60 * 60
	maxSecondsInTimezonedDay = 2 * secondsInADay  // +/- 48h
	maxTimezoneOffset        = secondsInADay      // +/- 24h
	maxSecondsInUTCDay       = maxSecondsInTimezonedDay + maxTimezoneOffset // +/- 72h
)

// PositiveDuration is an unsigned seconds count, parsed from "HH:MM:SS".
type PositiveDuration struct {
	seconds uint32
}

// ZeroDuration is the PositiveDuration with no elapsed seconds.
var ZeroDuration = PositiveDuration{}

// NewPositiveDuration builds a PositiveDuration from hours, minutes and seconds.
func NewPositiveDuration(hours, minutes, seconds uint32) PositiveDuration {
	return PositiveDuration{seconds: seconds + 60*minutes + 60*60*hours}
}

// ParsePositiveDuration parses "HH:MM:SS", rejecting minutes or seconds >= 60.
func ParsePositiveDuration(s string) (PositiveDuration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return PositiveDuration{}, fmt.Errorf("model: %q is not a valid HH:MM:SS duration", s)
	}
	hours, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return PositiveDuration{}, fmt.Errorf("model: %q is not a valid HH:MM:SS duration: %w", s, err)
	}
	minutes, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return PositiveDuration{}, fmt.Errorf("model: %q is not a valid HH:MM:SS duration: %w", s, err)
	}
	seconds, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return PositiveDuration{}, fmt.Errorf("model: %q is not a valid HH:MM:SS duration: %w", s, err)
	}
	if minutes >= 60 || seconds >= 60 {
		return PositiveDuration{}, fmt.Errorf("model: %q is not a valid HH:MM:SS duration: minutes/seconds must be < 60", s)
	}
	return NewPositiveDuration(uint32(hours), uint32(minutes), uint32(seconds)), nil
}

// TotalSeconds returns the duration as a plain seconds count.
func (d PositiveDuration) TotalSeconds() uint32 { return d.seconds }

// Add returns d + other.
func (d PositiveDuration) Add(other PositiveDuration) PositiveDuration {
	return PositiveDuration{seconds: d.seconds + other.seconds}
}

// String renders "HH:MM:SS".
func (d PositiveDuration) String() string {
	h := d.seconds / 3600
	m := (d.seconds % 3600) / 60
	s := d.seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// SecondsTz is a duration since "noon minus 12 hours" on a day, expressed in
// a stop's local timezone. This is the "Time" notion found in GTFS/NTFS
// stop_times.txt. Accepted range is +/- 48h.
type SecondsTz struct {
	seconds int32
}

// NewSecondsTz validates and builds a SecondsTz, failing outside +/- 48h.
func NewSecondsTz(seconds int32) (SecondsTz, error) {
	if seconds < -maxSecondsInTimezonedDay || seconds > maxSecondsInTimezonedDay {
		return SecondsTz{}, fmt.Errorf("model: %d seconds is outside the +/-48h timezoned range", seconds)
	}
	return SecondsTz{seconds: seconds}, nil
}

// TotalSeconds returns the raw signed seconds value.
func (s SecondsTz) TotalSeconds() int32 { return s.seconds }

// ToUTC converts s to SecondsUtc given utcMinusLocalSeconds, the number of
// seconds to add to a local time to obtain UTC (negative east of Greenwich).
func (s SecondsTz) ToUTC(utcMinusLocalSeconds int32) (SecondsUtc, error) {
	return NewSecondsUtc(s.seconds + utcMinusLocalSeconds)
}

// String renders "-HH:MM:SS_tz" for negative values, "HH:MM:SS_tz" otherwise.
func (s SecondsTz) String() string {
	return formatSigned(s.seconds, "tz")
}

// SecondsUtc is a duration since UTC midnight of a particular day, used as an
// intermediate step when converting timezoned stop times to instants.
// Accepted range is +/- 72h (48h timezoned range + 24h max timezone offset).
type SecondsUtc struct {
	seconds int32
}

// NewSecondsUtc validates and builds a SecondsUtc, failing outside +/- 72h.
func NewSecondsUtc(seconds int32) (SecondsUtc, error) {
	if seconds < -maxSecondsInUTCDay || seconds > maxSecondsInUTCDay {
		return SecondsUtc{}, fmt.Errorf("model: %d seconds is outside the +/-72h UTC range", seconds)
	}
	return SecondsUtc{seconds: seconds}, nil
}

// TotalSeconds returns the raw signed seconds value.
func (s SecondsUtc) TotalSeconds() int32 { return s.seconds }

func (s SecondsUtc) String() string {
	return formatSigned(s.seconds, "utc")
}

func formatSigned(seconds int32, suffix string) string {
	sign := ""
	abs := seconds
	if seconds < 0 {
		sign = "-"
		abs = -seconds
	}
	return fmt.Sprintf("%s%02d:%02d:%02d_%s", sign, abs/3600, (abs/60)%60, abs%60, suffix)
}

// Instant is an unsigned count of seconds since the first valid day of the
// dataset started, in UTC. It is the unambiguous point-in-time representation
// used throughout the timetable store and solver.
type Instant struct {
	seconds uint32
}

// NewInstant builds the Instant for a given day offset and SecondsUtc within
// that day. Fails if the resulting seconds count would be negative.
func NewInstant(day DayOffset, secondsInDay SecondsUtc) (Instant, error) {
	total := int64(day)*secondsInADay + int64(secondsInDay.seconds)
	if total < 0 {
		return Instant{}, fmt.Errorf("model: instant for day %d and %s is negative", day, secondsInDay)
	}
	return Instant{seconds: uint32(total)}, nil
}

// TotalSeconds returns the raw seconds-since-dataset-start value.
func (i Instant) TotalSeconds() uint32 { return i.seconds }

// Before reports whether i occurs strictly before other.
func (i Instant) Before(other Instant) bool { return i.seconds < other.seconds }

// After reports whether i occurs strictly after other.
func (i Instant) After(other Instant) bool { return i.seconds > other.seconds }

// Sub returns the PositiveDuration between start and i, failing if i is
// before start (a negative duration).
func (i Instant) Sub(start Instant) (PositiveDuration, error) {
	if i.seconds < start.seconds {
		return PositiveDuration{}, fmt.Errorf("model: instant %d is before start instant %d", i.seconds, start.seconds)
	}
	return PositiveDuration{seconds: i.seconds - start.seconds}, nil
}

// Plus returns i advanced by d.
func (i Instant) Plus(d PositiveDuration) Instant {
	return Instant{seconds: i.seconds + d.seconds}
}

// Minus returns i moved back by d, failing if the result would be negative.
func (i Instant) Minus(d PositiveDuration) (Instant, error) {
	if d.seconds > i.seconds {
		return Instant{}, fmt.Errorf("model: instant %d minus duration %d is negative", i.seconds, d.seconds)
	}
	return Instant{seconds: i.seconds - d.seconds}, nil
}

// DayAndSeconds splits the instant back into a day offset and the UTC seconds
// elapsed within that day.
func (i Instant) DayAndSeconds() (DayOffset, uint32) {
	return DayOffset(i.seconds / secondsInADay), i.seconds % secondsInADay
}
