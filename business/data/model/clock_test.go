package model

import (
	"testing"

	"github.com/matryer/is"
)

func TestParsePositiveDuration(t *testing.T) {
	tests := []struct {
		name    string
		give    string
		want    PositiveDuration
		wantErr bool
	}{
		{name: "zero", give: "00:00:00", want: NewPositiveDuration(0, 0, 0)},
		{name: "ordinary", give: "08:15:30", want: NewPositiveDuration(8, 15, 30)},
		{name: "past midnight", give: "25:00:00", want: NewPositiveDuration(25, 0, 0)},
		{name: "too few parts", give: "08:15", wantErr: true},
		{name: "minutes out of range", give: "08:60:00", wantErr: true},
		{name: "seconds out of range", give: "08:00:60", wantErr: true},
		{name: "not numeric", give: "aa:00:00", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			got, err := ParsePositiveDuration(tt.give)
			if tt.wantErr {
				is.True(err != nil)
				return
			}
			is.NoErr(err)
			is.Equal(got, tt.want)
		})
	}
}

func TestPositiveDurationString(t *testing.T) {
	is := is.New(t)
	is.Equal(NewPositiveDuration(1, 2, 3).String(), "01:02:03")
	is.Equal(NewPositiveDuration(25, 0, 0).String(), "25:00:00")
}

func TestNewSecondsTzRange(t *testing.T) {
	is := is.New(t)

	_, err := NewSecondsTz(maxSecondsInTimezonedDay)
	is.NoErr(err)

	_, err = NewSecondsTz(-maxSecondsInTimezonedDay)
	is.NoErr(err)

	_, err = NewSecondsTz(maxSecondsInTimezonedDay + 1)
	is.True(err != nil)

	_, err = NewSecondsTz(-maxSecondsInTimezonedDay - 1)
	is.True(err != nil)
}

func TestSecondsTzToUTC(t *testing.T) {
	is := is.New(t)

	tz, err := NewSecondsTz(8 * 60 * 60)
	is.NoErr(err)

	utc, err := tz.ToUTC(7 * 60 * 60)
	is.NoErr(err)
	is.Equal(utc.TotalSeconds(), int32(15*60*60))
}

func TestNewSecondsUtcRange(t *testing.T) {
	is := is.New(t)

	_, err := NewSecondsUtc(maxSecondsInUTCDay)
	is.NoErr(err)

	_, err = NewSecondsUtc(maxSecondsInUTCDay + 1)
	is.True(err != nil)
}

func TestInstantArithmetic(t *testing.T) {
	is := is.New(t)

	start, err := NewInstant(0, SecondsUtc{})
	is.NoErr(err)

	later, err := NewInstant(1, SecondsUtc{seconds: 3600})
	is.NoErr(err)

	is.True(start.Before(later))
	is.True(later.After(start))

	dur, err := later.Sub(start)
	is.NoErr(err)
	is.Equal(dur.TotalSeconds(), uint32(secondsInADay+3600))

	_, err = start.Sub(later)
	is.True(err != nil)

	plused := start.Plus(NewPositiveDuration(0, 0, 30))
	is.Equal(plused.TotalSeconds(), uint32(30))

	minused, err := later.Minus(NewPositiveDuration(1, 0, 0))
	is.NoErr(err)
	is.Equal(minused.TotalSeconds(), later.TotalSeconds()-3600)

	_, err = start.Minus(NewPositiveDuration(0, 0, 1))
	is.True(err != nil)
}

func TestInstantDayAndSeconds(t *testing.T) {
	is := is.New(t)

	inst, err := NewInstant(2, SecondsUtc{seconds: 100})
	is.NoErr(err)

	day, secs := inst.DayAndSeconds()
	is.Equal(day, DayOffset(2))
	is.Equal(secs, uint32(100))
}

func TestNewInstantNegativeRejected(t *testing.T) {
	is := is.New(t)

	_, err := NewInstant(0, SecondsUtc{seconds: -100})
	is.True(err != nil)
}
