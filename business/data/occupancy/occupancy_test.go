package occupancy

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestParseLevel(t *testing.T) {
	is := is.New(t)

	tests := []struct {
		in   string
		want Level
	}{
		{"low", Low},
		{"medium", Medium},
		{"high", High},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		is.NoErr(err)
		is.Equal(got, tt.want)
	}

	_, err := ParseLevel("unknown")
	is.True(err != nil)
}

func TestLevelString(t *testing.T) {
	is := is.New(t)
	is.Equal(Low.String(), "low")
	is.Equal(Medium.String(), "medium")
	is.Equal(High.String(), "high")
	is.Equal(Level(99).String(), "unknown")
}

func TestStoreAtAndEmpty(t *testing.T) {
	is := is.New(t)

	empty := &Store{byKey: map[Key]Level{}}
	is.True(empty.Empty())
	_, ok := empty.At(Key{VehicleJourneyId: "vj:1"})
	is.True(!ok)

	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	key := Key{VehicleJourneyId: "vj:1", Date: date, StopSequence: 3}
	store := &Store{byKey: map[Key]Level{key: High}}
	is.True(!store.Empty())

	level, ok := store.At(key)
	is.True(ok)
	is.Equal(level, High)

	_, ok = store.At(Key{VehicleJourneyId: "vj:2", Date: date, StopSequence: 3})
	is.True(!ok)
}
