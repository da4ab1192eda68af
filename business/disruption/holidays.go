package disruption

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// HolidayChecker reports whether a date should be excluded from a weekly
// application pattern marked ExcludeHolidays.
type HolidayChecker interface {
	IsHoliday(at time.Time) bool
}

// businessCalendar adapts rickar/cal/v2's BusinessCalendar to HolidayChecker.
type businessCalendar struct {
	calendar *cal.BusinessCalendar
}

// NewHolidayChecker builds a HolidayChecker over the US federal holiday set.
func NewHolidayChecker() HolidayChecker {
	calendar := cal.NewBusinessCalendar()
	calendar.AddHoliday(
		us.NewYear, us.MlkDay, us.MemorialDay, us.IndependenceDay,
		us.LaborDay, us.ThanksgivingDay, us.ChristmasDay, us.Juneteenth,
	)
	return &businessCalendar{calendar: calendar}
}

func (b *businessCalendar) IsHoliday(at time.Time) bool {
	_, observed, _ := b.calendar.IsHoliday(at)
	return observed
}
