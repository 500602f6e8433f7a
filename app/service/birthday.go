package service

import (
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/repository"
)

const daysInYear = 365

// NewBirthdayWindow maps [today, today+days] onto month*100+day keys. A window
// of a full year or more covers every date.
func NewBirthdayWindow(today time.Time, days int) repository.BirthdayWindow {
	end := today.AddDate(0, 0, days)
	return repository.BirthdayWindow{
		Start: monthDayKey(today),
		End:   monthDayKey(end),
		All:   days >= daysInYear,
	}
}

func monthDayKey(t time.Time) int {
	return int(t.Month())*100 + t.Day()
}
