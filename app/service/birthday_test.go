package service_test

import (
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/repository"
	"github.com/vibast-solutions/ms-go-contacts/app/service"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 9, 30, 0, 0, time.UTC)
}

func inWindow(w repository.BirthdayWindow, month time.Month, day int) bool {
	key := int(month)*100 + day
	switch {
	case w.All:
		return true
	case w.Wraps():
		return key >= w.Start || key <= w.End
	default:
		return key >= w.Start && key <= w.End
	}
}

func TestNewBirthdayWindow(t *testing.T) {
	cases := []struct {
		name  string
		today time.Time
		days  int
		want  repository.BirthdayWindow
	}{
		{"within month", date(2025, time.June, 1), 7, repository.BirthdayWindow{Start: 601, End: 608}},
		{"month boundary", date(2025, time.January, 28), 7, repository.BirthdayWindow{Start: 128, End: 204}},
		{"year boundary", date(2025, time.December, 28), 7, repository.BirthdayWindow{Start: 1228, End: 104}},
		{"today only", date(2025, time.March, 3), 0, repository.BirthdayWindow{Start: 303, End: 303}},
		{"two months", date(2025, time.May, 20), 60, repository.BirthdayWindow{Start: 520, End: 719}},
		{"full year", date(2025, time.June, 1), 365, repository.BirthdayWindow{Start: 601, End: 601, All: true}},
	}

	for _, tc := range cases {
		got := service.NewBirthdayWindow(tc.today, tc.days)
		if got != tc.want {
			t.Fatalf("%s: expected %+v, got %+v", tc.name, tc.want, got)
		}
	}
}

func TestBirthdayWindowMembership(t *testing.T) {
	w := service.NewBirthdayWindow(date(2025, time.June, 1), 7)
	if !inWindow(w, time.June, 5) {
		t.Fatalf("expected 06-05 in window")
	}
	if inWindow(w, time.June, 10) {
		t.Fatalf("expected 06-10 outside window")
	}

	wrap := service.NewBirthdayWindow(date(2025, time.December, 28), 7)
	if !wrap.Wraps() {
		t.Fatalf("expected window to wrap")
	}
	for _, md := range [][2]int{{12, 28}, {12, 31}, {1, 1}, {1, 4}} {
		if !inWindow(wrap, time.Month(md[0]), md[1]) {
			t.Fatalf("expected %02d-%02d in wrapped window", md[0], md[1])
		}
	}
	for _, md := range [][2]int{{12, 27}, {1, 5}, {6, 15}} {
		if inWindow(wrap, time.Month(md[0]), md[1]) {
			t.Fatalf("expected %02d-%02d outside wrapped window", md[0], md[1])
		}
	}

	long := service.NewBirthdayWindow(date(2025, time.May, 20), 60)
	if !inWindow(long, time.June, 15) || inWindow(long, time.July, 20) {
		t.Fatalf("expected a multi-month window to stay a single interval")
	}
}

func TestBirthdayWindowLeapDay(t *testing.T) {
	w := service.NewBirthdayWindow(date(2025, time.February, 25), 7)
	if !inWindow(w, time.February, 29) {
		t.Fatalf("expected leap-day birthdays inside a window spanning end of February")
	}
}
