package availability

import (
	"testing"
	"time"
)

func BenchmarkEngineStartOptions(b *testing.B) {
	engine := NewEngine(nil, WithSlotMinutes(15))
	date := time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC)
	schedule := OperatingSchedule{
		Days:  []time.Weekday{time.Monday},
		Hours: OperatingHours{Open: Midnight, Close: Midnight},
	}

	bookings := make([]BookingInterval, 0, 24)
	for hour := 0; hour < 24; hour += 2 {
		start := TimeOfDay(hour * 60).On(date, time.UTC)
		bookings = append(bookings, BookingInterval{Start: start, End: start.Add(45 * time.Minute)})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		slots := engine.StartOptions(date, schedule, bookings)
		if len(slots) == 0 {
			b.Fatal("expected slots to be generated")
		}
	}
}

func BenchmarkEngineOperatingDates(b *testing.B) {
	engine := NewEngine(nil)
	schedule := OperatingSchedule{
		Days:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Hours: OperatingHours{Open: MustParseTimeOfDay("09:00"), Close: MustParseTimeOfDay("17:00")},
	}
	from := time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 3, 0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dates, err := engine.OperatingDates(schedule, from, to)
		if err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
		n := 0
		for range dates {
			n++
		}
		if n == 0 {
			b.Fatal("expected operating dates to be generated")
		}
	}
}
