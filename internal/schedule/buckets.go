package schedule

import (
	"errors"
	"fmt"

	"supply-rounds/internal/model"
)

// ErrInvalidScheduleDay is returned when a movement targets a day outside
// the schedule horizon.
var ErrInvalidScheduleDay = errors.New("invalid schedule day")

// Schedule is a fixed set of per-day movement buckets. A movement sits in
// the bucket of the day it must be submitted (the day it starts transit),
// not the day it arrives.
type Schedule struct {
	buckets [][]model.Movement
}

// NewSchedule allocates one empty bucket per day in [0, horizonDays).
func NewSchedule(horizonDays int) *Schedule {
	if horizonDays < 0 {
		horizonDays = 0
	}
	return &Schedule{buckets: make([][]model.Movement, horizonDays)}
}

// Horizon is the number of day buckets.
func (s *Schedule) Horizon() int { return len(s.buckets) }

// Append adds a movement to the bucket for day, preserving insertion order.
func (s *Schedule) Append(day int, m model.Movement) error {
	if day < 0 || day >= len(s.buckets) {
		return fmt.Errorf("%w: day %d outside [0, %d)", ErrInvalidScheduleDay, day, len(s.buckets))
	}
	s.buckets[day] = append(s.buckets[day], m)
	return nil
}

// Bucket returns the movements scheduled for day without removing them.
// Days outside the horizon have no bucket and yield nil.
func (s *Schedule) Bucket(day int) []model.Movement {
	if day < 0 || day >= len(s.buckets) {
		return nil
	}
	return s.buckets[day]
}

// Len counts all scheduled movements.
func (s *Schedule) Len() int {
	n := 0
	for _, b := range s.buckets {
		n += len(b)
	}
	return n
}
