package expense

import "time"

// SetClock replaces the id source and clock so tests get stable values.
func SetClock(s *Service, newID func() int64, now func() time.Time) {
	s.newID = newID
	s.now = now
}
