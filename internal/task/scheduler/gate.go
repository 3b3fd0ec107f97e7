package scheduler

import (
	"fmt"
	"slices"
	"time"
)

// Gate lets a run through only during configured hours of the day.
type Gate struct {
	Hours    []int
	Location *time.Location
}

// Allow reports whether a run at now may proceed. force bypasses the hours.
// When the run is refused, reason says why.
func (g Gate) Allow(now time.Time, force bool) (ok bool, reason string) {
	if force {
		return true, ""
	}
	loc := g.Location
	if loc == nil {
		loc = time.Local
	}
	hour := now.In(loc).Hour()
	if slices.Contains(g.Hours, hour) {
		return true, ""
	}
	return false, fmt.Sprintf("Not running because hour is %d", hour)
}
