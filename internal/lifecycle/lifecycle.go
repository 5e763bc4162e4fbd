// Package lifecycle derives a reservation's effective status from the wall clock.
package lifecycle

import (
	"time"

	"github.com/punchamoorthee/stayledger/internal/domain"
)

// Initial is the status every reservation is created with.
const Initial = domain.StatusUpcoming

// Resolve maps a stored status and stay window to the effective status at now.
// Cancelled is terminal. Both window boundaries count as active.
func Resolve(stored domain.Status, checkIn, checkOut, now time.Time) domain.Status {
	if stored == domain.StatusCancelled {
		return domain.StatusCancelled
	}
	switch {
	case now.Before(checkIn):
		return domain.StatusUpcoming
	case now.After(checkOut):
		return domain.StatusCompleted
	default:
		return domain.StatusActive
	}
}

// Apply returns r with its status resolved at now.
func Apply(r domain.Reservation, now time.Time) domain.Reservation {
	r.Status = Resolve(r.Status, r.CheckIn, r.CheckOut, now)
	return r
}
