package service

import "github.com/punchamoorthee/stayledger/internal/domain"

// Summary aggregates a party's reservations for the account views.
type Summary struct {
	Total         int     `json:"total"`
	Upcoming      int     `json:"upcoming"`
	Active        int     `json:"active"`
	Completed     int     `json:"completed"`
	Cancelled     int     `json:"cancelled"`
	TotalAmount   float64 `json:"totalAmount"`
	DepositsOwed  float64 `json:"depositsOwed"`
	Reviewed      int     `json:"reviewed"`
	AverageRating float64 `json:"averageRating"`
}

// Summarize counts reservations per status. TotalAmount covers every record,
// cancelled ones included, since no refund is ever paid out.
func Summarize(rs []domain.Reservation) Summary {
	var s Summary
	ratingSum := 0
	for _, r := range rs {
		s.Total++
		s.TotalAmount += r.GrandTotal
		switch r.Status {
		case domain.StatusUpcoming:
			s.Upcoming++
		case domain.StatusActive:
			s.Active++
		case domain.StatusCompleted:
			s.Completed++
		case domain.StatusCancelled:
			s.Cancelled++
			s.DepositsOwed += r.Deposit
		}
		if r.Rating != nil {
			s.Reviewed++
			ratingSum += *r.Rating
		}
	}
	if s.Reviewed > 0 {
		s.AverageRating = float64(ratingSum) / float64(s.Reviewed)
	}
	return s
}
