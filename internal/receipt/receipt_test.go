package receipt

import (
	"strings"
	"testing"
	"time"

	"github.com/punchamoorthee/stayledger/internal/domain"
)

func TestRender(t *testing.T) {
	r := domain.Reservation{
		ID:           "abc123",
		ListingTitle: "Bosphorus View Loft",
		Location:     "Istanbul, Beşiktaş",
		CheckIn:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:     time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
		Guests:       2,
		Nights:       3,
		Subtotal:     450,
		ServiceFee:   9,
		GrandTotal:   459,
		Deposit:      45,
		Status:       domain.StatusCancelled,
		TxHash:       "abc123",
		Memo:         "BK1:250601-250604",
	}

	got := Render(r)
	for _, want := range []string{
		"Reservation ID: abc123\n",
		"Property: Bosphorus View Loft\n",
		"Location: Istanbul, Beşiktaş\n",
		"Check-in: 01 June 2025\n",
		"Check-out: 04 June 2025\n",
		"Guests: 2\n",
		"Total: 459.00 XLM\n",
		"Deposit: 45.00 XLM\n",
		"Status: cancelled\n",
		"Transaction: abc123\n",
		"Memo: BK1:250601-250604\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("receipt missing %q:\n%s", want, got)
		}
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("abc123"); got != "stayledger-receipt-abc123.txt" {
		t.Errorf("got %q", got)
	}
}
