// Package receipt renders a plain-text receipt for a stored reservation.
package receipt

import (
	"fmt"
	"strings"

	"github.com/punchamoorthee/stayledger/internal/domain"
	"github.com/punchamoorthee/stayledger/internal/money"
)

const (
	rule       = "================================"
	dateLayout = "02 January 2006"
)

// Render builds the receipt from the record alone; nothing is looked up.
func Render(r domain.Reservation) string {
	asset := r.Asset
	if asset == "" {
		asset = domain.NativeAsset
	}

	var b strings.Builder
	b.WriteString("StayLedger Reservation Receipt\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Reservation ID: %s\n", r.ID)
	fmt.Fprintf(&b, "Property: %s\n", r.ListingTitle)
	fmt.Fprintf(&b, "Location: %s\n", r.Location)
	fmt.Fprintf(&b, "Check-in: %s\n", r.CheckIn.UTC().Format(dateLayout))
	fmt.Fprintf(&b, "Check-out: %s\n", r.CheckOut.UTC().Format(dateLayout))
	fmt.Fprintf(&b, "Nights: %d\n", r.Nights)
	fmt.Fprintf(&b, "Guests: %d\n", r.Guests)
	fmt.Fprintf(&b, "Subtotal: %s %s\n", money.FormatDisplay(r.Subtotal), asset)
	fmt.Fprintf(&b, "Service fee: %s %s\n", money.FormatDisplay(r.ServiceFee), asset)
	fmt.Fprintf(&b, "Total: %s %s\n", money.FormatDisplay(r.GrandTotal), asset)
	fmt.Fprintf(&b, "Deposit: %s %s\n", money.FormatDisplay(r.Deposit), asset)
	fmt.Fprintf(&b, "Status: %s\n", r.Status)
	fmt.Fprintf(&b, "Transaction: %s\n", r.TxHash)
	if r.Memo != "" {
		fmt.Fprintf(&b, "Memo: %s\n", r.Memo)
	}
	b.WriteString(rule + "\n")
	b.WriteString("Settled on the ledger.\n")
	return b.String()
}

// Filename is the suggested download name for a reservation's receipt.
func Filename(id string) string {
	return "stayledger-receipt-" + id + ".txt"
}
